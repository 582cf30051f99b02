package i18n

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// Message ids used by the validator. Issue codes such as "parse_error" are
// accepted as ids too and map to a short generic message.
const (
	MsgSyntax        = "msg.syntax"
	MsgTooLarge      = "msg.too_large"
	MsgTooDeep       = "msg.too_deep"
	MsgDuplicateKey  = "msg.duplicate_key"
	MsgNotArray      = "msg.not_array"
	MsgNotObject     = "msg.not_object"
	MsgFieldMissing  = "msg.field_missing"
	MsgFieldType     = "msg.field_type"
	MsgFieldInteger  = "msg.field_integer"
	MsgFieldNegative = "msg.field_negative"
	MsgExtraKeys     = "msg.extra_keys"
	MsgDuplicateID   = "msg.duplicate_id"
	MsgIDExists      = "msg.id_exists"
	MsgLineSuffix    = "msg.line_suffix"
)

// Translator retrieves localized messages for message ids and Issue codes.
// data provides values for the {placeholders} in the message (for example,
// "index" or "key").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var catalogs = map[string]map[string]string{
	"en": {
		MsgSyntax:        "JSON syntax error: {detail}",
		MsgTooLarge:      "JSON text is larger than {max} bytes",
		MsgTooDeep:       "JSON nesting is deeper than {max} levels",
		MsgDuplicateKey:  `key "{key}" appears more than once in the same object`,
		MsgNotArray:      "JSON must be an array.",
		MsgNotObject:     "item #{index} must be an object.",
		MsgFieldMissing:  "item #{index} is missing the {field} property.",
		MsgFieldType:     "the {field} of item #{index} must be a number.",
		MsgFieldInteger:  "the {field} of item #{index} must be an integer.",
		MsgFieldNegative: "the {field} of item #{index} cannot be negative.",
		MsgExtraKeys:     "item #{index} has properties that are not allowed: {keys}",
		MsgDuplicateID:   "duplicate ID: {id}",
		MsgIDExists:      "ID {id} already exists.",
		MsgLineSuffix:    " (line {line})",

		"invalid_type":  "invalid type",
		"required":      "required property missing",
		"unknown_key":   "unknown key",
		"duplicate_key": "duplicate key",
		"too_small":     "too small",
		"uniqueness":    "duplicate identity",
		"parse_error":   "parse error",
		"truncated":     "truncated",
	},
	"ko": {
		MsgSyntax:        "JSON 구문 오류: {detail}",
		MsgTooLarge:      "JSON 텍스트가 {max}바이트를 초과합니다",
		MsgTooDeep:       "JSON 중첩이 {max}단계를 초과합니다",
		MsgDuplicateKey:  `같은 객체에 "{key}" 키가 중복되어 있습니다`,
		MsgNotArray:      "JSON은 배열 형태여야 합니다.",
		MsgNotObject:     "항목 #{index}은 객체여야 합니다.",
		MsgFieldMissing:  "항목 #{index}에 {field} 속성이 없습니다.",
		MsgFieldType:     "항목 #{index}의 {field}는 숫자여야 합니다.",
		MsgFieldInteger:  "항목 #{index}의 {field}는 정수여야 합니다.",
		MsgFieldNegative: "항목 #{index}의 {field}는 음수가 될 수 없습니다.",
		MsgExtraKeys:     "항목 #{index}에 허용되지 않은 속성이 있습니다: {keys}",
		MsgDuplicateID:   "중복된 ID가 있습니다: {id}",
		MsgIDExists:      "이미 존재하는 ID입니다: {id}",
		MsgLineSuffix:    " (약 {line}번째 줄)",

		"invalid_type":  "타입이 올바르지 않습니다",
		"required":      "필수 속성이 없습니다",
		"unknown_key":   "허용되지 않은 키입니다",
		"duplicate_key": "키가 중복되었습니다",
		"too_small":     "값이 너무 작습니다",
		"uniqueness":    "ID가 중복되었습니다",
		"parse_error":   "구문 분석 오류",
		"truncated":     "잘렸습니다",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalogs[t.lang][code]
	if !ok {
		msg, ok = catalogs["en"][code]
	}
	if !ok {
		return code
	}
	if len(data) == 0 {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var supported = language.NewMatcher([]language.Tag{language.English, language.Korean})

// Resolve maps a BCP 47 tag ("ko-KR", "en_US", "fr") to a built-in catalog.
// Anything without a confident match resolves to "en".
func Resolve(lang string) string {
	tag, _, conf := supported.Match(language.Make(strings.ReplaceAll(lang, "_", "-")))
	if conf == language.No {
		return "en"
	}
	base, _ := tag.Base()
	if base.String() == "ko" {
		return "ko"
	}
	return "en"
}

// For returns the built-in Translator for lang.
func For(lang string) Translator { return dictTranslator{lang: Resolve(lang)} }

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language.
func SetLanguage(lang string) {
	mu.Lock()
	currentTranslator = For(lang)
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores English.
func SetTranslator(tr Translator) {
	mu.Lock()
	defer mu.Unlock()
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// Current returns the process-wide Translator.
func Current() Translator {
	mu.RLock()
	defer mu.RUnlock()
	return currentTranslator
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return Current().Message(code, data) }
