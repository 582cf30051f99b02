package recordsync

import (
	"strconv"
	"strings"
)

// pathRef builds JSON Pointer paths in a chain-safe way. It also remembers the
// top-level element position and the last field so diagnostics can expose
// them without re-parsing the pointer.
type pathRef struct {
	parts []string
	index int // 1-based top-level element position; 0 when not element-scoped
	field string
}

func rootRef() pathRef { return pathRef{} }

func (p pathRef) Field(name string) pathRef {
	if name == "" {
		return p
	}
	// escape '~' -> '~0', '/' -> '~1' per RFC6901
	esc := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
	return pathRef{parts: append(append([]string{}, p.parts...), esc), index: p.index, field: name}
}

func (p pathRef) Index(i int) pathRef {
	out := pathRef{parts: append(append([]string{}, p.parts...), strconv.Itoa(i)), index: p.index}
	if len(p.parts) == 0 {
		out.index = i + 1
	}
	return out
}

func (p pathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

// parsePointer is the inverse of Pointer for paths reported by the engine.
func parsePointer(ptr string) pathRef {
	p := rootRef()
	for i, raw := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		if raw == "" {
			continue
		}
		if n, err := strconv.Atoi(raw); err == nil && i == 0 {
			p = p.Index(n)
			continue
		}
		p = p.Field(strings.ReplaceAll(strings.ReplaceAll(raw, "~1", "/"), "~0", "~"))
	}
	return p
}
