package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/reoring/recordsync"
)

// ctxKeyCollection is a typed context key for a decoded request body.
type ctxKeyCollection struct{}

// ContextWithCollection attaches a validated collection to ctx.
func ContextWithCollection(ctx context.Context, c recordsync.Collection) context.Context {
	return context.WithValue(ctx, ctxKeyCollection{}, c)
}

// CollectionFromContext retrieves the collection stored by DecodeCollection.
func CollectionFromContext(ctx context.Context) (recordsync.Collection, bool) {
	c, ok := ctx.Value(ctxKeyCollection{}).(recordsync.Collection)
	return c, ok
}

// ValidateFunc checks a request body. Engine.Validate satisfies it.
type ValidateFunc func(text string) (recordsync.Collection, error)

// DecodeCollection reads the request body as collection text, validates it
// and passes the result to next through the request context. Invalid bodies
// are answered with ErrorPayload and never reach next.
func DecodeCollection(validate ValidateFunc, maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		text, err := readBody(w, r, maxBytes)
		if err != nil {
			writeError(w, err)
			return
		}
		c, err := validate(text)
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithCollection(r.Context(), c)))
	})
}

// ErrorPayload shapes a failure for JSON responses.
func ErrorPayload(err error) map[string]any {
	if d, ok := recordsync.AsDiagnostic(err); ok {
		return map[string]any{"diagnostic": d}
	}
	return map[string]any{"error": err.Error()}
}

// StatusFor maps an error to a response status: 409 for an identity
// conflict, 422 for any other diagnostic, 413 for oversized bodies.
func StatusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, recordsync.ErrDuplicateIdentity):
		return http.StatusConflict
	}
	if _, ok := recordsync.AsDiagnostic(err); ok {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

func readBody(w http.ResponseWriter, r *http.Request, maxBytes int64) (string, error) {
	body := r.Body
	if maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("reading request body: %w", err)
	}
	return string(data), nil
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), ErrorPayload(err))
}
