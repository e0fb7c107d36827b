package fault

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code identifies a failure class. The core never formats user-facing text;
// callers map codes to whatever their transport needs.
type Code string

const (
	Forbidden               Code = "FORBIDDEN"
	NotFound                Code = "NOT_FOUND"
	Validation              Code = "VALIDATION_ERROR"
	DuplicateInRequest      Code = "DUPLICATE_IN_REQUEST"
	SkuExists               Code = "SKU_EXISTS"
	SkuNotFound             Code = "SKU_NOT_FOUND"
	InsufficientStock       Code = "INSUFFICIENT_STOCK"
	InsufficientPoints      Code = "INSUFFICIENT_POINTS"
	InvalidStatusTransition Code = "INVALID_STATUS_TRANSITION"
	CancelNotAllowed        Code = "CANCEL_NOT_ALLOWED"
)

// Error carries a code plus structured context (balance vs required, allowed
// transition set, and so on) so the transport layer can build a precise message.
type Error struct {
	Code    Code
	Details map[string]any
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return string(e.Code)
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Details[k]))
	}
	return string(e.Code) + " " + strings.Join(parts, " ")
}

// New builds an Error from a code and alternating key/value detail pairs.
func New(code Code, kv ...any) *Error {
	e := &Error{Code: code}
	if len(kv) > 0 {
		e.Details = make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			k, ok := kv[i].(string)
			if !ok {
				continue
			}
			e.Details[k] = kv[i+1]
		}
	}
	return e
}

// CodeOf extracts the fault code from err, if any.
func CodeOf(err error) (Code, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code, true
	}
	return "", false
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// DetailsOf returns the structured details attached to err, or nil.
func DetailsOf(err error) map[string]any {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Details
	}
	return nil
}
