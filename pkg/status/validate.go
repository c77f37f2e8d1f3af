package status

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrMalformedResult     = errors.New("malformed result")
	ErrInvalidSeverity     = errors.New("invalid severity")
	ErrInvalidProtocolCode = errors.New("invalid protocol code")
	ErrEmptyMessage        = errors.New("empty message")
)

// Validate checks that r is a well-formed, internally consistent result.
// The first failing check is returned.
func Validate(r Result) error {
	if isNil(r) {
		return fmt.Errorf("%w: result is nil", ErrMalformedResult)
	}

	k := r.Kind()
	if !k.valid() {
		return fmt.Errorf("%w: unknown result kind %d", ErrMalformedResult, int(k))
	}

	sev := r.Severity()
	want, ok := CodeFor(k, sev)
	if !ok {
		return fmt.Errorf("%w: %q is not a %s severity", ErrInvalidSeverity, sev, k)
	}

	if got := r.Code(); got != want {
		return fmt.Errorf("%w: %s severity %s implies code %d, got %d", ErrInvalidProtocolCode, k, sev, want, got)
	}

	if strings.TrimSpace(r.Message()) == "" {
		return fmt.Errorf("%w: %s result has no message", ErrEmptyMessage, k)
	}

	return nil
}

func isNil(r Result) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
