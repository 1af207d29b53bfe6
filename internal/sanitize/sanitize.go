// Package sanitize applies ordered, pure transformation rules to user input
// before it reaches validation.
package sanitize

import (
	"strings"

	"github.com/tphakala/camrelay/internal/errors"
)

// ErrorPrefix is prepended to any rule failure so the origin is traceable in logs.
const ErrorPrefix = "Sanitization rule error: "

// Rule transforms a value or reports why it could not.
type Rule[T any] func(T) (T, error)

// Pipe runs rules in order over value, feeding each result into the next rule.
// The first failing rule stops the pipeline. With no rules the input is returned unchanged.
func Pipe[T any](value T, rules ...Rule[T]) (T, error) {
	current := value
	for _, rule := range rules {
		next, err := rule(current)
		if err != nil {
			var zero T
			return zero, errors.Newf("%s%s", ErrorPrefix, err.Error()).
				Component("sanitize").
				Category(errors.CategorySanitization).
				Build()
		}
		current = next
	}
	return current, nil
}

// TrimBothSides removes leading and trailing whitespace.
func TrimBothSides(s string) (string, error) {
	return strings.TrimSpace(s), nil
}

// CollapseWhitespace replaces every run of whitespace with a single space.
// Leading and trailing runs are dropped.
func CollapseWhitespace(s string) (string, error) {
	return strings.Join(strings.Fields(s), " "), nil
}

// Text is the rule set applied to every free-form string field of a camera.
func Text() []Rule[string] {
	return []Rule[string]{TrimBothSides, CollapseWhitespace}
}

// String is a convenience for Pipe(value, Text()...).
func String(value string) (string, error) {
	return Pipe(value, Text()...)
}
