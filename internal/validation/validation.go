// Package validation evaluates field rules against sanitized input and
// aggregates every violation into a field keyed feedback map.
package validation

import (
	"context"
	"net/url"
	"strings"

	"github.com/tphakala/camrelay/internal/errors"
)

// SummaryMessage accompanies every rejected input.
const SummaryMessage = "could not complete operation due to invalid data, please check feedback"

// Feedback maps a field name to its violation messages in the order they were produced.
type Feedback map[string][]string

// FieldResult is the outcome of one rule applied to one field.
type FieldResult struct {
	Field   string
	Message string
	Valid   bool
}

func pass(field string) FieldResult { return FieldResult{Field: field, Valid: true} }

func fail(field, message string) FieldResult {
	return FieldResult{Field: field, Message: message}
}

// NonEmpty rejects an empty value.
func NonEmpty(value, field, message string) FieldResult {
	if value == "" {
		return fail(field, message)
	}
	return pass(field)
}

// RTSPURL accepts absolute rtsp:// or rtsps:// URIs that name a host.
func RTSPURL(value, field, message string) FieldResult {
	if !IsRTSPURL(value) {
		return fail(field, message)
	}
	return pass(field)
}

// IsRTSPURL reports whether value parses as an rtsp or rtsps URI with a host.
func IsRTSPURL(value string) bool {
	if value == "" {
		return false
	}
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "rtsp", "rtsps":
	default:
		return false
	}
	return u.Hostname() != ""
}

// ExistenceChecker is the read used by CameraExists.
type ExistenceChecker interface {
	CameraExistsByID(ctx context.Context, id string) (bool, error)
}

// CameraExists is the only rule that touches a dependency. A lookup failure is
// returned as an error and must not be reported as a field violation.
func CameraExists(ctx context.Context, checker ExistenceChecker, id, field, message string) (FieldResult, error) {
	exists, err := checker.CameraExistsByID(ctx, id)
	if err != nil {
		return FieldResult{}, errors.New(err).
			Component("validation").
			Category(errors.CategoryDatabase).
			Context("rule", "camera_exists").
			Build()
	}
	if !exists {
		return fail(field, message), nil
	}
	return pass(field), nil
}

// Outcome is the aggregate of one validation pass.
type Outcome struct {
	Message  string
	Feedback Feedback
	// fields lists feedback keys in first-violation order
	fields []string
}

// Valid reports whether no rule failed.
func (o Outcome) Valid() bool { return len(o.Feedback) == 0 }

// Fields returns the rejected field names in the order their first violation was produced.
func (o Outcome) Fields() []string {
	out := make([]string, len(o.fields))
	copy(out, o.fields)
	return out
}

// Evaluate aggregates already evaluated rules. Every result is considered; nothing short-circuits.
func Evaluate(results ...FieldResult) Outcome {
	var outcome Outcome
	for _, r := range results {
		if r.Valid {
			continue
		}
		if outcome.Feedback == nil {
			outcome.Feedback = make(Feedback)
		}
		if _, seen := outcome.Feedback[r.Field]; !seen {
			outcome.fields = append(outcome.fields, r.Field)
		}
		outcome.Feedback[r.Field] = append(outcome.Feedback[r.Field], r.Message)
	}
	if !outcome.Valid() {
		outcome.Message = SummaryMessage
	}
	return outcome
}

// EmptyMessage builds the standard "<field> cannot be empty" message.
func EmptyMessage(field string) string {
	return field + " cannot be empty"
}
