//go:build ruleguard

// Package gorules defines custom linter rules for camrelay.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// StructuredLogFields detects formatted log messages and suggests typed fields.
//
// Old pattern:
//
//	log.Info(fmt.Sprintf("camera %s saved", id))
//
// New pattern:
//
//	log.Info("camera saved", logger.String("camera_id", id))
//
// Formatted messages cannot be filtered or aggregated by field.
func StructuredLogFields(m dsl.Matcher) {
	m.Match(
		`$log.Trace(fmt.Sprintf($*_), $*_)`,
		`$log.Debug(fmt.Sprintf($*_), $*_)`,
		`$log.Info(fmt.Sprintf($*_), $*_)`,
		`$log.Warn(fmt.Sprintf($*_), $*_)`,
		`$log.Error(fmt.Sprintf($*_), $*_)`,
	).
		Where(m["log"].Type.Implements("github.com/tphakala/camrelay/internal/logger.Logger") &&
			!m.File().PkgPath.Matches(`internal/logger$`)).
		Report(`use a constant message and logger.Field values instead of fmt.Sprintf`)
}

// ErrorCategoryRequired detects enhanced errors built without a category. The telemetry
// reporter drops or forwards errors by category, so every infrastructure error needs one.
func ErrorCategoryRequired(m dsl.Matcher) {
	m.Match(
		`errors.New($err).Component($c).Build()`,
		`errors.Newf($*_).Component($c).Build()`,
		`errors.New($err).Component($c).Context($*_).Build()`,
	).
		Where(m.File().Imports("github.com/tphakala/camrelay/internal/errors")).
		Report(`set a Category on errors built for component $c`)
}

// HandlerErrorMapping detects handlers writing 500 responses themselves. Handler errors
// go through Controller.HandleError so they get a correlation id and a log line.
func HandlerErrorMapping(m dsl.Matcher) {
	m.Match(
		`$ctx.JSON(http.StatusInternalServerError, $_)`,
		`$ctx.JSON(500, $_)`,
	).
		Where(m.File().PkgPath.Matches(`internal/api/v2$`) &&
			!m.File().Name.Matches(`^errors\.go$`) &&
			!m.File().Name.Matches(`_test\.go$`)).
		Report(`return c.HandleError(ctx, err) instead of writing a 500 response`)
}

// TestContext detects context.Background and context.TODO in tests and suggests
// t.Context, which is cancelled when the test ends.
func TestContext(m dsl.Matcher) {
	m.Match(
		`context.Background()`,
		`context.TODO()`,
	).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report(`use t.Context() in tests (Go 1.24+)`)
}

// TimeSince suggests time.Since over subtracting from time.Now.
func TimeSince(m dsl.Matcher) {
	m.Match(`time.Now().Sub($t)`).
		Report(`use time.Since($t) instead of time.Now().Sub($t)`).
		Suggest(`time.Since($t)`)
}
