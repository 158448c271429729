// Package errors provides the classified error primitives used across sitebuilder.
//
// Every failure that leaves a build (pattern compilation, file IO, template
// rendering, filter conversion, routing) is a ClassifiedError carrying a
// category, a severity and structured context, built with the fluent
// ErrorBuilder:
//
//	err := errors.WrapError(cause, errors.CategoryTemplate, "render wrapping template").
//		WithContext("rule", rule.Name).
//		WithContext("template", name).
//		Build()
//
// Metadata parse failures are the only warning-severity errors produced by
// the engine; callers log them and continue.
//
// CLI and HTTP adapters turn classified errors into exit codes and JSON
// responses respectively.
package errors
