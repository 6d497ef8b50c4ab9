// =============================================================================
// GSTR-2B to Tally Masters - Field Validation
// =============================================================================
//
// This module parses and validates the leaf values of the documents the
// pipeline reads: the authority report and the intermediate invoice list.
// Both documents carry loosely typed JSON, so each leaf is decoded here with
// a uniform set of rules:
//   - Amounts: JSON numbers or numeric strings; missing or null means zero;
//     anything else (text, booleans, objects) is an invalid field value;
//     negative amounts are rejected.
//   - Text: JSON strings; missing or null means "not available"; anything
//     else is a malformed source.
//
// ERROR HANDLING:
//   - Errors are collected, not returned on the first failure
//   - Each error includes its location, field, raw value and message
//   - A Collector turns the collected errors into a single error value that
//     still matches the taxonomy sentinels with errors.Is
//
// =============================================================================

package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ginjaninja78/gstr2b-tally-masters/internal/types"
	"github.com/shopspring/decimal"
)

// NotAvailable is the marker used for text fields absent from the source.
const NotAvailable = "N/A"

// maxValueLength bounds how much of a raw value is echoed in diagnostics.
const maxValueLength = 40

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single invalid leaf value.
type ValidationError struct {
	// Location identifies the record, e.g. "b2b[0].inv[3]" or "record 7".
	Location string

	// Field is the JSON key that failed validation.
	Field string

	// Value is the raw JSON value, truncated for display.
	Value string

	// Message is a human-readable error message.
	Message string

	// Kind is the taxonomy sentinel this error belongs to.
	Kind error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s, field '%s': %s (value: %s)", e.Location, e.Field, e.Message, e.Value)
}

// Unwrap exposes the taxonomy sentinel.
func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// FieldErrors is the error returned by Collector.Err.
type FieldErrors struct {
	Errors []*ValidationError
}

func (e *FieldErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d invalid fields, first: %s", len(e.Errors), e.Errors[0].Error())
}

// Unwrap lets errors.Is match every sentinel carried by the collected errors.
func (e *FieldErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, ve := range e.Errors {
		errs[i] = ve
	}
	return errs
}

// =============================================================================
// COLLECTOR
// =============================================================================

// Collector accumulates validation errors for one document.
type Collector struct {
	errors []*ValidationError
}

// Add records an error. Kind should be one of the types sentinels.
func (c *Collector) Add(location, field string, raw json.RawMessage, message string, kind error) {
	c.errors = append(c.errors, &ValidationError{
		Location: location,
		Field:    field,
		Value:    displayValue(raw),
		Message:  message,
		Kind:     kind,
	})
}

// Amount parses raw as an amount, recording an error and returning zero
// when it is invalid.
func (c *Collector) Amount(location, field string, raw json.RawMessage) decimal.Decimal {
	value, msg := ParseAmount(raw)
	if msg != "" {
		c.Add(location, field, raw, msg, types.ErrInvalidFieldValue)
	}
	return value
}

// Text parses raw as text, recording an error when it is not a string.
// Missing or null values yield NotAvailable.
func (c *Collector) Text(location, field string, raw json.RawMessage) string {
	value, present, msg := ParseText(raw)
	if msg != "" {
		c.Add(location, field, raw, msg, types.ErrMalformedSource)
		return NotAvailable
	}
	if !present {
		return NotAvailable
	}
	return value
}

// Errors returns the collected errors.
func (c *Collector) Errors() []*ValidationError {
	return c.errors
}

// Err returns nil when nothing was collected, otherwise a *FieldErrors.
func (c *Collector) Err() error {
	if len(c.errors) == 0 {
		return nil
	}
	return &FieldErrors{Errors: c.errors}
}

// =============================================================================
// LEAF PARSERS
// =============================================================================

// ParseAmount decodes a JSON number or numeric string.
//
// RETURNS:
//   - The parsed value (zero when raw is missing or null).
//   - An error message, or "" if the value is valid.
func ParseAmount(raw json.RawMessage) (decimal.Decimal, string) {
	raw = bytes.TrimSpace(raw)
	if isMissing(raw) {
		return decimal.Zero, ""
	}

	var text string
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, "value is not a valid JSON string"
		}
		text = strings.TrimSpace(text)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		text = string(raw)
	default:
		return decimal.Zero, "value is not a number"
	}

	value, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, "value is not a number"
	}
	if value.IsNegative() {
		return decimal.Zero, "value must not be negative"
	}

	return value, ""
}

// ParseText decodes a JSON string.
//
// RETURNS:
//   - The string value.
//   - Whether a non-null value was present.
//   - An error message, or "" if the value is valid.
func ParseText(raw json.RawMessage) (string, bool, string) {
	raw = bytes.TrimSpace(raw)
	if isMissing(raw) {
		return "", false, ""
	}
	if raw[0] != '"' {
		return "", false, "value is not a string"
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", false, "value is not a valid JSON string"
	}
	return text, true, ""
}

// =============================================================================
// FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation failed with %d error(s):\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

func isMissing(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func displayValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "<missing>"
	}
	s := string(raw)
	if len(s) > maxValueLength {
		s = s[:maxValueLength] + "..."
	}
	return s
}
