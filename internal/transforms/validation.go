package transforms

import (
	"fmt"
	"strings"
)

// ValidationResult holds the results of pipeline validation.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
	// Order is the resolved execution order when the pipeline is valid.
	Order []string
}

// AddError adds an error to the validation result.
func (vr *ValidationResult) AddError(format string, args ...any) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result.
func (vr *ValidationResult) AddWarning(format string, args ...any) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks the enabled set without failing fast. It reports:
// - unknown or missing transforms
// - prerequisites that are not enabled
// - circular dependencies and constraints that contradict stage order
// - ordering hints naming disabled transforms (warning only)
func (r *Registry) Validate(enabled []string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if enabled == nil {
		enabled = r.Names()
	}
	if len(enabled) == 0 {
		result.AddWarning("no transforms enabled; documents render as parsed")
		return result
	}

	var selected []Transformer
	for _, name := range enabled {
		t, ok := r.byName[name]
		if !ok {
			result.AddError("unknown transform %q", name)
			continue
		}
		selected = append(selected, t)
	}

	r.checkSelection(selected, result)

	pipeline, err := BuildPipeline(selected)
	if err != nil {
		if strings.Contains(err.Error(), "circular") {
			result.AddError("circular dependency detected: %v", err)
		} else {
			result.AddError("pipeline build failed: %v", err)
		}
		return result
	}
	if result.Valid {
		for _, t := range pipeline {
			result.Order = append(result.Order, t.Name())
		}
	}
	return result
}

// PrintValidationResult prints a formatted validation result to help debugging.
func PrintValidationResult(result *ValidationResult) string {
	var sb strings.Builder

	sb.WriteString("Transform Pipeline Validation\n")
	sb.WriteString("==============================\n\n")

	if result.Valid && len(result.Warnings) == 0 {
		sb.WriteString("✓ Pipeline is valid with no warnings\n")
		if len(result.Order) > 0 {
			sb.WriteString(fmt.Sprintf("  order: %s\n", strings.Join(result.Order, " → ")))
		}
		return sb.String()
	}

	if len(result.Errors) > 0 {
		sb.WriteString(fmt.Sprintf("✗ Errors (%d):\n", len(result.Errors)))
		for i, err := range result.Errors {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err))
		}
		sb.WriteString("\n")
	}

	if len(result.Warnings) > 0 {
		sb.WriteString(fmt.Sprintf("⚠ Warnings (%d):\n", len(result.Warnings)))
		for i, warn := range result.Warnings {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, warn))
		}
		sb.WriteString("\n")
	}

	if result.Valid && len(result.Order) > 0 {
		sb.WriteString(fmt.Sprintf("order: %s\n", strings.Join(result.Order, " → ")))
	}

	return sb.String()
}
