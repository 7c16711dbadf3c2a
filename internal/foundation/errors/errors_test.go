package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "config.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		file, exists := err.Context().GetString("file")
		if !exists || file != "config.yaml" {
			t.Errorf("expected context file=config.yaml, got %v", file)
		}
	})

	t.Run("Parse error carries position", func(t *testing.T) {
		err := ParseError("unterminated fence").WithPosition("a.md", 4, 2).Build()

		if got := err.Position(); got != "a.md:4:2" {
			t.Errorf("expected position a.md:4:2, got %q", got)
		}
		want := "[parse:error] a.md:4:2: unterminated fence"
		if err.Error() != want {
			t.Errorf("expected %q, got %q", want, err.Error())
		}
		if err.CanRetry() {
			t.Error("parse errors must not be retryable")
		}
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		base := LookupFailure("github lookup timed out").Retryable().Build()
		wrapped := fmt.Errorf("card: %w", base)

		if !IsClassified(wrapped) {
			t.Fatal("expected wrapped error to be classified")
		}
		if !HasCategory(wrapped, CategoryLookup) {
			t.Error("expected lookup category")
		}
		if !IsTransient(wrapped) {
			t.Error("expected transient lookup failure")
		}
		if GetSeverity(wrapped) != SeverityWarning {
			t.Error("expected warning severity")
		}
	})

	t.Run("Unclassified defaults", func(t *testing.T) {
		plain := errors.New("boom")
		if GetCategory(plain) != CategoryInternal {
			t.Error("expected internal category for plain errors")
		}
		if IsTransient(plain) {
			t.Error("plain errors are not transient")
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	originalErr := errors.New("original error")
	err := WrapError(originalErr, CategoryLookup, "lookup failure").
		Warning().
		Retryable().
		WithContext("reference", "owner/repo").
		Build()

	if !errors.Is(err, originalErr) {
		t.Error("expected wrapped cause to be reachable")
	}
	if !err.IsTransient() {
		t.Error("expected transient error")
	}
	ref, _ := err.Context().GetString("reference")
	if ref != "owner/repo" {
		t.Errorf("expected reference context, got %q", ref)
	}

	derived := err.WithContext("attempt", 2)
	if _, ok := err.Context().Get("attempt"); ok {
		t.Error("WithContext must not mutate the original error")
	}
	if _, ok := derived.Context().Get("attempt"); !ok {
		t.Error("expected derived error to carry new context")
	}
}

func TestStageSkip(t *testing.T) {
	err := StageSkip("callouts", "unsupported nesting").Build()
	if err.Severity() != SeverityWarning {
		t.Errorf("expected warning, got %s", err.Severity())
	}
	stage, _ := err.Context().GetString("stage")
	if stage != "callouts" {
		t.Errorf("expected stage context, got %q", stage)
	}
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("plain"), 1},
		{ValidationError("bad").Build(), 2},
		{ParseError("bad").Build(), 3},
		{ConfigError("bad").Build(), 7},
		{LookupFailure("bad").Build(), 8},
		{InternalError("bad").Build(), 10},
	}
	for _, tc := range cases {
		if got := a.ExitCodeFor(tc.err); got != tc.want {
			t.Errorf("ExitCodeFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestCLIErrorAdapter_FormatIncludesPosition(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)
	err := ParseError("unterminated math block").WithPosition("p.md", 9, 1).Build()
	if got := a.FormatError(err); got != "Error: p.md:9:1: unterminated math block" {
		t.Errorf("unexpected format: %q", got)
	}
}
