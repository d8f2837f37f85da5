package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "plain", err: errors.New("boom"), want: exitFailure},
		{name: "coded", err: exitCodeError(exitValidation, errors.New("bad slug")), want: exitValidation},
		{name: "wrapped coded", err: fmt.Errorf("pages apply: %w", exitCodeError(exitFailure, errDiffHasChanges)), want: exitFailure},
		{name: "bare validation", err: fmt.Errorf("site form: %w", errValidation), want: exitValidation},
		{name: "interrupted", err: fmt.Errorf("watch deployment 9: %w", context.Canceled), want: exitInterrupted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Fatalf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
	if err := exitCodeError(exitFailure, nil); err != nil {
		t.Fatalf("exitCodeError(nil) = %v, want nil", err)
	}
}
