// SPDX-License-Identifier: MPL-2.0

package outcome

import (
	"encoding/json"
	"strings"
	"testing"
)

// decodeResult parses the single-key wire line and returns the value.
func decodeResult(t *testing.T, line string) string {
	t.Helper()
	var parsed map[string]string
	if err := json.Unmarshal([]byte(line), &parsed); err != nil {
		t.Fatalf("line %q is not valid JSON: %v", line, err)
	}
	if len(parsed) != 1 {
		t.Fatalf("line %q has %d keys, want exactly 1", line, len(parsed))
	}
	return parsed["result"]
}

func TestSuccess(t *testing.T) {
	t.Parallel()

	o := Success()
	if !o.IsSuccess() {
		t.Error("IsSuccess() = false")
	}
	if o.Failure() != nil {
		t.Error("Failure() != nil for success")
	}
	if o.ExitCode() != 0 {
		t.Errorf("ExitCode() = %d, want 0", o.ExitCode())
	}
	if got := decodeResult(t, o.ResultLine()); got != "success" {
		t.Errorf("result = %q, want %q", got, "success")
	}
}

func TestFail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		o          Outcome
		wantStage  Stage
		wantResult string
	}{
		{
			name:       "parse failure",
			o:          Fail(StageParse, "invalid syntax (line 1)", ""),
			wantStage:  StageParse,
			wantResult: "parse: invalid syntax (line 1)",
		},
		{
			name:       "install failure carries module and cause",
			o:          Fail(StageInstall, "nonexistent_module_xyz123: no matching distribution", ""),
			wantStage:  StageInstall,
			wantResult: "install: nonexistent_module_xyz123: no matching distribution",
		},
		{
			name:       "execute failure",
			o:          Fail(StageExecute, "ValueError: boom", "Traceback ..."),
			wantStage:  StageExecute,
			wantResult: "execute: ValueError: boom",
		},
		{
			name:       "formatted usage failure",
			o:          Failf(StageUsage, "expected exactly one argument, got %d", 2),
			wantStage:  StageUsage,
			wantResult: "usage: expected exactly one argument, got 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if tt.o.IsSuccess() {
				t.Fatal("IsSuccess() = true for a failure")
			}
			if tt.o.ExitCode() == 0 {
				t.Error("ExitCode() = 0 for a failure")
			}
			if got := tt.o.Failure().Stage; got != tt.wantStage {
				t.Errorf("Stage = %q, want %q", got, tt.wantStage)
			}
			if got := decodeResult(t, tt.o.ResultLine()); got != tt.wantResult {
				t.Errorf("result = %q, want %q", got, tt.wantResult)
			}
		})
	}
}

// Detail never leaks into the wire line; it belongs to the audit log.
func TestResultLine_DetailStaysOffTheWire(t *testing.T) {
	t.Parallel()

	o := Fail(StageExecute, "ValueError: boom", "Traceback (most recent call last): secret frames")
	if line := o.ResultLine(); strings.Contains(line, "Traceback") {
		t.Errorf("detail leaked into wire line: %s", line)
	}
}

// The wire line must survive hostile message content (quotes, newlines).
func TestResultLine_EscapesMessage(t *testing.T) {
	t.Parallel()

	o := Fail(StageExecute, "KeyError: '\"quoted\"\nsecond line'", "")
	line := o.ResultLine()
	if strings.Contains(line, "\n") {
		t.Errorf("wire line contains a raw newline: %q", line)
	}
	decodeResult(t, line)
}
