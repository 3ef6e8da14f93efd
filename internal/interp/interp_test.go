// SPDX-License-Identifier: MPL-2.0

package interp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/hartleyhq/smartrun/pkg/types"
)

// requireInterpreter resolves a real interpreter or skips the test.
func requireInterpreter(t *testing.T) *Interpreter {
	t.Helper()
	p, err := Find("")
	if err != nil {
		t.Skip("no python interpreter on PATH")
	}
	return p
}

func TestFind_NotFound(t *testing.T) {
	t.Parallel()

	_, err := Find("definitely-not-a-python-binary-xyz")
	if !errors.Is(err, ErrInterpreterNotFound) {
		t.Errorf("Find() error = %v, want ErrInterpreterNotFound", err)
	}
}

func TestCheckSyntax(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	p := requireInterpreter(t)

	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{"valid program", "print(1+1)\n", false},
		{"valid empty program", "", false},
		{"unbalanced paren", "print(1+1\n", true},
		{"bad indentation", "def f():\nreturn 1\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.CheckSyntax(context.Background(), tt.code)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckSyntax() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var synErr *SyntaxError
				if !errors.As(err, &synErr) {
					t.Errorf("error %v is not a *SyntaxError", err)
				}
			}
		})
	}
}

func TestStdlibModules(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	p := requireInterpreter(t)

	registry, err := p.StdlibModules(context.Background())
	if err != nil {
		t.Fatalf("StdlibModules() error = %v", err)
	}
	for _, name := range []types.ModuleName{"os", "sys", "json"} {
		if _, ok := registry[name]; !ok {
			t.Errorf("registry missing standard module %q", name)
		}
	}
	if _, ok := registry["nonexistent_module_xyz123"]; ok {
		t.Error("registry contains a module that cannot be standard")
	}
}

func TestImports(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	p := requireInterpreter(t)

	tests := []struct {
		name string
		code string
		want []types.ModuleName
	}{
		{
			name: "plain and dotted imports",
			code: "import os\nimport numpy.linalg\nfrom requests.adapters import HTTPAdapter\n",
			want: []types.ModuleName{"numpy", "os", "requests"},
		},
		{
			name: "import inside a string literal is not an import",
			code: "doc = \"\"\"usage:\nimport totally_fake_module_xyz\n\"\"\"\nprint(doc)\n",
			want: nil,
		},
		{
			name: "import inside a docstring is not an import",
			code: "def f():\n    \"\"\"Call after `import requests`.\"\"\"\n    return 1\n",
			want: nil,
		},
		{
			name: "relative imports resolve locally",
			code: "from . import sibling\nfrom .pkg import helper\n",
			want: nil,
		},
		{
			name: "conditional import still counts",
			code: "try:\n    import ujson\nexcept ImportError:\n    import json\n",
			want: []types.ModuleName{"json", "ujson"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Imports(context.Background(), tt.code)
			if err != nil {
				t.Fatalf("Imports() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Imports() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Imports() = %v, want %v", got, tt.want)
				}
			}
		})
	}

	t.Run("unparsable program fails the probe", func(t *testing.T) {
		if _, err := p.Imports(context.Background(), "import (\n"); err == nil {
			t.Error("Imports() = nil error for unparsable program, want error")
		}
	})
}

func TestImportable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	p := requireInterpreter(t)

	ok, err := p.Importable(context.Background(), "json")
	if err != nil {
		t.Fatalf("Importable(json) error = %v", err)
	}
	if !ok {
		t.Error("Importable(json) = false, want true")
	}

	ok, err = p.Importable(context.Background(), "nonexistent_module_xyz123")
	if err != nil {
		t.Fatalf("Importable(nonexistent) error = %v", err)
	}
	if ok {
		t.Error("Importable(nonexistent_module_xyz123) = true, want false")
	}
}

func TestRun(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	p := requireInterpreter(t)

	writeProgram := func(t *testing.T, code string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "prog.py")
		if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
			t.Fatalf("writing program: %v", err)
		}
		return path
	}

	t.Run("success captures stdout", func(t *testing.T) {
		result := p.Run(context.Background(), writeProgram(t, "print(1+1)\n"))
		if !result.ExitCode.IsSuccess() {
			t.Fatalf("ExitCode = %s, want 0 (stderr: %s)", result.ExitCode, result.Stderr)
		}
		if got := strings.TrimSpace(result.Stdout); got != "2" {
			t.Errorf("Stdout = %q, want %q", got, "2")
		}
	})

	t.Run("fault yields summary from traceback", func(t *testing.T) {
		result := p.Run(context.Background(), writeProgram(t, `raise ValueError("boom")`+"\n"))
		if result.ExitCode.IsSuccess() {
			t.Fatal("ExitCode = 0, want non-zero")
		}
		if summary := result.FaultSummary(); !strings.Contains(summary, "boom") {
			t.Errorf("FaultSummary() = %q, want it to contain %q", summary, "boom")
		}
	})

	t.Run("warnings stay off stdout", func(t *testing.T) {
		code := "import sys\nsys.stderr.write('warning: noisy')\nprint('clean')\n"
		result := p.Run(context.Background(), writeProgram(t, code))
		if !result.ExitCode.IsSuccess() {
			t.Fatalf("ExitCode = %s, want 0", result.ExitCode)
		}
		if strings.Contains(result.Stdout, "noisy") {
			t.Errorf("diagnostics leaked into Stdout: %q", result.Stdout)
		}
	})

	t.Run("signal-killed child keeps a valid exit code", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("SIGKILL self-delivery is not available on windows")
		}
		code := "import os, signal\nos.kill(os.getpid(), signal.SIGKILL)\n"
		result := p.Run(context.Background(), writeProgram(t, code))
		if result.Err != nil {
			t.Fatalf("Err = %v, want nil (child started)", result.Err)
		}
		if err := result.ExitCode.Validate(); err != nil {
			t.Errorf("ExitCode = %s, want a code in range: %v", result.ExitCode, err)
		}
		if result.ExitCode.IsSuccess() {
			t.Error("ExitCode = 0, want non-zero for a killed child")
		}
		if summary := result.FaultSummary(); !strings.Contains(summary, "signal") {
			t.Errorf("FaultSummary() = %q, want it to name the signal", summary)
		}
	})
}

func TestRunResult_FaultSummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result RunResult
		want   string
	}{
		{
			name: "last traceback line",
			result: RunResult{
				ExitCode: 1,
				Stderr:   "Traceback (most recent call last):\n  File \"prog.py\", line 1\nValueError: boom\n",
			},
			want: "ValueError: boom",
		},
		{
			name:   "empty stderr falls back to exit status",
			result: RunResult{ExitCode: 7},
			want:   "process exited with status 7",
		},
		{
			name:   "signal takes precedence over exit status",
			result: RunResult{ExitCode: 1, Signal: "signal: killed"},
			want:   "process terminated (signal: killed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.result.FaultSummary(); got != tt.want {
				t.Errorf("FaultSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}
