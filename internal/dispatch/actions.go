// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// Params is the free-form parameter mapping of an action request.
type Params map[string]any

// Response is the free-form result mapping relayed to the caller.
type Response map[string]any

// errorResponse is the uniform failure shape of every action.
func errorResponse(msg string) Response { return Response{"error": msg} }

// runTerminalCommand executes the "command" parameter through the embedded
// POSIX shell interpreter and returns its captured output and status.
func runTerminalCommand(ctx context.Context, params Params) Response {
	command, _ := params["command"].(string)
	if command == "" {
		return errorResponse("No command provided")
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "command")
	if err != nil {
		return errorResponse(fmt.Sprintf("invalid command: %v", err))
	}

	var stdout, stderr bytes.Buffer
	runner, err := interp.New(
		interp.StdIO(nil, &stdout, &stderr),
		interp.Env(nil),
	)
	if err != nil {
		return errorResponse(fmt.Sprintf("creating shell interpreter: %v", err))
	}

	returncode := 0
	if runErr := runner.Run(ctx, prog); runErr != nil {
		var exitStatus interp.ExitStatus
		if errors.As(runErr, &exitStatus) {
			returncode = int(exitStatus)
		} else {
			return errorResponse(fmt.Sprintf("command failed: %v", runErr))
		}
	}

	return Response{
		"stdout":     stdout.String(),
		"stderr":     stderr.String(),
		"returncode": returncode,
	}
}

// createWebsite writes a minimal HTML page from the title/body parameters.
func createWebsite(params Params) Response {
	title, _ := params["title"].(string)
	if title == "" {
		title = "My Website"
	}
	body, _ := params["body"].(string)
	if body == "" {
		body = "<p>Hello, World!</p>"
	}

	content := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>%s</title>
</head>
<body>
  %s
</body>
</html>`, html.EscapeString(title), body)

	const file = "website.html"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		return errorResponse(err.Error())
	}
	return Response{"message": "Website created successfully", "file": file}
}

// turnOnLights simulates a device action; a production deployment would
// forward this to the IoT system.
func turnOnLights(Params) Response {
	return Response{"message": "Living room lights turned on"}
}

// CodeEngine runs a candidate program file and returns the engine's single
// structured result line.
type CodeEngine interface {
	RunFile(ctx context.Context, path string) (line string, err error)
}

// SubprocessEngine invokes the smartrun binary itself as a subprocess,
// exactly as an external caller would, and relays its stdout line.
type SubprocessEngine struct {
	// Binary is the engine executable; empty means the current executable.
	Binary string
}

// RunFile implements CodeEngine. The engine's exit status is deliberately
// ignored: its stdout line already encodes success or failure, and the
// dispatcher's contract is to relay that line unmodified.
func (e *SubprocessEngine) RunFile(ctx context.Context, path string) (string, error) {
	bin := e.Binary
	if bin == "" {
		self, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("locating engine binary: %w", err)
		}
		bin = self
	}

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "run", path)
	cmd.Stdout = &stdout

	err := cmd.Run()
	line := strings.TrimSpace(stdout.String())
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("engine produced no result: %w", err)
		}
		return "", errors.New("engine produced no result")
	}
	return line, nil
}

// runGeneratedCode writes the "code" parameter to a scratch file and hands
// it to the engine, relaying the engine's result line as the raw response.
// The returned string is the response body when non-empty.
func runGeneratedCode(ctx context.Context, engine CodeEngine, params Params) (string, Response) {
	code, _ := params["code"].(string)
	if code == "" {
		return "", errorResponse("No code provided")
	}

	dir, err := os.MkdirTemp("", "smartrun-dispatch-*")
	if err != nil {
		return "", errorResponse(fmt.Sprintf("scratch dir: %v", err))
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "generated.py")
	if err := os.WriteFile(path, []byte(code), 0o600); err != nil {
		return "", errorResponse(fmt.Sprintf("writing generated code: %v", err))
	}

	line, err := engine.RunFile(ctx, path)
	if err != nil {
		return "", errorResponse(err.Error())
	}
	return line, nil
}
