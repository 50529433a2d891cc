// Package runner talks to the external code execution service. The wire
// format is the Piston v2 execute API: one request per execution, one
// source file, no retries.
package runner

import "context"

// FallbackMessage is surfaced when the service gives us nothing better.
const FallbackMessage = "Error executing code"

// ExecRequest describes one execution of the shared buffer.
type ExecRequest struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Files    []File `json:"files"`
	Stdin    string `json:"stdin"`
}

// File is a single source file submitted for execution.
type File struct {
	Content string `json:"content"`
}

// RunResult is the run stage of the service response. Output is the text
// surfaced to users.
type RunResult struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Code   int    `json:"code"`
	Signal string `json:"signal,omitempty"`
	Output string `json:"output"`
}

// ExecResponse is the structured outcome broadcast to a room. Failures
// are shaped identically to successes so receivers need a single path.
type ExecResponse struct {
	Language string    `json:"language,omitempty"`
	Version  string    `json:"version,omitempty"`
	Run      RunResult `json:"run"`
}

// Synthesized builds a failure response carrying msg as the run output.
func Synthesized(msg string) *ExecResponse {
	return &ExecResponse{Run: RunResult{Output: msg}}
}

// Error is returned by Execute with a best-effort human-readable message
// extracted from the failure.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Runner executes code remotely. The HTTP client implements it; tests
// substitute fakes.
type Runner interface {
	Execute(ctx context.Context, req ExecRequest) (*ExecResponse, error)
}
