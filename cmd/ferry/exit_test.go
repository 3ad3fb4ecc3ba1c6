package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestExitErrHandler_NilError(_ *testing.T) {
	// Should not panic or exit on nil error
	exitErrHandler(nil, nil)
}

func TestReport(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOut  string
	}{
		{
			name:     "completed no message",
			err:      cli.Exit("", 0),
			wantCode: 0,
			wantOut:  "",
		},
		{
			name:     "failed with reason",
			err:      cli.Exit("Error polling preprocessed file", 1),
			wantCode: 1,
			wantOut:  "Error polling preprocessed file\n",
		},
		{
			name:     "configuration error",
			err:      cli.Exit("configuration error: result.filename (PROCESSED_FILENAME) is required", 2),
			wantCode: 2,
			wantOut:  "configuration error: result.filename (PROCESSED_FILENAME) is required\n",
		},
		{
			name:     "wrapped exit coder",
			err:      fmt.Errorf("submit: %w", cli.Exit("inner error", 42)),
			wantCode: 42,
			wantOut:  "inner error\n",
		},
		{
			name:     "joined exit coder",
			err:      errors.Join(errors.New("context"), cli.Exit("inner error", 3)),
			wantCode: 3,
			wantOut:  "inner error\n",
		},
		{
			name:     "regular error",
			err:      errors.New("regular error"),
			wantCode: 1,
			wantOut:  "Error: regular error\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if code := report(&buf, tt.err); code != tt.wantCode {
				t.Errorf("code = %d, want %d", code, tt.wantCode)
			}
			if buf.String() != tt.wantOut {
				t.Errorf("output = %q, want %q", buf.String(), tt.wantOut)
			}
		})
	}
}

// TestExitErrHandler_MessageSuppression verifies empty messages don't print.
func TestExitErrHandler_MessageSuppression(t *testing.T) {
	var buf bytes.Buffer
	report(&buf, cli.Exit("", 1))
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
