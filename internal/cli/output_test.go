package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error("E005", "path not found: books", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E005", resp.Error.Code)
	assert.Equal(t, "path not found: books", resp.Error.Message)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error("E003", "no CUE files found in books", map[string]int{"files": 0}))
	assert.Equal(t, "Error [E003]: no CUE files found in books\n", buf.String())
}

func TestOutputFormatter_TextErrorVerboseDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, formatter.Error("E003", "no CUE files", "books/"))
	assert.Contains(t, buf.String(), "Details: books/")
}

func TestOutputFormatter_RespondIgnoredInText(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Respond(CLIResponse{Status: "ok"}))
	assert.Empty(t, buf.String())
}

func TestOutputFormatter_VerboseLogGoesToErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("Found %d CUE file(s)", 2)

	assert.Empty(t, out.String())
	assert.Equal(t, "Found 2 CUE file(s)\n", errOut.String())
}

func TestOutputFormatter_VerboseLogSilentByDefault(t *testing.T) {
	out := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: out}

	formatter.VerboseLog("hidden")
	assert.Empty(t, out.String())
}

func TestExitError(t *testing.T) {
	base := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to open database", base)

	assert.Equal(t, "failed to open database: disk full", err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "no sessions recorded", NewExitError(ExitCommandError, "no sessions recorded").Error())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))

	wrapped := fmt.Errorf("outer: %w", NewExitError(ExitFailure, "mismatch"))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
}
