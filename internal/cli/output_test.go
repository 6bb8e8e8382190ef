package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitError(t *testing.T) {
	plain := NewExitError(ExitCommandError, "bad flag")
	assert.Equal(t, "bad flag", plain.Error())
	assert.Equal(t, ExitCommandError, GetExitCode(plain))

	cause := errors.New("disk full")
	wrapped := WrapExitError(ExitFailure, "commit failed", cause)
	assert.Contains(t, wrapped.Error(), "commit failed")
	assert.Contains(t, wrapped.Error(), "disk full")
	assert.ErrorIs(t, wrapped, cause)
}

func TestGetExitCode_PlainError(t *testing.T) {
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("boom")))
}

func TestOutputFormatter_SuccessJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(map[string]string{"key": "value"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_SuccessfText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Successf(nil, "committed revision %d", 7))
	assert.Equal(t, "committed revision 7\n", buf.String())
}

func TestOutputFormatter_ErrorJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Error("conflict", "head moved", nil))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "conflict", resp.Error.Code)
}

func TestOutputFormatter_ErrorText(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Error("not_found", "no such continuity", nil))
	assert.Contains(t, buf.String(), "Error [not_found]")
	assert.Contains(t, buf.String(), "no such continuity")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}

	quiet := &OutputFormatter{Format: "text", Writer: out, ErrWriter: errBuf}
	quiet.VerboseLog("hidden")
	assert.Empty(t, out.String())
	assert.Empty(t, errBuf.String())

	verbose := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errBuf, Verbose: true}
	verbose.VerboseLog("diagnostic %d", 1)
	assert.Empty(t, out.String())
	assert.Equal(t, "diagnostic 1\n", errBuf.String())
}
