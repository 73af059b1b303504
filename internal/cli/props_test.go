package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guestbookSchema = `title: string | *"Guestbook"
count!: int
`

func TestPropsCommand_Valid(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.cue", guestbookSchema)
	data := writeFile(t, dir, "props.yaml", "count: 3\n")

	out, err := execute(t, "props", schema, data)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ props valid")
	assert.Contains(t, out, "count = 3")
	assert.Contains(t, out, "title = Guestbook")
}

func TestPropsCommand_Invalid(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.cue", guestbookSchema)
	data := writeFile(t, dir, "props.yaml", "count: many\n")

	out, err := execute(t, "props", schema, data)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ 1 invalid field(s)")
	assert.Contains(t, out, "count:")
}

func TestPropsCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "schema.cue", guestbookSchema)
	data := writeFile(t, dir, "props.yaml", "count: 1\ntitle: Visitors\n")

	out, err := execute(t, "props", schema, data, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   PropsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, []string{"title", "count"}, resp.Data.Fields)
	assert.Equal(t, "Visitors", resp.Data.Data["title"])
}

func TestPropsCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.cue", "title: string &\n")
	schema := writeFile(t, dir, "schema.cue", guestbookSchema)
	badYAML := writeFile(t, dir, "bad.yaml", "count: [\n")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing schema", []string{"props", dir + "/none.cue"}, "failed to read schema"},
		{"broken schema", []string{"props", broken}, "failed to compile schema"},
		{"missing data", []string{"props", schema, dir + "/none.yaml"}, "failed to read data"},
		{"broken data", []string{"props", schema, badYAML}, "failed to parse data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
