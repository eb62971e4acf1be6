package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/tmpltool/internal/builtins"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestIDECommand(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		out, err := executeCommand(t, "ide", "--format", "json")
		require.NoError(t, err)

		var doc struct {
			Capabilities []map[string]any `json:"capabilities"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &doc))
		assert.Len(t, doc.Capabilities, len(builtins.All()))
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := executeCommand(t, "ide", "--format", "yaml")
		require.NoError(t, err)

		var doc map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
		assert.Contains(t, doc, "capabilities")
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := executeCommand(t, "ide", "--format", "xml")
		assert.Error(t, err)
	})
}

func TestListCommand(t *testing.T) {
	out, err := executeCommand(t, "list", "--category", "hash")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "sha256")
	assert.NotContains(t, out, "read_file")

	out, err = executeCommand(t, "list", "--category", "", "--categories")
	require.NoError(t, err)
	assert.Contains(t, out, "filesystem\n")

	_, err = executeCommand(t, "list", "--categories=false", "--category", "nope")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version", "--format", "json", "--short=false")
	require.NoError(t, err)

	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "go_version")

	_, err = executeCommand(t, "version", "--format", "xml")
	assert.Error(t, err)
}

func TestValidateFormatWithSuggestion(t *testing.T) {
	supported := []string{"json", "yaml", "toml"}

	assert.NoError(t, ValidateFormatWithSuggestion("JSON", supported))
	assert.NoError(t, ValidateFormatWithSuggestion("yml", supported))

	err := ValidateFormatWithSuggestion("js", supported)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "json"`)

	err = ValidateFormatWithSuggestion("xml", supported)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "did you mean")
}
