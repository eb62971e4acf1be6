package builtins

import (
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnv(t *testing.T) {
	t.Setenv("TMPLTOOL_TEST_VALUE", "value")
	t.Setenv("TMPLTOOL_TEST_EMPTY", "")

	assert.Equal(t, "value", mustCall(t, nil, "env", "TMPLTOOL_TEST_VALUE"))
	assert.Equal(t, "", mustCall(t, nil, "env", "TMPLTOOL_TEST_EMPTY", "fallback"))
	assert.Equal(t, "fallback", mustCall(t, nil, "env", "TMPLTOOL_TEST_UNSET", "fallback"))
	assert.Equal(t, "", mustCall(t, nil, "env", "TMPLTOOL_TEST_UNSET"))
}

func TestEnvList(t *testing.T) {
	t.Setenv("TMPLTOOL_TEST_A", "1")
	t.Setenv("TMPLTOOL_TEST_B", "2")

	got, ok := mustCall(t, nil, "env_list", "TMPLTOOL_TEST_").(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"TMPLTOOL_TEST_A": "1", "TMPLTOOL_TEST_B": "2"}, got)

	all, ok := mustCall(t, nil, "env_list").(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1", all["TMPLTOOL_TEST_A"])
	for k := range all {
		assert.False(t, strings.Contains(k, "="), k)
	}
}

func TestRuntimeFunctions(t *testing.T) {
	assert.Equal(t, runtime.GOOS, mustCall(t, nil, "get_os"))
	assert.Equal(t, runtime.GOARCH, mustCall(t, nil, "get_arch"))
	assert.Equal(t, os.Getpid(), mustCall(t, nil, "get_pid"))
	assert.Equal(t, siteDir, mustCall(t, siteContext(t, false), "get_cwd"))
}
