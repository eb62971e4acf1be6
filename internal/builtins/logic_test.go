package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tterrors "github.com/conneroisu/tmpltool/internal/errors"
)

func TestDefault(t *testing.T) {
	assert.Equal(t, "x", mustCall(t, nil, "default", nil, "x"))
	assert.Equal(t, "x", mustCall(t, nil, "default", "", "x"))
	assert.Equal(t, "x", mustCall(t, nil, "default", []any{}, "x"))
	assert.Equal(t, "v", mustCall(t, nil, "default", "v", "x"))
	assert.Equal(t, 0, mustCall(t, nil, "default", 0, "x"))
	assert.Equal(t, false, mustCall(t, nil, "default", false, "x"))
	assert.Equal(t, "", mustCall(t, nil, "default", nil))

	piped, err := pipe(t, "default", nil, map[string]any{"default": "anonymous"})
	require.NoError(t, err)
	assert.Equal(t, "anonymous", piped)
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "third", mustCall(t, nil, "coalesce", nil, "", "third", "fourth"))
	assert.Equal(t, 0, mustCall(t, nil, "coalesce", 0, "second"))
	assert.Nil(t, mustCall(t, nil, "coalesce", nil))
	assert.Nil(t, mustCall(t, nil, "coalesce", nil, "", map[string]any{}, []any{}))

	_, err := call(t, nil, "coalesce", 1, 2, 3, 4, 5)
	assert.True(t, tterrors.IsArgumentError(err))
}

func TestTernary(t *testing.T) {
	tests := []struct {
		cond any
		want string
	}{
		{true, "yes"},
		{false, "no"},
		{"false", "no"},
		{"true", "yes"},
		{"anything", "yes"},
		{0, "no"},
		{1, "yes"},
		{nil, "no"},
		{"", "no"},
		{[]any{}, "no"},
		{[]any{0}, "yes"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mustCall(t, nil, "ternary", tt.cond, "yes", "no"), "%v", tt.cond)
	}

	_, err := call(t, nil, "ternary", true, "yes")
	assert.True(t, tterrors.IsArgumentError(err))
}
