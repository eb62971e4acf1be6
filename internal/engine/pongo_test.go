package engine

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tterrors "github.com/conneroisu/tmpltool/internal/errors"
	"github.com/conneroisu/tmpltool/internal/execution"
)

func newTestPongo(t *testing.T, trust bool, opts ...PongoOption) *Pongo {
	t.Helper()

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/srv/site/partials/header.tmpl", []byte("<h1>{{ title }}</h1>"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/srv/secret.tmpl", []byte("secret"), 0o644))

	ctx, err := execution.New("/srv/site", trust, execution.WithFS(fsys))
	require.NoError(t, err)
	return NewPongo(ctx, opts...)
}

func TestPongoFunctions(t *testing.T) {
	p := newTestPongo(t, false)

	require.NoError(t, p.RegisterFunction("join_words", func(args []any, _ map[string]any) (any, error) {
		words := make([]string, 0, len(args))
		for _, a := range args {
			if a == nil {
				words = append(words, "<nil>")
				continue
			}
			words = append(words, a.(string))
		}
		return strings.Join(words, " "), nil
	}))

	out, err := p.RenderString(`{{ join_words("a", name, "c") }}`, map[string]any{"name": "b"})
	require.NoError(t, err)
	assert.Equal(t, "a b c", out)

	assert.Error(t, p.RegisterFunction("join_words", func([]any, map[string]any) (any, error) { return nil, nil }))
	assert.Error(t, p.RegisterFunction("", func([]any, map[string]any) (any, error) { return nil, nil }))
	assert.Error(t, p.RegisterFunction("nil_fn", nil))
}

func TestPongoFilters(t *testing.T) {
	p := newTestPongo(t, false)

	require.NoError(t, p.RegisterFilter("repeat_test", func(value any, args []any, _ map[string]any) (any, error) {
		n := 2
		if len(args) > 0 {
			n = args[0].(int)
		}
		return strings.Repeat(value.(string), n), nil
	}))

	out, err := p.RenderString(`{{ "ab"|repeat_test }} {{ "x"|repeat_test:3 }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "abab xxx", out)

	// Filters are process wide; registering again replaces the old one.
	require.NoError(t, p.RegisterFilter("repeat_test", func(value any, _ []any, _ map[string]any) (any, error) {
		return "replaced", nil
	}))
	out, err = p.RenderString(`{{ "ab"|repeat_test }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "replaced", out)
}

func TestPongoTests(t *testing.T) {
	p := newTestPongo(t, false)

	require.NoError(t, p.RegisterTest("even_test", func(value any) bool {
		n, ok := value.(int)
		return ok && n%2 == 0
	}))

	out, err := p.RenderString(`{% if 4|is_even_test %}even{% endif %}{% if not 3|is_even_test %} odd{% endif %}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "even odd", out)
}

func TestPongoCapabilityErrorIsPreserved(t *testing.T) {
	p := newTestPongo(t, false)

	require.NoError(t, p.RegisterFunction("fail_arg", func([]any, map[string]any) (any, error) {
		return nil, tterrors.NewArgumentError("x", "bad").WithCapability("fail_arg")
	}))
	require.NoError(t, p.RegisterFilter("fail_filter_test", func(any, []any, map[string]any) (any, error) {
		return nil, tterrors.NewSecurityError(tterrors.AbsolutePath, "/etc/passwd")
	}))

	_, err := p.RenderString(`before {{ fail_arg() }}`, nil)
	require.Error(t, err)
	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.True(t, tterrors.IsArgumentError(err))
	assert.Equal(t, 2, tterrors.ExitCode(err))

	_, err = p.RenderString(`{{ "x"|fail_filter_test }}`, nil)
	require.Error(t, err)
	assert.True(t, tterrors.IsSecurityError(err))
	assert.Equal(t, 3, tterrors.ExitCode(err))

	// The remembered failure is reset between renders.
	out, err := p.RenderString(`ok`, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestRenderErrorMessage(t *testing.T) {
	refused := tterrors.NewSecurityError(tterrors.ParentTraversal, "../x")

	err := &RenderError{Cause: refused, Engine: errors.New("unable to resolve template")}
	assert.Equal(t, "unable to resolve template: "+refused.Error(), err.Error())

	err = &RenderError{Cause: refused, Engine: fmt.Errorf("render: %w", refused)}
	assert.Equal(t, "render: "+refused.Error(), err.Error())

	err = &RenderError{Cause: tterrors.NewArgumentError("a", "bad"), Engine: errors.New("engine text")}
	assert.Equal(t, "engine text", err.Error())

	err = &RenderError{Cause: refused}
	assert.Equal(t, refused.Error(), err.Error())
}

func TestPongoSyntaxError(t *testing.T) {
	p := newTestPongo(t, false)

	_, err := p.RenderString(`{% if %}`, nil)
	require.Error(t, err)
	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.Nil(t, re.Cause)
	assert.Equal(t, 1, tterrors.ExitCode(err))
}

func TestPongoGuardedInclude(t *testing.T) {
	t.Run("relative include", func(t *testing.T) {
		p := newTestPongo(t, false)
		out, err := p.RenderString(`{% include "partials/header.tmpl" %}`, map[string]any{"title": "Home"})
		require.NoError(t, err)
		assert.Equal(t, "<h1>Home</h1>", out)
	})

	t.Run("traversal refused", func(t *testing.T) {
		p := newTestPongo(t, false)
		_, err := p.RenderString(`{% include "../secret.tmpl" %}`, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, tterrors.ErrParentTraversal))
		assert.Contains(t, err.Error(), "parent directory traversal in '../secret.tmpl'")
		assert.Equal(t, 3, tterrors.ExitCode(err))
	})

	t.Run("absolute refused", func(t *testing.T) {
		p := newTestPongo(t, false)
		_, err := p.RenderString(`{% include "/srv/secret.tmpl" %}`, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, tterrors.ErrAbsolutePath))
		assert.Contains(t, err.Error(), "absolute path '/srv/secret.tmpl' is not allowed")
	})

	t.Run("trust mode", func(t *testing.T) {
		p := newTestPongo(t, true)
		out, err := p.RenderString(`{% include "../secret.tmpl" %}`, nil)
		require.NoError(t, err)
		assert.Equal(t, "secret", out)
	})
}

func TestPongoAutoescape(t *testing.T) {
	data := map[string]any{"html": "<b>"}

	out, err := newTestPongo(t, false).RenderString(`{{ html }}`, data)
	require.NoError(t, err)
	assert.Equal(t, "<b>", out)

	out, err = newTestPongo(t, false, WithAutoescape(true)).RenderString(`{{ html }}`, data)
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;", out)

	// Reset the package-level default for other tests.
	newTestPongo(t, false)
}

func TestPongoRender(t *testing.T) {
	p := newTestPongo(t, false, WithTrimBlocks(true), WithLStripBlocks(true))

	var buf bytes.Buffer
	err := p.Render(strings.NewReader("{% for x in items %}\n  {{ x }}\n{% endfor %}"), &buf,
		map[string]any{"items": []int{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, "  1\n  2\n", buf.String())
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	require.NoError(t, r.RegisterFunction("b", func([]any, map[string]any) (any, error) { return nil, nil }))
	require.NoError(t, r.RegisterFunction("a", func([]any, map[string]any) (any, error) { return nil, nil }))
	require.NoError(t, r.RegisterFilter("f", func(any, []any, map[string]any) (any, error) { return nil, nil }))
	require.NoError(t, r.RegisterTest("t", func(any) bool { return true }))

	assert.Error(t, r.RegisterFunction("a", func([]any, map[string]any) (any, error) { return nil, nil }))
	assert.Error(t, r.RegisterFilter("f", func(any, []any, map[string]any) (any, error) { return nil, nil }))
	assert.Error(t, r.RegisterTest("t", func(any) bool { return false }))

	assert.Equal(t, []string{"a", "b"}, r.Names(SurfaceFunction))
	assert.Equal(t, []string{"f"}, r.Names(SurfaceFilter))
	assert.Equal(t, []string{"t"}, r.Names(SurfaceTest))
	assert.Empty(t, r.Names(Surface("other")))

	_, ok := r.Function("missing")
	assert.False(t, ok)
	test, ok := r.Test("t")
	require.True(t, ok)
	assert.True(t, test(nil))
}
