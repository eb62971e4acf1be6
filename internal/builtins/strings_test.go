package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tterrors "github.com/conneroisu/tmpltool/internal/errors"
)

func TestCaseConversions(t *testing.T) {
	tests := []struct {
		input string
		snake string
		kebab string
		camel string
	}{
		{"hello world", "hello_world", "hello-world", "helloWorld"},
		{"HelloWorld", "hello_world", "hello-world", "helloWorld"},
		{"fooBarBaz", "foo_bar_baz", "foo-bar-baz", "fooBarBaz"},
		{"user-ID 42", "user_id_42", "user-id-42", "userId42"},
		{"  __x__  ", "x", "x", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.snake, mustCall(t, nil, "snake_case", tt.input))
			assert.Equal(t, tt.kebab, mustCall(t, nil, "kebab_case", tt.input))
			assert.Equal(t, tt.camel, mustCall(t, nil, "camel_case", tt.input))
		})
	}
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Hello World", mustCall(t, nil, "title_case", "hello world"))
	assert.Equal(t, "Hello World", mustCall(t, nil, "title_case", "HELLO wORLD"))

	piped, err := pipe(t, "title_case", "go templates", nil)
	require.NoError(t, err)
	assert.Equal(t, "Go Templates", piped)
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"parse", "HTMLDoc"}, splitWords("parseHTMLDoc"))
	assert.Equal(t, []string{"v2", "Api"}, splitWords("v2Api"))
	assert.Nil(t, splitWords("--"))
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Héllo, Wörld!":     "hello-world",
		"  Already-a-slug ": "already-a-slug",
		"Go 1.22 Release":   "go-1-22-release",
		"!!!":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, mustCall(t, nil, "slugify", in), in)
	}
}

func TestNormalizeForms(t *testing.T) {
	decomposed, composed := "e\u0301", "\u00e9"

	assert.Equal(t, composed, mustCall(t, nil, "normalize", decomposed))
	assert.Equal(t, decomposed, mustCall(t, nil, "normalize", composed, "NFD"))
	assert.Equal(t, "fi", mustCall(t, nil, "normalize", "\ufb01", "nfkc"))

	_, err := call(t, nil, "normalize", "x", "NFX")
	assert.True(t, tterrors.IsArgumentError(err))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello...", mustCall(t, nil, "truncate", "hello world", 8))
	assert.Equal(t, "short", mustCall(t, nil, "truncate", "short", 10))
	assert.Equal(t, "héll…", mustCall(t, nil, "truncate", "héllo wörld", 5, "…"))
	assert.Equal(t, "...", mustCall(t, nil, "truncate", "hello", 2))

	piped, err := pipe(t, "truncate", "hello world", map[string]any{"length": 7, "suffix": "!"})
	require.NoError(t, err)
	assert.Equal(t, "hello !", piped)

	_, err = call(t, nil, "truncate", "hello", -1)
	assert.True(t, tterrors.IsArgumentError(err))
	_, err = call(t, nil, "truncate", "hello", "many")
	assert.True(t, tterrors.IsArgumentError(err))
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "    a\n\n    b", mustCall(t, nil, "indent", "a\n\nb"))
	assert.Equal(t, "  a\n  b", mustCall(t, nil, "indent", "a\nb", 2))

	_, err := call(t, nil, "indent", "a", -2)
	assert.True(t, tterrors.IsArgumentError(err))
}

func TestWrap(t *testing.T) {
	assert.Equal(t, "the quick\nbrown fox", mustCall(t, nil, "wrap", "the quick brown fox", 10))
	assert.Equal(t, "one\ntwo", mustCall(t, nil, "wrap", "one\ntwo", 80))
	assert.Equal(t, "supercalifragilistic\nok", mustCall(t, nil, "wrap", "supercalifragilistic ok", 5))

	_, err := call(t, nil, "wrap", "x", 0)
	assert.True(t, tterrors.IsArgumentError(err))
}

func TestRegexCapabilities(t *testing.T) {
	assert.Equal(t, "1.2.3", mustCall(t, nil, "regex_replace", "v1.2.3", "^v"))
	assert.Equal(t, "a<1>b<22>", mustCall(t, nil, "regex_replace", "a1b22", "([0-9]+)", "<$1>"))

	assert.Equal(t, []string{"1", "22", "333"}, mustCall(t, nil, "regex_find_all", "a1b22c333", "[0-9]+"))
	assert.Equal(t, []string{}, mustCall(t, nil, "regex_find_all", "abc", "[0-9]+"))

	assert.Equal(t, true, mustCall(t, nil, "regex_match", "v1.0", "^v[0-9]"))
	assert.Equal(t, false, mustCall(t, nil, "regex_match", "1.0", "^v[0-9]"))

	piped, err := pipe(t, "regex_match", "v2", map[string]any{"pattern": "^v"})
	require.NoError(t, err)
	assert.Equal(t, true, piped)

	_, err = call(t, nil, "regex_match", "x", "(")
	assert.True(t, tterrors.IsDomainError(err))

	_, err = call(t, nil, "regex_match", "x")
	assert.True(t, tterrors.IsArgumentError(err))
}

func FuzzSlugify(f *testing.F) {
	for _, seed := range []string{"Héllo, Wörld!", "", "---", "Go 1.22", "日本語"} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, s string) {
		slug := slugify(s)
		for _, r := range slug {
			if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
				t.Fatalf("slugify(%q) = %q contains %q", s, slug, r)
			}
		}
		if len(slug) > 0 && (slug[0] == '-' || slug[len(slug)-1] == '-') {
			t.Fatalf("slugify(%q) = %q has edge hyphen", s, slug)
		}
		if slugify(slug) != slug {
			t.Fatalf("slugify is not idempotent on %q", slug)
		}
	})
}
