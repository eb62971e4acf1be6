package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		expectErr bool
	}{
		{"valid http URL", "http://localhost:8080", false},
		{"valid https URL", "https://example.com", false},
		{"valid URL with port", "http://127.0.0.1:3000", false},
		{"valid URL with path", "https://example.com/path/to/resource", false},
		{"valid URL with query params", "https://example.com?a=1&b=2", false},
		{"valid URL with fragment", "https://example.com/docs#install", false},
		{"valid IPv6 URL", "http://[::1]:8080/", false},

		{"javascript scheme", "javascript:alert('xss')", true},
		{"file scheme", "file:///etc/passwd", true},
		{"data scheme", "data:text/html,<script>alert('xss')</script>", true},
		{"ftp scheme", "ftp://example.com", true},
		{"relative reference", "/path/only", true},
		{"empty", "", true},
		{"no host", "http://", true},
		{"port without host", "http://:8080", true},
		{"space", "https://example.com/a b", true},
		{"newline", "http://example.com\nHost: evil", true},
		{"backtick", "http://example.com`id`", true},
		{"quote", "http://example.com/\"x\"", true},
		{"markup", "http://example.com/<script>", true},
		{"backslash", "http://example.com\\admin", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.expectErr {
				assert.Error(t, err, tt.url)
			} else {
				assert.NoError(t, err, tt.url)
			}
		})
	}
}

func TestValidateURLLong(t *testing.T) {
	longURL := "https://example.com/" + strings.Repeat("a", 10000)
	assert.NoError(t, ValidateURL(longURL))
}

func BenchmarkValidateURL(b *testing.B) {
	testURLs := []string{
		"http://localhost:8080",
		"https://example.com/path?param=value",
		"http://example.com/<script>",
		"javascript:alert('xss')",
	}

	b.ResetTimer()
	for range b.N {
		for _, url := range testURLs {
			_ = ValidateURL(url)
		}
	}
}
