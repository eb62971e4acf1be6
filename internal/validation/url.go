package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateURL accepts absolute http and https URLs with a host. URLs holding
// whitespace, control characters, quotes or markup delimiters are rejected
// so a value that passed is safe to embed in generated configuration.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (only http/https allowed)", parsed.Scheme)
	}

	dangerous := []string{"`", "<", ">", "\"", "'", "\\", "\n", "\r", "\t", "\x00"}
	for _, char := range dangerous {
		if strings.Contains(rawURL, char) {
			return fmt.Errorf("URL contains dangerous character: %q", char)
		}
	}

	if strings.Contains(rawURL, " ") {
		return fmt.Errorf("URL contains spaces")
	}

	if parsed.Hostname() == "" {
		return fmt.Errorf("URL must have a valid hostname")
	}

	return nil
}
