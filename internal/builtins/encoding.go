package builtins

import (
	"encoding/base64"
	"encoding/hex"
	"html"
	"net/url"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/idna"

	"github.com/conneroisu/tmpltool/internal/capability"
	tterrors "github.com/conneroisu/tmpltool/internal/errors"
)

func encodingCapabilities() []capability.Capability {
	return []capability.Capability{
		stringFilter("base64_encode", CategoryEncoding, "Encode a string as standard base64",
			func(s string) (any, error) {
				return base64.StdEncoding.EncodeToString([]byte(s)), nil
			}),
		stringFilter("base64_decode", CategoryEncoding, "Decode standard base64 into a string",
			func(s string) (any, error) {
				out, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
				if err != nil {
					return nil, tterrors.NewDomainError("invalid base64 input", err)
				}
				return string(out), nil
			}),
		stringFilter("hex_encode", CategoryEncoding, "Encode a string as lowercase hex",
			func(s string) (any, error) {
				return hex.EncodeToString([]byte(s)), nil
			}),
		stringFilter("hex_decode", CategoryEncoding, "Decode hex into a string",
			func(s string) (any, error) {
				out, err := hex.DecodeString(strings.TrimSpace(s))
				if err != nil {
					return nil, tterrors.NewDomainError("invalid hex input", err)
				}
				return string(out), nil
			}),
		stringFilter("url_encode", CategoryEncoding, "Percent-encode a string for use in a query",
			func(s string) (any, error) {
				return url.QueryEscape(s), nil
			}),
		stringFilter("url_decode", CategoryEncoding, "Decode a percent-encoded query string",
			func(s string) (any, error) {
				out, err := url.QueryUnescape(s)
				if err != nil {
					return nil, tterrors.NewDomainError("invalid percent-encoding", err)
				}
				return out, nil
			}),
		stringFilter("html_escape", CategoryEncoding, "Escape HTML special characters",
			func(s string) (any, error) {
				return html.EscapeString(s), nil
			}),
		&capability.Filter{
			Meta: describe("sanitize_html", CategoryEncoding,
				"Strip unsafe markup from HTML using a ugc or strict policy", "string",
				capability.FunctionAndFilter,
				args(
					capability.Arg("string", "string", "HTML to sanitize"),
					capability.OptArg("policy", "string", "ugc", "ugc keeps formatting markup, strict removes all tags"),
				),
				`{{ sanitize_html(comment) }}`,
				`{{ comment|sanitize_html:"strict" }}`,
			),
			Apply: sanitizeHTML,
		},
		&capability.Filter{
			Meta: describe("shell_quote", CategoryEncoding,
				"Quote a string or list of strings for safe use in a POSIX shell", "string",
				capability.FunctionAndFilter,
				args(capability.Arg("value", "string|array", "Word or words to quote")),
				`{{ shell_quote("it's here") }}`,
				`{{ files|shell_quote }}`,
			),
			Apply: func(value any, _ capability.Args) (any, error) {
				if s, ok := value.(string); ok {
					return shellquote.Join(s), nil
				}
				words, err := capability.NewArgs(map[string]any{"value": value}).Strings("value")
				if err != nil {
					return nil, err
				}
				return shellquote.Join(words...), nil
			},
		},
		stringFilter("to_punycode", CategoryEncoding, "Convert an internationalized domain name to its ASCII form",
			func(s string) (any, error) {
				out, err := idna.Lookup.ToASCII(s)
				if err != nil {
					return nil, tterrors.NewDomainError("invalid domain name", err)
				}
				return out, nil
			}),
		stringFilter("from_punycode", CategoryEncoding, "Convert an ASCII domain name to its Unicode form",
			func(s string) (any, error) {
				out, err := idna.Lookup.ToUnicode(s)
				if err != nil {
					return nil, tterrors.NewDomainError("invalid domain name", err)
				}
				return out, nil
			}),
	}
}

// stringFilter builds a filter over a single string input named "string".
func stringFilter(name, category, description string, fn func(string) (any, error)) *capability.Filter {
	return &capability.Filter{
		Meta: describe(name, category, description, "string",
			capability.FunctionAndFilter,
			args(capability.Arg("string", "string", "Input string")),
			`{{ `+name+`("text") }}`,
			`{{ "text"|`+name+` }}`,
		),
		Apply: func(value any, _ capability.Args) (any, error) {
			s, err := capability.ToString("string", value)
			if err != nil {
				return nil, err
			}
			return fn(s)
		},
	}
}

func sanitizeHTML(value any, a capability.Args) (any, error) {
	s, err := capability.ToString("string", value)
	if err != nil {
		return nil, err
	}
	policy, err := a.StringOr("policy", "ugc")
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(policy) {
	case "ugc":
		return bluemonday.UGCPolicy().Sanitize(s), nil
	case "strict":
		return bluemonday.StrictPolicy().Sanitize(s), nil
	default:
		return nil, tterrors.NewArgumentError("policy", "expected ugc or strict, got "+policy)
	}
}
