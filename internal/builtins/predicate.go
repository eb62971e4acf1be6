package builtins

import (
	"encoding/json"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/coreos/go-semver/semver"

	"github.com/conneroisu/tmpltool/internal/capability"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

func predicateCapabilities() []capability.Capability {
	return []capability.Capability{
		stringPredicate("is_email", CategoryPredicate, "Test whether a string is an email address", "user@example.com",
			isEmail),
		stringPredicate("is_uuid", CategoryPredicate, "Test whether a string is a UUID", "123e4567-e89b-12d3-a456-426614174000",
			uuidPattern.MatchString),
		stringPredicate("is_semver", CategoryPredicate, "Test whether a string is a semantic version", "1.2.3-rc.1",
			func(s string) bool {
				_, err := semver.NewVersion(s)
				return err == nil
			}),
		stringPredicate("is_json", CategoryPredicate, "Test whether a string is valid JSON", `{\"a\": 1}`,
			func(s string) bool {
				return json.Valid([]byte(s))
			}),
		stringPredicate("is_alpha", CategoryPredicate, "Test whether a string is non-empty and only letters", "abc",
			func(s string) bool {
				if s == "" {
					return false
				}
				for _, r := range s {
					if !unicode.IsLetter(r) {
						return false
					}
				}
				return true
			}),
		&capability.Predicate{
			Meta: describe("is_numeric", CategoryPredicate, "Test whether a value is a number or a numeric string", "boolean",
				capability.FunctionAndTest,
				args(capability.Arg("value", "any", "Value to test")),
				`{{ is_numeric("3.14") }}`,
				`{% if port|is_numeric %}ok{% endif %}`,
			),
			Check: func(value any) (bool, error) {
				switch v := value.(type) {
				case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
					return true, nil
				case string:
					_, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
					return err == nil, nil
				default:
					return false, nil
				}
			},
		},
		&capability.Predicate{
			Meta: describe("is_empty", CategoryPredicate, "Test whether a value is null, an empty string, list or object", "boolean",
				capability.FunctionAndTest,
				args(capability.Arg("value", "any", "Value to test")),
				`{{ is_empty(items) }}`,
				`{% if items|is_empty %}none{% endif %}`,
			),
			Check: func(value any) (bool, error) {
				return blank(value), nil
			},
		},
	}
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}
