package builtins

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/conneroisu/tmpltool/internal/capability"
	tterrors "github.com/conneroisu/tmpltool/internal/errors"
)

func stringCapabilities() []capability.Capability {
	return []capability.Capability{
		stringFilter("title_case", CategoryString, "Capitalize the first letter of every word",
			func(s string) (any, error) {
				return cases.Title(language.Und).String(s), nil
			}),
		stringFilter("snake_case", CategoryString, "Convert to snake_case",
			func(s string) (any, error) {
				return joinWords(splitWords(s), "_", strings.ToLower), nil
			}),
		stringFilter("kebab_case", CategoryString, "Convert to kebab-case",
			func(s string) (any, error) {
				return joinWords(splitWords(s), "-", strings.ToLower), nil
			}),
		stringFilter("camel_case", CategoryString, "Convert to camelCase",
			func(s string) (any, error) {
				return camelCase(s), nil
			}),
		stringFilter("slugify", CategoryString, "Convert to a lowercase ASCII URL slug",
			func(s string) (any, error) {
				return slugify(s), nil
			}),
		&capability.Filter{
			Meta: describe("normalize", CategoryString, "Apply a Unicode normalization form", "string",
				capability.FunctionAndFilter,
				args(
					capability.Arg("string", "string", "Input string"),
					capability.OptArg("form", "string", "NFC", "One of NFC, NFD, NFKC, NFKD"),
				),
				`{{ normalize(name, "NFKC") }}`,
				`{{ name|normalize:"NFD" }}`,
			),
			Apply: normalizeString,
		},
		&capability.Filter{
			Meta: describe("truncate", CategoryString, "Shorten a string to at most length characters", "string",
				capability.FunctionAndFilter,
				args(
					capability.Arg("string", "string", "Input string"),
					capability.OptArg("length", "integer", "80", "Maximum length including the suffix"),
					capability.OptArg("suffix", "string", "...", "Appended when the string is cut"),
				),
				`{{ truncate(summary, 20) }}`,
				`{{ summary|truncate:20 }}`,
			),
			Apply: truncate,
		},
		&capability.Filter{
			Meta: describe("indent", CategoryString, "Indent every non-empty line", "string",
				capability.FunctionAndFilter,
				args(
					capability.Arg("string", "string", "Input text"),
					capability.OptArg("width", "integer", "4", "Number of spaces"),
				),
				`{{ indent(block, 2) }}`,
				`{{ block|indent:2 }}`,
			),
			Apply: indent,
		},
		&capability.Filter{
			Meta: describe("wrap", CategoryString, "Wrap text at word boundaries", "string",
				capability.FunctionAndFilter,
				args(
					capability.Arg("string", "string", "Input text"),
					capability.OptArg("width", "integer", "80", "Maximum line width"),
				),
				`{{ wrap(paragraph, 72) }}`,
				`{{ paragraph|wrap:72 }}`,
			),
			Apply: wrap,
		},
		&capability.Filter{
			Meta: describe("regex_replace", CategoryString, "Replace every match of a regular expression", "string",
				capability.FunctionAndFilter,
				args(
					capability.Arg("string", "string", "Input string"),
					capability.Arg("pattern", "string", "RE2 regular expression"),
					capability.OptArg("replacement", "string", "", "Replacement, may reference groups as $1"),
				),
				`{{ regex_replace(version, "^v", "") }}`,
			),
			Apply: regexReplace,
		},
		&capability.Filter{
			Meta: describe("regex_find_all", CategoryString, "Return every match of a regular expression", "array",
				capability.FunctionAndFilter,
				args(
					capability.Arg("string", "string", "Input string"),
					capability.Arg("pattern", "string", "RE2 regular expression"),
				),
				`{{ regex_find_all(text, "[0-9]+") }}`,
				`{{ text|regex_find_all:"[0-9]+" }}`,
			),
			Apply: regexFindAll,
		},
		&capability.Filter{
			Meta: describe("regex_match", CategoryString, "Report whether a regular expression matches", "boolean",
				capability.FunctionAndFilter,
				args(
					capability.Arg("string", "string", "Input string"),
					capability.Arg("pattern", "string", "RE2 regular expression"),
				),
				`{{ regex_match(tag, "^v[0-9]") }}`,
				`{% if tag|regex_match:"^v[0-9]" %}release{% endif %}`,
			),
			Apply: regexMatch,
		},
	}
}

// splitWords breaks s into words at separators and lower-to-upper case
// boundaries.
func splitWords(s string) []string {
	var words []string
	var cur []rune
	prev := rune(0)

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return words
}

func joinWords(words []string, sep string, fn func(string) string) string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = fn(w)
	}
	return strings.Join(out, sep)
}

func camelCase(s string) string {
	words := splitWords(s)
	var b strings.Builder
	for i, w := range words {
		w = strings.ToLower(w)
		if i == 0 {
			b.WriteString(w)
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(t, s)
	if err != nil {
		ascii = s
	}
	slug := slugInvalid.ReplaceAllString(strings.ToLower(ascii), "-")
	return strings.Trim(slug, "-")
}

func normalizeString(value any, a capability.Args) (any, error) {
	s, err := capability.ToString("string", value)
	if err != nil {
		return nil, err
	}
	form, err := a.StringOr("form", "NFC")
	if err != nil {
		return nil, err
	}

	switch strings.ToUpper(form) {
	case "NFC":
		return norm.NFC.String(s), nil
	case "NFD":
		return norm.NFD.String(s), nil
	case "NFKC":
		return norm.NFKC.String(s), nil
	case "NFKD":
		return norm.NFKD.String(s), nil
	default:
		return nil, tterrors.NewArgumentError("form", "expected NFC, NFD, NFKC or NFKD, got "+form)
	}
}

func truncate(value any, a capability.Args) (any, error) {
	s, err := capability.ToString("string", value)
	if err != nil {
		return nil, err
	}
	length, err := a.IntOr("length", 80)
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, tterrors.NewArgumentError("length", "must not be negative")
	}
	suffix, err := a.StringOr("suffix", "...")
	if err != nil {
		return nil, err
	}

	r := []rune(s)
	if len(r) <= length {
		return s, nil
	}
	keep := length - len([]rune(suffix))
	if keep < 0 {
		keep = 0
	}
	return string(r[:keep]) + suffix, nil
}

func indent(value any, a capability.Args) (any, error) {
	s, err := capability.ToString("string", value)
	if err != nil {
		return nil, err
	}
	width, err := a.IntOr("width", 4)
	if err != nil {
		return nil, err
	}
	if width < 0 {
		return nil, tterrors.NewArgumentError("width", "must not be negative")
	}

	pad := strings.Repeat(" ", width)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n"), nil
}

func wrap(value any, a capability.Args) (any, error) {
	s, err := capability.ToString("string", value)
	if err != nil {
		return nil, err
	}
	width, err := a.IntOr("width", 80)
	if err != nil {
		return nil, err
	}
	if width <= 0 {
		return nil, tterrors.NewArgumentError("width", "must be positive")
	}

	var lines []string
	for _, para := range strings.Split(s, "\n") {
		var line strings.Builder
		for _, word := range strings.Fields(para) {
			if line.Len() > 0 && line.Len()+1+len([]rune(word)) > width {
				lines = append(lines, line.String())
				line.Reset()
			}
			if line.Len() > 0 {
				line.WriteByte(' ')
			}
			line.WriteString(word)
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n"), nil
}

func compilePattern(a capability.Args) (*regexp.Regexp, error) {
	pattern, err := a.String("pattern")
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, tterrors.NewDomainError("invalid regular expression", err)
	}
	return re, nil
}

func regexReplace(value any, a capability.Args) (any, error) {
	s, err := capability.ToString("string", value)
	if err != nil {
		return nil, err
	}
	re, err := compilePattern(a)
	if err != nil {
		return nil, err
	}
	repl, err := a.StringOr("replacement", "")
	if err != nil {
		return nil, err
	}
	return re.ReplaceAllString(s, repl), nil
}

func regexFindAll(value any, a capability.Args) (any, error) {
	s, err := capability.ToString("string", value)
	if err != nil {
		return nil, err
	}
	re, err := compilePattern(a)
	if err != nil {
		return nil, err
	}
	matches := re.FindAllString(s, -1)
	if matches == nil {
		matches = []string{}
	}
	return matches, nil
}

func regexMatch(value any, a capability.Args) (any, error) {
	s, err := capability.ToString("string", value)
	if err != nil {
		return nil, err
	}
	re, err := compilePattern(a)
	if err != nil {
		return nil, err
	}
	return re.MatchString(s), nil
}
