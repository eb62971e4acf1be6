//go:build property

package builtins

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/tmpltool/internal/capability"
)

func callFilter(name string, value any) (any, error) {
	for _, c := range All() {
		if f, ok := c.(*capability.Filter); ok && f.Metadata().Name == name {
			return f.CallAsFilter(value, capability.NewArgs(nil))
		}
	}
	return nil, fmt.Errorf("no filter %s", name)
}

func roundTrips(encode, decode string) func(string) bool {
	return func(s string) bool {
		enc, err := callFilter(encode, s)
		if err != nil {
			return false
		}
		dec, err := callFilter(decode, enc)
		return err == nil && dec == s
	}
}

// TestEncodingProperties checks that every encoder has a matching decoder.
func TestEncodingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(2468)
	parameters.MinSuccessfulTests = 300

	properties := gopter.NewProperties(parameters)

	properties.Property("base64 round trips", prop.ForAll(
		roundTrips("base64_encode", "base64_decode"), gen.AnyString()))
	properties.Property("hex round trips", prop.ForAll(
		roundTrips("hex_encode", "hex_decode"), gen.AnyString()))
	properties.Property("url encoding round trips", prop.ForAll(
		roundTrips("url_encode", "url_decode"), gen.AnyString()))

	properties.TestingRun(t)
}

// TestStringProperties checks invariants of the case conversions.
func TestStringProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(97531)
	parameters.MinSuccessfulTests = 300

	properties := gopter.NewProperties(parameters)

	properties.Property("snake_case is idempotent", prop.ForAll(
		func(s string) bool {
			once, _ := callFilter("snake_case", s)
			twice, _ := callFilter("snake_case", once)
			return once == twice
		},
		gen.AlphaString(),
	))

	properties.Property("kebab_case and snake_case split the same words", prop.ForAll(
		func(words []string) bool {
			in := fmt.Sprint(words)
			snake, _ := callFilter("snake_case", in)
			kebab, _ := callFilter("kebab_case", in)
			return len(splitWords(snake.(string))) == len(splitWords(kebab.(string)))
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.Property("slugify output is a fixed point", prop.ForAll(
		func(s string) bool {
			return slugify(slugify(s)) == slugify(s)
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// TestVersionProperties checks that bumping always yields a greater version.
func TestVersionProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(8642)

	properties := gopter.NewProperties(parameters)

	properties.Property("bumped versions compare greater", prop.ForAll(
		func(major, minor, patch int, part string) bool {
			v := fmt.Sprintf("%d.%d.%d", major, minor, patch)
			bumped, err := byNameProp("semver_bump").(*capability.Filter).
				CallAsFilter(v, capability.NewArgs(map[string]any{"part": part}))
			if err != nil {
				return false
			}
			cmp, err := byNameProp("semver_compare").(*capability.Func).
				Call(capability.NewArgs(map[string]any{"a": bumped, "b": v}))
			return err == nil && cmp == 1
		},
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
		gen.OneConstOf("major", "minor", "patch"),
	))

	properties.TestingRun(t)
}

func byNameProp(name string) capability.Capability {
	for _, c := range All() {
		if c.Metadata().Name == name {
			return c
		}
	}
	return nil
}
