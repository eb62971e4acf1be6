package builtins

import (
	"strings"

	"github.com/coreos/go-semver/semver"

	"github.com/conneroisu/tmpltool/internal/capability"
	tterrors "github.com/conneroisu/tmpltool/internal/errors"
)

func versionCapabilities() []capability.Capability {
	return []capability.Capability{
		&capability.Func{
			Meta: describe("semver_compare", CategoryVersion,
				"Compare two semantic versions, returning -1, 0 or 1", "integer",
				capability.FunctionOnly,
				args(
					capability.Arg("a", "string", "First version"),
					capability.Arg("b", "string", "Second version"),
				),
				`{{ semver_compare("1.2.3", "1.10.0") }}`,
			),
			Fn: func(a capability.Args) (any, error) {
				left, err := versionArg(a, "a")
				if err != nil {
					return nil, err
				}
				right, err := versionArg(a, "b")
				if err != nil {
					return nil, err
				}
				return left.Compare(*right), nil
			},
		},
		&capability.Filter{
			Meta: describe("semver_bump", CategoryVersion, "Increment one part of a semantic version", "string",
				capability.FunctionAndFilter,
				args(
					capability.Arg("version", "string", "Version to bump"),
					capability.OptArg("part", "string", "patch", "One of major, minor, patch"),
				),
				`{{ semver_bump("1.2.3", "minor") }}`,
				`{{ version|semver_bump:"major" }}`,
			),
			Apply: func(value any, a capability.Args) (any, error) {
				v, err := parseVersion("version", value)
				if err != nil {
					return nil, err
				}
				part, err := a.StringOr("part", "patch")
				if err != nil {
					return nil, err
				}
				switch strings.ToLower(part) {
				case "major":
					v.BumpMajor()
				case "minor":
					v.BumpMinor()
				case "patch":
					v.BumpPatch()
				default:
					return nil, tterrors.NewArgumentError("part", "expected major, minor or patch, got "+part)
				}
				return v.String(), nil
			},
		},
	}
}

func versionArg(a capability.Args, name string) (*semver.Version, error) {
	raw, err := a.Require(name)
	if err != nil {
		return nil, err
	}
	return parseVersion(name, raw)
}

func parseVersion(name string, value any) (*semver.Version, error) {
	s, err := capability.ToString(name, value)
	if err != nil {
		return nil, err
	}
	v, err := semver.NewVersion(strings.TrimPrefix(strings.TrimSpace(s), "v"))
	if err != nil {
		return nil, tterrors.NewArgumentError(name, "invalid semantic version "+s)
	}
	return v, nil
}
