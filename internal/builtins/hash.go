package builtins

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"

	"github.com/conneroisu/tmpltool/internal/capability"
	tterrors "github.com/conneroisu/tmpltool/internal/errors"
	"github.com/conneroisu/tmpltool/internal/execution"
)

var hashAlgorithms = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
}

func hashCapabilities() []capability.Capability {
	return []capability.Capability{
		hashFilter("md5", "MD5", md5.New),
		hashFilter("sha1", "SHA-1", sha1.New),
		hashFilter("sha256", "SHA-256", sha256.New),
		hashFilter("sha512", "SHA-512", sha512.New),
		&capability.ContextFunc{
			Meta: describe("hash_file", CategoryHash,
				"Compute the digest of a file relative to the template directory", "string",
				capability.FunctionOnly,
				args(
					capability.Arg("path", "string", "File to hash"),
					capability.OptArg("algorithm", "string", "sha256", "One of md5, sha1, sha256, sha512"),
				),
				`{{ hash_file("go.sum") }}`,
				`{{ hash_file("go.sum", "md5") }}`,
			),
			Fn: hashFile,
		},
	}
}

func hashFilter(name, label string, newHash func() hash.Hash) *capability.Filter {
	return &capability.Filter{
		Meta: describe(name, CategoryHash,
			fmt.Sprintf("Compute the %s digest of a string as lowercase hex", label), "string",
			capability.FunctionAndFilter,
			args(capability.Arg("string", "string", "Input to hash")),
			fmt.Sprintf(`{{ %s("hello") }}`, name),
			fmt.Sprintf(`{{ "hello"|%s }}`, name),
		),
		Apply: func(value any, _ capability.Args) (any, error) {
			s, err := capability.ToString("string", value)
			if err != nil {
				return nil, err
			}
			h := newHash()
			h.Write([]byte(s))
			return hex.EncodeToString(h.Sum(nil)), nil
		},
	}
}

func hashFile(ctx *execution.Context, a capability.Args) (any, error) {
	path, err := a.String("path")
	if err != nil {
		return nil, err
	}
	algo, err := a.StringOr("algorithm", "sha256")
	if err != nil {
		return nil, err
	}

	newHash, ok := hashAlgorithms[strings.ToLower(algo)]
	if !ok {
		return nil, tterrors.NewArgumentError("algorithm",
			fmt.Sprintf("unsupported algorithm %q (md5, sha1, sha256, sha512)", algo))
	}

	f, err := ctx.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := newHash()
	if _, err := io.Copy(h, f); err != nil {
		return nil, tterrors.WrapIO(err, tterrors.ErrCodeIOFailed, "reading "+path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
