package builtins

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/conneroisu/tmpltool/internal/capability"
	tterrors "github.com/conneroisu/tmpltool/internal/errors"
	"github.com/conneroisu/tmpltool/internal/execution"
	"github.com/conneroisu/tmpltool/internal/validation"
)

func execCapabilities() []capability.Capability {
	return []capability.Capability{
		&capability.ContextFunc{
			Meta: describe("exec", CategoryExec,
				"Run a command in the template directory and return its trimmed standard output. "+
					"Requires --trust unless the command is in exec.allowed_commands.", "string",
				capability.FunctionOnly,
				args(
					capability.Arg("command", "string", "Command line, split with POSIX shell quoting rules"),
					capability.OptArgNoDefault("timeout", "duration", "Deadline such as 10s; defaults to exec.default_timeout"),
				),
				`{{ exec("git rev-parse --short HEAD") }}`,
				`{{ exec("make version", "5s") }}`,
			),
			Fn: runCommand,
		},
	}
}

func runCommand(ctx *execution.Context, a capability.Args) (any, error) {
	line, err := a.String("command")
	if err != nil {
		return nil, err
	}
	argv, err := shellquote.Split(line)
	if err != nil {
		return nil, tterrors.NewArgumentError("command", err.Error())
	}
	if len(argv) == 0 {
		return nil, tterrors.NewArgumentError("command", "command is empty")
	}

	if !ctx.IsTrustMode() {
		if err := validation.ValidateCommand(argv[0], ctx.AllowedCommands()); err != nil {
			return nil, tterrors.Wrap(err, tterrors.ErrorTypeSecurity, tterrors.ErrCodeCommandDenied,
				"command refused outside trust mode (use --trust or exec.allowed_commands)")
		}
		for _, arg := range argv[1:] {
			if err := validation.ValidateArgument(arg); err != nil {
				return nil, tterrors.NewArgumentError("command", fmt.Sprintf("argument %q %v", arg, err))
			}
		}
	}

	timeout := ctx.ExecTimeout()
	if a.Has("timeout") {
		if timeout, err = a.Duration("timeout"); err != nil {
			return nil, err
		}
		if timeout <= 0 {
			return nil, tterrors.NewArgumentError("timeout", "must be positive")
		}
	}

	runCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = ctx.BaseDir()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, tterrors.Wrap(runCtx.Err(), tterrors.ErrorTypeDomain, tterrors.ErrCodeTimeout,
			fmt.Sprintf("%s timed out after %s", argv[0], timeout))
	}
	if err != nil {
		msg := strings.TrimSpace(validation.SanitizeInput(stderr.String()))
		if msg == "" {
			msg = err.Error()
		}
		return nil, tterrors.NewDomainError(fmt.Sprintf("%s failed: %s", argv[0], msg), err)
	}

	return strings.TrimRight(stdout.String(), "\r\n"), nil
}
