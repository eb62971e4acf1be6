package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	tterrors "github.com/conneroisu/tmpltool/internal/errors"
	"github.com/conneroisu/tmpltool/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch <template>",
	Short: "Re-render a template whenever it or its data files change",
	Long: `Render a template, then watch it and every --data file and render again
after each change. Render errors are reported and watching continues.

Examples:
  tmpltool watch config.tmpl -o config.json
  tmpltool watch page.tmpl --data vars.yaml`,
	Args:    cobra.ExactArgs(1),
	PreRunE: bindRenderFlags,
	RunE:    runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addRenderFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	r, err := newRenderer(cfg, afero.NewOsFs())
	if err != nil {
		return err
	}

	template := args[0]
	dataFiles, _ := cmd.Flags().GetStringArray("data")
	watched := append([]string{template}, dataFiles...)

	render := func() {
		data, err := templateData(cmd, r.fs, r.logger)
		if err == nil {
			err = r.renderTo(template, data, nil, cmd.OutOrStdout())
		}
		if err != nil {
			r.logger.Error(context.Background(), err, "Render failed", "template", template)
			fmt.Fprintln(cmd.ErrOrStderr(), "Error:", tterrors.FormatError(err))
		}
	}

	w, err := watcher.New(watched, cfg.Watch.Debounce, r.logger)
	if err != nil {
		return tterrors.WrapIO(err, tterrors.ErrCodeFileNotFound, "cannot watch template files")
	}
	defer w.Close()

	render()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info(ctx, "Watching for changes", "paths", w.Files())
	return w.Run(ctx, func(changes []watcher.Change) error {
		for _, c := range changes {
			r.logger.Info(ctx, "Change detected", "path", c.Path, "op", c.Op.String())
		}
		render()
		return nil
	})
}
