package main

import (
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"codenote/internal/gateway/app"
	"codenote/internal/gateway/config"
	"codenote/internal/safeio"
)

// maxSourceBytes bounds files read from disk for annotate and publish.
const maxSourceBytes = 4 << 20

type environment struct {
	getenv func(string) string
	stdout io.Writer
	stderr io.Writer
}

type rootOptions struct {
	workdir string
	debug   bool
}

func newRootCmd(env environment) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "codenote",
		Short:         "Annotate source code with a language model and publish it to GitHub",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(env.stdout)
	cmd.SetErr(env.stderr)
	cmd.PersistentFlags().StringVarP(&opts.workdir, "dir", "C", ".", "directory that input files must live under")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "write debug logs to stderr")

	cmd.AddCommand(
		newServeCmd(env, opts),
		newAnnotateCmd(env, opts),
		newPublishCmd(env, opts),
	)
	return cmd
}

func (o *rootOptions) load(env environment) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFrom(env.getenv)
	if err != nil {
		return nil, nil, err
	}
	if !o.debug {
		return cfg, zap.NewNop(), nil
	}
	cfg.LogLevel = "debug"
	logger, err := app.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func (o *rootOptions) readSource(name string) ([]byte, error) {
	root, err := safeio.NewRoot(o.workdir)
	if err != nil {
		return nil, err
	}
	return root.ReadFile(name, maxSourceBytes)
}
