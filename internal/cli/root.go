// Package cli implements the invcache command line: the HTTP server and the
// operational commands that share its cache and repository wiring.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/invcache/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

// SetVersion records build info for --version.
func SetVersion(v, c string) {
	version = v
	commit = c
}

type rootOptions struct {
	configPath string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "invcache",
		Short:         "Users API with read-through, write-invalidate caching",
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(
		newServeCommand(opts),
		newWarmCommand(opts),
		newStatsCommand(opts),
		newClearCommand(opts),
		newInvalidateTagCommand(opts),
		newUserCommand(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// withApp loads config, wires the app, runs fn and closes the app.
func (o *rootOptions) withApp(ctx context.Context, fn func(*app) error) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.Background()) }()
	return fn(a)
}
