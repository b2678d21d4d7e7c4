// Package cli implements the iocctl commands.
package cli

import (
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/kbukum/iockit/manifest"
)

const (
	FlagConfig = "config"
	FlagDir    = "dir"
	FlagAddr   = "addr"
)

// Option configures the command tree.
type Option func(*options)

type options struct {
	fs        afero.Fs
	factories manifest.Factories
}

// WithFactories makes named factories available to manifests.
func WithFactories(f manifest.Factories) Option {
	return func(o *options) { o.factories = f }
}

// WithFs reads manifests from fs instead of the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// Execute runs the root command and exits non-zero on failure.
func Execute(opts ...Option) {
	if err := New(opts...).Execute(); err != nil {
		os.Exit(1)
	}
}

// New builds the iocctl root command.
func New(opts ...Option) *cobra.Command {
	o := &options{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(o)
	}

	cmd := &cobra.Command{
		Use:   "iocctl [sub-command]",
		Short: "Load, check and inspect iockit module manifests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
	cmd.PersistentFlags().String(FlagConfig, "", "path to the iocctl config file")

	cmd.AddCommand(newCheck(o))
	cmd.AddCommand(newServe(o))
	cmd.AddCommand(newVersion())
	return cmd
}
