package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/iockit/di"
	"github.com/kbukum/iockit/errors"
)

const FlagStrict = "strict"

func newCheck(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load manifests, initialize the container and report problems",
		Long: `Loads every manifest under the manifest directory, runs the eager
resolution pass and prints circular edges and unresolved modules. The
command fails when any module cannot be resolved, and with --strict also
when a circular edge was found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, o)
			if err != nil {
				return err
			}
			strict, err := cmd.Flags().GetBool(FlagStrict)
			if err != nil {
				return err
			}
			return runCheck(cmd.OutOrStdout(), rt, strict)
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
	cmd.Flags().String(FlagDir, "", "manifest directory (overrides manifest.dir)")
	cmd.Flags().Bool(FlagStrict, false, "fail on circular dependencies")
	return cmd
}

func runCheck(out io.Writer, rt *runtime, strict bool) error {
	var edges []di.CircularDependency
	off := rt.bus.On(di.EventCircular, func(payload any) {
		if ev, ok := payload.(di.CircularDependency); ok {
			edges = append(edges, ev)
		}
	})
	defer off()

	n, err := rt.load()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "loaded %d modules from %s\n", n, rt.cfg.Manifest.Dir)

	initErr := rt.container.Initialize(nil, nil)
	for _, e := range edges {
		fmt.Fprintf(out, "circular: %s -> %s\n", e.Module.Key(), e.Dependency)
	}
	if initErr != nil {
		seen := make(map[string]bool)
		for _, rec := range rt.container.Unresolved() {
			if seen[rec.Key()] {
				continue
			}
			seen[rec.Key()] = true
			fmt.Fprintf(out, "unresolved: %s (dependencies: %v)\n", rec.Key(), rec.Dependencies())
		}
		return initErr
	}
	if strict && len(edges) > 0 {
		return circularError(edges)
	}
	fmt.Fprintln(out, "ok")
	return nil
}

// circularError names the first edge and lists every edge in details.
func circularError(edges []di.CircularDependency) error {
	all := make([]string, len(edges))
	for i, e := range edges {
		all[i] = e.Module.Key() + " -> " + e.Dependency
	}
	return errors.CircularDependency(edges[0].Module.Key(), edges[0].Dependency).
		WithDetail("edges", all)
}
