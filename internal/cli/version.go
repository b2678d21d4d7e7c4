package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/iockit/version"
)

const FlagJSON = "json"

func newVersion() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the iocctl build",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			asJSON, err := cmd.Flags().GetBool(FlagJSON)
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(info)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return err
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
	cmd.Flags().Bool(FlagJSON, false, "print the build as JSON")
	return cmd
}
