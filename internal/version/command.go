package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AttachCobraVersionCommand mounts a `version` subcommand on the given root
// that prints the full build provenance.
func AttachCobraVersionCommand(root *cobra.Command) {
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information.",
		Long:  "Print the build version together with the commit hash and build timestamp injected at release time.",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), Full())
		},
	})
}
