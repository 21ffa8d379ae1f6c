package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xabinapal/gitflip/internal/version"
)

// newVersionCmd creates the version command.
func (cli *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print gitflip version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			writer, err := cli.output(cmd)
			if err != nil {
				return err
			}
			return writer.Write(info, func() {
				fmt.Fprintln(writer.Writer(), info.String())
			})
		},
	}
}
