package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orthoroute/pkg/buildinfo"
	"github.com/matzehuels/orthoroute/pkg/client"
)

func (c *CLI) versionCommand() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(stdout, buildinfo.String())
			if server == "" {
				return nil
			}
			info, err := client.New(server, nil).Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout)
			printKeyValue("server", server)
			printKeyValue("version", info.Version)
			printKeyValue("commit", info.Commit)
			printKeyValue("built", info.Date)
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "also query the version of an orthoroute server")
	return cmd
}
