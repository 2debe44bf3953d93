package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newEnginesCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "engines",
		Short: "List registered engines and their availability",
		RunE: func(cmd *cobra.Command, _ []string) error {
			infos := a.router.List()
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tAVAILABLE\tEXTENSIONS")
			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%v\t%s\n", info.Name, info.Available, strings.Join(info.Extensions, ","))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of a table")
	return cmd
}
