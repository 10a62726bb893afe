package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/statekit-dev/statekit/pkg/atom"
)

func inspectCmd() *cobra.Command {
	var (
		addr    string
		rawJSON bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Fetch a snapshot of the store's cached atoms",
		Long: `Fetch the devtools inspector's /atoms snapshot and print it as a
table (or raw JSON with --json).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: 10 * time.Second}
			resp, err := client.Get(strings.TrimRight(addr, "/") + "/atoms")
			if err != nil {
				return fmt.Errorf("fetch snapshot: %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("inspector returned %s", resp.Status)
			}

			var infos []atom.AtomInfo
			if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
				return fmt.Errorf("decode snapshot: %w", err)
			}

			if rawJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKEY\tKIND\tVALUE\tSUBS\tGEN\tTAGS")
			for _, info := range infos {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n",
					info.ID,
					info.Key,
					info.Kind,
					truncate(info.Value, 48),
					info.Subscribers,
					info.Generation,
					strings.Join(info.Tags, ","))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://localhost:6360", "Inspector base URL")
	cmd.Flags().BoolVar(&rawJSON, "json", false, "Print raw JSON instead of a table")

	return cmd
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
