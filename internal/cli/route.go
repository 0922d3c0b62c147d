package cli

import (
	"fmt"
	"time"

	"github.com/harun/recap/pkg/history"
	"github.com/harun/recap/pkg/routes"
	"github.com/spf13/cobra"
)

var routeCmd = &cobra.Command{
	Use:   "route <path>",
	Short: "Resolve a client path to its view",
	Long: `Resolve a client path to its view.
For a results path the meetings in history with that filename are listed.`,
	Args: cobra.ExactArgs(1),
	RunE: runRoute,
}

func init() {
	routeCmd.Flags().StringVar(&historyFormat, "format", FormatTable, "output format (table, json, yaml)")
	rootCmd.AddCommand(routeCmd)
}

func runRoute(cmd *cobra.Command, args []string) error {
	route, params, ok := routes.Match(args[0])
	if !ok {
		return fmt.Errorf("no view for path %q", args[0])
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("View:"), route.Name)
	if route.Name != routes.Results {
		return nil
	}

	filename := params["filename"]
	fmt.Fprintf(out, "%s %s\n\n", labelStyle.Render("Filename:"), filename)

	a, release, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer release()

	var matches []history.Record
	for _, r := range a.GetHistory().Records() {
		if name, _ := r.Fields["filename"].(string); name == filename {
			matches = append(matches, r)
		}
	}
	return writeRecords(out, historyFormat, matches, time.Now())
}
