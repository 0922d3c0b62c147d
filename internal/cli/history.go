package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/harun/recap/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	historyFormat string
	historyFields []string
	historyJSON   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and edit the meeting history",
	Long: `Inspect and edit the bounded meeting history.
Records are kept newest first; adding beyond capacity drops the oldest.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored meetings, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a meeting to the history",
	Long: `Add a meeting to the history.
Fields are given as --field key=value pairs and/or a --json object. The id and
timestamp are assigned by the store.`,
	Args: cobra.NoArgs,
	RunE: runHistoryAdd,
}

var historyRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a meeting by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryRemove,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every meeting and the stored history entry",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var historyWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the history whenever another process changes it",
	Long: `Print the history whenever another process changes it.
Only the file storage backend can be watched.`,
	Args: cobra.NoArgs,
	RunE: runHistoryWatch,
}

func init() {
	historyListCmd.Flags().StringVar(&historyFormat, "format", FormatTable, "output format (table, json, yaml)")
	historyWatchCmd.Flags().StringVar(&historyFormat, "format", FormatTable, "output format (table, json, yaml)")
	historyAddCmd.Flags().StringArrayVar(&historyFields, "field", nil, "record field as key=value (repeatable)")
	historyAddCmd.Flags().StringVar(&historyJSON, "json", "", "record fields as a JSON object")

	historyCmd.AddCommand(historyListCmd, historyAddCmd, historyRemoveCmd, historyClearCmd, historyWatchCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	a, release, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer release()

	return writeRecords(cmd.OutOrStdout(), historyFormat, a.GetHistory().Records(), time.Now())
}

func runHistoryAdd(cmd *cobra.Command, args []string) error {
	fields, err := parseFields(historyFields, historyJSON)
	if err != nil {
		return err
	}

	a, release, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer release()

	record := a.AddRecord(fields)
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", successStyle.Render("Added meeting"), record.ID)
	return nil
}

func runHistoryRemove(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[0], err)
	}

	a, release, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer release()

	if !a.RemoveRecord(id) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", warningStyle.Render("No meeting with id"), id)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", successStyle.Render("Removed meeting"), id)
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	a, release, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer release()

	a.ClearHistory()
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("History cleared"))
	return nil
}

func runHistoryWatch(cmd *cobra.Command, args []string) error {
	a, release, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer release()

	fileBackend, ok := a.GetBackend().(*storage.FileBackend)
	if !ok {
		return fmt.Errorf("watch requires the file storage backend, got %q", a.GetConfig().Storage.Backend)
	}

	out := cmd.OutOrStdout()
	store := a.GetHistory()
	if err := writeRecords(out, historyFormat, store.Records(), time.Now()); err != nil {
		return err
	}

	changes := make(chan struct{}, 1)
	watcher, err := storage.NewWatcher(a.GetLogger().GetZerolog(), fileBackend, a.GetConfig().Storage.Key, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("failed to watch history: %w", err)
	}
	defer watcher.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			store.Load()
			fmt.Fprintln(out)
			if err := writeRecords(out, historyFormat, store.Records(), time.Now()); err != nil {
				return err
			}
		}
	}
}
