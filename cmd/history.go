package cmd

import (
	"github.com/spf13/cobra"

	"github.com/vedsharma/reqdesk/internal/format"
)

func init() {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "View request history",
		Run:   runHistoryList,
	}

	historyCmd.Flags().IntP("limit", "n", 10, "Number of requests to show")

	showCmd := &cobra.Command{
		Use:   "show <id or index>",
		Short: "Show full details of a request",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryShow,
	}

	replayCmd := &cobra.Command{
		Use:   "replay <id or index>",
		Short: "Send a request from history again",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryReplay,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all history",
		Run:   runHistoryClear,
	}

	historyCmd.AddCommand(showCmd, replayCmd, clearCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	format.PrintHistoryList(store.History(), limit)
}

func runHistoryShow(cmd *cobra.Command, args []string) {
	entry, err := session.FindHistory(args[0])
	if err != nil {
		exitWithError("Request not found: %s", args[0])
	}
	format.PrintHistoryDetail(entry)
}

func runHistoryReplay(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	entry, err := session.Replay(cmd.Context(), args[0])
	if err != nil {
		exitWithError("%v", err)
	}

	format.PrintRequest(entry.Request)
	format.PrintResponse(entry.Response, verbose)
}

func runHistoryClear(cmd *cobra.Command, args []string) {
	store.ClearHistory()
	format.PrintSuccess("History cleared")
}
