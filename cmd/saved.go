package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vedsharma/reqdesk/internal/format"
	"github.com/vedsharma/reqdesk/internal/model"
)

func init() {
	savedCmd := &cobra.Command{
		Use:     "saved",
		Aliases: []string{"s"},
		Short:   "Manage saved requests",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved requests",
		Run:   runSavedList,
	}

	showCmd := &cobra.Command{
		Use:   "show <index, id or name>",
		Short: "Show a saved request",
		Args:  cobra.ExactArgs(1),
		Run:   runSavedShow,
	}

	addCmd := &cobra.Command{
		Use:   "add <name> <method> <url>",
		Short: "Save a request without sending it",
		Long: `Save a request without sending it.

Example:
  reqdesk saved add "Get Users" GET https://api.example.com/users -H "Accept: application/json"`,
		Args: cobra.ExactArgs(3),
		Run:  runSavedAdd,
	}
	addCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Add header")
	addCmd.Flags().StringVarP(&data, "data", "d", "", "Request body (string or @filename)")
	addCmd.Flags().StringVar(&bodyKind, "body-kind", "", "Body type: json, text, form-data or none")

	deleteCmd := &cobra.Command{
		Use:   "delete <index, id or name>",
		Short: "Delete a saved request",
		Args:  cobra.ExactArgs(1),
		Run:   runSavedDelete,
	}

	runCmd := &cobra.Command{
		Use:   "run <index, id or name>",
		Short: "Send a saved request",
		Args:  cobra.ExactArgs(1),
		Run:   runSavedRun,
	}

	savedCmd.AddCommand(listCmd, showCmd, addCmd, deleteCmd, runCmd)
	rootCmd.AddCommand(savedCmd)
}

func runSavedList(cmd *cobra.Command, args []string) {
	format.PrintSavedList(store.SavedRequests())
}

func runSavedShow(cmd *cobra.Command, args []string) {
	req, err := session.FindSaved(args[0])
	if err != nil {
		exitWithError("%v", err)
	}
	format.PrintRequestDetail(req)
}

func runSavedAdd(cmd *cobra.Command, args []string) {
	method, err := model.ParseMethod(args[1])
	if err != nil {
		exitWithError("%v", err)
	}

	requestName = args[0]
	req, err := buildRequest(method, args[2])
	if err != nil {
		exitWithError("%v", err)
	}

	store.SaveRequest(req)
	format.PrintSuccess(fmt.Sprintf("Saved '%s' (%s)", req.DisplayName(), req.ID))
}

func runSavedDelete(cmd *cobra.Command, args []string) {
	req, err := session.FindSaved(args[0])
	if err != nil {
		exitWithError("%v", err)
	}

	store.DeleteRequest(req.ID)
	format.PrintSuccess(fmt.Sprintf("Deleted '%s'", req.DisplayName()))
}

func runSavedRun(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	entry, err := session.SendSaved(cmd.Context(), args[0])
	if err != nil {
		exitWithError("%v", err)
	}

	format.PrintRequest(entry.Request)
	format.PrintResponse(entry.Response, verbose)
}
