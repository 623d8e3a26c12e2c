package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vedsharma/reqdesk/internal/app"
	"github.com/vedsharma/reqdesk/internal/format"
	"github.com/vedsharma/reqdesk/internal/model"
)

func init() {
	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Manage environments",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List environments",
		Run:   runEnvList,
	}

	importCmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Replace all environments with the ones in a YAML file",
		Long: `Replace all environments with the ones in a YAML file.

File layout:
  environments:
    - name: dev
      variables:
        host: localhost:8080`,
		Args: cobra.ExactArgs(1),
		Run:  runEnvImport,
	}

	useCmd := &cobra.Command{
		Use:   "use <id or name>",
		Short: "Set the active environment",
		Args:  cobra.ExactArgs(1),
		Run:   runEnvUse,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Unset the active environment",
		Run:   runEnvClear,
	}

	activeCmd := &cobra.Command{
		Use:   "active",
		Short: "Show the active environment",
		Run:   runEnvActive,
	}

	envCmd.AddCommand(listCmd, importCmd, useCmd, clearCmd, activeCmd)
	rootCmd.AddCommand(envCmd)
}

func runEnvList(cmd *cobra.Command, args []string) {
	active, _ := store.ActiveEnvironment()
	format.PrintEnvironmentList(store.Environments(), active)
}

func runEnvImport(cmd *cobra.Command, args []string) {
	content, err := readBodyFromFile(args[0])
	if err != nil {
		exitWithError("Failed to read file: %v", err)
	}

	envs, err := app.ParseEnvironments([]byte(content))
	if err != nil {
		exitWithError("%v", err)
	}

	store.ReplaceEnvironments(envs)
	format.PrintSuccess(fmt.Sprintf("Imported %d environments", len(envs)))
}

func runEnvUse(cmd *cobra.Command, args []string) {
	env, err := app.FindEnvironment(store.Environments(), args[0])
	if err != nil {
		exitWithError("%v", err)
	}

	store.SetActiveEnvironment(env.ID)
	format.PrintSuccess(fmt.Sprintf("Active environment: %s", env.Name))
}

func runEnvClear(cmd *cobra.Command, args []string) {
	store.SetActiveEnvironment("")
	format.PrintSuccess("Active environment cleared")
}

func runEnvActive(cmd *cobra.Command, args []string) {
	id, ok := store.ActiveEnvironment()
	if !ok {
		fmt.Fprintln(os.Stdout, "No active environment")
		return
	}

	env, err := app.FindEnvironment(store.Environments(), id)
	if err != nil {
		// The pointer may outlive the environment it names
		fmt.Fprintf(os.Stdout, "%s (not found)\n", id)
		return
	}
	format.PrintEnvironmentList([]model.Environment{env}, env.ID)
}
