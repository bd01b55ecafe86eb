package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "eden",
	Short: "Project tracking and deployment monitoring service",
	Long: `Eden tracks humanitarian projects (organisations, activities, beneficiaries,
tasks and time) and monitors the deployments that run them.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the monitor scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return migrate()
	},
}

var checkTaskID uint

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one monitor task now and print its result",
	RunE: func(cmd *cobra.Command, args []string) error {
		return check(cmd.Context(), cmd.OutOrStdout(), checkTaskID)
	},
}

func init() {
	checkCmd.Flags().UintVar(&checkTaskID, "task", 0, "ID of the monitor task to run")
	_ = checkCmd.MarkFlagRequired("task")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
