package main

import (
	"os"

	"github.com/aicrypto/predictor/cmd/do/cmd"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "do",
		Short: "Development and operations tools for the predictor backend",
	}

	rootCmd.AddCommand(cmd.DevCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.AccountCmd())
	rootCmd.AddCommand(cmd.WebhooksCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
