// Command grameengo runs the loan application intake and review API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "grameengo",
		Short: "Loan application intake and review for microfinance institutions",
		Long: `grameengo accepts loan applications from small business owners, routes
them to microfinance institution officers for review, and reports on the
portfolio. Without DATABASE_URL it runs entirely in memory with the
bundled MFI catalog.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before the environment")

	cmd.AddCommand(serveCmd(&envFile), migrateCmd(&envFile), tokenCmd(&envFile))
	return cmd
}
