package main

import (
	"fmt"
	"os"

	"github.com/legalmind/legalmind/internal/cli"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "legalmindd",
		Short: "LegalMind daemon and CLI",
		Long:  "LegalMind daemon for running the API server, ingesting documents and evaluating answers",
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.IngestCmd())
	rootCmd.AddCommand(cli.EvalCmd())
	rootCmd.AddCommand(cli.DatasetCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
