// Vitrina CLI — инструмент командной строки для управления
// магазинами через HTTP API.
//
// Использование:
//
//	vitrina [--api-url URL] [--json] <command> [subcommand] [flags]
//
// Команды:
//
//	store    Управление магазинами
//	events   Журнал событий
//	metrics  Сводка по магазинам и воркерам
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Vitrina/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	defaultURL := os.Getenv("VITRINA_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}

	rootCmd := &cobra.Command{
		Use:           "vitrina",
		Short:         "Vitrina CLI — WooCommerce store provisioning",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API server URL (env VITRINA_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewStoreCmd(clientFn, outputFn),
		cli.NewEventsCmd(clientFn, outputFn),
		cli.NewMetricsCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
