// Scenarist CLI — инструмент командной строки для управления
// scenarios, executions и channels через HTTP API.
//
// Использование:
//
//	scenarist [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	scenario   Управление сценариями
//	execution  Просмотр журналов выполнений
//	channel    Управление каналами
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkovrov/scenarist/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "scenarist",
		Short:         "Scenarist CLI — scenario execution tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewScenarioCmd(clientFn, outputFn),
		cli.NewExecutionCmd(clientFn, outputFn),
		cli.NewChannelCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
