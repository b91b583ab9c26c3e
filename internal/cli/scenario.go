package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewScenarioCmd создаёт группу команд для управления сценариями.
func NewScenarioCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Manage scenarios",
	}

	cmd.AddCommand(
		newScenarioListCmd(clientFn, outputFn),
		newScenarioCreateCmd(clientFn, outputFn),
		newScenarioShowCmd(clientFn, outputFn),
		newScenarioDeleteCmd(clientFn, outputFn),
		newScenarioExecuteCmd(clientFn, outputFn),
	)

	return cmd
}

func newScenarioListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			scenarios, err := client.ListScenarios()
			if err != nil {
				return err
			}

			out.Scenarios(scenarios)
			return nil
		},
	}
}

func newScenarioCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a scenario from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read scenario file: %w", err)
			}

			if !json.Valid(data) {
				return fmt.Errorf("scenario file is not valid JSON")
			}

			scenario, err := client.CreateScenario(json.RawMessage(data))
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Scenario created: %s", scenario.ScenarioID))
			out.Scenario(scenario)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to scenario JSON file (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newScenarioShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show SCENARIO_ID",
		Short: "Show scenario definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			scenario, err := client.GetScenario(args[0])
			if err != nil {
				return err
			}

			// Определение сценария всегда в JSON: таблица его не вместит
			out.JSON(scenario)
			return nil
		},
	}
}

func newScenarioDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete SCENARIO_ID",
		Short: "Delete a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteScenario(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Scenario deleted: %s", args[0]))
			return nil
		},
	}
}

func newScenarioExecuteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var contextJSON string

	cmd := &cobra.Command{
		Use:   "execute SCENARIO_ID",
		Short: "Execute a scenario synchronously",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := ExecuteRequest{ScenarioID: args[0]}
			if contextJSON != "" {
				if err := json.Unmarshal([]byte(contextJSON), &req.Context); err != nil {
					return fmt.Errorf("invalid --context JSON: %w", err)
				}
			}

			result, err := client.Execute(req)
			if err != nil {
				return err
			}

			if result.Success {
				out.Success(fmt.Sprintf("Execution %s: %s", result.ExecutionID, result.Status))
			} else {
				out.Error(result.Error)
			}
			out.JSON(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&contextJSON, "context", "", "Initial context as inline JSON object")

	return cmd
}
