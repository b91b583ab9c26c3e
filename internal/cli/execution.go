package cli

import (
	"github.com/spf13/cobra"
)

// NewExecutionCmd создаёт группу команд для просмотра выполнений.
func NewExecutionCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execution",
		Short: "Inspect executions",
	}

	cmd.AddCommand(
		newExecutionListCmd(clientFn, outputFn),
		newExecutionShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newExecutionListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var scenarioID string
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			executions, err := client.ListExecutions(ListExecutionsOpts{
				ScenarioID: scenarioID,
				Status:     status,
			})
			if err != nil {
				return err
			}

			out.Executions(executions)
			return nil
		},
	}

	cmd.Flags().StringVar(&scenarioID, "scenario-id", "", "Filter by scenario")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")

	return cmd
}

func newExecutionShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show EXECUTION_ID",
		Short: "Show execution record with step details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			execution, err := client.GetExecution(args[0])
			if err != nil {
				return err
			}

			// Запись с шагами и diff-ами — всегда JSON
			out.JSON(execution)
			return nil
		},
	}
}
