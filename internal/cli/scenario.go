package cli

import (
	"fmt"
	"strings"

	"github.com/harun/alarmq/internal/workload"
	"github.com/spf13/cobra"
)

var scenarioOutput string

var scenarioCmd = &cobra.Command{
	Use:   "scenario [A|B|C|D|all]",
	Short: "Replay scripted queue scenarios",
	Long: `Replay the scripted queue scenarios step by step:

  A  alarm then normal are received in send order
  B  alarm preempts an earlier normal
  C  second alarm sender blocks until the slot frees
  D  blocked receiver wakes on send

Without an argument every scenario runs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScenario,
}

func init() {
	scenarioCmd.Flags().StringVarP(&scenarioOutput, "output", "o", "text", "output format (text, json, yaml)")
	rootCmd.AddCommand(scenarioCmd)
}

func runScenario(cmd *cobra.Command, args []string) error {
	name := "all"
	if len(args) == 1 {
		name = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cleanup, err := setupRuntime(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()

	var results []*workload.ScenarioResult
	if strings.EqualFold(name, "all") {
		all, err := workload.RunAllScenarios(ctx)
		if err != nil {
			return err
		}
		results = all
	} else {
		result, err := workload.RunScenario(ctx, name)
		if err != nil {
			return err
		}
		results = append(results, result)
	}

	if err := writeScenarios(cmd.OutOrStdout(), results, scenarioOutput); err != nil {
		return err
	}

	var failed []string
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r.Name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("scenarios failed: %s", strings.Join(failed, ", "))
	}
	return nil
}
