package cli

import (
	"fmt"
	"os"

	"github.com/harun/alarmq/internal/config"
	"github.com/harun/alarmq/internal/observability"
	"github.com/spf13/cobra"
)

var (
	configOutput string
	configForce  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and manage the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  `Print the configuration after defaults, the config file and ALARMQ_* environment overrides are applied.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configShowCmd.Flags().StringVarP(&configOutput, "output", "o", "json", "output format (json, yaml)")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return encode(cmd.OutOrStdout(), configOutput, cfg)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := config.NewLoader(cfgFile).GetConfigPath()
	if err := config.NewValidator().Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	cmd.Printf("Configuration is valid: %s\n", path)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	// An existing file may name the audit log this init is recorded in.
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cleanup, err := setupRuntime(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	loader := config.NewLoader(cfgFile)
	path := loader.GetConfigPath()

	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}

	if err := loader.Save(config.DefaultConfig()); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	observability.RecordConfigAudit(cmd.Context(), "config:init", path)

	cmd.Printf("Configuration saved to: %s\n", path)
	cmd.Println("Run a workload with: alarmq run")
	return nil
}
