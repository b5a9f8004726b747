package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
	ephemeral  bool
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:           "promo-quiz",
		Short:         "Promotional video gate with a one-question quiz and admin console API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config (optional)")
	cmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep records in memory only")
	cmd.AddCommand(NewStartCmd(&configPath, &port, &ephemeral))
	cmd.AddCommand(NewSubmissionsCmd(&configPath, &ephemeral))
	cmd.AddCommand(NewContentCmd(&configPath, &ephemeral))
	return cmd
}
