package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewSubmissionsCmd groups the admin operations on the submission log.
func NewSubmissionsCmd(configPath *string, ephemeral *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "Inspect, export or purge collected quiz responses",
	}
	cmd.AddCommand(newSubmissionsExportCmd(configPath, ephemeral))
	cmd.AddCommand(newSubmissionsResetCmd(configPath, ephemeral))
	return cmd
}

func newSubmissionsExportCmd(configPath *string, ephemeral *bool) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all submissions as CSV, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices(cmd.Context(), *configPath, *ephemeral)
			if err != nil {
				return err
			}
			defer svc.Close()

			if output == "" || output == "-" {
				return svc.submissions.ExportCSV(cmd.Context(), cmd.OutOrStdout())
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := svc.submissions.ExportCSV(cmd.Context(), f); err != nil {
				f.Close()
				return fmt.Errorf("write %s: %w", output, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "file to write, - for stdout")
	return cmd
}

func newSubmissionsResetCmd(configPath *string, ephemeral *bool) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every recorded submission",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to reset without --yes")
			}
			svc, err := loadServices(cmd.Context(), *configPath, *ephemeral)
			if err != nil {
				return err
			}
			defer svc.Close()

			before := len(svc.submissions.List(cmd.Context()))
			svc.submissions.Reset(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d submissions\n", before)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}
