package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// NewContentCmd prints the content the page flow would be served.
func NewContentCmd(configPath *string, ephemeral *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "content",
		Short: "Print the current media config and questions as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices(cmd.Context(), *configPath, *ephemeral)
			if err != nil {
				return err
			}
			defer svc.Close()

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(svc.content.Get(cmd.Context()))
		},
	}
}
