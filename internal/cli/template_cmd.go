package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/appraise/internal/cli/formatter"
)

func newTemplateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"tpl"},
		Short:   "Inspect report templates",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List templates and their required sections",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTemplateList(app.Appraisals.Templates()))
			return nil
		},
	})
	return cmd
}
