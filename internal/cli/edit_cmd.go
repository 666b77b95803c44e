package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// editorRefresh is how often the TUI redraws save indicators.
const editorRefresh = 250 * time.Millisecond

func newEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <appraisal>",
		Short: "Edit an appraisal's sections interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return errors.New("edit requires an interactive terminal")
			}
			ctx := cmd.Context()
			id, err := resolveAppraisalID(ctx, app, args[0])
			if err != nil {
				return err
			}
			sess, err := app.Sessions.Open(ctx, id)
			if err != nil {
				return err
			}

			p := tea.NewProgram(newEditorModel(ctx, sess, editorRefresh),
				tea.WithContext(ctx),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, runErr := p.Run()
			if err := app.Sessions.Close(context.WithoutCancel(ctx), id); err != nil {
				return fmt.Errorf("saving appraisal %s: %w", shortID(id), err)
			}
			if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
				return runErr
			}
			return nil
		},
	}
}
