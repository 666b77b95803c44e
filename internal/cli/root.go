package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/appraise/internal/editor"
	"github.com/alexanderramin/appraise/internal/service"
)

// App holds the services the commands run against.
type App struct {
	Appraisals service.AppraisalService
	Sessions   *editor.Manager
	Logger     *slog.Logger
	HTTPAddr   string

	// IsInteractive reports whether stdin is a terminal. Nil means never.
	IsInteractive func() bool
	// Confirm asks a yes/no question. Nil uses a huh confirm form.
	Confirm func(title string) (bool, error)
}

// NewRootCmd creates the top-level "appraise" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "appraise",
		Short:         "Real-estate appraisal editor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newAppraisalCmd(app),
		newSectionCmd(app),
		newAdjustCmd(app),
		newAgeCmd(app),
		newTemplateCmd(app),
		newEditCmd(app),
		newServeCmd(app),
	)
	return root
}

func (app *App) interactive() bool {
	return app.IsInteractive != nil && app.IsInteractive()
}
