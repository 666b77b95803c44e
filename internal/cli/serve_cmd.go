package cli

import (
	"github.com/spf13/cobra"

	"github.com/alexanderramin/appraise/internal/httpapi"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the editor over HTTP for the browser frontend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := httpapi.NewServer(app.Appraisals, app.Sessions, app.Logger)
			return srv.Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", app.HTTPAddr, "Listen address")
	return cmd
}
