package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/appraise/internal/cli/formatter"
	"github.com/alexanderramin/appraise/internal/domain"
	"github.com/alexanderramin/appraise/internal/importer"
	"github.com/alexanderramin/appraise/internal/service"
)

func newAppraisalCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appraisal",
		Aliases: []string{"a"},
		Short:   "Manage appraisal files",
	}
	cmd.AddCommand(
		newAppraisalCreateCmd(app),
		newAppraisalListCmd(app),
		newAppraisalShowCmd(app),
		newAppraisalStatusCmd(app),
		newAppraisalDeleteCmd(app),
		newAppraisalImportCmd(app),
		newAppraisalExportCmd(app),
	)
	return cmd
}

func newAppraisalCreateCmd(app *App) *cobra.Command {
	tmpl := templateTypeFlag(domain.TemplateNAS)
	var class propertyClassFlag
	var date, propertyID string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a new appraisal file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			effective := time.Now().UTC()
			if date != "" {
				var err error
				if effective, err = time.Parse("2006-01-02", date); err != nil {
					return fmt.Errorf("invalid effective date %q: %w", date, err)
				}
			}
			a, err := app.Appraisals.Create(cmd.Context(), service.CreateAppraisalInput{
				TemplateType:  domain.TemplateType(tmpl),
				EffectiveDate: effective,
				PropertyID:    propertyID,
				PropertyType:  domain.PropertyClass(class),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created appraisal %s (%s, effective %s)\n",
				a.ID, a.TemplateType, a.EffectiveDate.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().Var(&tmpl, "template", "Template type: NAS, RPS, CUSTOM, AIC_FORM")
	cmd.Flags().StringVar(&date, "date", "", "Effective date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&propertyID, "property", "", "Property identifier (lot or roll number)")
	cmd.Flags().Var(&class, "class", "Property class: residential or semicommercial")
	return cmd
}

func newAppraisalListCmd(app *App) *cobra.Command {
	var status statusFlag
	var tmpl templateTypeFlag

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List appraisal files",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := app.Appraisals.List(cmd.Context(), service.ListFilter{
				Status:       domain.AppraisalStatus(status),
				TemplateType: domain.TemplateType(tmpl),
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatAppraisalList(list))
			return nil
		},
	}
	cmd.Flags().Var(&status, "status", "Only appraisals with this status")
	cmd.Flags().Var(&tmpl, "template", "Only appraisals using this template")
	return cmd
}

func newAppraisalShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an appraisal and its completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveAppraisalID(ctx, app, args[0])
			if err != nil {
				return err
			}
			a, err := app.Appraisals.Get(ctx, id)
			if err != nil {
				return err
			}
			report, err := app.Appraisals.CompletionReport(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatAppraisalDetail(a, report.Sections, report.Computed))
			return nil
		},
	}
}

func newAppraisalStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <draft|in_progress|completed|archived>",
		Short: "Change an appraisal's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var status statusFlag
			if err := status.Set(args[1]); err != nil {
				return fmt.Errorf("invalid status %q: %w", args[1], err)
			}
			id, err := resolveAppraisalID(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			if err := app.Appraisals.SetStatus(cmd.Context(), id, domain.AppraisalStatus(status)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Appraisal %s is now %s\n", shortID(id), formatter.StatusPill(domain.AppraisalStatus(status)))
			return nil
		},
	}
}

func newAppraisalDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an appraisal file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveAppraisalID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if !yes {
				if !app.interactive() {
					return fmt.Errorf("refusing to delete %s without --yes", shortID(id))
				}
				ok, err := app.confirm(fmt.Sprintf("Delete appraisal %s?", shortID(id)))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}
			app.Sessions.Discard(id)
			if err := app.Appraisals.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted appraisal %s\n", shortID(id))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newAppraisalImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import an appraisal from an interchange file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := importer.LoadFile(args[0])
			if err != nil {
				return err
			}
			a, err := app.Appraisals.Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported appraisal %s (%s, %d%% complete)\n",
				a.ID, a.TemplateType, a.CompletionPercentage)
			return nil
		},
	}
}

func newAppraisalExportCmd(app *App) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write an appraisal as an interchange file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveAppraisalID(ctx, app, args[0])
			if err != nil {
				return err
			}
			f, err := app.Appraisals.Export(ctx, id)
			if err != nil {
				return err
			}
			data, err := importer.Marshal(f)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.WriteFile(output, append(data, '\n'), 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported appraisal %s to %s\n", shortID(id), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}
