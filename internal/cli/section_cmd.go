package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/alexanderramin/appraise/internal/cli/formatter"
	"github.com/alexanderramin/appraise/internal/domain"
	"github.com/alexanderramin/appraise/internal/editor"
)

func newSectionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "section",
		Short: "Edit appraisal sections",
	}
	cmd.AddCommand(newSectionSetCmd(app), newSectionListCmd(app))
	return cmd
}

func newSectionSetCmd(app *App) *cobra.Command {
	var payloadJSON string
	var completed, pending bool

	cmd := &cobra.Command{
		Use:   "set <appraisal> <section> [field=value ...]",
		Short: "Merge fields into a section",
		Long: `Merge fields into a section. Values are read as booleans or numbers
when they parse as such, otherwise as strings. --json merges a whole object.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := parseSectionPayload(args[2:], payloadJSON)
			if err != nil {
				return err
			}
			if completed && pending {
				return fmt.Errorf("--completed and --pending are mutually exclusive")
			}
			if completed || pending {
				payload[domain.CompletedField] = completed
			}
			if len(payload) == 0 {
				return fmt.Errorf("nothing to set")
			}
			return withSession(cmd, app, args[0], func(s *editor.Session) error {
				if err := s.UpdateSection(args[1], payload); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%d field(s)), completion %s\n",
					args[1], len(payload), formatter.RenderProgress(s.Completion(), 10))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&payloadJSON, "json", "", "JSON object to merge into the section")
	cmd.Flags().BoolVar(&completed, "completed", false, "Mark the section completed")
	cmd.Flags().BoolVar(&pending, "pending", false, "Mark the section not completed")
	return cmd
}

func newSectionListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <appraisal>",
		Short: "List sections with their completion state",
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
			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatSectionList(report.Sections, formatter.OptionalSections(a.Sections, report.Sections)))
			fmt.Fprintf(out, "\n%s %s\n", formatter.Dim("Completion"), formatter.RenderProgress(report.Computed, 20))
			return nil
		},
	}
}

// parseSectionPayload builds a payload from field=value pairs laid over an
// optional JSON object.
func parseSectionPayload(pairs []string, raw string) (domain.SectionRecord, error) {
	payload := domain.SectionRecord{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return nil, fmt.Errorf("invalid --json: %w", err)
		}
		if payload == nil {
			payload = domain.SectionRecord{}
		}
	}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("expected field=value, got %q", pair)
		}
		payload[k] = parseScalar(v)
	}
	return payload, nil
}

func parseScalar(s string) any {
	if s == "true" || s == "false" {
		return s == "true"
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
