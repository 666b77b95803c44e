package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/appraise/internal/adjustment"
	"github.com/alexanderramin/appraise/internal/cli/formatter"
	"github.com/alexanderramin/appraise/internal/domain"
	"github.com/alexanderramin/appraise/internal/editor"
)

func newAdjustCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Edit the sales-comparison adjustment grid",
	}
	cmd.AddCommand(
		newAdjustShowCmd(app),
		newAdjustUnitsCmd(app),
		newAdjustRateCmd(app),
		newAdjustSubjectCmd(app),
		newAdjustComparableCmd(app),
		newAdjustOverrideCmd(app),
		newAdjustSyncCmd(app),
	)
	return cmd
}

func parseCriterion(s string) (domain.Criterion, error) {
	spec, err := adjustment.Lookup(domain.Criterion(s))
	if err != nil {
		return "", err
	}
	return spec.Key, nil
}

func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// editAdjustments runs one engine operation inside a saved session and
// prints the resulting grid.
func editAdjustments(cmd *cobra.Command, app *App, input string, op func(*domain.AdjustmentDocument) (*domain.AdjustmentDocument, error)) error {
	return withSession(cmd, app, input, func(s *editor.Session) error {
		if err := s.EditAdjustments(op); err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.FormatAdjustmentGrid(s.Adjustments()))
		return nil
	})
}

func newAdjustShowCmd(app *App) *cobra.Command {
	var units measurementFlag
	cmd := &cobra.Command{
		Use:   "show <appraisal>",
		Short: "Show the adjustment grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := resolveAppraisalID(cmd.Context(), app, args[0])
			if err != nil {
				return err
			}
			a, err := app.Appraisals.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			doc := adjustment.Compute(a.Adjustments)
			if doc != nil && units != "" {
				doc.MeasurementSystem = domain.MeasurementSystem(units)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatAdjustmentGrid(doc))
			return nil
		},
	}
	cmd.Flags().Var(&units, "units", "Display units for this view: metric or imperial")
	return cmd
}

func newAdjustUnitsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "units <appraisal> <metric|imperial>",
		Short: "Set the display and entry units of the grid",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var units measurementFlag
			if err := units.Set(args[1]); err != nil {
				return err
			}
			return editAdjustments(cmd, app, args[0], func(doc *domain.AdjustmentDocument) (*domain.AdjustmentDocument, error) {
				doc.MeasurementSystem = domain.MeasurementSystem(units)
				return doc, nil
			})
		},
	}
}

func newAdjustRateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rate <appraisal> <criterion> <rate>",
		Short: "Set a criterion's default rate, in display units",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			crit, err := parseCriterion(args[1])
			if err != nil {
				return err
			}
			rate, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			return editAdjustments(cmd, app, args[0], func(doc *domain.AdjustmentDocument) (*domain.AdjustmentDocument, error) {
				return adjustment.SetRate(doc, crit, rate)
			})
		},
	}
}

func newAdjustSubjectCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "subject <appraisal> <criterion> <value>",
		Short: "Set the subject property's value for a criterion",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			crit, err := parseCriterion(args[1])
			if err != nil {
				return err
			}
			v, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			return editAdjustments(cmd, app, args[0], func(doc *domain.AdjustmentDocument) (*domain.AdjustmentDocument, error) {
				return adjustment.SetSubjectValue(doc, crit, v)
			})
		},
	}
}

func newAdjustComparableCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comparable",
		Aliases: []string{"comp"},
		Short:   "Manage comparable sales",
	}

	var price float64
	var saleDate, address string
	add := &cobra.Command{
		Use:   "add <appraisal> <comparable-id>",
		Short: "Add a comparable sale",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := domain.Comparable{ID: args[1], SalePrice: price, SaleDate: saleDate, Address: address}
			return editAdjustments(cmd, app, args[0], func(doc *domain.AdjustmentDocument) (*domain.AdjustmentDocument, error) {
				return adjustment.AddComparable(doc, c)
			})
		},
	}
	add.Flags().Float64Var(&price, "price", 0, "Sale price")
	add.Flags().StringVar(&saleDate, "date", "", "Sale date (YYYY-MM-DD)")
	add.Flags().StringVar(&address, "address", "", "Street address")
	_ = add.MarkFlagRequired("price")

	set := &cobra.Command{
		Use:   "set <appraisal> <comparable-id> <criterion> <value>",
		Short: "Set a comparable's value for a criterion",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			crit, err := parseCriterion(args[2])
			if err != nil {
				return err
			}
			v, err := parseAmount(args[3])
			if err != nil {
				return err
			}
			return editAdjustments(cmd, app, args[0], func(doc *domain.AdjustmentDocument) (*domain.AdjustmentDocument, error) {
				return adjustment.SetComparableValue(doc, args[1], crit, v)
			})
		},
	}

	remove := &cobra.Command{
		Use:     "remove <appraisal> <comparable-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a comparable sale",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editAdjustments(cmd, app, args[0], func(doc *domain.AdjustmentDocument) (*domain.AdjustmentDocument, error) {
				return adjustment.RemoveComparable(doc, args[1])
			})
		},
	}

	cmd.AddCommand(add, set, remove)
	return cmd
}

func newAdjustOverrideCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "override <appraisal> <comparable-id> <criterion> <amount|clear>",
		Short: "Pin a manual adjustment on one line",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			crit := domain.Criterion(args[2])
			var amount *float64
			if args[3] != "clear" {
				v, err := parseAmount(args[3])
				if err != nil {
					return err
				}
				amount = &v
			}
			return editAdjustments(cmd, app, args[0], func(doc *domain.AdjustmentDocument) (*domain.AdjustmentDocument, error) {
				return adjustment.SetOverride(doc, args[1], crit, amount)
			})
		},
	}
}

func newAdjustSyncCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "sync <appraisal>",
		Short: "Write comparable totals into the comparison section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, args[0], func(s *editor.Session) error {
				class := s.Appraisal().EffectivePropertyClass()
				if doc := s.Adjustments(); doc != nil && doc.PropertyType != "" {
					class = doc.PropertyType
				}
				target := adjustment.SelectActiveComparisonSection(s.Sections(), class)
				if !yes && target.Found() && app.interactive() {
					ok, err := app.confirm(fmt.Sprintf("Overwrite comparable totals in %s?", target.Key))
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
						return nil
					}
				}
				proj, err := s.TriggerSync(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSyncResult(proj))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
