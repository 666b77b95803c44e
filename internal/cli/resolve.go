package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/appraise/internal/editor"
	"github.com/alexanderramin/appraise/internal/service"
)

// resolveAppraisalID accepts a full id or an unambiguous prefix of one.
func resolveAppraisalID(ctx context.Context, app *App, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("appraisal ID is required")
	}
	list, err := app.Appraisals.List(ctx, service.ListFilter{})
	if err != nil {
		return "", err
	}

	var matches []string
	for _, a := range list {
		if a.ID == input {
			return a.ID, nil
		}
		if strings.HasPrefix(a.ID, input) {
			matches = append(matches, a.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("appraisal not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("appraisal ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

// withSession opens an editing session, applies fn and saves. A failing
// fn discards the session's edits.
func withSession(cmd *cobra.Command, app *App, input string, fn func(*editor.Session) error) error {
	ctx := cmd.Context()
	id, err := resolveAppraisalID(ctx, app, input)
	if err != nil {
		return err
	}
	sess, err := app.Sessions.Open(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(sess); err != nil {
		app.Sessions.Discard(id)
		return err
	}
	if err := app.Sessions.Close(ctx, id); err != nil {
		return fmt.Errorf("saving appraisal %s: %w", shortID(id), err)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
