package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexanderramin/appraise/internal/adjustment"
	"github.com/alexanderramin/appraise/internal/cli/formatter"
	"github.com/alexanderramin/appraise/internal/domain"
	"github.com/alexanderramin/appraise/internal/editor"
)

// notesField is the free-text field the editor's inline input writes.
const notesField = "notes"

// ── messages ─────────────────────────────────────────────────────────────────

type savedMsg struct{ err error }

type syncedMsg struct {
	proj adjustment.Projection
	err  error
}

// refreshMsg re-renders the save indicators while timers fire in the
// background.
type refreshMsg struct{}

// ── keys ─────────────────────────────────────────────────────────────────────

type editorKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Edit   key.Binding
	Save   key.Binding
	Sync   key.Binding
	Quit   key.Binding
}

func defaultEditorKeys() editorKeyMap {
	return editorKeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle done")),
		Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "notes")),
		Save:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Sync:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "sync grid")),
		Quit:   key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "save & quit")),
	}
}

func (k editorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Edit, k.Save, k.Sync, k.Quit}
}

// ── model ────────────────────────────────────────────────────────────────────

// editorModel edits one appraisal's sections through a live session.
type editorModel struct {
	ctx     context.Context
	sess    *editor.Session
	keys    editorKeyMap
	refresh time.Duration

	rows   []string
	cursor int

	editing bool
	input   textinput.Model

	message  string
	err      error
	width    int
	quitting bool
}

// newEditorModel builds the model. A zero refresh disables the periodic
// redraw.
func newEditorModel(ctx context.Context, sess *editor.Session, refresh time.Duration) *editorModel {
	ti := textinput.New()
	ti.Prompt = "notes> "
	ti.CharLimit = 500
	ti.Cursor.SetMode(cursor.CursorStatic)

	m := &editorModel{
		ctx:     ctx,
		sess:    sess,
		keys:    defaultEditorKeys(),
		refresh: refresh,
		input:   ti,
		width:   80,
	}
	m.refreshRows()
	return m
}

// refreshRows lists the required sections in template order, then the
// optional ones present on the appraisal.
func (m *editorModel) refreshRows() {
	breakdown := m.sess.CompletionBreakdown()
	rows := make([]string, 0, len(breakdown))
	for _, s := range breakdown {
		rows = append(rows, s.SectionID)
	}
	rows = append(rows, formatter.OptionalSections(m.sess.Sections(), breakdown)...)
	m.rows = rows
	if m.cursor >= len(rows) {
		m.cursor = max(0, len(rows)-1)
	}
}

func (m *editorModel) selected() string {
	if m.cursor < len(m.rows) {
		return m.rows[m.cursor]
	}
	return ""
}

func (m *editorModel) tick() tea.Cmd {
	if m.refresh <= 0 {
		return nil
	}
	return tea.Tick(m.refresh, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m *editorModel) saveCmd() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		return savedMsg{err: sess.SaveNow(ctx)}
	}
}

func (m *editorModel) syncCmd() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		proj, err := sess.TriggerSync(ctx)
		return syncedMsg{proj: proj, err: err}
	}
}

// ── bubbletea interface ──────────────────────────────────────────────────────

func (m *editorModel) Init() tea.Cmd {
	return m.tick()
}

func (m *editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(20, msg.Width-10)
		return m, nil

	case refreshMsg:
		return m, m.tick()

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.quitting = false
			return m, nil
		}
		m.err = nil
		m.message = "Saved."
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil

	case syncedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.message = fmt.Sprintf("Synced %d comparable(s) into %s.", msg.proj.Matched, msg.proj.Target.Key)
		m.refreshRows()
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *editorModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.message = "Saving..."
		return m, m.saveCmd()
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		id := m.selected()
		if id == "" {
			return m, nil
		}
		done := m.sess.Sections()[id].Completed()
		if err := m.sess.UpdateSection(id, domain.SectionRecord{domain.CompletedField: !done}); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.message = ""
		m.refreshRows()
	case key.Matches(msg, m.keys.Edit):
		id := m.selected()
		if id == "" {
			return m, nil
		}
		current, _ := m.sess.Sections()[id][notesField].(string)
		m.input.SetValue(current)
		m.input.CursorEnd()
		m.editing = true
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Save):
		m.message = "Saving..."
		return m, m.saveCmd()
	case key.Matches(msg, m.keys.Sync):
		return m, m.syncCmd()
	}
	return m, nil
}

func (m *editorModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		id := m.selected()
		m.editing = false
		m.input.Blur()
		if err := m.sess.UpdateSection(id, domain.SectionRecord{notesField: m.input.Value()}); err != nil {
			m.err = err
			return m, nil
		}
		m.message = "Updated " + id + " notes."
		m.refreshRows()
		return m, nil
	case tea.KeyEsc:
		m.editing = false
		m.input.Blur()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ── view ─────────────────────────────────────────────────────────────────────

func (m *editorModel) View() string {
	a := m.sess.Appraisal()
	var b strings.Builder

	b.WriteString(formatter.Header(fmt.Sprintf("Appraisal %s", shortID(a.ID))))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s  %s\n\n", formatter.TemplateBadge(a.TemplateType), formatter.StatusPill(a.Status))
	fmt.Fprintf(&b, "Completion %s\n\n", formatter.RenderProgress(m.sess.Completion(), 30))

	sections := m.sess.Sections()
	required := make(map[string]bool)
	for _, id := range m.sess.RequiredSections() {
		required[id] = true
	}
	for i, id := range m.rows {
		pointer := "  "
		if i == m.cursor {
			pointer = formatter.Bold("> ")
		}
		rec, present := sections[id]
		mark := formatter.Dim("·")
		switch {
		case rec.Completed():
			mark = formatter.StyleGreen.Render("✔")
		case present:
			mark = formatter.StyleYellow.Render("○")
		}
		label := id
		if !required[id] {
			label += formatter.Dim(" (optional)")
		}
		fmt.Fprintf(&b, "%s%s %s", pointer, mark, label)
		if notes, _ := rec[notesField].(string); notes != "" {
			b.WriteString("  " + formatter.Dim(truncate(notes, 40)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(formatter.FormatSaveStatus(m.sess.Status()))

	if m.editing {
		b.WriteString("\n" + m.input.View() + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + formatter.StyleRed.Render("Error: "+m.err.Error()) + "\n")
	} else if m.message != "" {
		b.WriteString("\n" + m.message + "\n")
	}

	var hints []string
	for _, kb := range m.keys.ShortHelp() {
		hints = append(hints, formatter.Dim(kb.Help().Key+": "+kb.Help().Desc))
	}
	b.WriteString("\n" + strings.Join(hints, "  ") + "\n")
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
