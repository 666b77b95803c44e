package teatest

import (
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

type incMsg struct{}

type counter struct {
	n     int
	typed string
	width int
}

func (c counter) Init() tea.Cmd {
	return func() tea.Msg { return incMsg{} }
}

func (c counter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		c.width = msg.Width
	case incMsg:
		c.n++
	case tea.KeyMsg:
		switch msg.String() {
		case "+":
			return c, tea.Batch(
				func() tea.Msg { return incMsg{} },
				func() tea.Msg { return incMsg{} },
			)
		case "w":
			return c, tea.Tick(time.Hour, func(time.Time) tea.Msg { return incMsg{} })
		case "q":
			return c, tea.Quit
		default:
			c.typed += msg.String()
		}
	}
	return c, nil
}

func (c counter) View() string {
	return fmt.Sprintf("n=%d typed=%s width=%d", c.n, c.typed, c.width)
}

func TestDriverDrainsInitAndBatches(t *testing.T) {
	d := New(t, counter{}, WithSize(80, 24))
	d.DrainInit()
	assert.True(t, d.ViewContains("n=1"))
	assert.True(t, d.ViewContains("width=80"))

	d.PressKey('+')
	assert.True(t, d.ViewContains("n=3"))
}

func TestDriverDropsSlowCmds(t *testing.T) {
	d := New(t, counter{}, WithCmdTimeout(5*time.Millisecond))
	d.PressKey('w')
	assert.Equal(t, 1, d.Dropped())
	assert.True(t, d.ViewContains("n=0"))
}

func TestDriverQuitStopsInput(t *testing.T) {
	d := New(t, counter{})
	d.Type("ab")
	d.PressKey('q')
	assert.True(t, d.Quitting)

	d.Type("c")
	assert.Equal(t, "n=0 typed=ab width=0", d.View())
}
