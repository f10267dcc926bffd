package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/heapview/collections"
	"github.com/wippyai/heapview/remote"
	"github.com/wippyai/heapview/snapshot"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateRoots modelState = iota
	stateObject
	stateQuery
)

type interactiveModel struct {
	err      error
	queryErr error
	img      *snapshot.Image
	heap     *remote.Heap
	filename string
	result   string
	roots    []string
	stack    []remote.Object
	rows     []row
	input    textinput.Model
	selected int
	state    modelState
}

func newInteractiveModel(filename string) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "_hp|hp:i32"
	ti.Prompt = "field: "
	ti.Width = 40
	return &interactiveModel{
		filename: filename,
		input:    ti,
		state:    stateRoots,
	}
}

type loadedMsg struct {
	err error
	img *snapshot.Image
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadImage
}

func (m *interactiveModel) loadImage() tea.Msg {
	img, err := snapshot.Open(context.Background(), m.filename)
	return loadedMsg{img: img, err: err}
}

func (m *interactiveModel) current() remote.Object {
	if len(m.stack) == 0 {
		return m.heap.Null()
	}
	return m.stack[len(m.stack)-1]
}

// open pushes obj and rebuilds the row list for it.
func (m *interactiveModel) open(obj remote.Object) {
	m.stack = append(m.stack, obj)
	m.refresh()
	m.state = stateObject
}

func (m *interactiveModel) refresh() {
	obj := m.current()
	m.rows = append(fieldRows(m.img, obj), elementRows(obj)...)
	m.selected = 0
}

func (m *interactiveModel) back() {
	if len(m.stack) > 0 {
		m.stack = m.stack[:len(m.stack)-1]
	}
	if len(m.stack) == 0 {
		m.state = stateRoots
		m.rows = nil
		m.selected = 0
		return
	}
	m.refresh()
}

func (m *interactiveModel) itemCount() int {
	if m.state == stateRoots {
		return len(m.roots)
	}
	return len(m.rows)
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.img = msg.img
		m.heap = msg.img.Heap()
		m.roots = msg.img.RootNames()
		return m, nil

	case tea.KeyMsg:
		if m.state == stateQuery {
			return m.updateQuery(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			if m.img != nil {
				m.img.Close(context.Background())
			}
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < m.itemCount()-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateRoots:
				if m.selected < len(m.roots) {
					addr, _ := m.img.Root(m.roots[m.selected])
					m.open(m.heap.Object(addr))
				}
			case stateObject:
				if m.selected < len(m.rows) && m.rows[m.selected].followable() {
					m.open(m.rows[m.selected].target)
				}
			}

		case "esc", "backspace":
			if m.state == stateObject {
				m.back()
			}

		case "r":
			if m.state == stateObject {
				m.refresh()
			}

		case "/":
			if m.state == stateObject {
				m.state = stateQuery
				m.input.SetValue("")
				m.input.Focus()
				return m, textinput.Blink
			}
		}
		return m, nil
	}

	if m.state == stateQuery {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) updateQuery(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.Blur()
		m.state = stateObject
		return m, nil
	case "enter":
		m.result, m.queryErr = m.query(m.input.Value())
		m.input.Blur()
		m.state = stateObject
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// query reads "field[:kind]" from the current object.
func (m *interactiveModel) query(expr string) (string, error) {
	sel, kindStr, ok := strings.Cut(strings.TrimSpace(expr), ":")
	if !ok {
		kindStr = "i32"
	}
	f, err := remote.ParseField(sel)
	if err != nil {
		return "", err
	}
	kind, err := remote.ParseKind(kindStr)
	if err != nil {
		return "", err
	}
	v, err := m.current().TryRead(f, kind)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s = %s", f, v), nil
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.img == nil {
		return "Loading heap image..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Heap View"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	if m.state == stateRoots {
		b.WriteString("Select a root:\n\n")
		for i, name := range m.roots {
			line := fmt.Sprintf("%s  0x%x", nameStyle.Render(name), m.img.Roots[name])
			m.writeItem(&b, i, line)
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter open • q quit"))
		return b.String()
	}

	obj := m.current()
	b.WriteString(fmt.Sprintf("%s  depth %d", nameStyle.Render(obj.String()), len(m.stack)))
	if n := collections.CountOf(obj); n > 0 {
		b.WriteString(typeStyle.Render(fmt.Sprintf("  count %d", n)))
	}
	b.WriteString("\n\n")
	if len(m.rows) == 0 {
		b.WriteString(helpStyle.Render("  no known fields"))
		b.WriteString("\n")
	}
	for i, r := range m.rows {
		line := fmt.Sprintf("%-24s %s %s", r.name, typeStyle.Render(fmt.Sprintf("%-16s", r.typ)), r.value)
		if r.followable() {
			line += " →"
		}
		m.writeItem(&b, i, line)
	}

	b.WriteString("\n")
	switch {
	case m.state == stateQuery:
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter read • esc cancel"))
		return b.String()
	case m.queryErr != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.queryErr)))
		b.WriteString("\n\n")
	case m.result != "":
		b.WriteString(resultStyle.Render(m.result))
		b.WriteString("\n\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ select • enter follow • esc back • / read field • r refresh • q quit"))
	return b.String()
}

func (m *interactiveModel) writeItem(b *strings.Builder, i int, line string) {
	if i == m.selected {
		b.WriteString(selectedStyle.Render("> " + line))
	} else {
		b.WriteString("  " + line)
	}
	b.WriteString("\n")
}

func runInteractive(filename string) error {
	p := tea.NewProgram(newInteractiveModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
