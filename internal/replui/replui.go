// Package replui drives the interactive prompt: a bare line-at-a-time
// loop matching the specification's REPL contract (each line is compiled
// and run as a whole program, mirroring clox's fgets-then-interpret loop),
// with an optional full-screen Bubble Tea front end for interactive
// terminals that scrolls prior input/output and colors echoed source.
package replui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/xirelogy/corelox"
)

// ShouldUsePretty decides whether the full-screen front end applies:
// explicitly requested and stdout is an interactive terminal.
func ShouldUsePretty(pretty bool, stdoutFd uintptr) bool {
	return pretty && term.IsTerminal(int(stdoutFd))
}

// RunPlain implements the bare REPL contract: prompt "> ", read one line,
// interpret it as a whole program against v, print any diagnostics to
// stderr, repeat until EOF.
func RunPlain(v *corelox.VM, in io.Reader, out, errOut io.Writer) error {
	scanner := bufio.NewScanner(in)
	interactive := color.NoColor == false
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := v.Interpret(line); err != nil {
			msg := err.Error()
			if interactive {
				msg = color.RedString(msg)
			}
			fmt.Fprintln(errOut, msg)
		}
	}
}

// promptStyle / errorStyle / echoStyle color the full-screen REPL's chrome.
var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	echoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

type model struct {
	vm       *corelox.VM
	viewport viewport.Model
	input    string
	history  []string
	ready    bool
}

// RunPretty starts the full-screen Bubble Tea REPL. Blocks until the user
// quits (Ctrl+C or Ctrl+D on an empty line).
func RunPretty(v *corelox.VM) error {
	p := tea.NewProgram(&model{vm: v}, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-2)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 2
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyCtrlD:
			if m.input == "" {
				return m, tea.Quit
			}
			return m, nil
		case tea.KeyEnter:
			m.evaluate()
			return m, nil
		case tea.KeyBackspace:
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
			return m, nil
		case tea.KeyRunes:
			m.input += string(msg.Runes)
			return m, nil
		}
	}
	return m, nil
}

func (m *model) evaluate() {
	line := m.input
	m.input = ""
	if strings.TrimSpace(line) == "" {
		return
	}
	m.history = append(m.history, promptStyle.Render("> ")+echoStyle.Render(line))

	var out strings.Builder
	prev := m.vm
	err := interpretCapturing(prev, line, &out)
	if out.Len() > 0 {
		m.history = append(m.history, strings.TrimRight(out.String(), "\n"))
	}
	if err != nil {
		m.history = append(m.history, errorStyle.Render(err.Error()))
	}

	if m.ready {
		m.viewport.SetContent(strings.Join(m.history, "\n"))
		m.viewport.GotoBottom()
	}
}

// interpretCapturing lets the full-screen model show output inline in the
// scrollback instead of it going to the process's real stdout.
func interpretCapturing(v *corelox.VM, line string, out io.Writer) error {
	return v.InterpretCapturing(line, out)
}

func (m *model) View() string {
	if !m.ready {
		return "initializing...\n"
	}
	return m.viewport.View() + "\n" + promptStyle.Render("> ") + m.input
}
