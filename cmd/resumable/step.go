package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/resumable/host"
	"github.com/wippyai/resumable/machine"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// historyLimit bounds the produced values kept on screen.
const historyLimit = 12

type stepState int

const (
	stateInputArgs stepState = iota
	stateStepping
	stateDone
)

type stepModel struct {
	ctx     context.Context
	prog    *machine.Program
	m       *machine.Machine
	args    []any
	inputs  []textinput.Model
	resume  textinput.Model
	history []string
	result  string
	err     error
	focus   int
	state   stepState
}

type constructedMsg struct {
	m   *machine.Machine
	err error
}

type resumedMsg struct {
	value any
	err   error
	state uint8
	done  bool
}

func newStepModel(ctx context.Context, p *machine.Program, args []any) *stepModel {
	ri := textinput.New()
	ri.Prompt = "send: "
	ri.Placeholder = "nil"
	ri.Width = 40

	sm := &stepModel{ctx: ctx, prog: p, args: args, resume: ri}
	params := p.Descriptor().Params
	if len(args) > 0 || len(params) == 0 {
		sm.state = stateStepping
		return sm
	}
	sm.state = stateInputArgs
	sm.inputs = make([]textinput.Model, len(params))
	for i, prm := range params {
		ti := textinput.New()
		ti.Prompt = prm.Name + ": "
		ti.Placeholder = prm.Type.String()
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		sm.inputs[i] = ti
	}
	return sm
}

func (sm *stepModel) Init() tea.Cmd {
	if sm.state == stateStepping {
		return sm.construct
	}
	return textinput.Blink
}

// construct builds a fresh machine. Empty trailing inputs fall back to the
// parameter defaults.
func (sm *stepModel) construct() tea.Msg {
	args := sm.args
	if sm.inputs != nil {
		args = nil
		last := -1
		for i, in := range sm.inputs {
			if in.Value() != "" {
				last = i
			}
		}
		for _, in := range sm.inputs[:last+1] {
			args = append(args, parseValue(in.Value()))
		}
	}
	m, err := sm.prog.New(sm.ctx, args...)
	return constructedMsg{m: m, err: err}
}

func (sm *stepModel) send(arg any) tea.Cmd {
	m := sm.m
	return func() tea.Msg {
		v, err := m.Resume(sm.ctx, arg)
		return resumedMsg{value: v, err: err, state: m.State(), done: m.Done()}
	}
}

func (sm *stepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return sm, tea.Quit

		case "tab":
			if sm.state == stateInputArgs && len(sm.inputs) > 1 {
				sm.inputs[sm.focus].Blur()
				sm.focus = (sm.focus + 1) % len(sm.inputs)
				sm.inputs[sm.focus].Focus()
			}

		case "enter":
			switch sm.state {
			case stateInputArgs:
				return sm, sm.construct
			case stateStepping:
				if sm.m == nil {
					return sm, nil
				}
				var arg any
				if v := sm.resume.Value(); v != "" {
					arg = parseValue(v)
				}
				sm.resume.Reset()
				return sm, sm.send(arg)
			case stateDone:
				return sm, sm.restart()
			}

		case "ctrl+e":
			if sm.state == stateStepping && sm.m != nil {
				text := sm.resume.Value()
				if text == "" {
					text = "injected"
				}
				sm.resume.Reset()
				return sm, sm.send(&host.Error{Message: text})
			}

		case "ctrl+r":
			return sm, sm.restart()
		}

	case constructedMsg:
		if msg.err != nil {
			sm.err = msg.err
			sm.state = stateDone
			return sm, nil
		}
		sm.m = msg.m
		sm.state = stateStepping
		sm.resume.Focus()
		return sm, textinput.Blink

	case resumedMsg:
		if msg.err != nil {
			sm.err = msg.err
			sm.state = stateDone
			return sm, nil
		}
		if msg.done {
			sm.result = host.Format(msg.value)
			sm.state = stateDone
			return sm, nil
		}
		sm.history = append(sm.history, fmt.Sprintf("[%d] %s", msg.state, host.Format(msg.value)))
		if len(sm.history) > historyLimit {
			sm.history = sm.history[len(sm.history)-historyLimit:]
		}
		return sm, nil
	}

	var cmd tea.Cmd
	switch sm.state {
	case stateInputArgs:
		cmds := make([]tea.Cmd, len(sm.inputs))
		for i := range sm.inputs {
			sm.inputs[i], cmds[i] = sm.inputs[i].Update(msg)
		}
		cmd = tea.Batch(cmds...)
	case stateStepping:
		sm.resume, cmd = sm.resume.Update(msg)
	}
	return sm, cmd
}

func (sm *stepModel) restart() tea.Cmd {
	sm.m = nil
	sm.history = nil
	sm.result = ""
	sm.err = nil
	sm.state = stateStepping
	return sm.construct
}

func (sm *stepModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Resumable"))
	b.WriteString(" ")
	b.WriteString(sm.signature())
	b.WriteString("\n\n")

	switch sm.state {
	case stateInputArgs:
		b.WriteString("Constructor arguments:\n\n")
		for _, in := range sm.inputs {
			b.WriteString(in.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter start • empty fields use defaults • esc quit"))

	case stateStepping:
		if sm.m == nil {
			b.WriteString("Starting...")
			break
		}
		sm.viewMachine(&b)
		b.WriteString("\n")
		b.WriteString(sm.resume.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter resume • ctrl+e inject exception • ctrl+r restart • esc quit"))

	case stateDone:
		if sm.m != nil {
			sm.viewMachine(&b)
			b.WriteString("\n")
		}
		if sm.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", sm.err)))
		} else {
			b.WriteString(resultStyle.Render("=> " + sm.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter restart • esc quit"))
	}
	return b.String()
}

func (sm *stepModel) viewMachine(b *strings.Builder) {
	fmt.Fprintf(b, "state %s\n\n", typeStyle.Render(fmt.Sprintf("%d", sm.m.State())))
	for _, h := range sm.history {
		b.WriteString(valueStyle.Render(h))
		b.WriteString("\n")
	}
	if len(sm.history) > 0 {
		b.WriteString("\n")
	}
	for _, f := range sm.prog.Descriptor().Slots {
		v, _ := sm.m.Slot(f.Name)
		fmt.Fprintf(b, "  %s %s = %s\n", f.Name, typeStyle.Render(f.Type.String()), host.Format(v))
	}
}

func (sm *stepModel) signature() string {
	d := sm.prog.Descriptor()
	params := make([]string, len(d.Params))
	for i, p := range d.Params {
		params[i] = p.Name + " " + typeStyle.Render(p.Type.String())
	}
	sig := funcStyle.Render(d.Name) + "(" + strings.Join(params, ", ") + ")"
	if d.Result != nil {
		sig += " " + typeStyle.Render(d.Result.String())
	}
	return sig
}

func runStepper(ctx context.Context, p *machine.Program, args []any) error {
	prog := tea.NewProgram(newStepModel(ctx, p, args), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := prog.Run()
	return err
}
