package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	argon2engine "github.com/wippyai/argon2-engine"
	"github.com/wippyai/argon2-engine/hasher"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateInputParams modelState = iota
	stateHashing
	stateShowResult
)

// Field order in the input form.
const (
	fieldPassword = iota
	fieldSalt
	fieldTime
	fieldMemory
	fieldParallelism
	fieldLength
	fieldVariant
	fieldCount
)

type interactiveModel struct {
	ctx      context.Context
	inputs   []textinput.Model
	focusIdx int
	state    modelState
	result   *argon2engine.HashResult
	err      error
}

type hashDoneMsg struct {
	result *argon2engine.HashResult
	err    error
}

func newInteractiveModel(ctx context.Context) *interactiveModel {
	m := &interactiveModel{
		ctx:    ctx,
		inputs: make([]textinput.Model, fieldCount),
		state:  stateInputParams,
	}

	labels := [fieldCount]struct {
		prompt      string
		placeholder string
	}{
		fieldPassword:    {"password: ", "secret"},
		fieldSalt:        {"salt: ", "at least 8 bytes"},
		fieldTime:        {"time cost: ", strconv.Itoa(int(argon2engine.DefaultTimeCost))},
		fieldMemory:      {"memory KiB: ", strconv.Itoa(int(argon2engine.DefaultMemoryCostKiB))},
		fieldParallelism: {"parallelism: ", strconv.Itoa(int(argon2engine.DefaultParallelism))},
		fieldLength:      {"hash length: ", strconv.Itoa(int(argon2engine.DefaultHashLength))},
		fieldVariant:     {"variant: ", "argon2d"},
	}
	for i, l := range labels {
		ti := textinput.New()
		ti.Prompt = l.prompt
		ti.Placeholder = l.placeholder
		ti.Width = 40
		if i == fieldPassword {
			ti.EchoMode = textinput.EchoPassword
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputParams {
				return m, tea.Quit
			}

		case "tab", "shift+tab", "down", "up":
			if m.state == stateInputParams {
				m.inputs[m.focusIdx].Blur()
				if msg.String() == "shift+tab" || msg.String() == "up" {
					m.focusIdx = (m.focusIdx + fieldCount - 1) % fieldCount
				} else {
					m.focusIdx = (m.focusIdx + 1) % fieldCount
				}
				m.inputs[m.focusIdx].Focus()
				return m, nil
			}

		case "enter":
			switch m.state {
			case stateInputParams:
				m.state = stateHashing
				return m, m.runHash

			case stateShowResult:
				m.state = stateInputParams
				m.result = nil
				m.err = nil
			}

		case "esc":
			if m.state == stateShowResult {
				m.state = stateInputParams
				m.result = nil
				m.err = nil
			}
		}

	case hashDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputParams {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) runHash() tea.Msg {
	params, err := m.collectParams()
	if err != nil {
		return hashDoneMsg{err: err}
	}
	res, err := hasher.Hash(m.ctx, params)
	return hashDoneMsg{result: res, err: err}
}

func (m *interactiveModel) collectParams() (argon2engine.HashParams, error) {
	var p argon2engine.HashParams
	p.Password = []byte(m.inputs[fieldPassword].Value())
	p.Salt = []byte(m.inputs[fieldSalt].Value())

	for _, f := range []struct {
		field int
		dst   *uint32
	}{
		{fieldTime, &p.TimeCost},
		{fieldMemory, &p.MemoryCostKiB},
		{fieldParallelism, &p.Parallelism},
		{fieldLength, &p.HashLength},
	} {
		raw := m.inputs[f.field].Value()
		if raw == "" {
			continue // hasher fills the default
		}
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return p, fmt.Errorf("%s%q is not a number", m.inputs[f.field].Prompt, raw)
		}
		*f.dst = uint32(v)
	}

	if raw := m.inputs[fieldVariant].Value(); raw != "" {
		variant, err := parseVariant(raw)
		if err != nil {
			return p, err
		}
		p.Variant = variant
	}
	return p, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Argon2"))
	b.WriteString("\n\n")

	switch m.state {
	case stateInputParams:
		for i := range m.inputs {
			b.WriteString(m.inputs[i].View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter hash • ctrl+c quit"))

	case stateHashing:
		b.WriteString("Hashing...")

	case stateShowResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(labelStyle.Render("Hex:     "))
			b.WriteString(resultStyle.Render(m.result.HexHash))
			b.WriteString("\n")
			b.WriteString(labelStyle.Render("Encoded: "))
			b.WriteString(resultStyle.Render(m.result.Encoded))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter again • q quit"))
	}

	return b.String()
}

func runInteractive(ctx context.Context) error {
	p := tea.NewProgram(newInteractiveModel(ctx), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
