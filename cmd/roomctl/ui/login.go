package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type LoginModel struct {
	Client   *Client
	Inputs   []textinput.Model
	FocusIdx int
	Err      error
	busy     bool
}

const (
	inputUsername = iota
	inputPassword
)

type loginDoneMsg struct {
	User string
	Err  error
}

// backToSearchMsg leaves the login screen without logging in.
type backToSearchMsg struct{}

func NewLoginModel(c *Client) LoginModel {
	inputs := make([]textinput.Model, 2)

	inputs[inputUsername] = textinput.New()
	inputs[inputUsername].Placeholder = "alice"
	inputs[inputUsername].Prompt = "Username: "
	inputs[inputUsername].Focus()
	inputs[inputUsername].PromptStyle = focusedStyle

	inputs[inputPassword] = textinput.New()
	inputs[inputPassword].Placeholder = "password"
	inputs[inputPassword].EchoMode = textinput.EchoPassword
	inputs[inputPassword].Prompt = "Password: "

	return LoginModel{Client: c, Inputs: inputs}
}

func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m LoginModel) Update(msg tea.Msg) (LoginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			return m, func() tea.Msg { return backToSearchMsg{} }
		case tea.KeyEnter:
			if m.FocusIdx == len(m.Inputs)-1 {
				if m.busy {
					return m, nil
				}
				m.busy = true
				m.Err = nil
				return m, m.loginCmd(m.Inputs[inputUsername].Value(), m.Inputs[inputPassword].Value())
			}
			m.focus(m.FocusIdx + 1)
			return m, nil
		case tea.KeyTab, tea.KeyDown:
			m.focus(m.FocusIdx + 1)
			return m, nil
		case tea.KeyShiftTab, tea.KeyUp:
			m.focus(m.FocusIdx - 1)
			return m, nil
		}
	case loginDoneMsg:
		m.busy = false
		m.Err = msg.Err
		if msg.Err == nil {
			m.Inputs[inputPassword].SetValue("")
		}
		return m, nil
	}

	cmds := make([]tea.Cmd, len(m.Inputs))
	for i := range m.Inputs {
		m.Inputs[i], cmds[i] = m.Inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m *LoginModel) focus(idx int) {
	m.Inputs[m.FocusIdx].Blur()
	m.Inputs[m.FocusIdx].PromptStyle = blurredStyle
	m.FocusIdx = (idx + len(m.Inputs)) % len(m.Inputs)
	m.Inputs[m.FocusIdx].Focus()
	m.Inputs[m.FocusIdx].PromptStyle = focusedStyle
}

func (m LoginModel) loginCmd(username, password string) tea.Cmd {
	c := m.Client
	return func() tea.Msg {
		if strings.TrimSpace(username) == "" || password == "" {
			return loginDoneMsg{Err: fmt.Errorf("username and password are required")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := c.Login(ctx, username, password); err != nil {
			return loginDoneMsg{Err: err}
		}
		return loginDoneMsg{User: c.User()}
	}
}

func (m LoginModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ApnaGhar - Login") + "\n\n")

	for i := range m.Inputs {
		b.WriteString(m.Inputs[i].View())
		if i < len(m.Inputs)-1 {
			b.WriteRune('\n')
		}
	}

	b.WriteString("\n\n")
	if m.busy {
		b.WriteString(blurredStyle.Render("Logging in..."))
	} else {
		b.WriteString(blurredStyle.Render("Tab to change fields, Enter to submit, Esc to go back"))
	}

	if m.Err != nil {
		b.WriteString("\n\n")
		b.WriteString(errorMessageStyle(m.Err.Error()))
	}

	return docStyle.Render(b.String())
}
