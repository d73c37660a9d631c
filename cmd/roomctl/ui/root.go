package ui

import (
	"apnaghar/backend/app/events"

	tea "github.com/charmbracelet/bubbletea"
)

type state int

const (
	stateSearch state = iota
	stateLogin
)

type RootModel struct {
	State    state
	Session  *Session
	Search   SearchModel
	Login    LoginModel
	Quitting bool
	width    int
	height   int
}

func NewRootModel(s *Session) RootModel {
	return RootModel{
		State:   stateSearch,
		Session: s,
		Search:  NewSearchModel(s.Client, 0),
		Login:   NewLoginModel(s.Client),
	}
}

func (m RootModel) Init() tea.Cmd {
	return tea.Batch(m.Search.Init(), m.Session.WaitForMsg)
}

func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.Search.Table.SetHeight(tableHeight(msg.Height))
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.Quitting = true
			m.Session.Close()
			return m, tea.Quit
		}

	case MsgFromServer:
		// pushed events refresh the table whatever screen is showing
		cmds := []tea.Cmd{m.Session.WaitForMsg}
		if msg.Err != nil {
			m.Search.Err = msg.Err
		} else if msg.Event.Name == events.RoomUpdate {
			if text, ok := msg.Event.Payload["msg"].(string); ok {
				m.Search.Status = text
			}
			cmds = append(cmds, m.Search.loadCmd())
		}
		return m, tea.Batch(cmds...)

	case loginRequestedMsg:
		m.State = stateLogin
		m.Login = NewLoginModel(m.Session.Client)
		return m, m.Login.Init()

	case backToSearchMsg:
		m.State = stateSearch
		return m, nil

	case loginDoneMsg:
		var cmd tea.Cmd
		m.Login, cmd = m.Login.Update(msg)
		if msg.Err != nil {
			return m, cmd
		}
		m.State = stateSearch
		m.Search.Status = "Logged in as " + msg.User
		m.Search.Err = nil
		return m, m.Search.loadCmd()
	}

	var cmd tea.Cmd
	switch m.State {
	case stateLogin:
		m.Login, cmd = m.Login.Update(msg)
	default:
		m.Search, cmd = m.Search.Update(msg)
	}
	return m, cmd
}

func (m RootModel) View() string {
	if m.Quitting {
		return "Bye!\n"
	}
	if m.State == stateLogin {
		return m.Login.View()
	}
	return m.Search.View()
}
