package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"apnaghar/backend/app/dto"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	focusCity = iota
	focusArea
	focusTable
)

type SearchModel struct {
	Client *Client
	City   textinput.Model
	Area   textinput.Model
	Table  table.Model
	Rooms  []dto.RoomResponse
	Status string
	Err    error
	// Mine switches the table to the logged-in owner's rooms.
	Mine  bool
	focus int
}

type roomsLoadedMsg struct {
	Rooms []dto.RoomResponse
	Err   error
}

type actionDoneMsg struct {
	Status string
	Err    error
}

// loginRequestedMsg asks the root model for the login screen.
type loginRequestedMsg struct{}

func NewSearchModel(c *Client, height int) SearchModel {
	city := textinput.New()
	city.Prompt = "City: "
	city.Placeholder = "any"
	city.Width = 24
	area := textinput.New()
	area.Prompt = "Area: "
	area.Placeholder = "any"
	area.Width = 24

	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "City", Width: 18},
		{Title: "Area", Width: 18},
		{Title: "Rent", Width: 14},
		{Title: "Available", Width: 10},
		{Title: "Listed", Width: 16},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(tableHeight(height)),
	)
	sStyle := table.DefaultStyles()
	sStyle.Header = sStyle.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	sStyle.Selected = sStyle.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(sStyle)

	return SearchModel{Client: c, City: city, Area: area, Table: t, focus: focusTable}
}

func tableHeight(height int) int {
	if height <= 0 {
		return 12
	}
	if h := height - 12; h > 3 {
		return h
	}
	return 3
}

func (m SearchModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m SearchModel) loadCmd() tea.Cmd {
	c, city, area, mine := m.Client, m.City.Value(), m.Area.Value(), m.Mine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		var (
			rooms []dto.RoomResponse
			err   error
		)
		if mine {
			rooms, err = c.MyRooms(ctx)
		} else {
			rooms, err = c.Search(ctx, strings.TrimSpace(city), strings.TrimSpace(area))
		}
		return roomsLoadedMsg{Rooms: rooms, Err: err}
	}
}

func (m SearchModel) selected() (dto.RoomResponse, bool) {
	i := m.Table.Cursor()
	if i < 0 || i >= len(m.Rooms) {
		return dto.RoomResponse{}, false
	}
	return m.Rooms[i], true
}

func (m SearchModel) deleteCmd(room dto.RoomResponse) tea.Cmd {
	c := m.Client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := c.DeleteRoom(ctx, room.ID); err != nil {
			return actionDoneMsg{Err: err}
		}
		return actionDoneMsg{Status: fmt.Sprintf("Room %d deleted", room.ID)}
	}
}

func (m SearchModel) toggleCmd(room dto.RoomResponse) tea.Cmd {
	c := m.Client
	room.Available = !room.Available
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if _, err := c.UpdateRoom(ctx, room); err != nil {
			return actionDoneMsg{Err: err}
		}
		state := "hidden"
		if room.Available {
			state = "available"
		}
		return actionDoneMsg{Status: fmt.Sprintf("Room %d is now %s", room.ID, state)}
	}
}

func (m *SearchModel) setFocus(f int) {
	m.focus = f
	m.City.Blur()
	m.Area.Blur()
	m.Table.Blur()
	switch f {
	case focusCity:
		m.City.Focus()
	case focusArea:
		m.Area.Focus()
	default:
		m.Table.Focus()
	}
}

func (m SearchModel) Update(msg tea.Msg) (SearchModel, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case roomsLoadedMsg:
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.Err = nil
		m.Rooms = msg.Rooms
		m.Table.SetRows(roomRows(msg.Rooms))
		if m.Table.Cursor() >= len(msg.Rooms) {
			m.Table.SetCursor(0)
		}
		return m, nil

	case actionDoneMsg:
		m.Err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		m.Status = msg.Status
		return m, m.loadCmd()

	case tea.KeyMsg:
		if m.focus != focusTable {
			switch msg.Type {
			case tea.KeyEnter:
				m.Mine = false
				m.setFocus(focusTable)
				return m, m.loadCmd()
			case tea.KeyEsc:
				m.setFocus(focusTable)
				return m, nil
			case tea.KeyTab:
				m.setFocus((m.focus + 1) % 3)
				return m, nil
			case tea.KeyShiftTab:
				m.setFocus((m.focus + 2) % 3)
				return m, nil
			}
			if m.focus == focusCity {
				m.City, cmd = m.City.Update(msg)
			} else {
				m.Area, cmd = m.Area.Update(msg)
			}
			return m, cmd
		}

		switch msg.String() {
		case "/", "tab":
			m.setFocus(focusCity)
			return m, textinput.Blink
		case "shift+tab":
			m.setFocus(focusArea)
			return m, textinput.Blink
		case "r":
			return m, m.loadCmd()
		case "m":
			m.Mine = !m.Mine
			return m, m.loadCmd()
		case "l":
			return m, func() tea.Msg { return loginRequestedMsg{} }
		case "x":
			if room, ok := m.selected(); ok {
				return m, m.deleteCmd(room)
			}
			return m, nil
		case "t":
			if room, ok := m.selected(); ok {
				return m, m.toggleCmd(room)
			}
			return m, nil
		case "q":
			return m, tea.Quit
		}
	}

	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func roomRows(rooms []dto.RoomResponse) []table.Row {
	rows := make([]table.Row, 0, len(rooms))
	for _, r := range rooms {
		avail := "no"
		if r.Available {
			avail = "yes"
		}
		rows = append(rows, table.Row{
			strconv.FormatUint(uint64(r.ID), 10),
			r.City,
			r.Area,
			"₹" + humanize.CommafWithDigits(r.Rent, 2),
			avail,
			humanize.Time(r.CreatedAt),
		})
	}
	return rows
}

func (m SearchModel) View() string {
	var b strings.Builder
	title := "ApnaGhar - Available rooms"
	if m.Mine {
		title = "ApnaGhar - My rooms"
	}
	if user := m.Client.User(); user != "" {
		title += " (" + user + ")"
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")
	b.WriteString(m.City.View() + "   " + m.Area.View() + "\n\n")
	b.WriteString(m.Table.View())
	b.WriteString("\n\n")
	b.WriteString(blurredStyle.Render("/ search · r refresh · m my rooms · t toggle available · x delete · l login · q quit"))
	if m.Status != "" {
		b.WriteString("\n" + statusMessageStyle(m.Status))
	}
	if m.Err != nil {
		b.WriteString("\n" + errorMessageStyle(m.Err.Error()))
	}
	return docStyle.Render(b.String())
}
