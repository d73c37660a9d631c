package ui

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"apnaghar/backend/app/dto"
	"apnaghar/backend/app/events"

	tea "github.com/charmbracelet/bubbletea"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// Client talks to the JSON side of the site. The token is kept in
// TokenFile between runs.
type Client struct {
	BaseURL   string
	TokenFile string
	HTTP      *http.Client

	mu    sync.Mutex
	token string
	user  string
}

func NewClient(baseURL, tokenFile string) *Client {
	c := &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		TokenFile: tokenFile,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
	}
	if tokenFile != "" {
		if b, err := os.ReadFile(tokenFile); err == nil {
			c.token = strings.TrimSpace(string(b))
		}
	}
	return c
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// User is the name logged in during this run, if any.
func (c *Client) User() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

func (c *Client) setToken(token, user string) error {
	c.mu.Lock()
	c.token, c.user = token, user
	c.mu.Unlock()
	if c.TokenFile == "" {
		return nil
	}
	if token == "" {
		if err := os.Remove(c.TokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.TokenFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(c.TokenFile, []byte(token+"\n"), 0o600)
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var e dto.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	var tok dto.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/login", url.Values{"username": {username}, "password": {password}}, &tok); err != nil {
		return err
	}
	return c.setToken(tok.AccessToken, tok.User.Username)
}

// Logout ends the session on the server and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/logout", url.Values{}, nil)
	if ferr := c.setToken("", ""); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func (c *Client) Search(ctx context.Context, city, area string) ([]dto.RoomResponse, error) {
	q := url.Values{}
	if city != "" {
		q.Set("city", city)
	}
	if area != "" {
		q.Set("area", area)
	}
	var list dto.RoomListResponse
	if err := c.do(ctx, http.MethodGet, "/search?"+q.Encode(), nil, &list); err != nil {
		return nil, err
	}
	return list.Rooms, nil
}

// MyRooms lists the logged-in owner's rooms, hidden ones included.
func (c *Client) MyRooms(ctx context.Context) ([]dto.RoomResponse, error) {
	var list dto.RoomListResponse
	if err := c.do(ctx, http.MethodGet, "/my_rooms", nil, &list); err != nil {
		return nil, err
	}
	return list.Rooms, nil
}

// UpdateRoom overwrites the editable fields of room with its current values.
func (c *Client) UpdateRoom(ctx context.Context, room dto.RoomResponse) (*dto.RoomResponse, error) {
	form := url.Values{
		"city": {room.City},
		"area": {room.Area},
		"rent": {strconv.FormatFloat(room.Rent, 'f', -1, 64)},
	}
	if room.Available {
		form.Set("available", "on")
	}
	var res dto.RoomMutationResponse
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/edit_room/%d", room.ID), form, &res); err != nil {
		return nil, err
	}
	return res.Room, nil
}

func (c *Client) DeleteRoom(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/delete_room/%d", id), url.Values{}, nil)
}

// Subscribe reads the server's event stream until ctx is done or the stream
// breaks, calling fn for every event.
func (c *Client) Subscribe(ctx context.Context, fn func(events.Event)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	// the stream outlives any request timeout
	resp, err := (&http.Client{Transport: c.HTTP.Transport}).Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Message: "event stream unavailable"}
	}

	sc := bufio.NewScanner(resp.Body)
	var data strings.Builder
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if data.Len() > 0 {
				var e events.Event
				if err := json.Unmarshal([]byte(data.String()), &e); err == nil {
					fn(e)
				}
				data.Reset()
			}
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}

// MsgFromServer wraps a pushed event for the Bubble Tea loop.
type MsgFromServer struct {
	Event events.Event
	Err   error
}

// Session feeds server events into the program.
type Session struct {
	Client  *Client
	MsgChan chan tea.Msg
	cancel  context.CancelFunc
}

func NewSession(c *Client) *Session {
	return &Session{Client: c, MsgChan: make(chan tea.Msg, 8)}
}

// Start follows the event stream in the background, reconnecting after
// failures.
func (s *Session) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		delay := time.Second
		for {
			err := s.Client.Subscribe(ctx, func(e events.Event) {
				delay = time.Second
				select {
				case s.MsgChan <- MsgFromServer{Event: e}:
				case <-ctx.Done():
				}
			})
			if ctx.Err() != nil {
				return
			}
			select {
			case s.MsgChan <- MsgFromServer{Err: fmt.Errorf("event stream: %w", err)}:
			default:
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			if delay < 30*time.Second {
				delay *= 2
			}
		}
	}()
}

func (s *Session) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}

// WaitForMsg is a tea.Cmd that waits for the next message from the channel
func (s *Session) WaitForMsg() tea.Msg {
	return <-s.MsgChan
}
