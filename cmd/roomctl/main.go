package main

import (
	"fmt"
	"os"
	"path/filepath"

	"apnaghar/cmd/roomctl/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
)

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "apnaghar", "token")
}

func main() {
	server := pflag.StringP("server", "s", "http://127.0.0.1:5000", "base URL of the apnaghar server")
	tokenFile := pflag.String("token-file", defaultTokenFile(), "where the session token is kept between runs")
	pflag.Parse()

	client := ui.NewClient(*server, *tokenFile)
	session := ui.NewSession(client)
	session.Start()
	defer session.Close()

	p := tea.NewProgram(ui.NewRootModel(session), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "roomctl:", err)
		os.Exit(1)
	}
}
