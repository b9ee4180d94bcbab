// Command waltz is the terminal client.
//
// Configuration lives at the user config dir (codewaltz/config.json) and is
// created on first run; -server overrides the stored base URL. Credentials
// are taken from CODEWALTZ_EMAIL and CODEWALTZ_PASSWORD when set — without
// them the client browses anonymously, which still allows reading, liking,
// and sharing, but not authoring.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/codewaltz/codewaltz/internal/client"
	"github.com/codewaltz/codewaltz/tui/snippets"
)

func main() {
	server := flag.String("server", "", "server base URL (overrides config)")
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*server, *configPath); err != nil {
		fmt.Fprintln(os.Stderr, "waltz:", err)
		os.Exit(1)
	}
}

func run(server, configPath string) error {
	path := configPath
	if path == "" {
		p, err := client.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	cfg, err := client.LoadConfig(path)
	if err != nil {
		return err
	}
	if server != "" {
		cfg.BaseURL = server
	}

	c, err := client.New(cfg)
	if err != nil {
		return err
	}

	email := os.Getenv("CODEWALTZ_EMAIL")
	password := os.Getenv("CODEWALTZ_PASSWORD")
	if email != "" && password != "" {
		if _, err := c.Login(context.Background(), email, password); err != nil {
			fmt.Fprintln(os.Stderr, "waltz: login failed, continuing anonymously:", err)
		}
	}

	program := tea.NewProgram(snippets.New(c), tea.WithAltScreen())
	_, err = program.Run()
	return err
}
