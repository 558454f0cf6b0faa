package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/puyokura/philoterm/api"
	"github.com/puyokura/philoterm/auth"
)

func main() {
	server := flag.String("server", "", "backend base URL (overrides config)")
	sessionID := flag.String("session", "", "open this chat session directly")
	flag.Parse()

	if os.Getenv("PHILOTERM_DEBUG") != "" {
		f, err := tea.LogToFile("philoterm.log", "debug")
		if err != nil {
			fmt.Println("fatal:", err)
			os.Exit(1)
		}
		defer f.Close()
	}

	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	dir := filepath.Join(home, ".philoterm")

	cfg, err := loadConfig(dir)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.ServerURL = *server
	}

	client := api.New(cfg.ServerURL)

	store, err := auth.NewStore(dir)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
	mgr := auth.NewManager(client, store)
	// Restore saved credentials before the first routing decision so the
	// guard never sees auth state mid-load.
	mgr.Restore()

	initial := route{kind: screenDashboard}
	if *sessionID != "" {
		initial = route{kind: screenChat, sessionID: *sessionID}
	}

	p := tea.NewProgram(newApp(client, mgr, initial), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
