package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sages-oracle/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sages-oracle/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sages-oracle/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sages-oracle/internal/adapters/driving/tui/views/chat"
)

// WindowTitle is set on the terminal when the TUI starts.
const WindowTitle = "Sage's Oracle"

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	// chatView is the only view.
	chatView *chat.View

	// quitting is set once a quit has been requested.
	quitting bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:    ports,
		ctx:      context.Background(),
		styles:   s,
		keymap:   km,
		chatView: chat.NewView(s, km, ports.Ask, ports.Options),
	}, nil
}

// WithContext sets the context for the app and its view.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle(WindowTitle),
		a.chatView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if keymap.Matches(msg.String(), a.keymap.Quit) {
			a.quitting = true
			return a, tea.Quit
		}
	case messages.Quit:
		a.quitting = true
		return a, tea.Quit
	}

	var cmd tea.Cmd
	a.chatView, cmd = a.chatView.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting {
		return ""
	}
	return a.chatView.View()
}

// ChatView returns the chat view.
func (a *App) ChatView() *chat.View {
	return a.chatView
}

// Quitting reports whether the app is shutting down.
func (a *App) Quitting() bool {
	return a.quitting
}
