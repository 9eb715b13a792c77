package commands

import (
	"github.com/atotto/clipboard"

	"github.com/bizcopilot/copilot/internal/api"
	"github.com/bizcopilot/copilot/internal/config"
	"github.com/bizcopilot/copilot/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(cfg tui.ChatConfig) error
	RunConfig(cfg config.Config, configPath string) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// Client replaces the backend gateway. Nil builds one from config.
	Client api.ClientInterface

	// TUI is the terminal user interface.
	TUI TUIInterface

	// LoadConfig and SaveConfig replace the config file access.
	LoadConfig func() (config.Config, error)
	SaveConfig func(config.Config) error

	// Copy writes to the system clipboard.
	Copy func(string) error

	// NoLogFile keeps the logger in memory, for tests.
	NoLogFile bool
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(cfg tui.ChatConfig) error {
	return tui.RunChat(cfg)
}

func (d *DefaultTUI) RunConfig(cfg config.Config, configPath string) error {
	return tui.RunConfig(cfg, configPath)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI:        &DefaultTUI{},
		LoadConfig: config.LoadConfig,
		SaveConfig: config.SaveConfig,
		Copy:       clipboard.WriteAll,
	}
}

// withDefaults fills unset fields of deps with the production implementations
func withDefaults(deps *Dependencies) *Dependencies {
	def := NewDependencies()
	if deps == nil {
		return def
	}
	out := *deps
	if out.TUI == nil {
		out.TUI = def.TUI
	}
	if out.LoadConfig == nil {
		out.LoadConfig = def.LoadConfig
	}
	if out.SaveConfig == nil {
		out.SaveConfig = def.SaveConfig
	}
	if out.Copy == nil {
		out.Copy = def.Copy
	}
	return &out
}
