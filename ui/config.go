package ui

import "time"

// Config contains TUI-specific configuration.
type Config struct {
	GlamourStyle string `env:"GLAMOUR_STYLE"`

	// Catalog file to watch for changes. Empty disables reloading.
	CatalogPath string

	// Preload fetches and decodes every clip on startup.
	Preload        bool
	PreloadWorkers int

	// For debugging the UI
	ReleaseDelay time.Duration `env:"SOUNDBOARD_KEY_RELEASE_DELAY" envDefault:"500ms"`
	AltScreen    bool          `env:"SOUNDBOARD_ALT_SCREEN"        envDefault:"true"`
	ButtonWidth  int           `env:"SOUNDBOARD_BUTTON_WIDTH"      envDefault:"18"`
}
