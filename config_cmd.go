package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# catalog file or directory of clips (default: the "sounds" list below,
# or the built-in samples)
catalog: ""
# initial volume between 0 and 1
volume: 1.0
# start muted
muted: false
# load every clip on startup (TUI-mode only)
preload: false
preload_workers: 4
# prefix for relative clip paths, e.g. https://example.com
base_url: ""
# style name or JSON path for the help screen (default "auto")
style: "auto"
# include clips ignored by git when scanning a directory
all: false

audio:
  # 44100 or 48000
  sample_rate: 44100
  # device buffer in milliseconds (0 picks a platform default)
  buffer_ms: 0

load:
  # give up fetching and decoding a clip after this long (0 waits forever)
  timeout: 0s

http:
  timeout: 30s
  requests_per_minute: 120

# downloaded clips are kept on disk, zstd compressed
cache:
  disabled: false
  # dir: "~/.cache/soundboard/clips"
  # size in MB
  max_size: 256
  compression_level: 3

# sounds:
#   - name: Air Horn
#     file: sounds/airhorn.wav
#     key: q
#   - name: Drum
#     file: https://example.com/drum.ogg
#     key: "1"
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the soundboard config file",
	Long:    paragraph(fmt.Sprintf("\n%s the soundboard config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("soundboard config\nsoundboard config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Soundboard", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
