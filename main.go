// Package main provides the entry point for the soundboard CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/soundboard/internal/audio"
	"github.com/dgnsrekt/soundboard/internal/board"
	"github.com/dgnsrekt/soundboard/internal/cache"
	"github.com/dgnsrekt/soundboard/internal/catalog"
	"github.com/dgnsrekt/soundboard/internal/decode"
	"github.com/dgnsrekt/soundboard/internal/fetch"
	"github.com/dgnsrekt/soundboard/internal/status"
	"github.com/dgnsrekt/soundboard/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile   string
	style        string
	showAllFiles bool
	preload      bool

	rootCmd = &cobra.Command{
		Use:   "soundboard [CATALOG|DIR]",
		Short: "Play sound clips from your keyboard",
		Long: paragraph(
			fmt.Sprintf("\nA soundboard for the terminal. %s to play it.", keyword("Press a clip's key")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// soundSet is a resolved catalog plus where its relative paths live.
type soundSet struct {
	sounds  []catalog.Sound
	baseDir string
	// watch is the catalog file to reload on change, if any.
	watch string
}

// validateStyle checks if the style is a default style, if not, checks that
// the custom style exists.
func validateStyle(style string) error {
	if style != "auto" && styles.DefaultStyles[style] == nil {
		expanded, err := homedir.Expand(style)
		if err != nil {
			return fmt.Errorf("unable to expand style path: %w", err)
		}
		if _, err := os.Stat(expanded); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("specified style does not exist: %s", style)
		} else if err != nil {
			return fmt.Errorf("unable to stat file: %w", err)
		}
	}
	return nil
}

func validateOptions(cmd *cobra.Command) error {
	// grab config values from Viper
	showAllFiles = viper.GetBool("all")
	preload = viper.GetBool("preload")

	if v := viper.GetFloat64("volume"); v < 0 || v > 1 {
		return fmt.Errorf("volume must be between 0 and 1, got %.2f", v)
	}
	if err := audioConfig().Validate(); err != nil {
		return fmt.Errorf("invalid audio config: %w", err)
	}
	if d := viper.GetDuration("load.timeout"); d < 0 {
		return fmt.Errorf("load timeout must not be negative, got %v", d)
	}
	if n := viper.GetInt("cache.max_size"); n < 1 || n > 10000 {
		return fmt.Errorf("cache max_size must be between 1 and 10000 MB, got %d", n)
	}

	// validate the glamour style
	style = viper.GetString("style")
	if err := validateStyle(style); err != nil {
		return err
	}

	// We want to use a special no-TTY style, when stdout is not a terminal
	// and there was no specific style passed by arg
	if !term.IsTerminal(int(os.Stdout.Fd())) && !cmd.Flags().Changed("style") {
		style = "notty"
	}
	return nil
}

func audioConfig() audio.Config {
	cfg := audio.DefaultConfig()
	cfg.SampleRate = viper.GetInt("audio.sample_rate")
	cfg.BufferSize = time.Duration(viper.GetInt("audio.buffer_ms")) * time.Millisecond
	if viper.GetBool("audio.mock") {
		cfg.Mock = true
	}
	return cfg
}

// resolveSounds picks the catalog: an explicit file or directory argument,
// then the configured catalog file, then inline sounds, then the samples.
func resolveSounds(arg string) (soundSet, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return soundSet{}, fmt.Errorf("unable to get working directory: %w", err)
	}

	path := arg
	if path == "" {
		path = viper.GetString("catalog")
	}

	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return soundSet{}, fmt.Errorf("unable to expand path: %w", err)
		}
		info, err := os.Stat(expanded)
		if err != nil {
			return soundSet{}, fmt.Errorf("unable to open catalog: %w", err)
		}
		if info.IsDir() {
			sounds, err := catalog.Discover(expanded, showAllFiles)
			if err != nil {
				return soundSet{}, err
			}
			return soundSet{sounds: sounds, baseDir: expanded}, nil
		}

		sounds, err := catalog.Load(expanded)
		if err != nil {
			return soundSet{}, err
		}
		warnCatalog(sounds)
		return soundSet{sounds: sounds, baseDir: filepath.Dir(expanded), watch: expanded}, nil
	}

	sounds, err := catalog.FromConfig(viper.GetViper())
	if errors.Is(err, catalog.ErrEmpty) {
		log.Debug("no catalog configured, using samples")
		return soundSet{sounds: catalog.Default(), baseDir: cwd}, nil
	}
	if err != nil {
		return soundSet{}, err
	}
	warnCatalog(sounds)
	return soundSet{sounds: sounds, baseDir: cwd}, nil
}

func warnCatalog(sounds []catalog.Sound) {
	if err := catalog.Validate(sounds); err != nil {
		log.Warn("Catalog has problems", "error", err)
	}
}

// newEngine wires the audio context, transports and decoder into an engine.
// The returned func releases the disk cache.
func newEngine(baseDir string) (*board.Engine, func() error, error) {
	audioCfg := audioConfig()

	var remote fetch.Transport = fetch.NewHTTP(fetch.HTTPConfig{
		Timeout:           viper.GetDuration("http.timeout"),
		RequestsPerMinute: viper.GetInt("http.requests_per_minute"),
		UserAgent:         "soundboard/" + Version,
	})

	closer := func() error { return nil }
	if !viper.GetBool("cache.disabled") {
		dir, err := cacheDir()
		if err != nil {
			return nil, nil, err
		}
		cfg := cache.DefaultConfig(dir)
		cfg.Capacity = viper.GetInt64("cache.max_size") * 1024 * 1024
		cfg.CompressionLevel = viper.GetInt("cache.compression_level")

		dc, err := cache.NewDiskCache(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open clip cache: %w", err)
		}
		log.Debug("clip cache opened", "dir", dir, "entries", dc.Stats().ItemCount)
		remote = fetch.Caching{Next: remote, Cache: dc}
		closer = dc.Close
	}

	tracker := status.NewTracker()
	tracker.SetVolume(viper.GetFloat64("volume"))
	tracker.SetMuted(viper.GetBool("muted"))

	engine, err := board.NewEngine(board.Config{
		Manager: audio.NewManager(audioCfg),
		Transport: fetch.Router{
			Local:   fetch.File{BaseDir: baseDir},
			Remote:  remote,
			BaseURL: viper.GetString("base_url"),
		},
		Decoder:     decode.NewRegistry(audioCfg.SampleRate),
		Status:      tracker,
		Cache:       board.NewBufferCache(),
		LoadTimeout: viper.GetDuration("load.timeout"),
	})
	if err != nil {
		_ = closer()
		return nil, nil, err
	}

	return engine, func() error {
		engine.Stop()
		return closer()
	}, nil
}

func cacheDir() (string, error) {
	if dir := viper.GetString("cache.dir"); dir != "" {
		expanded, err := homedir.Expand(dir)
		if err != nil {
			return "", fmt.Errorf("unable to expand cache dir: %w", err)
		}
		return expanded, nil
	}
	dir, err := gap.NewScope(gap.User, "soundboard").CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(dir, "clips"), nil
}

func execute(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the soundboard needs a terminal, use 'soundboard play' instead")
	}

	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	set, err := resolveSounds(arg)
	if err != nil {
		return err
	}
	return runTUI(cmd.Context(), set)
}

func runTUI(ctx context.Context, set soundSet) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	// use style set in env, or the flag if unset
	if cfg.GlamourStyle == "" || validateStyle(cfg.GlamourStyle) != nil {
		cfg.GlamourStyle = style
	}

	cfg.CatalogPath = set.watch
	cfg.Preload = preload
	cfg.PreloadWorkers = viper.GetInt("preload_workers")

	engine, closeEngine, err := newEngine(set.baseDir)
	if err != nil {
		return err
	}
	defer func() { _ = closeEngine() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Run Bubble Tea program
	if _, err := ui.NewProgram(ctx, cfg, engine, set.sounds).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().String("catalog", "", "catalog file or directory of clips")
	rootCmd.PersistentFlags().Float64("volume", 1, "initial volume between 0 and 1")
	rootCmd.PersistentFlags().Bool("muted", false, "start muted")
	rootCmd.PersistentFlags().Duration("load-timeout", 0, "give up loading a clip after this long (0 waits forever)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "do not cache downloaded clips on disk")
	rootCmd.PersistentFlags().BoolVarP(&showAllFiles, "all", "a", false, "include clips ignored by git when scanning a directory")
	rootCmd.Flags().StringVarP(&style, "style", "s", styles.AutoStyle, "style name or JSON path for the help screen")
	rootCmd.Flags().BoolVarP(&preload, "preload", "p", false, "load every clip on startup")

	// Config bindings
	_ = viper.BindPFlag("catalog", rootCmd.PersistentFlags().Lookup("catalog"))
	_ = viper.BindPFlag("volume", rootCmd.PersistentFlags().Lookup("volume"))
	_ = viper.BindPFlag("muted", rootCmd.PersistentFlags().Lookup("muted"))
	_ = viper.BindPFlag("load.timeout", rootCmd.PersistentFlags().Lookup("load-timeout"))
	_ = viper.BindPFlag("cache.disabled", rootCmd.PersistentFlags().Lookup("no-cache"))
	_ = viper.BindPFlag("all", rootCmd.PersistentFlags().Lookup("all"))
	_ = viper.BindPFlag("style", rootCmd.Flags().Lookup("style"))
	_ = viper.BindPFlag("preload", rootCmd.Flags().Lookup("preload"))

	viper.SetDefault("style", styles.AutoStyle)
	viper.SetDefault("volume", status.DefaultVolume)
	viper.SetDefault("preload_workers", 4)
	viper.SetDefault("audio.sample_rate", audio.SampleRate44100)
	viper.SetDefault("audio.buffer_ms", 0)
	viper.SetDefault("http.timeout", "30s")
	viper.SetDefault("http.requests_per_minute", 120)
	viper.SetDefault("cache.max_size", 256)
	viper.SetDefault("cache.compression_level", 3)

	rootCmd.AddCommand(configCmd, manCmd, playCmd, previewCmd, listCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "soundboard")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "soundboard")}, dirs...)
	}

	if c := os.Getenv("SOUNDBOARD_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("soundboard")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("soundboard")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "soundboard.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
