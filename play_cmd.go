package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/soundboard/internal/board"
	"github.com/dgnsrekt/soundboard/internal/catalog"
)

var (
	playCmd = &cobra.Command{
		Use:     "play NAME|KEY|PATH...",
		Short:   "Play clips without the TUI",
		Long:    paragraph(fmt.Sprintf("\n%s clips one after another, waiting for each to finish. Clips are looked up in the catalog by path, key or name; anything else is played as a path or URL.", keyword("Play"))),
		Example: paragraph("soundboard play airhorn\nsoundboard play 1 2 3\nsoundboard play https://example.com/bell.mp3"),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return playClips(cmd.Context(), args, false)
		},
	}

	previewCmd = &cobra.Command{
		Use:     "preview NAME|KEY|PATH...",
		Short:   "Play the first two seconds of clips",
		Long:    paragraph(fmt.Sprintf("\n%s the opening of each clip, fading out over two seconds.", keyword("Preview"))),
		Example: paragraph("soundboard preview airhorn"),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return playClips(cmd.Context(), args, true)
		},
	}
)

// resolveClip maps a command line argument to a clip id.
func resolveClip(sounds []catalog.Sound, arg string) (id, label string) {
	if s, ok := catalog.Find(sounds, arg); ok {
		return s.ID(), s.Label()
	}
	return arg, arg
}

func playClips(ctx context.Context, args []string, preview bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	set, err := resolveSounds("")
	if err != nil {
		return err
	}
	engine, closeEngine, err := newEngine(set.baseDir)
	if err != nil {
		return err
	}
	defer func() { _ = closeEngine() }()

	for _, arg := range args {
		id, label := resolveClip(set.sounds, arg)
		log.Debug("headless playback", "arg", arg, "id", id, "preview", preview)

		start := time.Now()
		if preview {
			err = engine.Preview(ctx, id)
		} else {
			err = engine.Play(ctx, id)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, failure(describeError(label, err)))
			return err
		}

		d, _ := engine.Duration(id)
		fmt.Printf("%s %s\n", keyword(label), subtle(formatSeconds(d)))

		if err := engine.Wait(ctx); err != nil {
			engine.Stop()
			return nil //nolint:nilerr
		}
		log.Debug("playback finished", "id", id, "elapsed", time.Since(start))
	}
	return nil
}

func describeError(label string, err error) string {
	var berr *board.Error
	if errors.As(err, &berr) {
		return fmt.Sprintf("%s: %s", label, berr.Message)
	}
	return fmt.Sprintf("%s: %v", label, err)
}

func formatSeconds(s float64) string {
	return (time.Duration(s * float64(time.Second))).Round(10 * time.Millisecond).String()
}
