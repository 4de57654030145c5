package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/soundboard/internal/board"
	"github.com/dgnsrekt/soundboard/internal/catalog"
)

var (
	listLoad    bool
	listWorkers int

	listCmd = &cobra.Command{
		Use:     "list [CATALOG|DIR]",
		Aliases: []string{"ls"},
		Short:   "List the clips in the catalog",
		Long:    paragraph(fmt.Sprintf("\n%s the catalog with key bindings. With --load every clip is fetched and decoded first so durations can be shown.", keyword("List"))),
		Example: paragraph("soundboard list\nsoundboard list --load ~/sounds"),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) > 0 {
				arg = args[0]
			}
			return listClips(cmd.Context(), arg, os.Stdout)
		},
	}
)

func init() {
	listCmd.Flags().BoolVarP(&listLoad, "load", "l", false, "load clips to show durations")
	listCmd.Flags().IntVarP(&listWorkers, "workers", "w", 4, "clips to load in parallel")
}

// row is one line of the clip table.
type row []string

func listClips(ctx context.Context, arg string, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	set, err := resolveSounds(arg)
	if err != nil {
		return err
	}

	var engine *board.Engine
	if listLoad {
		var closeEngine func() error
		engine, closeEngine, err = newEngine(set.baseDir)
		if err != nil {
			return err
		}
		defer func() { _ = closeEngine() }()

		// Failures are reported per clip below.
		_ = engine.PreloadAll(ctx, catalog.IDs(set.sounds), listWorkers)
	}

	rows := clipRows(set.sounds, engine)
	writeTable(w, rows)

	if engine != nil {
		cache := engine.Cache()
		fmt.Fprintf(w, "\n%s\n", subtle(fmt.Sprintf("%d clips decoded, %s in memory",
			cache.Len(), humanize.Bytes(uint64(cache.Size())))))
	}
	return nil
}

func clipRows(sounds []catalog.Sound, engine *board.Engine) []row {
	header := row{"KEY", "NAME", "FILE"}
	if engine != nil {
		header = append(header, "LENGTH", "SIZE")
	}
	rows := []row{header}

	for _, s := range sounds {
		key := strings.ToUpper(s.KeyBinding)
		if key == "" {
			key = "-"
		}
		r := row{key, s.Label(), s.ID()}
		if engine != nil {
			r = append(r, clipDetails(engine, s.ID())...)
		}
		rows = append(rows, r)
	}
	return rows
}

func clipDetails(engine *board.Engine, id string) []string {
	if msg := engine.Status().Clip(id).Error; msg != "" {
		return []string{"error", failure(msg)}
	}
	buf, ok := engine.Cache().Get(id)
	if !ok {
		return []string{"-", "-"}
	}
	return []string{formatSeconds(buf.Duration()), humanize.Bytes(uint64(buf.Size()))} //nolint:gosec
}

// writeTable prints rows as left aligned columns.
func writeTable(w io.Writer, rows []row) {
	var widths []int
	for _, r := range rows {
		for i, cell := range r {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	for _, r := range rows {
		var b strings.Builder
		for i, cell := range r {
			if i == len(r)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]+2))
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}
