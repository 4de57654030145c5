// Package ui provides the soundboard TUI.
package ui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/truncate"
	te "github.com/muesli/termenv"

	"github.com/dgnsrekt/soundboard/internal/board"
	"github.com/dgnsrekt/soundboard/internal/catalog"
	"github.com/dgnsrekt/soundboard/internal/keys"
	"github.com/dgnsrekt/soundboard/internal/status"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "copied!"
	playbackPollInterval = time.Millisecond * 100
	ellipsis             = "…"
	volumeStep           = 0.1
	volumeCells          = 10
	defaultReleaseDelay  = time.Millisecond * 500
	defaultButtonWidth   = 18
)

// Player is the playback surface the UI drives. *board.Engine implements it.
type Player interface {
	Play(ctx context.Context, id string) error
	Preview(ctx context.Context, id string) error
	Stop()
	PreloadAll(ctx context.Context, ids []string, workers int) error
	Active() (board.Playback, bool)
	Status() *status.Tracker
}

// NewProgram returns a new Tea program.
func NewProgram(ctx context.Context, cfg Config, player Player, sounds []catalog.Sound) *tea.Program {
	log.Debug(
		"Starting soundboard",
		"sounds",
		len(sounds),
		"catalog",
		cfg.CatalogPath,
		"release_delay",
		cfg.ReleaseDelay,
	)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	m := newModel(ctx, cfg, player, sounds)
	return tea.NewProgram(m, append(opts, tea.WithContext(ctx))...)
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type (
	statusChangedMsg        struct{}
	preloadDoneMsg          struct{ err error }
	playbackTickMsg         time.Time
	statusMessageTimeoutMsg struct{}
)

type (
	catalogWatchMsg    struct{ ch <-chan []catalog.Sound }
	catalogReloadedMsg struct{ sounds []catalog.Sound }
)

type playedMsg struct {
	id      string
	preview bool
	err     error
}

// keyReleaseMsg is the synthesised key-up for a held key.
type keyReleaseMsg struct {
	key string
	seq int
}

// state is the top-level application state.
type state int

const (
	stateShowBoard state = iota
	stateFiltering
	stateShowHelp
)

func (s state) String() string {
	return map[state]string{
		stateShowBoard: "showing board",
		stateFiltering: "filtering",
		stateShowHelp:  "showing help",
	}[s]
}

// trigger is a playback request raised while handling a key.
type trigger struct {
	id      string
	preview bool
}

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	ctx    context.Context
	player Player
	width  int
	height int

	// Triggers collected from the dispatcher during the current update.
	fired []trigger
}

type model struct {
	common *commonModel
	state  state

	dispatcher *keys.Dispatcher
	tracker    *status.Tracker
	updates    <-chan struct{}
	catalogCh  <-chan []catalog.Sound

	sounds  []catalog.Sound
	visible []int // indexes into sounds that pass the filter
	cursor  int   // index into visible

	// Synthesised key-up: each held label maps to the sequence number of
	// its pending release.
	held map[string]int
	seq  int

	snapshot status.Snapshot
	active   board.Playback
	playing  bool

	spinner spinner.Model
	filter  textinput.Model
	help    string

	statusMessage      string
	statusMessageTimer *time.Timer
}

func newModel(ctx context.Context, cfg Config, player Player, sounds []catalog.Sound) model {
	if cfg.GlamourStyle == "" || cfg.GlamourStyle == styles.AutoStyle {
		if te.HasDarkBackground() {
			cfg.GlamourStyle = styles.DarkStyle
		} else {
			cfg.GlamourStyle = styles.LightStyle
		}
	}
	if cfg.ReleaseDelay <= 0 {
		cfg.ReleaseDelay = defaultReleaseDelay
	}
	if cfg.ButtonWidth <= 0 {
		cfg.ButtonWidth = defaultButtonWidth
	}
	if ctx == nil {
		ctx = context.Background()
	}

	common := &commonModel{
		cfg:    cfg,
		ctx:    ctx,
		player: player,
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(fuchsia)

	ti := textinput.New()
	ti.Prompt = "Filter: "
	ti.PromptStyle = keyStyle
	ti.Placeholder = "name or key"
	ti.CharLimit = 64

	tracker := player.Status()
	m := model{
		common:  common,
		state:   stateShowBoard,
		tracker: tracker,
		updates: tracker.Subscribe(),
		held:    make(map[string]int),
		spinner: sp,
		filter:  ti,
	}
	m.dispatcher = keys.NewDispatcher(func(id string) {
		common.fired = append(common.fired, trigger{id: id})
	})
	m.setSounds(sounds)
	m.snapshot = tracker.Snapshot()
	return m
}

func (m model) Init() tea.Cmd {
	log.Debug("Init() called", "state", m.state)
	cmds := []tea.Cmd{
		m.spinner.Tick,
		waitForStatus(m.updates),
		pollPlayback(),
	}
	if m.common.cfg.CatalogPath != "" {
		cmds = append(cmds, watchCatalog(m.common.ctx, m.common.cfg.CatalogPath))
	}
	if m.common.cfg.Preload {
		cmds = append(cmds, preloadClips(m.common, catalog.IDs(m.sounds)))
	}
	return tea.Batch(cmds...)
}

// setSounds swaps the catalog, rebinding keys and reapplying the filter.
func (m *model) setSounds(sounds []catalog.Sound) {
	m.sounds = sounds
	m.dispatcher.SetCatalog(sounds)
	m.refilter()
}

func (m *model) refilter() {
	m.visible = filterSounds(m.sounds, m.filter.Value())
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

func (m model) filterApplied() bool {
	return strings.TrimSpace(m.filter.Value()) != ""
}

// selected returns the sound under the cursor.
func (m model) selected() (catalog.Sound, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return catalog.Sound{}, false
	}
	return m.sounds[m.visible[m.cursor]], true
}

func (m model) columns() int {
	return gridColumns(m.common.width, m.common.cfg.ButtonWidth)
}

// drainFired turns the triggers raised during this update into commands.
func (m model) drainFired() []tea.Cmd {
	fired := m.common.fired
	m.common.fired = nil
	cmds := make([]tea.Cmd, 0, len(fired))
	for _, t := range fired {
		cmds = append(cmds, playClip(m.common, t.id, t.preview))
	}
	return cmds
}

func (m model) quit() tea.Cmd {
	log.Debug("Stopping playback before quit")
	m.common.player.Stop()
	m.tracker.Unsubscribe(m.updates)
	return tea.Quit
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.filter.Width = max(msg.Width-lipgloss.Width(m.filter.Prompt)-2, 10)
		if m.state == stateShowHelp {
			m.help = renderHelp(m.common.cfg.GlamourStyle, msg.Width)
		}

	case errMsg:
		cmds = append(cmds, m.showStatusMessage(msg.Error()))

	case statusChangedMsg:
		m.snapshot = m.tracker.Snapshot()
		cmds = append(cmds, waitForStatus(m.updates))

	case playbackTickMsg:
		m.active, m.playing = m.common.player.Active()
		cmds = append(cmds, pollPlayback())

	case playedMsg:
		if msg.err != nil {
			log.Debug("playback failed", "id", msg.id, "preview", msg.preview, "error", msg.err)
		}
		m.active, m.playing = m.common.player.Active()

	case preloadDoneMsg:
		if msg.err != nil {
			cmds = append(cmds, m.showStatusMessage("Some clips failed to load"))
		}

	case keyReleaseMsg:
		if seq, ok := m.held[msg.key]; ok && seq == msg.seq {
			delete(m.held, msg.key)
			m.dispatcher.KeyUp(keys.Event{Key: msg.key})
		}

	case catalogWatchMsg:
		m.catalogCh = msg.ch
		cmds = append(cmds, waitForCatalog(m.catalogCh))

	case catalogReloadedMsg:
		log.Info("catalog reloaded", "sounds", len(msg.sounds))
		m.setSounds(msg.sounds)
		cmds = append(cmds,
			m.showStatusMessage(fmt.Sprintf("Reloaded %d clips", len(msg.sounds))),
			waitForCatalog(m.catalogCh),
		)
		if m.common.cfg.Preload {
			cmds = append(cmds, preloadClips(m.common, catalog.IDs(msg.sounds)))
		}

	case statusMessageTimeoutMsg:
		m.statusMessage = ""

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Ctrl+C always quits no matter where in the application you are.
	if msg.String() == "ctrl+c" {
		return m, m.quit()
	}

	switch m.state {
	case stateShowHelp:
		switch msg.String() {
		case "?", "esc", "q":
			m.state = stateShowBoard
			m.help = ""
		}
		return m, nil

	case stateFiltering:
		return m.handleFilterKey(msg)
	}

	var cmds []tea.Cmd

	if ev, ok := keyEvent(msg); ok {
		label := m.dispatcher.Normalize(ev)
		if _, held := m.held[label]; held && !ev.Ctrl && !ev.Alt {
			ev.Repeat = true
		}

		if ev.Repeat {
			if _, bound := m.dispatcher.Lookup(label); bound {
				m.dispatcher.KeyDown(ev)
				return m, m.hold(label)
			}
		} else if m.dispatcher.KeyDown(ev) {
			cmds = append(cmds, m.drainFired()...)
			cmds = append(cmds, m.hold(label))
			return m, tea.Batch(cmds...)
		}

		// alt+<clip key> previews.
		if ev.Alt && !ev.Ctrl {
			if id, ok := m.dispatcher.Lookup(label); ok {
				return m, playClip(m.common, id, true)
			}
		}
	}

	switch msg.String() {
	case "q":
		return m, m.quit()

	case "?":
		m.state = stateShowHelp
		m.help = renderHelp(m.common.cfg.GlamourStyle, m.common.width)

	case "/":
		m.state = stateFiltering
		m.dispatcher.Reset()
		cmds = append(cmds, m.filter.Focus())

	case "esc":
		if m.filterApplied() {
			m.filter.Reset()
			m.refilter()
		}

	case "+", "=":
		v := m.tracker.SetVolume(stepVolume(m.tracker.Volume(), volumeStep))
		log.Debug("volume up", "volume", v)

	case "-", "_":
		v := m.tracker.SetVolume(stepVolume(m.tracker.Volume(), -volumeStep))
		log.Debug("volume down", "volume", v)

	case "ctrl+n":
		muted := m.tracker.ToggleMuted()
		log.Debug("mute toggled", "muted", muted)

	case " ":
		m.common.player.Stop()
		m.active, m.playing = m.common.player.Active()

	case "left":
		m.moveCursor(-1)
	case "right":
		m.moveCursor(1)
	case "up":
		m.moveCursor(-m.columns())
	case "down":
		m.moveCursor(m.columns())

	case "enter":
		if s, ok := m.selected(); ok {
			cmds = append(cmds, playClip(m.common, s.ID(), false))
		}

	case "ctrl+p":
		if s, ok := m.selected(); ok {
			cmds = append(cmds, playClip(m.common, s.ID(), true))
		}

	case "ctrl+y":
		if s, ok := m.selected(); ok {
			// Copy using OSC 52
			te.Copy(s.ID())
			// Copy using native system clipboard
			_ = clipboard.WriteAll(s.ID())
			cmds = append(cmds, m.showStatusMessage("Copied "+s.ID()))
		}

	case "ctrl+e":
		if id, _, ok := m.tracker.FirstError(); ok {
			m.tracker.ClearError(id)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filter.Reset()
		m.filter.Blur()
		m.refilter()
		m.state = stateShowBoard
		return m, nil
	case "enter", "tab":
		m.filter.Blur()
		m.state = stateShowBoard
		return m, nil
	}

	// Keys typed into the filter never reach clip bindings.
	if ev, ok := keyEvent(msg); ok {
		ev.TextTarget = true
		m.dispatcher.KeyDown(ev)
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.cursor = 0
	m.refilter()
	return m, cmd
}

// hold marks label as held and schedules its synthesised release.
func (m *model) hold(label string) tea.Cmd {
	m.seq++
	m.held[label] = m.seq
	return releaseKey(label, m.seq, m.common.cfg.ReleaseDelay)
}

func (m *model) moveCursor(delta int) {
	if len(m.visible) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.visible)-1)
}

// stepVolume moves v by delta, snapped to hundredths so repeated steps land
// exactly on 0.
func stepVolume(v, delta float64) float64 {
	return math.Round((v+delta)*100) / 100
}

// Show a status message to the user.
func (m *model) showStatusMessage(msg string) tea.Cmd {
	m.statusMessage = msg
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.statusMessageTimer = time.NewTimer(statusMessageTimeout)
	return waitForStatusMessageTimeout(m.statusMessageTimer)
}

func (m model) View() string {
	if m.state == stateShowHelp {
		return m.help
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	if banner := m.errorBannerView(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.gridView())
	b.WriteString("\n\n")
	b.WriteString(m.statusBarView())
	return b.String()
}

func (m model) headerView() string {
	header := logoStyle.Render("Soundboard")
	switch {
	case m.state == stateFiltering:
		header += " " + m.filter.View()
	case m.filterApplied():
		header += " " + helpDimStyle.Render(fmt.Sprintf("filter %q (%d/%d)", m.filter.Value(), len(m.visible), len(m.sounds)))
	}
	return header
}

func (m model) errorBannerView() string {
	id, msg, ok := m.tracker.FirstError()
	if !ok {
		return ""
	}
	name := id
	if s, found := catalog.Find(m.sounds, id); found {
		name = s.Label()
	}
	line := fmt.Sprintf("%s %s %s",
		errorTitleStyle.Render("ERROR"),
		errorBodyStyle.Render(name+": "+msg),
		subtleStyle.Render("ctrl+e to dismiss"),
	)
	if m.common.width > 0 {
		line = truncate.StringWithTail(line, uint(m.common.width), ellipsis) //nolint:gosec
	}
	return line
}

func (m model) gridView() string {
	if len(m.sounds) == 0 {
		return subtleStyle.Render("No clips in the catalog.")
	}
	if len(m.visible) == 0 {
		return subtleStyle.Render("Nothing matched the filter.")
	}

	pressed, isPressed := m.dispatcher.Pressed()
	width := m.common.cfg.ButtonWidth

	buttons := make([]string, 0, len(m.visible))
	for i, idx := range m.visible {
		s := m.sounds[idx]
		id := s.ID()
		clip := m.snapshot.Clips[id]

		st := buttonIdle
		badge := ""
		switch {
		case isPressed && strings.EqualFold(strings.TrimSpace(s.KeyBinding), pressed):
			st = buttonPressed
		case m.playing && m.active.ID == id && m.active.Preview:
			st, badge = buttonPreview, "◐"
		case m.playing && m.active.ID == id:
			st, badge = buttonPlaying, "▶"
		case clip.Error != "":
			st, badge = buttonFailed, errorBodyStyle.Render("✗")
		case i == m.cursor:
			st = buttonSelected
		}
		if clip.Loading {
			badge = m.spinner.View()
		}
		buttons = append(buttons, renderButton(s, width, st, badge))
	}
	return renderGrid(buttons, m.columns())
}

func (m model) statusBarView() string {
	var left string
	switch {
	case m.statusMessage != "":
		left = noticeStyle.Render(m.statusMessage)
	case m.playing:
		verb := "Playing"
		if m.active.Preview {
			verb = "Previewing"
		}
		name := m.active.ID
		if s, ok := catalog.Find(m.sounds, m.active.ID); ok {
			name = s.Label()
		}
		left = fmt.Sprintf("%s %s", verb, name)
	default:
		left = helpDimStyle.Render("? help • / filter • space stop • q quit")
	}

	vol := m.snapshot.Volume
	right := "vol " + volumeBar(vol, m.snapshot.Muted, volumeCells)

	bar := left + "  " + right
	if m.common.width > 0 {
		bar = truncate.StringWithTail(bar, uint(m.common.width), ellipsis) //nolint:gosec
	}
	return statusBarStyle.Render(bar)
}

// COMMANDS

func playClip(common *commonModel, id string, preview bool) tea.Cmd {
	player, ctx := common.player, common.ctx
	return func() tea.Msg {
		var err error
		if preview {
			err = player.Preview(ctx, id)
		} else {
			err = player.Play(ctx, id)
		}
		return playedMsg{id: id, preview: preview, err: err}
	}
}

func preloadClips(common *commonModel, ids []string) tea.Cmd {
	player, ctx := common.player, common.ctx
	workers := common.cfg.PreloadWorkers
	return func() tea.Msg {
		log.Debug("preloading clips", "count", len(ids), "workers", workers)
		return preloadDoneMsg{err: player.PreloadAll(ctx, ids, workers)}
	}
}

func waitForStatus(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return statusChangedMsg{}
	}
}

func watchCatalog(ctx context.Context, path string) tea.Cmd {
	return func() tea.Msg {
		ch, err := catalog.Watch(ctx, path)
		if err != nil {
			log.Error("unable to watch catalog", "file", path, "error", err)
			return errMsg{fmt.Errorf("unable to watch catalog: %w", err)}
		}
		return catalogWatchMsg{ch: ch}
	}
}

func waitForCatalog(ch <-chan []catalog.Sound) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		sounds, ok := <-ch
		if !ok {
			log.Debug("catalog watch finished")
			return nil
		}
		return catalogReloadedMsg{sounds: sounds}
	}
}

func releaseKey(key string, seq int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return keyReleaseMsg{key: key, seq: seq}
	})
}

func pollPlayback() tea.Cmd {
	return tea.Tick(playbackPollInterval, func(t time.Time) tea.Msg {
		return playbackTickMsg(t)
	})
}

func waitForStatusMessageTimeout(t *time.Timer) tea.Cmd {
	return func() tea.Msg {
		<-t.C
		return statusMessageTimeoutMsg{}
	}
}
