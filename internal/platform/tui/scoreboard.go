package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tile2048/internal/games/t2048"
	"github.com/vovakirdan/tile2048/internal/storage"
	"github.com/vovakirdan/tile2048/internal/wallet"
)

const (
	maxScores   = 100
	loadTimeout = 2 * time.Second
)

// ScoreboardKeyMap defines the key bindings for the scoreboard.
type ScoreboardKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	NextMode key.Binding
	PrevMode key.Binding
	Back     key.Binding
	Quit     key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k ScoreboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextMode, k.PrevMode, k.Back, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k ScoreboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.NextMode, k.PrevMode},
		{k.Back, k.Quit},
	}
}

// DefaultScoreboardKeyMap returns default key bindings.
func DefaultScoreboardKeyMap() ScoreboardKeyMap {
	return ScoreboardKeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("up/k", "scroll up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("down/j", "scroll down")),
		NextMode: key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab/→", "next mode")),
		PrevMode: key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("S-tab/←", "prev mode")),
		Back:     key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc/b", "back")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ScoreboardModel shows the leaderboard of one mode at a time, with a tab
// per mode and the mode's totals underneath.
type ScoreboardModel struct {
	modes     []t2048.Mode
	cursor    int
	store     *storage.Store
	entries   []storage.LeaderboardEntry
	stats     *storage.GameStats
	loadErr   error
	renderer  *lipgloss.Renderer
	table     table.Model
	help      help.Model
	keys      ScoreboardKeyMap
	width     int
	height    int
	quitting  bool
	goingBack bool
}

// NewScoreboardModel creates a new scoreboard model. store may be nil.
func NewScoreboardModel(store *storage.Store, width, height int) ScoreboardModel {
	m := ScoreboardModel{
		modes:    t2048.Modes(),
		store:    store,
		renderer: lipgloss.DefaultRenderer(),
		help:     help.New(),
		keys:     DefaultScoreboardKeyMap(),
		width:    width,
		height:   height,
	}
	m.table = m.newTable()
	m.load()
	return m
}

// withRenderer rebuilds the styles for another terminal.
func (m ScoreboardModel) withRenderer(r *lipgloss.Renderer) ScoreboardModel {
	if r == nil {
		return m
	}
	m.renderer = r
	m.table = m.newTable()
	m.fillTable()
	return m
}

func (m ScoreboardModel) newTable() table.Model {
	columns := []table.Column{
		{Title: "Rank", Width: 5},
		{Title: "Score", Width: 8},
		{Title: "Tile", Width: 6},
		{Title: "Moves", Width: 6},
		{Title: "Player", Width: 13},
		{Title: "Date", Width: 12},
	}
	// Date takes whatever width is left
	if spare := m.width - 4 - 62; spare > 0 {
		columns[5].Width += min(spare, 8)
	}

	styles := table.Styles{
		Header: m.renderer.NewStyle().
			Padding(0, 1).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			BorderBottom(true),
		Cell: m.renderer.NewStyle().Padding(0, 1),
		Selected: m.renderer.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")),
	}

	return table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-10, 3)),
		table.WithStyles(styles),
	)
}

// load reads the leaderboard and totals of the selected mode.
func (m *ScoreboardModel) load() {
	m.entries, m.stats, m.loadErr = nil, nil, nil
	if m.store != nil && len(m.modes) > 0 {
		gameID := m.modes[m.cursor].GameID()

		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		m.entries, m.loadErr = m.store.Leaderboard(ctx, gameID, maxScores)
		if m.loadErr == nil {
			m.stats, m.loadErr = m.store.GetGameStats(gameID)
		}
	}
	m.fillTable()
}

func (m *ScoreboardModel) fillTable() {
	rows := make([]table.Row, len(m.entries))
	for i, e := range m.entries {
		player := wallet.Short(e.Account)
		if player == "" {
			player = "local"
		}
		rows[i] = table.Row{
			fmt.Sprintf("#%d", e.Rank),
			fmt.Sprintf("%d", e.Score),
			fmt.Sprintf("%d", e.MaxTile),
			fmt.Sprintf("%d", e.Moves),
			player,
			e.EndedAt.Local().Format("Jan 02 15:04"),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func (m *ScoreboardModel) selectMode(delta int) {
	if len(m.modes) == 0 {
		return
	}
	m.cursor = (m.cursor + delta + len(m.modes)) % len(m.modes)
	m.load()
}

// Init initializes the scoreboard model.
func (m ScoreboardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the scoreboard.
func (m ScoreboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextMode):
			m.selectMode(1)
			return m, nil
		case key.Matches(msg, m.keys.PrevMode):
			m.selectMode(-1)
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table = m.newTable()
		m.fillTable()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the scoreboard.
func (m ScoreboardModel) View() string {
	if m.quitting || m.goingBack {
		return ""
	}

	r := m.renderer
	title := r.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Render("HIGH SCORES")
	muted := r.NewStyle().Foreground(lipgloss.Color("241"))
	frame := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, title))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, m.renderTabs()))
	b.WriteString("\n")

	var body string
	switch {
	case m.loadErr != nil:
		body = muted.Italic(true).Padding(1, 2).Render("Could not load scores:\n" + m.loadErr.Error())
	case len(m.entries) == 0:
		body = muted.Italic(true).Padding(1, 2).Render("No games recorded yet.\nPlay a game to set a high score!")
	default:
		body = m.table.View()
	}
	b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, frame.Render(body)))
	b.WriteString("\n")

	if m.stats != nil && m.stats.GamesCount > 0 {
		line := fmt.Sprintf("Best %d  |  Games %d  |  Average %.0f", m.stats.HighScore, m.stats.GamesCount, m.stats.AvgScore)
		b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, muted.Render(line)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(muted.Render(m.help.View(m.keys)))
	return b.String()
}

func (m ScoreboardModel) renderTabs() string {
	r := m.renderer
	idle := r.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)
	active := r.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Padding(0, 1)

	tabs := make([]string, len(m.modes))
	for i, mode := range m.modes {
		if i == m.cursor {
			tabs[i] = active.Render(mode.Title())
		} else {
			tabs[i] = idle.Render(mode.Title())
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// IsGoingBack returns true if user wants to go back to menu.
func (m ScoreboardModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting returns true if user wants to quit entirely.
func (m ScoreboardModel) IsQuitting() bool {
	return m.quitting
}

// RunScoreboard runs the scoreboard screen.
// Returns true if user wants to go back to menu, false if quitting.
func RunScoreboard(store *storage.Store, width, height int) (goBack bool, err error) {
	p := tea.NewProgram(
		NewScoreboardModel(store, width, height),
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m, ok := finalModel.(ScoreboardModel)
	if !ok {
		return false, nil
	}
	return m.IsGoingBack(), nil
}
