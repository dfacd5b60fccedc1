package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tile2048/internal/core"
	"github.com/vovakirdan/tile2048/internal/games/t2048"
	"github.com/vovakirdan/tile2048/internal/registry"
	"github.com/vovakirdan/tile2048/internal/storage"
)

// MenuItem is a playable choice: a mode, or a campaign starting at a stage.
type MenuItem struct {
	GameID string
	Title  string
	Mode   t2048.Mode
	Stage  int // 1-based campaign start stage, 0 for the first
}

// NewGame creates the game the item describes.
func (it MenuItem) NewGame() (registry.Game, error) {
	if it.Mode == t2048.ModeCampaign && it.Stage > 1 {
		return t2048.New(t2048.ModeCampaign, t2048.WithStartStage(it.Stage)), nil
	}
	return registry.Create(it.GameID)
}

// MenuModel is the Bubble Tea model for the mode picker. The rows after
// the modes open the stage list and the scoreboard.
type MenuModel struct {
	items          []MenuItem
	best           map[string]int
	cursor         int
	stageCursor    int
	inStageSelect  bool
	width          int
	height         int
	config         core.RuntimeConfig
	keyMapper      *KeyMapper
	quitting       bool
	selected       *MenuItem
	openScoreboard bool
}

// NewMenuModel creates a new menu model. store may be nil.
func NewMenuModel(store *storage.Store, cfg core.RuntimeConfig) MenuModel {
	modes := t2048.Modes()
	items := make([]MenuItem, 0, len(modes))
	best := make(map[string]int, len(modes))

	for _, mode := range modes {
		items = append(items, MenuItem{
			GameID: mode.GameID(),
			Title:  mode.Title(),
			Mode:   mode,
		})
		if store != nil {
			if hs, err := store.HighScore(mode.GameID()); err == nil && hs > 0 {
				best[mode.GameID()] = hs
			}
		}
	}

	return MenuModel{
		items:     items,
		best:      best,
		width:     cfg.ScreenW,
		height:    cfg.ScreenH,
		config:    cfg,
		keyMapper: NewKeyMapper(),
	}
}

func (m MenuModel) stageRow() int  { return len(m.items) }
func (m MenuModel) scoresRow() int { return len(m.items) + 1 }

// Init initializes the menu model.
func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the menu.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		action := m.keyMapper.MapKeyToMenuAction(msg)
		if m.inStageSelect {
			return m.handleStageKey(action)
		}
		return m.handleKey(action)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		return m, nil
	}

	return m, nil
}

func (m MenuModel) handleKey(action MenuAction) (tea.Model, tea.Cmd) {
	switch action {
	case MenuActionQuit:
		m.quitting = true
		return m, tea.Quit

	case MenuActionUp:
		if m.cursor > 0 {
			m.cursor--
		}

	case MenuActionDown:
		if m.cursor < m.scoresRow() {
			m.cursor++
		}

	case MenuActionSelect:
		switch {
		case m.cursor < len(m.items):
			selected := m.items[m.cursor]
			m.selected = &selected
			return m, tea.Quit
		case m.cursor == m.stageRow():
			m.inStageSelect = true
			m.stageCursor = 0
		default:
			m.openScoreboard = true
			return m, tea.Quit
		}

	case MenuActionScoreboard:
		m.openScoreboard = true
		return m, tea.Quit
	}

	return m, nil
}

func (m MenuModel) handleStageKey(action MenuAction) (tea.Model, tea.Cmd) {
	switch action {
	case MenuActionQuit:
		m.quitting = true
		return m, tea.Quit
	case MenuActionUp:
		if m.stageCursor > 0 {
			m.stageCursor--
		}
	case MenuActionDown:
		if m.stageCursor < t2048.StageCount()-1 {
			m.stageCursor++
		}
	case MenuActionSelect:
		st, ok := t2048.StageAt(m.stageCursor)
		if !ok {
			return m, nil
		}
		m.selected = &MenuItem{
			GameID: t2048.ModeCampaign.GameID(),
			Title:  fmt.Sprintf("%s - %s", t2048.ModeCampaign.Title(), st.Name),
			Mode:   t2048.ModeCampaign,
			Stage:  m.stageCursor + 1,
		}
		return m, tea.Quit
	case MenuActionBack:
		m.inStageSelect = false
	}

	return m, nil
}

// View renders the menu.
func (m MenuModel) View() string {
	if m.quitting {
		return ""
	}
	if m.inStageSelect {
		return m.viewStageSelect()
	}

	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText("2 0 4 8", m.width))
	b.WriteString("\n\n")
	b.WriteString(centerText("Select a mode", m.width))
	b.WriteString("\n\n")

	rows := make([]string, 0, len(m.items)+2)
	for _, item := range m.items {
		line := item.Title
		if item.Mode == t2048.ModeCampaign {
			line = fmt.Sprintf("%s (%d stages)", line, t2048.StageCount())
		}
		if hs, ok := m.best[item.GameID]; ok {
			line = fmt.Sprintf("%s  best %d", line, hs)
		}
		rows = append(rows, line)
	}
	rows = append(rows, "Select stage...", "High scores")

	for i, row := range rows {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		b.WriteString(centerText(cursor+row, m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centerText("Up/Down: Navigate  |  Enter: Select  |  Tab: Scores  |  Q: Quit", m.width))
	b.WriteString("\n")

	return b.String()
}

func (m MenuModel) viewStageSelect() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(centerText("SELECT STAGE", m.width))
	b.WriteString("\n\n")

	for i, st := range t2048.Stages() {
		cursor := "  "
		if i == m.stageCursor {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%d. %s", cursor, i+1, st.Label())
		b.WriteString(centerText(line, m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centerText("Enter: Select  |  Esc: Back  |  Q: Quit", m.width))

	return b.String()
}

// Selected returns the selected menu item, or nil if none selected.
func (m MenuModel) Selected() *MenuItem {
	return m.selected
}

// IsQuitting returns true if user requested to quit.
func (m MenuModel) IsQuitting() bool {
	return m.quitting
}

// WantsScoreboard returns true if user requested scoreboard.
func (m MenuModel) WantsScoreboard() bool {
	return m.openScoreboard
}

// Config returns the current runtime config (may have been updated by resize).
func (m MenuModel) Config() core.RuntimeConfig {
	return m.config
}

// centerText centers text within given width.
func centerText(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}

// MenuResult holds the result of running the menu.
type MenuResult struct {
	Item            *MenuItem
	Config          core.RuntimeConfig
	WantsScoreboard bool
	Quit            bool
}

// RunMenu runs the menu and returns the selection result.
func RunMenu(store *storage.Store, cfg core.RuntimeConfig) (MenuResult, error) {
	p := tea.NewProgram(
		NewMenuModel(store, cfg),
		tea.WithAltScreen(),
	)

	finalModel, err := p.Run()
	if err != nil {
		return MenuResult{Config: cfg}, err
	}

	m, ok := finalModel.(MenuModel)
	if !ok {
		return MenuResult{Config: cfg, Quit: true}, nil
	}

	result := MenuResult{Config: m.Config()}
	switch {
	case m.WantsScoreboard():
		result.WantsScoreboard = true
	case m.IsQuitting() || m.Selected() == nil:
		result.Quit = true
	default:
		result.Item = m.Selected()
	}
	return result, nil
}
