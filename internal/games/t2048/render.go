package t2048

import (
	"fmt"
	"strconv"

	"github.com/vovakirdan/tile2048/internal/core"
	"github.com/vovakirdan/tile2048/internal/games/t2048/engine"
)

const (
	cellWidth  = 7 // columns per cell including the left border
	cellHeight = 2 // rows per cell including the top border
	hudHeight  = 3
)

// boardDims returns the rendered grid size in screen cells.
func boardDims(size int) (w, h int) {
	return size*cellWidth + 1, size*cellHeight + 1
}

// Render draws the game state to the screen.
func (g *Game) Render(dst *core.Screen) {
	dst.Clear()

	if g.tooSmall {
		dst.DrawTextCentered(g.screenH/2, "Window too small", core.ColorBrightRed)
		dst.DrawTextCentered(g.screenH/2+1, "Please resize terminal", core.ColorGray)
		return
	}

	size := g.eng.Board().Size()
	boardW, boardH := boardDims(size)
	board := core.NewRect((g.screenW-boardW)/2, hudHeight+1, boardW, boardH)

	g.renderHUD(dst, board)
	g.renderGrid(dst, board, size)
	g.renderTiles(dst, board)
	dst.DrawTextCentered(board.Bottom()+1, g.Controls(), core.ColorGray)
	g.renderOverlays(dst, board)
}

func (g *Game) renderHUD(dst *core.Screen, board core.Rect) {
	dst.DrawTextCentered(0, "2 0 4 8", core.ColorBrightYellow)

	dst.DrawText(board.X, 1, fmt.Sprintf("Score: %d", g.eng.Score()))

	var info string
	switch g.mode {
	case ModeCampaign:
		info = fmt.Sprintf("Stage %d/%d  Target: %d", g.stage+1, StageCount(), g.target())
	case ModeClassic:
		info = fmt.Sprintf("Target: %d", g.target())
	default:
		info = fmt.Sprintf("Best: %d", g.eng.Board().MaxTile())
	}
	dst.DrawText(max(board.Right()-len(info), board.X), 1, info)

	dst.DrawTextCentered(2, fmt.Sprintf("%s  Moves: %d", g.mode.Title(), g.eng.Moves()), core.ColorCyan)
}

func (g *Game) renderGrid(dst *core.Screen, board core.Rect, size int) {
	for row := 0; row <= size; row++ {
		for col := 0; col <= size; col++ {
			px := board.X + col*cellWidth
			py := board.Y + row*cellHeight
			dst.SetColored(px, py, gridJoint(row, col, size), core.ColorGray)

			if col < size {
				for i := 1; i < cellWidth; i++ {
					dst.SetColored(px+i, py, '─', core.ColorGray)
				}
			}
			if row < size {
				for i := 1; i < cellHeight; i++ {
					dst.SetColored(px, py+i, '│', core.ColorGray)
				}
			}
		}
	}
}

func gridJoint(row, col, size int) rune {
	switch {
	case row == 0 && col == 0:
		return '┌'
	case row == 0 && col == size:
		return '┐'
	case row == size && col == 0:
		return '└'
	case row == size && col == size:
		return '┘'
	case row == 0:
		return '┬'
	case row == size:
		return '┴'
	case col == 0:
		return '├'
	case col == size:
		return '┤'
	default:
		return '┼'
	}
}

// cellOrigin is the screen position of the text row inside cell (row, col).
func cellOrigin(board core.Rect, p engine.Position) (x, y int) {
	return board.X + p.Col*cellWidth + 1, board.Y + p.Row*cellHeight + 1
}

func (g *Game) renderTiles(dst *core.Screen, board core.Rect) {
	for _, t := range g.eng.Board().Tiles() {
		if g.anim.hidden(t.ID) {
			continue
		}
		x, y := cellOrigin(board, t.Position())
		color := core.TileColor(t.Value)
		if g.anim.popping(t.ID) {
			color = core.ColorBrightWhite
		}
		drawTileText(dst, x, y, t.Value, color)
	}

	if g.anim.phase != phaseSlide {
		return
	}
	p := g.anim.progress()
	for _, m := range g.anim.moves {
		fx, fy := cellOrigin(board, m.From)
		tx, ty := cellOrigin(board, m.To)
		drawTileText(dst, core.Lerp(fx, tx, p), core.Lerp(fy, ty, p), m.Value, core.TileColor(m.Value))
	}
}

func drawTileText(dst *core.Screen, x, y, value int, color core.Color) {
	text := strconv.Itoa(value)
	pad := max((cellWidth-1-len(text))/2, 0)
	dst.DrawTextColored(x+pad, y, text, color)
}

func (g *Game) renderOverlays(dst *core.Screen, board core.Rect) {
	switch {
	case g.paused:
		drawOverlay(dst, board, core.ColorBrightYellow, "PAUSED", "Press P to resume")
	case g.stageCleared:
		head := fmt.Sprintf("Target %d reached!", g.target())
		if g.stage >= StageCount()-1 {
			drawOverlay(dst, board, core.ColorBrightGreen, head, "Final stage complete!")
		} else {
			drawOverlay(dst, board, core.ColorBrightGreen, head, fmt.Sprintf("Next: stage %d", g.stage+2))
		}
	case g.campaignDone:
		drawOverlay(dst, board, core.ColorBrightGreen, "CAMPAIGN COMPLETE!", fmt.Sprintf("Score: %d", g.eng.Score()), "R: restart  B: menu")
	case g.eng.Status() == engine.StatusWon:
		drawOverlay(dst, board, core.ColorBrightGreen, "YOU WIN!", fmt.Sprintf("Score: %d", g.eng.Score()), "R: restart  B: menu")
	case g.eng.Status() == engine.StatusLost:
		drawOverlay(dst, board, core.ColorBrightRed, "GAME OVER", fmt.Sprintf("Best tile: %d", g.eng.Board().MaxTile()), "R: restart  B: menu")
	}
}

// drawOverlay draws a framed message box centered on the board.
func drawOverlay(dst *core.Screen, board core.Rect, color core.Color, lines ...string) {
	width := 0
	for _, l := range lines {
		width = max(width, len(l))
	}
	cx, cy := board.X+board.W/2, board.Y+board.H/2
	box := core.NewRect(cx-(width+4)/2, cy-(len(lines)+2)/2, width+4, len(lines)+2)

	dst.FillRect(box, ' ', core.ColorDefault)
	dst.DrawBox(box, color)
	for i, l := range lines {
		dst.DrawTextColored(cx-len(l)/2, box.Y+1+i, l, color)
	}
}

// Controls returns the key hint line.
func (g *Game) Controls() string {
	return "Arrows/WASD/hjkl: move  P: pause  R: restart  Q: quit"
}
