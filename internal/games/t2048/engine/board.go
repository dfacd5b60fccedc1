package engine

import (
	"fmt"
	"slices"
	"strings"
)

// TileID identifies a tile for as long as it exists. Zero means "no tile".
type TileID uint32

// Position is a cell coordinate, row 0 at the top.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Tile is a numbered tile on the board.
type Tile struct {
	ID    TileID `json:"id"`
	Value int    `json:"value"`
	Row   int    `json:"row"`
	Col   int    `json:"col"`
}

// Position returns the tile's cell.
func (t Tile) Position() Position {
	return Position{Row: t.Row, Col: t.Col}
}

// Board is an immutable square grid. Operations that change it return a new
// Board and leave the receiver untouched.
type Board struct {
	size  int
	cells []TileID
	tiles map[TileID]Tile
	next  TileID
}

// NewBoard returns an empty size x size board.
func NewBoard(size int) Board {
	return Board{
		size:  size,
		cells: make([]TileID, size*size),
		tiles: make(map[TileID]Tile),
	}
}

// BoardFromValues builds a board from a square grid of values where 0 is an
// empty cell. Tiles get ids in row-major order.
func BoardFromValues(values [][]int) (Board, error) {
	size := len(values)
	if size < MinSize || size > MaxSize {
		return Board{}, fmt.Errorf("%w: size %d", ErrInvalidBoard, size)
	}
	b := NewBoard(size)
	for r, row := range values {
		if len(row) != size {
			return Board{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidBoard, r, len(row), size)
		}
		for c, v := range row {
			if v == 0 {
				continue
			}
			if v < 2 || !isPowerOfTwo(v) {
				return Board{}, fmt.Errorf("%w: value %d at (%d,%d)", ErrInvalidBoard, v, r, c)
			}
			b.next++
			t := Tile{ID: b.next, Value: v, Row: r, Col: c}
			b.tiles[t.ID] = t
			b.cells[b.index(r, c)] = t.ID
		}
	}
	return b, nil
}

// Size returns the edge length.
func (b Board) Size() int { return b.size }

func (b Board) index(row, col int) int { return row*b.size + col }

func (b Board) inBounds(row, col int) bool {
	return row >= 0 && row < b.size && col >= 0 && col < b.size
}

// At returns the tile occupying (row, col).
func (b Board) At(row, col int) (Tile, bool) {
	if !b.inBounds(row, col) {
		return Tile{}, false
	}
	id := b.cells[b.index(row, col)]
	if id == 0 {
		return Tile{}, false
	}
	return b.tiles[id], true
}

// Value returns the value at (row, col), or 0 for an empty cell.
func (b Board) Value(row, col int) int {
	t, _ := b.At(row, col)
	return t.Value
}

// Tile looks a tile up by id.
func (b Board) Tile(id TileID) (Tile, bool) {
	t, ok := b.tiles[id]
	return t, ok
}

// Tiles returns every tile in row-major order.
func (b Board) Tiles() []Tile {
	out := make([]Tile, 0, len(b.tiles))
	for _, id := range b.cells {
		if id != 0 {
			out = append(out, b.tiles[id])
		}
	}
	return out
}

// Values returns the grid as a fresh [][]int.
func (b Board) Values() [][]int {
	out := make([][]int, b.size)
	for r := range out {
		out[r] = make([]int, b.size)
		for c := range out[r] {
			out[r][c] = b.Value(r, c)
		}
	}
	return out
}

// EmptyCells returns all empty positions in row-major order.
func (b Board) EmptyCells() []Position {
	var out []Position
	for i, id := range b.cells {
		if id == 0 {
			out = append(out, Position{Row: i / b.size, Col: i % b.size})
		}
	}
	return out
}

// EmptyCount returns the number of empty cells.
func (b Board) EmptyCount() int {
	return len(b.cells) - len(b.tiles)
}

// HasAdjacentEqual reports whether two horizontally or vertically adjacent
// cells hold the same value.
func (b Board) HasAdjacentEqual() bool {
	for r := 0; r < b.size; r++ {
		for c := 0; c < b.size; c++ {
			v := b.Value(r, c)
			if v == 0 {
				continue
			}
			if c+1 < b.size && b.Value(r, c+1) == v {
				return true
			}
			if r+1 < b.size && b.Value(r+1, c) == v {
				return true
			}
		}
	}
	return false
}

// CanMove reports whether at least one direction would change the board.
func (b Board) CanMove() bool {
	return b.EmptyCount() > 0 || b.HasAdjacentEqual()
}

// MaxTile returns the highest value on the board.
func (b Board) MaxTile() int {
	best := 0
	for _, t := range b.tiles {
		best = max(best, t.Value)
	}
	return best
}

// Sum returns the total of all tile values.
func (b Board) Sum() int {
	total := 0
	for _, t := range b.tiles {
		total += t.Value
	}
	return total
}

// Equal compares cell values only; tile ids are ignored.
func (b Board) Equal(o Board) bool {
	if b.size != o.size {
		return false
	}
	for r := 0; r < b.size; r++ {
		for c := 0; c < b.size; c++ {
			if b.Value(r, c) != o.Value(r, c) {
				return false
			}
		}
	}
	return true
}

func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < b.size; r++ {
		for c := 0; c < b.size; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%5d", b.Value(r, c))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// place returns a copy of b with a fresh tile at pos.
func (b Board) place(pos Position, value int) (Board, Tile) {
	out := b.clone()
	out.next++
	t := Tile{ID: out.next, Value: value, Row: pos.Row, Col: pos.Col}
	out.tiles[t.ID] = t
	out.cells[out.index(pos.Row, pos.Col)] = t.ID
	return out, t
}

func (b Board) clone() Board {
	tiles := make(map[TileID]Tile, len(b.tiles)+1)
	for id, t := range b.tiles {
		tiles[id] = t
	}
	return Board{
		size:  b.size,
		cells: slices.Clone(b.cells),
		tiles: tiles,
		next:  b.next,
	}
}
