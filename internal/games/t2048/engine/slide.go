package engine

// TileMove records one tile travelling during a move. MergedInto is set when
// the tile was consumed by a merge at To.
type TileMove struct {
	ID         TileID   `json:"id"`
	Value      int      `json:"value"`
	From       Position `json:"from"`
	To         Position `json:"to"`
	MergedInto TileID   `json:"merged_into,omitempty"`
}

// Merge records a new tile created from two retired ones.
type Merge struct {
	Result  Tile      `json:"result"`
	Sources [2]TileID `json:"sources"`
}

// Slide is the outcome of sliding a board, before any spawn.
type Slide struct {
	Board       Board
	Changed     bool
	ScoreGained int
	Moves       []TileMove
	Merges      []Merge
}

// Retired returns the ids that no longer exist after the slide.
func (s Slide) Retired() []TileID {
	out := make([]TileID, 0, 2*len(s.Merges))
	for _, m := range s.Merges {
		out = append(out, m.Sources[0], m.Sources[1])
	}
	return out
}

// slot is one compacted position of a line: a single tile or a merged pair.
type slot struct {
	value   int
	sources []TileID
}

// SlideBoard moves every tile of b toward dir. Each line is processed
// independently: tiles are collected nearest-edge-first, equal neighbours
// merge pairwise starting at the edge, and a merged tile cannot merge again
// in the same move. b is not modified. An invalid direction leaves the board
// unchanged.
func SlideBoard(b Board, dir Direction) Slide {
	if !dir.Valid() {
		return Slide{Board: b}
	}
	out := Board{
		size:  b.size,
		cells: make([]TileID, len(b.cells)),
		tiles: make(map[TileID]Tile, len(b.tiles)),
		next:  b.next,
	}
	res := Slide{}

	for k := 0; k < b.size; k++ {
		line := linePositions(b.size, dir, k)

		slots := make([]slot, 0, b.size)
		for _, p := range line {
			id := b.cells[b.index(p.Row, p.Col)]
			if id == 0 {
				continue
			}
			v := b.tiles[id].Value
			if n := len(slots); n > 0 && len(slots[n-1].sources) == 1 && slots[n-1].value == v {
				slots[n-1].value = v * 2
				slots[n-1].sources = append(slots[n-1].sources, id)
				continue
			}
			slots = append(slots, slot{value: v, sources: []TileID{id}})
		}

		for i, s := range slots {
			dest := line[i]
			if len(s.sources) == 1 {
				t := b.tiles[s.sources[0]]
				if t.Row != dest.Row || t.Col != dest.Col {
					res.Changed = true
					res.Moves = append(res.Moves, TileMove{ID: t.ID, Value: t.Value, From: t.Position(), To: dest})
				}
				t.Row, t.Col = dest.Row, dest.Col
				out.tiles[t.ID] = t
				out.cells[out.index(dest.Row, dest.Col)] = t.ID
				continue
			}

			out.next++
			merged := Tile{ID: out.next, Value: s.value, Row: dest.Row, Col: dest.Col}
			for _, src := range s.sources {
				old := b.tiles[src]
				res.Moves = append(res.Moves, TileMove{
					ID:         old.ID,
					Value:      old.Value,
					From:       old.Position(),
					To:         dest,
					MergedInto: merged.ID,
				})
			}
			out.tiles[merged.ID] = merged
			out.cells[out.index(dest.Row, dest.Col)] = merged.ID
			res.Merges = append(res.Merges, Merge{Result: merged, Sources: [2]TileID{s.sources[0], s.sources[1]}})
			res.ScoreGained += s.value
			res.Changed = true
		}
	}

	if !res.Changed {
		res.Board = b
		return res
	}
	res.Board = out
	return res
}

// linePositions returns the cells of line k ordered from the edge dir points at.
func linePositions(size int, dir Direction, k int) []Position {
	out := make([]Position, size)
	for i := range out {
		switch dir {
		case DirLeft:
			out[i] = Position{Row: k, Col: i}
		case DirRight:
			out[i] = Position{Row: k, Col: size - 1 - i}
		case DirUp:
			out[i] = Position{Row: i, Col: k}
		case DirDown:
			out[i] = Position{Row: size - 1 - i, Col: k}
		}
	}
	return out
}
