package core

// Color represents a foreground color for a screen cell.
// Platforms map it to ANSI 256-color codes.
type Color uint8

const (
	ColorDefault Color = iota
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightRed
	ColorBrightGreen
	ColorBrightYellow
	ColorBrightBlue
	ColorBrightMagenta
	ColorBrightCyan
	ColorBrightWhite
	ColorOrange
	ColorGray
)

// tilePalette cycles as values double: 2, 4, 8, ... 2048, then repeats.
var tilePalette = [...]Color{
	ColorWhite,
	ColorBrightWhite,
	ColorYellow,
	ColorOrange,
	ColorBrightRed,
	ColorRed,
	ColorBrightYellow,
	ColorBrightGreen,
	ColorGreen,
	ColorBrightCyan,
	ColorBrightMagenta,
}

// TileColor picks the color for a tile value. Empty cells are gray.
func TileColor(value int) Color {
	if value < 2 {
		return ColorGray
	}
	exp := 0
	for v := value; v > 1; v >>= 1 {
		exp++
	}
	return tilePalette[(exp-1)%len(tilePalette)]
}
