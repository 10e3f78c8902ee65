package entity

const EmptyCell = ""

// Board is a width x height grid indexed as board[x][y]. It is always derived from tiles.
type Board [][]string

func NewBoard(width, height int) Board {
	board := make(Board, width)
	for x := range board {
		board[x] = make([]string, height)
	}

	return board
}

// BoardFromTiles lays tiles onto an empty board, skipping tiles outside of it.
func BoardFromTiles(width, height int, tiles []Tile) Board {
	board := NewBoard(width, height)
	for _, tile := range tiles {
		if board.InBounds(tile.X, tile.Y) {
			board[tile.X][tile.Y] = tile.Value
		}
	}

	return board
}

func (that Board) Width() int {
	return len(that)
}

func (that Board) Height() int {
	if len(that) == 0 {
		return 0
	}

	return len(that[0])
}

func (that Board) InBounds(x, y int) bool {
	return x >= 0 && x < that.Width() && y >= 0 && y < that.Height()
}

func (that Board) IsEmpty(x, y int) bool {
	return that.InBounds(x, y) && that[x][y] == EmptyCell
}

func (that Board) IsFull() bool {
	for _, column := range that {
		for _, cell := range column {
			if cell == EmptyCell {
				return false
			}
		}
	}

	return true
}

// Cells converts the board to its wire form, where empty cells are null.
func (that Board) Cells() [][]*string {
	cells := make([][]*string, len(that))
	for x, column := range that {
		cells[x] = make([]*string, len(column))
		for y, value := range column {
			if value != EmptyCell {
				v := value
				cells[x][y] = &v
			}
		}
	}

	return cells
}
