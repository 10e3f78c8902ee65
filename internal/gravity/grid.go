package gravity

import "github.com/rocketscienceinc/fourinrow-backend/internal/entity"

// axes pairs each scan direction with its opposite: horizontal, vertical and both diagonals.
var axes = [4][2][2]int{
	{{1, 0}, {-1, 0}},
	{{0, 1}, {0, -1}},
	{{1, 1}, {-1, -1}},
	{{-1, 1}, {1, -1}},
}

// Evaluate reports whether the value just placed at (x, y) completes a line of lineTarget
// cells and the longest run through that cell.
func Evaluate(board entity.Board, lineTarget int, value string, x, y int) (bool, int) {
	longest := 1
	for _, axis := range axes {
		run := walk(board, lineTarget, value, x, y, axis[0][0], axis[0][1]) +
			walk(board, lineTarget, value, x, y, axis[1][0], axis[1][1]) - 1

		if run > longest {
			longest = run
		}
	}

	return longest >= lineTarget, longest
}

// walk counts contiguous cells holding value from (x, y) along (dx, dy), the start cell included.
// It stops early once lineTarget is reached.
func walk(board entity.Board, lineTarget int, value string, x, y, dx, dy int) int {
	count := 1
	for count < lineTarget {
		x, y = x+dx, y+dy
		if !board.InBounds(x, y) || board[x][y] != value {
			break
		}
		count++
	}

	return count
}

// LandingCell resolves where a token pushed into row from side comes to rest:
// the first unoccupied cell scanning from that side.
func LandingCell(board entity.Board, row int, side entity.Side) (entity.Cell, bool) {
	if row < 0 || row >= board.Height() {
		return entity.Cell{}, false
	}

	switch side {
	case entity.SideLeft:
		for x := 0; x < board.Width(); x++ {
			if board[x][row] == entity.EmptyCell {
				return entity.Cell{X: x, Y: row}, true
			}
		}
	case entity.SideRight:
		for x := board.Width() - 1; x >= 0; x-- {
			if board[x][row] == entity.EmptyCell {
				return entity.Cell{X: x, Y: row}, true
			}
		}
	}

	return entity.Cell{}, false
}

// EdgeMoves lists (row, left) for every row whose leftmost cell is empty and
// (row, right) for every row whose rightmost cell is empty.
func EdgeMoves(board entity.Board) []entity.Move {
	last := board.Width() - 1
	if last < 0 {
		return nil
	}

	var moves []entity.Move
	for row := 0; row < board.Height(); row++ {
		if board[0][row] == entity.EmptyCell {
			moves = append(moves, entity.Move{Row: row, Side: entity.SideLeft})
		}
		if board[last][row] == entity.EmptyCell {
			moves = append(moves, entity.Move{Row: row, Side: entity.SideRight})
		}
	}

	return moves
}

// OpenMoves lists every (row, side) that still has a landing cell.
func OpenMoves(board entity.Board) []entity.Move {
	var moves []entity.Move
	for row := 0; row < board.Height(); row++ {
		if _, ok := LandingCell(board, row, entity.SideLeft); ok {
			moves = append(moves,
				entity.Move{Row: row, Side: entity.SideLeft},
				entity.Move{Row: row, Side: entity.SideRight},
			)
		}
	}

	return moves
}
