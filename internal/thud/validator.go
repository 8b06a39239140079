package thud

import "github.com/rocketscienceinc/thud-backend/internal/entity"

// Outcome is the verdict of a validation. A legal outcome without captures is
// a plain move; with captures it is an attack.
type Outcome struct {
	Legal    bool
	Captures []entity.Position
}

var illegal = Outcome{}

func plainMove() Outcome {
	return Outcome{Legal: true}
}

func attack(captures []entity.Position) Outcome {
	return Outcome{Legal: true, Captures: captures}
}

func (that Outcome) IsAttack() bool {
	return that.Legal && len(that.Captures) > 0
}

// ValidateMove resolves the piece at start and checks whether it may go to dest.
func ValidateMove(board *entity.Board, start, dest entity.Position) Outcome {
	piece, ok := board.GetPiece(start)
	if !ok {
		return illegal
	}

	if !board.InBounds(dest) {
		return illegal
	}

	square := board.Square(dest)

	switch square.State {
	case entity.SquareBlocked:
		return illegal
	case entity.SquareOccupied:
		target, found := board.GetPiece(dest)
		// only a dwarf may land on an occupied square, and only to take a troll
		if !found || !piece.IsDwarf() || !target.IsTroll() {
			return illegal
		}

		captures := ValidateDwarfAttack(board, piece, target)
		if captures == nil {
			return illegal
		}

		return attack(captures)
	}

	if piece.IsDwarf() {
		if ValidateDwarfMove(board, piece, dest) {
			return plainMove()
		}

		return illegal
	}

	return ValidateTrollMoveOrAttack(board, piece, dest)
}

// ValidateClearPath reports whether from and to share a row, column or exact
// diagonal and every square strictly between them is empty.
func ValidateClearPath(board *entity.Board, from, to entity.Position) bool {
	dx, dy, steps, ok := line(from, to)
	if !ok {
		return false
	}

	for i := 1; i < steps; i++ {
		if board.Square(from.Add(dx*i, dy*i)).State != entity.SquareEmpty {
			return false
		}
	}

	return true
}

// ValidateDwarfMove checks a sliding move onto an empty square.
func ValidateDwarfMove(board *entity.Board, piece *entity.Piece, dest entity.Position) bool {
	return ValidateClearPath(board, piece.Position, dest)
}

// ValidateThrow reports whether the line of same-kind pieces directly behind
// the mover is at least as long as the distance to target.
func ValidateThrow(board *entity.Board, piece *entity.Piece, target entity.Position) bool {
	dx, dy, steps, ok := line(piece.Position, target)
	if !ok {
		return false
	}

	for i := 1; i <= steps; i++ {
		pos := piece.Position.Add(-dx*i, -dy*i)
		if !board.InBounds(pos) {
			return false
		}

		ally, found := board.GetPiece(pos)
		if !found || ally.Kind != piece.Kind {
			return false
		}
	}

	return true
}

// ValidateDwarfAttack returns the troll's position when the dwarf can be
// thrown onto it, nil otherwise.
func ValidateDwarfAttack(board *entity.Board, piece *entity.Piece, troll *entity.Piece) []entity.Position {
	if !ValidateThrow(board, piece, troll.Position) {
		return nil
	}

	if !ValidateClearPath(board, piece.Position, troll.Position) {
		return nil
	}

	return []entity.Position{troll.Position}
}

// FindAdjacentDwarves scans the 8 neighbours of dest in row-major order.
// The square at ignore is skipped.
func FindAdjacentDwarves(board *entity.Board, dest, ignore entity.Position) []entity.Position {
	var dwarves []entity.Position

	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}

			pos := dest.Add(dx, dy)
			if pos == ignore {
				continue
			}

			piece, ok := board.GetPiece(pos)
			if ok && piece.IsDwarf() {
				dwarves = append(dwarves, pos)
			}
		}
	}

	return dwarves
}

// ValidateTrollMoveOrAttack decides between a step, a step-attack and a shove.
// A single step next to dwarves always captures them.
func ValidateTrollMoveOrAttack(board *entity.Board, piece *entity.Piece, dest entity.Position) Outcome {
	if board.Square(dest).State != entity.SquareEmpty {
		return illegal
	}

	adjacent := FindAdjacentDwarves(board, dest, piece.Position)
	single := isSingleStep(piece.Position, dest)

	switch {
	case single && len(adjacent) > 0:
		return attack(adjacent)
	case single:
		return plainMove()
	case len(adjacent) > 0:
		if ValidateThrow(board, piece, dest) && ValidateClearPath(board, piece.Position, dest) {
			return attack(adjacent)
		}

		return illegal
	default:
		return illegal
	}
}

func isSingleStep(from, to entity.Position) bool {
	dx, dy := abs(to.X-from.X), abs(to.Y-from.Y)

	return max(dx, dy) == 1
}

// line returns the unit step from -> to and the number of steps, or false
// when the points are equal or not on a row, column or diagonal.
func line(from, to entity.Position) (int, int, int, bool) {
	dx, dy := to.X-from.X, to.Y-from.Y
	if dx == 0 && dy == 0 {
		return 0, 0, 0, false
	}

	if dx != 0 && dy != 0 && abs(dx) != abs(dy) {
		return 0, 0, 0, false
	}

	return sign(dx), sign(dy), max(abs(dx), abs(dy)), true
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
