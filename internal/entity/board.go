package entity

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// SquareState is the state of a board cell.
type SquareState int

const (
	SquareBlocked SquareState = iota
	SquareEmpty
	SquareOccupied
)

// Values used by the board report for squares without a piece.
const (
	ReportNull = "null"
	ReportOpen = "open"
)

// Stone is the permanently blocked center square.
var Stone = Position{X: 7, Y: 7}

var (
	ErrSquareUnavailable = errors.New("square is not available")
	ErrPieceIDs          = errors.New("piece ids must run from 1 without gaps")
	ErrBoardInconsistent = errors.New("board and unit list disagree")
)

// Square is one cell of the grid. An occupied square holds the id of its piece.
type Square struct {
	State   SquareState
	Pos     Position
	PieceID int
}

// SquareReport is the wire rendering of a square: {id, kind}.
type SquareReport struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

// Board owns the grid and the unit arena. Grid cells reference pieces by id,
// and units[id-1] is the piece with that id.
type Board struct {
	squares [BoardSize][BoardSize]Square
	units   []*Piece
}

// NewBoard returns a board with the standard starting layout.
func NewBoard() *Board {
	board := NewEmptyBoard()
	board.populateUnits()

	return board
}

// NewEmptyBoard returns a board with the fixed geometry and no pieces.
func NewEmptyBoard() *Board {
	board := &Board{}
	board.populateBlockedSquares()

	return board
}

// IsPlayable reports whether pos lies inside the octagon and is not the Stone.
func IsPlayable(pos Position) bool {
	if !pos.InBounds() || pos == Stone {
		return false
	}

	switch {
	case pos.X < 5:
		return pos.Y >= 5-pos.X && pos.Y < 10+pos.X
	case pos.X > 9:
		return pos.Y >= pos.X-9 && pos.Y < 24-pos.X
	default:
		return true
	}
}

func (that *Board) populateBlockedSquares() {
	for x := 0; x < BoardSize; x++ {
		for y := 0; y < BoardSize; y++ {
			pos := Position{X: x, Y: y}

			state := SquareBlocked
			if IsPlayable(pos) {
				state = SquareEmpty
			}

			that.squares[x][y] = Square{State: state, Pos: pos}
		}
	}
}

func (that *Board) populateUnits() {
	for x := 0; x < BoardSize; x++ {
		// the center row starts without dwarves
		if x == 7 {
			continue
		}

		for y := 0; y < BoardSize; y++ {
			pos := Position{X: x, Y: y}
			if that.squares[x][y].State == SquareBlocked {
				continue
			}

			if isDwarfStart(that, pos) {
				that.addPiece(KindDwarf, pos)
			}
		}
	}

	for x := Stone.X - 1; x <= Stone.X+1; x++ {
		for y := Stone.Y - 1; y <= Stone.Y+1; y++ {
			pos := Position{X: x, Y: y}
			if that.squares[x][y].State == SquareEmpty {
				that.addPiece(KindTroll, pos)
			}
		}
	}
}

// isDwarfStart reports whether pos is on the rim of its row, or one of the
// extra squares flanking the middle of the top and bottom rows.
func isDwarfStart(board *Board, pos Position) bool {
	switch {
	case pos.Y == 0 || pos.Y == BoardSize-1:
		return true
	case board.squares[pos.X][pos.Y-1].State == SquareBlocked,
		board.squares[pos.X][pos.Y+1].State == SquareBlocked:
		return true
	case (pos.X == 0 || pos.X == BoardSize-1) && (pos.Y == 6 || pos.Y == 8):
		return true
	default:
		return false
	}
}

func (that *Board) addPiece(kind Kind, pos Position) *Piece {
	piece := newPiece(len(that.units)+1, kind, pos)
	that.units = append(that.units, piece)
	that.squares[pos.X][pos.Y] = Square{State: SquareOccupied, Pos: pos, PieceID: piece.ID}

	return piece
}

// PlacePiece adds a new live piece on an empty square.
func (that *Board) PlacePiece(kind Kind, pos Position) (*Piece, error) {
	if !pos.InBounds() || that.squares[pos.X][pos.Y].State != SquareEmpty {
		return nil, fmt.Errorf("%w: %s", ErrSquareUnavailable, pos)
	}

	return that.addPiece(kind, pos), nil
}

// RestorePieces rebuilds the unit arena from saved pieces. Ids must be
// contiguous from 1. Live pieces occupy their squares, captured ones do not.
func (that *Board) RestorePieces(pieces []Piece) error {
	sorted := make([]Piece, len(pieces))
	copy(sorted, pieces)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	units := make([]*Piece, 0, len(sorted))
	for i := range sorted {
		piece := sorted[i]
		if piece.ID != i+1 {
			return fmt.Errorf("%w: expected %d, got %d", ErrPieceIDs, i+1, piece.ID)
		}

		piece.Moves = append([]Position(nil), piece.Moves...)
		units = append(units, &piece)
	}

	for _, piece := range units {
		if !piece.IsAlive() {
			continue
		}

		pos := piece.Position
		if !pos.InBounds() || that.squares[pos.X][pos.Y].State != SquareEmpty {
			return fmt.Errorf("%w: piece %d at %s", ErrSquareUnavailable, piece.ID, pos)
		}

		that.squares[pos.X][pos.Y] = Square{State: SquareOccupied, Pos: pos, PieceID: piece.ID}
	}

	that.units = units

	return nil
}

// Square returns the cell at pos. Out-of-range positions read as blocked.
func (that *Board) Square(pos Position) Square {
	if !pos.InBounds() {
		return Square{State: SquareBlocked, Pos: pos}
	}

	return that.squares[pos.X][pos.Y]
}

// InBounds reports whether pos lies on the 15x15 grid, blocked or not.
func (that *Board) InBounds(pos Position) bool {
	return pos.InBounds()
}

// GetPiece returns the live occupant of pos, if any.
func (that *Board) GetPiece(pos Position) (*Piece, bool) {
	square := that.Square(pos)
	if square.State != SquareOccupied {
		return nil, false
	}

	return that.Piece(square.PieceID)
}

// Piece looks a piece up by id, captured or not.
func (that *Board) Piece(id int) (*Piece, bool) {
	if id < 1 || id > len(that.units) {
		return nil, false
	}

	return that.units[id-1], true
}

// MovePieceOnBoard relocates piece to pos without checking legality.
func (that *Board) MovePieceOnBoard(piece *Piece, pos Position) {
	from := piece.Position
	that.squares[from.X][from.Y] = Square{State: SquareEmpty, Pos: from}
	that.squares[pos.X][pos.Y] = Square{State: SquareOccupied, Pos: pos, PieceID: piece.ID}

	piece.moveTo(pos)
}

// CapturePiece marks piece captured and empties its square.
// Callers must not capture the same piece twice.
func (that *Board) CapturePiece(piece *Piece) {
	pos := piece.Position
	that.squares[pos.X][pos.Y] = Square{State: SquareEmpty, Pos: pos}

	piece.capture()
}

// Units returns the arena ordered by id, including captured pieces.
func (that *Board) Units() []*Piece {
	return that.units
}

// LiveUnits returns how many live pieces of kind remain.
func (that *Board) LiveUnits(kind Kind) int {
	count := 0
	for _, piece := range that.units {
		if piece.Kind == kind && piece.IsAlive() {
			count++
		}
	}

	return count
}

// Report renders all squares in row-major order.
func (that *Board) Report() []SquareReport {
	report := make([]SquareReport, 0, BoardSize*BoardSize)

	for x := 0; x < BoardSize; x++ {
		for y := 0; y < BoardSize; y++ {
			square := that.squares[x][y]

			switch square.State {
			case SquareBlocked:
				report = append(report, SquareReport{ID: ReportNull, Kind: ReportNull})
			case SquareEmpty:
				report = append(report, SquareReport{ID: ReportNull, Kind: ReportOpen})
			case SquareOccupied:
				piece := that.units[square.PieceID-1]
				report = append(report, SquareReport{ID: strconv.Itoa(piece.ID), Kind: string(piece.Kind)})
			}
		}
	}

	return report
}

// CheckInvariants verifies that occupied squares and live pieces agree.
func (that *Board) CheckInvariants() error {
	live := 0

	for _, piece := range that.units {
		if !piece.IsAlive() {
			continue
		}

		live++

		square := that.Square(piece.Position)
		if square.State != SquareOccupied || square.PieceID != piece.ID {
			return fmt.Errorf("%w: piece %d not found at %s", ErrBoardInconsistent, piece.ID, piece.Position)
		}
	}

	occupied := 0
	for x := 0; x < BoardSize; x++ {
		for y := 0; y < BoardSize; y++ {
			if that.squares[x][y].State == SquareOccupied {
				occupied++
			}
		}
	}

	if occupied != live {
		return fmt.Errorf("%w: %d occupied squares, %d live pieces", ErrBoardInconsistent, occupied, live)
	}

	if that.squares[Stone.X][Stone.Y].State != SquareBlocked {
		return fmt.Errorf("%w: stone square is not blocked", ErrBoardInconsistent)
	}

	return nil
}
