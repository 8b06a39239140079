package entity

// Kind is the type of a piece. It also names the faction a player controls.
type Kind string

const (
	KindDwarf Kind = "Dwarf"
	KindTroll Kind = "Troll"
)

// Status tells whether a piece is still on the board.
type Status string

const (
	StatusAlive    Status = "Alive"
	StatusCaptured Status = "Captured"
)

// Piece is a single Dwarf or Troll. Pieces are owned by the Board's unit arena.
type Piece struct {
	ID       int
	Kind     Kind
	Position Position
	Status   Status
	Moves    []Position
}

func newPiece(id int, kind Kind, pos Position) *Piece {
	return &Piece{
		ID:       id,
		Kind:     kind,
		Position: pos,
		Status:   StatusAlive,
		Moves:    []Position{pos},
	}
}

func (that *Piece) IsAlive() bool {
	return that.Status == StatusAlive
}

func (that *Piece) IsDwarf() bool {
	return that.Kind == KindDwarf
}

func (that *Piece) IsTroll() bool {
	return that.Kind == KindTroll
}

func (that *Piece) moveTo(pos Position) {
	that.Position = pos
	that.Moves = append(that.Moves, pos)
}

func (that *Piece) capture() {
	that.Status = StatusCaptured
}
