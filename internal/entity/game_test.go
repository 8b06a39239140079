package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoard_Layout(t *testing.T) {
	t.Run("Creates 32 dwarves and 8 trolls with ids 1..40", func(t *testing.T) {
		// Given: a new board
		board := NewBoard()

		// When: listing the units
		units := board.Units()

		// Then: dwarves come first and trolls follow
		require.Len(t, units, 40)
		for i, piece := range units {
			assert.Equal(t, i+1, piece.ID)
			assert.True(t, piece.IsAlive())

			if i < 32 {
				assert.Equal(t, KindDwarf, piece.Kind)
			} else {
				assert.Equal(t, KindTroll, piece.Kind)
			}
		}

		assert.Equal(t, 32, board.LiveUnits(KindDwarf))
		assert.Equal(t, 8, board.LiveUnits(KindTroll))
	})

	t.Run("Places trolls around the stone", func(t *testing.T) {
		// Given: a new board
		board := NewBoard()

		// When: reading the 3x3 block around the stone
		// Then: every square except the stone holds a troll
		for x := 6; x <= 8; x++ {
			for y := 6; y <= 8; y++ {
				pos := NewPosition(x, y)
				piece, ok := board.GetPiece(pos)

				if pos == Stone {
					assert.False(t, ok)
					assert.Equal(t, SquareBlocked, board.Square(pos).State)
					continue
				}

				require.True(t, ok, pos.String())
				assert.True(t, piece.IsTroll())
			}
		}
	})

	t.Run("Places dwarves on the rim", func(t *testing.T) {
		// Given: a new board
		board := NewBoard()

		// Then: the expected rim squares hold dwarves
		for _, pos := range []Position{
			{0, 5}, {0, 6}, {0, 8}, {0, 9},
			{1, 4}, {1, 10}, {4, 1}, {4, 13},
			{5, 0}, {5, 14}, {6, 0}, {9, 14},
			{10, 1}, {13, 4}, {14, 5}, {14, 6}, {14, 8}, {14, 9},
		} {
			piece, ok := board.GetPiece(pos)
			require.True(t, ok, pos.String())
			assert.True(t, piece.IsDwarf(), pos.String())
		}

		// And: the middle of the edge rows and row 7 stay open
		for _, pos := range []Position{{0, 7}, {14, 7}, {7, 0}, {7, 14}} {
			_, ok := board.GetPiece(pos)
			assert.False(t, ok, pos.String())
			assert.Equal(t, SquareEmpty, board.Square(pos).State)
		}
	})

	t.Run("Blocks only the corner triangles and the stone", func(t *testing.T) {
		// Given: a new board
		board := NewBoard()

		// When: counting blocked squares
		blocked := 0
		for x := 0; x < BoardSize; x++ {
			for y := 0; y < BoardSize; y++ {
				if board.Square(NewPosition(x, y)).State == SquareBlocked {
					blocked++
				}
			}
		}

		// Then: four triangles of 15 squares plus the stone
		assert.Equal(t, 4*15+1, blocked)
		assert.Equal(t, SquareBlocked, board.Square(NewPosition(0, 0)).State)
		assert.Equal(t, SquareBlocked, board.Square(NewPosition(0, 4)).State)
		assert.Equal(t, SquareBlocked, board.Square(NewPosition(4, 0)).State)
		assert.Equal(t, SquareBlocked, board.Square(NewPosition(14, 14)).State)
		assert.Equal(t, SquareBlocked, board.Square(NewPosition(-1, 3)).State)
		require.NoError(t, board.CheckInvariants())
	})
}

func TestBoard_MoveAndCapture(t *testing.T) {
	t.Run("Moving a piece updates both squares and history", func(t *testing.T) {
		// Given: a dwarf on a new board
		board := NewBoard()
		piece, ok := board.GetPiece(NewPosition(9, 0))
		require.True(t, ok)

		// When: moving it one square right
		board.MovePieceOnBoard(piece, NewPosition(9, 1))

		// Then: the source is empty and the destination holds the piece
		assert.Equal(t, SquareEmpty, board.Square(NewPosition(9, 0)).State)
		moved, ok := board.GetPiece(NewPosition(9, 1))
		require.True(t, ok)
		assert.Equal(t, piece.ID, moved.ID)
		assert.Equal(t, []Position{{9, 0}, {9, 1}}, piece.Moves)
		require.NoError(t, board.CheckInvariants())
	})

	t.Run("Captured pieces leave the grid but stay in the arena", func(t *testing.T) {
		// Given: a troll on a new board
		board := NewBoard()
		troll, ok := board.GetPiece(NewPosition(6, 6))
		require.True(t, ok)

		// When: capturing it
		board.CapturePiece(troll)

		// Then: the square is empty and the piece is still listed
		_, ok = board.GetPiece(NewPosition(6, 6))
		assert.False(t, ok)
		assert.Equal(t, StatusCaptured, troll.Status)
		assert.Len(t, board.Units(), 40)
		assert.Equal(t, 7, board.LiveUnits(KindTroll))
		require.NoError(t, board.CheckInvariants())
	})
}

func TestBoard_PlaceAndRestore(t *testing.T) {
	t.Run("PlacePiece rejects blocked and occupied squares", func(t *testing.T) {
		// Given: an empty board
		board := NewEmptyBoard()

		// When: placing on the stone and then twice on the same square
		_, errStone := board.PlacePiece(KindDwarf, Stone)
		_, errFirst := board.PlacePiece(KindDwarf, NewPosition(3, 3))
		_, errSecond := board.PlacePiece(KindTroll, NewPosition(3, 3))

		// Then: only the first placement on an empty square succeeds
		require.ErrorIs(t, errStone, ErrSquareUnavailable)
		require.NoError(t, errFirst)
		require.ErrorIs(t, errSecond, ErrSquareUnavailable)
	})

	t.Run("RestorePieces rejects gaps in ids", func(t *testing.T) {
		// Given: pieces with ids 1 and 3
		board := NewEmptyBoard()
		pieces := []Piece{
			{ID: 1, Kind: KindDwarf, Position: NewPosition(5, 0), Status: StatusAlive},
			{ID: 3, Kind: KindTroll, Position: NewPosition(6, 6), Status: StatusAlive},
		}

		// When: restoring them
		err := board.RestorePieces(pieces)

		// Then: the restore fails
		require.ErrorIs(t, err, ErrPieceIDs)
	})

	t.Run("RestorePieces leaves captured pieces off the grid", func(t *testing.T) {
		// Given: a live dwarf and a captured troll that share a square
		board := NewEmptyBoard()
		pieces := []Piece{
			{ID: 2, Kind: KindTroll, Position: NewPosition(5, 0), Status: StatusCaptured},
			{ID: 1, Kind: KindDwarf, Position: NewPosition(5, 0), Status: StatusAlive},
		}

		// When: restoring them
		err := board.RestorePieces(pieces)

		// Then: the dwarf occupies the square
		require.NoError(t, err)
		piece, ok := board.GetPiece(NewPosition(5, 0))
		require.True(t, ok)
		assert.Equal(t, 1, piece.ID)
		require.NoError(t, board.CheckInvariants())
	})
}

func TestBoard_Report(t *testing.T) {
	// Given: a new board
	board := NewBoard()

	// When: rendering the report
	report := board.Report()

	// Then: squares come in row-major order
	require.Len(t, report, BoardSize*BoardSize)
	assert.Equal(t, SquareReport{ID: ReportNull, Kind: ReportNull}, report[0])
	assert.Equal(t, SquareReport{ID: "1", Kind: "Dwarf"}, report[5])
	assert.Equal(t, SquareReport{ID: ReportNull, Kind: ReportOpen}, report[7])
	assert.Equal(t, SquareReport{ID: ReportNull, Kind: ReportNull}, report[7*BoardSize+7])

	data, err := json.Marshal(report[5])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","kind":"Dwarf"}`, string(data))
}

func TestPosition_JSON(t *testing.T) {
	t.Run("Encodes as a two element array", func(t *testing.T) {
		data, err := json.Marshal(NewPosition(4, 11))
		require.NoError(t, err)
		assert.Equal(t, "[4,11]", string(data))
	})

	t.Run("Rejects arrays of the wrong length", func(t *testing.T) {
		var pos Position
		err := json.Unmarshal([]byte("[1,2,3]"), &pos)
		require.ErrorIs(t, err, ErrInvalidPosition)
	})
}

func TestPlayer_Authenticate(t *testing.T) {
	// Given: a dwarf player
	player := NewPlayer("gimli", "secret", KindDwarf)

	// Then: only the exact token authenticates
	assert.True(t, player.Authenticate("secret"))
	assert.False(t, player.Authenticate("other"))
	assert.False(t, player.Authenticate(""))
	assert.True(t, player.Controls(&Piece{Kind: KindDwarf}))
	assert.False(t, player.Controls(&Piece{Kind: KindTroll}))
	assert.False(t, player.Controls(nil))
}
