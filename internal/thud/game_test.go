package thud

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/thud-backend/internal/apperror"
	"github.com/rocketscienceinc/thud-backend/internal/entity"
)

const (
	dwarfToken = "dwarf-token"
	trollToken = "troll-token"
)

func newTestGame() *Game {
	return NewGame("gimli-ugluk",
		entity.NewPlayer("gimli", dwarfToken, entity.KindDwarf),
		entity.NewPlayer("ugluk", trollToken, entity.KindTroll),
	)
}

type step struct {
	token string
	start entity.Position
	dest  entity.Position
}

// openingSteps walks a troll towards the western dwarves while a dwarf
// shuffles along row 9.
var openingSteps = []step{
	{dwarfToken, pos(9, 0), pos(9, 1)},
	{trollToken, pos(6, 6), pos(6, 5)},
	{dwarfToken, pos(9, 1), pos(9, 2)},
	{trollToken, pos(6, 5), pos(6, 4)},
	{dwarfToken, pos(9, 2), pos(9, 3)},
	{trollToken, pos(6, 4), pos(6, 3)},
	{dwarfToken, pos(9, 3), pos(9, 4)},
	{trollToken, pos(6, 3), pos(6, 2)},
	{dwarfToken, pos(9, 4), pos(10, 4)},
}

func TestGame_Turns(t *testing.T) {
	t.Run("Troll cannot move first", func(t *testing.T) {
		// Given: a new game
		game := newTestGame()

		// When: the troll player tries to open
		result := game.ExecuteMove(trollToken, pos(6, 6), pos(5, 5), false)

		// Then: the move is rejected and nothing is recorded
		assert.Equal(t, Result{}, result)
		assert.Empty(t, game.Moves())
		assert.Equal(t, entity.KindDwarf, game.Turn())
	})

	t.Run("Dwarf opens and the turn passes", func(t *testing.T) {
		// Given: a new game
		game := newTestGame()

		// When: the dwarf player opens
		result := game.ExecuteMove(dwarfToken, pos(9, 0), pos(9, 1), false)

		// Then: the move is applied and it is the troll's turn
		assert.Equal(t, Result{OK: true}, result)
		assert.Equal(t, []Move{{Start: pos(9, 0), Destination: pos(9, 1)}}, game.Moves())
		assert.Equal(t, entity.KindTroll, game.Turn())
	})

	t.Run("A player cannot move the other side's pieces", func(t *testing.T) {
		game := newTestGame()

		assert.False(t, game.ExecuteMove(dwarfToken, pos(6, 6), pos(5, 5), false).OK)
		assert.False(t, game.ExecuteMove("", pos(9, 0), pos(9, 1), false).OK)
		assert.False(t, game.ExecuteMove(trollToken, pos(9, 0), pos(9, 1), false).OK)
		assert.Empty(t, game.Moves())
	})

	t.Run("Illegal moves leave the board unchanged", func(t *testing.T) {
		game := newTestGame()
		before := game.Report()

		assert.False(t, game.ExecuteMove(dwarfToken, pos(0, 5), pos(2, 6), false).OK)
		assert.False(t, game.ExecuteMove(dwarfToken, pos(7, 0), pos(7, 1), false).OK)
		assert.Equal(t, before, game.Report())
		assert.Empty(t, game.Moves())
	})
}

func TestGame_EndToEnd(t *testing.T) {
	// Given: a game after the opening sequence
	game := newTestGame()
	for i, s := range openingSteps {
		require.Equal(t, Result{OK: true}, game.ExecuteMove(s.token, s.start, s.dest, false), "step %d", i)
	}

	// When: the troll steps next to three dwarves
	result := game.ExecuteMove(trollToken, pos(6, 2), pos(5, 1), false)

	// Then: all three are captured and their squares are open
	assert.Equal(t, Result{OK: true, Captures: []entity.Position{pos(4, 1), pos(5, 0), pos(6, 0)}}, result)

	report := game.Report()
	for _, p := range result.Captures {
		assert.Equal(t, entity.SquareReport{ID: entity.ReportNull, Kind: entity.ReportOpen}, report[p.X*entity.BoardSize+p.Y])
	}

	assert.Len(t, game.Moves(), len(openingSteps)+1)

	dwarves, trolls := game.Score()
	assert.Equal(t, 29*DwarfValue, dwarves)
	assert.Equal(t, 8*TrollValue, trolls)
}

func TestGame_TestMode(t *testing.T) {
	t.Run("Test mode never changes state", func(t *testing.T) {
		// Given: a game one move before the capture
		game := newTestGame()
		for _, s := range openingSteps {
			game.ExecuteMove(s.token, s.start, s.dest, false)
		}

		before := game.Snapshot()

		// When: validating the capture many times
		var results []Result
		for i := 0; i < 5; i++ {
			results = append(results, game.ExecuteMove(trollToken, pos(6, 2), pos(5, 1), true))
		}

		// Then: every call reports the capture and the state is untouched
		for _, result := range results {
			assert.Equal(t, []entity.Position{pos(4, 1), pos(5, 0), pos(6, 0)}, result.Captures)
		}

		after := game.Snapshot()
		assert.Equal(t, before.Board, after.Board)
		assert.Equal(t, before.Moves, after.Moves)
		assert.Equal(t, before.Pieces, after.Pieces)
	})

	t.Run("Test mode rejects what a real move would reject", func(t *testing.T) {
		game := newTestGame()

		assert.False(t, game.ExecuteMove(trollToken, pos(6, 6), pos(5, 5), true).OK)
		assert.True(t, game.ExecuteMove(dwarfToken, pos(9, 0), pos(9, 1), true).OK)
		assert.Empty(t, game.Moves())
	})
}

func TestGame_Winner(t *testing.T) {
	// Given: a restored game with one dwarf and one troll, troll to move
	snapshot := Snapshot{
		ID: "last-stand",
		Players: [2]entity.Player{
			entity.NewPlayer("gimli", dwarfToken, entity.KindDwarf),
			entity.NewPlayer("ugluk", trollToken, entity.KindTroll),
		},
		Moves: []Move{{Start: pos(4, 0), Destination: pos(5, 0)}},
		Pieces: map[int]PieceRecord{
			1: {Kind: entity.KindDwarf, Status: entity.StatusAlive, X: 5, Y: 0},
			2: {Kind: entity.KindTroll, Status: entity.StatusAlive, X: 5, Y: 2},
		},
	}

	game, err := Restore(snapshot)
	require.NoError(t, err)

	_, over := game.Winner()
	require.False(t, over)

	// When: the troll takes the last dwarf
	result := game.ExecuteMove(trollToken, pos(5, 2), pos(5, 1), false)

	// Then: the trolls win and further moves are rejected
	assert.Equal(t, []entity.Position{pos(5, 0)}, result.Captures)

	winner, over := game.Winner()
	assert.True(t, over)
	assert.Equal(t, entity.KindTroll, winner)
	assert.False(t, game.ExecuteMove(dwarfToken, pos(5, 1), pos(5, 2), false).OK)

	record := game.Record()
	assert.Equal(t, entity.StatusFinished, record.Status)
	assert.Equal(t, "Troll", record.Winner)
	assert.Equal(t, 0, record.DwarfScore)
	assert.Equal(t, TrollValue, record.TrollScore)
	assert.Equal(t, 2, record.Moves)
}

func TestGame_Snapshot(t *testing.T) {
	t.Run("Restoring a snapshot reproduces the board and the turn", func(t *testing.T) {
		// Given: a game with some history, encoded and decoded as JSON
		game := newTestGame()
		for _, s := range openingSteps[:5] {
			game.ExecuteMove(s.token, s.start, s.dest, false)
		}

		data, err := json.Marshal(game.Snapshot())
		require.NoError(t, err)

		var snapshot Snapshot
		require.NoError(t, json.Unmarshal(data, &snapshot))

		// When: restoring it
		restored, err := Restore(snapshot)

		// Then: everything observable matches
		require.NoError(t, err)
		assert.Equal(t, game.Report(), restored.Report())
		assert.Equal(t, game.Turn(), restored.Turn())
		assert.Equal(t, game.Moves(), restored.Moves())
		assert.Equal(t, game.Players(), restored.Players())
		assert.Equal(t, game.LastAccessed().UnixNano(), restored.LastAccessed().UnixNano())

		// And: play continues on the restored game
		next := openingSteps[5]
		assert.True(t, restored.ExecuteMove(next.token, next.start, next.dest, false).OK)
	})

	t.Run("A board that disagrees with the pieces is rejected", func(t *testing.T) {
		// Given: a snapshot whose report was tampered with
		snapshot := newTestGame().Snapshot()
		snapshot.Board[5] = entity.SquareReport{ID: entity.ReportNull, Kind: entity.ReportOpen}

		// When: restoring it
		_, err := Restore(snapshot)

		// Then: it is reported as corrupt
		require.ErrorIs(t, err, apperror.ErrCorruptSnapshot)
	})

	t.Run("Two live pieces on one square are rejected", func(t *testing.T) {
		snapshot := newTestGame().Snapshot()
		record := snapshot.Pieces[2]
		record.X, record.Y = 0, 5
		snapshot.Pieces[2] = record
		snapshot.Board = nil

		_, err := Restore(snapshot)
		require.ErrorIs(t, err, apperror.ErrCorruptSnapshot)
	})
}

func TestGame_RecordAccess(t *testing.T) {
	// Given: a game driven by a fake clock
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	game := NewGame("a-b",
		entity.NewPlayer("a", dwarfToken, entity.KindDwarf),
		entity.NewPlayer("b", trollToken, entity.KindTroll),
		WithClock(func() time.Time { return now }),
	)
	require.True(t, game.LastAccessed().Equal(now))

	// When: the clock moves and a move is submitted
	now = now.Add(time.Minute)
	game.ExecuteMove(trollToken, pos(6, 6), pos(5, 5), true)

	// Then: the access time follows even for rejected test moves
	assert.True(t, game.LastAccessed().Equal(now))
}

func TestGame_Retire(t *testing.T) {
	t.Run("A retired game refuses moves", func(t *testing.T) {
		// Given: a game taken out of play
		game := newTestGame()
		game.Retire()

		// When: the dwarf submits a legal opening
		result := game.ExecuteMove(dwarfToken, pos(9, 0), pos(9, 1), false)

		// Then: nothing is committed
		assert.False(t, result.OK)
		assert.Empty(t, game.Moves())
		assert.True(t, game.IsRetired())
	})

	t.Run("Only idle games are retired", func(t *testing.T) {
		now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		game := NewGame("a-b",
			entity.NewPlayer("a", dwarfToken, entity.KindDwarf),
			entity.NewPlayer("b", trollToken, entity.KindTroll),
			WithClock(func() time.Time { return now }),
		)

		// When: the cutoff is before and then after the last access
		fresh := game.RetireIfIdle(now.Add(-time.Minute))
		idle := game.RetireIfIdle(now.Add(time.Minute))

		// Then: only the second call retires it
		assert.False(t, fresh)
		assert.True(t, idle)
		assert.False(t, game.ExecuteMove(dwarfToken, pos(9, 0), pos(9, 1), false).OK)
	})
}

func TestGame_ValidatePlayer(t *testing.T) {
	game := newTestGame()
	dwarf, ok := game.board.GetPiece(pos(9, 0))
	require.True(t, ok)

	assert.True(t, game.ValidatePlayer(dwarfToken, dwarf))
	assert.False(t, game.ValidatePlayer(trollToken, dwarf))
	assert.False(t, game.ValidatePlayer("", dwarf))
}

func TestResult_JSON(t *testing.T) {
	for _, tc := range []struct {
		name   string
		result Result
		want   string
	}{
		{name: "illegal", result: Result{}, want: "false"},
		{name: "move", result: Result{OK: true}, want: "true"},
		{name: "attack", result: Result{OK: true, Captures: []entity.Position{pos(4, 1), pos(5, 0)}}, want: "[[4,1],[5,0]]"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.result)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(data))

			var decoded Result
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tc.result, decoded)
		})
	}
}
