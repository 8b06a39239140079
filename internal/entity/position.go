package entity

import (
	"encoding/json"
	"errors"
	"fmt"
)

// BoardSize is the number of rows and columns on a Thud board.
const BoardSize = 15

var ErrInvalidPosition = errors.New("position must be a pair of coordinates")

// Position is a board coordinate. X indexes the row, Y the column.
type Position struct {
	X int
	Y int
}

func NewPosition(x, y int) Position {
	return Position{X: x, Y: y}
}

func (that Position) InBounds() bool {
	return that.X >= 0 && that.X < BoardSize && that.Y >= 0 && that.Y < BoardSize
}

func (that Position) Add(dx, dy int) Position {
	return Position{X: that.X + dx, Y: that.Y + dy}
}

func (that Position) String() string {
	return fmt.Sprintf("%d,%d", that.X, that.Y)
}

// MarshalJSON encodes a position as [x, y].
func (that Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{that.X, that.Y})
}

func (that *Position) UnmarshalJSON(data []byte) error {
	var coords []int
	if err := json.Unmarshal(data, &coords); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}

	if len(coords) != 2 {
		return fmt.Errorf("%w: got %d values", ErrInvalidPosition, len(coords))
	}

	that.X, that.Y = coords[0], coords[1]

	return nil
}
