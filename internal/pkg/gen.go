package pkg

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// GenerateToken - generates a new random player token.
func GenerateToken() string {
	return uuid.NewString()
}

// GenerateSessionID - builds a session id from both player names. A non-zero
// suffix is appended to tell apart sessions between the same players.
func GenerateSessionID(playerOne, playerTwo string, suffix int64) string {
	id := strings.Join([]string{playerOne, playerTwo}, "-")
	if suffix > 0 {
		id += "-" + strconv.FormatInt(suffix, 10)
	}

	return id
}
