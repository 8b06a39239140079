package entity

import "crypto/subtle"

// Player is one side of a session. The token authenticates the player's requests.
type Player struct {
	Name    string `json:"name"`
	Token   string `json:"token"`
	Faction Kind   `json:"faction"`
}

func NewPlayer(name, token string, faction Kind) Player {
	return Player{
		Name:    name,
		Token:   token,
		Faction: faction,
	}
}

// Authenticate reports whether token belongs to the player.
func (that Player) Authenticate(token string) bool {
	if token == "" || that.Token == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(that.Token), []byte(token)) == 1
}

// Controls reports whether the player may move the given piece.
func (that Player) Controls(piece *Piece) bool {
	return piece != nil && piece.Kind == that.Faction
}
