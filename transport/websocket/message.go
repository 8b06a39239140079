package websocket

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/thud-backend/internal/entity"
)

const (
	actionChallenge = "challenge"
	actionMove      = "move"

	eventList  = "list"
	eventStart = "start"
	eventMove  = "move"
	eventState = "state"
	eventError = "error"

	writeTimeout = 10 * time.Second
)

// Message is a client request.
type Message struct {
	Action      string           `json:"action"`
	Opponent    string           `json:"opponent,omitempty"`
	Game        string           `json:"game,omitempty"`
	Player      string           `json:"player,omitempty"`
	Start       *entity.Position `json:"start,omitempty"`
	Destination *entity.Position `json:"destination,omitempty"`
	Test        bool             `json:"test,omitempty"`
}

// client wraps a connection. gorilla allows one concurrent writer.
type client struct {
	name string
	conn *websocket.Conn

	writeMu sync.Mutex
}

func newClient(name string, conn *websocket.Conn) *client {
	return &client{
		name: name,
		conn: conn,
	}
}

// send writes an event as the pair [event, payload].
func (that *client) send(event string, payload any) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err := that.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.conn.WriteJSON([]any{event, payload}); err != nil {
		return fmt.Errorf("failed to write %s event: %w", event, err)
	}

	return nil
}
