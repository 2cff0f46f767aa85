package world

import (
	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/geom"
)

// MoveCommand is the latest movement intent of one client.
type MoveCommand struct {
	Direction geom.Vec3
	CameraYaw float64
}

// Commands buffers one tick of decoded client input. Handlers fill it in
// the input phase; movement and combat consume it; Reset runs at tick end.
type Commands struct {
	moves     map[component.ClientID]MoveCommand
	moveOrder []component.ClientID
	attacks   []component.ClientID
}

func NewCommands() *Commands {
	return &Commands{
		moves: make(map[component.ClientID]MoveCommand),
	}
}

// Move records a move for client. A later move in the same tick replaces
// the earlier one.
func (c *Commands) Move(client component.ClientID, m MoveCommand) {
	if _, ok := c.moves[client]; !ok {
		c.moveOrder = append(c.moveOrder, client)
	}
	c.moves[client] = m
}

// Attack appends one attack by client. Every call is resolved once.
func (c *Commands) Attack(client component.ClientID) {
	c.attacks = append(c.attacks, client)
}

// EachMove visits moves in the order clients first moved this tick.
func (c *Commands) EachMove(fn func(component.ClientID, MoveCommand)) {
	for _, id := range c.moveOrder {
		fn(id, c.moves[id])
	}
}

func (c *Commands) Attacks() []component.ClientID { return c.attacks }

func (c *Commands) Reset() {
	clear(c.moves)
	c.moveOrder = c.moveOrder[:0]
	c.attacks = c.attacks[:0]
}
