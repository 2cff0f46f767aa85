package packet

import "github.com/vmihailenco/msgpack/v5"

// Join sets the display name of the sending client.
type Join struct {
	Name string `msgpack:"name"`
}

// Move is the latest movement intent. Direction is not normalized by the
// client; y > 0 requests a jump.
type Move struct {
	Direction [3]float32 `msgpack:"direction"`
	CameraYaw float32    `msgpack:"camera_yaw"`
}

// Ack tells the server the newest unreliable tick the client applied.
type Ack struct {
	Tick uint64 `msgpack:"tick"`
}

type Welcome struct {
	ClientID   uint64 `msgpack:"client_id"`
	TickHz     int    `msgpack:"tick_hz"`
	ServerName string `msgpack:"server_name"`
	Tick       uint64 `msgpack:"tick"`
}

type Disconnect struct {
	Reason string `msgpack:"reason"`
}

// ComponentValue carries one component. Value is empty for marker
// components and otherwise holds the msgpack body of the matching *Value
// struct below.
type ComponentValue struct {
	ID    ComponentID        `msgpack:"id"`
	Value msgpack.RawMessage `msgpack:"v,omitempty"`
}

// Op is one reliable structural change.
type Op struct {
	Kind       OpKind           `msgpack:"k"`
	Entity     uint64           `msgpack:"e"`
	Components []ComponentValue `msgpack:"c,omitempty"`
	Removed    []ComponentID    `msgpack:"r,omitempty"`
	Reason     string           `msgpack:"reason,omitempty"`
}

type ReliableFrame struct {
	Tick uint64 `msgpack:"tick"`
	Ops  []Op   `msgpack:"ops"`
}

// Update is the continuous state of one entity in an unreliable frame.
type Update struct {
	Entity     uint64           `msgpack:"e"`
	Components []ComponentValue `msgpack:"c"`
}

type UnreliableFrame struct {
	Tick    uint64   `msgpack:"tick"`
	Updates []Update `msgpack:"updates"`
}

// Component bodies.

type OwnerValue struct {
	Client uint64 `msgpack:"client"`
}

type HealthValue struct {
	Current float32 `msgpack:"current"`
	Max     float32 `msgpack:"max"`
}

type FlashValue struct {
	Timer float32 `msgpack:"timer"`
}

type TransformValue struct {
	Position [3]float32 `msgpack:"position"`
	Rotation [4]float32 `msgpack:"rotation"` // x, y, z, w
	Scale    [3]float32 `msgpack:"scale"`
}

type MapMarkerValue struct {
	Scale float32 `msgpack:"scale"`
}

type NicknameValue struct {
	Name string `msgpack:"name"`
}
