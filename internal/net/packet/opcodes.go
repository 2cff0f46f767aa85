package packet

// Client → server opcodes.
const (
	C_OPCODE_JOIN   byte = 1
	C_OPCODE_MOVE   byte = 2
	C_OPCODE_ATTACK byte = 3
	C_OPCODE_ACK    byte = 4
)

// Server → client opcodes.
const (
	S_OPCODE_WELCOME    byte = 100
	S_OPCODE_RELIABLE   byte = 101
	S_OPCODE_UNRELIABLE byte = 102
	S_OPCODE_DISCONNECT byte = 103
)

// ComponentID is the stable wire id of a replicated component kind.
type ComponentID uint8

const (
	CompPlayer      ComponentID = 10
	CompOwner       ComponentID = 11
	CompHealth      ComponentID = 12
	CompDamageFlash ComponentID = 13
	CompZombie      ComponentID = 14
	CompTransform   ComponentID = 15
	CompMapMarker   ComponentID = 16
	CompTreeMarker  ComponentID = 17
	CompNickname    ComponentID = 18
)

// OpKind tags one reliable replication op. The numeric order is the order
// ops appear within a frame.
type OpKind uint8

const (
	OpPlayerRemoved OpKind = iota + 1
	OpDespawn
	OpSpawn
	OpInsert
	OpRemove
	OpUpdate
)

func (k OpKind) String() string {
	switch k {
	case OpPlayerRemoved:
		return "PlayerRemoved"
	case OpDespawn:
		return "Despawn"
	case OpSpawn:
		return "Spawn"
	case OpInsert:
		return "Insert"
	case OpRemove:
		return "Remove"
	case OpUpdate:
		return "Update"
	default:
		return "Unknown"
	}
}
