package component

// ClientID identifies one connection for its whole lifetime. Ids are never
// reused while the process runs.
type ClientID uint64

// Player marks an entity controlled by a connected client.
type Player struct{}

// Owner binds a Player entity to the client that controls it.
type Owner struct {
	Client ClientID
}

// Nickname is the normalized display name chosen through C_JOIN.
type Nickname struct {
	Name string
}

// RemovalReason explains why a player left the world.
type RemovalReason uint8

const (
	RemovedKilled RemovalReason = iota + 1
	RemovedFell
	RemovedDisconnected
)

func (r RemovalReason) String() string {
	switch r {
	case RemovedKilled:
		return "killed"
	case RemovedFell:
		return "fell"
	case RemovedDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
