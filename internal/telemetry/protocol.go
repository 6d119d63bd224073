package telemetry

import "github.com/vmihailenco/msgpack/v5"

// Frame types pushed by the server.
const (
	FrameStats  = "stats"
	FrameActors = "actors"
)

// Message types accepted from clients.
const (
	MsgWatch   = "watch"
	MsgUnwatch = "unwatch"
)

// Envelope wraps every outbound frame. Frames travel as msgpack binary
// messages; Data holds the typed payload for T.
type Envelope struct {
	T    string      `msgpack:"t"`
	Data interface{} `msgpack:"d,omitempty"`
}

// InEnvelope is the inbound counterpart. D stays raw so the payload is
// decoded once, after the type switch.
type InEnvelope struct {
	T string             `msgpack:"t"`
	D msgpack.RawMessage `msgpack:"d,omitempty"`
}

// WatchMsg narrows a client's actor feed to a circle. Radius <= 0 is
// treated as unwatch.
type WatchMsg struct {
	X      float64 `msgpack:"x"`
	Y      float64 `msgpack:"y"`
	Radius float64 `msgpack:"r"`
}

// StatsFrame is the periodic health snapshot: spatial index counters
// plus rolling simulation totals since boot.
type StatsFrame struct {
	Tick     uint64 `msgpack:"tick"`
	Actors   int    `msgpack:"actors"`
	Clients  int    `msgpack:"clients"`
	InFlight int    `msgpack:"in_flight"`

	// Spatial index counters.
	Cells     int    `msgpack:"cells"`
	Entities  int    `msgpack:"entities"`
	Pending   int    `msgpack:"pending"`
	Queries   uint64 `msgpack:"queries"`
	Relocates uint64 `msgpack:"relocates"`
	Flushes   uint64 `msgpack:"flushes"`
	Purged    uint64 `msgpack:"purged"`

	// Combat totals.
	Deaths  uint64 `msgpack:"deaths"`
	Impacts uint64 `msgpack:"impacts"`
	Sweeps  uint64 `msgpack:"sweeps"`
}

// ActorState is one actor in an ActorsFrame. Field names stay short on
// the wire; frames repeat every snapshot interval.
type ActorState struct {
	ID      uint64  `msgpack:"id"`
	Name    string  `msgpack:"n"`
	Faction uint8   `msgpack:"f"`
	Kind    uint8   `msgpack:"k"`
	X       float64 `msgpack:"x"`
	Y       float64 `msgpack:"y"`
	HP      int32   `msgpack:"hp"`
	MaxHP   int32   `msgpack:"mhp"`
	Dead    bool    `msgpack:"dead,omitempty"`
}

// ActorsFrame carries the actor feed, full-world or narrowed by watch.
type ActorsFrame struct {
	Tick    uint64       `msgpack:"tick"`
	Watched bool         `msgpack:"w,omitempty"`
	Actors  []ActorState `msgpack:"actors"`
}

// Encode marshals one frame into its wire form.
func Encode(t string, data interface{}) ([]byte, error) {
	return msgpack.Marshal(Envelope{T: t, Data: data})
}
