package room

import (
	"sync"

	"github.com/google/uuid"
	"github.com/lukev/we_server/internal/game"
)

// Registry is the process-wide directory of live Rooms, keyed by game
// id. It is read-heavy (every admin call and websocket connect looks a
// room up) so it is guarded by a readers-writer lock.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	snapshot Snapshotter
	encode   func(v any) ([]byte, error)
	now      func() int64
}

// NewRegistry returns an empty Registry. snap may be nil to disable durability.
// now supplies the advisory creation timestamp (wall-clock millis);
// pass time.Now().UnixMilli in production and a fixed func in tests.
func NewRegistry(snap Snapshotter, encode func(v any) ([]byte, error), now func() int64) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		snapshot: snap,
		encode:   encode,
		now:      now,
	}
}

// Create mints a new game id and host token and installs an empty
// PhaseSubmissions Room for it.
func (reg *Registry) Create() *Room {
	g := game.NewGame(uuid.NewString(), uuid.NewString(), reg.now())
	r := New(g, reg.snapshot, reg.encode)

	reg.mu.Lock()
	reg.rooms[g.ID] = r
	reg.mu.Unlock()
	return r
}

// Get returns the Room for id, or (nil, false).
func (reg *Registry) Get(id string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[id]
	return r, ok
}

// All returns a point-in-time slice of every live Room, used by the
// Snapshot Store to build a consistent image of every game.
func (reg *Registry) All() []*Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		out = append(out, r)
	}
	return out
}

// Restore installs a Room wrapping an already-loaded Game, used by the
// Snapshot Store at startup.
func (reg *Registry) Restore(g *game.Game) {
	r := New(g, reg.snapshot, reg.encode)
	reg.mu.Lock()
	reg.rooms[g.ID] = r
	reg.mu.Unlock()
}
