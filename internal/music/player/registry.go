package player

import "sync"

// Registry holds at most one Player per guild. It replaces the ambient
// per-guild maps of connection and queue state with a single accessor that
// enforces one-session-per-guild.
type Registry struct {
	mu      sync.Mutex
	players map[string]*Player
	factory func(guildID string) *Player
}

func NewRegistry(factory func(guildID string) *Player) *Registry {
	return &Registry{
		players: make(map[string]*Player),
		factory: factory,
	}
}

// GetOrCreate returns the guild's session, creating it on first use.
func (r *Registry) GetOrCreate(guildID string) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[guildID]; ok {
		return p
	}
	p := r.factory(guildID)
	r.players[guildID] = p
	return p
}

// Get returns the guild's session if one exists.
func (r *Registry) Get(guildID string) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[guildID]
	return p, ok
}

// GuildIDs returns the guilds that currently hold a session.
func (r *Registry) GuildIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	return ids
}

// Remove drops the guild's session. Subsequent commands re-create one from
// scratch.
func (r *Registry) Remove(guildID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, guildID)
}
