package storage

import (
	"math/rand"
	"sort"
	"strconv"
	"time"
)

// Playlist is a named, ordered song list owned by one user in one guild.
// Private playlists are unique per (name, owner, guild); public ones are
// unique per (name, guild) among public playlists. The two namespaces never
// collide, even for identical names.
type Playlist struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	GuildID   string    `json:"guild_id"`
	IsPublic  bool      `json:"is_public"`
	CreatedAt time.Time `json:"created_at"`
}

// Song is one entry of a playlist. Positions are 1-based and stay dense
// (exactly 1..N) after every mutation.
type Song struct {
	ID            int    `json:"id"`
	PlaylistID    int    `json:"playlist_id"`
	URL           string `json:"url"`
	Title         string `json:"title"`
	DurationLabel string `json:"duration"`
	Position      int    `json:"position"`
}

// library is the whole persisted document: all playlists, their songs keyed
// by playlist id, and the identity counter shared across both entity kinds.
type library struct {
	Playlists []Playlist        `json:"playlists"`
	Songs     map[string][]Song `json:"songs"`
	NextID    int               `json:"next_id"`
}

func newLibrary() *library {
	return &library{
		Playlists: []Playlist{},
		Songs:     map[string][]Song{},
		NextID:    1,
	}
}

// nextID allocates the next identity before any other state changes, so ids
// never collide across playlists and songs.
func (l *library) nextID() int {
	id := l.NextID
	l.NextID++
	return id
}

func songsKey(playlistID int) string {
	return strconv.Itoa(playlistID)
}

// CreatePlaylist creates a private or public playlist. It fails with
// ErrAlreadyExists when the identity key is taken: for private playlists the
// key is (name, owner, guild) among private ones, for public playlists it is
// (name, guild) among public ones.
func (s *Storage) CreatePlaylist(name, ownerID, guildID string, public bool) (*Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, err := s.getOrCreateLibrary()
	if err != nil {
		return nil, err
	}

	for _, p := range lib.Playlists {
		if public {
			if p.IsPublic && p.Name == name && p.GuildID == guildID {
				return nil, ErrAlreadyExists
			}
		} else {
			if !p.IsPublic && p.Name == name && p.OwnerID == ownerID && p.GuildID == guildID {
				return nil, ErrAlreadyExists
			}
		}
	}

	pl := Playlist{
		ID:        lib.nextID(),
		Name:      name,
		OwnerID:   ownerID,
		GuildID:   guildID,
		IsPublic:  public,
		CreatedAt: time.Now(),
	}
	lib.Playlists = append(lib.Playlists, pl)
	lib.Songs[songsKey(pl.ID)] = []Song{}

	if err := s.save(lib); err != nil {
		return nil, err
	}
	return &pl, nil
}

// FindPrivate returns the caller's private playlist with the exact name, or
// nil when there is none.
func (s *Storage) FindPrivate(name, ownerID, guildID string) (*Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, err := s.getOrCreateLibrary()
	if err != nil {
		return nil, err
	}
	for _, p := range lib.Playlists {
		if !p.IsPublic && p.Name == name && p.OwnerID == ownerID && p.GuildID == guildID {
			pl := p
			return &pl, nil
		}
	}
	return nil, nil
}

// FindPublic returns the guild's public playlist with the exact name, or nil.
func (s *Storage) FindPublic(name, guildID string) (*Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, err := s.getOrCreateLibrary()
	if err != nil {
		return nil, err
	}
	for _, p := range lib.Playlists {
		if p.IsPublic && p.Name == name && p.GuildID == guildID {
			pl := p
			return &pl, nil
		}
	}
	return nil, nil
}

// ListPrivate returns the user's private playlists in the guild, in insertion
// order.
func (s *Storage) ListPrivate(ownerID, guildID string) ([]Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, err := s.getOrCreateLibrary()
	if err != nil {
		return nil, err
	}
	var out []Playlist
	for _, p := range lib.Playlists {
		if !p.IsPublic && p.OwnerID == ownerID && p.GuildID == guildID {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListPublic returns the guild's public playlists in insertion order.
func (s *Storage) ListPublic(guildID string) ([]Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, err := s.getOrCreateLibrary()
	if err != nil {
		return nil, err
	}
	var out []Playlist
	for _, p := range lib.Playlists {
		if p.IsPublic && p.GuildID == guildID {
			out = append(out, p)
		}
	}
	return out, nil
}

// AddSong appends a song at the end of the playlist (position = len+1).
func (s *Storage) AddSong(playlistID int, url, title, durationLabel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, err := s.getOrCreateLibrary()
	if err != nil {
		return err
	}

	key := songsKey(playlistID)
	songs, ok := lib.Songs[key]
	if !ok {
		return ErrNotFound
	}

	song := Song{
		ID:            lib.nextID(),
		PlaylistID:    playlistID,
		URL:           url,
		Title:         title,
		DurationLabel: durationLabel,
		Position:      len(songs) + 1,
	}
	lib.Songs[key] = append(songs, song)

	return s.save(lib)
}

// Songs returns the playlist's songs sorted ascending by position. An
// unknown playlist yields an empty slice, not an error.
func (s *Storage) Songs(playlistID int) ([]Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, err := s.getOrCreateLibrary()
	if err != nil {
		return nil, err
	}

	songs := append([]Song(nil), lib.Songs[songsKey(playlistID)]...)
	sort.Slice(songs, func(i, j int) bool { return songs[i].Position < songs[j].Position })
	return songs, nil
}

// RemovePlaylist deletes the playlist and all its songs, but only when the
// requester is the owner. The bool reports whether a deletion happened;
// owner mismatch or a missing playlist is (false, nil), not an error.
func (s *Storage) RemovePlaylist(playlistID int, requesterID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, err := s.getOrCreateLibrary()
	if err != nil {
		return false, err
	}

	for i, p := range lib.Playlists {
		if p.ID == playlistID && p.OwnerID == requesterID {
			lib.Playlists = append(lib.Playlists[:i], lib.Playlists[i+1:]...)
			delete(lib.Songs, songsKey(playlistID))
			if err := s.save(lib); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// RemoveSong removes one song by id and renumbers the remaining positions
// densely from 1.
func (s *Storage) RemoveSong(playlistID, songID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, err := s.getOrCreateLibrary()
	if err != nil {
		return err
	}

	key := songsKey(playlistID)
	songs := lib.Songs[key]
	for i, song := range songs {
		if song.ID == songID {
			songs = append(songs[:i], songs[i+1:]...)
			renumber(songs)
			lib.Songs[key] = songs
			return s.save(lib)
		}
	}
	return ErrNotFound
}

// MoveSong relocates the song at from to position to (both 1-based) and
// renumbers all positions densely. Either position outside [1, count] is
// rejected without mutating anything. from == to is a caller-level no-op and
// is rejected by the command layer, not here.
func (s *Storage) MoveSong(playlistID, from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, err := s.getOrCreateLibrary()
	if err != nil {
		return err
	}

	key := songsKey(playlistID)
	songs := lib.Songs[key]
	if from < 1 || from > len(songs) || to < 1 || to > len(songs) {
		return ErrInvalidPosition
	}

	song := songs[from-1]
	songs = append(songs[:from-1], songs[from:]...)
	songs = append(songs[:to-1], append([]Song{song}, songs[to-1:]...)...)
	renumber(songs)
	lib.Songs[key] = songs

	return s.save(lib)
}

// Shuffle randomly permutes the playlist's songs and renumbers positions
// 1..N. Shuffling an unknown or empty playlist is a harmless no-op.
func (s *Storage) Shuffle(playlistID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lib, err := s.getOrCreateLibrary()
	if err != nil {
		return err
	}

	key := songsKey(playlistID)
	songs := lib.Songs[key]
	rand.Shuffle(len(songs), func(i, j int) {
		songs[i], songs[j] = songs[j], songs[i]
	})
	renumber(songs)
	lib.Songs[key] = songs

	return s.save(lib)
}

func renumber(songs []Song) {
	for i := range songs {
		songs[i].Position = i + 1
	}
}
