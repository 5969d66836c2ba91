package player

import (
	"path/filepath"
	"testing"
	"time"

	"musicguy/internal/storage"
)

// The full add-then-play path: songs are capped at add time, survive in dense
// positions, and stream in stored order.
func TestPlaylistAddAndPlayEndToEnd(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "playlists.json"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	defer store.Close()

	pl, err := store.CreatePlaylist("road trip", "user-1", "guild-1", false)
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}

	adds := []struct {
		url      string
		duration time.Duration
	}{
		{"https://youtu.be/aaaaaaaaaaa", 120 * time.Second},
		{"https://youtu.be/bbbbbbbbbbb", 700 * time.Second},
		{"https://youtu.be/ccccccccccc", 200 * time.Second},
	}
	for _, add := range adds {
		if err := CheckDuration(add.duration); err != nil {
			continue
		}
		if err := store.AddSong(pl.ID, add.url, add.url, "x:xx"); err != nil {
			t.Fatalf("AddSong(%s): %v", add.url, err)
		}
	}

	songs, err := store.Songs(pl.ID)
	if err != nil {
		t.Fatalf("Songs: %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("%d songs stored, want 2 (over-cap track rejected)", len(songs))
	}
	for i, song := range songs {
		if song.Position != i+1 {
			t.Fatalf("song %d has position %d, want %d", i, song.Position, i+1)
		}
	}

	conn := &fakeConn{}
	p, _ := newTestPlayer(&fakeResolver{}, conn)

	queued := make([]Track, 0, len(songs))
	for _, song := range songs {
		queued = append(queued, Track{Title: song.Title, URL: song.URL})
	}
	if err := p.Play("chan-1", queued); err != nil {
		t.Fatalf("Play: %v", err)
	}

	waitFor(t, func() bool { return p.State() == StateEmpty && len(conn.titles()) == 2 },
		"playlist did not play through")
	got := conn.titles()
	if got[0] != adds[0].url || got[1] != adds[2].url {
		t.Fatalf("streamed %v, want surviving songs in stored order", got)
	}
}
