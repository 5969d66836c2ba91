package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "playlists.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func addSongs(t *testing.T, s *Storage, playlistID int, titles ...string) {
	t.Helper()
	for _, title := range titles {
		if err := s.AddSong(playlistID, "https://example.com/"+title, title, "3:00"); err != nil {
			t.Fatalf("AddSong(%q): %v", title, err)
		}
	}
}

func assertDensePositions(t *testing.T, s *Storage, playlistID int, wantLen int) []Song {
	t.Helper()
	songs, err := s.Songs(playlistID)
	if err != nil {
		t.Fatalf("Songs: %v", err)
	}
	if len(songs) != wantLen {
		t.Fatalf("got %d songs, want %d", len(songs), wantLen)
	}
	for i, song := range songs {
		if song.Position != i+1 {
			t.Fatalf("song %d has position %d, want %d", i, song.Position, i+1)
		}
	}
	return songs
}

func TestCreatePlaylistIdentityScoping(t *testing.T) {
	s := newTestStorage(t)

	if _, err := s.CreatePlaylist("X", "42", "7", false); err != nil {
		t.Fatalf("first private create: %v", err)
	}
	if _, err := s.CreatePlaylist("X", "42", "7", false); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate private create: got %v, want ErrAlreadyExists", err)
	}

	// A public playlist with the same name in the same guild lives in its own
	// namespace and must not conflict, even when created by another user.
	if _, err := s.CreatePlaylist("X", "99", "7", true); err != nil {
		t.Fatalf("public create with same name: %v", err)
	}
	if _, err := s.CreatePlaylist("X", "13", "7", true); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate public create: got %v, want ErrAlreadyExists", err)
	}

	// Same private name is fine for a different owner or guild.
	if _, err := s.CreatePlaylist("X", "43", "7", false); err != nil {
		t.Fatalf("private create by other owner: %v", err)
	}
	if _, err := s.CreatePlaylist("X", "42", "8", false); err != nil {
		t.Fatalf("private create in other guild: %v", err)
	}
}

func TestIdentityCounterIsSharedAndMonotonic(t *testing.T) {
	s := newTestStorage(t)

	p1, err := s.CreatePlaylist("a", "u", "g", false)
	if err != nil {
		t.Fatal(err)
	}
	addSongs(t, s, p1.ID, "one", "two")
	p2, err := s.CreatePlaylist("b", "u", "g", false)
	if err != nil {
		t.Fatal(err)
	}

	songs, _ := s.Songs(p1.ID)
	seen := map[int]bool{p1.ID: true, p2.ID: true}
	for _, song := range songs {
		if seen[song.ID] {
			t.Fatalf("id %d allocated twice", song.ID)
		}
		seen[song.ID] = true
	}
	if p2.ID <= songs[len(songs)-1].ID {
		t.Fatalf("ids not monotonic: playlist %d after song %d", p2.ID, songs[len(songs)-1].ID)
	}
}

func TestFindAndList(t *testing.T) {
	s := newTestStorage(t)

	s.CreatePlaylist("mine", "42", "7", false)
	s.CreatePlaylist("ours", "42", "7", true)
	s.CreatePlaylist("other", "99", "7", false)

	if p, _ := s.FindPrivate("mine", "42", "7"); p == nil {
		t.Fatal("FindPrivate missed an existing playlist")
	}
	if p, _ := s.FindPrivate("MINE", "42", "7"); p != nil {
		t.Fatal("FindPrivate must be case-sensitive")
	}
	if p, _ := s.FindPrivate("ours", "42", "7"); p != nil {
		t.Fatal("FindPrivate must not see public playlists")
	}
	if p, _ := s.FindPublic("ours", "7"); p == nil {
		t.Fatal("FindPublic missed an existing playlist")
	}

	private, _ := s.ListPrivate("42", "7")
	if len(private) != 1 || private[0].Name != "mine" {
		t.Fatalf("ListPrivate: got %v", private)
	}
	public, _ := s.ListPublic("7")
	if len(public) != 1 || public[0].Name != "ours" {
		t.Fatalf("ListPublic: got %v", public)
	}
}

func TestAddSongUnknownPlaylist(t *testing.T) {
	s := newTestStorage(t)
	if err := s.AddSong(12345, "u", "t", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	// Lenient lookup: listing an unknown playlist is empty, not an error.
	songs, err := s.Songs(12345)
	if err != nil {
		t.Fatalf("Songs: %v", err)
	}
	if len(songs) != 0 {
		t.Fatalf("got %d songs for unknown playlist", len(songs))
	}
}

func TestRemoveSongRenumbers(t *testing.T) {
	s := newTestStorage(t)
	p, _ := s.CreatePlaylist("p", "u", "g", false)
	addSongs(t, s, p.ID, "a", "b", "c", "d")

	songs := assertDensePositions(t, s, p.ID, 4)
	if err := s.RemoveSong(p.ID, songs[1].ID); err != nil {
		t.Fatalf("RemoveSong: %v", err)
	}

	songs = assertDensePositions(t, s, p.ID, 3)
	want := []string{"a", "c", "d"}
	for i, song := range songs {
		if song.Title != want[i] {
			t.Fatalf("position %d: got %q, want %q", i+1, song.Title, want[i])
		}
	}

	if err := s.RemoveSong(p.ID, 99999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("remove unknown song: got %v, want ErrNotFound", err)
	}
}

func TestMoveSong(t *testing.T) {
	s := newTestStorage(t)
	p, _ := s.CreatePlaylist("p", "u", "g", false)
	addSongs(t, s, p.ID, "a", "b", "c", "d")

	tests := []struct {
		name    string
		from    int
		to      int
		wantErr bool
		want    []string
	}{
		{"backwards move", 3, 1, false, []string{"c", "a", "b", "d"}},
		{"forward move", 1, 4, false, []string{"a", "b", "d", "c"}},
		{"from below range", 0, 2, true, nil},
		{"from above range", 5, 2, true, nil},
		{"to below range", 2, 0, true, nil},
		{"to above range", 2, 5, true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := s.Songs(p.ID)
			err := s.MoveSong(p.ID, tt.from, tt.to)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPosition) {
					t.Fatalf("got %v, want ErrInvalidPosition", err)
				}
				after := assertDensePositions(t, s, p.ID, len(before))
				for i := range before {
					if after[i].ID != before[i].ID {
						t.Fatal("rejected move must not mutate order")
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("MoveSong: %v", err)
			}
			songs := assertDensePositions(t, s, p.ID, 4)
			for i, song := range songs {
				if song.Title != tt.want[i] {
					t.Fatalf("position %d: got %q, want %q", i+1, song.Title, tt.want[i])
				}
			}
		})
	}
}

func TestShufflePreservesMultiset(t *testing.T) {
	s := newTestStorage(t)
	p, _ := s.CreatePlaylist("p", "u", "g", false)
	addSongs(t, s, p.ID, "a", "b", "c", "d", "e", "f", "g", "h")

	before, _ := s.Songs(p.ID)
	beforeIDs := map[int]int{}
	for _, song := range before {
		beforeIDs[song.ID]++
	}

	// No assumption about the resulting order, only that the multiset of
	// songs survives and positions stay dense.
	for i := 0; i < 5; i++ {
		if err := s.Shuffle(p.ID); err != nil {
			t.Fatalf("Shuffle: %v", err)
		}
		after := assertDensePositions(t, s, p.ID, len(before))
		afterIDs := map[int]int{}
		for _, song := range after {
			afterIDs[song.ID]++
		}
		for id, n := range beforeIDs {
			if afterIDs[id] != n {
				t.Fatalf("shuffle lost or duplicated song id %d", id)
			}
		}
	}
}

func TestRemovePlaylistOwnership(t *testing.T) {
	s := newTestStorage(t)
	p, _ := s.CreatePlaylist("keep", "42", "7", false)
	addSongs(t, s, p.ID, "a")

	deleted, err := s.RemovePlaylist(p.ID, "99")
	if err != nil {
		t.Fatalf("RemovePlaylist: %v", err)
	}
	if deleted {
		t.Fatal("non-owner must not delete a playlist")
	}
	if found, _ := s.FindPrivate("keep", "42", "7"); found == nil {
		t.Fatal("playlist must remain retrievable after denied delete")
	}

	deleted, err = s.RemovePlaylist(p.ID, "42")
	if err != nil || !deleted {
		t.Fatalf("owner delete: deleted=%v err=%v", deleted, err)
	}
	if found, _ := s.FindPrivate("keep", "42", "7"); found != nil {
		t.Fatal("playlist still present after delete")
	}
	songs, _ := s.Songs(p.ID)
	if len(songs) != 0 {
		t.Fatal("songs must be deleted with their playlist")
	}

	deleted, err = s.RemovePlaylist(99999, "42")
	if err != nil || deleted {
		t.Fatalf("missing playlist: deleted=%v err=%v", deleted, err)
	}
}

func TestLibrarySurvivesReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "playlists.json")

	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := s.CreatePlaylist("road-trip", "42", "7", false)
	addSongs(t, s, p.ID, "one", "two")
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	found, err := s2.FindPrivate("road-trip", "42", "7")
	if err != nil || found == nil {
		t.Fatalf("playlist lost across reload: %v %v", found, err)
	}
	songs := assertDensePositions(t, s2, found.ID, 2)
	if songs[0].Title != "one" || songs[1].Title != "two" {
		t.Fatalf("song order lost across reload: %v", songs)
	}

	// The counter must keep climbing after a reload so ids never collide.
	p2, err := s2.CreatePlaylist("next", "42", "7", false)
	if err != nil {
		t.Fatal(err)
	}
	if p2.ID <= songs[1].ID {
		t.Fatalf("identity counter regressed: %d after %d", p2.ID, songs[1].ID)
	}
}

func TestMutationSequenceKeepsDensity(t *testing.T) {
	s := newTestStorage(t)
	p, _ := s.CreatePlaylist("p", "u", "g", false)
	addSongs(t, s, p.ID, "a", "b", "c", "d", "e")

	s.Shuffle(p.ID)
	songs, _ := s.Songs(p.ID)
	s.RemoveSong(p.ID, songs[2].ID)
	s.MoveSong(p.ID, 1, 4)
	s.Shuffle(p.ID)
	addSongs(t, s, p.ID, "f")

	assertDensePositions(t, s, p.ID, 5)
}
