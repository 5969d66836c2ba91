package playlist

import (
	"fmt"
	"strings"
	"testing"

	"musicguy/internal/storage"
)

func TestRenderSongListTruncatesAtTen(t *testing.T) {
	songs := make([]storage.Song, 14)
	for i := range songs {
		songs[i] = storage.Song{
			Title:         fmt.Sprintf("song-%d", i+1),
			DurationLabel: "3:00",
			Position:      i + 1,
		}
	}

	out := renderSongList(songs)

	if !strings.Contains(out, "song-10") {
		t.Errorf("expected tenth song in output, got:\n%s", out)
	}
	if strings.Contains(out, "song-11") {
		t.Errorf("expected output truncated after ten songs, got:\n%s", out)
	}
	if !strings.Contains(out, "and 4 more songs") {
		t.Errorf("expected overflow note for 4 hidden songs, got:\n%s", out)
	}
}

func TestRenderSongListShort(t *testing.T) {
	songs := []storage.Song{
		{Title: "a", DurationLabel: "1:00", Position: 1},
		{Title: "b", DurationLabel: "2:00", Position: 2},
	}

	out := renderSongList(songs)

	if strings.Contains(out, "more songs") {
		t.Errorf("short list must not carry an overflow note, got:\n%s", out)
	}
	if !strings.Contains(out, "1. **a**") || !strings.Contains(out, "2. **b**") {
		t.Errorf("expected stored positions in output, got:\n%s", out)
	}
}

func TestRenderPlaylistList(t *testing.T) {
	playlists := []storage.Playlist{
		{Name: "chill"},
		{Name: "workout"},
	}

	out := renderPlaylistList(playlists)

	if !strings.Contains(out, "1. **chill**") || !strings.Contains(out, "2. **workout**") {
		t.Errorf("unexpected playlist rendering:\n%s", out)
	}
}
