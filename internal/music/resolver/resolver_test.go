package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseYTDLPInfo(t *testing.T) {
	tests := []struct {
		name      string
		json      string
		wantErr   bool
		wantURL   string
		wantTitle string
		wantDur   time.Duration
		wantLabel string
	}{
		{
			name:      "root url and duration",
			json:      `{"title":"Song A","duration":185,"duration_string":"3:05","url":"https://cdn.example/a"}`,
			wantURL:   "https://cdn.example/a",
			wantTitle: "Song A",
			wantDur:   185 * time.Second,
			wantLabel: "3:05",
		},
		{
			name:      "url from first format",
			json:      `{"title":"Song B","duration":60,"formats":[{"url":"https://cdn.example/b"}]}`,
			wantURL:   "https://cdn.example/b",
			wantTitle: "Song B",
			wantDur:   time.Minute,
			wantLabel: "1:00",
		},
		{
			name:      "duration from fragment fallback",
			json:      `{"title":"Live","formats":[{"url":"https://cdn.example/c","fragments":[{"duration":42.5}]}]}`,
			wantURL:   "https://cdn.example/c",
			wantTitle: "Live",
			wantDur:   time.Duration(42.5 * float64(time.Second)),
			wantLabel: "0:43",
		},
		{
			name:    "no stream url",
			json:    `{"title":"Broken","duration":10}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			json:    `not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track, err := parseYTDLPInfo([]byte(tt.json))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseYTDLPInfo: %v", err)
			}
			if track.StreamURL != tt.wantURL {
				t.Errorf("StreamURL = %q, want %q", track.StreamURL, tt.wantURL)
			}
			if track.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", track.Title, tt.wantTitle)
			}
			if track.Duration != tt.wantDur {
				t.Errorf("Duration = %v, want %v", track.Duration, tt.wantDur)
			}
			if track.DurationLabel != tt.wantLabel {
				t.Errorf("DurationLabel = %q, want %q", track.DurationLabel, tt.wantLabel)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{59 * time.Second, "0:59"},
		{2*time.Minute + 5*time.Second, "2:05"},
		{10 * time.Minute, "10:00"},
		{time.Hour + 4*time.Minute + 9*time.Second, "1:04:09"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ?t=10", "dQw4w9WgXcQ", false},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://example.com/video", "", true},
	}
	for _, tt := range tests {
		got, err := extractVideoID(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("extractVideoID(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("extractVideoID(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestCleanVideoURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.youtube.com/watch?v=abc123&list=PL9&index=4", "https://www.youtube.com/watch?v=abc123"},
		{"https://youtu.be/abc123?t=55", "https://youtu.be/abc123"},
		{"https://music.youtube.com/watch?v=abc123&si=xyz", "https://music.youtube.com/watch?v=abc123"},
		{"https://example.com/watch?v=abc123", "https://example.com/watch?v=abc123"},
	}
	for _, tt := range tests {
		if got := CleanVideoURL(tt.in); got != tt.want {
			t.Errorf("CleanVideoURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSearchFirstVideoURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search_query") == "" {
			http.Error(w, "missing query", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `... {"url":"/watch?v=abcdefghijk","foo":1} ...`)
	}))
	defer srv.Close()

	s := &Search{BaseURL: srv.URL, Client: srv.Client()}
	got, err := s.FirstVideoURL("some song")
	if err != nil {
		t.Fatalf("FirstVideoURL: %v", err)
	}
	want := srv.URL + "/watch?v=abcdefghijk"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSearchNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>nothing here</html>`)
	}))
	defer srv.Close()

	s := &Search{BaseURL: srv.URL, Client: srv.Client()}
	if _, err := s.FirstVideoURL("q"); !errors.Is(err, ErrNoVideoMatch) {
		t.Fatalf("got %v, want ErrNoVideoMatch", err)
	}
}

type stubResolver struct {
	track *ResolvedTrack
	err   error
	calls int
}

func (s *stubResolver) Resolve(ctx context.Context, url string) (*ResolvedTrack, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.track, nil
}

func TestChainFallsThroughToNextResolver(t *testing.T) {
	failing := &stubResolver{err: errors.New("boom")}
	working := &stubResolver{track: &ResolvedTrack{Title: "ok", StreamURL: "s"}}

	chain := NewChain(failing, working)
	track, err := chain.Resolve(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if track.Title != "ok" {
		t.Fatalf("got track %q from the wrong resolver", track.Title)
	}
	if failing.calls != 1 || working.calls != 1 {
		t.Fatalf("unexpected call counts: %d, %d", failing.calls, working.calls)
	}
}

func TestChainAllFail(t *testing.T) {
	chain := NewChain(&stubResolver{err: errors.New("a")}, &stubResolver{err: errors.New("b")})
	if _, err := chain.Resolve(context.Background(), "u"); err == nil {
		t.Fatal("expected error when every resolver fails")
	}
}

func TestChainStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	second := &stubResolver{track: &ResolvedTrack{}}
	chain := NewChain(&stubResolver{err: context.Canceled}, second)
	if _, err := chain.Resolve(ctx, "u"); err == nil {
		t.Fatal("expected error")
	}
	if second.calls != 0 {
		t.Fatal("chain must not keep trying once the context is done")
	}
}
