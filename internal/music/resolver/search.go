package resolver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var (
	searchResultPattern = regexp.MustCompile(`"url":"/watch\?v=([a-zA-Z0-9_-]{11})`)

	ErrNoVideoMatch = errors.New("no video found for the given query")
)

// Search turns a plain-text query into the watch URL of the first YouTube
// search result by scraping the results page.
type Search struct {
	BaseURL string
	Client  *http.Client
}

func NewSearch() *Search {
	return &Search{
		BaseURL: "https://www.youtube.com",
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Search) FirstVideoURL(query string) (string, error) {
	searchURL := fmt.Sprintf("%s/results?search_query=%s", s.BaseURL, url.QueryEscape(query))

	resp, err := s.Client.Get(searchURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("youtube search failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	m := searchResultPattern.FindStringSubmatch(string(body))
	if len(m) < 2 {
		return "", ErrNoVideoMatch
	}
	return fmt.Sprintf("%s/watch?v=%s", s.BaseURL, m[1]), nil
}

// IsURL reports whether the input looks like a link rather than a search
// query.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

var youtubeURLPattern = regexp.MustCompile(`(?:https?://)?(?:www\.|music\.)?(youtube\.com|youtu\.be)/\S+`)

// IsYouTubeURL reports whether the input is a YouTube link of any shape.
func IsYouTubeURL(input string) bool {
	return youtubeURLPattern.MatchString(input)
}

// CleanVideoURL strips tracking and playlist parameters, keeping only the
// video id.
func CleanVideoURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	switch host := u.Hostname(); host {
	case "youtu.be":
		vid := strings.Trim(u.Path, "/")
		if vid == "" {
			return raw
		}
		return fmt.Sprintf("https://youtu.be/%s", vid)
	case "www.youtube.com", "youtube.com", "music.youtube.com":
		if u.Path == "/watch" {
			if vid := u.Query().Get("v"); vid != "" {
				return fmt.Sprintf("https://%s/watch?v=%s", host, vid)
			}
		}
		return raw
	default:
		return raw
	}
}
