package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"musicguy/internal/logging"
	"musicguy/pkg/limiter"
)

// YTDLP resolves tracks by shelling out to the yt-dlp binary with JSON
// output. Calls pass through an adaptive rate limiter so a failing site
// throttles the bot instead of being hammered.
type YTDLP struct {
	path string
	lim  *limiter.Adaptive
}

func NewYTDLP(path string, lim *limiter.Adaptive) *YTDLP {
	if path == "" {
		path = "yt-dlp"
	}
	return &YTDLP{path: path, lim: lim}
}

func (y *YTDLP) Resolve(ctx context.Context, url string) (*ResolvedTrack, error) {
	if y.lim != nil {
		if err := y.lim.Wait(ctx); err != nil {
			return nil, err
		}
	}

	cmd := exec.CommandContext(ctx, y.path, "-j", "-f", "bestaudio/best", "--no-playlist", url)
	output, err := cmd.Output()
	if err != nil {
		if y.lim != nil {
			y.lim.Failure()
		}
		return nil, fmt.Errorf("yt-dlp error: %w", err)
	}

	track, err := parseYTDLPInfo(output)
	if err != nil {
		if y.lim != nil {
			y.lim.Failure()
		}
		return nil, err
	}
	track.URL = url

	if y.lim != nil {
		y.lim.Success()
	}
	log := logging.For("resolver")
	log.Debug().Str("url", url).Str("title", track.Title).Msg("resolved via yt-dlp")
	return track, nil
}

func parseYTDLPInfo(output []byte) (*ResolvedTrack, error) {
	type fragment struct {
		Duration float64 `json:"duration"`
	}
	type format struct {
		URL       string     `json:"url"`
		Fragments []fragment `json:"fragments,omitempty"`
	}
	type ytdlpInfo struct {
		Title          string   `json:"title"`
		Duration       float64  `json:"duration"`
		DurationString string   `json:"duration_string"`
		Formats        []format `json:"formats"`
		URL            string   `json:"url"`
	}

	var info ytdlpInfo
	if err := json.Unmarshal(output, &info); err != nil {
		return nil, fmt.Errorf("yt-dlp json unmarshal error: %w", err)
	}

	// Some extractors report duration only on the first fragment of the
	// first format.
	if info.Duration == 0 && len(info.Formats) > 0 && len(info.Formats[0].Fragments) > 0 {
		info.Duration = info.Formats[0].Fragments[0].Duration
	}

	link := strings.TrimSpace(info.URL)
	if link == "" && len(info.Formats) > 0 {
		link = strings.TrimSpace(info.Formats[0].URL)
	}
	if link == "" {
		return nil, errors.New("empty stream URL returned from yt-dlp")
	}

	duration := time.Duration(info.Duration * float64(time.Second))
	label := info.DurationString
	if label == "" && duration > 0 {
		label = FormatDuration(duration)
	}

	return &ResolvedTrack{
		StreamURL:     link,
		Title:         info.Title,
		Duration:      duration,
		DurationLabel: label,
	}, nil
}
