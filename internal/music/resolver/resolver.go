// Package resolver turns a media URL into a playable stream reference plus
// title and duration. Two extractors are supported: the external yt-dlp
// binary and the kkdai youtube library; the chain tries each in order.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNoResolver = errors.New("no resolver could handle the track")

// ResolvedTrack is the result of a successful media resolution.
type ResolvedTrack struct {
	URL           string // the original page URL
	StreamURL     string // the direct audio stream
	Title         string
	Duration      time.Duration
	DurationLabel string // human form, e.g. "3:45"
}

// Resolver resolves one media page URL. Implementations must honor ctx so a
// hung extractor cannot stall queue advancement.
type Resolver interface {
	Resolve(ctx context.Context, url string) (*ResolvedTrack, error)
}

// Chain tries each resolver in order and returns the first success.
type Chain struct {
	resolvers []Resolver
}

func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{resolvers: resolvers}
}

func (c *Chain) Resolve(ctx context.Context, url string) (*ResolvedTrack, error) {
	var errs []error
	for _, r := range c.resolvers {
		track, err := r.Resolve(ctx, url)
		if err == nil {
			return track, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return nil, ErrNoResolver
	}
	return nil, fmt.Errorf("all resolvers failed for %s: %w", url, errors.Join(errs...))
}

// FormatDuration renders a duration the way players label tracks: m:ss, or
// h:mm:ss past the hour mark.
func FormatDuration(d time.Duration) string {
	total := int(d.Round(time.Second).Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
