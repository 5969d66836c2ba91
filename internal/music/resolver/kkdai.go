package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"time"

	_ "github.com/bdandy/go-socks4"
	youtube "github.com/kkdai/youtube/v2"
	"golang.org/x/net/proxy"

	"musicguy/internal/logging"
	"musicguy/pkg/limiter"
)

var videoIDPattern = regexp.MustCompile(`(?:v=|youtu\.be/|/shorts/)([a-zA-Z0-9_-]{11})`)

// KKDAI resolves YouTube tracks through the kkdai youtube library, without
// spawning an external process. It only understands YouTube URLs.
type KKDAI struct {
	client *youtube.Client
	lim    *limiter.Adaptive
}

// NewKKDAI builds the resolver. proxyStr optionally routes the HTTP client
// through an http(s), socks5 or socks4 proxy.
func NewKKDAI(proxyStr string, lim *limiter.Adaptive) *KKDAI {
	return &KKDAI{client: newYouTubeClient(proxyStr), lim: lim}
}

func (k *KKDAI) Resolve(ctx context.Context, pageURL string) (*ResolvedTrack, error) {
	videoID, err := extractVideoID(pageURL)
	if err != nil {
		return nil, err
	}

	if k.lim != nil {
		if err := k.lim.Wait(ctx); err != nil {
			return nil, err
		}
	}

	video, err := k.client.GetVideoContext(ctx, videoID)
	if err != nil {
		if k.lim != nil {
			k.lim.Failure()
		}
		return nil, fmt.Errorf("kkdai get video error: %w", err)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return nil, errors.New("kkdai: no audio formats found for video")
	}

	link, err := k.client.GetStreamURLContext(ctx, video, &formats[0])
	if err != nil {
		if k.lim != nil {
			k.lim.Failure()
		}
		return nil, fmt.Errorf("kkdai get stream URL error: %w", err)
	}

	if k.lim != nil {
		k.lim.Success()
	}
	log := logging.For("resolver")
	log.Debug().Str("url", pageURL).Str("title", video.Title).Msg("resolved via kkdai")

	return &ResolvedTrack{
		URL:           pageURL,
		StreamURL:     link,
		Title:         video.Title,
		Duration:      video.Duration,
		DurationLabel: FormatDuration(video.Duration),
	}, nil
}

func extractVideoID(pageURL string) (string, error) {
	m := videoIDPattern.FindStringSubmatch(pageURL)
	if len(m) < 2 {
		return "", fmt.Errorf("could not extract video id from %s", pageURL)
	}
	return m[1], nil
}

// newYouTubeClient builds the library's HTTP client, optionally behind a
// proxy. Unsupported or broken proxy settings fall back to a direct client.
func newYouTubeClient(proxyStr string) *youtube.Client {
	log := logging.For("resolver")

	direct := &http.Client{Timeout: 15 * time.Second}
	if proxyStr == "" {
		return &youtube.Client{HTTPClient: direct}
	}

	proxyURL, err := url.Parse(proxyStr)
	if err != nil {
		log.Warn().Err(err).Msg("invalid media proxy, using direct client")
		return &youtube.Client{HTTPClient: direct}
	}

	var transport *http.Transport

	switch proxyURL.Scheme {
	case "http", "https":
		transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	case "socks5":
		auth := &proxy.Auth{}
		if proxyURL.User != nil {
			auth.User = proxyURL.User.Username()
			if pass, ok := proxyURL.User.Password(); ok {
				auth.Password = pass
			}
		}
		dialer, err := proxy.SOCKS5("tcp", proxyURL.Host, auth, &net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 10 * time.Second,
		})
		if err != nil {
			log.Warn().Err(err).Msg("socks5 dialer error, using direct client")
			break
		}
		transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}
	case "socks4":
		dialer, err := proxy.FromURL(proxyURL, &net.Dialer{Timeout: 10 * time.Second})
		if err != nil {
			log.Warn().Err(err).Msg("socks4 dialer error, using direct client")
			break
		}
		transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}
	default:
		log.Warn().Str("scheme", proxyURL.Scheme).Msg("unsupported proxy scheme, using direct client")
	}

	if transport == nil {
		return &youtube.Client{HTTPClient: direct}
	}

	log.Info().Str("proxy", proxyStr).Msg("media proxy enabled")
	return &youtube.Client{
		HTTPClient: &http.Client{Timeout: 15 * time.Second, Transport: transport},
	}
}
