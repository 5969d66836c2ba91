// Package player owns the per-guild playback state machine: one voice
// connection, one queue, sequential advancement with skip-on-failure.
package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"musicguy/internal/logging"
	"musicguy/internal/music/resolver"
)

// MaxTrackDuration is the hard cap on any single track, playlist entry or
// direct play alike. Longer tracks are rejected before they are queued.
const MaxTrackDuration = 600 * time.Second

var (
	ErrTrackTooLong = errors.New("track exceeds the duration cap")
	ErrNotPlaying   = errors.New("no track is currently playing")
	ErrNotPaused    = errors.New("no track is currently paused")
	ErrNotConnected = errors.New("not connected to a voice channel")
	ErrEmptyQueue   = errors.New("no tracks in queue")
)

// Track is one queued entry. Resolution to a playable stream happens lazily,
// right before the track starts.
type Track struct {
	Title         string
	URL           string
	DurationLabel string
}

// State of a guild session. A session only exists while a voice connection
// is held; Idle guilds simply have no Player in the registry.
type State string

const (
	StateEmpty   State = "empty" // connected, nothing playing
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// Conn is an established voice connection. Stream blocks until the track
// ends naturally, the stop channel is closed, or the transport fails.
type Conn interface {
	Stream(track *resolver.ResolvedTrack, stop <-chan struct{}, paused func() bool) error
	Disconnect() error
}

// Transport establishes voice connections. The Discord implementation lives
// in internal/discord.
type Transport interface {
	Connect(guildID, channelID string) (Conn, error)
}

// Player is the playback session for one guild. All state is guarded by mu;
// the generation counter invalidates in-flight work when a new play command
// or a stop supersedes it, so a stale resolution result can never resurrect
// a replaced queue.
type Player struct {
	mu        sync.Mutex
	guildID   string
	channelID string
	conn      Conn
	queue     []Track
	current   *Track
	state     State
	gen       uint64
	stop      chan struct{}
	done      chan struct{}

	resolver       resolver.Resolver
	transport      Transport
	resolveTimeout time.Duration
	log            zerolog.Logger
}

func New(guildID string, transport Transport, res resolver.Resolver, resolveTimeout time.Duration) *Player {
	if resolveTimeout <= 0 {
		resolveTimeout = 30 * time.Second
	}
	return &Player{
		guildID:        guildID,
		state:          StateEmpty,
		resolver:       res,
		transport:      transport,
		resolveTimeout: resolveTimeout,
		log:            logging.For("player").With().Str("guild", guildID).Logger(),
	}
}

// Join connects to the voice channel without starting playback.
func (p *Player) Join(channelID string) error {
	return p.ensureConnected(channelID)
}

// Play replaces the queue with tracks and starts playback from its first
// element, halting whatever was playing or paused before. This is
// replace-not-append: a new play command always supersedes the old queue.
func (p *Player) Play(channelID string, tracks []Track) error {
	if err := p.ensureConnected(channelID); err != nil {
		return err
	}

	p.mu.Lock()
	p.gen++
	gen := p.gen
	prevStop, prevDone := p.stop, p.done
	p.stop, p.done = nil, nil
	p.queue = append([]Track(nil), tracks...)
	p.current = nil
	p.state = StateEmpty
	p.mu.Unlock()

	haltPlayback(prevStop, prevDone)

	stop := make(chan struct{})
	done := make(chan struct{})
	p.mu.Lock()
	if p.gen != gen {
		// superseded before we even started
		p.mu.Unlock()
		close(done)
		return nil
	}
	p.stop, p.done = stop, done
	p.mu.Unlock()

	go p.playLoop(gen, stop, done)
	return nil
}

// playLoop advances through the queue sequentially. A track whose resolution
// fails is logged and skipped; the loop terminates once the queue is empty,
// so a queue full of dead links ends the session in the empty state instead
// of recursing forever. Natural track end continues the loop; stop and
// supersession exit it via the generation check.
func (p *Player) playLoop(gen uint64, stop chan struct{}, done chan struct{}) {
	defer close(done)

	for {
		p.mu.Lock()
		if p.gen != gen {
			p.mu.Unlock()
			return
		}
		if len(p.queue) == 0 {
			p.current = nil
			p.state = StateEmpty
			p.mu.Unlock()
			p.log.Debug().Msg("queue drained")
			return
		}
		track := p.queue[0]
		p.queue = p.queue[1:]
		conn := p.conn
		p.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), p.resolveTimeout)
		resolved, err := p.resolver.Resolve(ctx, track.URL)
		cancel()

		p.mu.Lock()
		if p.gen != gen {
			// a stop or a new play command fired while we were resolving;
			// discard the result rather than starting playback
			p.mu.Unlock()
			return
		}
		if err != nil {
			p.mu.Unlock()
			p.log.Warn().Err(err).Str("title", track.Title).Str("url", track.URL).
				Msg("skipping track, resolution failed")
			continue
		}
		p.current = &track
		p.state = StatePlaying
		p.mu.Unlock()

		p.log.Info().Str("title", resolved.Title).Msg("now playing")

		err = conn.Stream(resolved, stop, func() bool { return p.pausedFor(gen) })

		p.mu.Lock()
		if p.gen != gen {
			p.mu.Unlock()
			return
		}
		p.current = nil
		p.state = StateEmpty
		p.mu.Unlock()

		if err != nil {
			p.log.Warn().Err(err).Str("title", track.Title).Msg("stream ended with error")
		}
	}
}

func (p *Player) pausedFor(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen == gen && p.state == StatePaused
}

// Pause suspends the current track. Valid only while playing.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePlaying {
		return ErrNotPlaying
	}
	p.state = StatePaused
	return nil
}

// Resume continues a paused track. Valid only while paused.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePaused {
		return ErrNotPaused
	}
	p.state = StatePlaying
	return nil
}

// Stop halts any active stream and clears the queue. The voice connection is
// kept; Leave drops it.
func (p *Player) Stop() {
	p.mu.Lock()
	p.gen++
	prevStop, prevDone := p.stop, p.done
	p.stop, p.done = nil, nil
	p.queue = nil
	p.current = nil
	p.state = StateEmpty
	p.mu.Unlock()

	haltPlayback(prevStop, prevDone)
}

// Leave stops playback and releases the voice connection. The caller (the
// bot's session registry) removes the Player afterwards.
func (p *Player) Leave() error {
	p.Stop()

	p.mu.Lock()
	conn := p.conn
	p.conn = nil
	p.channelID = ""
	p.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}
	return conn.Disconnect()
}

// Reconnect attempts a single reconnect to the last known channel, used
// after an involuntary disconnect. It does not retry.
func (p *Player) Reconnect() error {
	p.mu.Lock()
	channelID := p.channelID
	p.mu.Unlock()

	if channelID == "" {
		return ErrNotConnected
	}

	conn, err := p.transport.Connect(p.guildID, channelID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()
	p.log.Info().Str("channel", channelID).Msg("reconnected to voice channel")
	return nil
}

// Connected reports whether the session holds a voice connection.
func (p *Player) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn != nil
}

// State returns the current playback state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Current returns the track being played or paused, or nil.
func (p *Player) Current() *Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	track := *p.current
	return &track
}

// Queue returns a copy of the pending tracks, excluding the current one.
func (p *Player) Queue() []Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Track(nil), p.queue...)
}

// ChannelID returns the voice channel this session is bound to.
func (p *Player) ChannelID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channelID
}

func (p *Player) ensureConnected(channelID string) error {
	p.mu.Lock()
	if p.conn != nil && p.channelID == channelID {
		p.mu.Unlock()
		return nil
	}
	old := p.conn
	p.mu.Unlock()

	if old != nil {
		old.Disconnect()
	}

	conn, err := p.transport.Connect(p.guildID, channelID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.conn = conn
	p.channelID = channelID
	p.mu.Unlock()
	return nil
}

// haltPlayback signals the previous playback loop and waits for it to wind
// down, so two loops never stream to the same connection at once.
func haltPlayback(stop, done chan struct{}) {
	if stop != nil {
		close(stop)
	}
	if done != nil {
		<-done
	}
}

// CheckDuration enforces the duration cap on a freshly resolved track.
func CheckDuration(d time.Duration) error {
	if d > MaxTrackDuration {
		return ErrTrackTooLong
	}
	return nil
}
