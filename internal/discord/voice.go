package discord

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"musicguy/internal/bot"
	"musicguy/internal/music/player"
	"musicguy/internal/music/resolver"
	"musicguy/internal/music/stream"
)

// Sessions exposes the per-guild session registry to the command layer.
func (b *Bot) Sessions() *player.Registry {
	return b.sessions
}

// ReleaseSession stops playback, drops the voice connection and removes the
// guild's session from the registry. Safe to call for guilds without one.
func (b *Bot) ReleaseSession(guildID string) {
	session, ok := b.sessions.Get(guildID)
	if !ok {
		return
	}
	if err := session.Leave(); err != nil && !errors.Is(err, player.ErrNotConnected) {
		b.log.Warn().Err(err).Str("guild", guildID).Msg("error leaving voice channel")
	}
	b.sessions.Remove(guildID)
}

// FindUserVoiceState locates the voice channel a user currently sits in.
func (b *Bot) FindUserVoiceState(guildID, userID string) (*bot.VoiceState, error) {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving guild: %w", err)
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return &bot.VoiceState{
				ChannelID: vs.ChannelID,
				UserID:    vs.UserID,
			}, nil
		}
	}
	return nil, errors.New("user not in any voice channel")
}

// Connect implements player.Transport over the gateway's voice support.
func (b *Bot) Connect(guildID, channelID string) (player.Conn, error) {
	vc, err := b.dg.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}
	return &voiceConn{vc: vc, ffmpegPath: b.cfg.FFmpegPath}, nil
}

// voiceConn streams resolved tracks over one discordgo voice connection.
type voiceConn struct {
	vc         *discordgo.VoiceConnection
	ffmpegPath string
}

func (c *voiceConn) Stream(track *resolver.ResolvedTrack, stop <-chan struct{}, paused func() bool) error {
	pcm, cleanup, err := stream.OpenPCM(c.ffmpegPath, track.StreamURL)
	if err != nil {
		return err
	}
	defer cleanup()

	err = stream.Send(pcm, c.vc, stop, paused)
	if errors.Is(err, stream.ErrStopped) {
		return nil
	}
	return err
}

func (c *voiceConn) Disconnect() error {
	return c.vc.Disconnect()
}
