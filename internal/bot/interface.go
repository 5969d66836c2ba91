package bot

import "musicguy/internal/music/player"

// Voice is the interface the Discord bot provides to commands for
// voice/music control.
type Voice interface {
	// Sessions returns the per-guild playback session registry.
	Sessions() *player.Registry
	// FindUserVoiceState locates the voice channel a user is currently in.
	FindUserVoiceState(guildID, userID string) (*VoiceState, error)
	// ReleaseSession tears down and removes the guild's session.
	ReleaseSession(guildID string)
}

// VoiceState holds minimal voice channel state for a user.
type VoiceState struct {
	ChannelID string
	UserID    string
}
