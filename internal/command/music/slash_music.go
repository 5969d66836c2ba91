package music

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"musicguy/internal/bot"
	"musicguy/internal/command"
	"musicguy/internal/music/player"
	"musicguy/internal/music/resolver"
)

// MusicCommand controls voice playback: joining, playing a single track,
// pausing and the queue view.
type MusicCommand struct{}

func (c *MusicCommand) Name() string        { return "music" }
func (c *MusicCommand) Description() string { return "Control music playback" }
func (c *MusicCommand) Category() string    { return "🎵 Music" }

func (c *MusicCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "join",
				Description: "Join your voice channel",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "leave",
				Description: "Leave the voice channel",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "play",
				Description: "Play a track from a link or search query",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "input",
						Description: "Link or search query",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "pause",
				Description: "Pause the current track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "resume",
				Description: "Resume the paused track",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "stop",
				Description: "Stop playback and disconnect",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "queue",
				Description: "Show the current queue",
			},
		},
	}
}

func (c *MusicCommand) Run(ctx interface{}) error {
	v, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil
	}

	if len(v.Event.ApplicationCommandData().Options) == 0 {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "Missing subcommand.",
		})
	}
	sub := v.Event.ApplicationCommandData().Options[0]

	switch sub.Name {
	case "join":
		return c.runJoin(v)
	case "leave":
		return c.runLeave(v)
	case "play":
		return c.runPlay(v, command.StringOption(sub, "input"))
	case "pause":
		return c.runPause(v)
	case "resume":
		return c.runResume(v)
	case "stop":
		return c.runStop(v)
	case "queue":
		return c.runQueue(v)
	default:
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Unknown subcommand: %s", sub.Name),
		})
	}
}

func (c *MusicCommand) runJoin(v *command.SlashContext) error {
	voiceState, err := v.Voice.FindUserVoiceState(v.Event.GuildID, v.UserID())
	if err != nil {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "You need to be in a voice channel!",
		})
	}

	session := v.Voice.Sessions().GetOrCreate(v.Event.GuildID)
	if err := session.Join(voiceState.ChannelID); err != nil {
		v.Voice.Sessions().Remove(v.Event.GuildID)
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Failed to join voice channel: %v", err),
		})
	}

	return bot.RespondEmbed(v.Session, v.Event, &discordgo.MessageEmbed{
		Description: "Joined your voice channel!",
	})
}

func (c *MusicCommand) runLeave(v *command.SlashContext) error {
	if _, ok := v.Voice.Sessions().Get(v.Event.GuildID); !ok {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "I am not connected to any voice channel!",
		})
	}
	v.Voice.ReleaseSession(v.Event.GuildID)
	return bot.RespondEmbed(v.Session, v.Event, &discordgo.MessageEmbed{
		Description: "👋 Left the voice channel!",
	})
}

// runPlay resolves the input up front so a dead link or an over-long track
// is rejected before anything is queued.
func (c *MusicCommand) runPlay(v *command.SlashContext, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "Input is required.",
		})
	}

	if err := bot.Defer(v.Session, v.Event); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}

	voiceState, err := v.Voice.FindUserVoiceState(v.Event.GuildID, v.UserID())
	if err != nil {
		bot.FollowupEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "You need to be in a voice channel!",
		})
		return nil
	}

	url, err := normalizeInput(v, input)
	if err != nil {
		bot.FollowupEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Error processing input: %v", err),
		})
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), v.Config.ResolveTimeout)
	resolved, err := v.Resolver.Resolve(ctx, url)
	cancel()
	if err != nil {
		bot.FollowupEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Error processing video: %v", err),
		})
		return nil
	}
	if err := player.CheckDuration(resolved.Duration); err != nil {
		bot.FollowupEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "Song is too long!",
		})
		return nil
	}

	session := v.Voice.Sessions().GetOrCreate(v.Event.GuildID)
	err = session.Play(voiceState.ChannelID, []player.Track{{
		Title:         resolved.Title,
		URL:           url,
		DurationLabel: resolved.DurationLabel,
	}})
	if err != nil {
		v.Voice.Sessions().Remove(v.Event.GuildID)
		bot.FollowupEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Failed to start playback: %v", err),
		})
		return nil
	}

	bot.FollowupEmbed(v.Session, v.Event, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("▶️ Now playing: **%s**", resolved.Title),
	})
	return nil
}

// normalizeInput turns plain text into a watch URL via search and strips
// tracking parameters off YouTube links.
func normalizeInput(v *command.SlashContext, input string) (string, error) {
	if !resolver.IsURL(input) {
		if v.Search == nil {
			return "", errors.New("search is not available")
		}
		return v.Search.FirstVideoURL(input)
	}
	if resolver.IsYouTubeURL(input) {
		return resolver.CleanVideoURL(input), nil
	}
	return input, nil
}

func (c *MusicCommand) runPause(v *command.SlashContext) error {
	session, ok := v.Voice.Sessions().Get(v.Event.GuildID)
	if !ok {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "No audio is currently playing!",
		})
	}
	if err := session.Pause(); err != nil {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "No audio is currently playing!",
		})
	}
	return bot.RespondEmbed(v.Session, v.Event, &discordgo.MessageEmbed{
		Description: "⏸️ Audio paused!",
	})
}

func (c *MusicCommand) runResume(v *command.SlashContext) error {
	session, ok := v.Voice.Sessions().Get(v.Event.GuildID)
	if !ok {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "No audio is currently paused!",
		})
	}
	if err := session.Resume(); err != nil {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "No audio is currently paused!",
		})
	}
	return bot.RespondEmbed(v.Session, v.Event, &discordgo.MessageEmbed{
		Description: "▶️ Audio resumed!",
	})
}

func (c *MusicCommand) runStop(v *command.SlashContext) error {
	v.Voice.ReleaseSession(v.Event.GuildID)
	return bot.RespondEmbed(v.Session, v.Event, &discordgo.MessageEmbed{
		Description: "⏹️ Stopped audio and disconnected from voice channel!",
	})
}

func (c *MusicCommand) runQueue(v *command.SlashContext) error {
	session, ok := v.Voice.Sessions().Get(v.Event.GuildID)
	if !ok {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "No songs in queue!",
		})
	}

	queue := session.Queue()
	current := session.Current()
	if current == nil && len(queue) == 0 {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "No songs in queue!",
		})
	}

	var b strings.Builder
	if current != nil {
		fmt.Fprintf(&b, "▶️ **%s** (%s)\n", current.Title, current.DurationLabel)
	}
	for i, track := range queue {
		if i == 10 {
			fmt.Fprintf(&b, "... and %d more songs", len(queue)-10)
			break
		}
		fmt.Fprintf(&b, "%d. **%s** (%s)\n", i+1, track.Title, track.DurationLabel)
	}

	return bot.RespondEmbed(v.Session, v.Event, &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎵 Current Queue (%d songs)", len(queue)),
		Description: b.String(),
	})
}
