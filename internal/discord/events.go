package discord

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	botpkg "musicguy/internal/bot"
	"musicguy/internal/command"
	"musicguy/internal/music/player"
)

// reconnectDelay is how long to wait after an involuntary voice disconnect
// before the single reconnect attempt.
const reconnectDelay = 5 * time.Second

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	botInfo, err := s.User("@me")
	if err != nil {
		b.log.Warn().Err(err).Msg("error retrieving bot user")
		return
	}

	if b.cfg.InitSlashCmds {
		for _, g := range r.Guilds {
			if err := b.registerCommands(g.ID); err != nil {
				b.log.Error().Err(err).Str("guild", g.ID).Msg("error registering slash commands")
			}
		}
	} else {
		b.log.Info().Msg("slash command registration skipped")
	}

	b.log.Info().Str("username", botInfo.Username).Msg("bot is running")
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.log.Info().Str("guild", g.Guild.ID).Str("name", g.Guild.Name).Msg("bot added to guild")

	if err := b.registerCommands(g.Guild.ID); err != nil {
		b.log.Error().Err(err).Str("guild", g.Guild.ID).Msg("failed to register commands for new guild")
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	cmdName := i.ApplicationCommandData().Name
	cmd, ok := command.Get(cmdName)
	if !ok {
		b.log.Warn().Str("command", cmdName).Msg("unknown command")
		return
	}

	ctx := &command.SlashContext{
		Session:  s,
		Event:    i,
		Store:    b.store,
		Config:   b.cfg,
		Voice:    b,
		Resolver: b.resolver,
		Search:   b.search,
	}
	if err := cmd.Run(ctx); err != nil {
		b.log.Error().Err(err).Str("command", cmdName).Msg("error running slash command")
		botpkg.RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Error running command: %v", err),
		})
	}
}

// onVoiceStateUpdate watches the bot's own voice state. When the connection
// drops while a session is live, one reconnect to the last channel is tried
// after a short delay; if that fails the session is torn down.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if vs.UserID != s.State.User.ID {
		return
	}
	if vs.ChannelID != "" {
		return
	}

	session, ok := b.sessions.Get(vs.GuildID)
	if !ok {
		return
	}

	guildID := vs.GuildID
	go func() {
		time.Sleep(reconnectDelay)

		// A voluntary leave may have removed the session in the meantime.
		session, ok := b.sessions.Get(guildID)
		if !ok {
			return
		}

		b.log.Info().Str("guild", guildID).Msg("voice connection lost, attempting reconnect")
		err := session.Reconnect()
		if err == nil {
			return
		}
		if !errors.Is(err, player.ErrNotConnected) {
			b.log.Warn().Err(err).Str("guild", guildID).Msg("reconnect failed, releasing session")
		}
		b.ReleaseSession(guildID)
	}()
}
