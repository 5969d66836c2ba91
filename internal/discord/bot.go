// Package discord wires the command layer, the playlist store and the music
// sessions to a live Discord gateway connection.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"musicguy/internal/command"
	"musicguy/internal/command/music"
	"musicguy/internal/command/playlist"
	"musicguy/internal/config"
	"musicguy/internal/logging"
	"musicguy/internal/music/player"
	"musicguy/internal/music/resolver"
	"musicguy/internal/storage"
	"musicguy/pkg/limiter"
)

// Bot owns the gateway session and everything hanging off it: the per-guild
// music sessions, the resolver chain and the playlist store.
type Bot struct {
	dg       *discordgo.Session
	store    *storage.Storage
	cfg      *config.Config
	sessions *player.Registry
	resolver resolver.Resolver
	search   *resolver.Search
	log      zerolog.Logger
}

func NewBot(cfg *config.Config, store *storage.Storage) *Bot {
	lim := limiter.New(2, 0.5, 5, 0.25, 0.5)

	b := &Bot{
		store: store,
		cfg:   cfg,
		resolver: resolver.NewChain(
			resolver.NewYTDLP(cfg.YTDLPPath, lim),
			resolver.NewKKDAI(cfg.MediaProxy, lim),
		),
		search: resolver.NewSearch(),
		log:    logging.For("discord"),
	}
	b.sessions = player.NewRegistry(func(guildID string) *player.Player {
		return player.New(guildID, b, b.resolver, cfg.ResolveTimeout)
	})

	b.registerCommandHandlers()
	return b
}

// registerCommandHandlers populates the command registry. The public playlist
// command is gated behind the configured management role; everything else
// only requires a guild context.
func (b *Bot) registerCommandHandlers() {
	command.Register(command.Apply(
		&music.MusicCommand{},
		command.WithGuildOnly(),
	))
	command.Register(command.Apply(
		&playlist.PlaylistCommand{},
		command.WithGuildOnly(),
	))
	command.Register(command.Apply(
		&playlist.PublicPlaylistCommand{},
		command.WithPrivilegedRole(
			b.hasManagementRole,
			fmt.Sprintf("You need the **%s** role to manage public playlists!", b.cfg.DJRoleName),
		),
		command.WithGuildOnly(),
	))
}

// Run opens the gateway session and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	b.dg = dg

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages

	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onInteractionCreate)
	dg.AddHandler(b.onVoiceStateUpdate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, cleaning up")
	b.shutdown()
	return nil
}

// shutdown disconnects every live voice session so guilds are not left with a
// silent bot sitting in a channel.
func (b *Bot) shutdown() {
	for _, guildID := range b.sessions.GuildIDs() {
		b.ReleaseSession(guildID)
	}
}
