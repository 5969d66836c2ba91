package playlist

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
	"musicguy/internal/storage"
)

// PlaylistCommand manages a user's private playlists and plays them. Playback
// falls back to the guild's public playlists when no private one matches, so
// anyone can play a public list without the management role.
type PlaylistCommand struct{}

func (c *PlaylistCommand) Name() string        { return "playlist" }
func (c *PlaylistCommand) Description() string { return "Manage and play your playlists" }
func (c *PlaylistCommand) Category() string    { return "🎵 Music" }

func (c *PlaylistCommand) SlashDefinition() *discordgo.ApplicationCommand {
	nameOpt := func(desc string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "name",
			Description: desc,
			Required:    true,
		}
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "create",
				Description: "Create a new playlist",
				Options:     []*discordgo.ApplicationCommandOption{nameOpt("Playlist name")},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Add a song to a playlist",
				Options: []*discordgo.ApplicationCommandOption{
					nameOpt("Playlist name"),
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "url",
						Description: "Song link",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "play",
				Description: "Play a playlist",
				Options: []*discordgo.ApplicationCommandOption{
					nameOpt("Playlist name"),
					{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "shuffle",
						Description: "Shuffle before playing",
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List your playlists",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "show",
				Description: "Show the songs of a playlist",
				Options:     []*discordgo.ApplicationCommandOption{nameOpt("Playlist name")},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "delete",
				Description: "Delete one of your playlists",
				Options:     []*discordgo.ApplicationCommandOption{nameOpt("Playlist name")},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove",
				Description: "Remove a song from a playlist by position",
				Options: []*discordgo.ApplicationCommandOption{
					nameOpt("Playlist name"),
					positionOption("position", "Song position (1-based)"),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "move",
				Description: "Move a song to a new position",
				Options: []*discordgo.ApplicationCommandOption{
					nameOpt("Playlist name"),
					positionOption("from", "Current position"),
					positionOption("to", "New position"),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "shuffle",
				Description: "Shuffle the songs of a playlist",
				Options:     []*discordgo.ApplicationCommandOption{nameOpt("Playlist name")},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "all",
				Description: "List your playlists and the server's public ones",
			},
		},
	}
}

func positionOption(name, desc string) *discordgo.ApplicationCommandOption {
	one := float64(1)
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        name,
		Description: desc,
		Required:    true,
		MinValue:    &one,
	}
}

func (c *PlaylistCommand) Run(ctx interface{}) error {
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
	case "create":
		return c.runCreate(v, command.StringOption(sub, "name"))
	case "add":
		return c.runAdd(v, command.StringOption(sub, "name"), command.StringOption(sub, "url"))
	case "play":
		return c.runPlay(v, command.StringOption(sub, "name"), command.BoolOption(sub, "shuffle"))
	case "list":
		return c.runList(v)
	case "show":
		return c.runShow(v, command.StringOption(sub, "name"))
	case "delete":
		return c.runDelete(v, command.StringOption(sub, "name"))
	case "remove":
		return c.runRemove(v, command.StringOption(sub, "name"), command.IntOption(sub, "position"))
	case "move":
		return c.runMove(v, command.StringOption(sub, "name"),
			command.IntOption(sub, "from"), command.IntOption(sub, "to"))
	case "shuffle":
		return c.runShuffle(v, command.StringOption(sub, "name"))
	case "all":
		return c.runAll(v)
	default:
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Unknown subcommand: %s", sub.Name),
		})
	}
}

func (c *PlaylistCommand) runCreate(v *command.SlashContext, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "Playlist name is required.",
		})
	}

	_, err := v.Store.CreatePlaylist(name, v.UserID(), v.Event.GuildID, false)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("You already have a playlist named **%s**!", name),
		})
	}
	if err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}

	return bot.RespondEmbed(v.Session, v.Event, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("✅ Created playlist **%s**!", name),
	})
}

func (c *PlaylistCommand) runAdd(v *command.SlashContext, name, url string) error {
	pl, err := v.Store.FindPrivate(name, v.UserID(), v.Event.GuildID)
	if err != nil {
		return fmt.Errorf("failed to look up playlist: %w", err)
	}
	if pl == nil {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("You don't have a playlist named **%s**!", name),
		})
	}
	return addSong(v, pl, url)
}

func (c *PlaylistCommand) runPlay(v *command.SlashContext, name string, shuffle bool) error {
	if err := bot.Defer(v.Session, v.Event); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}

	pl, err := findPrivateThenPublic(v, name)
	if err != nil {
		return err
	}
	if pl == nil {
		bot.FollowupEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("No playlist named **%s** found!", name),
		})
		return nil
	}

	if shuffle {
		if err := v.Store.Shuffle(pl.ID); err != nil {
			return fmt.Errorf("failed to shuffle playlist: %w", err)
		}
	}

	songs, err := v.Store.Songs(pl.ID)
	if err != nil {
		return fmt.Errorf("failed to load songs: %w", err)
	}
	if len(songs) == 0 {
		bot.FollowupEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Playlist **%s** is empty!", pl.Name),
		})
		return nil
	}

	voiceState, err := v.Voice.FindUserVoiceState(v.Event.GuildID, v.UserID())
	if err != nil {
		bot.FollowupEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "You need to be in a voice channel!",
		})
		return nil
	}

	tracks := make([]player.Track, 0, len(songs))
	for _, song := range songs {
		tracks = append(tracks, player.Track{
			Title:         song.Title,
			URL:           song.URL,
			DurationLabel: song.DurationLabel,
		})
	}

	session := v.Voice.Sessions().GetOrCreate(v.Event.GuildID)
	if err := session.Play(voiceState.ChannelID, tracks); err != nil {
		v.Voice.Sessions().Remove(v.Event.GuildID)
		bot.FollowupEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Failed to start playback: %v", err),
		})
		return nil
	}

	bot.FollowupEmbed(v.Session, v.Event, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("▶️ Playing playlist **%s** (%d songs)!", pl.Name, len(songs)),
	})
	return nil
}

func (c *PlaylistCommand) runList(v *command.SlashContext) error {
	playlists, err := v.Store.ListPrivate(v.UserID(), v.Event.GuildID)
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}
	if len(playlists) == 0 {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "You don't have any playlists yet. Create one with `/playlist create`!",
		})
	}
	return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
		Title:       "🎶 Your Playlists",
		Description: renderPlaylistList(playlists),
	})
}

func (c *PlaylistCommand) runShow(v *command.SlashContext, name string) error {
	pl, err := findPrivateThenPublic(v, name)
	if err != nil {
		return err
	}
	if pl == nil {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("No playlist named **%s** found!", name),
		})
	}

	songs, err := v.Store.Songs(pl.ID)
	if err != nil {
		return fmt.Errorf("failed to load songs: %w", err)
	}
	if len(songs) == 0 {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Playlist **%s** is empty!", pl.Name),
		})
	}

	return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🎶 %s (%d songs)", pl.Name, len(songs)),
		Description: renderSongList(songs),
	})
}

func (c *PlaylistCommand) runDelete(v *command.SlashContext, name string) error {
	pl, err := v.Store.FindPrivate(name, v.UserID(), v.Event.GuildID)
	if err != nil {
		return fmt.Errorf("failed to look up playlist: %w", err)
	}
	if pl == nil {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("You don't have a playlist named **%s**!", name),
		})
	}

	removed, err := v.Store.RemovePlaylist(pl.ID, v.UserID())
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	if !removed {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "Only the playlist owner can delete it!",
		})
	}
	return bot.RespondEmbed(v.Session, v.Event, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("🗑️ Deleted playlist **%s**!", pl.Name),
	})
}

func (c *PlaylistCommand) runRemove(v *command.SlashContext, name string, position int) error {
	pl, err := v.Store.FindPrivate(name, v.UserID(), v.Event.GuildID)
	if err != nil {
		return fmt.Errorf("failed to look up playlist: %w", err)
	}
	if pl == nil {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("You don't have a playlist named **%s**!", name),
		})
	}
	return removeSongAt(v, pl, position)
}

func (c *PlaylistCommand) runMove(v *command.SlashContext, name string, from, to int) error {
	pl, err := v.Store.FindPrivate(name, v.UserID(), v.Event.GuildID)
	if err != nil {
		return fmt.Errorf("failed to look up playlist: %w", err)
	}
	if pl == nil {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("You don't have a playlist named **%s**!", name),
		})
	}
	return moveSong(v, pl, from, to)
}

func (c *PlaylistCommand) runShuffle(v *command.SlashContext, name string) error {
	pl, err := v.Store.FindPrivate(name, v.UserID(), v.Event.GuildID)
	if err != nil {
		return fmt.Errorf("failed to look up playlist: %w", err)
	}
	if pl == nil {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("You don't have a playlist named **%s**!", name),
		})
	}
	return shufflePlaylist(v, pl)
}

func (c *PlaylistCommand) runAll(v *command.SlashContext) error {
	private, err := v.Store.ListPrivate(v.UserID(), v.Event.GuildID)
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}
	public, err := v.Store.ListPublic(v.Event.GuildID)
	if err != nil {
		return fmt.Errorf("failed to list public playlists: %w", err)
	}
	if len(private) == 0 && len(public) == 0 {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "No playlists on this server yet!",
		})
	}

	var b strings.Builder
	if len(private) > 0 {
		b.WriteString("**Your playlists**\n")
		b.WriteString(renderPlaylistList(private))
	}
	if len(public) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("**Public playlists**\n")
		b.WriteString(renderPlaylistList(public))
	}
	return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
		Title:       "🎶 All Playlists",
		Description: b.String(),
	})
}

// findPrivateThenPublic implements the read-path fallback: the caller's own
// playlist wins, a public one with the same name serves everyone else.
func findPrivateThenPublic(v *command.SlashContext, name string) (*storage.Playlist, error) {
	pl, err := v.Store.FindPrivate(name, v.UserID(), v.Event.GuildID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up playlist: %w", err)
	}
	if pl != nil {
		return pl, nil
	}
	pl, err = v.Store.FindPublic(name, v.Event.GuildID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up public playlist: %w", err)
	}
	return pl, nil
}

// addSong resolves the link first so dead links and over-long tracks never
// enter a playlist.
func addSong(v *command.SlashContext, pl *storage.Playlist, url string) error {
	if err := bot.Defer(v.Session, v.Event); err != nil {
		return fmt.Errorf("failed to defer response: %w", err)
	}

	url = strings.TrimSpace(url)
	if !resolver.IsURL(url) {
		bot.FollowupEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "That doesn't look like a link!",
		})
		return nil
	}
	if resolver.IsYouTubeURL(url) {
		url = resolver.CleanVideoURL(url)
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

	if err := v.Store.AddSong(pl.ID, url, resolved.Title, resolved.DurationLabel); err != nil {
		return fmt.Errorf("failed to add song: %w", err)
	}

	bot.FollowupEmbed(v.Session, v.Event, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("✅ Added **%s** to playlist **%s**!", resolved.Title, pl.Name),
	})
	return nil
}

func removeSongAt(v *command.SlashContext, pl *storage.Playlist, position int) error {
	songs, err := v.Store.Songs(pl.ID)
	if err != nil {
		return fmt.Errorf("failed to load songs: %w", err)
	}
	if position < 1 || position > len(songs) {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Invalid position! Playlist **%s** has %d songs.", pl.Name, len(songs)),
		})
	}

	song := songs[position-1]
	if err := v.Store.RemoveSong(pl.ID, song.ID); err != nil {
		return fmt.Errorf("failed to remove song: %w", err)
	}
	return bot.RespondEmbed(v.Session, v.Event, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("🗑️ Removed **%s** from playlist **%s**!", song.Title, pl.Name),
	})
}

func moveSong(v *command.SlashContext, pl *storage.Playlist, from, to int) error {
	if from == to {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "The song is already at that position!",
		})
	}

	err := v.Store.MoveSong(pl.ID, from, to)
	if errors.Is(err, storage.ErrInvalidPosition) {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: "Invalid position!",
		})
	}
	if err != nil {
		return fmt.Errorf("failed to move song: %w", err)
	}
	return bot.RespondEmbed(v.Session, v.Event, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("↕️ Moved song from position %d to %d in **%s**!", from, to, pl.Name),
	})
}

func shufflePlaylist(v *command.SlashContext, pl *storage.Playlist) error {
	songs, err := v.Store.Songs(pl.ID)
	if err != nil {
		return fmt.Errorf("failed to load songs: %w", err)
	}
	if len(songs) < 2 {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Playlist **%s** needs at least 2 songs to shuffle!", pl.Name),
		})
	}

	if err := v.Store.Shuffle(pl.ID); err != nil {
		return fmt.Errorf("failed to shuffle playlist: %w", err)
	}
	return bot.RespondEmbed(v.Session, v.Event, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("🔀 Shuffled playlist **%s**!", pl.Name),
	})
}

func renderPlaylistList(playlists []storage.Playlist) string {
	var b strings.Builder
	for i, pl := range playlists {
		fmt.Fprintf(&b, "%d. **%s**\n", i+1, pl.Name)
	}
	return b.String()
}

func renderSongList(songs []storage.Song) string {
	var b strings.Builder
	for i, song := range songs {
		if i == 10 {
			fmt.Fprintf(&b, "... and %d more songs", len(songs)-10)
			break
		}
		fmt.Fprintf(&b, "%d. **%s** (%s)\n", song.Position, song.Title, song.DurationLabel)
	}
	return b.String()
}
