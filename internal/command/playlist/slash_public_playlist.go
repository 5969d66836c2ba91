package playlist

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"musicguy/internal/bot"
	"musicguy/internal/command"
	"musicguy/internal/storage"
)

// PublicPlaylistCommand manages guild-wide playlists. The whole command is
// gated behind the management role at registration time; playback of public
// playlists stays open to everyone through /playlist play.
type PublicPlaylistCommand struct{}

func (c *PublicPlaylistCommand) Name() string        { return "public-playlist" }
func (c *PublicPlaylistCommand) Description() string { return "Manage the server's public playlists" }
func (c *PublicPlaylistCommand) Category() string    { return "🎵 Music" }

func (c *PublicPlaylistCommand) SlashDefinition() *discordgo.ApplicationCommand {
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
				Description: "Create a new public playlist",
				Options:     []*discordgo.ApplicationCommandOption{nameOpt("Playlist name")},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Add a song to a public playlist",
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
				Name:        "delete",
				Description: "Delete a public playlist",
				Options:     []*discordgo.ApplicationCommandOption{nameOpt("Playlist name")},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove",
				Description: "Remove a song from a public playlist by position",
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
				Description: "Shuffle the songs of a public playlist",
				Options:     []*discordgo.ApplicationCommandOption{nameOpt("Playlist name")},
			},
		},
	}
}

func (c *PublicPlaylistCommand) Run(ctx interface{}) error {
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
		return c.withPublic(v, command.StringOption(sub, "name"), func(pl *storage.Playlist) error {
			return addSong(v, pl, command.StringOption(sub, "url"))
		})
	case "delete":
		return c.withPublic(v, command.StringOption(sub, "name"), func(pl *storage.Playlist) error {
			return c.runDelete(v, pl)
		})
	case "remove":
		return c.withPublic(v, command.StringOption(sub, "name"), func(pl *storage.Playlist) error {
			return removeSongAt(v, pl, command.IntOption(sub, "position"))
		})
	case "move":
		return c.withPublic(v, command.StringOption(sub, "name"), func(pl *storage.Playlist) error {
			return moveSong(v, pl, command.IntOption(sub, "from"), command.IntOption(sub, "to"))
		})
	case "shuffle":
		return c.withPublic(v, command.StringOption(sub, "name"), func(pl *storage.Playlist) error {
			return shufflePlaylist(v, pl)
		})
	default:
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Unknown subcommand: %s", sub.Name),
		})
	}
}

func (c *PublicPlaylistCommand) withPublic(v *command.SlashContext, name string, fn func(*storage.Playlist) error) error {
	pl, err := v.Store.FindPublic(name, v.Event.GuildID)
	if err != nil {
		return fmt.Errorf("failed to look up public playlist: %w", err)
	}
	if pl == nil {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("No public playlist named **%s** found!", name),
		})
	}
	return fn(pl)
}

func (c *PublicPlaylistCommand) runCreate(v *command.SlashContext, name string) error {
	_, err := v.Store.CreatePlaylist(name, v.UserID(), v.Event.GuildID, true)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("A public playlist named **%s** already exists!", name),
		})
	}
	if err != nil {
		return fmt.Errorf("failed to create public playlist: %w", err)
	}
	return bot.RespondEmbed(v.Session, v.Event, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("✅ Created public playlist **%s**!", name),
	})
}

// runDelete passes the owner's id as the requester: the role gate already
// authorized the caller, so any role holder may delete any public playlist.
func (c *PublicPlaylistCommand) runDelete(v *command.SlashContext, pl *storage.Playlist) error {
	removed, err := v.Store.RemovePlaylist(pl.ID, pl.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to delete public playlist: %w", err)
	}
	if !removed {
		return bot.RespondEmbedEphemeral(v.Session, v.Event, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("No public playlist named **%s** found!", pl.Name),
		})
	}
	return bot.RespondEmbed(v.Session, v.Event, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("🗑️ Deleted public playlist **%s**!", pl.Name),
	})
}
