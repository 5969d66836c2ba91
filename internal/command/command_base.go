package command

import (
	"github.com/bwmarrin/discordgo"

	"musicguy/internal/bot"
	"musicguy/internal/config"
	"musicguy/internal/music/resolver"
	"musicguy/internal/storage"
)

// Command is one top-level slash command.
type Command interface {
	Name() string
	Description() string
	Category() string
	Run(ctx interface{}) error
}

// SlashProvider supplies the application command definition to register with
// Discord.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// SlashContext carries everything a handler needs for one interaction.
type SlashContext struct {
	Session  *discordgo.Session
	Event    *discordgo.InteractionCreate
	Store    *storage.Storage
	Config   *config.Config
	Voice    bot.Voice
	Resolver resolver.Resolver
	Search   *resolver.Search
}

// UserID returns the invoking user's id, from whichever field Discord
// populated.
func (c *SlashContext) UserID() string {
	if c.Event.Member != nil && c.Event.Member.User != nil {
		return c.Event.Member.User.ID
	}
	if c.Event.User != nil {
		return c.Event.User.ID
	}
	return ""
}

// Option returns a named option of the invoked subcommand, or nil.
func Option(sub *discordgo.ApplicationCommandInteractionDataOption, name string) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range sub.Options {
		if opt.Name == name {
			return opt
		}
	}
	return nil
}

// StringOption returns a named string option or the empty string.
func StringOption(sub *discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt := Option(sub, name); opt != nil {
		return opt.StringValue()
	}
	return ""
}

// IntOption returns a named integer option or 0.
func IntOption(sub *discordgo.ApplicationCommandInteractionDataOption, name string) int {
	if opt := Option(sub, name); opt != nil {
		return int(opt.IntValue())
	}
	return 0
}

// BoolOption returns a named boolean option or false.
func BoolOption(sub *discordgo.ApplicationCommandInteractionDataOption, name string) bool {
	if opt := Option(sub, name); opt != nil {
		return opt.BoolValue()
	}
	return false
}
