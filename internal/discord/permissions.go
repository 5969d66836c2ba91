package discord

import (
	"github.com/bwmarrin/discordgo"

	"musicguy/internal/command"
)

// hasManagementRole reports whether the invoking member carries the
// configured playlist management role, matched by name against the guild's
// live role list.
func (b *Bot) hasManagementRole(ctx *command.SlashContext) bool {
	member := ctx.Event.Member
	if member == nil {
		return false
	}
	return memberHasRole(ctx.Session, ctx.Event.GuildID, member, b.cfg.DJRoleName)
}

func memberHasRole(s *discordgo.Session, guildID string, member *discordgo.Member, roleName string) bool {
	guild, err := s.State.Guild(guildID)
	if err != nil || guild == nil {
		guild, err = s.Guild(guildID)
		if err != nil || guild == nil {
			return false
		}
	}

	roleNames := make(map[string]string, len(guild.Roles))
	for _, role := range guild.Roles {
		roleNames[role.ID] = role.Name
	}

	for _, roleID := range member.Roles {
		if roleNames[roleID] == roleName {
			return true
		}
	}
	return false
}
