package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func sampleDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "music",
		Description: "Control music playback",
		Type:        discordgo.ChatApplicationCommand,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "play",
				Description: "Play a track",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "input",
						Description: "Link or search query",
						Required:    true,
					},
				},
			},
		},
	}
}

func TestHashDefinitionDeterministic(t *testing.T) {
	a := hashDefinition(sampleDefinition())
	b := hashDefinition(sampleDefinition())
	if a != b {
		t.Errorf("same definition hashed differently: %s vs %s", a, b)
	}
}

func TestHashDefinitionIgnoresRuntimeFields(t *testing.T) {
	plain := sampleDefinition()
	withID := sampleDefinition()
	withID.ID = "123456789"
	withID.Version = "9"

	if hashDefinition(plain) != hashDefinition(withID) {
		t.Error("ID and version must not affect the hash")
	}
}

func TestHashDefinitionSeesOptionChanges(t *testing.T) {
	base := hashDefinition(sampleDefinition())

	changed := sampleDefinition()
	changed.Options[0].Options[0].Required = false
	if hashDefinition(changed) == base {
		t.Error("changing a nested option must change the hash")
	}

	renamed := sampleDefinition()
	renamed.Options[0].Description = "Play something"
	if hashDefinition(renamed) == base {
		t.Error("changing a subcommand description must change the hash")
	}
}
