package discord

import (
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"musicguy/internal/command"
)

// registerCommands reconciles the guild's registered application commands
// with the local registry. Definitions are hashed and compared against a
// per-guild cache file so unchanged commands are not re-uploaded on every
// start.
func (b *Bot) registerCommands(guildID string) error {
	appID := b.dg.State.User.ID
	if appID == "" {
		user, err := b.dg.User("@me")
		if err != nil {
			return err
		}
		appID = user.ID
	}

	existing, _ := b.dg.ApplicationCommands(appID, guildID)
	cached := loadCommandHashes(guildID)

	var wanted []*discordgo.ApplicationCommand
	wantedHashes := make(map[string]string)
	for _, cmd := range command.All() {
		def := slashDefinition(cmd)
		if def == nil {
			continue
		}
		wanted = append(wanted, def)
		wantedHashes[def.Name] = hashDefinition(def)
	}

	for _, old := range existing {
		if _, ok := wantedHashes[old.Name]; ok {
			continue
		}
		b.log.Info().Str("guild", guildID).Str("command", old.Name).Msg("deleting obsolete command")
		if err := b.dg.ApplicationCommandDelete(appID, guildID, old.ID); err != nil {
			b.log.Error().Err(err).Str("guild", guildID).Str("command", old.Name).Msg("failed to delete command")
		}
		delete(cached, old.Name)
	}

	var changed []*discordgo.ApplicationCommand
	for _, def := range wanted {
		if cached[def.Name] != wantedHashes[def.Name] {
			changed = append(changed, def)
		}
	}

	if len(changed) > 0 {
		b.log.Info().Str("guild", guildID).Int("count", len(changed)).Msg("updating changed commands")
		b.createCommandsRateLimited(appID, guildID, changed)
		for _, def := range changed {
			cached[def.Name] = wantedHashes[def.Name]
		}
	}

	saveCommandHashes(guildID, cached)
	return nil
}

func slashDefinition(cmd command.Command) *discordgo.ApplicationCommand {
	slash, ok := cmd.(command.SlashProvider)
	if !ok {
		return nil
	}
	def := slash.SlashDefinition()
	if def != nil && def.Type == 0 {
		def.Type = discordgo.ChatApplicationCommand
	}
	return def
}

// createCommandsRateLimited uploads command definitions while respecting the
// application command rate limit.
func (b *Bot) createCommandsRateLimited(appID, guildID string, defs []*discordgo.ApplicationCommand) {
	ticker := time.NewTicker(time.Second / 40)
	defer ticker.Stop()

	var wg sync.WaitGroup
	for _, def := range defs {
		wg.Add(1)
		go func(def *discordgo.ApplicationCommand) {
			defer wg.Done()
			<-ticker.C

			_, err := b.dg.ApplicationCommandCreate(appID, guildID, def)
			if err != nil {
				b.log.Error().Err(err).Str("command", def.Name).Msg("can't create command")
			} else {
				b.log.Info().Str("command", def.Name).Msg("command created")
			}
		}(def)
	}
	wg.Wait()
}

// hashDefinition builds a deterministic digest of the fields Discord actually
// compares, ignoring runtime-only ones like IDs and versions.
func hashDefinition(def *discordgo.ApplicationCommand) string {
	type choice struct {
		Name  string      `json:"name"`
		Value interface{} `json:"value"`
	}
	type option struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Type        int      `json:"type"`
		Required    bool     `json:"required"`
		Choices     []choice `json:"choices,omitempty"`
		Options     []option `json:"options,omitempty"`
	}

	var flatten func(opts []*discordgo.ApplicationCommandOption) []option
	flatten = func(opts []*discordgo.ApplicationCommandOption) []option {
		out := make([]option, 0, len(opts))
		for _, o := range opts {
			entry := option{
				Name:        o.Name,
				Description: o.Description,
				Type:        int(o.Type),
				Required:    o.Required,
				Options:     flatten(o.Options),
			}
			for _, c := range o.Choices {
				entry.Choices = append(entry.Choices, choice{Name: c.Name, Value: c.Value})
			}
			out = append(out, entry)
		}
		return out
	}

	data, _ := json.Marshal(struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Type        int      `json:"type"`
		Options     []option `json:"options,omitempty"`
	}{
		Name:        def.Name,
		Description: def.Description,
		Type:        int(def.Type),
		Options:     flatten(def.Options),
	})
	return fmt.Sprintf("%x", sha1.Sum(data))
}

func commandCachePath(guildID string) string {
	return filepath.Join("data", "commands", guildID+".json")
}

func loadCommandHashes(guildID string) map[string]string {
	hashes := make(map[string]string)
	if data, err := os.ReadFile(commandCachePath(guildID)); err == nil {
		_ = json.Unmarshal(data, &hashes)
	}
	return hashes
}

func saveCommandHashes(guildID string, hashes map[string]string) {
	path := commandCachePath(guildID)
	_ = os.MkdirAll(filepath.Dir(path), 0755)
	data, _ := json.MarshalIndent(hashes, "", "  ")
	_ = os.WriteFile(path, data, 0644)
}
