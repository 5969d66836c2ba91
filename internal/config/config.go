package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to system environment variables")
	}
}

// Config holds all environment-driven settings for the bot.
type Config struct {
	DiscordToken   string        `env:"DISCORD_TOKEN,required"`
	StoragePath    string        `env:"STORAGE_PATH" envDefault:"data/playlists.json"`
	DJRoleName     string        `env:"DJ_ROLE_NAME" envDefault:"Music Guy"`
	ResolveTimeout time.Duration `env:"RESOLVE_TIMEOUT" envDefault:"30s"`
	MediaProxy     string        `env:"MEDIA_PROXY"`
	YTDLPPath      string        `env:"YTDLP_PATH" envDefault:"yt-dlp"`
	FFmpegPath     string        `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	LogFile        string        `env:"LOG_FILE"`
	InitSlashCmds  bool          `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
}

// New parses the environment into a Config. Missing DISCORD_TOKEN is fatal.
func New() *Config {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatal("config: ", err)
	}
	return cfg
}
