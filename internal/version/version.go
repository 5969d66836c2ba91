package version

const (
	AppName    = "MusicGuy"
	AppVersion = "1.2.0"
)
