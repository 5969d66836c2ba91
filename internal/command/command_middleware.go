package command

import "github.com/bwmarrin/discordgo"

type Middleware func(Command) Command

type wrappedCommand struct {
	Command
	wrap func(ctx interface{}) error
}

func (w *wrappedCommand) Run(ctx interface{}) error {
	return w.wrap(ctx)
}

func (w *wrappedCommand) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := w.Command.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

// Apply wraps cmd with the given middleware, outermost last.
func Apply(cmd Command, mw ...Middleware) Command {
	for _, m := range mw {
		cmd = m(cmd)
	}
	return cmd
}

// WithGuildOnly rejects invocations outside a guild.
func WithGuildOnly() Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				if v, ok := ctx.(*SlashContext); ok {
					if v.Event.GuildID == "" {
						return RespondEphemeralText(v, "You must be in a server to use this command.")
					}
				}
				return cmd.Run(ctx)
			},
		}
	}
}

// RoleCheck reports whether the invoking member may run a gated command. The
// concrete check (role-name lookup against live guild data) is supplied by
// the discord layer; commands stay permission-agnostic beyond invoking it.
type RoleCheck func(ctx *SlashContext) bool

// WithPrivilegedRole gates a command behind the injected role check.
func WithPrivilegedRole(check RoleCheck, denyMessage string) Middleware {
	return func(cmd Command) Command {
		return &wrappedCommand{
			Command: cmd,
			wrap: func(ctx interface{}) error {
				if v, ok := ctx.(*SlashContext); ok {
					if !check(v) {
						return RespondEphemeralText(v, denyMessage)
					}
				}
				return cmd.Run(ctx)
			},
		}
	}
}

// RespondEphemeralText is a convenience for middleware-level refusals.
func RespondEphemeralText(v *SlashContext, text string) error {
	return v.Session.InteractionRespond(v.Event.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
