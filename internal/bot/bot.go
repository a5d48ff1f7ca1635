// Package bot implements the Discord-facing behaviour of the community
// server. It covers the slash commands, the ticket workflow, the rules gate
// and the periodic bump reminders.
package bot

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/shop-replace/modbot/internal/discord"
	"github.com/shop-replace/modbot/internal/store"
)

const (
	commandBump     = "bump"
	commandStopBump = "stopbump"
	commandTicket   = "ticket"
	commandClose    = "close"
)

const (
	optionChannel = "channel"
	optionSubject = "sujet"
)

// commandDefinitions are the guild slash commands registered on startup.
var commandDefinitions = []*discordgo.ApplicationCommand{
	{
		Name:        commandBump,
		Description: "Active les rappels de bump",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionChannel,
				Name:        optionChannel,
				Description: "Canal où poster les rappels",
				Required:    true,
				ChannelTypes: []discordgo.ChannelType{
					discordgo.ChannelTypeGuildText,
				},
			},
		},
	},
	{
		Name:        commandStopBump,
		Description: "Désactive les rappels de bump",
	},
	{
		Name:        commandTicket,
		Description: "Ouvre un ticket de support",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        optionSubject,
				Description: "Sujet du ticket",
				Required:    true,
			},
		},
	},
	{
		Name:        commandClose,
		Description: "Ferme le ticket de ce canal",
	},
}

// Bot wires the Discord session to the ticket, rules and bump services.
type Bot struct {
	session *discord.Session
	guildID string
	bump    *BumpManager
	tickets *TicketService
	rules   *RulesService
	logger  *slog.Logger

	removeHandlers []func()
}

// New assembles the bot. Call Start to connect.
func New(session *discord.Session, guildID string, bump *BumpManager, tickets *TicketService, rules *RulesService, logger *slog.Logger) *Bot {
	return &Bot{
		session: session,
		guildID: guildID,
		bump:    bump,
		tickets: tickets,
		rules:   rules,
		logger:  logger,
	}
}

// Start opens the gateway connection and registers the slash commands.
func (b *Bot) Start() error {
	b.removeHandlers = append(b.removeHandlers,
		b.session.AddHandler(b.onInteraction),
		b.session.AddHandler(b.onMessage),
	)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening discord session: %w", err)
	}

	appID := b.session.State.User.ID
	if _, err := b.session.ApplicationCommandBulkOverwrite(appID, b.guildID, commandDefinitions); err != nil {
		return fmt.Errorf("registering commands: %w", err)
	}

	b.logger.Info("Bot connected",
		"username", b.session.State.User.Username,
		"guildId", b.guildID)
	return nil
}

// Stop cancels the reminders, detaches the handlers and closes the session.
func (b *Bot) Stop() error {
	b.bump.StopAll()
	for _, remove := range b.removeHandlers {
		remove()
	}
	b.removeHandlers = nil
	return b.session.Close()
}

// Ready reports whether the gateway connection is established.
func (b *Bot) Ready() bool {
	return b.session.Ready()
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.onCommand(s, i)
	case discordgo.InteractionMessageComponent:
		if i.MessageComponentData().CustomID == RulesAcceptCustomID {
			user := interactionUser(i)
			reply := b.rules.Accept(user.ID, user.Username)
			b.respond(s, i, reply)
		}
	}
}

func (b *Bot) onCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := interactionUser(i)

	switch i.ApplicationCommandData().Name {
	case commandBump:
		channelID := bumpChannelID(i)
		b.bump.Start(i.GuildID, channelID)
		b.respond(s, i, fmt.Sprintf("Rappels de bump activés dans <#%s> !", channelID))

	case commandStopBump:
		if b.bump.Stop(i.GuildID) {
			b.respond(s, i, "Rappels de bump désactivés.")
		} else {
			b.respond(s, i, "Aucun rappel de bump n'est actif.")
		}

	case commandTicket:
		ticket, err := b.tickets.Open(user.ID, user.Username, ticketSubject(i))
		if errors.Is(err, ErrTicketExists) {
			b.respond(s, i, ErrTicketExists.Error())
			return
		}
		if err != nil {
			b.logger.Error("Failed to open ticket", "userId", user.ID, "error", err)
			b.respond(s, i, "Impossible d'ouvrir le ticket, réessayez plus tard.")
			return
		}
		b.respond(s, i, fmt.Sprintf("Votre ticket est ouvert : <#%s>", ticket.ChannelID))

	case commandClose:
		err := b.tickets.Close(i.ChannelID)
		if errors.Is(err, store.ErrTicketNotFound) {
			b.respond(s, i, "Ce canal n'est pas un ticket.")
			return
		}
		if err != nil {
			b.logger.Error("Failed to close ticket", "channelId", i.ChannelID, "error", err)
			b.respond(s, i, "Impossible de fermer le ticket, réessayez plus tard.")
			return
		}
		b.respond(s, i, "Ticket fermé.")
	}
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	var err error
	if m.GuildID == "" {
		err = b.tickets.RelayDM(m.Author.ID, m.Author.Username, m.Content)
	} else {
		err = b.tickets.RelayChannel(m.ChannelID, m.Author.ID, m.Author.Username, m.Content)
	}
	if err != nil && !errors.Is(err, store.ErrTicketNotFound) {
		b.logger.Warn("Failed to relay ticket message",
			"channelId", m.ChannelID,
			"error", err)
	}
}

func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.logger.Warn("Failed to respond to interaction", "error", err)
	}
}

// bumpChannelID returns the channel chosen via the command option, falling
// back to the invoking channel.
func bumpChannelID(i *discordgo.InteractionCreate) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == optionChannel && opt.Type == discordgo.ApplicationCommandOptionChannel {
			return opt.ChannelValue(nil).ID
		}
	}
	return i.ChannelID
}

// ticketSubject returns the subject given with the ticket command.
func ticketSubject(i *discordgo.InteractionCreate) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == optionSubject && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

// interactionUser returns the invoking user for both guild and DM
// interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
