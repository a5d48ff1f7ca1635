package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"gorm.io/datatypes"

	"github.com/shop-replace/modbot/internal/model"
	"github.com/shop-replace/modbot/internal/store"
)

// ErrTicketExists is returned when a user tries to open a second ticket.
var ErrTicketExists = errors.New("Vous avez déjà un ticket ouvert !")

const (
	ticketWelcome = "Bienvenue <@%s> ! Décrivez votre problème, un membre du staff vous répondra bientôt."
	ticketClosed  = "Votre ticket a été fermé. Merci de nous avoir contactés !"
)

// TicketGateway is the slice of the Discord session the ticket flow needs.
type TicketGateway interface {
	CreateTicketChannel(guildID, parentID, name, userID string) (*discordgo.Channel, error)
	SendDM(userID, content string) error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// TicketService opens and closes support tickets and relays messages between
// a ticket channel and the opener's DMs.
type TicketService struct {
	gateway    TicketGateway
	store      *store.Store
	guildID    string
	categoryID string
	logger     *slog.Logger
}

// NewTicketService creates a TicketService creating channels under the given
// tickets category.
func NewTicketService(gateway TicketGateway, st *store.Store, guildID, categoryID string, logger *slog.Logger) *TicketService {
	return &TicketService{
		gateway:    gateway,
		store:      st,
		guildID:    guildID,
		categoryID: categoryID,
		logger:     logger,
	}
}

// Open creates a private ticket channel for the user. A user can hold at
// most one open ticket at a time.
func (t *TicketService) Open(userID, username, subject string) (*model.Ticket, error) {
	_, err := t.store.OpenTicketByUser(userID)
	if err == nil {
		return nil, ErrTicketExists
	}
	if !errors.Is(err, store.ErrTicketNotFound) {
		return nil, err
	}

	ch, err := t.gateway.CreateTicketChannel(t.guildID, t.categoryID, ticketChannelName(username), userID)
	if err != nil {
		return nil, err
	}

	ticket := &model.Ticket{
		UserID:    userID,
		Username:  username,
		ChannelID: ch.ID,
		Subject:   subject,
		Status:    model.TicketOpen,
		Meta:      datatypes.JSON(fmt.Sprintf(`{"guildId":%q}`, t.guildID)),
	}
	if err := t.store.CreateTicket(ticket); err != nil {
		return nil, err
	}

	welcome := fmt.Sprintf(ticketWelcome, userID)
	if subject != "" {
		welcome += "\n**Sujet :** " + subject
	}
	if _, err := t.gateway.ChannelMessageSend(ch.ID, welcome); err != nil {
		t.logger.Warn("Failed to send ticket welcome", "channelId", ch.ID, "error", err)
	}

	t.logger.Info("Ticket opened", "userId", userID, "channelId", ch.ID)
	return ticket, nil
}

// Close closes the ticket backed by the channel, notifies the opener by DM
// and deletes the channel.
func (t *TicketService) Close(channelID string) error {
	ticket, err := t.store.TicketByChannel(channelID)
	if err != nil {
		return err
	}

	if err := t.store.CloseTicket(channelID); err != nil {
		return err
	}

	if err := t.gateway.SendDM(ticket.UserID, ticketClosed); err != nil {
		t.logger.Warn("Failed to notify ticket opener", "userId", ticket.UserID, "error", err)
	}
	if _, err := t.gateway.ChannelDelete(channelID); err != nil {
		t.logger.Warn("Failed to delete ticket channel", "channelId", channelID, "error", err)
	}

	t.logger.Info("Ticket closed", "userId", ticket.UserID, "channelId", channelID)
	return nil
}

// RelayDM forwards a direct message from a user into their open ticket
// channel. Returns store.ErrTicketNotFound when the user has no open ticket.
func (t *TicketService) RelayDM(userID, username, content string) error {
	ticket, err := t.store.OpenTicketByUser(userID)
	if err != nil {
		return err
	}
	_, err = t.gateway.ChannelMessageSend(ticket.ChannelID, fmt.Sprintf("**%s :** %s", username, content))
	return err
}

// RelayChannel forwards a staff message from a ticket channel to the
// opener's DMs. Messages written by the opener themselves are not echoed
// back. Returns store.ErrTicketNotFound when the channel is not a ticket.
func (t *TicketService) RelayChannel(channelID, authorID, authorName, content string) error {
	ticket, err := t.store.TicketByChannel(channelID)
	if err != nil {
		return err
	}
	if ticket.Status != model.TicketOpen || authorID == ticket.UserID {
		return nil
	}
	return t.gateway.SendDM(ticket.UserID, fmt.Sprintf("**%s :** %s", authorName, content))
}

// ticketChannelName derives a channel name from a username. Discord channel
// names are lowercase with no spaces.
func ticketChannelName(username string) string {
	name := strings.ToLower(strings.TrimSpace(username))
	name = strings.ReplaceAll(name, " ", "-")
	return "ticket-" + name
}
