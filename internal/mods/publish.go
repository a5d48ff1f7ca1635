package mods

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/shop-replace/modbot/internal/model"
)

// Rendering convention for published listings. The strict extractor is keyed
// to these exact strings; changing them silently breaks extraction of
// historical messages.
const (
	embedTitle             = "✨ Nouveau mod disponible !"
	embedColor             = 0x00f7ff
	fieldNameHeader        = "┌─ SHOP - REPLACE ─┐"
	fieldTypeLabel         = "🎯 Type de mod"
	fieldDateLabel         = "📅 Date d'ajout"
	fieldDescriptionHeader = "┌─ Description ─┐"
	valueMarker            = "▸ "
	downloadButtonLabel    = "Télécharger le mod"

	publishPlaceholderDescription = "Aucune description"
)

// Publisher renders mod records into channel messages. Publishing is not
// idempotent: the sent message is the record, so publishing twice creates
// two records.
type Publisher struct {
	client ChannelClient
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher creates a Publisher on top of a channel client.
func NewPublisher(client ChannelClient, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Publish renders req into one embed plus one download button and sends it
// to the requested channel. Failures from the chat service are surfaced with
// the underlying message and never retried.
func (p *Publisher) Publish(req model.PublishRequest) (*discordgo.Message, error) {
	if req.DiscordChannelID == "" {
		return nil, ErrMissingChannel
	}
	if len(req.Images) == 0 {
		return nil, ErrMissingImages
	}

	channel, err := p.client.Channel(req.DiscordChannelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingChannel, err)
	}
	if channel == nil {
		return nil, ErrChannelNotFound
	}

	description := req.Description
	if description == "" {
		description = publishPlaceholderDescription
	}

	now := p.now()
	embed := &discordgo.MessageEmbed{
		Title: embedTitle,
		Color: embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: fieldNameHeader, Value: valueMarker + req.Name, Inline: false},
			{Name: fieldTypeLabel, Value: req.Type, Inline: true},
			{Name: fieldDateLabel, Value: formatDateFR(now), Inline: true},
			{Name: fieldDescriptionHeader, Value: valueMarker + description, Inline: false},
		},
		// Only the first image is rendered; extra images are accepted but unused.
		Image: &discordgo.MessageEmbedImage{URL: req.Images[0]},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Merci d'utiliser SHOP - REPLACE • %s", now.Format("02/01/2006")),
		},
	}

	row := discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label: downloadButtonLabel,
				Style: discordgo.LinkButton,
				URL:   req.MediaFireLink,
			},
		},
	}

	msg, err := p.client.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{row},
	})
	if err != nil {
		return nil, fmt.Errorf("error sending mod message: %w", err)
	}

	p.logger.Info("Published mod",
		"name", req.Name,
		"type", req.Type,
		"channelId", channel.ID,
		"messageId", msg.ID)

	return msg, nil
}

var (
	frWeekdays = [...]string{
		"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi",
	}
	frMonths = [...]string{
		"janvier", "février", "mars", "avril", "mai", "juin",
		"juillet", "août", "septembre", "octobre", "novembre", "décembre",
	}
)

// formatDateFR renders a timestamp the way the fr-FR long locale does,
// e.g. "lundi 2 janvier 2006 à 15:04".
func formatDateFR(t time.Time) string {
	return fmt.Sprintf("%s %d %s %d à %02d:%02d",
		frWeekdays[t.Weekday()],
		t.Day(),
		frMonths[t.Month()-1],
		t.Year(),
		t.Hour(),
		t.Minute(),
	)
}
