// Package model defines the domain entities shared across the bot, the REST
// API and the storage layer.
package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Mod categories. These are the top-level keys of the channel registry.
const (
	CategoryWeapon    = "ARME"
	CategoryVehicle   = "VEHICULE"
	CategoryCharacter = "PERSONNAGE"
)

// Extractor defaults. A record reconstructed from a message is never
// partially populated; every field that could not be recovered carries its
// default instead.
const (
	DefaultName         = "Sans nom"
	DefaultType         = "Non catégorisé"
	DefaultDescription  = "Aucune description disponible"
	DefaultDownloadLink = "#"
)

// ModRecord is a mod listing reconstructed from a Discord message. The
// message itself is the system of record; a ModRecord only lives for the
// duration of a read.
type ModRecord struct {
	Name         string    `json:"name"`
	Category     string    `json:"category,omitempty"`
	Type         string    `json:"type"`
	Description  string    `json:"description"`
	Image        string    `json:"image"`
	DownloadLink string    `json:"downloadLink"`
	ChannelID    string    `json:"channelId"`
	MessageID    string    `json:"messageId,omitempty"`
	GuildID      string    `json:"guildId,omitempty"`
	Date         time.Time `json:"date"`
}

// ModDetail is the legacy field shape served by the by-id lookup. It is
// keyed to exact embed field labels and kept distinct from ModRecord for
// compatibility with the website's detail page.
type ModDetail struct {
	ID            string    `json:"id"`
	Category      string    `json:"category"`
	Type          string    `json:"type"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Images        []string  `json:"images"`
	Date          time.Time `json:"date"`
	MediaFireLink string    `json:"mediaFireLink"`
	DiscordLink   string    `json:"discordLink"`
}

// PublishRequest is the payload accepted by the publish endpoint. Images
// beyond the first are accepted but only the first is rendered.
type PublishRequest struct {
	Name             string   `json:"name"`
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Description      string   `json:"description"`
	MediaFireLink    string   `json:"mediaFireLink"`
	DiscordChannelID string   `json:"discordChannelId"`
	Images           []string `json:"images"`
}

// Ticket statuses.
const (
	TicketOpen   = "open"
	TicketClosed = "closed"
)

// Ticket is a support ticket backed by a private channel.
type Ticket struct {
	gorm.Model
	ChannelID string         `json:"channelId" gorm:"uniqueIndex"`
	UserID    string         `json:"userId" gorm:"index"`
	Username  string         `json:"username"`
	Subject   string         `json:"subject"`
	Status    string         `json:"status" gorm:"index;default:open"`
	Meta      datatypes.JSON `json:"meta,omitempty"`
	ClosedAt  *time.Time     `json:"closedAt,omitempty"`
}

// KnownUser is a member who accepted the server rules.
type KnownUser struct {
	gorm.Model
	UserID     string    `json:"userId" gorm:"uniqueIndex"`
	Username   string    `json:"username"`
	AcceptedAt time.Time `json:"acceptedAt"`
}

// DownloadLog records a download-link lookup served by the by-id endpoint.
type DownloadLog struct {
	gorm.Model
	MessageID string `json:"messageId" gorm:"index"`
	Category  string `json:"category"`
	ModName   string `json:"modName"`
}

// DatabaseModels lists every persisted model for migration.
var DatabaseModels = []any{
	&Ticket{},
	&KnownUser{},
	&DownloadLog{},
}
