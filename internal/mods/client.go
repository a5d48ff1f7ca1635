// Package mods implements the mod-listing read and write paths: publishing a
// listing as a Discord embed, and reconstructing listings back out of channel
// history. The channel history is the system of record; there is no
// persisted structured copy of a listing.
package mods

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

// ChannelClient is the narrow slice of the Discord session the mod paths
// need. *discordgo.Session satisfies it; tests substitute a fake.
type ChannelClient interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Sentinel errors surfaced to API callers. The publish-path messages are the
// exact strings the admin frontend matches on.
var (
	ErrMissingChannel  = errors.New("ID du canal Discord manquant")
	ErrMissingImages   = errors.New("Aucune image fournie")
	ErrChannelNotFound = errors.New("Canal Discord non trouvé")
	ErrInvalidCategory = errors.New("catégorie invalide")
	ErrNotFound        = errors.New("Mod non trouvé")
)
