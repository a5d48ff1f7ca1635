// Package discord wraps the discordgo session with the bot's connection
// lifecycle and the guild operations the ticket and rules flows need.
package discord

import (
	"fmt"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
)

// Session wraps a discordgo session. The embedded session satisfies
// mods.ChannelClient directly.
type Session struct {
	*discordgo.Session

	ready atomic.Bool
}

// New creates a Discord session for the given bot token. The session is not
// opened yet; call Open.
func New(token string) (*Session, error) {
	if token == "" {
		return nil, fmt.Errorf("discord token is not configured")
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent |
		discordgo.IntentsDirectMessages

	s := &Session{Session: dg}
	dg.AddHandler(func(_ *discordgo.Session, _ *discordgo.Ready) {
		s.ready.Store(true)
	})
	dg.AddHandler(func(_ *discordgo.Session, _ *discordgo.Disconnect) {
		s.ready.Store(false)
	})

	return s, nil
}

// Ready reports whether the gateway connection is established.
func (s *Session) Ready() bool {
	return s.ready.Load()
}

// CreateTicketChannel creates a private text channel under the tickets
// category, visible only to the bot and the ticket opener.
func (s *Session) CreateTicketChannel(guildID, parentID, name, userID string) (*discordgo.Channel, error) {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			// @everyone shares its id with the guild
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    userID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		},
	}
	if s.State != nil && s.State.User != nil {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    s.State.User.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		})
	}

	ch, err := s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             parentID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return nil, fmt.Errorf("creating ticket channel: %w", err)
	}
	return ch, nil
}

// SendDM sends a direct message to a user.
func (s *Session) SendDM(userID, content string) error {
	ch, err := s.UserChannelCreate(userID)
	if err != nil {
		return fmt.Errorf("opening DM channel: %w", err)
	}
	if _, err := s.ChannelMessageSend(ch.ID, content); err != nil {
		return fmt.Errorf("sending DM: %w", err)
	}
	return nil
}

// GrantRole adds a role to a guild member.
func (s *Session) GrantRole(guildID, userID, roleID string) error {
	if err := s.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		return fmt.Errorf("granting role: %w", err)
	}
	return nil
}

// IsMember reports whether a user belongs to the guild.
func (s *Session) IsMember(guildID, userID string) (bool, error) {
	_, err := s.GuildMember(guildID, userID)
	if err != nil {
		if restErr, ok := err.(*discordgo.RESTError); ok && restErr.Response != nil && restErr.Response.StatusCode == 404 {
			return false, nil
		}
		return false, fmt.Errorf("fetching guild member: %w", err)
	}
	return true, nil
}
