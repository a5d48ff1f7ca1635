package mods

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// fakeClient is an in-memory ChannelClient for tests.
type fakeClient struct {
	channels map[string]*discordgo.Channel
	messages map[string][]*discordgo.Message
	failing  map[string]error
	fetched  []string
	sent     []sentMessage
	sendErr  error
}

type sentMessage struct {
	channelID string
	data      *discordgo.MessageSend
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		channels: make(map[string]*discordgo.Channel),
		messages: make(map[string][]*discordgo.Message),
		failing:  make(map[string]error),
	}
}

func (f *fakeClient) addChannel(id string) {
	f.channels[id] = &discordgo.Channel{ID: id}
}

func (f *fakeClient) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if err, ok := f.failing[channelID]; ok {
		return nil, err
	}
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("HTTP 404 Not Found, unknown channel %s", channelID)
	}
	return ch, nil
}

func (f *fakeClient) ChannelMessage(channelID, messageID string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.fetched = append(f.fetched, channelID)
	if err, ok := f.failing[channelID]; ok {
		return nil, err
	}
	for _, m := range f.messages[channelID] {
		if m.ID == messageID {
			return m, nil
		}
	}
	return nil, fmt.Errorf("HTTP 404 Not Found, unknown message %s", messageID)
}

func (f *fakeClient) ChannelMessages(channelID string, limit int, _, _, _ string, _ ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.fetched = append(f.fetched, channelID)
	if err, ok := f.failing[channelID]; ok {
		return nil, err
	}
	msgs := f.messages[channelID]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (f *fakeClient) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, sentMessage{channelID: channelID, data: data})
	return &discordgo.Message{
		ID:        fmt.Sprintf("sent-%d", len(f.sent)),
		ChannelID: channelID,
		Timestamp: time.Now(),
	}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// embedMessage builds a message carrying a single embed.
func embedMessage(id, channelID string, embed *discordgo.MessageEmbed, components ...discordgo.MessageComponent) *discordgo.Message {
	return &discordgo.Message{
		ID:         id,
		ChannelID:  channelID,
		Timestamp:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}
}

// downloadRow builds a single link-button action row.
func downloadRow(label, url string) discordgo.MessageComponent {
	return &discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			&discordgo.Button{
				Label: label,
				Style: discordgo.LinkButton,
				URL:   url,
			},
		},
	}
}
