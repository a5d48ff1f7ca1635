package mods

import (
	"fmt"
	"log/slog"

	"github.com/shop-replace/modbot/internal/model"
	"github.com/shop-replace/modbot/internal/registry"
)

// historyLimit caps the per-channel message fetch. Mods older than the most
// recent 100 messages in a channel are invisible to scans; this is a
// documented limitation of using channel history as the datastore, not a
// bug in the scanner.
const historyLimit = 100

// Scanner aggregates mod records out of the channels a category maps to.
// Channels are fetched sequentially to keep load on the Discord rate
// limiter bounded.
type Scanner struct {
	client   ChannelClient
	registry *registry.Registry
	guildID  string
	logger   *slog.Logger
}

// NewScanner creates a Scanner over the given registry. guildID is used to
// build message links for records fetched over REST, where the message
// payload carries no guild id.
func NewScanner(client ChannelClient, reg *registry.Registry, guildID string, logger *slog.Logger) *Scanner {
	return &Scanner{
		client:   client,
		registry: reg,
		guildID:  guildID,
		logger:   logger,
	}
}

// ScanCategory fetches the recent history of every channel under category
// and reconstructs a record from each message carrying an embed. Strict
// extraction is preferred; the heuristic extractor covers legacy messages
// whose field labels predate the current publisher format. A channel that
// cannot be fetched is logged and skipped. Aggregate order is fetch order
// (registry channel order, newest-first within a channel); no re-sort is
// applied.
func (s *Scanner) ScanCategory(category string) ([]model.ModRecord, error) {
	if !s.registry.Valid(category) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCategory, category)
	}

	records := []model.ModRecord{}
	for _, entry := range s.registry.Channels(category) {
		messages, err := s.client.ChannelMessages(entry.ChannelID, historyLimit, "", "", "")
		if err != nil {
			s.logger.Warn("Skipping unavailable channel",
				"category", category,
				"subtype", entry.Subtype,
				"channelId", entry.ChannelID,
				"error", err)
			continue
		}

		for _, m := range messages {
			if m == nil || len(m.Embeds) == 0 {
				continue
			}

			rec := ExtractStrict(m)
			if rec == nil || rec.Name == "" || rec.Type == "" {
				if h := Extract(m); h != nil {
					rec = h
				}
			}
			if rec == nil {
				continue
			}

			applyDefaults(rec)
			rec.Category = category
			if rec.ChannelID == "" {
				rec.ChannelID = entry.ChannelID
			}
			records = append(records, *rec)
		}
	}

	return records, nil
}

// FindByID searches every registry channel for the message with the given
// id, in category then subtype order, and reconstructs it in the legacy
// field shape. This is a linear scan over all channels per call.
func (s *Scanner) FindByID(id string) (*model.ModDetail, error) {
	for _, category := range s.registry.Categories() {
		for _, entry := range s.registry.Channels(category) {
			m, err := s.client.ChannelMessage(entry.ChannelID, id)
			if err != nil || m == nil || len(m.Embeds) == 0 || m.Embeds[0] == nil {
				continue
			}
			e := m.Embeds[0]

			detail := &model.ModDetail{
				ID:          m.ID,
				Category:    category,
				Type:        entry.Subtype,
				Name:        e.Title,
				Description: e.Description,
				Date:        m.Timestamp,
				DiscordLink: fmt.Sprintf("https://discord.com/channels/%s/%s/%s",
					s.guildID, entry.ChannelID, m.ID),
			}
			if e.Image != nil {
				detail.Images = []string{e.Image.URL}
			}
			for _, f := range e.Fields {
				if f != nil && f.Name == "Download" {
					detail.MediaFireLink = f.Value
					break
				}
			}
			return detail, nil
		}
	}
	return nil, ErrNotFound
}
