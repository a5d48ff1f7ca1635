// Package store persists tickets, known users and download logs. It is the
// only structured datastore in the system; mod listings themselves live in
// Discord channel history.
package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shop-replace/modbot/internal/model"
)

// ErrTicketNotFound is returned when no ticket matches the lookup.
var ErrTicketNotFound = errors.New("ticket not found")

// Store wraps the gorm connection with the bot's persistence operations.
type Store struct {
	db *gorm.DB
}

// New creates a Store over an already-connected gorm DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateTicket records a newly opened ticket.
func (s *Store) CreateTicket(t *model.Ticket) error {
	if t.Status == "" {
		t.Status = model.TicketOpen
	}
	if err := s.db.Create(t).Error; err != nil {
		return fmt.Errorf("creating ticket: %w", err)
	}
	return nil
}

// TicketByChannel returns the ticket backed by a channel id.
func (s *Store) TicketByChannel(channelID string) (*model.Ticket, error) {
	var t model.Ticket
	err := s.db.Where("channel_id = ?", channelID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading ticket: %w", err)
	}
	return &t, nil
}

// OpenTicketByUser returns the open ticket a user has, if any.
func (s *Store) OpenTicketByUser(userID string) (*model.Ticket, error) {
	var t model.Ticket
	err := s.db.Where("user_id = ? AND status = ?", userID, model.TicketOpen).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading ticket: %w", err)
	}
	return &t, nil
}

// CloseTicket marks the channel's ticket closed. Closing an already closed
// ticket is a no-op.
func (s *Store) CloseTicket(channelID string) error {
	now := time.Now()
	res := s.db.Model(&model.Ticket{}).
		Where("channel_id = ? AND status = ?", channelID, model.TicketOpen).
		Updates(map[string]any{"status": model.TicketClosed, "closed_at": &now})
	if res.Error != nil {
		return fmt.Errorf("closing ticket: %w", res.Error)
	}
	return nil
}

// CountOpenTickets returns the number of open tickets.
func (s *Store) CountOpenTickets() (int64, error) {
	var n int64
	err := s.db.Model(&model.Ticket{}).Where("status = ?", model.TicketOpen).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("counting tickets: %w", err)
	}
	return n, nil
}

// RecordRulesAcceptance upserts a known user on rules acceptance. Accepting
// twice refreshes the username but keeps the first acceptance time.
func (s *Store) RecordRulesAcceptance(userID, username string) error {
	var existing model.KnownUser
	err := s.db.Where("user_id = ?", userID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		u := model.KnownUser{
			UserID:     userID,
			Username:   username,
			AcceptedAt: time.Now(),
		}
		if err := s.db.Create(&u).Error; err != nil {
			return fmt.Errorf("recording rules acceptance: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading known user: %w", err)
	}
	existing.Username = username
	if err := s.db.Save(&existing).Error; err != nil {
		return fmt.Errorf("updating known user: %w", err)
	}
	return nil
}

// IsKnownUser reports whether a user already accepted the rules.
func (s *Store) IsKnownUser(userID string) (bool, error) {
	var n int64
	err := s.db.Model(&model.KnownUser{}).Where("user_id = ?", userID).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("checking known user: %w", err)
	}
	return n > 0, nil
}

// AppendDownload logs a served download-link lookup.
func (s *Store) AppendDownload(messageID, category, modName string) error {
	entry := model.DownloadLog{
		MessageID: messageID,
		Category:  category,
		ModName:   modName,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("appending download log: %w", err)
	}
	return nil
}

// CountDownloads returns the number of logged download lookups.
func (s *Store) CountDownloads() (int64, error) {
	var n int64
	err := s.db.Model(&model.DownloadLog{}).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("counting downloads: %w", err)
	}
	return n, nil
}
