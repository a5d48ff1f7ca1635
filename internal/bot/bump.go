package bot

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

const bumpMessage = "@everyone C'est l'heure de bump ! Utilisez `/bump` pour augmenter la visibilité du serveur !"

// Announcer is the slice of the Discord session the bump scheduler sends
// through.
type Announcer interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// BumpManager runs one periodic bump reminder per guild. Starting a new
// reminder for a guild replaces the previous one.
type BumpManager struct {
	mu        sync.Mutex
	interval  time.Duration
	announcer Announcer
	logger    *slog.Logger
	reminders map[string]chan struct{}
}

// NewBumpManager creates a BumpManager posting every interval.
func NewBumpManager(announcer Announcer, interval time.Duration, logger *slog.Logger) *BumpManager {
	return &BumpManager{
		interval:  interval,
		announcer: announcer,
		logger:    logger,
		reminders: make(map[string]chan struct{}),
	}
}

// Start schedules bump reminders for a guild into the given channel.
func (b *BumpManager) Start(guildID, channelID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if stop, ok := b.reminders[guildID]; ok {
		close(stop)
	}

	stop := make(chan struct{})
	b.reminders[guildID] = stop
	go b.run(guildID, channelID, stop)

	b.logger.Info("Bump reminders configured",
		"guildId", guildID,
		"channelId", channelID,
		"interval", b.interval)
}

// Stop cancels a guild's reminder. It reports whether one was active.
func (b *BumpManager) Stop(guildID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	stop, ok := b.reminders[guildID]
	if !ok {
		return false
	}
	close(stop)
	delete(b.reminders, guildID)
	return true
}

// Active reports whether a guild has a reminder scheduled.
func (b *BumpManager) Active(guildID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.reminders[guildID]
	return ok
}

// StopAll cancels every reminder. Called on shutdown.
func (b *BumpManager) StopAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for guildID, stop := range b.reminders {
		close(stop)
		delete(b.reminders, guildID)
	}
}

func (b *BumpManager) run(guildID, channelID string, stop <-chan struct{}) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.send(guildID, channelID)
		}
	}
}

func (b *BumpManager) send(guildID, channelID string) {
	_, err := b.announcer.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: bumpMessage,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeEveryone},
		},
	})
	if err != nil {
		b.logger.Error("Failed to send bump reminder",
			"guildId", guildID,
			"channelId", channelID,
			"error", err)
	}
}
