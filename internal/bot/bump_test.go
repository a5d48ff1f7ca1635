package bot

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnnouncer struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeAnnouncer) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, channelID)
	return &discordgo.Message{ID: "1", ChannelID: channelID}, nil
}

func (f *fakeAnnouncer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestBumpManager_SendsPeriodically(t *testing.T) {
	announcer := &fakeAnnouncer{}
	m := NewBumpManager(announcer, 10*time.Millisecond, slog.New(slog.DiscardHandler))
	t.Cleanup(m.StopAll)

	m.Start("guild-1", "chan-1")

	require.Eventually(t, func() bool {
		return announcer.count() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestBumpManager_StartReplacesExisting(t *testing.T) {
	announcer := &fakeAnnouncer{}
	m := NewBumpManager(announcer, time.Hour, slog.New(slog.DiscardHandler))
	t.Cleanup(m.StopAll)

	m.Start("guild-1", "chan-1")
	m.Start("guild-1", "chan-2")

	assert.True(t, m.Active("guild-1"))
	// Only one reminder exists; stopping once clears the guild.
	assert.True(t, m.Stop("guild-1"))
	assert.False(t, m.Active("guild-1"))
}

func TestBumpManager_StopWithoutReminder(t *testing.T) {
	m := NewBumpManager(&fakeAnnouncer{}, time.Hour, slog.New(slog.DiscardHandler))
	assert.False(t, m.Stop("guild-1"))
}

func TestBumpManager_StopHaltsSending(t *testing.T) {
	announcer := &fakeAnnouncer{}
	m := NewBumpManager(announcer, 10*time.Millisecond, slog.New(slog.DiscardHandler))

	m.Start("guild-1", "chan-1")
	require.Eventually(t, func() bool {
		return announcer.count() >= 1
	}, time.Second, 5*time.Millisecond)

	m.Stop("guild-1")
	after := announcer.count()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, announcer.count(), after+1, "no further sends after stop")
}
