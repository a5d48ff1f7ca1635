package bot

import (
	"log/slog"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shop-replace/modbot/internal/model"
	"github.com/shop-replace/modbot/internal/store"
)

type fakeGateway struct {
	created  []string
	deleted  []string
	dms      map[string][]string
	messages map[string][]string
	nextID   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		dms:      make(map[string][]string),
		messages: make(map[string][]string),
	}
}

func (f *fakeGateway) CreateTicketChannel(guildID, parentID, name, userID string) (*discordgo.Channel, error) {
	f.nextID++
	id := "ticket-chan-" + string(rune('0'+f.nextID))
	f.created = append(f.created, name)
	return &discordgo.Channel{ID: id, Name: name, ParentID: parentID, GuildID: guildID}, nil
}

func (f *fakeGateway) SendDM(userID, content string) error {
	f.dms[userID] = append(f.dms[userID], content)
	return nil
}

func (f *fakeGateway) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.messages[channelID] = append(f.messages[channelID], content)
	return &discordgo.Message{ID: "1", ChannelID: channelID, Content: content}, nil
}

func (f *fakeGateway) ChannelDelete(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.deleted = append(f.deleted, channelID)
	return &discordgo.Channel{ID: channelID}, nil
}

func testTicketService(t *testing.T) (*TicketService, *fakeGateway, *store.Store) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.DatabaseModels...))

	st := store.New(db)
	gw := newFakeGateway()
	svc := NewTicketService(gw, st, "guild-1", "category-1", slog.New(slog.DiscardHandler))
	return svc, gw, st
}

func TestTicketService_Open(t *testing.T) {
	svc, gw, st := testTicketService(t)

	ticket, err := svc.Open("user-1", "Alice Dupont", "Mod introuvable")
	require.NoError(t, err)
	assert.Equal(t, "user-1", ticket.UserID)
	assert.Equal(t, model.TicketOpen, ticket.Status)
	assert.Contains(t, string(ticket.Meta), "guild-1")

	require.Len(t, gw.created, 1)
	assert.Equal(t, "ticket-alice-dupont", gw.created[0])

	welcome := gw.messages[ticket.ChannelID]
	require.Len(t, welcome, 1)
	assert.Contains(t, welcome[0], "<@user-1>")
	assert.Contains(t, welcome[0], "**Sujet :** Mod introuvable")

	loaded, err := st.TicketByChannel(ticket.ChannelID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Dupont", loaded.Username)
	assert.Equal(t, "Mod introuvable", loaded.Subject)
}

func TestTicketService_OpenRejectsSecondTicket(t *testing.T) {
	svc, _, _ := testTicketService(t)

	_, err := svc.Open("user-1", "alice", "aide")
	require.NoError(t, err)

	_, err = svc.Open("user-1", "alice", "aide")
	assert.ErrorIs(t, err, ErrTicketExists)
}

func TestTicketService_Close(t *testing.T) {
	svc, gw, st := testTicketService(t)

	ticket, err := svc.Open("user-1", "alice", "aide")
	require.NoError(t, err)

	require.NoError(t, svc.Close(ticket.ChannelID))

	loaded, err := st.TicketByChannel(ticket.ChannelID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketClosed, loaded.Status)
	require.NotNil(t, loaded.ClosedAt)

	assert.Equal(t, []string{ticket.ChannelID}, gw.deleted)
	require.Len(t, gw.dms["user-1"], 1)
	assert.Equal(t, ticketClosed, gw.dms["user-1"][0])
}

func TestTicketService_CloseUnknownChannel(t *testing.T) {
	svc, _, _ := testTicketService(t)
	assert.ErrorIs(t, svc.Close("nope"), store.ErrTicketNotFound)
}

func TestTicketService_RelayDM(t *testing.T) {
	svc, gw, _ := testTicketService(t)

	ticket, err := svc.Open("user-1", "alice", "aide")
	require.NoError(t, err)

	require.NoError(t, svc.RelayDM("user-1", "alice", "mon mod ne marche pas"))
	relayed := gw.messages[ticket.ChannelID]
	// First message is the welcome.
	require.Len(t, relayed, 2)
	assert.Equal(t, "**alice :** mon mod ne marche pas", relayed[1])

	assert.ErrorIs(t, svc.RelayDM("stranger", "bob", "salut"), store.ErrTicketNotFound)
}

func TestTicketService_RelayChannel(t *testing.T) {
	svc, gw, _ := testTicketService(t)

	ticket, err := svc.Open("user-1", "alice", "aide")
	require.NoError(t, err)

	// Staff message reaches the opener.
	require.NoError(t, svc.RelayChannel(ticket.ChannelID, "staff-1", "modo", "on regarde ça"))
	require.Len(t, gw.dms["user-1"], 1)
	assert.Equal(t, "**modo :** on regarde ça", gw.dms["user-1"][0])

	// The opener's own messages are not echoed back.
	require.NoError(t, svc.RelayChannel(ticket.ChannelID, "user-1", "alice", "merci"))
	assert.Len(t, gw.dms["user-1"], 1)

	assert.ErrorIs(t, svc.RelayChannel("nope", "staff-1", "modo", "x"), store.ErrTicketNotFound)
}
