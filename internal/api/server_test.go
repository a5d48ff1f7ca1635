package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shop-replace/modbot/internal/model"
	"github.com/shop-replace/modbot/internal/mods"
	"github.com/shop-replace/modbot/internal/store"
)

type fakePublisher struct {
	req model.PublishRequest
	err error
}

func (f *fakePublisher) Publish(req model.PublishRequest) (*discordgo.Message, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &discordgo.Message{ID: "sent-1"}, nil
}

type fakeScanner struct {
	records []model.ModRecord
	detail  *model.ModDetail
	err     error
}

func (f *fakeScanner) ScanCategory(category string) ([]model.ModRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeScanner) FindByID(id string) (*model.ModDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detail, nil
}

func testServer(t *testing.T, pub Publisher, sc Scanner, ready bool) *Server {
	t.Helper()
	return New(pub, sc, nil, slog.New(slog.DiscardHandler), func() bool { return ready })
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestTestRoute(t *testing.T) {
	s := testServer(t, &fakePublisher{}, &fakeScanner{}, false)

	rec, body := doJSON(t, s.Handler(), http.MethodGet, "/test", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "connecting", body["bot"])
}

func TestRootRoute_NotReady(t *testing.T) {
	s := testServer(t, &fakePublisher{}, &fakeScanner{}, false)

	rec, body := doJSON(t, s.Handler(), http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "initializing", body["status"])
}

func TestRootRoute_Ready(t *testing.T) {
	s := testServer(t, &fakePublisher{}, &fakeScanner{}, true)

	rec, body := doJSON(t, s.Handler(), http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "online", body["status"])
}

func TestAPIRoutes_GatedWhileConnecting(t *testing.T) {
	s := testServer(t, &fakePublisher{}, &fakeScanner{}, false)

	rec, body := doJSON(t, s.Handler(), http.MethodGet, "/api/mods/ARME", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Service indisponible", body["error"])
}

func TestCORSPreflight(t *testing.T) {
	s := testServer(t, &fakePublisher{}, &fakeScanner{}, true)

	req := httptest.NewRequest(http.MethodOptions, "/api/mods/ARME", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPublish_Success(t *testing.T) {
	pub := &fakePublisher{}
	s := testServer(t, pub, &fakeScanner{}, true)

	payload := model.PublishRequest{
		Name:             "AWP MK2",
		DiscordChannelID: "100",
		Images:           []string{"https://cdn.example/1.png"},
	}
	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/api/publish", payload)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Mod publié avec succès", body["message"])
	assert.Equal(t, "AWP MK2", pub.req.Name)
}

func TestPublish_MissingImages(t *testing.T) {
	pub := &fakePublisher{err: mods.ErrMissingImages}
	s := testServer(t, pub, &fakeScanner{}, true)

	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/api/publish", model.PublishRequest{})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Aucune image fournie", body["message"])
}

func TestPublish_MissingChannel(t *testing.T) {
	pub := &fakePublisher{err: mods.ErrMissingChannel}
	s := testServer(t, pub, &fakeScanner{}, true)

	rec, body := doJSON(t, s.Handler(), http.MethodPost, "/api/publish", model.PublishRequest{})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "ID du canal Discord manquant", body["message"])
}

func TestModsByCategory_Success(t *testing.T) {
	sc := &fakeScanner{records: []model.ModRecord{
		{Name: "AWP MK2", Type: "Sniper"},
		{Name: "RPG custom", Type: "Lance-roquettes"},
	}}
	s := testServer(t, &fakePublisher{}, sc, true)

	rec, body := doJSON(t, s.Handler(), http.MethodGet, "/api/mods/arme", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	modsList, ok := body["mods"].([]any)
	require.True(t, ok)
	assert.Len(t, modsList, 2)

	meta, ok := body["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ARME", meta["category"])
	assert.EqualValues(t, 2, meta["total"])
}

func TestModsByCategory_Invalid(t *testing.T) {
	sc := &fakeScanner{err: mods.ErrInvalidCategory}
	s := testServer(t, &fakePublisher{}, sc, true)

	rec, body := doJSON(t, s.Handler(), http.MethodGet, "/api/mods/INVALID", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Catégorie invalide: INVALID", body["error"])
}

func TestModByID_Success_LogsDownload(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.DatabaseModels...))
	st := store.New(db)

	sc := &fakeScanner{detail: &model.ModDetail{
		ID:       "mod-42",
		Category: model.CategoryWeapon,
		Name:     "AWP MK2",
		Date:     time.Now(),
	}}
	s := New(&fakePublisher{}, sc, st, slog.New(slog.DiscardHandler), func() bool { return true })

	rec, body := doJSON(t, s.Handler(), http.MethodGet, "/api/mods/id/mod-42", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mod-42", body["id"])

	n, err := st.CountDownloads()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestModByID_NotFound(t *testing.T) {
	sc := &fakeScanner{err: mods.ErrNotFound}
	s := testServer(t, &fakePublisher{}, sc, true)

	rec, body := doJSON(t, s.Handler(), http.MethodGet, "/api/mods/id/absent", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Mod non trouvé", body["error"])
}
