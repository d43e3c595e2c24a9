package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deardiary/internal/analysis"
	"deardiary/internal/embedding"
	"deardiary/internal/journal"
	"deardiary/internal/llm"
	"deardiary/internal/prefs"
	"deardiary/internal/prompts"
	"deardiary/internal/tts"
)

const providerJSON = `{
	"empathy_response": "That sounds really hard, and your feelings make complete sense.",
	"tactic_identified": true,
	"tactic_name": "gaslighting",
	"tactic_explanation": "He insisted the conversation you remember never happened.",
	"confidence": 0.4,
	"reflection_question": "What would you tell a friend in the same situation?"
}`

type testServer struct {
	server      *Server
	store       *journal.InMemoryStore
	prefsStore  *prefs.InMemoryStore
	client      *llm.MockClient
	synthesizer *tts.MockSynthesizer
}

func newTestServer(t *testing.T, jwtSecret string) *testServer {
	t.Helper()

	store := journal.NewInMemoryStore()
	prefsStore := prefs.NewInMemoryStore()
	client := &llm.MockClient{Response: providerJSON}
	synthesizer := &tts.MockSynthesizer{}

	loader, err := prompts.NewLoader()
	require.NoError(t, err)

	resolver := prefs.NewResolver(prefsStore, nil)
	orchestrator := analysis.NewOrchestrator(
		analysis.Config{ProviderName: "mock", RequestTimeout: 5 * time.Second},
		&embedding.MockEmbedder{Dims: 8},
		journal.NewRetriever(journal.RetrieverConfig{Limit: 5, CandidatePool: 50}, store, nil, nil),
		resolver,
		prompts.NewBuilder(loader, 2000),
		client,
		store,
		nil,
		nil,
	)

	srv := New(Config{JWTSecret: jwtSecret}, Deps{
		Orchestrator: orchestrator,
		Store:        store,
		PrefsStore:   prefsStore,
		Personas:     resolver,
		Synthesizer:  synthesizer,
		Voices:       tts.VoiceMap{},
	})

	return &testServer{
		server:      srv,
		store:       store,
		prefsStore:  prefsStore,
		client:      client,
		synthesizer: synthesizer,
	}
}

func (ts *testServer) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSubmitEntry_Created(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodPost, "/api/journal/entries", "user-1", SubmitEntryRequest{
		Content: "He told me the argument never happened, but I wrote it down that night.",
		Mood:    "anxious",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode(t, rec)
	assert.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var entry journal.Entry
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "user-1", entry.UserID)
	assert.True(t, entry.Analysis.TacticIdentified)
	require.NotNil(t, entry.Analysis.TacticName)
	assert.Equal(t, "gaslighting", *entry.Analysis.TacticName)

	stored, err := ts.store.FindRecent(context.Background(), "user-1", 10)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestSubmitEntry_ValidationErrors(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodPost, "/api/journal/entries", "user-1", SubmitEntryRequest{
		Content: "   ",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decode(t, rec).Success)

	rec = ts.do(t, http.MethodPost, "/api/journal/entries", "user-1", SubmitEntryRequest{
		Content: "fine day",
		Mood:    "ecstatic",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitEntry_RequiresAuth(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodPost, "/api/journal/entries", "", SubmitEntryRequest{Content: "hi"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListEntries(t *testing.T) {
	ts := newTestServer(t, "")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := ts.store.Insert(ctx, journal.Entry{UserID: "user-1", Content: "x"})
		require.NoError(t, err)
	}
	_, err := ts.store.Insert(ctx, journal.Entry{UserID: "user-2", Content: "not yours"})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodGet, "/api/journal/entries?limit=2", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var entries []journal.Entry
	require.NoError(t, json.Unmarshal(data, &entries))
	assert.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, "user-1", entry.UserID)
	}
}

func TestListEntries_BadLimit(t *testing.T) {
	ts := newTestServer(t, "")

	for _, limit := range []string{"0", "101", "-3", "abc"} {
		rec := ts.do(t, http.MethodGet, "/api/journal/entries?limit="+limit, "user-1", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit=%s", limit)
	}
}

func TestListEntries_EmptyIsArray(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodGet, "/api/journal/entries", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestPreferences_DefaultAndUpdate(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodGet, "/api/preferences", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"persona_preference":"friend"`)

	rec = ts.do(t, http.MethodPut, "/api/preferences", "user-1", UpdatePreferencesRequest{
		PersonaPreference: "therapist",
		EmergencyContact:  "+15550100",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/preferences", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"persona_preference":"therapist"`)
	assert.Contains(t, rec.Body.String(), `"emergency_contact":"+15550100"`)
}

func TestUpdatePreferences_InvalidPersona(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodPut, "/api/preferences", "user-1", UpdatePreferencesRequest{
		PersonaPreference: "guru",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEntrySpeech(t *testing.T) {
	ts := newTestServer(t, "")
	ts.synthesizer.Audio = []byte("mp3-bytes")

	entry, err := ts.store.Insert(context.Background(), journal.Entry{
		UserID:  "user-1",
		Content: "x",
		Analysis: journal.AnalysisResult{
			EmpathyResponse: "I hear how much that hurt.",
		},
	})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/api/journal/entries/"+entry.ID+"/speech", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "mp3-bytes", rec.Body.String())
	assert.Equal(t, "I hear how much that hurt.", ts.synthesizer.LastText)
}

func TestEntrySpeech_ForeignEntryLooksMissing(t *testing.T) {
	ts := newTestServer(t, "")

	entry, err := ts.store.Insert(context.Background(), journal.Entry{UserID: "user-2", Content: "x"})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/api/journal/entries/"+entry.ID+"/speech", "user-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/journal/entries/no-such-id/speech", "user-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEntrySpeech_SynthesisFailure(t *testing.T) {
	ts := newTestServer(t, "")
	ts.synthesizer.Err = context.DeadlineExceeded

	entry, err := ts.store.Insert(context.Background(), journal.Entry{UserID: "user-1", Content: "x"})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/api/journal/entries/"+entry.ID+"/speech", "user-1", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealth_NoAuthRequired(t *testing.T) {
	ts := newTestServer(t, "")

	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAuth_JWT(t *testing.T) {
	const secret = "test-secret"
	ts := newTestServer(t, secret)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-from-token",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/preferences", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"user-from-token"`)
}

func TestAuth_JWTRejectsBadToken(t *testing.T) {
	ts := newTestServer(t, "test-secret")

	req := httptest.NewRequest(http.MethodGet, "/api/preferences", nil)
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	wrong := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"})
	signed, err := wrong.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/api/preferences", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec = httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
