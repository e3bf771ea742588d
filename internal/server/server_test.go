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
	"github.com/stretchr/testify/require"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
)

const testSecret = "test-secret"

type fakeRunner struct {
	lastInput model.QueryInput
	out       *model.QueryOutput
}

func (f *fakeRunner) Run(_ context.Context, input model.QueryInput) *model.QueryOutput {
	f.lastInput = input
	if f.out != nil {
		return f.out
	}
	return &model.QueryOutput{
		Success:      true,
		ResponseText: "listo",
		Intent:       "query_read",
		NodePath:     []string{"classify_intent"},
		SessionID:    input.SessionID,
		ThreadID:     input.ThreadID,
	}
}

func signToken(t *testing.T, userID int, role string) string {
	t.Helper()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID:    userID,
		Role:      role,
		SessionID: "s-1",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func testRouter(runner QueryRunner) http.Handler {
	s := New(runner)
	return s.Router(
		AuthConfig{JWTSecret: testSecret},
		RateLimitConfig{RequestsPerMinute: 600, Burst: 100},
		30*time.Second,
	)
}

func postChat(t *testing.T, h http.Handler, token string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(raw))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChatRequiresToken(t *testing.T) {
	h := testRouter(&fakeRunner{})
	rec := postChat(t, h, "", map[string]any{"query": "hola"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatRejectsBadToken(t *testing.T) {
	h := testRouter(&fakeRunner{})
	rec := postChat(t, h, "not-a-token", map[string]any{"query": "hola"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatIdentityComesFromToken(t *testing.T) {
	runner := &fakeRunner{}
	h := testRouter(runner)

	rec := postChat(t, h, signToken(t, 42, "Podologo"), map[string]any{
		"query":   "pacientes de hoy",
		"user_id": 1, // ignored: identity is token-derived
		"role":    "Admin",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 42, runner.lastInput.UserID)
	require.Equal(t, "Podologo", runner.lastInput.Role)
	require.Equal(t, "pacientes de hoy", runner.lastInput.QueryText)
}

func TestChatRequiresQuery(t *testing.T) {
	h := testRouter(&fakeRunner{})
	rec := postChat(t, h, signToken(t, 1, "Admin"), map[string]any{"query": "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatDefaultsOriginToWebapp(t *testing.T) {
	runner := &fakeRunner{}
	h := testRouter(runner)

	postChat(t, h, signToken(t, 1, "Admin"), map[string]any{"query": "hola", "origin": "carrier_pigeon"})
	require.Equal(t, model.OriginWebapp, runner.lastInput.Origin)

	postChat(t, h, signToken(t, 1, "Admin"), map[string]any{"query": "hola", "origin": "whatsapp_paciente"})
	require.Equal(t, model.OriginWhatsappPatient, runner.lastInput.Origin)
}

func TestChatResponseShape(t *testing.T) {
	runner := &fakeRunner{out: &model.QueryOutput{
		Success:      false,
		ResponseText: "Acceso restringido",
		Intent:       "query_read",
		ErrorKind:    "permission_denied",
		ThreadID:     "1_webapp_s-1",
		SessionID:    "s-1",
	}}
	h := testRouter(runner)

	rec := postChat(t, h, signToken(t, 1, "Paciente"), map[string]any{"query": "usuarios"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	require.Equal(t, "permission_denied", resp.ErrorKind)
	require.Equal(t, "1_webapp_s-1", resp.ThreadID)
	require.GreaterOrEqual(t, resp.ProcessingTimeMS, 0.0)
}

func TestChatRateLimit(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner)
	h := s.Router(
		AuthConfig{JWTSecret: testSecret},
		RateLimitConfig{RequestsPerMinute: 1, Burst: 2},
		30*time.Second,
	)
	token := signToken(t, 9, "Admin")

	first := postChat(t, h, token, map[string]any{"query": "hola"})
	second := postChat(t, h, token, map[string]any{"query": "hola"})
	third := postChat(t, h, token, map[string]any{"query": "hola"})

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, http.StatusTooManyRequests, third.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(third.Body.Bytes(), &resp))
	require.Equal(t, string(model.ErrorRateLimited), resp.ErrorKind)
}

func TestHealthz(t *testing.T) {
	h := testRouter(&fakeRunner{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
