package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/pitwall/core"
)

type stubReplier struct {
	answer   string
	err      error
	received []core.ChatMessage
}

func (s *stubReplier) Reply(ctx context.Context, messages []core.ChatMessage) (string, error) {
	s.received = messages
	if s.err != nil {
		return "", s.err
	}
	if err := core.ValidateHistory(messages); err != nil {
		return "", err
	}
	return s.answer, nil
}

func newTestServer(t *testing.T, replier Replier, opts ...Option) *Server {
	t.Helper()
	s, err := New(replier, opts...)
	require.NoError(t, err)
	return s
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestNew_RequiresReplier(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrReplierRequired)
}

func TestNew_Options(t *testing.T) {
	s := newTestServer(t, &stubReplier{}, WithAddr(":8081"))
	assert.Equal(t, ":8081", s.Addr())

	_, err := New(&stubReplier{}, WithAddr(""))
	assert.Error(t, err)
	_, err = New(&stubReplier{}, WithMaxBodyBytes(0))
	assert.Error(t, err)
}

func TestChat_Success(t *testing.T) {
	replier := &stubReplier{answer: "Ayrton Senna won three titles."}
	s := newTestServer(t, replier)

	rec := postChat(t, s.Handler(), `{"messages":[
		{"role":"user","content":"Who is Senna?"},
		{"role":"assistant","content":"A Brazilian driver."},
		{"role":"user","content":"How many titles?"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Ayrton Senna won three titles.", resp.Message)

	require.Len(t, replier.received, 3)
	assert.Equal(t, core.RoleAssistant, replier.received[1].Role)
	assert.Equal(t, "How many titles?", replier.received[2].Content)
}

func TestChat_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty history", `{"messages":[]}`, "messages must not be empty"},
		{"missing messages", `{}`, "messages must not be empty"},
		{"malformed json", `{"messages":`, "malformed JSON body"},
		{"missing role", `{"messages":[{"content":"hi"}]}`, `messages[0].role failed "required" validation`},
		{"missing content", `{"messages":[{"role":"user"}]}`, `messages[0].content failed "required" validation`},
		{"system role", `{"messages":[{"role":"system","content":"x"},{"role":"user","content":"hi"}]}`, "invalid message role"},
		{"no user message", `{"messages":[{"role":"assistant","content":"hi"}]}`, "messages must contain a user message"},
		{"blank content", `{"messages":[{"role":"user","content":"  "}]}`, "content cannot be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &stubReplier{answer: "unused"})
			rec := postChat(t, s.Handler(), tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decodeError(t, rec))
		})
	}
}

func TestChat_InternalErrorHidesDetail(t *testing.T) {
	replier := &stubReplier{err: fmt.Errorf("generation failed: %w", errors.New("api key sk-secret rejected"))}
	s := newTestServer(t, replier)

	rec := postChat(t, s.Handler(), `{"messages":[{"role":"user","content":"hi"}]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeError(t, rec))
	assert.NotContains(t, rec.Body.String(), "sk-secret")
}

func TestChat_BodyTooLarge(t *testing.T) {
	s := newTestServer(t, &stubReplier{answer: "x"}, WithMaxBodyBytes(32))
	body := `{"messages":[{"role":"user","content":"` + strings.Repeat("a", 100) + `"}]}`

	rec := postChat(t, s.Handler(), body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestChat_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &stubReplier{})
	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &stubReplier{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	s := newTestServer(t, &stubReplier{}, WithAllowedOrigins("http://localhost:5173"))

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, &stubReplier{answer: "pong"})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Post("http://"+ln.Addr().String()+"/api/chat", "application/json",
		strings.NewReader(`{"messages":[{"role":"user","content":"ping"}]}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
