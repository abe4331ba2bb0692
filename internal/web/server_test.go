package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/csheth/bioengine/internal/core"
	"github.com/csheth/bioengine/internal/nav"
)

func newTestServer(t *testing.T, maxSessions int) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(Options{
		MaxSessions: maxSessions,
		Runtime: core.Options{
			TransitionDelay: 5 * time.Millisecond,
			ReplyDelay:      20 * time.Millisecond,
		},
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Registry().Close()
	})
	return s, ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func createSession(t *testing.T, ts *httptest.Server) sessionResponse {
	t.Helper()
	status, raw := do(t, ts, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, status, string(raw))
	var created sessionResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	require.NotEmpty(t, created.ID)
	return created
}

func intent(t *testing.T, ts *httptest.Server, id, body string) (int, []byte) {
	t.Helper()
	return do(t, ts, http.MethodPost, "/api/sessions/"+id+"/intents", body)
}

func decodeSnapshot(t *testing.T, raw []byte) core.Snapshot {
	t.Helper()
	var snap core.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap), string(raw))
	return snap
}

func decodeError(t *testing.T, raw []byte) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(raw, &resp), string(raw))
	return resp
}

func TestCreateAndGetSession(t *testing.T) {
	_, ts := newTestServer(t, 0)
	created := createSession(t, ts)
	assert.Equal(t, nav.PageHome, created.Snapshot.Page)
	assert.False(t, created.Snapshot.Authenticated)

	status, raw := do(t, ts, http.MethodGet, "/api/sessions/"+created.ID, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, nav.PageHome, decodeSnapshot(t, raw).Page)
}

func TestIntentFlow(t *testing.T) {
	_, ts := newTestServer(t, 0)
	id := createSession(t, ts).ID

	status, raw := intent(t, ts, id, `{"type":"navigate","page":"features"}`)
	require.Equal(t, http.StatusOK, status)
	snap := decodeSnapshot(t, raw)
	assert.Equal(t, nav.PageFeatures, snap.Page)
	assert.False(t, snap.TransitionVisible)

	status, raw = intent(t, ts, id, `{"type":"navigate","page":"chat"}`)
	require.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "login_required", decodeError(t, raw).Error)

	status, raw = intent(t, ts, id, `{"type":"open_chat"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, nav.PageLogin, decodeSnapshot(t, raw).Page)

	for _, body := range []string{
		`{"type":"update_email_draft","value":"ada@example.com"}`,
		`{"type":"update_password_draft","value":"pw"}`,
	} {
		status, raw = intent(t, ts, id, body)
		require.Equal(t, http.StatusOK, status, string(raw))
	}
	status, raw = intent(t, ts, id, `{"type":"submit_login"}`)
	require.Equal(t, http.StatusOK, status)
	snap = decodeSnapshot(t, raw)
	assert.True(t, snap.Authenticated)
	assert.Equal(t, nav.PageChat, snap.Page)
	assert.Equal(t, "ada@example.com", snap.EmailDraft)
}

func TestMessageReplyArrives(t *testing.T) {
	s, ts := newTestServer(t, 0)
	id := createSession(t, ts).ID
	rt, err := s.Registry().Get(id)
	require.NoError(t, err)

	intent(t, ts, id, `{"type":"update_message_draft","value":"What is ATP?"}`)
	status, raw := intent(t, ts, id, `{"type":"submit_message"}`)
	require.Equal(t, http.StatusOK, status)
	snap := decodeSnapshot(t, raw)
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, "What is ATP?", snap.Messages[0].Text)
	assert.Equal(t, 1, snap.PendingReplies)
	assert.Empty(t, snap.MessageDraft)

	require.Eventually(t, func() bool {
		snap, err := rt.Snapshot(t.Context())
		return err == nil && len(snap.Messages) == 2 && snap.PendingReplies == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestBadIntents(t *testing.T) {
	_, ts := newTestServer(t, 0)
	id := createSession(t, ts).ID

	for name, body := range map[string]string{
		"unknown type": `{"type":"dance"}`,
		"unknown page": `{"type":"navigate","page":"pricing"}`,
		"malformed":    `{"type":`,
		"wrong type":   `{"type":42}`,
	} {
		t.Run(name, func(t *testing.T) {
			status, raw := intent(t, ts, id, body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, "bad_intent", decodeError(t, raw).Error)
		})
	}
}

func TestUnknownSession(t *testing.T) {
	_, ts := newTestServer(t, 0)
	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/sessions/nope", ""},
		{http.MethodDelete, "/api/sessions/nope", ""},
		{http.MethodPost, "/api/sessions/nope/intents", `{"type":"logout"}`},
		{http.MethodGet, "/ws/nope", ""},
	} {
		status, raw := do(t, ts, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, status, tc.method+" "+tc.path)
		assert.Equal(t, "session_not_found", decodeError(t, raw).Error)
	}
}

func TestDeleteSession(t *testing.T) {
	s, ts := newTestServer(t, 0)
	id := createSession(t, ts).ID
	require.Equal(t, 1, s.Registry().Len())

	status, _ := do(t, ts, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, 0, s.Registry().Len())

	status, _ = do(t, ts, http.MethodGet, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSessionLimit(t *testing.T) {
	_, ts := newTestServer(t, 1)
	createSession(t, ts)

	status, raw := do(t, ts, http.MethodPost, "/api/sessions", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "too_many_sessions", decodeError(t, raw).Error)
}

func TestHealthAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, 0)
	id := createSession(t, ts).ID
	intent(t, ts, id, `{"type":"update_email_draft","value":"a@b.c"}`)
	intent(t, ts, id, `{"type":"update_password_draft","value":"x"}`)
	intent(t, ts, id, `{"type":"submit_login"}`)
	intent(t, ts, id, `{"type":"dance"}`)

	status, raw := do(t, ts, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","sessions":1}`, string(raw))

	status, raw = do(t, ts, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, status)
	body := string(raw)
	assert.Contains(t, body, "bioengine_sessions_active 1")
	assert.Contains(t, body, `bioengine_login_attempts_total{accepted="true"} 1`)
	assert.Contains(t, body, `bioengine_navigations_total{page="chat"} 1`)
	assert.Contains(t, body, `bioengine_intents_total{kind="submit_login",result="ok"} 1`)
	// Undecodable intents never reach the controller.
	assert.NotContains(t, body, `kind="dance"`)
}

func TestRequestBodyIsCapped(t *testing.T) {
	_, ts := newTestServer(t, 0)
	id := createSession(t, ts).ID
	huge := `{"type":"update_message_draft","value":"` + strings.Repeat("a", maxIntentBytes) + `"}`

	status, raw := do(t, ts, http.MethodPost, "/api/sessions/"+id+"/intents", huge)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bad_intent", decodeError(t, raw).Error)
}

func TestRegistryCloseReleasesRuntimes(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	reg := NewRegistry(0, core.Options{TransitionDelay: time.Hour, ReplyDelay: time.Hour}, NewMetrics())
	for i := 0; i < 3; i++ {
		_, _, err := reg.Create()
		require.NoError(t, err)
	}
	id, rt, err := reg.Create()
	require.NoError(t, err)
	_, err = rt.Dispatch(t.Context(), core.UpdateMessageDraft{Value: "hi"})
	require.NoError(t, err)
	_, err = rt.Dispatch(t.Context(), core.SubmitMessage{})
	require.NoError(t, err)

	require.NoError(t, reg.Remove(id))
	assert.ErrorIs(t, reg.Remove(id), ErrSessionNotFound)
	_, err = reg.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	reg.Close()
	assert.Equal(t, 0, reg.Len())
	_, err = rt.Snapshot(t.Context())
	assert.ErrorIs(t, err, core.ErrClosed)
}

func TestErrorCodes(t *testing.T) {
	_, err := core.DecodeIntent([]byte(`nope`))
	assert.Equal(t, "bad_intent", errorCode(err))
	assert.Equal(t, "login_required", errorCode(nav.ErrLoginRequired))
	assert.Equal(t, "session_not_found", errorCode(core.ErrClosed))
	assert.Equal(t, "internal", errorCode(io.ErrUnexpectedEOF))
	assert.Equal(t, http.StatusInternalServerError, statusFor("internal"))
}
