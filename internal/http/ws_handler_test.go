package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"smarthealth-frontend/internal/domain"
)

func dialChat(t *testing.T, env *testEnv, cookie *http.Cookie) *websocket.Conn {
	t.Helper()
	conn, resp, err := dialChatFrom(t, env, cookie, "")
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// dialChatFrom abre /ws/chat con la cookie y, si no está vacío, el Origin dado.
func dialChatFrom(t *testing.T, env *testEnv, cookie *http.Cookie, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	header := http.Header{}
	header.Set("Cookie", cookie.Name+"="+cookie.Value)
	if origin != "" {
		header.Set("Origin", strings.ReplaceAll(origin, "{self}", srv.URL))
	}
	return websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/chat", header)
}

// readUntil lee eventos hasta encontrar uno del tipo indicado y devuelve los
// tipos vistos en el camino (incluido el buscado).
func readUntil(t *testing.T, conn *websocket.Conn, eventType string) (wsEvent, []string) {
	t.Helper()
	var seen []string
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var ev wsEvent
		require.NoError(t, conn.ReadJSON(&ev))
		seen = append(seen, ev.Type)
		if ev.Type == eventType {
			return ev, seen
		}
	}
}

func TestWSChat_SendAndNewSession(t *testing.T) {
	env := newTestEnv(t)
	conn := dialChat(t, env, env.login(t))

	ready, seen := readUntil(t, conn, wsEventReady)
	require.Equal(t, []string{wsEventReset, wsEventSendEnabled, wsEventReady}, seen)
	require.NotEmpty(t, ready.SessionID)
	require.NotNil(t, ready.Profile)
	require.Equal(t, "UD", ready.Profile.Initials)

	require.NoError(t, conn.WriteJSON(wsInbound{Type: wsInboundDraft, Question: "hola", DocumentType: domain.DocumentCC, DocumentNumber: "123"}))
	enabled, _ := readUntil(t, conn, wsEventSendEnabled)
	require.NotNil(t, enabled.Enabled)
	require.True(t, *enabled.Enabled)

	require.NoError(t, conn.WriteJSON(wsInbound{Type: wsInboundSend, Question: "¿Medicamentos?", DocumentType: domain.DocumentCC, DocumentNumber: "123"}))
	userMsg, _ := readUntil(t, conn, wsEventMessage)
	require.Equal(t, domain.RoleUser, userMsg.Message.Role)
	require.True(t, userMsg.First)
	require.Equal(t, "UD", userMsg.Avatar)
	require.NotNil(t, userMsg.Message.Metadata)

	reply, seen := readUntil(t, conn, wsEventMessage)
	require.Contains(t, seen, wsEventTyping)
	require.Contains(t, seen, wsEventTypingDone)
	require.Equal(t, domain.RoleAssistant, reply.Message.Role)
	require.Equal(t, "SA", reply.Avatar)
	require.Contains(t, reply.Message.Content, "123")

	require.NoError(t, conn.WriteJSON(wsInbound{Type: wsInboundNewSession}))
	reset, _ := readUntil(t, conn, wsEventReset)
	require.Equal(t, welcomeTitle, reset.Title)
}

func TestWSChat_UnknownMessageType(t *testing.T) {
	env := newTestEnv(t)
	conn := dialChat(t, env, env.login(t))
	readUntil(t, conn, wsEventReady)

	require.NoError(t, conn.WriteJSON(wsInbound{Type: "otro"}))
	ev, _ := readUntil(t, conn, wsEventError)
	require.Contains(t, ev.Text, "otro")
}

func TestWSChat_LoggedOutElsewhere(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)
	conn := dialChat(t, env, cookie)
	readUntil(t, conn, wsEventReady)

	rec := env.do(formRequest(http.MethodPost, "/logout", nil, cookie))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	require.NoError(t, conn.WriteJSON(wsInbound{Type: wsInboundDraft}))
	readUntil(t, conn, wsEventLoggedOut)
}

func TestWSChat_RequiresSession(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/chat", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSChat_RejectsForeignOrigin(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	_, resp, err := dialChatFrom(t, env, cookie, "https://evil.example")
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Zero(t, env.registry.Len())
}

func TestWSChat_AcceptsAllowedAndSameHostOrigins(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t)

	for _, origin := range []string{"https://app.example", "{self}"} {
		conn, _, err := dialChatFrom(t, env, cookie, origin)
		require.NoError(t, err, origin)
		readUntil(t, conn, wsEventReady)
		conn.Close()
	}
}

func TestCheckOrigin(t *testing.T) {
	allowed := newOriginSet([]string{"https://app.example/"})
	cases := []struct {
		origin string
		host   string
		want   bool
	}{
		{"", "front.local", true},
		{"https://app.example", "front.local", true},
		{"http://front.local:8000", "front.local:8000", true},
		{"https://evil.example", "front.local", false},
		{"https://app.example.evil", "front.local", false},
		{"null", "front.local", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "http://"+tc.host+"/ws/chat", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		require.Equal(t, tc.want, checkOrigin(req, allowed), tc.origin)
	}

	require.True(t, checkOrigin(func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/ws/chat", nil)
		req.Header.Set("Origin", "https://anywhere.example")
		return req
	}(), newOriginSet([]string{"*"})))
}
