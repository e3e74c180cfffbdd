package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"smarthealth-frontend/internal/chat"
	"smarthealth-frontend/internal/domain"
	"smarthealth-frontend/internal/format"
	"smarthealth-frontend/internal/service"
)

// Tipos de evento del canal /ws/chat.
const (
	wsEventReady        = "ready"
	wsEventReset        = "reset"
	wsEventMessage      = "message"
	wsEventTyping       = "typing"
	wsEventTypingDone   = "typing_done"
	wsEventInputCleared = "input_cleared"
	wsEventSendEnabled  = "send_enabled"
	wsEventError        = "error"
	wsEventLoggedOut    = "logged_out"

	wsInboundDraft      = "draft"
	wsInboundSend       = "send"
	wsInboundNewSession = "new_session"
)

const (
	welcomeTitle = "¡Nueva Consulta!"
	welcomeText  = "Proporciona la información del paciente y tu pregunta."
)

// WSConfig son los tiempos y límites de las conexiones WebSocket.
// AllowedOrigins usa el mismo formato que CORS_ALLOWED_ORIGINS.
type WSConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
	SendBuffer     int
	AllowedOrigins []string
}

func (c WSConfig) withDefaults() WSConfig {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 60 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.ReadTimeout {
		c.PingInterval = c.ReadTimeout * 9 / 10
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 16 * 1024
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 64
	}
	return c
}

// WSHandler atiende /ws/chat: un controlador de chat por conexión, cuya vista
// emite eventos JSON hacia el navegador.
type WSHandler struct {
	logger   *zap.Logger
	auth     *service.AuthController
	chats    *ChatHandler
	registry *chat.Registry
	cfg      WSConfig
	upgrader websocket.Upgrader
}

// NewWSHandler crea una instancia de WSHandler con dependencias necesarias.
func NewWSHandler(logger *zap.Logger, auth *service.AuthController, chats *ChatHandler, registry *chat.Registry, cfg WSConfig) *WSHandler {
	allowed := newOriginSet(cfg.AllowedOrigins)
	return &WSHandler{
		logger:   logger,
		auth:     auth,
		chats:    chats,
		registry: registry,
		cfg:      cfg.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return checkOrigin(r, allowed)
			},
		},
	}
}

// checkOrigin acepta el handshake sin Origin, desde el propio host o desde un
// origen de la lista.
func checkOrigin(r *http.Request, allowed originSet) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || allowed.contains(origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

type wsEvent struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Profile   *chat.Profile   `json:"profile,omitempty"`
	Message   *domain.Message `json:"message,omitempty"`
	First     bool            `json:"first,omitempty"`
	Time      string          `json:"time,omitempty"`
	Avatar    string          `json:"avatar,omitempty"`
	Enabled   *bool           `json:"enabled,omitempty"`
	Title     string          `json:"title,omitempty"`
	Text      string          `json:"text,omitempty"`
}

type wsInbound struct {
	Type           string              `json:"type"`
	Question       string              `json:"question"`
	DocumentType   domain.DocumentType `json:"document_type_id"`
	DocumentNumber string              `json:"document_number"`
}

func (m wsInbound) input() chat.SendInput {
	return chat.SendInput{
		Question:       m.Question,
		DocumentType:   m.DocumentType,
		DocumentNumber: m.DocumentNumber,
	}
}

// wsConn es una conexión con su cola de salida. Implementa chat.View.
type wsConn struct {
	conn     *websocket.Conn
	logger   *zap.Logger
	initials string

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func (w *wsConn) emit(ev wsEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		w.logger.Error("marshal ws event failed", zap.Error(err), zap.String("type", ev.Type))
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.send <- payload:
	default:
		// La vista no puede bloquear al controlador.
		w.logger.Warn("ws send buffer full, dropping event", zap.String("type", ev.Type))
	}
}

func (w *wsConn) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.send)
}

func (w *wsConn) Reset() {
	w.emit(wsEvent{Type: wsEventReset, Title: welcomeTitle, Text: welcomeText})
}

func (w *wsConn) Render(msg domain.Message, first bool) {
	avatar := format.AssistantInitials
	if msg.Role == domain.RoleUser {
		avatar = w.initials
	}
	w.emit(wsEvent{Type: wsEventMessage, Message: &msg, First: first, Time: format.Clock(msg.CreatedAt), Avatar: avatar})
}

func (w *wsConn) ShowTyping() { w.emit(wsEvent{Type: wsEventTyping}) }
func (w *wsConn) HideTyping() { w.emit(wsEvent{Type: wsEventTypingDone}) }
func (w *wsConn) ClearInput() { w.emit(wsEvent{Type: wsEventInputCleared}) }

func (w *wsConn) SetSendEnabled(enabled bool) {
	w.emit(wsEvent{Type: wsEventSendEnabled, Enabled: &enabled})
}

// Handle maneja GET /ws/chat.
func (h *WSHandler) Handle(c *gin.Context) {
	auth, _ := GetAuthSession(c)
	token := authToken(c)

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	conn := &wsConn{
		conn:     ws,
		logger:   h.logger,
		initials: format.Initials(auth.User.FullName),
		send:     make(chan []byte, h.cfg.SendBuffer),
	}

	id, ctrl, err := h.chats.openInstanceWithView(c, instanceWS, conn)
	if err != nil {
		h.logger.Error("open chat controller failed", zap.Error(err))
		_ = ws.Close()
		return
	}
	key := instanceKey(token, instanceWS, id)
	profile := ctrl.Profile()
	conn.emit(wsEvent{Type: wsEventReady, SessionID: ctrl.Session().ID, Profile: &profile})

	ctx, cancel := context.WithCancel(context.Background())
	go h.writePump(conn)
	go h.readPump(ctx, cancel, conn, ctrl, token, key)
}

// readPump lee los mensajes del navegador hasta que la conexión se cierra.
func (h *WSHandler) readPump(ctx context.Context, cancel context.CancelFunc, conn *wsConn, ctrl *chat.Controller, token, key string) {
	defer func() {
		cancel()
		h.registry.Remove(key)
		conn.close()
	}()

	conn.conn.SetReadLimit(h.cfg.MaxMessageSize)
	_ = conn.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})

	for {
		_, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("ws read failed", zap.Error(err))
			}
			return
		}
		if !h.handleMessage(ctx, conn, ctrl, token, data) {
			return
		}
	}
}

// handleMessage despacha un mensaje entrante. Devuelve false si la conexión
// debe cerrarse.
func (h *WSHandler) handleMessage(ctx context.Context, conn *wsConn, ctrl *chat.Controller, token string, data []byte) bool {
	var msg wsInbound
	if err := json.Unmarshal(data, &msg); err != nil {
		conn.emit(wsEvent{Type: wsEventError, Text: "mensaje inválido"})
		return true
	}

	// La sesión puede haberse cerrado desde otra pestaña.
	if _, err := h.auth.Session(ctx, token); err != nil {
		conn.emit(wsEvent{Type: wsEventLoggedOut})
		return false
	}

	switch msg.Type {
	case wsInboundDraft:
		ctrl.UpdateDraft(msg.input())
	case wsInboundNewSession:
		ctrl.NewSession()
	case wsInboundSend:
		// El envío espera la respuesta del backend; la lectura sigue activa.
		go func(in chat.SendInput) {
			err := ctrl.Send(ctx, in)
			if errors.Is(err, chat.ErrBusy) {
				conn.emit(wsEvent{Type: wsEventError, Text: MsgBusy})
			}
		}(msg.input())
	default:
		conn.emit(wsEvent{Type: wsEventError, Text: "tipo de mensaje desconocido: " + msg.Type})
	}
	return true
}

// writePump escribe la cola de salida y envía pings periódicos.
func (h *WSHandler) writePump(conn *wsConn) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.send:
			_ = conn.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				_ = conn.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Warn("ws write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
