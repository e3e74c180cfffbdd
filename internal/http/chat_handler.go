package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smarthealth-frontend/internal/chat"
	"smarthealth-frontend/internal/domain"
	"smarthealth-frontend/internal/format"
	"smarthealth-frontend/internal/gateway"
	"smarthealth-frontend/internal/service"
)

// MsgBusy se muestra cuando llega un envío con otra consulta pendiente.
const MsgBusy = "Ya hay una consulta en curso. Espera la respuesta."

// ChatHandler atiende la página de chat y la API JSON equivalente. Cada carga
// de la página (o sesión de la API) es una instancia con su propio controlador.
type ChatHandler struct {
	logger   *zap.Logger
	registry *chat.Registry
	queries  gateway.QueryGateway
	history  chat.Recorder
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(logger *zap.Logger, registry *chat.Registry, queries gateway.QueryGateway, history chat.Recorder) *ChatHandler {
	return &ChatHandler{
		logger:   logger,
		registry: registry,
		queries:  queries,
		history:  history,
	}
}

type sendRequest struct {
	PageID         string              `form:"page_id" json:"-"`
	Question       string              `form:"question" json:"question"`
	DocumentType   domain.DocumentType `form:"document_type_id" json:"document_type_id"`
	DocumentNumber string              `form:"document_number" json:"document_number"`
}

func (r sendRequest) input() chat.SendInput {
	return chat.SendInput{
		Question:       r.Question,
		DocumentType:   r.DocumentType,
		DocumentNumber: r.DocumentNumber,
	}
}

// chatPage es el modelo de la plantilla chat.html.
type chatPage struct {
	PageID            string
	Profile           chat.Profile
	Session           chat.Session
	Draft             chat.SendInput
	DocumentTypes     []documentOption
	Error             string
	AssistantInitials string
	LogoutConfirm     string
}

func (h *ChatHandler) newController(auth domain.AuthSession, view chat.View) (*chat.Controller, error) {
	return chat.New(chat.Options{
		Auth:    auth,
		Queries: h.queries,
		View:    view,
		History: h.history,
		Logger:  h.logger,
	})
}

// Page maneja GET /chat: cada carga de la página empieza una sesión nueva.
func (h *ChatHandler) Page(c *gin.Context) {
	pageID, ctrl, err := h.openInstance(c, instancePage)
	if err != nil {
		h.logger.Error("open chat controller failed", zap.Error(err))
		redirectToLogin(c)
		return
	}
	h.renderPage(c, http.StatusOK, pageID, ctrl, chat.SendInput{}, "")
}

// Send maneja POST /chat/send.
func (h *ChatHandler) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Warn("invalid chat send request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	pageID, ctrl, err := h.pageController(c, req.PageID)
	if err != nil {
		h.logger.Error("open chat controller failed", zap.Error(err))
		redirectToLogin(c)
		return
	}

	in := req.input()
	switch err := ctrl.Send(c.Request.Context(), in); {
	case errors.Is(err, chat.ErrIncompleteInput):
		h.renderPage(c, http.StatusUnprocessableEntity, pageID, ctrl, in, "")
	case errors.Is(err, chat.ErrBusy):
		h.renderPage(c, http.StatusConflict, pageID, ctrl, in, MsgBusy)
	case err != nil:
		h.logger.Error("chat send failed", zap.Error(err))
		h.renderPage(c, http.StatusInternalServerError, pageID, ctrl, in, chat.FailureMessage)
	default:
		// Se limpia la pregunta; el paciente seleccionado se conserva.
		h.renderPage(c, http.StatusOK, pageID, ctrl, chat.SendInput{DocumentType: in.DocumentType, DocumentNumber: in.DocumentNumber}, "")
	}
}

// NewSession maneja POST /chat/new.
func (h *ChatHandler) NewSession(c *gin.Context) {
	pageID, ctrl, err := h.pageController(c, c.PostForm("page_id"))
	if err != nil {
		h.logger.Error("open chat controller failed", zap.Error(err))
		redirectToLogin(c)
		return
	}
	ctrl.NewSession()
	h.renderPage(c, http.StatusOK, pageID, ctrl, chat.SendInput{}, "")
}

// pageController devuelve el controlador de la página indicada o abre uno
// nuevo si ya no existe (reinicio del servidor, poda por inactividad).
func (h *ChatHandler) pageController(c *gin.Context, pageID string) (string, *chat.Controller, error) {
	if pageID != "" {
		if ctrl, ok := h.registry.Get(instanceKey(authToken(c), instancePage, pageID)); ok {
			return pageID, ctrl, nil
		}
	}
	return h.openInstance(c, instancePage)
}

// openInstance crea un controlador para una nueva instancia de página.
func (h *ChatHandler) openInstance(c *gin.Context, kind string) (string, *chat.Controller, error) {
	return h.openInstanceWithView(c, kind, chat.DiscardView{})
}

func (h *ChatHandler) openInstanceWithView(c *gin.Context, kind string, view chat.View) (string, *chat.Controller, error) {
	auth, _ := GetAuthSession(c)
	id := format.NewSessionID()
	ctrl, err := h.registry.Open(instanceKey(authToken(c), kind, id), func() (*chat.Controller, error) {
		return h.newController(auth, view)
	})
	if err != nil {
		return "", nil, err
	}
	return id, ctrl, nil
}

func (h *ChatHandler) renderPage(c *gin.Context, status int, pageID string, ctrl *chat.Controller, draft chat.SendInput, errMsg string) {
	c.HTML(status, "chat.html", chatPage{
		PageID:            pageID,
		Profile:           ctrl.Profile(),
		Session:           ctrl.Session(),
		Draft:             draft,
		DocumentTypes:     documentOptions(draft.DocumentType),
		Error:             errMsg,
		AssistantInitials: format.AssistantInitials,
		LogoutConfirm:     service.MsgLogoutConfirm,
	})
}

// CreateSession maneja POST /api/chat/session.
func (h *ChatHandler) CreateSession(c *gin.Context) {
	id, ctrl, err := h.openInstance(c, instanceAPI)
	if err != nil {
		h.logger.Error("open chat controller failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}
	payload := sessionPayload(ctrl)
	payload.InstanceID = id
	c.JSON(http.StatusCreated, payload)
}

// GetSession maneja GET /api/chat/session.
func (h *ChatHandler) GetSession(c *gin.Context) {
	id := c.GetHeader(InstanceHeader)
	ctrl, ok := h.registry.Get(instanceKey(authToken(c), instanceAPI, id))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	payload := sessionPayload(ctrl)
	payload.InstanceID = id
	c.JSON(http.StatusOK, payload)
}

// APISend maneja POST /api/chat/send.
func (h *ChatHandler) APISend(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chat send request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	id := c.GetHeader(InstanceHeader)
	ctrl, ok := h.registry.Get(instanceKey(authToken(c), instanceAPI, id))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}

	switch err := ctrl.Send(c.Request.Context(), req.input()); {
	case errors.Is(err, chat.ErrIncompleteInput):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "question and document_number are required"})
	case errors.Is(err, chat.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": MsgBusy})
	case err != nil:
		h.logger.Error("chat send failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send"})
	default:
		payload := sessionPayload(ctrl)
		payload.InstanceID = id
		if msgs := payload.Session.Messages; len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			payload.Reply = &last
		}
		c.JSON(http.StatusOK, payload)
	}
}

type sessionResponse struct {
	InstanceID string          `json:"instance_id"`
	Session    chat.Session    `json:"session"`
	State      string          `json:"state"`
	Profile    chat.Profile    `json:"profile"`
	Reply      *domain.Message `json:"reply,omitempty"`
}

func sessionPayload(ctrl *chat.Controller) sessionResponse {
	return sessionResponse{
		Session: ctrl.Session(),
		State:   ctrl.State(),
		Profile: ctrl.Profile(),
	}
}

// Tipos de instancia de chat en el registro.
const (
	instancePage = "page"
	instanceAPI  = "api"
	instanceWS   = "ws"
)

// InstanceHeader identifica la instancia de chat en la API JSON.
const InstanceHeader = "X-Chat-Instance"

// instanceKey agrupa las instancias bajo el token de sesión, de modo que el
// logout pueda descartarlas todas con tokenPrefix.
func instanceKey(token, kind, id string) string {
	return tokenPrefix(token) + kind + "|" + id
}

func tokenPrefix(token string) string {
	return token + "|"
}

func instanceKind(key string) string {
	parts := strings.Split(key, "|")
	if len(parts) < 3 {
		return ""
	}
	return parts[len(parts)-2]
}

// InstanceIdleTTL devuelve el límite de inactividad de cada instancia del
// registro: pageIdle para páginas, apiIdle para la API JSON. Las conexiones
// WebSocket se descartan al cerrarse y no caducan por inactividad.
func InstanceIdleTTL(pageIdle, apiIdle time.Duration) func(key string) time.Duration {
	return func(key string) time.Duration {
		switch instanceKind(key) {
		case instancePage:
			return pageIdle
		case instanceWS:
			return 0
		default:
			return apiIdle
		}
	}
}
