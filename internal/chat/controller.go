package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/qmuntal/stateless"
	"go.uber.org/zap"

	"smarthealth-frontend/internal/domain"
	"smarthealth-frontend/internal/format"
	"smarthealth-frontend/internal/gateway"
)

// Estados del controlador.
const (
	StateIdle             = "idle"
	StateAwaitingResponse = "awaiting-response"
)

const (
	triggerSend    = "send"
	triggerResolve = "resolve"
	triggerReset   = "reset"
)

// HistoryStatusFailed marca en el historial un intercambio que no obtuvo respuesta.
const HistoryStatusFailed = "failed"

var (
	ErrUnauthenticated = errors.New("chat requires an authenticated session")
	ErrIncompleteInput = errors.New("question and document number are required")
	ErrBusy            = errors.New("a query is already awaiting response")
	ErrNotConfigured   = errors.New("chat controller not configured")

	errMalformedResponse = errors.New("query response without answer or error block")
)

// Recorder recibe cada intercambio completado ("guardar en historial").
type Recorder interface {
	Record(ctx context.Context, entry domain.HistoryEntry) error
}

// Profile son los datos del usuario que muestra la cabecera del chat.
type Profile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Initials string `json:"initials"`
}

// Options agrupa las dependencias de un Controller.
type Options struct {
	Auth    domain.AuthSession
	Queries gateway.QueryGateway
	View    View
	History Recorder
	Logger  *zap.Logger
	Now     func() time.Time
	NewID   func() string
}

// Controller es el controlador de la página de chat: una sesión a la vez y como
// máximo una consulta pendiente.
type Controller struct {
	mu      sync.Mutex
	auth    domain.AuthSession
	queries gateway.QueryGateway
	view    View
	history Recorder
	logger  *zap.Logger
	now     func() time.Time
	newID   func() string

	fsm      *stateless.StateMachine
	session  *Session
	lastUsed time.Time
}

// New inicializa el controlador y crea la primera sesión.
func New(opts Options) (*Controller, error) {
	if strings.TrimSpace(opts.Auth.Token) == "" {
		return nil, ErrUnauthenticated
	}
	if opts.Queries == nil {
		return nil, ErrNotConfigured
	}
	if opts.View == nil {
		opts.View = DiscardView{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = format.NewSessionID
	}

	c := &Controller{
		auth:    opts.Auth,
		queries: opts.Queries,
		view:    opts.View,
		history: opts.History,
		logger:  opts.Logger,
		now:     opts.Now,
		newID:   opts.NewID,
	}
	c.fsm = newStateMachine()
	c.NewSession()
	return c, nil
}

func newStateMachine() *stateless.StateMachine {
	fsm := stateless.NewStateMachine(StateIdle)
	fsm.Configure(StateIdle).
		Permit(triggerSend, StateAwaitingResponse).
		PermitReentry(triggerReset)
	fsm.Configure(StateAwaitingResponse).
		Permit(triggerResolve, StateIdle).
		Permit(triggerReset, StateIdle)
	return fsm
}

// Profile devuelve nombre, correo e iniciales con sus valores por defecto.
func (c *Controller) Profile() Profile {
	user := c.auth.User
	return Profile{
		Name:     format.DisplayName(user.FullName),
		Email:    format.DisplayEmail(user.Email),
		Initials: format.Initials(user.FullName),
	}
}

// State devuelve el estado actual de la máquina (idle o awaiting-response).
func (c *Controller) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.MustState().(string)
}

// Session devuelve una copia de la sesión actual.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Snapshot()
}

// LastUsed devuelve el instante de la última operación del usuario.
func (c *Controller) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// NewSession descarta la conversación actual y empieza una nueva. Si había una
// consulta pendiente su respuesta se ignorará.
func (c *Controller) NewSession() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = NewSession(c.newID())
	if err := c.fsm.Fire(triggerReset); err != nil {
		c.logger.Error("chat reset transition failed", zap.Error(err))
	}
	c.lastUsed = c.now()
	c.view.Reset()
	c.view.SetSendEnabled(false)
	c.logger.Info("chat session created", zap.String("session_id", c.session.ID), zap.String("user_id", c.auth.User.ID))
}

// UpdateDraft habilita o deshabilita el envío según el contenido de los campos.
func (c *Controller) UpdateDraft(in SendInput) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	enabled := CanSend(in) && c.fsm.MustState() == StateIdle
	c.view.SetSendEnabled(enabled)
	return enabled
}

// Send envía una pregunta y espera la respuesta. Con entrada incompleta no
// cambia nada y devuelve ErrIncompleteInput; con otra consulta pendiente
// devuelve ErrBusy. Los fallos del intercambio se convierten en un mensaje del
// asistente y no se devuelven.
func (c *Controller) Send(ctx context.Context, in SendInput) error {
	c.mu.Lock()
	if !CanSend(in) {
		c.mu.Unlock()
		return ErrIncompleteInput
	}
	if err := c.fsm.Fire(triggerSend); err != nil {
		c.mu.Unlock()
		return ErrBusy
	}
	session := c.session
	req, userMsg, _ := session.PrepareSend(c.auth, in, c.now())
	seq := session.Sequence
	c.lastUsed = c.now()
	c.view.Render(userMsg, len(session.Messages) == 1)
	c.view.ClearInput()
	c.view.SetSendEnabled(false)
	c.view.ShowTyping()
	c.mu.Unlock()

	started := time.Now()
	resp, err := c.queries.Query(ctx, req)
	latency := time.Since(started)
	if err == nil && !wellFormed(resp) {
		err = fmt.Errorf("%w: status=%s", errMalformedResponse, resp.Status)
	}

	c.mu.Lock()
	if c.session != session {
		c.mu.Unlock()
		c.logger.Info("dropping response for replaced session", zap.String("session_id", session.ID), zap.Int("sequence", seq))
		return nil
	}
	if fireErr := c.fsm.Fire(triggerResolve); fireErr != nil {
		c.logger.Error("chat resolve transition failed", zap.Error(fireErr))
	}
	c.view.HideTyping()

	entry := domain.HistoryEntry{
		UserID:         req.UserID,
		SessionID:      req.SessionID,
		Sequence:       seq,
		DocumentType:   req.DocumentTypeID,
		DocumentNumber: req.DocumentNumber,
		Question:       req.Question,
		Latency:        latency,
		CreatedAt:      c.now().UTC(),
	}
	if err != nil {
		c.logger.Warn("query exchange failed", zap.Error(err), zap.String("session_id", session.ID), zap.Int("sequence", seq))
		msg := session.ApplyFailure(c.now())
		c.view.Render(msg, false)
		entry.Status = HistoryStatusFailed
		entry.ErrorMessage = err.Error()
	} else {
		if msg, ok := session.ApplyResponse(resp, c.now()); ok {
			c.view.Render(msg, false)
		} else {
			c.logger.Warn("query response with unknown status", zap.String("status", resp.Status), zap.String("session_id", session.ID))
		}
		entry.Status = resp.Status
		if resp.Answer != nil {
			entry.Answer = resp.Answer.Text
		}
		if resp.Error != nil {
			entry.ErrorMessage = resp.Error.Message
		}
	}
	c.mu.Unlock()

	c.record(ctx, entry)
	return nil
}

func (c *Controller) record(ctx context.Context, entry domain.HistoryEntry) {
	if c.history == nil {
		return
	}
	if err := c.history.Record(context.WithoutCancel(ctx), entry); err != nil {
		c.logger.Warn("history record failed", zap.Error(err), zap.String("session_id", entry.SessionID))
	}
}
