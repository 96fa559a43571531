package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"support-agent/internal/catalog"
	"support-agent/internal/domain"
	"support-agent/internal/replies"
)

// OrderLookup resolves the identifiers a customer types into the chat.
type OrderLookup interface {
	FindOrderByIdentifier(token string) (domain.Order, error)
	FindRefundByReference(arn string) (domain.Refund, domain.Order, error)
}

// Engine is the dialogue state machine for one conversation. It holds only
// immutable configuration; all conversation data lives in the
// ConversationState passed to Submit.
type Engine struct {
	orders  OrderLookup
	profile replies.Profile
	delay   time.Duration
	now     func() time.Time
	loc     *time.Location
	newID   func() string
	logger  *slog.Logger
}

type EngineOption func(*Engine)

// WithTypingDelay pauses before every reply.
func WithTypingDelay(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.delay = d
	}
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocation sets the viewer's time zone used for dates in replies.
func WithLocation(loc *time.Location) EngineOption {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

func WithIDGenerator(newID func() string) EngineOption {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewEngine(orders OrderLookup, profile replies.Profile, opts ...EngineOption) (*Engine, error) {
	if orders == nil {
		return nil, errors.New("usecase: order lookup must not be nil")
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		orders:  orders,
		profile: profile,
		now:     time.Now,
		loc:     time.Local,
		newID:   uuid.NewString,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Start opens a conversation with the greeting already in its history.
func (e *Engine) Start() domain.ConversationState {
	return domain.ConversationState{
		ID:      e.newID(),
		History: []domain.Message{e.message(domain.RoleAssistant, e.profile.Greeting)},
	}
}

// Greeting returns the opening message of every conversation.
func (e *Engine) Greeting() string {
	return e.profile.Greeting
}

// Placeholder returns the input hint for the slot the conversation is in.
func (e *Engine) Placeholder(state domain.ConversationState) string {
	switch state.PendingSlot {
	case domain.SlotAwaitingOrderNumber:
		return e.profile.Placeholders.OrderNumber
	case domain.SlotAwaitingRefundReference:
		return e.profile.Placeholders.RefundReference
	}
	return e.profile.Placeholders.Default
}

// Submit runs one turn: it records the user message, waits the typing delay
// and returns the next state with the assistant reply. Every accepted message
// produces a reply. If ctx ends during the delay the turn is discarded and the
// input state is returned unchanged.
func (e *Engine) Submit(ctx context.Context, state domain.ConversationState, text string) (domain.ConversationState, string, error) {
	if strings.TrimSpace(text) == "" {
		return state, "", newError(ErrorInvalidInput, "empty_message", nil)
	}
	if err := state.Validate(); err != nil {
		return state, "", newError(ErrorInvalidInput, "invalid_state", err)
	}
	received := e.message(domain.RoleUser, text)

	if err := e.wait(ctx); err != nil {
		return state, "", newError(ErrorCanceled, "reply_discarded", err)
	}

	next, reply := e.transition(state, text)
	next.History = appendMessages(state.History, received, e.message(domain.RoleAssistant, reply))
	return next, reply, nil
}

func (e *Engine) transition(state domain.ConversationState, text string) (domain.ConversationState, string) {
	switch state.PendingSlot {
	case domain.SlotAwaitingOrderNumber:
		state.PendingSlot = domain.SlotNone
		return state, e.resolveOrder(state.ActiveIntent, text)
	case domain.SlotAwaitingRefundReference:
		state.PendingSlot = domain.SlotNone
		return state, e.resolveReference(text)
	}

	intent := ClassifyIntent(text)
	e.logger.Debug("intent classified", "conversation_id", state.ID, "intent", string(intent))

	switch intent {
	case domain.IntentRefundStatus, domain.IntentOrderStatus, domain.IntentAmountDebitedNoOrder:
		state.ActiveIntent = intent
		state.PendingSlot = domain.SlotAwaitingOrderNumber
		return state, e.profile.AskOrderNumber
	case domain.IntentRefundByReference:
		state.PendingSlot = domain.SlotAwaitingRefundReference
		return state, e.profile.AskRefundReference
	case domain.IntentThanks:
		return state, e.profile.Thanks
	case domain.IntentEndConversation:
		return state, e.profile.Goodbye
	case domain.IntentCancelInquiry:
		return state, e.profile.CancelPolicy
	case domain.IntentGreeting:
		return state, e.profile.Greeting
	}
	return state, e.profile.Fallback
}

func (e *Engine) resolveOrder(intent domain.Intent, token string) string {
	o, err := e.orders.FindOrderByIdentifier(token)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			e.logger.Warn("order lookup failed", "err", err)
		}
		return e.profile.OrderNotFound
	}

	switch intent {
	case domain.IntentRefundStatus:
		return replies.RefundStatus(e.profile, o, e.loc)
	case domain.IntentAmountDebitedNoOrder:
		return replies.AmountDebited(e.profile, o, ClassifyOrder(o))
	default:
		return replies.OrderStatus(e.profile, o, ClassifyOrder(o))
	}
}

func (e *Engine) resolveReference(arn string) string {
	r, o, err := e.orders.FindRefundByReference(arn)
	if err != nil {
		if !errors.Is(err, catalog.ErrNotFound) {
			e.logger.Warn("refund lookup failed", "err", err)
		}
		return e.profile.RefundNotFound
	}
	return replies.RefundDetail(e.profile, o, r, e.loc)
}

func (e *Engine) wait(ctx context.Context) error {
	if e.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(e.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (e *Engine) message(role domain.Role, text string) domain.Message {
	return domain.Message{
		ID:        e.newID(),
		Role:      role,
		Text:      text,
		Timestamp: e.now(),
	}
}

// appendMessages never writes into the caller's backing array, so a discarded
// or replayed state stays intact.
func appendMessages(history []domain.Message, msgs ...domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(history)+len(msgs))
	out = append(out, history...)
	return append(out, msgs...)
}
