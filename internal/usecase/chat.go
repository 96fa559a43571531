package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"support-agent/internal/catalog"
	"support-agent/internal/domain"
	"support-agent/internal/replies"
)

const defaultMaxMessage = 300

// OrderSource loads the orders owned by one customer. It is called once per
// session, before any dialogue runs.
type OrderSource interface {
	GetOrdersForCustomer(ctx context.Context, customerKey string) ([]domain.Order, error)
}

// SharedOrderSource lists every order in the store. Only consulted when
// cross-customer lookup has been enabled.
type SharedOrderSource interface {
	ListAllOrders(ctx context.Context) ([]domain.Order, error)
}

// ProfileSource supplies the reply copy for the deployment.
type ProfileSource interface {
	LoadProfile(ctx context.Context) (replies.Profile, error)
}

// StaticProfile is a ProfileSource that always returns the same profile.
type StaticProfile replies.Profile

func (p StaticProfile) LoadProfile(context.Context) (replies.Profile, error) {
	return replies.Profile(p), nil
}

type ChatService struct {
	orders        OrderSource
	shared        SharedOrderSource
	profiles      ProfileSource
	maxMessageLen int
	engineOpts    []EngineOption

	cacheMu     sync.RWMutex
	cacheLoaded bool
	profile     replies.Profile
}

type ChatOption func(*ChatService)

// WithSharedLookup lets order and refund lookups fall back to orders owned
// by other customers.
func WithSharedLookup(src SharedOrderSource) ChatOption {
	return func(s *ChatService) {
		s.shared = src
	}
}

func WithMaxMessageLength(n int) ChatOption {
	return func(s *ChatService) {
		if n > 0 {
			s.maxMessageLen = n
		}
	}
}

// WithEngineOptions passes options to every engine the service builds.
func WithEngineOptions(opts ...EngineOption) ChatOption {
	return func(s *ChatService) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

type StartOutput struct {
	Reply string
	State domain.ConversationState
}

type SendInput struct {
	CustomerKey string
	Message     string
	State       domain.ConversationState
}

type SendOutput struct {
	Reply string
	State domain.ConversationState
}

func NewChatService(orders OrderSource, profiles ProfileSource, opts ...ChatOption) (*ChatService, error) {
	if orders == nil {
		return nil, errors.New("usecase: order source must not be nil")
	}
	if profiles == nil {
		return nil, errors.New("usecase: profile source must not be nil")
	}
	s := &ChatService{
		orders:        orders,
		profiles:      profiles,
		maxMessageLen: defaultMaxMessage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start opens a new conversation. No orders are needed until the customer
// sends a message.
func (s *ChatService) Start(ctx context.Context) (StartOutput, error) {
	profile, err := s.ensureProfile(ctx)
	if err != nil {
		return StartOutput{}, newError(ErrorInternal, "profile_load_error", err)
	}
	empty, err := catalog.New(nil)
	if err != nil {
		return StartOutput{}, newError(ErrorInternal, "order_data_invalid", err)
	}
	engine, err := NewEngine(empty, profile, s.engineOpts...)
	if err != nil {
		return StartOutput{}, newError(ErrorInternal, "profile_invalid", err)
	}
	state := engine.Start()
	return StartOutput{Reply: engine.Greeting(), State: state}, nil
}

// Send runs one turn of the customer's conversation.
func (s *ChatService) Send(ctx context.Context, in SendInput) (SendOutput, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return SendOutput{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	if utf8.RuneCountInString(message) > s.maxMessageLen {
		return SendOutput{}, newError(ErrorInvalidInput, "message_too_long", nil)
	}
	if err := in.State.Validate(); err != nil {
		return SendOutput{}, newError(ErrorInvalidInput, "invalid_state", err)
	}

	engine, err := s.OpenSession(ctx, in.CustomerKey)
	if err != nil {
		return SendOutput{}, err
	}
	state, reply, err := engine.Submit(ctx, in.State, message)
	if err != nil {
		return SendOutput{}, err
	}
	return SendOutput{Reply: reply, State: state}, nil
}

// OpenSession loads the customer's orders and returns an engine bound to
// them.
func (s *ChatService) OpenSession(ctx context.Context, customerKey string) (*Engine, error) {
	customerKey = strings.TrimSpace(customerKey)
	if customerKey == "" {
		return nil, newError(ErrorInvalidInput, "missing_customer_key", nil)
	}
	profile, err := s.ensureProfile(ctx)
	if err != nil {
		return nil, newError(ErrorInternal, "profile_load_error", err)
	}

	own, err := s.orders.GetOrdersForCustomer(ctx, customerKey)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return nil, newError(ErrorNotFound, "customer_not_found", err)
		}
		return nil, newError(ErrorInternal, "order_load_error", err)
	}

	var catOpts []catalog.Option
	if s.shared != nil {
		all, err := s.shared.ListAllOrders(ctx)
		if err != nil {
			return nil, newError(ErrorInternal, "order_load_error", err)
		}
		catOpts = append(catOpts, catalog.WithSharedOrders(all))
	}

	orders, err := catalog.New(own, catOpts...)
	if err != nil {
		return nil, newError(ErrorInternal, "order_data_invalid", err)
	}
	engine, err := NewEngine(orders, profile, s.engineOpts...)
	if err != nil {
		return nil, newError(ErrorInternal, "profile_invalid", err)
	}
	return engine, nil
}

func (s *ChatService) ensureProfile(ctx context.Context) (replies.Profile, error) {
	s.cacheMu.RLock()
	if s.cacheLoaded {
		p := s.profile
		s.cacheMu.RUnlock()
		return p, nil
	}
	s.cacheMu.RUnlock()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheLoaded {
		return s.profile, nil
	}

	p, err := s.profiles.LoadProfile(ctx)
	if err != nil {
		return replies.Profile{}, fmt.Errorf("usecase: load profile: %w", err)
	}
	s.profile = p
	s.cacheLoaded = true
	return p, nil
}
