package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"support-agent/internal/catalog"
	"support-agent/internal/domain"
	"support-agent/internal/replies"
)

var fixedNow = time.Date(2025, 4, 22, 9, 30, 0, 0, time.UTC)

func supportCopy(t *testing.T) replies.Profile {
	t.Helper()
	p, err := replies.ProfileByName(replies.ProfileSupport)
	require.NoError(t, err)
	return p
}

func returnedOrder() domain.Order {
	return domain.Order{
		OrderNumber:      "KWIK02TY89QP5432167",
		ShopifyOrderName: "#7925271",
		OrderStatus:      domain.OrderReturned,
		PaymentStatus:    true,
		PaymentMethod:    "Credit Card",
		TotalAmount:      3499,
		DeliveryStatus:   "Order was picked up and return has been processed",
		Refunds: []domain.Refund{{
			RefundID:   "RKWIK987654321",
			Status:     domain.RefundSuccess,
			Amount:     3499,
			ARNNumber:  "ARN123456789",
			CreatedAt:  time.Date(2025, 4, 22, 10, 0, 0, 0, time.UTC),
			RefundedAt: time.Date(2025, 4, 22, 10, 0, 0, 0, time.UTC),
		}},
	}
}

func notConfirmedOrder() domain.Order {
	return domain.Order{
		OrderNumber:      "KWIK34CD56EF7890123",
		ShopifyOrderName: "#7925273",
		OrderStatus:      domain.OrderNotConfirmed,
		PaymentStatus:    true,
		TotalAmount:      1299,
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestEngine(t *testing.T, lookup OrderLookup, opts ...EngineOption) *Engine {
	t.Helper()
	base := []EngineOption{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(sequentialIDs()),
		WithLocation(time.UTC),
	}
	e, err := NewEngine(lookup, supportCopy(t), append(base, opts...)...)
	require.NoError(t, err)
	return e
}

func newCatalog(t *testing.T, orders ...domain.Order) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(orders)
	require.NoError(t, err)
	return c
}

// converse feeds inputs one at a time and returns every reply plus the final
// state.
func converse(t *testing.T, e *Engine, inputs ...string) ([]string, domain.ConversationState) {
	t.Helper()
	state := e.Start()
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		next, reply, err := e.Submit(context.Background(), state, in)
		require.NoError(t, err)
		out = append(out, reply)
		state = next
	}
	return out, state
}

type failingLookup struct{}

func (failingLookup) FindOrderByIdentifier(string) (domain.Order, error) {
	return domain.Order{}, errors.New("backend unavailable")
}

func (failingLookup) FindRefundByReference(string) (domain.Refund, domain.Order, error) {
	return domain.Refund{}, domain.Order{}, errors.New("backend unavailable")
}

func TestNewEngine_Validates(t *testing.T) {
	_, err := NewEngine(nil, supportCopy(t))
	require.Error(t, err)

	_, err = NewEngine(newCatalog(t), replies.Profile{Name: "broken"})
	require.Error(t, err)
}

func TestEngine_Start(t *testing.T) {
	e := newTestEngine(t, newCatalog(t))
	state := e.Start()

	require.Equal(t, "id-1", state.ID)
	require.Equal(t, domain.SlotNone, state.PendingSlot)
	require.Equal(t, domain.IntentNone, state.ActiveIntent)
	require.Len(t, state.History, 1)
	require.Equal(t, domain.RoleAssistant, state.History[0].Role)
	require.Equal(t, supportCopy(t).Greeting, state.History[0].Text)
	require.Equal(t, fixedNow, state.History[0].Timestamp)
}

func TestEngine_Scenario_OrderStatusReturned(t *testing.T) {
	e := newTestEngine(t, newCatalog(t, returnedOrder()))

	out, state := converse(t, e, "order status", "KWIK02TY89QP5432167")

	require.Equal(t, supportCopy(t).AskOrderNumber, out[0])
	require.Contains(t, out[1], "RETURNED")
	require.Contains(t, out[1], "₹3499")
	require.Contains(t, out[1], "2-3 business days")
	require.Equal(t, domain.SlotNone, state.PendingSlot)
}

func TestEngine_Scenario_HelloGreets(t *testing.T) {
	e := newTestEngine(t, newCatalog(t))

	out, state := converse(t, e, "hello")

	greeting := supportCopy(t).Greeting
	require.Equal(t, greeting, out[0])
	require.Contains(t, greeting, "Refund Status")
	require.Contains(t, greeting, "Order Status")
	require.Contains(t, greeting, "Amount Debited")
	require.True(t, state.Idle())
}

func TestEngine_Scenario_RefundStatusUnknownOrder(t *testing.T) {
	e := newTestEngine(t, newCatalog(t, returnedOrder()))

	out, state := converse(t, e, "refund status", "NONEXISTENT123")

	require.Equal(t, supportCopy(t).OrderNotFound, out[1])
	require.True(t, state.Idle())
}

func TestEngine_Scenario_ThanksKeepsState(t *testing.T) {
	e := newTestEngine(t, newCatalog(t, returnedOrder()))

	_, state := converse(t, e, "order status", "KWIK02TY89QP5432167")
	require.Equal(t, domain.IntentOrderStatus, state.ActiveIntent)

	next, reply, err := e.Submit(context.Background(), state, "thank you")
	require.NoError(t, err)
	require.Equal(t, supportCopy(t).Thanks, reply)
	require.Equal(t, state.PendingSlot, next.PendingSlot)
	require.Equal(t, state.ActiveIntent, next.ActiveIntent)
}

func TestEngine_RefundStatusRoundTrip(t *testing.T) {
	e := newTestEngine(t, newCatalog(t, returnedOrder()))

	out, state := converse(t, e, "refund status", "#7925271")

	asks := 0
	for _, r := range out {
		if r == supportCopy(t).AskOrderNumber {
			asks++
		}
	}
	require.Equal(t, 1, asks)
	require.Contains(t, out[1], "Refund Status for Order #7925271: Success")
	require.Contains(t, out[1], "ARN123456789")
	require.Contains(t, out[1], "22/4/2025")
	require.True(t, state.Idle())
}

func TestEngine_NotFoundReturnsToIdle(t *testing.T) {
	e := newTestEngine(t, newCatalog(t, returnedOrder()))

	// The third message must be classified fresh rather than treated as an
	// order number.
	out, state := converse(t, e, "order status", "nope", "order status")

	require.Equal(t, supportCopy(t).OrderNotFound, out[1])
	require.Equal(t, supportCopy(t).AskOrderNumber, out[2])
	require.Equal(t, domain.SlotAwaitingOrderNumber, state.PendingSlot)
}

func TestEngine_AmountDebited(t *testing.T) {
	e := newTestEngine(t, newCatalog(t, notConfirmedOrder()))

	out, _ := converse(t, e, "amount debited", "7925273")

	require.Contains(t, out[1], "didn't go through")
	require.Contains(t, out[1], "5–8 working days")
}

func TestEngine_RefundByReference(t *testing.T) {
	e := newTestEngine(t, newCatalog(t, returnedOrder()))

	out, state := converse(t, e, "reference", "arn123456789")

	require.Equal(t, supportCopy(t).AskRefundReference, out[0])
	require.Contains(t, out[1], "Refund Status for ARN ARN123456789")
	require.Contains(t, out[1], "Order: #7925271")
	require.True(t, state.Idle())

	out, _ = converse(t, e, "reference", "ARN000")
	require.Equal(t, supportCopy(t).RefundNotFound, out[1])
}

func TestEngine_CannedReplies(t *testing.T) {
	p := supportCopy(t)
	cases := []struct {
		text string
		want string
	}{
		{text: "bye", want: p.Goodbye},
		{text: "can I cancel?", want: p.CancelPolicy},
		{text: "ty", want: p.Thanks},
		{text: "blah", want: p.Fallback},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			e := newTestEngine(t, newCatalog(t))
			out, state := converse(t, e, tc.text)
			require.Equal(t, tc.want, out[0])
			require.True(t, state.Idle())
			require.Equal(t, domain.IntentNone, state.ActiveIntent)
		})
	}
}

func TestEngine_LookupFailureRendersNotFound(t *testing.T) {
	e := newTestEngine(t, failingLookup{})

	out, state := converse(t, e, "order status", "KWIK02TY89QP5432167", "arn", "ARN1")

	require.Equal(t, supportCopy(t).OrderNotFound, out[1])
	require.Equal(t, supportCopy(t).RefundNotFound, out[3])
	require.True(t, state.Idle())
}

func TestEngine_HistoryAppendsBothMessages(t *testing.T) {
	e := newTestEngine(t, newCatalog(t))
	state := e.Start()

	next, reply, err := e.Submit(context.Background(), state, "hello")
	require.NoError(t, err)
	require.Len(t, state.History, 1)
	require.Len(t, next.History, 3)
	require.Equal(t, domain.RoleUser, next.History[1].Role)
	require.Equal(t, "hello", next.History[1].Text)
	require.Equal(t, domain.RoleAssistant, next.History[2].Role)
	require.Equal(t, reply, next.History[2].Text)
}

func TestEngine_SubmitRejectsInput(t *testing.T) {
	e := newTestEngine(t, newCatalog(t))
	state := e.Start()

	got, _, err := e.Submit(context.Background(), state, "   ")
	expectUsecaseError(t, err, ErrorInvalidInput, "empty_message")
	require.Equal(t, state, got)

	bad := domain.ConversationState{PendingSlot: "awaiting_mood"}
	_, _, err = e.Submit(context.Background(), bad, "hello")
	expectUsecaseError(t, err, ErrorInvalidInput, "invalid_state")
}

func TestEngine_CancelDuringTypingDelay(t *testing.T) {
	e := newTestEngine(t, newCatalog(t), WithTypingDelay(time.Hour))
	state := e.Start()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, reply, err := e.Submit(ctx, state, "order status")
	expectUsecaseError(t, err, ErrorCanceled, "reply_discarded")
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, reply)
	require.Equal(t, state, got)
}

func TestEngine_TypingDelayElapses(t *testing.T) {
	e := newTestEngine(t, newCatalog(t), WithTypingDelay(time.Millisecond))

	_, reply, err := e.Submit(context.Background(), e.Start(), "hello")
	require.NoError(t, err)
	require.Equal(t, supportCopy(t).Greeting, reply)
}

func TestEngine_Placeholder(t *testing.T) {
	e := newTestEngine(t, newCatalog(t))
	p := supportCopy(t)

	require.Equal(t, p.Placeholders.Default, e.Placeholder(domain.ConversationState{}))
	require.Equal(t, p.Placeholders.OrderNumber, e.Placeholder(domain.ConversationState{
		PendingSlot:  domain.SlotAwaitingOrderNumber,
		ActiveIntent: domain.IntentOrderStatus,
	}))
	require.Equal(t, p.Placeholders.RefundReference, e.Placeholder(domain.ConversationState{
		PendingSlot: domain.SlotAwaitingRefundReference,
	}))
}

func TestEngine_WidgetProfileWording(t *testing.T) {
	widget, err := replies.ProfileByName(replies.ProfileWidget)
	require.NoError(t, err)
	e, err := NewEngine(newCatalog(t, returnedOrder()), widget, WithLocation(time.UTC))
	require.NoError(t, err)

	_, state := converse(t, e, "refund status")
	_, reply, err := e.Submit(context.Background(), state, "KWIK02TY89QP5432167")
	require.NoError(t, err)
	require.True(t, strings.Contains(reply, widget.Windows.RefundSuccess))
}

func expectUsecaseError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}
