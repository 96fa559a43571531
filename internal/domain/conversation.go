package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrCustomerNotFound is returned by order sources that know no customer
// under the requested key.
var ErrCustomerNotFound = errors.New("customer not found")

// Role identifies who authored a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in the conversation transcript. The transcript is
// for display only; dialogue logic never reads it.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// PendingSlot is the piece of information the assistant is waiting for.
type PendingSlot string

const (
	SlotNone                    PendingSlot = ""
	SlotAwaitingOrderNumber     PendingSlot = "awaiting_order_number"
	SlotAwaitingRefundReference PendingSlot = "awaiting_refund_reference"
)

func (s PendingSlot) valid() bool {
	switch s {
	case SlotNone, SlotAwaitingOrderNumber, SlotAwaitingRefundReference:
		return true
	}
	return false
}

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentNone                 Intent = ""
	IntentThanks               Intent = "thanks"
	IntentEndConversation      Intent = "end_conversation"
	IntentRefundStatus         Intent = "refund_status"
	IntentOrderStatus          Intent = "order_status"
	IntentAmountDebitedNoOrder Intent = "amount_debited_no_order"
	IntentCancelInquiry        Intent = "cancel_inquiry"
	IntentGreeting             Intent = "greeting"
	IntentRefundByReference    Intent = "refund_by_reference"
	IntentUnknown              Intent = "unknown"
)

// RequiresOrderNumber reports whether the intent can only be fulfilled once
// the customer has supplied an order number.
func (i Intent) RequiresOrderNumber() bool {
	switch i {
	case IntentRefundStatus, IntentOrderStatus, IntentAmountDebitedNoOrder:
		return true
	}
	return false
}

// ConversationState is owned by exactly one conversation and mutated one turn
// at a time.
type ConversationState struct {
	ID           string      `json:"id,omitempty"`
	History      []Message   `json:"history,omitempty"`
	PendingSlot  PendingSlot `json:"pendingSlot"`
	ActiveIntent Intent      `json:"activeIntent"`
}

// Validate rejects slot and intent values that the dialogue engine does not
// know, typically from state echoed back by a client.
func (s ConversationState) Validate() error {
	if !s.PendingSlot.valid() {
		return fmt.Errorf("domain: unknown pending slot %q", s.PendingSlot)
	}
	if s.ActiveIntent != IntentNone && !s.ActiveIntent.RequiresOrderNumber() {
		return fmt.Errorf("domain: intent %q cannot be active", s.ActiveIntent)
	}
	if s.PendingSlot == SlotAwaitingOrderNumber && s.ActiveIntent == IntentNone {
		return fmt.Errorf("domain: slot %q requires an active intent", s.PendingSlot)
	}
	return nil
}

// Idle reports whether no slot is pending.
func (s ConversationState) Idle() bool {
	return s.PendingSlot == SlotNone
}
