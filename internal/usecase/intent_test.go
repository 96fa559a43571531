package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"support-agent/internal/domain"
)

func TestClassifyIntent(t *testing.T) {
	cases := []struct {
		text string
		want domain.Intent
	}{
		{text: "thank you", want: domain.IntentThanks},
		{text: "Thanks!", want: domain.IntentThanks},
		{text: "ty", want: domain.IntentThanks},
		{text: "  TY ", want: domain.IntentThanks},
		{text: "bye", want: domain.IntentEndConversation},
		{text: "quit", want: domain.IntentEndConversation},
		{text: "refund status", want: domain.IntentRefundStatus},
		{text: "Where is my refund?", want: domain.IntentRefundStatus},
		{text: "I haven't received my money", want: domain.IntentRefundStatus},
		{text: "I haven’t received my money", want: domain.IntentRefundStatus},
		{text: "amount not credited", want: domain.IntentRefundStatus},
		{text: "order status", want: domain.IntentOrderStatus},
		{text: "track my parcel", want: domain.IntentOrderStatus},
		{text: "amount debited", want: domain.IntentAmountDebitedNoOrder},
		{text: "paid but no order", want: domain.IntentAmountDebitedNoOrder},
		{text: "how do I cancel", want: domain.IntentCancelInquiry},
		{text: "hello", want: domain.IntentGreeting},
		{text: "hey there", want: domain.IntentGreeting},
		{text: "ARN", want: domain.IntentRefundByReference},
		{text: "reference number", want: domain.IntentRefundByReference},
		{text: "what's the weather", want: domain.IntentUnknown},
		{text: "", want: domain.IntentUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			require.Equal(t, tc.want, ClassifyIntent(tc.text))
		})
	}
}

func TestClassifyIntent_FirstMatchWins(t *testing.T) {
	// Refund phrases sit above order phrases.
	require.Equal(t, domain.IntentRefundStatus, ClassifyIntent("where is my refund for my order"))
	// Courtesy is checked before everything else.
	require.Equal(t, domain.IntentThanks, ClassifyIntent("thanks, what is my order status"))
	// "this" contains "hi", so greeting beats the ARN rule.
	require.Equal(t, domain.IntentGreeting, ClassifyIntent("this is my arn"))
}

func TestClassifyIntent_TyOnlyOnExactMatch(t *testing.T) {
	require.Equal(t, domain.IntentUnknown, ClassifyIntent("typo"))
}
