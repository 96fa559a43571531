package usecase

import (
	"strings"

	"support-agent/internal/domain"
)

type intentRule struct {
	intent   domain.Intent
	contains []string
	exact    []string
}

func (r intentRule) matches(text string) bool {
	for _, e := range r.exact {
		if text == e {
			return true
		}
	}
	for _, s := range r.contains {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

// intentRules is evaluated top to bottom and the first match wins. Keyword
// sets overlap, so refund phrases must stay above the order phrases.
var intentRules = []intentRule{
	{intent: domain.IntentThanks, contains: []string{"thank"}, exact: []string{"ty"}},
	{intent: domain.IntentEndConversation, contains: []string{"bye", "goodbye", "exit", "quit"}},
	{intent: domain.IntentRefundStatus, contains: []string{
		"refund status", "where is my refund", "check refund",
		"haven't received", "not credited", "no refund",
	}},
	{intent: domain.IntentOrderStatus, contains: []string{"order status", "my order", "track", "where is my order"}},
	{intent: domain.IntentAmountDebitedNoOrder, contains: []string{"amount debited", "payment deducted", "paid but no order"}},
	{intent: domain.IntentCancelInquiry, contains: []string{"cancel", "cancellation"}},
	{intent: domain.IntentGreeting, contains: []string{"hi", "hello", "hey"}},
	{intent: domain.IntentRefundByReference, contains: []string{"arn", "reference"}},
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

// ClassifyIntent maps free text to an intent. It never fails: text that no
// rule matches is IntentUnknown.
func ClassifyIntent(text string) domain.Intent {
	normalized := apostrophes.Replace(strings.ToLower(strings.TrimSpace(text)))
	for _, rule := range intentRules {
		if rule.matches(normalized) {
			return rule.intent
		}
	}
	return domain.IntentUnknown
}
