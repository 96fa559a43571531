package replies

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ProfileSupport = "support"
	ProfileWidget  = "widget"
)

// CreditWindows holds the business-day promises quoted in replies. They differ
// between deployments and are never hardcoded in the templates.
type CreditWindows struct {
	RefundSuccess    string `yaml:"refund_success"`
	RefundInitiated  string `yaml:"refund_initiated"`
	ReturnSuccess    string `yaml:"return_success"`
	ReturnPending    string `yaml:"return_pending"`
	NotConfirmedPaid string `yaml:"not_confirmed_paid"`
	CancelledPaid    string `yaml:"cancelled_paid"`
	AmountDebited    string `yaml:"amount_debited"`
}

// Profile is the wording set for one deployment of the assistant.
type Profile struct {
	Name               string        `yaml:"name"`
	Greeting           string        `yaml:"greeting"`
	AskOrderNumber     string        `yaml:"ask_order_number"`
	AskRefundReference string        `yaml:"ask_refund_reference"`
	OrderNotFound      string        `yaml:"order_not_found"`
	RefundNotFound     string        `yaml:"refund_not_found"`
	NoRefundOnOrder    string        `yaml:"no_refund_on_order"`
	Thanks             string        `yaml:"thanks"`
	Goodbye            string        `yaml:"goodbye"`
	CancelPolicy       string        `yaml:"cancel_policy"`
	Fallback           string        `yaml:"fallback"`
	CurrencySymbol     string        `yaml:"currency_symbol"`
	DateLayout         string        `yaml:"date_layout"`
	PendingDate        string        `yaml:"pending_date"`
	Windows            CreditWindows `yaml:"credit_windows"`
	Placeholders       Placeholders  `yaml:"placeholders"`
}

// Placeholders are input hints shown while the assistant waits for a reply.
type Placeholders struct {
	Default         string `yaml:"default"`
	OrderNumber     string `yaml:"order_number"`
	RefundReference string `yaml:"refund_reference"`
}

const greeting = "Hello! 👋 Welcome to Gokwik support. I can help you with:\n" +
	"- Refund Status\n" +
	"- Order Status\n" +
	"- Amount Debited but Order not Confirmed\n\n" +
	"Please type your query below or enter the specific command (e.g. 'refund status', 'order status')."

var builtin = map[string]Profile{
	ProfileSupport: {
		Name:               ProfileSupport,
		Greeting:           greeting,
		AskOrderNumber:     "Could you please provide your order number so I can check the status for you?",
		AskRefundReference: "Do you have the refund ARN number? If yes, please share it so I can provide more specific details.",
		OrderNotFound:      "I couldn't find an order with that number. Please check and try again with a valid order number.",
		RefundNotFound:     "I couldn't find a refund with that ARN number. Please check and try again.",
		NoRefundOnOrder:    "I couldn't find any refund information for your order. If you've initiated a refund recently, please check back in 24-48 hours.",
		Thanks:             "You're welcome! Is there anything else I can help you with today?",
		Goodbye:            "Thank you for chatting with us. Have a great day! Feel free to come back anytime you need assistance.",
		CancelPolicy:       "To cancel your order, please contact the merchant brand directly.\nWe do not handle cancellations from our end.\n\nIs there something else I can help you with?",
		Fallback:           "I'm not sure how to help with that. Could you please be more specific? You can ask about refund status, order status, or payment issues.",
		CurrencySymbol:     "₹",
		DateLayout:         "2/1/2006",
		PendingDate:        "Processing",
		Windows: CreditWindows{
			RefundSuccess:    "5–8 working days (excluding Saturdays & Sundays)",
			RefundInitiated:  "3–5 working days",
			ReturnSuccess:    "2-3 business days",
			ReturnPending:    "3-5 business days",
			NotConfirmedPaid: "5–8 working days",
			CancelledPaid:    "5–8 working days",
			AmountDebited:    "5–8 working days",
		},
		Placeholders: Placeholders{
			Default:         "Type your message...",
			OrderNumber:     "Enter your order number...",
			RefundReference: "Enter your ARN number...",
		},
	},
	ProfileWidget: {
		Name:               ProfileWidget,
		Greeting:           greeting,
		AskOrderNumber:     "Could you please provide your order number so I can check the status for you?",
		AskRefundReference: "Do you have the refund ARN number? If yes, please share it so I can provide more specific details.",
		OrderNotFound:      "I couldn't find an order with that number. Please check and try again with a valid order number.",
		RefundNotFound:     "I couldn't find a refund with that ARN number. Please check and try again.",
		NoRefundOnOrder:    "I couldn't find any refund information for your order. If you've initiated a refund recently, please check back in 24-48 hours.",
		Thanks:             "You're welcome! Let me know if you need anything else.",
		Goodbye:            "Thank you for chatting with us. Have a great day!",
		CancelPolicy:       "To cancel your order, please contact the merchant brand directly. We do not handle cancellations.",
		Fallback:           "I'm not sure how to help with that. Could you please be more specific? You can ask about:\n- Refund Status\n- Order Status\n- Amount Debited but Order not Confirmed",
		CurrencySymbol:     "₹",
		DateLayout:         "2/1/2006",
		PendingDate:        "Processing",
		Windows: CreditWindows{
			RefundSuccess:    "2-3 business days",
			RefundInitiated:  "3-5 working days",
			ReturnSuccess:    "2-3 business days",
			ReturnPending:    "3-5 business days",
			NotConfirmedPaid: "5-8 working days",
			CancelledPaid:    "5-8 working days",
			AmountDebited:    "5-8 working days",
		},
		Placeholders: Placeholders{
			Default:         "Type your message...",
			OrderNumber:     "Enter your order number...",
			RefundReference: "Enter your ARN number...",
		},
	},
}

// ProfileNames lists the built-in profile names in sorted order.
func ProfileNames() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProfileByName returns a built-in profile. An empty name selects support.
func ProfileByName(name string) (Profile, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = ProfileSupport
	}
	p, ok := builtin[name]
	if !ok {
		return Profile{}, fmt.Errorf("replies: unknown profile %q (known: %s)", name, strings.Join(ProfileNames(), ", "))
	}
	return p, nil
}

type profileDocument struct {
	Base    string `yaml:"base"`
	Profile `yaml:",inline"`
}

// LoadProfile overlays a YAML document onto base. The document may name a
// different built-in profile under "base"; keys it omits keep the base value.
//
//	base: widget
//	thanks: "Happy to help!"
//	credit_windows:
//	  refund_success: "3-4 business days"
func LoadProfile(r io.Reader, base Profile) (Profile, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Profile{}, fmt.Errorf("replies: read profile: %w", err)
	}

	var head struct {
		Base string `yaml:"base"`
	}
	if err := yaml.Unmarshal(raw, &head); err != nil {
		return Profile{}, fmt.Errorf("replies: decode profile: %w", err)
	}
	if head.Base != "" {
		base, err = ProfileByName(head.Base)
		if err != nil {
			return Profile{}, err
		}
	}

	doc := profileDocument{Profile: base}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Profile{}, fmt.Errorf("replies: decode profile: %w", err)
	}
	if err := doc.Profile.Validate(); err != nil {
		return Profile{}, err
	}
	return doc.Profile, nil
}

// Validate reports every required wording field that is empty.
func (p Profile) Validate() error {
	required := map[string]string{
		"greeting":             p.Greeting,
		"ask_order_number":     p.AskOrderNumber,
		"ask_refund_reference": p.AskRefundReference,
		"order_not_found":      p.OrderNotFound,
		"refund_not_found":     p.RefundNotFound,
		"no_refund_on_order":   p.NoRefundOnOrder,
		"thanks":               p.Thanks,
		"goodbye":              p.Goodbye,
		"cancel_policy":        p.CancelPolicy,
		"fallback":             p.Fallback,
		"date_layout":          p.DateLayout,
	}
	var missing []string
	for key, v := range required {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("replies: profile %q missing %s", p.Name, strings.Join(missing, ", "))
	}
	return nil
}
