// Package replies renders assistant replies from resolved orders and refunds.
// Every function is pure; wording comes from a Profile.
package replies

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"support-agent/internal/domain"
)

const bankStatementNote = "Please check your bank statement before raising a support ticket."

// Amount renders a currency amount without grouping separators.
func Amount(p Profile, v float64) string {
	return p.CurrencySymbol + strconv.FormatFloat(v, 'f', -1, 64)
}

// Date renders t in the viewer's location using the profile layout. A zero
// time renders as the profile's pending text.
func Date(p Profile, t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return p.PendingDate
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(p.DateLayout)
}

// OrderStatus describes an order given its derived display status.
func OrderStatus(p Profile, o domain.Order, status domain.DisplayStatus) string {
	name := o.DisplayName()
	switch status {
	case domain.StatusReturned:
		return lines(
			fmt.Sprintf("Your order %s was RETURNED.", name),
			"Order was picked up and return has been processed.",
			returnRefundLine(p, o),
			"",
			orderDetails(p, o),
		)
	case domain.StatusConfirmed:
		return lines(
			fmt.Sprintf("✅ Your order %s is CONFIRMED and being processed.", name),
			o.DeliveryStatus,
			"",
			orderDetails(p, o),
		)
	case domain.StatusShipped:
		return lines(
			fmt.Sprintf("✅ Your order %s has been SHIPPED.", name),
			o.DeliveryStatus,
			"",
			orderDetails(p, o),
		)
	case domain.StatusDelivered:
		return lines(
			fmt.Sprintf("✅ Your order %s was DELIVERED.", name),
			o.DeliveryStatus,
			"",
			orderDetails(p, o),
		)
	case domain.StatusNotConfirmed:
		if o.PaymentStatus {
			return lines(
				fmt.Sprintf("⚠️ Your order %s was NOT CONFIRMED, but your payment was successful.", name),
				fmt.Sprintf("A refund will be processed automatically and you should receive it within %s.", p.Windows.NotConfirmedPaid),
				"If you do not receive your refund, please contact support.",
			)
		}
		return lines(
			fmt.Sprintf("Your order %s is currently NOT CONFIRMED.", name),
			o.DeliveryStatus,
		)
	case domain.StatusCancelled:
		if !o.PaymentStatus {
			return lines(
				fmt.Sprintf("Your order %s was CANCELLED and payment was not debited.", name),
				"Please check your bank account. No deduction has been made.",
				"",
				"Is there anything else I can help you with?",
			)
		}
		refundLine := "A refund will be processed shortly."
		if o.HasRefunds() {
			refundLine = fmt.Sprintf("A refund has already been initiated. You'll get the amount within %s. %s", p.Windows.CancelledPaid, bankStatementNote)
		}
		return lines(
			fmt.Sprintf("Your order %s was CANCELLED, but your payment was successful.", name),
			refundLine,
		)
	case domain.StatusRefunded:
		refundLine := ""
		if r, ok := o.LatestRefund(); ok {
			refundLine = fmt.Sprintf("Refund Amount: %s", Amount(p, r.Amount))
		}
		return lines(
			fmt.Sprintf("Your order %s has been REFUNDED.", name),
			refundLine,
			"",
			orderDetails(p, o),
		)
	case domain.StatusProcessing:
		return lines(
			fmt.Sprintf("Your order %s is currently in PROCESSING status.", name),
			o.DeliveryStatus,
			"",
			"Do you need any other information about this order?",
		)
	}
	return fmt.Sprintf("Your order %s is currently %s.", name, status.Label())
}

// RefundStatus describes the most recent refund on the order.
func RefundStatus(p Profile, o domain.Order, loc *time.Location) string {
	r, ok := o.LatestRefund()
	if !ok {
		return p.NoRefundOnOrder
	}
	name := o.DisplayName()
	switch {
	case r.Succeeded():
		arn := r.ARNNumber
		if arn == "" {
			arn = "Processing"
		}
		return lines(
			fmt.Sprintf("✅ Refund Status for Order %s: Success", name),
			fmt.Sprintf("💰 Refund Amount: %s", Amount(p, r.Amount)),
			fmt.Sprintf("🔁 Refund Date: %s", Date(p, r.EffectiveDate(), loc)),
			fmt.Sprintf("📌 ARN Number: %s", arn),
			"",
			fmt.Sprintf("Note: Refunds are usually credited within %s. %s", p.Windows.RefundSuccess, bankStatementNote),
		)
	case r.Initiated():
		return lines(
			fmt.Sprintf("🔄 Your refund for Order %s is currently being processed.", name),
			fmt.Sprintf("You'll receive the amount in your bank within %s. %s", p.Windows.RefundInitiated, bankStatementNote),
		)
	default:
		return lines(
			fmt.Sprintf("According to our records, the refund for Order %s has not yet been initiated by the merchant.", name),
			"Please reach out to the merchant for further assistance.",
		)
	}
}

// AmountDebited answers "money was taken but I have no order". Orders that
// went through are confirmed as such; orders that ended in a return or
// cancellation get the full status reply.
func AmountDebited(p Profile, o domain.Order, status domain.DisplayStatus) string {
	name := o.DisplayName()
	switch status {
	case domain.StatusConfirmed, domain.StatusShipped, domain.StatusDelivered, domain.StatusProcessing:
		return fmt.Sprintf("Your order %s went through and is currently %s. The payment has been successfully processed.", name, status.Label())
	case domain.StatusReturned, domain.StatusCancelled, domain.StatusRefunded:
		return OrderStatus(p, o, status)
	}
	if !o.PaymentStatus {
		return fmt.Sprintf("Your order %s is not confirmed yet. Please wait while we verify the payment. If there's any issue, a refund will be processed automatically.", name)
	}
	return lines(
		fmt.Sprintf("Looks like your order %s didn't go through, but your payment was successful. A refund will be processed automatically and you should receive it within %s.", name, p.Windows.AmountDebited),
		"",
		"Would you like me to track the refund status for you?",
	)
}

// RefundDetail describes a refund found by its ARN.
func RefundDetail(p Profile, o domain.Order, r domain.Refund, loc *time.Location) string {
	status := strings.TrimSpace(r.Status)
	if status == "" {
		status = "Not Initiated"
	}
	return lines(
		fmt.Sprintf("✅ Refund Status for ARN %s:", r.ARNNumber),
		fmt.Sprintf("Order: %s", o.DisplayName()),
		fmt.Sprintf("Amount: %s", Amount(p, r.Amount)),
		fmt.Sprintf("Status: %s", status),
		fmt.Sprintf("Refund Date: %s", Date(p, r.EffectiveDate(), loc)),
		"",
		"Is there anything else you'd like to know about this refund?",
	)
}

func returnRefundLine(p Profile, o domain.Order) string {
	r, ok := o.LatestRefund()
	switch {
	case !ok:
		return "Your refund will be processed shortly."
	case r.Succeeded():
		return fmt.Sprintf("Your refund has been processed and will be credited within %s. %s", p.Windows.ReturnSuccess, bankStatementNote)
	default:
		return fmt.Sprintf("Your refund is being initiated and will be credited within %s. %s", p.Windows.ReturnPending, bankStatementNote)
	}
}

func orderDetails(p Profile, o domain.Order) string {
	payment := "Failed"
	if o.PaymentStatus {
		payment = "Successful"
	}
	return lines(
		"Order Details:",
		fmt.Sprintf("- Total Amount: %s", Amount(p, o.TotalAmount)),
		fmt.Sprintf("- Payment Method: %s", o.PaymentMethod),
		fmt.Sprintf("- Payment Status: %s", payment),
	)
}

// lines joins parts with newlines. Empty parts are paragraph breaks; leading,
// trailing and repeated breaks collapse, so optional fields can be passed
// unconditionally.
func lines(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimRight(part, " \n")
		if part == "" {
			if len(out) == 0 || out[len(out)-1] == "" {
				continue
			}
		}
		out = append(out, part)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
