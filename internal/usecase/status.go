package usecase

import "support-agent/internal/domain"

// ClassifyOrder derives the customer-facing status of an order. The raw
// status is not authoritative once a refund exists: a confirmed order with
// any refund record is reported as returned.
func ClassifyOrder(o domain.Order) domain.DisplayStatus {
	raw := o.OrderStatus.Normalize()
	switch {
	case o.HasRefunds() && raw == domain.OrderConfirmed:
		return domain.StatusReturned
	case raw == domain.OrderReturned:
		return domain.StatusReturned
	case raw == domain.OrderCancelled:
		return domain.StatusCancelled
	case raw == domain.OrderConfirmed:
		return domain.StatusConfirmed
	case raw == domain.OrderShipped:
		return domain.StatusShipped
	case raw == domain.OrderDelivered:
		return domain.StatusDelivered
	case raw == domain.OrderNotConfirmed:
		return domain.StatusNotConfirmed
	default:
		return domain.StatusProcessing
	}
}
