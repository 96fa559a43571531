// Package catalog resolves order numbers and refund reference numbers against
// the orders loaded for one conversation. A Catalog is immutable once built.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"support-agent/internal/domain"
)

var (
	// ErrNotFound is returned when no order or refund matches the token.
	ErrNotFound = errors.New("catalog: not found")
	// ErrMalformedOrder is returned by New when the order source supplied an
	// order without its required identifier.
	ErrMalformedOrder = errors.New("catalog: malformed order")
)

// Catalog is a read-only view over the customer's orders and, when enabled,
// a shared collection searched after them.
type Catalog struct {
	own    []domain.Order
	shared []domain.Order
}

type Option func(*Catalog)

// WithSharedOrders makes orders outside the customer's own collection
// resolvable. Lookups always prefer the customer's orders.
func WithSharedOrders(orders []domain.Order) Option {
	return func(c *Catalog) {
		c.shared = cloneOrders(orders)
	}
}

// New builds a Catalog. Orders without an order number indicate a broken
// source and fail construction; missing refunds are treated as none.
func New(orders []domain.Order, opts ...Option) (*Catalog, error) {
	c := &Catalog{own: cloneOrders(orders)}
	for _, opt := range opts {
		opt(c)
	}
	if err := validate(c.own); err != nil {
		return nil, err
	}
	if err := validate(c.shared); err != nil {
		return nil, err
	}
	return c, nil
}

// Len returns the number of orders visible to the customer, shared ones included.
func (c *Catalog) Len() int {
	return len(c.own) + len(c.shared)
}

// FindOrderByIdentifier matches token against order numbers and display
// names. Matching is exact after lowercasing, trimming and removing a
// leading '#'.
func (c *Catalog) FindOrderByIdentifier(token string) (domain.Order, error) {
	needle := normalizeIdentifier(token)
	if needle == "" {
		return domain.Order{}, ErrNotFound
	}
	for _, set := range [][]domain.Order{c.own, c.shared} {
		for _, o := range set {
			if normalizeIdentifier(o.OrderNumber) == needle || normalizeIdentifier(o.ShopifyOrderName) == needle {
				return o, nil
			}
		}
	}
	return domain.Order{}, ErrNotFound
}

// FindRefundByReference returns the refund carrying the given ARN together
// with its owning order. The comparison ignores case and surrounding space.
func (c *Catalog) FindRefundByReference(arn string) (domain.Refund, domain.Order, error) {
	needle := strings.ToLower(strings.TrimSpace(arn))
	if needle == "" {
		return domain.Refund{}, domain.Order{}, ErrNotFound
	}
	for _, set := range [][]domain.Order{c.own, c.shared} {
		for _, o := range set {
			for _, r := range o.Refunds {
				if r.ARNNumber != "" && strings.ToLower(strings.TrimSpace(r.ARNNumber)) == needle {
					return r, o, nil
				}
			}
		}
	}
	return domain.Refund{}, domain.Order{}, ErrNotFound
}

func normalizeIdentifier(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimSpace(strings.TrimPrefix(s, "#"))
}

func validate(orders []domain.Order) error {
	for i, o := range orders {
		if strings.TrimSpace(o.OrderNumber) == "" {
			return fmt.Errorf("%w: order at index %d has no order number", ErrMalformedOrder, i)
		}
	}
	return nil
}

func cloneOrders(in []domain.Order) []domain.Order {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Order, len(in))
	for i, o := range in {
		if o.Refunds != nil {
			o.Refunds = append([]domain.Refund(nil), o.Refunds...)
		}
		out[i] = o
	}
	return out
}
