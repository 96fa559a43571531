package repository

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"support-agent/internal/domain"
)

//go:embed fixtures/demo_orders.yaml
var demoOrders []byte

// Customer is one customer and the orders they own.
type Customer struct {
	Key    string         `yaml:"key"`
	Name   string         `yaml:"name"`
	Orders []domain.Order `yaml:"orders"`
}

// Fixture is a YAML document of customers used to seed stores. It also serves
// orders directly, which keeps demos and tests free of any database.
type Fixture struct {
	Customers []Customer `yaml:"customers"`
}

// DemoFixture returns the built-in demo customers.
func DemoFixture() (Fixture, error) {
	return LoadFixture(bytes.NewReader(demoOrders))
}

// LoadFixture parses and validates a fixture document. Unknown fields are
// rejected.
func LoadFixture(r io.Reader) (Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return Fixture{}, fmt.Errorf("repository: parse fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return Fixture{}, err
	}
	return f, nil
}

// Validate checks that customer keys and order numbers are present and
// unique.
func (f Fixture) Validate() error {
	customers := make(map[string]bool)
	orders := make(map[string]string)
	for i, c := range f.Customers {
		key := strings.TrimSpace(c.Key)
		if key == "" {
			return fmt.Errorf("repository: fixture customer %d has no key", i)
		}
		if customers[key] {
			return fmt.Errorf("repository: fixture customer %q listed twice", key)
		}
		customers[key] = true
		for j, o := range c.Orders {
			if strings.TrimSpace(o.OrderNumber) == "" {
				return fmt.Errorf("repository: fixture customer %q order %d has no order number", key, j)
			}
			if owner, ok := orders[o.OrderNumber]; ok {
				return fmt.Errorf("repository: fixture order %s belongs to both %q and %q", o.OrderNumber, owner, key)
			}
			orders[o.OrderNumber] = key
		}
	}
	return nil
}

func (f Fixture) GetOrdersForCustomer(_ context.Context, customerKey string) ([]domain.Order, error) {
	customerKey = strings.TrimSpace(customerKey)
	for _, c := range f.Customers {
		if strings.TrimSpace(c.Key) == customerKey {
			return c.Orders, nil
		}
	}
	return nil, fmt.Errorf("repository: customer %q: %w", customerKey, domain.ErrCustomerNotFound)
}

func (f Fixture) ListAllOrders(context.Context) ([]domain.Order, error) {
	var all []domain.Order
	for _, c := range f.Customers {
		all = append(all, c.Orders...)
	}
	return all, nil
}

// OrderWriter is implemented by the stores that can be seeded.
type OrderWriter interface {
	SaveCustomer(ctx context.Context, customerKey, name string) error
	SaveOrder(ctx context.Context, customerKey string, o domain.Order) error
}

// Seed writes every customer and order in f. It returns the number of orders
// written.
func Seed(ctx context.Context, w OrderWriter, f Fixture) (int, error) {
	written := 0
	for _, c := range f.Customers {
		if err := w.SaveCustomer(ctx, c.Key, c.Name); err != nil {
			return written, fmt.Errorf("repository: seed customer %q: %w", c.Key, err)
		}
		for _, o := range c.Orders {
			if err := w.SaveOrder(ctx, c.Key, o); err != nil {
				return written, fmt.Errorf("repository: seed order %s: %w", o.OrderNumber, err)
			}
			written++
		}
	}
	return written, nil
}
