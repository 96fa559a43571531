package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"support-agent/internal/domain"
)

const (
	pkPrefixCustomer = "CUST#"
	skPrefixOrder    = "ORDER#"
	skMeta           = "META#"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Client reads and writes customer orders in a single DynamoDB table. A
// customer partition holds one META# item and one ORDER# item per order.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

func customerPK(customerKey string) string {
	return pkPrefixCustomer + customerKey
}

func orderSK(orderNumber string) string {
	return skPrefixOrder + orderNumber
}

// GetOrdersForCustomer returns every order in the customer's partition. A
// partition with no items at all means the customer is unknown.
func (c *Client) GetOrdersForCustomer(ctx context.Context, customerKey string) ([]domain.Order, error) {
	customerKey = strings.TrimSpace(customerKey)
	if customerKey == "" {
		return nil, errors.New("repository: GetOrdersForCustomer: customer key is required")
	}

	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: customerPK(customerKey)},
		},
		ConsistentRead: aws.Bool(true),
	}

	var items []map[string]types.AttributeValue
	for {
		out, err := c.api.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("repository: GetOrdersForCustomer query: %w", err)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("repository: customer %q: %w", customerKey, domain.ErrCustomerNotFound)
	}

	orders, err := itemsToOrders(items)
	if err != nil {
		return nil, fmt.Errorf("repository: GetOrdersForCustomer unmarshal: %w", err)
	}
	return orders, nil
}

// ListAllOrders scans the whole table for order items.
func (c *Client) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	in := &dynamodb.ScanInput{
		TableName:        aws.String(c.tableName),
		FilterExpression: aws.String("begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: skPrefixOrder},
		},
	}

	var items []map[string]types.AttributeValue
	for {
		out, err := c.api.Scan(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("repository: ListAllOrders scan: %w", err)
		}
		items = append(items, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}

	orders, err := itemsToOrders(items)
	if err != nil {
		return nil, fmt.Errorf("repository: ListAllOrders unmarshal: %w", err)
	}
	return orders, nil
}

// SaveCustomer writes the customer's META# item so the customer is known even
// before any order exists.
func (c *Client) SaveCustomer(ctx context.Context, customerKey, name string) error {
	customerKey = strings.TrimSpace(customerKey)
	if customerKey == "" {
		return errors.New("repository: SaveCustomer: customer key is required")
	}
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"PK":   &types.AttributeValueMemberS{Value: customerPK(customerKey)},
			"SK":   &types.AttributeValueMemberS{Value: skMeta},
			"name": &types.AttributeValueMemberS{Value: name},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: SaveCustomer: %w", err)
	}
	return nil
}

// SaveOrder writes or replaces one order in the customer's partition.
func (c *Client) SaveOrder(ctx context.Context, customerKey string, o domain.Order) error {
	customerKey = strings.TrimSpace(customerKey)
	if customerKey == "" {
		return errors.New("repository: SaveOrder: customer key is required")
	}
	if strings.TrimSpace(o.OrderNumber) == "" {
		return errors.New("repository: SaveOrder: order number is required")
	}
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      orderItem(customerKey, o),
	})
	if err != nil {
		return fmt.Errorf("repository: SaveOrder %s: %w", o.OrderNumber, err)
	}
	return nil
}

func itemsToOrders(items []map[string]types.AttributeValue) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, len(items))
	for _, item := range items {
		sk, err := strAttr(item, "SK")
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(sk, skPrefixOrder) {
			continue
		}
		o, err := itemToOrder(item)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sk, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func itemToOrder(item map[string]types.AttributeValue) (domain.Order, error) {
	number, err := strAttr(item, "orderNumber")
	if err != nil {
		return domain.Order{}, err
	}
	total, err := numAttr(item, "totalAmount")
	if err != nil {
		return domain.Order{}, err
	}
	refunds, err := refundsAttr(item, "refunds")
	if err != nil {
		return domain.Order{}, err
	}
	return domain.Order{
		OrderNumber:      number,
		ShopifyOrderName: optStrAttr(item, "shopifyOrderName"),
		OrderStatus:      domain.OrderStatus(optStrAttr(item, "orderStatus")),
		PaymentStatus:    boolAttr(item, "paymentStatus"),
		PaymentMethod:    optStrAttr(item, "paymentMethod"),
		TotalAmount:      total,
		Currency:         optStrAttr(item, "currency"),
		DeliveryStatus:   optStrAttr(item, "deliveryStatus"),
		MerchantName:     optStrAttr(item, "merchantName"),
		Refunds:          refunds,
	}, nil
}

func orderItem(customerKey string, o domain.Order) map[string]types.AttributeValue {
	refunds := make([]types.AttributeValue, 0, len(o.Refunds))
	for _, r := range o.Refunds {
		refunds = append(refunds, &types.AttributeValueMemberM{Value: refundItem(r)})
	}
	return map[string]types.AttributeValue{
		"PK":               &types.AttributeValueMemberS{Value: customerPK(customerKey)},
		"SK":               &types.AttributeValueMemberS{Value: orderSK(o.OrderNumber)},
		"orderNumber":      &types.AttributeValueMemberS{Value: o.OrderNumber},
		"shopifyOrderName": &types.AttributeValueMemberS{Value: o.ShopifyOrderName},
		"orderStatus":      &types.AttributeValueMemberS{Value: string(o.OrderStatus)},
		"paymentStatus":    &types.AttributeValueMemberBOOL{Value: o.PaymentStatus},
		"paymentMethod":    &types.AttributeValueMemberS{Value: o.PaymentMethod},
		"totalAmount":      &types.AttributeValueMemberN{Value: formatNumber(o.TotalAmount)},
		"currency":         &types.AttributeValueMemberS{Value: o.Currency},
		"deliveryStatus":   &types.AttributeValueMemberS{Value: o.DeliveryStatus},
		"merchantName":     &types.AttributeValueMemberS{Value: o.MerchantName},
		"refunds":          &types.AttributeValueMemberL{Value: refunds},
	}
}

func refundItem(r domain.Refund) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"refundId":   &types.AttributeValueMemberS{Value: r.RefundID},
		"status":     &types.AttributeValueMemberS{Value: r.Status},
		"amount":     &types.AttributeValueMemberN{Value: formatNumber(r.Amount)},
		"arnNumber":  &types.AttributeValueMemberS{Value: r.ARNNumber},
		"createdAt":  &types.AttributeValueMemberS{Value: formatTime(r.CreatedAt)},
		"refundedAt": &types.AttributeValueMemberS{Value: formatTime(r.RefundedAt)},
	}
}

// refundsAttr decodes the refund list. A missing or NULL attribute is an
// order without refunds.
func refundsAttr(item map[string]types.AttributeValue, key string) ([]domain.Refund, error) {
	v, ok := item[key]
	if !ok {
		return nil, nil
	}
	if _, isNull := v.(*types.AttributeValueMemberNULL); isNull {
		return nil, nil
	}
	list, ok := v.(*types.AttributeValueMemberL)
	if !ok {
		return nil, fmt.Errorf("repository: attribute %q is not a list", key)
	}
	refunds := make([]domain.Refund, 0, len(list.Value))
	for i, elem := range list.Value {
		m, ok := elem.(*types.AttributeValueMemberM)
		if !ok {
			return nil, fmt.Errorf("repository: %s[%d] is not a map", key, i)
		}
		r, err := itemToRefund(m.Value)
		if err != nil {
			return nil, fmt.Errorf("repository: %s[%d]: %w", key, i, err)
		}
		refunds = append(refunds, r)
	}
	return refunds, nil
}

func itemToRefund(item map[string]types.AttributeValue) (domain.Refund, error) {
	amount, err := numAttr(item, "amount")
	if err != nil {
		return domain.Refund{}, err
	}
	created, err := timeAttr(item, "createdAt")
	if err != nil {
		return domain.Refund{}, err
	}
	refunded, err := timeAttr(item, "refundedAt")
	if err != nil {
		return domain.Refund{}, err
	}
	return domain.Refund{
		RefundID:   optStrAttr(item, "refundId"),
		Status:     optStrAttr(item, "status"),
		Amount:     amount,
		ARNNumber:  optStrAttr(item, "arnNumber"),
		CreatedAt:  created,
		RefundedAt: refunded,
	}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func optStrAttr(item map[string]types.AttributeValue, key string) string {
	s, _ := strAttr(item, key) // allow empty
	return s
}

func numAttr(item map[string]types.AttributeValue, key string) (float64, error) {
	v, ok := item[key]
	if !ok {
		return 0, nil
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}

func boolAttr(item map[string]types.AttributeValue, key string) bool {
	b, ok := item[key].(*types.AttributeValueMemberBOOL)
	return ok && b.Value
}

// timeAttr parses an RFC 3339 string. Empty or missing values are the zero
// time, which renders as pending.
func timeAttr(item map[string]types.AttributeValue, key string) (time.Time, error) {
	s := optStrAttr(item, key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return t, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

