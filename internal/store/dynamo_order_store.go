package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/example/ec-marketplace/internal/domain/order"
)

// DynamoOrderStore implements OrderStore on DynamoDB. The table is keyed by
// reference with a buyer_id GSI for per-buyer listings. ConditionExpression
// gives the same conditional status transition the PostgreSQL store gets
// from its guarded UPDATE.
type DynamoOrderStore struct {
	client    *dynamodb.Client
	tableName string
}

const dynamoBuyerIndex = "buyer_id-index"

// dynamoOrder is the DynamoDB item structure. Buyer, item and payment
// snapshots are frozen JSON documents, stored as strings.
type dynamoOrder struct {
	Reference     string `dynamodbav:"reference"`
	ID            string `dynamodbav:"id"`
	BuyerID       string `dynamodbav:"buyer_id"`
	Buyer         string `dynamodbav:"buyer"`
	Items         string `dynamodbav:"items"`
	PaymentMethod string `dynamodbav:"payment_method"`
	Status        string `dynamodbav:"order_status"`
	Total         int64  `dynamodbav:"total"`
	SessionToken  string `dynamodbav:"session_token,omitempty"`
	PaymentDetail string `dynamodbav:"payment_detail,omitempty"`
	CreatedAt     string `dynamodbav:"created_at"`
	UpdatedAt     string `dynamodbav:"updated_at"`
}

func NewDynamoOrderStore(client *dynamodb.Client, tableName string) *DynamoOrderStore {
	return &DynamoOrderStore{client: client, tableName: tableName}
}

func (s *DynamoOrderStore) CreateOrder(ctx context.Context, o *order.Order) error {
	item, err := marshalDynamoOrder(o)
	if err != nil {
		return err
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(reference)"),
	})
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return order.ErrDuplicateReference
	}
	if err != nil {
		return fmt.Errorf("failed to put order: %w", err)
	}
	return nil
}

func (s *DynamoOrderStore) GetOrder(ctx context.Context, reference string) (*order.Order, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       referenceKey(reference),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, order.ErrOrderNotFound
	}

	var item dynamoOrder
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order: %w", err)
	}
	return unmarshalDynamoOrder(&item)
}

func (s *DynamoOrderStore) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]*order.Order, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(dynamoBuyerIndex),
		KeyConditionExpression: aws.String("buyer_id = :bid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":bid": &types.AttributeValueMemberS{Value: buyerID},
		},
	})
	if err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(result.Items))
	for _, raw := range result.Items {
		var item dynamoOrder
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal order: %w", err)
		}
		o, err := unmarshalDynamoOrder(&item)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (s *DynamoOrderStore) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(s.tableName),
		Key:                  referenceKey(reference),
		ProjectionExpression: aws.String("reference"),
	})
	if err != nil {
		return false, err
	}
	return result.Item != nil, nil
}

func (s *DynamoOrderStore) SetSessionToken(ctx context.Context, reference, token string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 referenceKey(reference),
		UpdateExpression:    aws.String("SET session_token = :tok, updated_at = :at"),
		ConditionExpression: aws.String("attribute_exists(reference)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tok": &types.AttributeValueMemberS{Value: token},
			":at":  &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339Nano)},
		},
	})
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return order.ErrOrderNotFound
	}
	return err
}

// UpdateStatus performs the conditional transition via a DynamoDB
// ConditionExpression on the current status; a failed condition reports
// false without error, mirroring the PostgreSQL store.
func (s *DynamoOrderStore) UpdateStatus(ctx context.Context, reference string, expect, next order.Status, detail *order.PaymentDetail, at time.Time) (bool, error) {
	update := "SET order_status = :next, updated_at = :at"
	values := map[string]types.AttributeValue{
		":next":   &types.AttributeValueMemberS{Value: string(next)},
		":expect": &types.AttributeValueMemberS{Value: string(expect)},
		":at":     &types.AttributeValueMemberS{Value: at.Format(time.RFC3339Nano)},
	}
	if detail != nil {
		detailJSON, err := json.Marshal(detail)
		if err != nil {
			return false, err
		}
		update += ", payment_detail = :detail"
		values[":detail"] = &types.AttributeValueMemberS{Value: string(detailJSON)}
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 referenceKey(reference),
		UpdateExpression:    aws.String(update),
		ConditionExpression: aws.String("attribute_exists(reference) AND order_status = :expect"),
		ExpressionAttributeValues: values,
	})
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *DynamoOrderStore) UpdatePaymentDetail(ctx context.Context, reference string, detail *order.PaymentDetail, at time.Time) error {
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return err
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 referenceKey(reference),
		UpdateExpression:    aws.String("SET payment_detail = :detail, updated_at = :at"),
		ConditionExpression: aws.String("attribute_exists(reference)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":detail": &types.AttributeValueMemberS{Value: string(detailJSON)},
			":at":     &types.AttributeValueMemberS{Value: at.Format(time.RFC3339Nano)},
		},
	})
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return order.ErrOrderNotFound
	}
	return err
}

func (s *DynamoOrderStore) HasSuccessfulPurchase(ctx context.Context, buyerID, productID string) (bool, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(dynamoBuyerIndex),
		KeyConditionExpression: aws.String("buyer_id = :bid"),
		FilterExpression:       aws.String("order_status = :st"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":bid": &types.AttributeValueMemberS{Value: buyerID},
			":st":  &types.AttributeValueMemberS{Value: string(order.StatusSuccess)},
		},
	})
	if err != nil {
		return false, err
	}

	for _, raw := range result.Items {
		var item dynamoOrder
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return false, err
		}
		var items []order.Item
		if err := json.Unmarshal([]byte(item.Items), &items); err != nil {
			return false, err
		}
		for _, line := range items {
			if line.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

func referenceKey(reference string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"reference": &types.AttributeValueMemberS{Value: reference},
	}
}

func marshalDynamoOrder(o *order.Order) (*dynamoOrder, error) {
	buyer, err := json.Marshal(o.Buyer)
	if err != nil {
		return nil, err
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, err
	}

	item := &dynamoOrder{
		Reference:     o.Reference,
		ID:            o.ID,
		BuyerID:       o.Buyer.ID,
		Buyer:         string(buyer),
		Items:         string(items),
		PaymentMethod: string(o.PaymentMethod),
		Status:        string(o.Status),
		Total:         o.Total,
		SessionToken:  o.SessionToken,
		CreatedAt:     o.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:     o.UpdatedAt.Format(time.RFC3339Nano),
	}
	if o.PaymentDetail != nil {
		detail, err := json.Marshal(o.PaymentDetail)
		if err != nil {
			return nil, err
		}
		item.PaymentDetail = string(detail)
	}
	return item, nil
}

func unmarshalDynamoOrder(item *dynamoOrder) (*order.Order, error) {
	o := &order.Order{
		ID:            item.ID,
		Reference:     item.Reference,
		PaymentMethod: order.PaymentMethod(item.PaymentMethod),
		Status:        order.Status(item.Status),
		Total:         item.Total,
		SessionToken:  item.SessionToken,
	}
	if err := json.Unmarshal([]byte(item.Buyer), &o.Buyer); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(item.Items), &o.Items); err != nil {
		return nil, err
	}
	if item.PaymentDetail != "" {
		var detail order.PaymentDetail
		if err := json.Unmarshal([]byte(item.PaymentDetail), &detail); err != nil {
			return nil, err
		}
		o.PaymentDetail = &detail
	}

	var err error
	if o.CreatedAt, err = time.Parse(time.RFC3339Nano, item.CreatedAt); err != nil {
		return nil, err
	}
	if o.UpdatedAt, err = time.Parse(time.RFC3339Nano, item.UpdatedAt); err != nil {
		return nil, err
	}
	return o, nil
}
