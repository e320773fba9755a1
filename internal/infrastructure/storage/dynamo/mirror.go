// Package dynamo provides a DynamoDB Mirror Store.
package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"studentrecords/internal/domain/mirror"
)

// DefaultWriteTimeout bounds a single mirror write.
const DefaultWriteTimeout = 5 * time.Second

// API is the subset of *dynamodb.Client the mirror uses.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ mirror.Store = (*MirrorStore)(nil)

// MirrorStore keeps one item per record in a table whose partition key is
// the number attribute "id".
type MirrorStore struct {
	client  API
	table   string
	timeout time.Duration
}

// NewMirrorStore creates a store writing to table.
func NewMirrorStore(client API, table string) *MirrorStore {
	return &MirrorStore{client: client, table: table, timeout: DefaultWriteTimeout}
}

// Upsert implements mirror.Store. PutItem replaces the whole item.
func (s *MirrorStore) Upsert(ctx context.Context, key int64, doc mirror.Document) error {
	doc.ID = key
	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return fmt.Errorf("marshal document %d: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put item %d: %w", key, err)
	}
	return nil
}

// Delete implements mirror.Store. Deleting a missing item succeeds.
func (s *MirrorStore) Delete(ctx context.Context, key int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberN{Value: strconv.FormatInt(key, 10)},
		},
	})
	if err != nil {
		return fmt.Errorf("delete item %d: %w", key, err)
	}
	return nil
}

// ClientOptions selects the AWS region and an optional endpoint override
// (DynamoDB Local, LocalStack).
type ClientOptions struct {
	Region   string
	Endpoint string
}

// NewClient builds a DynamoDB client from the default AWS credential chain.
func NewClient(ctx context.Context, opts ClientOptions) (*dynamodb.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}
