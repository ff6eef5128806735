// Package dynamodb stores graphs in a single DynamoDB table and provides a
// lease lock on the same table.
//
// WithinTx stages every write and commits them when fn returns nil, using
// TransactWriteItems in chunks of up to 100 items. If a later chunk fails the
// items written by earlier chunks are deleted again, so the graph returns to
// its prior state. Readers can observe an in-flight multi-chunk commit.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pathfinder-backend/application/ports"
	"pathfinder-backend/domain/core/aggregates"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
)

const (
	batchWriteLimit    = 25
	transactWriteLimit = 100
)

// Store implements ports.Store on one DynamoDB table
type Store struct {
	client    Client
	tableName string
	logger    *zap.Logger

	lastSeq atomic.Int64
}

var _ ports.Store = (*Store)(nil)

// NewStore creates a store over tableName
func NewStore(client Client, tableName string, logger *zap.Logger) *Store {
	return &Store{client: client, tableName: tableName, logger: logger}
}

// nextSeq is a strictly increasing nanosecond stamp used to order topics and edges
func (s *Store) nextSeq() int64 {
	for {
		last := s.lastSeq.Load()
		next := time.Now().UnixNano()
		if next <= last {
			next = last + 1
		}
		if s.lastSeq.CompareAndSwap(last, next) {
			return next
		}
	}
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func (s *Store) CreateGraph(ctx context.Context, graph *entities.KnowledgeGraph) error {
	item, err := attributevalue.MarshalMap(newGraphItem(graph))
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}
	if err := s.putIfAbsent(ctx, item); err != nil {
		if isConditionFailed(err) {
			return entities.ErrDuplicate
		}
		return fmt.Errorf("failed to save graph: %w", err)
	}

	s.logger.Debug("Graph saved to DynamoDB",
		zap.String("graphID", graph.ID.String()),
		zap.String("userID", graph.OwnerID.String()),
	)
	return nil
}

func (s *Store) GetGraph(ctx context.Context, id valueobjects.GraphID) (*entities.KnowledgeGraph, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            key(graphPK(id), skMetadata),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get graph: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrGraphNotFound, id)
	}
	var item graphItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal graph: %w", err)
	}
	return item.toEntity(), nil
}

func (s *Store) ListGraphs(ctx context.Context, owner valueobjects.UserID) ([]*entities.KnowledgeGraph, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI1PK").Equal(expression.Value(ownerGSI(owner)))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	graphs := make([]*entities.KnowledgeGraph, 0)
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(gsi1Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list graphs: %w", err)
		}
		var items []graphItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal graphs: %w", err)
		}
		for _, item := range items {
			graphs = append(graphs, item.toEntity())
		}
	}
	return graphs, nil
}

// DeleteGraph removes the graph partition, the graph's uploads and finally
// the metadata item, so a failed delete can be retried.
func (s *Store) DeleteGraph(ctx context.Context, id valueobjects.GraphID) error {
	if _, err := s.GetGraph(ctx, id); err != nil {
		return err
	}

	keys, err := s.partitionKeys(ctx, graphPK(id))
	if err != nil {
		return err
	}
	uploads, err := s.graphUploadKeys(ctx, id)
	if err != nil {
		return err
	}

	children := make([]keyItem, 0, len(keys)+len(uploads))
	for _, k := range keys {
		if k.SK != skMetadata {
			children = append(children, k)
		}
	}
	children = append(children, uploads...)
	if err := s.batchDelete(ctx, children); err != nil {
		return err
	}

	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       key(graphPK(id), skMetadata),
	}); err != nil {
		return fmt.Errorf("failed to delete graph: %w", err)
	}

	s.logger.Debug("Graph deleted from DynamoDB",
		zap.String("graphID", id.String()),
		zap.Int("items", len(children)+1),
	)
	return nil
}

// LoadSnapshot reads topics and edges in parallel. Both are ordered by the
// sequence stamped at insert time.
func (s *Store) LoadSnapshot(ctx context.Context, id valueobjects.GraphID) (*aggregates.GraphSnapshot, error) {
	graph, err := s.GetGraph(ctx, id)
	if err != nil {
		return nil, err
	}

	var topicItems []topicItem
	var edgeItems []edgeItem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.queryPrefix(gctx, graphPK(id), "TOPIC#", &topicItems)
	})
	g.Go(func() error {
		return s.queryPrefix(gctx, graphPK(id), "EDGE#", &edgeItems)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(topicItems, func(i, j int) bool { return topicItems[i].Seq < topicItems[j].Seq })
	sort.SliceStable(edgeItems, func(i, j int) bool { return edgeItems[i].Seq < edgeItems[j].Seq })

	topics := make([]entities.Topic, 0, len(topicItems))
	for _, item := range topicItems {
		topics = append(topics, item.toEntity())
	}
	edges := make([]entities.Edge, 0, len(edgeItems))
	for _, item := range edgeItems {
		edges = append(edges, item.toEntity())
	}
	return aggregates.NewGraphSnapshot(*graph, topics, edges), nil
}

func (s *Store) putIfAbsent(ctx context.Context, item map[string]types.AttributeValue) error {
	expr, err := conditionNotExists()
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.tableName),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	return err
}

func (s *Store) queryPrefix(ctx context.Context, pk, prefix string, out any) error {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("PK").Equal(expression.Value(pk)).
			And(expression.Key("SK").BeginsWith(prefix))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to query %s: %w", prefix, err)
		}
		items = append(items, page.Items...)
	}
	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s items: %w", prefix, err)
	}
	return nil
}

func (s *Store) partitionKeys(ctx context.Context, pk string) ([]keyItem, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("PK").Equal(expression.Value(pk))).
		WithProjection(expression.NamesList(expression.Name("PK"), expression.Name("SK"))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	var keys []keyItem
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query partition: %w", err)
		}
		var batch []keyItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal keys: %w", err)
		}
		keys = append(keys, batch...)
	}
	return keys, nil
}

func (s *Store) batchDelete(ctx context.Context, keys []keyItem) error {
	for start := 0; start < len(keys); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(keys) {
			end = len(keys)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, k := range keys[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: key(k.PK, k.SK)},
			})
		}

		pending := map[string][]types.WriteRequest{s.tableName: requests}
		for attempt := 0; len(pending[s.tableName]) > 0; attempt++ {
			if attempt >= 5 {
				return fmt.Errorf("failed to delete %d items after retries", len(pending[s.tableName]))
			}
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Duration(attempt*50) * time.Millisecond):
				}
			}
			out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return fmt.Errorf("failed to batch delete: %w", err)
			}
			pending = out.UnprocessedItems
		}
	}
	return nil
}

func conditionNotExists() (expression.Expression, error) {
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeNotExists()).
		Build()
	if err != nil {
		return expr, fmt.Errorf("failed to build expression: %w", err)
	}
	return expr, nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for _, r := range canceled.CancellationReasons {
			if reasonIs(r, "ConditionalCheckFailed") {
				return true
			}
		}
	}
	return false
}

func reasonIs(r types.CancellationReason, code string) bool {
	return r.Code != nil && *r.Code == code
}
