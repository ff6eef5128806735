package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"pathfinder-backend/application/ports"
	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
)

// WithinTx runs fn against a staging transaction and commits its writes
// only if fn returns nil
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.GraphTx) error) error {
	tx := newGraphTx(s)
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit(ctx)
}

// stagedWrite is one pending transact item. Puts remember their key so a
// partial commit can be undone.
type stagedWrite struct {
	item types.TransactWriteItem
	put  *keyItem
}

type graphTx struct {
	store *Store

	graphs map[valueobjects.GraphID]bool
	topics map[string]*entities.Topic
	edges  map[string]struct{}
	writes []stagedWrite
	touch  *types.TransactWriteItem
}

func newGraphTx(s *Store) *graphTx {
	return &graphTx{
		store:  s,
		graphs: make(map[valueobjects.GraphID]bool),
		topics: make(map[string]*entities.Topic),
		edges:  make(map[string]struct{}),
	}
}

func stagedName(graphID valueobjects.GraphID, name string) string {
	return graphID.String() + "\x00" + name
}

// requireGraph checks once per transaction that the graph exists
func (t *graphTx) requireGraph(ctx context.Context, graphID valueobjects.GraphID) error {
	if t.graphs[graphID] {
		return nil
	}
	if _, err := t.store.GetGraph(ctx, graphID); err != nil {
		return err
	}
	t.graphs[graphID] = true
	return nil
}

func (t *graphTx) TopicByName(ctx context.Context, graphID valueobjects.GraphID, name string) (*entities.Topic, error) {
	if staged, ok := t.topics[stagedName(graphID, name)]; ok {
		copied := *staged
		return &copied, nil
	}
	if err := t.requireGraph(ctx, graphID); err != nil {
		return nil, err
	}

	s := t.store
	claim, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            key(graphPK(graphID), topicNameSK(name)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get topic name claim: %w", err)
	}
	if claim.Item == nil {
		return nil, entities.ErrTopicNotFound
	}
	var c nameClaimItem
	if err := attributevalue.UnmarshalMap(claim.Item, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal topic name claim: %w", err)
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            key(graphPK(graphID), topicSK(valueobjects.TopicID(c.TopicID))),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}
	if result.Item == nil {
		return nil, fmt.Errorf("%w: dangling name claim %q", entities.ErrTopicNotFound, name)
	}
	var item topicItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal topic: %w", err)
	}
	topic := item.toEntity()
	return &topic, nil
}

// InsertTopic stages the name claim and the topic. A claim that is already
// staged or committed means the name is taken.
func (t *graphTx) InsertTopic(ctx context.Context, topic *entities.Topic) (bool, error) {
	if _, ok := t.topics[stagedName(topic.GraphID, topic.Name)]; ok {
		return false, nil
	}
	if err := t.requireGraph(ctx, topic.GraphID); err != nil {
		return false, err
	}
	claimKey := keyItem{PK: graphPK(topic.GraphID), SK: topicNameSK(topic.Name)}
	taken, err := t.exists(ctx, claimKey)
	if err != nil {
		return false, fmt.Errorf("failed to check topic name claim: %w", err)
	}
	if taken {
		return false, nil
	}

	s := t.store
	topicAV, err := attributevalue.MarshalMap(newTopicItem(topic, s.nextSeq()))
	if err != nil {
		return false, fmt.Errorf("failed to marshal topic: %w", err)
	}
	claimAV, err := attributevalue.MarshalMap(nameClaimItem{
		PK:         claimKey.PK,
		SK:         claimKey.SK,
		EntityType: entityClaim,
		TopicID:    topic.ID.String(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to marshal topic name claim: %w", err)
	}

	if err := t.stagePut(claimKey, claimAV); err != nil {
		return false, err
	}
	if err := t.stagePut(keyItem{PK: graphPK(topic.GraphID), SK: topicSK(topic.ID)}, topicAV); err != nil {
		return false, err
	}
	copied := *topic
	t.topics[stagedName(topic.GraphID, topic.Name)] = &copied
	return true, nil
}

func (t *graphTx) InsertEdge(ctx context.Context, edge *entities.Edge) (bool, error) {
	k := keyItem{PK: graphPK(edge.GraphID), SK: edgeSK(edge.FromTopicID, edge.ToTopicID)}
	if _, ok := t.edges[k.PK+k.SK]; ok {
		return false, nil
	}
	if err := t.requireGraph(ctx, edge.GraphID); err != nil {
		return false, err
	}
	present, err := t.exists(ctx, k)
	if err != nil {
		return false, fmt.Errorf("failed to check edge: %w", err)
	}
	if present {
		return false, nil
	}

	item, err := attributevalue.MarshalMap(newEdgeItem(edge, t.store.nextSeq()))
	if err != nil {
		return false, fmt.Errorf("failed to marshal edge: %w", err)
	}
	if err := t.stagePut(k, item); err != nil {
		return false, err
	}
	t.edges[k.PK+k.SK] = struct{}{}
	return true, nil
}

// TouchGraph stages the timestamp update. It is committed in the final chunk.
func (t *graphTx) TouchGraph(ctx context.Context, graphID valueobjects.GraphID, at time.Time) error {
	if err := t.requireGraph(ctx, graphID); err != nil {
		return err
	}
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("UpdatedAt"), expression.Value(formatTime(at)))).
		WithCondition(expression.Name("PK").AttributeExists()).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}
	t.touch = &types.TransactWriteItem{Update: &types.Update{
		TableName:                 aws.String(t.store.tableName),
		Key:                       key(graphPK(graphID), skMetadata),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}}
	return nil
}

func (t *graphTx) exists(ctx context.Context, k keyItem) (bool, error) {
	out, err := t.store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(t.store.tableName),
		Key:                  key(k.PK, k.SK),
		ConsistentRead:       aws.Bool(true),
		ProjectionExpression: aws.String("PK"),
	})
	if err != nil {
		return false, err
	}
	return out.Item != nil, nil
}

func (t *graphTx) stagePut(k keyItem, item map[string]types.AttributeValue) error {
	notExists, err := conditionNotExists()
	if err != nil {
		return err
	}
	t.writes = append(t.writes, stagedWrite{
		item: types.TransactWriteItem{Put: &types.Put{
			TableName:                aws.String(t.store.tableName),
			Item:                     item,
			ConditionExpression:      notExists.Condition(),
			ExpressionAttributeNames: notExists.Names(),
		}},
		put: &k,
	})
	return nil
}

// commit writes the staged items chunk by chunk. When a chunk fails, every
// item put by the earlier chunks is deleted again.
func (t *graphTx) commit(ctx context.Context) error {
	writes := t.writes
	if t.touch != nil {
		writes = append(writes, stagedWrite{item: *t.touch})
	}
	if len(writes) == 0 {
		return nil
	}

	s := t.store
	var committed []keyItem
	for start := 0; start < len(writes); start += transactWriteLimit {
		end := start + transactWriteLimit
		if end > len(writes) {
			end = len(writes)
		}
		chunk := writes[start:end]

		items := make([]types.TransactWriteItem, 0, len(chunk))
		for _, w := range chunk {
			items = append(items, w.item)
		}
		_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
		if err != nil {
			t.undo(ctx, committed)
			if isConditionFailed(err) {
				return fmt.Errorf("failed to commit graph writes, a concurrent writer got there first: %w", err)
			}
			return fmt.Errorf("failed to commit graph writes: %w", err)
		}
		for _, w := range chunk {
			if w.put != nil {
				committed = append(committed, *w.put)
			}
		}
	}

	s.logger.Debug("Graph transaction committed",
		zap.Int("items", len(writes)),
		zap.Int("chunks", (len(writes)+transactWriteLimit-1)/transactWriteLimit),
	)
	return nil
}

func (t *graphTx) undo(ctx context.Context, keys []keyItem) {
	if len(keys) == 0 {
		return
	}
	if err := t.store.batchDelete(context.WithoutCancel(ctx), keys); err != nil {
		t.store.logger.Error("Failed to roll back partial graph commit",
			zap.Int("items", len(keys)),
			zap.Error(err),
		)
		return
	}
	t.store.logger.Warn("Rolled back partial graph commit", zap.Int("items", len(keys)))
}
