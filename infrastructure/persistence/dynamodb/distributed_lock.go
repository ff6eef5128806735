package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrLockTimeout is returned when the lock stays held past the wait timeout
var ErrLockTimeout = errors.New("timeout acquiring lock")

// DistributedLock provides distributed locking using DynamoDB conditional writes
type DistributedLock struct {
	client      Client
	tableName   string
	owner       string
	lease       time.Duration
	waitTimeout time.Duration
	logger      *zap.Logger
}

// lockRecord represents a lock record in DynamoDB
type lockRecord struct {
	PK         string `dynamodbav:"PK"`         // LOCK#<resource_name>
	SK         string `dynamodbav:"SK"`         // LOCK
	LockID     string `dynamodbav:"LockID"`     // Unique lock identifier
	Owner      string `dynamodbav:"Owner"`      // Lock owner identifier
	AcquiredAt string `dynamodbav:"AcquiredAt"` // RFC3339 timestamp
	ExpiresAt  int64  `dynamodbav:"ExpiresAt"`  // Unix millis, compared on acquire
	TTL        int64  `dynamodbav:"TTL"`        // Unix seconds for DynamoDB TTL
}

// NewDistributedLock creates a new distributed lock instance. owner names
// this process in lock records; lease bounds how long a crashed holder can
// block others.
func NewDistributedLock(client Client, tableName, owner string, lease, waitTimeout time.Duration, logger *zap.Logger) *DistributedLock {
	if lease <= 0 {
		lease = time.Minute
	}
	if waitTimeout <= 0 {
		waitTimeout = 15 * time.Second
	}
	return &DistributedLock{
		client:      client,
		tableName:   tableName,
		owner:       owner,
		lease:       lease,
		waitTimeout: waitTimeout,
		logger:      logger,
	}
}

// Lock blocks until the resource is acquired, ctx is done or the wait
// timeout passes
func (dl *DistributedLock) Lock(ctx context.Context, resourceName string) (func(), error) {
	deadline := time.Now().Add(dl.waitTimeout)
	retryInterval := 50 * time.Millisecond

	for {
		lockID, err := dl.acquire(ctx, resourceName)
		if err == nil {
			var once sync.Once
			return func() {
				once.Do(func() {
					releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
					defer cancel()
					if err := dl.release(releaseCtx, resourceName, lockID); err != nil {
						dl.logger.Warn("Failed to release lock", zap.String("resource", resourceName), zap.Error(err))
					}
				})
			}, nil
		}
		if !isConditionFailed(err) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, resourceName)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
			if retryInterval < time.Second {
				retryInterval = time.Duration(float64(retryInterval) * 1.5)
			}
		}
	}
}

func (dl *DistributedLock) acquire(ctx context.Context, resourceName string) (string, error) {
	lockID := uuid.New().String()
	now := time.Now()
	expiresAt := now.Add(dl.lease)

	item, err := attributevalue.MarshalMap(lockRecord{
		PK:         "LOCK#" + resourceName,
		SK:         "LOCK",
		LockID:     lockID,
		Owner:      dl.owner,
		AcquiredAt: now.UTC().Format(time.RFC3339),
		ExpiresAt:  expiresAt.UnixMilli(),
		TTL:        expiresAt.Add(time.Hour).Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal lock: %w", err)
	}

	// free, or held by a lease that has run out
	cond := expression.Name("PK").AttributeNotExists().
		Or(expression.Name("ExpiresAt").LessThan(expression.Value(now.UnixMilli())))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return "", fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = dl.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(dl.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			dl.logger.Debug("Lock already held", zap.String("resource", resourceName))
			return "", err
		}
		return "", fmt.Errorf("failed to acquire lock: %w", err)
	}

	dl.logger.Debug("Lock acquired",
		zap.String("resource", resourceName),
		zap.String("lockID", lockID),
		zap.Duration("lease", dl.lease),
	)
	return lockID, nil
}

func (dl *DistributedLock) release(ctx context.Context, resourceName, lockID string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("LockID").Equal(expression.Value(lockID))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = dl.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(dl.tableName),
		Key:                       key("LOCK#"+resourceName, "LOCK"),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			dl.logger.Warn("Lock already released or taken over after lease expiry",
				zap.String("resource", resourceName),
				zap.String("lockID", lockID),
			)
			return nil
		}
		return fmt.Errorf("failed to release lock: %w", err)
	}

	dl.logger.Debug("Lock released", zap.String("resource", resourceName), zap.String("lockID", lockID))
	return nil
}

// OwnerID builds a lock owner name from a host name and process id
func OwnerID(host string, pid int) string {
	return host + ":" + strconv.Itoa(pid)
}
