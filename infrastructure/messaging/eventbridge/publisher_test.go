package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pathfinder-backend/domain/core/valueobjects"
	"pathfinder-backend/domain/events"
)

type mockEventBridge struct {
	mock.Mock
}

func (m *mockEventBridge) PutEvents(ctx context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*eventbridge.PutEventsOutput)
	return out, args.Error(1)
}

func newTestPublisher(client PutEventsAPI) *Publisher {
	p := NewPublisher(client, "pathfinder-bus", zap.NewNop())
	p.backoff = time.Millisecond
	return p
}

func graphEvents(n int) []events.DomainEvent {
	out := make([]events.DomainEvent, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, events.NewGraphCreated(valueobjects.NewGraphID(), valueobjects.NewUserID(), "Maths", time.Now()))
	}
	return out
}

func TestPublisher_Publish(t *testing.T) {
	client := new(mockEventBridge)
	publisher := newTestPublisher(client)

	event := events.NewGraphDeleted(valueobjects.NewGraphID(), valueobjects.NewUserID(), time.Now())
	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		if len(in.Entries) != 1 {
			return false
		}
		entry := in.Entries[0]
		var detail map[string]interface{}
		if err := json.Unmarshal([]byte(aws.ToString(entry.Detail)), &detail); err != nil {
			return false
		}
		return aws.ToString(entry.DetailType) == events.TypeGraphDeleted &&
			aws.ToString(entry.Source) == SourceName &&
			aws.ToString(entry.EventBusName) == "pathfinder-bus" &&
			detail["aggregate_id"] == event.GetAggregateID()
	})).Return(&eventbridge.PutEventsOutput{}, nil).Once()

	require.NoError(t, publisher.Publish(context.Background(), event))
	client.AssertExpectations(t)
}

func TestPublisher_BatchesOfTen(t *testing.T) {
	client := new(mockEventBridge)
	publisher := newTestPublisher(client)

	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 10
	})).Return(&eventbridge.PutEventsOutput{}, nil).Twice()
	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 3
	})).Return(&eventbridge.PutEventsOutput{}, nil).Once()

	require.NoError(t, publisher.PublishBatch(context.Background(), graphEvents(23)))
	client.AssertExpectations(t)
}

func TestPublisher_RetriesRejectedEntries(t *testing.T) {
	client := new(mockEventBridge)
	publisher := newTestPublisher(client)

	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 3
	})).Return(&eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries: []types.PutEventsResultEntry{
			{EventId: aws.String("1")},
			{ErrorCode: aws.String("ThrottlingException"), ErrorMessage: aws.String("slow down")},
			{EventId: aws.String("3")},
		},
	}, nil).Once()
	client.On("PutEvents", mock.Anything, mock.MatchedBy(func(in *eventbridge.PutEventsInput) bool {
		return len(in.Entries) == 1
	})).Return(&eventbridge.PutEventsOutput{}, nil).Once()

	require.NoError(t, publisher.PublishBatch(context.Background(), graphEvents(3)))
	client.AssertExpectations(t)
}

func TestPublisher_GivesUp(t *testing.T) {
	client := new(mockEventBridge)
	publisher := newTestPublisher(client)

	client.On("PutEvents", mock.Anything, mock.Anything).Return(&eventbridge.PutEventsOutput{
		FailedEntryCount: 1,
		Entries:          []types.PutEventsResultEntry{{ErrorCode: aws.String("InternalFailure")}},
	}, nil)

	err := publisher.Publish(context.Background(), graphEvents(1)[0])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	client.AssertNumberOfCalls(t, "PutEvents", 3)
}

func TestPublisher_ClientError(t *testing.T) {
	client := new(mockEventBridge)
	publisher := newTestPublisher(client)

	client.On("PutEvents", mock.Anything, mock.Anything).Return(nil, errors.New("no credentials"))

	err := publisher.Publish(context.Background(), graphEvents(1)[0])
	require.Error(t, err)
	client.AssertNumberOfCalls(t, "PutEvents", 1)
}

func TestPublisher_EmptyBatch(t *testing.T) {
	client := new(mockEventBridge)
	require.NoError(t, newTestPublisher(client).PublishBatch(context.Background(), nil))
	client.AssertNotCalled(t, "PutEvents", mock.Anything, mock.Anything)
}
