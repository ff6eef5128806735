package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
)

// Client is the subset of *dynamodb.Client the store and lock use
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

// Item layout (single table, PK/SK plus GSI1):
//
//	GRAPH#<g>        METADATA            graph; GSI1 OWNER#<u> / <created>#<g>
//	GRAPH#<g>        TOPIC#<t>           topic
//	GRAPH#<g>        TOPICNAME#<name>    name claim -> topic id
//	GRAPH#<g>        EDGE#<from>#<to>    edge
//	USER#<u>         PROFILE             user
//	USERNAME#<name>  CLAIM               username claim -> user id
//	EMAIL#<email>    CLAIM               email claim -> user id
//	UPLOAD#<id>      METADATA            upload; GSI1 GRAPHUPLOADS#<g> / UPLOAD#<id> once attached
//	LOCK#<key>       LOCK                ingestion lock
const (
	gsi1Name = "GSI1"

	skMetadata = "METADATA"
	skProfile  = "PROFILE"
	skClaim    = "CLAIM"

	entityGraph  = "GRAPH"
	entityTopic  = "TOPIC"
	entityClaim  = "TOPICNAME"
	entityEdge   = "EDGE"
	entityUser   = "USER"
	entityUpload = "UPLOAD"
)

// fixed width so GSI sort keys order by time
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func graphPK(id valueobjects.GraphID) string { return "GRAPH#" + id.String() }

func ownerGSI(id valueobjects.UserID) string { return "OWNER#" + id.String() }

func topicSK(id valueobjects.TopicID) string { return "TOPIC#" + id.String() }

func topicNameSK(name string) string { return "TOPICNAME#" + name }

func edgeSK(from, to valueobjects.TopicID) string { return fmt.Sprintf("EDGE#%s#%s", from, to) }

func userPK(id valueobjects.UserID) string { return "USER#" + id.String() }

func usernamePK(name string) string { return "USERNAME#" + name }

func emailPK(email string) string { return "EMAIL#" + email }

func uploadPK(id valueobjects.UploadID) string { return "UPLOAD#" + id.String() }

func graphUploadsGSI(id valueobjects.GraphID) string { return "GRAPHUPLOADS#" + id.String() }

type keyItem struct {
	PK string `dynamodbav:"PK"`
	SK string `dynamodbav:"SK"`
}

type graphItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	GraphID    string `dynamodbav:"GraphID"`
	OwnerID    string `dynamodbav:"OwnerID"`
	Name       string `dynamodbav:"Name"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

func newGraphItem(g *entities.KnowledgeGraph) graphItem {
	created := formatTime(g.CreatedAt)
	return graphItem{
		PK:         graphPK(g.ID),
		SK:         skMetadata,
		GSI1PK:     ownerGSI(g.OwnerID),
		GSI1SK:     created + "#" + g.ID.String(),
		EntityType: entityGraph,
		GraphID:    g.ID.String(),
		OwnerID:    g.OwnerID.String(),
		Name:       g.Name,
		CreatedAt:  created,
		UpdatedAt:  formatTime(g.UpdatedAt),
	}
}

func (i graphItem) toEntity() *entities.KnowledgeGraph {
	return &entities.KnowledgeGraph{
		ID:        valueobjects.GraphID(i.GraphID),
		OwnerID:   valueobjects.UserID(i.OwnerID),
		Name:      i.Name,
		CreatedAt: parseTime(i.CreatedAt),
		UpdatedAt: parseTime(i.UpdatedAt),
	}
}

type topicItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	TopicID     string `dynamodbav:"TopicID"`
	GraphID     string `dynamodbav:"GraphID"`
	Name        string `dynamodbav:"Name"`
	Description string `dynamodbav:"Description,omitempty"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
	Seq         int64  `dynamodbav:"Seq"`
}

func newTopicItem(t *entities.Topic, seq int64) topicItem {
	return topicItem{
		PK:          graphPK(t.GraphID),
		SK:          topicSK(t.ID),
		EntityType:  entityTopic,
		TopicID:     t.ID.String(),
		GraphID:     t.GraphID.String(),
		Name:        t.Name,
		Description: t.Description,
		CreatedAt:   formatTime(t.CreatedAt),
		Seq:         seq,
	}
}

func (i topicItem) toEntity() entities.Topic {
	return entities.Topic{
		ID:          valueobjects.TopicID(i.TopicID),
		GraphID:     valueobjects.GraphID(i.GraphID),
		Name:        i.Name,
		Description: i.Description,
		CreatedAt:   parseTime(i.CreatedAt),
	}
}

type nameClaimItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	TopicID    string `dynamodbav:"TopicID"`
}

type edgeItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	EntityType  string `dynamodbav:"EntityType"`
	EdgeID      string `dynamodbav:"EdgeID"`
	GraphID     string `dynamodbav:"GraphID"`
	FromTopicID string `dynamodbav:"FromTopicID"`
	ToTopicID   string `dynamodbav:"ToTopicID"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
	Seq         int64  `dynamodbav:"Seq"`
}

func newEdgeItem(e *entities.Edge, seq int64) edgeItem {
	return edgeItem{
		PK:          graphPK(e.GraphID),
		SK:          edgeSK(e.FromTopicID, e.ToTopicID),
		EntityType:  entityEdge,
		EdgeID:      e.ID.String(),
		GraphID:     e.GraphID.String(),
		FromTopicID: e.FromTopicID.String(),
		ToTopicID:   e.ToTopicID.String(),
		CreatedAt:   formatTime(e.CreatedAt),
		Seq:         seq,
	}
}

func (i edgeItem) toEntity() entities.Edge {
	return entities.Edge{
		ID:          valueobjects.EdgeID(i.EdgeID),
		GraphID:     valueobjects.GraphID(i.GraphID),
		FromTopicID: valueobjects.TopicID(i.FromTopicID),
		ToTopicID:   valueobjects.TopicID(i.ToTopicID),
		CreatedAt:   parseTime(i.CreatedAt),
	}
}

type userItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	UserID       string `dynamodbav:"UserID"`
	Username     string `dynamodbav:"Username"`
	Email        string `dynamodbav:"Email"`
	PasswordHash string `dynamodbav:"PasswordHash"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
}

func (i userItem) toEntity() *entities.User {
	return &entities.User{
		ID:           valueobjects.UserID(i.UserID),
		Username:     i.Username,
		Email:        i.Email,
		PasswordHash: i.PasswordHash,
		CreatedAt:    parseTime(i.CreatedAt),
	}
}

type userClaimItem struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	UserID string `dynamodbav:"UserID"`
}

type uploadItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	GSI1PK      string `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK      string `dynamodbav:"GSI1SK,omitempty"`
	EntityType  string `dynamodbav:"EntityType"`
	UploadID    string `dynamodbav:"UploadID"`
	OwnerID     string `dynamodbav:"OwnerID"`
	GraphID     string `dynamodbav:"GraphID,omitempty"`
	Title       string `dynamodbav:"Title"`
	FilePath    string `dynamodbav:"FilePath"`
	ContentType string `dynamodbav:"ContentType"`
	Text        string `dynamodbav:"Text"`
	UploadedAt  string `dynamodbav:"UploadedAt"`
}

func (i uploadItem) toEntity() *entities.Upload {
	return &entities.Upload{
		ID:          valueobjects.UploadID(i.UploadID),
		OwnerID:     valueobjects.UserID(i.OwnerID),
		GraphID:     valueobjects.GraphID(i.GraphID),
		Title:       i.Title,
		FilePath:    i.FilePath,
		ContentType: i.ContentType,
		Text:        i.Text,
		UploadedAt:  parseTime(i.UploadedAt),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
