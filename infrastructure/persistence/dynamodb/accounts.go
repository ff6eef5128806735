package dynamodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"pathfinder-backend/domain/core/entities"
	"pathfinder-backend/domain/core/valueobjects"
)

// CreateUser writes the profile with its username and email claims in one
// transaction; a taken claim cancels all three.
func (s *Store) CreateUser(ctx context.Context, user *entities.User) error {
	profile, err := attributevalue.MarshalMap(userItem{
		PK:           userPK(user.ID),
		SK:           skProfile,
		EntityType:   entityUser,
		UserID:       user.ID.String(),
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    formatTime(user.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	usernameClaim, err := attributevalue.MarshalMap(userClaimItem{PK: usernamePK(user.Username), SK: skClaim, UserID: user.ID.String()})
	if err != nil {
		return fmt.Errorf("failed to marshal username claim: %w", err)
	}
	emailClaim, err := attributevalue.MarshalMap(userClaimItem{PK: emailPK(user.Email), SK: skClaim, UserID: user.ID.String()})
	if err != nil {
		return fmt.Errorf("failed to marshal email claim: %w", err)
	}

	cond, err := conditionNotExists()
	if err != nil {
		return err
	}
	put := func(item map[string]types.AttributeValue) types.TransactWriteItem {
		return types.TransactWriteItem{Put: &types.Put{
			TableName:                aws.String(s.tableName),
			Item:                     item,
			ConditionExpression:      cond.Condition(),
			ExpressionAttributeNames: cond.Names(),
		}}
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{put(profile), put(usernameClaim), put(emailClaim)},
	})
	if err != nil {
		if isConditionFailed(err) {
			return entities.ErrDuplicate
		}
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id valueobjects.UserID) (*entities.User, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       key(userPK(id), skProfile),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if result.Item == nil {
		return nil, entities.ErrUserNotFound
	}
	var item userItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return item.toEntity(), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       key(usernamePK(strings.TrimSpace(username)), skClaim),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get username claim: %w", err)
	}
	if result.Item == nil {
		return nil, entities.ErrUserNotFound
	}
	var claim userClaimItem
	if err := attributevalue.UnmarshalMap(result.Item, &claim); err != nil {
		return nil, fmt.Errorf("failed to unmarshal username claim: %w", err)
	}
	return s.GetUser(ctx, valueobjects.UserID(claim.UserID))
}

func (s *Store) CreateUpload(ctx context.Context, upload *entities.Upload) error {
	item := uploadItem{
		PK:          uploadPK(upload.ID),
		SK:          skMetadata,
		EntityType:  entityUpload,
		UploadID:    upload.ID.String(),
		OwnerID:     upload.OwnerID.String(),
		GraphID:     upload.GraphID.String(),
		Title:       upload.Title,
		FilePath:    upload.FilePath,
		ContentType: upload.ContentType,
		Text:        upload.Text,
		UploadedAt:  formatTime(upload.UploadedAt),
	}
	if upload.IsAttached() {
		item.GSI1PK = graphUploadsGSI(upload.GraphID)
		item.GSI1SK = uploadPK(upload.ID)
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal upload: %w", err)
	}
	if err := s.putIfAbsent(ctx, av); err != nil {
		if isConditionFailed(err) {
			return entities.ErrDuplicate
		}
		return fmt.Errorf("failed to save upload: %w", err)
	}
	return nil
}

func (s *Store) GetUpload(ctx context.Context, id valueobjects.UploadID) (*entities.Upload, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       key(uploadPK(id), skMetadata),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get upload: %w", err)
	}
	if result.Item == nil {
		return nil, entities.ErrUploadNotFound
	}
	var item uploadItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal upload: %w", err)
	}
	return item.toEntity(), nil
}

func (s *Store) AttachUpload(ctx context.Context, id valueobjects.UploadID, graphID valueobjects.GraphID) error {
	if _, err := s.GetGraph(ctx, graphID); err != nil {
		return err
	}

	expr, err := expression.NewBuilder().
		WithUpdate(expression.
			Set(expression.Name("GraphID"), expression.Value(graphID.String())).
			Set(expression.Name("GSI1PK"), expression.Value(graphUploadsGSI(graphID))).
			Set(expression.Name("GSI1SK"), expression.Value(uploadPK(id)))).
		WithCondition(expression.Name("PK").AttributeExists()).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       key(uploadPK(id), skMetadata),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return entities.ErrUploadNotFound
		}
		return fmt.Errorf("failed to attach upload: %w", err)
	}
	return nil
}

// graphUploadKeys lists the uploads attached to a graph. The index is
// eventually consistent, so an upload attached a moment ago can be missed.
func (s *Store) graphUploadKeys(ctx context.Context, graphID valueobjects.GraphID) ([]keyItem, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("GSI1PK").Equal(expression.Value(graphUploadsGSI(graphID)))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	var keys []keyItem
	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 aws.String(gsi1Name),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query graph uploads: %w", err)
		}
		var batch []keyItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal upload keys: %w", err)
		}
		keys = append(keys, batch...)
	}
	return keys, nil
}
