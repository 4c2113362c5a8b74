package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/skillsenselab/auth-service/observability"
)

// emailLockPrefix keys the uniqueness item written alongside each user item.
// Holding both writes in one transaction makes email uniqueness a store-level
// guarantee instead of a racy read-then-write check.
const emailLockPrefix = "email#"

// dynamoAPI is the subset of the DynamoDB client used by the store.
type dynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Dynamo is a UserStore backed by a DynamoDB table keyed by userId, with a
// GSI for email point lookups and a GSI for reset-token lookups.
type Dynamo struct {
	client     dynamoAPI
	table      string
	emailIndex string
	resetIndex string
}

// NewDynamo creates a DynamoDB-backed user store.
func NewDynamo(client dynamoAPI, cfg Config) *Dynamo {
	cfg.ApplyDefaults()
	return &Dynamo{
		client:     client,
		table:      cfg.Table,
		emailIndex: cfg.EmailIndex,
		resetIndex: cfg.ResetTokenIndex,
	}
}

// userItem is the DynamoDB representation of a User. Timestamps are RFC3339
// strings except the reset expiry, which is epoch seconds so the redemption
// condition expression can compare it numerically.
type userItem struct {
	UserID           string  `dynamodbav:"userId"`
	Email            string  `dynamodbav:"email"`
	PasswordHash     string  `dynamodbav:"passwordHash"`
	Name             string  `dynamodbav:"name"`
	CreatedAt        string  `dynamodbav:"createdAt"`
	UpdatedAt        string  `dynamodbav:"updatedAt"`
	ResetToken       *string `dynamodbav:"resetToken,omitempty"`
	ResetTokenExpiry *int64  `dynamodbav:"resetTokenExpiry,omitempty"`
}

func (d *Dynamo) GetByID(ctx context.Context, userID string) (*User, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key:       userKey(userID),
	})
	if err != nil {
		return nil, fmt.Errorf("store: get user %s: %w", userID, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	return unmarshalUser(out.Item)
}

func (d *Dynamo) GetByEmail(ctx context.Context, email string) (*User, error) {
	out, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(d.table),
		IndexName:              aws.String(d.emailIndex),
		KeyConditionExpression: aws.String("email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("store: query user by email: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, ErrNotFound
	}
	return unmarshalUser(out.Items[0])
}

// Insert writes the user item and an email-uniqueness item in a single
// transaction; both puts are conditioned on absence. A lost race surfaces as
// a transaction cancellation with a conditional-check failure, translated to
// ErrEmailTaken.
func (d *Dynamo) Insert(ctx context.Context, user *User) error {
	item, err := attributevalue.MarshalMap(toItem(user))
	if err != nil {
		return fmt.Errorf("store: marshal user: %w", err)
	}

	_, err = d.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(d.table),
					Item:                item,
					ConditionExpression: aws.String("attribute_not_exists(userId)"),
				},
			},
			{
				Put: &types.Put{
					TableName: aws.String(d.table),
					Item: map[string]types.AttributeValue{
						"userId": &types.AttributeValueMemberS{Value: emailLockPrefix + user.Email},
						"owner":  &types.AttributeValueMemberS{Value: user.UserID},
					},
					ConditionExpression: aws.String("attribute_not_exists(userId)"),
				},
			},
		},
	})
	if err != nil {
		if isConditionalCancellation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("store: insert user: %w", err)
	}
	return nil
}

// CheckHealth probes the table with a point read on a key that never holds a
// user item. Any response, including an empty one, proves the table is
// reachable.
func (d *Dynamo) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Health{
		Name:    "store",
		Details: map[string]string{"backend": "dynamodb", "table": d.table},
	}
	_, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.table),
		Key:       userKey("health#probe"),
	})
	if err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = err.Error()
		return h
	}
	h.Status = observability.HealthStatusUp
	return h
}

func (d *Dynamo) SetResetToken(ctx context.Context, userID, token string, expiry time.Time) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(d.table),
		Key:                 userKey(userID),
		ConditionExpression: aws.String("attribute_exists(userId)"),
		UpdateExpression:    aws.String("SET resetToken = :token, resetTokenExpiry = :expiry, updatedAt = :updated"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":token":   &types.AttributeValueMemberS{Value: token},
			":expiry":  &types.AttributeValueMemberN{Value: strconv.FormatInt(expiry.Unix(), 10)},
			":updated": &types.AttributeValueMemberS{Value: now},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("store: set reset token: %w", err)
	}
	return nil
}

// RedeemResetToken resolves the token through the reset-token GSI, then
// performs a conditional update that requires the token to still be present
// and unexpired. The condition makes redemption single-use: once the first
// update clears the token, a concurrent second attempt fails its check.
func (d *Dynamo) RedeemResetToken(ctx context.Context, token, newPasswordHash string, now time.Time) (*User, error) {
	out, err := d.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(d.table),
		IndexName:              aws.String(d.resetIndex),
		KeyConditionExpression: aws.String("resetToken = :token"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":token": &types.AttributeValueMemberS{Value: token},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("store: query user by reset token: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, ErrResetTokenInvalid
	}
	user, err := unmarshalUser(out.Items[0])
	if err != nil {
		return nil, err
	}

	updated, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(d.table),
		Key:                 userKey(user.UserID),
		ConditionExpression: aws.String("resetToken = :token AND resetTokenExpiry > :now"),
		UpdateExpression:    aws.String("SET passwordHash = :hash, updatedAt = :updated REMOVE resetToken, resetTokenExpiry"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":token":   &types.AttributeValueMemberS{Value: token},
			":now":     &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
			":hash":    &types.AttributeValueMemberS{Value: newPasswordHash},
			":updated": &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrResetTokenInvalid
		}
		return nil, fmt.Errorf("store: redeem reset token: %w", err)
	}
	return unmarshalUser(updated.Attributes)
}

// --- helpers ---

func userKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
	}
}

func toItem(u *User) userItem {
	item := userItem{
		UserID:       u.UserID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		CreatedAt:    u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    u.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if u.ResetToken != nil {
		item.ResetToken = u.ResetToken
	}
	if u.ResetTokenExpiry != nil {
		epoch := u.ResetTokenExpiry.Unix()
		item.ResetTokenExpiry = &epoch
	}
	return item
}

func unmarshalUser(av map[string]types.AttributeValue) (*User, error) {
	var item userItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return nil, fmt.Errorf("store: unmarshal user: %w", err)
	}

	user := &User{
		UserID:       item.UserID,
		Email:        item.Email,
		PasswordHash: item.PasswordHash,
		Name:         item.Name,
	}
	if t, err := time.Parse(time.RFC3339, item.CreatedAt); err == nil {
		user.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, item.UpdatedAt); err == nil {
		user.UpdatedAt = t
	}
	if item.ResetToken != nil {
		user.ResetToken = item.ResetToken
	}
	if item.ResetTokenExpiry != nil {
		exp := time.Unix(*item.ResetTokenExpiry, 0)
		user.ResetTokenExpiry = &exp
	}
	return user, nil
}

// isConditionalCancellation reports whether a transaction was cancelled
// because one of its condition checks failed.
func isConditionalCancellation(err error) bool {
	var cancelled *types.TransactionCanceledException
	if !errors.As(err, &cancelled) {
		return false
	}
	for _, reason := range cancelled.CancellationReasons {
		if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}
