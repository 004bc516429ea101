package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cache-fest/festival-registration/registration"
)

var _ registration.UsedReferenceStore = &DB{}

const usedReferenceEntityName = "UTR"

type usedReferenceDynamo struct {
	PK string
	SK string

	Reference string
	UsedAt    time.Time
}

func usedReferencePK(reference string) string {
	return fmt.Sprintf("%s#%s", usedReferenceEntityName, reference)
}

func usedReferenceKey(reference string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: usedReferencePK(reference)},
		"SK": &types.AttributeValueMemberS{Value: usedReferencePK(reference)},
	}
}

func (d *DB) Contains(ctx context.Context, reference string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.tableName),
		Key:            usedReferenceKey(reference),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return false, registration.NewTimeoutError("Used reference lookup timed out")
		}
		return false, registration.NewFailedToFetchError(fmt.Sprintf("Failed to look up UTR %q", reference), err)
	}

	return len(resp.Item) > 0, nil
}

// Add records the reference with a conditional put, so of two concurrent submissions of one UTR
// only the first is recorded.
func (d *DB) Add(ctx context.Context, reference string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	item, err := attributevalue.MarshalMap(usedReferenceDynamo{
		PK:        usedReferencePK(reference),
		SK:        usedReferencePK(reference),
		Reference: reference,
		UsedAt:    time.Now().UTC(),
	})
	if err != nil {
		return registration.NewFailedToTranslateToDBModelError("Failed to convert used reference to dynamo model", err)
	}

	expr := exprMustBuild(expression.NewBuilder().WithCondition(newEntityConditional()))

	_, err = d.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(d.tableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condCheckFailedErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailedErr) {
			return registration.NewDuplicateReferenceError(reference, err)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return registration.NewTimeoutError("Recording used reference timed out")
		} else {
			return registration.NewFailedToWriteError("Failed PutItem call", err)
		}
	}

	return nil
}

// Remove deletes the reference. Removing a reference that is not recorded is not an error.
func (d *DB) Remove(ctx context.Context, reference string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	_, err := d.dynamoClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key:       usedReferenceKey(reference),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.NewTimeoutError("Releasing used reference timed out")
		}
		return registration.NewFailedToWriteError("Failed DeleteItem call", err)
	}

	return nil
}
