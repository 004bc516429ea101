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
	"github.com/cache-fest/festival-registration/slices"
	"github.com/google/uuid"
)

var _ registration.Repository = &DB{}

type registrationDynamo struct {
	PK     string
	SK     string
	GSI1PK string
	GSI1SK string

	ID                 uuid.UUID
	FullName           string
	Email              string
	Phone              string
	College            string
	RollNo             string
	Section            string
	SelectedEvents     []string
	TotalAmount        int64
	TransactionRef     string
	UpiTxnID           string
	PaidAt             time.Time
	TicketDownloadTime time.Time
	VerificationHash   string
	ProofVerified      bool
}

const (
	registrationEntityName = "REGISTRATION"
	gsiTimeLayout          = "2006-01-02T15:04:05.000000000Z"
)

func registrationPK(transactionRef string) string {
	return fmt.Sprintf("%s#%s", registrationEntityName, transactionRef)
}

// registrationGSI1SK sorts by payment time; the fixed-width layout keeps string order equal to time order.
func registrationGSI1SK(paidAt time.Time, transactionRef string) string {
	return fmt.Sprintf("%s#%s#%s", registrationEntityName, paidAt.UTC().Format(gsiTimeLayout), transactionRef)
}

func registrationToDynamo(reg registration.Registration) registrationDynamo {
	return registrationDynamo{
		PK:                 registrationPK(reg.TransactionRef),
		SK:                 registrationPK(reg.TransactionRef),
		GSI1PK:             registrationEntityName,
		GSI1SK:             registrationGSI1SK(reg.PaidAt, reg.TransactionRef),
		ID:                 reg.ID,
		FullName:           reg.Profile.FullName,
		Email:              reg.Profile.Email,
		Phone:              reg.Profile.Phone,
		College:            reg.Profile.College,
		RollNo:             reg.Profile.RollNo,
		Section:            reg.Profile.Section,
		SelectedEvents:     reg.SelectedEvents,
		TotalAmount:        reg.TotalAmount,
		TransactionRef:     reg.TransactionRef,
		UpiTxnID:           reg.UpiTxnID,
		PaidAt:             reg.PaidAt,
		TicketDownloadTime: reg.TicketDownloadTime,
		VerificationHash:   reg.VerificationHash,
		ProofVerified:      reg.ProofVerified,
	}
}

func dynamoToRegistration(dynReg registrationDynamo) registration.Registration {
	return registration.Registration{
		ID: dynReg.ID,
		Profile: registration.Profile{
			FullName: dynReg.FullName,
			Email:    dynReg.Email,
			Phone:    dynReg.Phone,
			College:  dynReg.College,
			RollNo:   dynReg.RollNo,
			Section:  dynReg.Section,
		},
		SelectedEvents:     dynReg.SelectedEvents,
		TotalAmount:        dynReg.TotalAmount,
		TransactionRef:     dynReg.TransactionRef,
		UpiTxnID:           dynReg.UpiTxnID,
		PaidAt:             dynReg.PaidAt,
		TicketDownloadTime: dynReg.TicketDownloadTime,
		VerificationHash:   dynReg.VerificationHash,
		ProofVerified:      dynReg.ProofVerified,
	}
}

func (d *DB) SaveRegistration(ctx context.Context, reg registration.Registration) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	item, err := attributevalue.MarshalMap(registrationToDynamo(reg))
	if err != nil {
		return registration.NewFailedToTranslateToDBModelError("Failed to translate registration to dynamo model", err)
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
			return registration.NewFailedToWriteError(fmt.Sprintf("Registration %q already exists", reg.TransactionRef), err)
		} else if errors.Is(err, context.DeadlineExceeded) {
			return registration.NewTimeoutError("SaveRegistration timed out")
		} else {
			return registration.NewFailedToWriteError("Failed PutItem call", err)
		}
	}

	return nil
}

func (d *DB) GetRegistration(ctx context.Context, transactionRef string) (registration.Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	resp, err := d.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: registrationPK(transactionRef)},
			"SK": &types.AttributeValueMemberS{Value: registrationPK(transactionRef)},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.Registration{}, registration.NewTimeoutError("GetRegistration timed out")
		}
		return registration.Registration{}, registration.NewFailedToFetchError(fmt.Sprintf("Failed to fetch registration %q", transactionRef), err)
	}

	if len(resp.Item) == 0 {
		return registration.Registration{}, registration.NewRegistrationDoesNotExistsError(fmt.Sprintf("Registration %q not found", transactionRef), nil)
	}

	var dynReg registrationDynamo
	err = attributevalue.UnmarshalMap(resp.Item, &dynReg)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal registration from dynamo: %s", err))
	}

	return dynamoToRegistration(dynReg), nil
}

// ListRegistrations pages through every registration, most recent payment first.
func (d *DB) ListRegistrations(ctx context.Context, limit int32, cursor *string) (registration.ListRegistrationsResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	keyCond := expression.Key("GSI1PK").Equal(expression.Value(registrationEntityName)).
		And(expression.Key("GSI1SK").BeginsWith(registrationEntityName))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build dynamo key expression: %s", err))
	}

	var startKey map[string]types.AttributeValue
	if cursor != nil {
		startKey, err = cursorToLastEval(*cursor)
		if err != nil {
			return registration.ListRegistrationsResponse{}, registration.NewInvalidCursorError("Invalid cursor", err)
		}
	}

	result, err := d.dynamoClient.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(d.tableName),
		IndexName:                 aws.String(gsi1),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		// Fetch 1 more than limit to check if there is another page or not
		Limit:             aws.Int32(limit + 1),
		ExclusiveStartKey: startKey,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return registration.ListRegistrationsResponse{}, registration.NewTimeoutError("ListRegistrations timed out")
		}
		return registration.ListRegistrationsResponse{}, registration.NewFailedToFetchError("Failed to fetch registrations from dynamo", err)
	}

	var dynamoItems []registrationDynamo
	err = attributevalue.UnmarshalListOfMaps(result.Items, &dynamoItems)
	if err != nil {
		panic(fmt.Sprintf("failed to unmarshal dynamo registrations: %s", err))
	}

	hasNextPage := len(dynamoItems) > int(limit)

	var newCursor *string
	if hasNextPage && len(result.LastEvaluatedKey) > 0 {
		// Can't use LastEvalKey directly because we grabbed an extra item to check for next page
		lastItemGivenToUser := result.Items[len(result.Items)-2]
		lastItemKey := getKeyFromItem(result.LastEvaluatedKey, lastItemGivenToUser)
		c, err := lastEvalKeyToCursor(lastItemKey)
		if err != nil {
			panic(fmt.Sprintf("failed to make cursor from lastEvalKey: %s", err))
		}
		newCursor = &c
	}

	return registration.ListRegistrationsResponse{
		Data: slices.Map(dynamoItems, func(v registrationDynamo) registration.Registration {
			return dynamoToRegistration(v)
		})[:min(int(limit), len(dynamoItems))],
		Cursor:      newCursor,
		HasNextPage: hasNextPage,
	}, nil
}
