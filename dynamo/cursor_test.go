package dynamo

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorEncodeAndDecode(t *testing.T) {
	key, err := attributevalue.MarshalMap(struct {
		PK     string
		SK     string
		GSI1PK string
		GSI1SK string
	}{
		PK:     registrationPK("CACHE-20251016093000-AB12Z"),
		SK:     registrationPK("CACHE-20251016093000-AB12Z"),
		GSI1PK: registrationEntityName,
		GSI1SK: registrationGSI1SK(time.Now(), "CACHE-20251016093000-AB12Z"),
	})
	require.NoError(t, err)

	cursor, err := lastEvalKeyToCursor(key)
	require.NoError(t, err)
	assert.NotContains(t, cursor, "+")
	assert.NotContains(t, cursor, "/")

	keyBack, err := cursorToLastEval(cursor)
	require.NoError(t, err)

	require.Equal(t, key, keyBack)
}

func TestCursorToLastEvalRejectsGarbage(t *testing.T) {
	_, err := cursorToLastEval("%%%")
	assert.Error(t, err)

	empty, err := lastEvalKeyToCursor(map[string]types.AttributeValue{})
	require.NoError(t, err)
	_, err = cursorToLastEval(empty)
	assert.Error(t, err)
}

func TestGetKeyFromItem(t *testing.T) {
	item := map[string]types.AttributeValue{
		"PK":       &types.AttributeValueMemberS{Value: "a"},
		"SK":       &types.AttributeValueMemberS{Value: "b"},
		"FullName": &types.AttributeValueMemberS{Value: "Asha Rao"},
	}
	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "x"},
		"SK": &types.AttributeValueMemberS{Value: "y"},
	}

	got := getKeyFromItem(key, item)
	assert.Equal(t, map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "a"},
		"SK": &types.AttributeValueMemberS{Value: "b"},
	}, got)
}

func TestRegistrationGSI1SKOrdersByTime(t *testing.T) {
	earlier := registrationGSI1SK(time.Date(2025, 10, 16, 4, 0, 0, 0, time.UTC), "CACHE-B")
	later := registrationGSI1SK(time.Date(2025, 10, 16, 4, 0, 0, 500, time.UTC), "CACHE-A")
	assert.Less(t, earlier, later)
}
