package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/agentfloat-wallet-ledger/internal/domain/wallet"
)

func TestSortValue(t *testing.T) {
	assert.Equal(t, 1, sortValue(wallet.SortAsc))
	assert.Equal(t, -1, sortValue(wallet.SortDesc))
	assert.Equal(t, -1, sortValue(wallet.SortDirection("")))
}

func TestApplyCursor(t *testing.T) {
	t.Run("empty cursor leaves filter alone", func(t *testing.T) {
		filter := bson.M{"business_id": "biz-1"}
		applyCursor(filter, "", wallet.SortDesc)
		_, ok := filter["_id"]
		assert.False(t, ok)
	})

	t.Run("descending pages walk below the cursor", func(t *testing.T) {
		filter := bson.M{}
		applyCursor(filter, "abc123", wallet.SortDesc)
		assert.Equal(t, bson.M{"$lt": "abc123"}, filter["_id"])
	})

	t.Run("ascending pages walk above the cursor", func(t *testing.T) {
		filter := bson.M{}
		applyCursor(filter, "abc123", wallet.SortAsc)
		assert.Equal(t, bson.M{"$gt": "abc123"}, filter["_id"])
	})
}

func TestNextCursor(t *testing.T) {
	assert.Equal(t, "last", nextCursor(10, 10, "last"))
	assert.Equal(t, "", nextCursor(7, 10, "last"))
	assert.Equal(t, "", nextCursor(0, 10, "last"))
	assert.Equal(t, "", nextCursor(5, 0, "last"))
}

func TestApplyTimeRange(t *testing.T) {
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	t.Run("both bounds", func(t *testing.T) {
		filter := bson.M{}
		applyTimeRange(filter, "created_at", &from, &to)
		assert.Equal(t, bson.M{"$gte": from, "$lt": to}, filter["created_at"])
	})

	t.Run("from only", func(t *testing.T) {
		filter := bson.M{}
		applyTimeRange(filter, "created_at", &from, nil)
		assert.Equal(t, bson.M{"$gte": from}, filter["created_at"])
	})

	t.Run("no bounds no condition", func(t *testing.T) {
		filter := bson.M{}
		applyTimeRange(filter, "created_at", nil, nil)
		_, ok := filter["created_at"]
		assert.False(t, ok)
	})
}
