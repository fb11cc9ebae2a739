package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/agentfloat-wallet-ledger/internal/domain/wallet"
)

// Documents carry hex object ids as string _id values, so keyset pagination
// compares cursors lexicographically: hex object ids are fixed-length and
// time-prefixed, which preserves insertion order.

func sortValue(sort wallet.SortDirection) int {
	if sort == wallet.SortAsc {
		return 1
	}
	return -1
}

// applyCursor adds the keyset condition for an `after` cursor to the filter.
// Descending pages walk _id < after, ascending pages _id > after.
func applyCursor(filter bson.M, after string, sort wallet.SortDirection) {
	if after == "" {
		return
	}
	if sort == wallet.SortAsc {
		filter["_id"] = bson.M{"$gt": after}
		return
	}
	filter["_id"] = bson.M{"$lt": after}
}

// nextCursor returns the cursor for the following page, or "" when the
// current page was not full (no more results).
func nextCursor(count, limit int, lastID string) string {
	if limit > 0 && count == limit {
		return lastID
	}
	return ""
}

// applyTimeRange adds a [from, to) window on the given field when either
// bound is set.
func applyTimeRange(filter bson.M, field string, from, to *time.Time) {
	cond := bson.M{}
	if from != nil {
		cond["$gte"] = *from
	}
	if to != nil {
		cond["$lt"] = *to
	}
	if len(cond) > 0 {
		filter[field] = cond
	}
}
