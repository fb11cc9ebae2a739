package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "BIZ-1", "biz-1"},
		{"spaces become dashes", "agent smith", "agent-smith"},
		{"strips unsafe characters", "a/b?c!d", "abcd"},
		{"keeps colons underscores dots", "a:b_c.d", "a:b_c.d"},
		{"trims surrounding whitespace", "  biz  ", "biz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}

func TestNaturalKeyDerive(t *testing.T) {
	pair := NaturalKey{}.Derive("fund", "BIZ-1", "Agent 7")
	assert.Equal(t, "fund:biz-1:agent-7", pair.Idem)
	assert.Equal(t, pair.Idem, pair.Ref)
}

func TestPayloadHashDerive_Deterministic(t *testing.T) {
	a := PayloadHash{}.Derive("hold", "amount", "10.00", "ref", "order-1")
	b := PayloadHash{}.Derive("hold", "amount", "10.00", "ref", "order-1")
	assert.Equal(t, a, b)

	c := PayloadHash{}.Derive("hold", "amount", "10.01", "ref", "order-1")
	assert.NotEqual(t, a.Idem, c.Idem)

	// op prefix + colon + 24 hash chars
	assert.Len(t, a.Idem, len("hold:")+hashLength)
}

func TestForInitZero(t *testing.T) {
	pair := ForInitZero("BIZ-1", "Agent 7")
	assert.Equal(t, "init0:biz-1:agent-7", pair.Idem)
	assert.Equal(t, "account-init:biz-1:agent-7", pair.Ref)
}

func TestForFunding(t *testing.T) {
	withID := ForFunding("biz-1", "agent-7", "REQ-42", "100.00")
	assert.Equal(t, "fund:biz-1:agent-7:req-42", withID.Idem)
	assert.Equal(t, "funding:biz-1:agent-7:req-42", withID.Ref)

	// Without a request id the key falls back to a hash but stays stable
	a := ForFunding("biz-1", "agent-7", "", "100.00")
	b := ForFunding("biz-1", "agent-7", "", "100.00")
	assert.Equal(t, a, b)
	assert.NotEqual(t, withID.Idem, a.Idem)
}

func TestForHold_StableAndAmountSensitive(t *testing.T) {
	a := ForHold("biz-1", "agent-7", "order-1", "10.00")
	b := ForHold("biz-1", "agent-7", "order-1", "10.00")
	c := ForHold("biz-1", "agent-7", "order-1", "20.00")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a.Idem, c.Idem)
}

func TestOperationBuilders(t *testing.T) {
	assert.Equal(t, "cap:biz-1:hold-9", ForCapture("biz-1", "hold-9").Idem)
	assert.Equal(t, "rel:biz-1:hold-9", ForRelease("biz-1", "hold-9").Idem)
	assert.Equal(t, "refund:biz-1:cap-1", ForRefund("biz-1", "cap-1", "").Idem)
	assert.Equal(t, "refund:biz-1:cap-1:dispute", ForRefund("biz-1", "cap-1", "Dispute").Idem)
	assert.Equal(t, "topup:biz-1:t-1", ForTreasuryTopup("biz-1", "T-1").Idem)
	assert.Equal(t, "seed:biz-1", ForTreasurySeed("BIZ-1").Idem)
}
