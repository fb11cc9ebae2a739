package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountIDBuilders(t *testing.T) {
	assert.Equal(t, "BUSINESS_TREASURY:biz-1", TreasuryAccountID("biz-1"))
	assert.Equal(t, "AGENT_FLOAT:biz-1:agent-7", AgentAccountID("biz-1", "agent-7"))
	assert.Equal(t, "CLEARING_PAYOUTS:biz-1", ClearingAccountID("biz-1"))
	assert.Equal(t, "OPENING_BALANCE:biz-1", OpeningBalanceAccountID("biz-1"))
}

func TestNewAccount(t *testing.T) {
	acc := NewAccount("biz-1", AgentAccountID("biz-1", "agent-7"), "agent-7", "GBP", AccountTypeAgentFloat)

	assert.Equal(t, "biz-1", acc.BusinessID)
	assert.Equal(t, "AGENT_FLOAT:biz-1:agent-7", acc.AccountID)
	assert.Equal(t, "agent-7", acc.OwnerID)
	assert.Equal(t, AccountTypeAgentFloat, acc.Type)
	assert.Equal(t, "GBP", acc.Currency)
	assert.Equal(t, "0.00", acc.Settled)
	assert.Equal(t, "0.00", acc.Available)
	assert.Equal(t, int64(0), acc.Version)
	assert.False(t, acc.CreatedAt.IsZero())
}
