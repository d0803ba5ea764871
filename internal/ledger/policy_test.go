package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPolicyForCoversAllTypes(t *testing.T) {
	for _, typ := range Types() {
		policy, err := PolicyFor(typ)
		require.NoError(t, err)
		require.Equal(t, typ, policy.Type)
		require.NotEmpty(t, policy.Title)
		require.NotEmpty(t, policy.Locations)
	}
}

func TestPolicyForUnknownType(t *testing.T) {
	_, err := PolicyFor("purchase")
	require.Error(t, err)
	var unknown UnknownTransactionTypeError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, TransactionType("purchase"), unknown.Type)

	// Lookup is case-sensitive.
	_, err = PolicyFor("Stock_In")
	require.Error(t, err)
}

func TestPolicyLocationRequirements(t *testing.T) {
	tests := []struct {
		typ    TransactionType
		source bool
		dest   bool
	}{
		{TransactionTypeStockIn, false, true},
		{TransactionTypeStockOut, true, false},
		{TransactionTypeAdjust, false, true},
		{TransactionTypeMove, true, true},
		{TransactionTypeCount, false, true},
	}
	for _, tc := range tests {
		policy, err := PolicyFor(tc.typ)
		require.NoError(t, err)
		require.Equal(t, tc.source, policy.RequiresSource(), "source for %s", tc.typ)
		require.Equal(t, tc.dest, policy.RequiresDestination(), "destination for %s", tc.typ)
	}
}

func TestPolicyQuantityBehavior(t *testing.T) {
	tests := []struct {
		typ      TransactionType
		behavior QuantityBehavior
		checks   bool
	}{
		{TransactionTypeStockIn, BehaviorPositive, false},
		{TransactionTypeStockOut, BehaviorNegative, true},
		{TransactionTypeAdjust, BehaviorAdjustment, false},
		{TransactionTypeMove, BehaviorPositive, true},
		{TransactionTypeCount, BehaviorPositive, false},
	}
	for _, tc := range tests {
		policy, err := PolicyFor(tc.typ)
		require.NoError(t, err)
		require.Equal(t, tc.behavior, policy.Behavior, "behavior for %s", tc.typ)
		require.Equal(t, tc.checks, policy.ChecksAvailability, "availability for %s", tc.typ)
	}
}

func TestPoliciesViewOrderAndRules(t *testing.T) {
	views := Policies()
	require.Len(t, views, 5)
	require.Equal(t, "stock_in", views[0].Type)
	require.Equal(t, "stock_out", views[1].Type)
	require.Equal(t, "adjust", views[2].Type)
	require.Equal(t, "move", views[3].Type)
	require.Equal(t, "count", views[4].Type)

	move := views[3]
	require.Contains(t, move.Rules, "source location required")
	require.Contains(t, move.Rules, "destination location required")
	require.Contains(t, move.Rules, "stock availability checked")
}
