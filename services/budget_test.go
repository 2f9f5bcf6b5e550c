package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ourlife/backend/models"
)

func TestBudgetService(t *testing.T) {
	db := setupTestDB(t)
	insertUsers(t, db, "alice", "bob")
	budget := NewBudgetService(db)

	line, err := budget.Add(ctx, models.CreateBudgetRequest{User: "alice", Category: "Food", Amount: "300.50", Month: 7, Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, "300.5", line.Amount.String())

	_, err = budget.Add(ctx, models.CreateBudgetRequest{User: "bob", Category: "Fuel", Amount: "80", Month: 7, Year: 2025})
	require.NoError(t, err)
	_, err = budget.Add(ctx, models.CreateBudgetRequest{User: "alice", Category: "Food", Amount: "280", Month: 8, Year: 2025})
	require.NoError(t, err)

	july, err := budget.List(ctx, []string{"alice"}, 7, 2025)
	require.NoError(t, err)
	require.Len(t, july, 1)
	assert.Equal(t, "Food", july[0].Category)

	all, err := budget.List(ctx, []string{"alice", "bob"}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestBudgetService_Validation(t *testing.T) {
	db := setupTestDB(t)
	insertUsers(t, db, "alice")
	budget := NewBudgetService(db)

	tests := []struct {
		req   models.CreateBudgetRequest
		field string
	}{
		{models.CreateBudgetRequest{User: "alice", Amount: "1", Month: 1, Year: 2025}, "category"},
		{models.CreateBudgetRequest{User: "alice", Category: "x", Amount: "-1", Month: 1, Year: 2025}, "amount"},
		{models.CreateBudgetRequest{User: "alice", Category: "x", Amount: "1e50000000", Month: 1, Year: 2025}, "amount"},
		{models.CreateBudgetRequest{User: "alice", Category: "x", Amount: "2000000000000", Month: 1, Year: 2025}, "amount"},
		{models.CreateBudgetRequest{User: "alice", Category: "x", Amount: "1.23456", Month: 1, Year: 2025}, "amount"},
		{models.CreateBudgetRequest{User: "alice", Category: "x", Amount: "1", Month: 13, Year: 2025}, "month"},
		{models.CreateBudgetRequest{User: "alice", Category: "x", Amount: "1", Month: 1}, "year"},
	}
	for _, tc := range tests {
		_, err := budget.Add(ctx, tc.req)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, tc.field, verr.Field)
	}

	_, err := budget.Add(ctx, models.CreateBudgetRequest{User: "ghost", Category: "x", Amount: "1", Month: 1, Year: 2025})
	assert.ErrorIs(t, err, ErrNotFound)
}
