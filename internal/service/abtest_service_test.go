package service

import (
	"context"
	"testing"

	"procrastinators/internal/models"
	"procrastinators/internal/repository"
	"procrastinators/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequenceRandom replays fixed values.
type sequenceRandom struct {
	values []int
	i      int
}

func (s *sequenceRandom) IntN(n int) int {
	v := s.values[s.i%len(s.values)] % n
	s.i++
	return v
}

func TestABTestService_AssignVariant(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	svc := NewABTestService(repository.NewABTestRepository(db), &sequenceRandom{values: []int{0, 1, 1}})

	var got []models.Variant
	for i := 0; i < 3; i++ {
		v, err := svc.AssignVariant(ctx, Visitor{IP: "203.0.113.9", UserAgent: "curl/8.0"})
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []models.Variant{models.VariantA, models.VariantB, models.VariantB}, got)

	var views []models.ABTestPageView
	require.NoError(t, db.Order("id").Find(&views).Error)
	require.Len(t, views, 3)
	assert.Equal(t, models.VariantA, views[0].Variant)
	require.NotNil(t, views[0].IPAddress)
	assert.Equal(t, "203.0.113.9", *views[0].IPAddress)
	require.NotNil(t, views[0].UserAgent)
	assert.Equal(t, "curl/8.0", *views[0].UserAgent)
}

func TestABTestService_VisitorFields(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	svc := NewABTestService(repository.NewABTestRepository(db), &sequenceRandom{values: []int{0}})

	_, err := svc.AssignVariant(ctx, Visitor{IP: "not-an-ip"})
	require.NoError(t, err)

	var view models.ABTestPageView
	require.NoError(t, db.First(&view).Error)
	assert.Nil(t, view.IPAddress)
	assert.Nil(t, view.UserAgent)
}

func TestABTestService_RecordClick(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	svc := NewABTestService(repository.NewABTestRepository(db), nil)

	totals, err := svc.RecordClick(ctx, "A", Visitor{IP: "::1"})
	require.NoError(t, err)
	assert.Equal(t, models.ClickTotals{A: 1}, totals)

	_, err = svc.RecordClick(ctx, "B", Visitor{})
	require.NoError(t, err)
	totals, err = svc.RecordClick(ctx, "B", Visitor{})
	require.NoError(t, err)
	assert.Equal(t, models.ClickTotals{A: 1, B: 2}, totals)

	for _, bad := range []string{"", "C", "a"} {
		_, err := svc.RecordClick(ctx, bad, Visitor{})
		requireAppErrorCode(t, err, models.CodeValidation)
	}

	var clicks int64
	require.NoError(t, db.Model(&models.ABTestButtonClick{}).Count(&clicks).Error)
	assert.Equal(t, int64(3), clicks)
}

func TestABTestService_DefaultRandomIsBalanced(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	svc := NewABTestService(repository.NewABTestRepository(db), nil)

	counts := map[models.Variant]int{}
	for i := 0; i < 200; i++ {
		v, err := svc.AssignVariant(ctx, Visitor{})
		require.NoError(t, err)
		counts[v]++
	}
	// P(either side < 50 of 200) is far below 1e-12.
	assert.Greater(t, counts[models.VariantA], 50)
	assert.Greater(t, counts[models.VariantB], 50)
}
