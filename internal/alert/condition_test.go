package alert

import (
	"testing"

	"findash/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		cond  Condition
		price string
		want  bool
	}{
		{"up at target", PriceUp{Target: dec("100")}, "100", true},
		{"up above target", PriceUp{Target: dec("100")}, "100.01", true},
		{"up below target", PriceUp{Target: dec("100")}, "99.99", false},
		{"down at target", PriceDown{Target: dec("50")}, "50", true},
		{"down below target", PriceDown{Target: dec("50")}, "49.5", true},
		{"down above target", PriceDown{Target: dec("50")}, "50.01", false},
		{"percent up", PercentChange{Reference: dec("100"), Threshold: dec("10")}, "111", true},
		{"percent down", PercentChange{Reference: dec("100"), Threshold: dec("10")}, "89", true},
		{"percent exactly at threshold", PercentChange{Reference: dec("100"), Threshold: dec("10")}, "110", true},
		{"percent inside band", PercentChange{Reference: dec("100"), Threshold: dec("10")}, "95", false},
		{"percent zero reference", PercentChange{Reference: decimal.Zero, Threshold: dec("10")}, "1000", false},
		{"percent zero threshold", PercentChange{Reference: dec("100"), Threshold: decimal.Zero}, "100", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.cond, dec(tt.price)))
		})
	}
}

func TestEvaluate_NilCondition(t *testing.T) {
	assert.False(t, Evaluate(nil, dec("1")))
}

func TestConditionOf(t *testing.T) {
	target := decimal.NewNullDecimal(dec("200"))

	c, err := ConditionOf(models.Alert{AlertType: models.AlertPriceUp, TargetPrice: target})
	require.NoError(t, err)
	assert.Equal(t, PriceUp{Target: dec("200")}, c)

	c, err = ConditionOf(models.Alert{AlertType: models.AlertPriceDown, TargetPrice: target})
	require.NoError(t, err)
	assert.Equal(t, PriceDown{Target: dec("200")}, c)

	c, err = ConditionOf(models.Alert{
		AlertType:      models.AlertPercentChange,
		PercentChange:  decimal.NewNullDecimal(dec("5")),
		ReferencePrice: decimal.NewNullDecimal(dec("150")),
	})
	require.NoError(t, err)
	assert.Equal(t, PercentChange{Reference: dec("150"), Threshold: dec("5")}, c)
}

func TestConditionOf_Invalid(t *testing.T) {
	invalid := []models.Alert{
		{AlertType: models.AlertPriceUp},
		{AlertType: models.AlertPriceDown},
		{AlertType: models.AlertPercentChange, PercentChange: decimal.NewNullDecimal(dec("5"))},
		{AlertType: models.AlertPercentChange, ReferencePrice: decimal.NewNullDecimal(dec("5"))},
		{AlertType: "SIDEWAYS", TargetPrice: decimal.NewNullDecimal(dec("1"))},
	}
	for _, a := range invalid {
		_, err := ConditionOf(a)
		assert.ErrorIs(t, err, ErrInvalidCondition, "type %s", a.AlertType)
	}
}
