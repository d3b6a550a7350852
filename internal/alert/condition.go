// Package alert evaluates price alerts and runs the periodic scan that triggers them.
package alert

import (
	"errors"
	"fmt"

	"findash/internal/models"

	"github.com/shopspring/decimal"
)

// ErrInvalidCondition is returned when an alert lacks the fields its type requires.
var ErrInvalidCondition = errors.New("invalid alert condition")

var hundred = decimal.NewFromInt(100)

// Condition is one of PriceUp, PriceDown or PercentChange.
type Condition interface {
	condition()
}

// PriceUp fires when the price reaches or exceeds Target.
type PriceUp struct {
	Target decimal.Decimal
}

// PriceDown fires when the price reaches or falls below Target.
type PriceDown struct {
	Target decimal.Decimal
}

// PercentChange fires when the price has moved at least Threshold percent away from
// Reference, in either direction.
type PercentChange struct {
	Reference decimal.Decimal
	Threshold decimal.Decimal
}

func (PriceUp) condition()       {}
func (PriceDown) condition()     {}
func (PercentChange) condition() {}

// ConditionOf builds the condition stored on an alert row.
func ConditionOf(a models.Alert) (Condition, error) {
	switch a.AlertType {
	case models.AlertPriceUp:
		if !a.TargetPrice.Valid {
			return nil, fmt.Errorf("%w: %s without target price", ErrInvalidCondition, a.AlertType)
		}
		return PriceUp{Target: a.TargetPrice.Decimal}, nil
	case models.AlertPriceDown:
		if !a.TargetPrice.Valid {
			return nil, fmt.Errorf("%w: %s without target price", ErrInvalidCondition, a.AlertType)
		}
		return PriceDown{Target: a.TargetPrice.Decimal}, nil
	case models.AlertPercentChange:
		if !a.PercentChange.Valid || !a.ReferencePrice.Valid {
			return nil, fmt.Errorf("%w: %s needs percent change and reference price", ErrInvalidCondition, a.AlertType)
		}
		return PercentChange{Reference: a.ReferencePrice.Decimal, Threshold: a.PercentChange.Decimal}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidCondition, a.AlertType)
	}
}

// Evaluate reports whether price satisfies the condition. Bounds are inclusive.
// A PercentChange with a zero reference never fires.
func Evaluate(c Condition, price decimal.Decimal) bool {
	switch c := c.(type) {
	case PriceUp:
		return price.GreaterThanOrEqual(c.Target)
	case PriceDown:
		return price.LessThanOrEqual(c.Target)
	case PercentChange:
		if c.Reference.IsZero() {
			return false
		}
		moved := price.Sub(c.Reference).Div(c.Reference).Mul(hundred).Abs()
		return moved.GreaterThanOrEqual(c.Threshold)
	default:
		return false
	}
}
