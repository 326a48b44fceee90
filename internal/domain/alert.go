package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Condition tells on which side of the target price an alert fires.
type Condition string

const (
	ConditionAbove Condition = "ABOVE"
	ConditionBelow Condition = "BELOW"
)

// ParseCondition normalizes user input into a Condition. Anything other
// than above/below (any case) is rejected.
func ParseCondition(input string) (Condition, bool) {
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case "ABOVE":
		return ConditionAbove, true
	case "BELOW":
		return ConditionBelow, true
	default:
		return "", false
	}
}

type Alert struct {
	ID          string
	UserID      int64
	Symbol      string
	TargetPrice decimal.Decimal
	Condition   Condition
	CreatedAt   time.Time

	// LastQuote is the most recent quote seen for the symbol. Attached
	// opportunistically for display; never used to decide triggering.
	LastQuote *Quote
}

// Triggered reports whether the given price crosses the alert threshold.
// Comparisons are inclusive: landing exactly on the target counts.
func (a Alert) Triggered(price decimal.Decimal) bool {
	cmp := price.Cmp(a.TargetPrice)
	if a.Condition == ConditionBelow {
		return cmp <= 0
	}
	return cmp >= 0
}

// TriggeredAlert is the durable record of a delivered alert notification.
type TriggeredAlert struct {
	ID          uint
	UserID      int64
	Symbol      string
	Condition   Condition
	TargetPrice decimal.Decimal
	FiredPrice  decimal.Decimal
	FiredAt     time.Time
}
