package game

import (
	"errors"
	"fmt"
)

var ErrInvalidBudgets = errors.New("game: node budget table must be non-empty and strictly increasing")

// DefaultNodeBudgets maps skill level to the search node budget.
var DefaultNodeBudgets = []int{250, 500, 1000, 2000, 4000, 8000, 16000, 32000}

func ValidateBudgets(budgets []int) error {
	if len(budgets) == 0 {
		return ErrInvalidBudgets
	}
	for i, b := range budgets {
		if b <= 0 {
			return fmt.Errorf("%w: level %d has budget %d", ErrInvalidBudgets, i, b)
		}
		if i > 0 && b <= budgets[i-1] {
			return fmt.Errorf("%w: level %d (%d) <= level %d (%d)", ErrInvalidBudgets, i, b, i-1, budgets[i-1])
		}
	}
	return nil
}

// NodeBudget returns the budget for level, clamped into the table.
func NodeBudget(budgets []int, level int) int {
	if len(budgets) == 0 {
		budgets = DefaultNodeBudgets
	}
	if level < 0 {
		level = 0
	}
	if level >= len(budgets) {
		level = len(budgets) - 1
	}
	return budgets[level]
}
