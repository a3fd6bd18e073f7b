package output

import (
	"fmt"
	"unicode/utf8"
)

// TokenBudgetInfo describes how much of an LLM context window a rendered
// report would use.
type TokenBudgetInfo struct {
	Tokens       int
	Budget       int
	BudgetLabel  string
	UsagePercent float64
	Remaining    int
}

// DefaultBudget is the context window size used when none is given.
const DefaultBudget = 128000

// CharsPerToken is the approximate character-to-token ratio for code-heavy
// text.
const CharsPerToken = 4.0

// EstimateTokens returns an approximate token count for text.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(float64(utf8.RuneCountInString(text))/CharsPerToken + 0.5)
}

// FormatTokenCount formats a token count for display. Counts of 1000 and
// more are shown as "X.Xk".
func FormatTokenCount(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("%d", tokens)
	}
	return fmt.Sprintf("%.1fk", float64(tokens)/1000)
}

// TokenBudget estimates the tokens of text against budget, or against
// DefaultBudget when budget is not positive.
func TokenBudget(text string, budget int) TokenBudgetInfo {
	if budget <= 0 {
		budget = DefaultBudget
	}
	tokens := EstimateTokens(text)
	return TokenBudgetInfo{
		Tokens:       tokens,
		Budget:       budget,
		BudgetLabel:  budgetLabel(budget),
		UsagePercent: float64(tokens) / float64(budget) * 100,
		Remaining:    max(budget-tokens, 0),
	}
}

func (i TokenBudgetInfo) String() string {
	return fmt.Sprintf("~%s tokens (%.1f%% of %s)", FormatTokenCount(i.Tokens), i.UsagePercent, i.BudgetLabel)
}

func budgetLabel(budget int) string {
	if budget >= 1000 {
		return fmt.Sprintf("%dk", budget/1000)
	}
	return fmt.Sprintf("%d", budget)
}
