package ledger

import (
	"slices"
	"strconv"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

const (
	// NoCategory is shown as top category when there is no expense.
	NoCategory = "—"
	// UnknownDay collects expenses whose date has no readable day.
	UnknownDay = "??"
)

// Bucket is one labelled sum, used for both category and day series.
type Bucket struct {
	Key   string          `json:"key"`
	Value decimal.Decimal `json:"value"`
}

// Summary holds the totals shown above the table.
type Summary struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	Net          decimal.Decimal `json:"net"`
	TopCategory  string          `json:"top_category"`
	Count        int             `json:"count"`
	ExpenseCount int             `json:"expense_count"`
	IncomeCount  int             `json:"income_count"`
	// Positive is true when income covers expenses.
	Positive bool `json:"positive"`
}

// Summarize computes the totals of records.
func Summarize(records []core.Record) Summary {
	s := Summary{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		Count:        len(records),
	}
	for _, r := range records {
		switch r.Kind {
		case core.KindIncome:
			s.TotalIncome = s.TotalIncome.Add(r.Amount)
			s.IncomeCount++
		case core.KindExpense:
			s.TotalExpense = s.TotalExpense.Add(r.Amount)
			s.ExpenseCount++
		}
	}
	s.Net = s.TotalIncome.Sub(s.TotalExpense)
	s.Positive = !s.Net.IsNegative()
	s.TopCategory = NoCategory
	if top, ok := TopCategory(records); ok {
		s.TopCategory = top
	}
	return s
}

// CategoryTotals sums expenses per category in first-seen order.
func CategoryTotals(records []core.Record) []Bucket {
	return group(records, func(r core.Record) string { return r.Category })
}

// TopCategory returns the category with the largest expense total. Ties go to
// the category seen first. ok is false when there are no expenses.
func TopCategory(records []core.Record) (string, bool) {
	totals := CategoryTotals(records)
	if len(totals) == 0 {
		return "", false
	}
	top := totals[0]
	for _, b := range totals[1:] {
		if b.Value.GreaterThan(top.Value) {
			top = b
		}
	}
	return top.Key, true
}

// DailyTotals sums expenses per day of month, ordered by day. Records
// without a readable day land in UnknownDay, which always comes last.
func DailyTotals(records []core.Record) []Bucket {
	out := group(records, dayOf)
	slices.SortStableFunc(out, func(a, b Bucket) int {
		return dayRank(a.Key) - dayRank(b.Key)
	})
	return out
}

func group(records []core.Record, key func(core.Record) string) []Bucket {
	out := []Bucket{}
	pos := make(map[string]int)
	for _, r := range records {
		if !r.IsExpense() {
			continue
		}
		k := key(r)
		i, ok := pos[k]
		if !ok {
			i = len(out)
			pos[k] = i
			out = append(out, Bucket{Key: k, Value: decimal.Zero})
		}
		out[i].Value = out[i].Value.Add(r.Amount)
	}
	return out
}

func dayOf(r core.Record) string {
	if len(r.Date) < 10 {
		return UnknownDay
	}
	day := r.Date[8:10]
	for i := 0; i < len(day); i++ {
		if day[i] < '0' || day[i] > '9' {
			return UnknownDay
		}
	}
	return day
}

func dayRank(day string) int {
	n, err := strconv.Atoi(day)
	if err != nil {
		return 1 << 30
	}
	return n
}
