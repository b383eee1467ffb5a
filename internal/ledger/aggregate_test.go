package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"bilancio/internal/core"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSummarizeMonth(t *testing.T) {
	records := []core.Record{
		{ID: "1", Date: "2024-03-05", Amount: dec("20"), Kind: core.KindExpense, Category: "Food"},
		{ID: "2", Date: "2024-03-02", Amount: dec("50"), Kind: core.KindIncome},
	}
	s := Summarize(ScopeMonth(records, "2024-03"))

	assert.True(t, s.TotalIncome.Equal(dec("50")))
	assert.True(t, s.TotalExpense.Equal(dec("20")))
	assert.True(t, s.Net.Equal(dec("30")))
	assert.Equal(t, "Food", s.TopCategory)
	assert.True(t, s.Positive)
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 1, s.ExpenseCount)
	assert.Equal(t, 1, s.IncomeCount)
}

func TestDailyTotalsOrderedByDay(t *testing.T) {
	records := []core.Record{
		{ID: "1", Date: "2024-03-05", Amount: dec("20"), Kind: core.KindExpense},
		{ID: "2", Date: "2024-03-02", Amount: dec("10"), Kind: core.KindExpense},
	}
	got := DailyTotals(records)

	assert.Len(t, got, 2)
	assert.Equal(t, "02", got[0].Key)
	assert.True(t, got[0].Value.Equal(dec("10")))
	assert.Equal(t, "05", got[1].Key)
	assert.True(t, got[1].Value.Equal(dec("20")))
}

func TestDailyTotalsUnknownDayLast(t *testing.T) {
	records := []core.Record{
		{ID: "1", Date: "", Amount: dec("1"), Kind: core.KindExpense},
		{ID: "2", Date: "2024-03-1x", Amount: dec("2"), Kind: core.KindExpense},
		{ID: "3", Date: "2024-03-31", Amount: dec("3"), Kind: core.KindExpense},
		{ID: "4", Date: "2024-03-09", Amount: dec("4"), Kind: core.KindExpense},
		{ID: "5", Date: "2024-03-10", Amount: dec("5"), Kind: core.KindIncome},
	}
	got := DailyTotals(records)

	keys := make([]string, len(got))
	for i, b := range got {
		keys[i] = b.Key
	}
	assert.Equal(t, []string{"09", "31", UnknownDay}, keys)
	assert.True(t, got[2].Value.Equal(dec("3")))
}

func TestCategoryTotalsFirstSeenOrder(t *testing.T) {
	got := CategoryTotals(ScopeMonth(sample(), "2024-03"))

	keys := make([]string, len(got))
	for i, b := range got {
		keys[i] = b.Key
	}
	assert.Equal(t, []string{"Food", "Transport", "Groceries"}, keys)
	assert.True(t, got[0].Value.Equal(dec("29")))
}

func TestCategoryTotalsSumToTotalExpense(t *testing.T) {
	records := sample()
	sum := decimal.Zero
	for _, b := range CategoryTotals(records) {
		sum = sum.Add(b.Value)
	}
	assert.True(t, sum.Equal(Summarize(records).TotalExpense))
}

func TestTopCategoryTieGoesToFirstSeen(t *testing.T) {
	records := []core.Record{
		{Kind: core.KindExpense, Category: "Rent", Amount: dec("10")},
		{Kind: core.KindExpense, Category: "Bills", Amount: dec("4")},
		{Kind: core.KindExpense, Category: "Bills", Amount: dec("6")},
	}
	top, ok := TopCategory(records)
	assert.True(t, ok)
	assert.Equal(t, "Rent", top)
}

func TestTopCategoryNone(t *testing.T) {
	records := []core.Record{{Kind: core.KindIncome, Category: "Other", Amount: dec("10")}}
	_, ok := TopCategory(records)
	assert.False(t, ok)
	assert.Equal(t, NoCategory, Summarize(records).TopCategory)
	assert.Equal(t, NoCategory, Summarize(nil).TopCategory)
}

func TestSummaryOverspent(t *testing.T) {
	records := []core.Record{
		{Kind: core.KindExpense, Amount: dec("10.10")},
		{Kind: core.KindIncome, Amount: dec("10")},
	}
	s := Summarize(records)
	assert.True(t, s.Net.Equal(dec("-0.1")))
	assert.False(t, s.Positive)
}

func TestAggregatesIdempotent(t *testing.T) {
	records := sample()
	assert.Equal(t, Summarize(records), Summarize(records))
	assert.Equal(t, CategoryTotals(records), CategoryTotals(records))
	assert.Equal(t, DailyTotals(records), DailyTotals(records))
}

func TestAggregatesStableOnOwnOutput(t *testing.T) {
	once := ScopeMonth(sample(), "2024-03")
	twice := ScopeMonth(once, "2024-03")
	assert.Equal(t, ids(once), ids(twice))
	assert.Equal(t, Summarize(once), Summarize(twice))
	assert.Equal(t, CategoryTotals(once), CategoryTotals(twice))

	filters := []Filter{
		{Category: "Food"},
		{Query: "pizza", AmountMin: "5"},
		{DateFrom: "2024-03-02", DateTo: "2024-03-20", Method: "Cash"},
		{AmountMax: "1e40"},
	}
	for _, f := range filters {
		once := f.Apply(sample())
		twice := f.Apply(once)
		assert.Equal(t, ids(once), ids(twice), "filter %+v", f)
		assert.Equal(t, Summarize(once), Summarize(twice), "filter %+v", f)
		assert.Equal(t, CategoryTotals(once), CategoryTotals(twice), "filter %+v", f)
	}
}
