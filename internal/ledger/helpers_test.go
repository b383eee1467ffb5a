// Tests in this package assert with testify's assert and require, like the
// codec package. The service, transport and storage packages use plain
// testing with t.Fatalf.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

type seqGen struct {
	n     int
	today string
}

func (g *seqGen) NewID() string {
	g.n++
	return fmt.Sprintf("gen-%d", g.n)
}

func (g *seqGen) Today() string {
	if g.today == "" {
		return "2024-03-15"
	}
	return g.today
}

func rec(id string, kind core.Kind, title, amount, category, method, date string) core.Record {
	return core.Record{
		ID:       id,
		Kind:     kind,
		Title:    title,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Method:   method,
		Date:     date,
	}
}

func ids(records []core.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

// sample is a small March/April ledger used across tests.
func sample() []core.Record {
	return []core.Record{
		rec("a", core.KindExpense, "Pizza night", "20", "Food", "Card", "2024-03-05"),
		rec("b", core.KindIncome, "Salary", "50", "Other", "Bank Transfer", "2024-03-02"),
		rec("c", core.KindExpense, "Bus ticket", "2.5", "Transport", "Cash", "2024-03-02"),
		rec("d", core.KindExpense, "Groceries run", "35.10", "Groceries", "Card", "2024-03-20"),
		rec("e", core.KindExpense, "Cinema", "12", "Entertainment", "Online", "2024-04-01"),
		rec("f", core.KindExpense, "Pizza lunch", "9", "Food", "Cash", "2024-03-20"),
	}
}
