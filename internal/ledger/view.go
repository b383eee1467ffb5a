package ledger

import (
	"bilancio/internal/core"
)

// Query is the set of view parameters chosen by the user.
type Query struct {
	Month  string  `json:"month"`
	Filter Filter  `json:"filter"`
	Sort   SortKey `json:"sort"`
}

// View is everything a month screen shows.
type View struct {
	Month string `json:"month"`
	// Prev and Next are the neighbouring months, empty when Month is not
	// a valid YYYY-MM.
	Prev       string        `json:"prev"`
	Next       string        `json:"next"`
	Records    []core.Record `json:"records"`
	Summary    Summary       `json:"summary"`
	ByCategory []Bucket      `json:"by_category"`
	ByDay      []Bucket      `json:"by_day"`
}

// Run derives the view of l for q. The table shows the filtered and sorted
// rows; totals and charts describe the whole month regardless of filters.
func Run(l Ledger, q Query) View {
	scoped := ScopeMonth(l.Records, q.Month)
	prev, _ := core.ShiftMonth(q.Month, -1)
	next, _ := core.ShiftMonth(q.Month, 1)
	return View{
		Month:      q.Month,
		Prev:       prev,
		Next:       next,
		Records:    Sort(q.Filter.Apply(scoped), q.Sort),
		Summary:    Summarize(scoped),
		ByCategory: CategoryTotals(scoped),
		ByDay:      DailyTotals(scoped),
	}
}
