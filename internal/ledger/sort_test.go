package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"bilancio/internal/core"
)

func TestSortKeys(t *testing.T) {
	cases := []struct {
		key  SortKey
		want []string
	}{
		{SortNewest, []string{"e", "d", "f", "a", "b", "c"}},
		{SortOldest, []string{"b", "c", "a", "d", "f", "e"}},
		{SortAmountDesc, []string{"b", "d", "a", "e", "f", "c"}},
		{SortAmountAsc, []string{"c", "f", "e", "a", "d", "b"}},
		{"", []string{"a", "b", "c", "d", "e", "f"}},
		{"alphabetical", []string{"a", "b", "c", "d", "e", "f"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.key), func(t *testing.T) {
			assert.Equal(t, tc.want, ids(Sort(sample(), tc.key)))
		})
	}
}

func TestSortIsStable(t *testing.T) {
	records := []core.Record{
		rec("1", core.KindExpense, "x", "5", "Food", "Cash", "2024-03-02"),
		rec("2", core.KindExpense, "x", "5", "Food", "Cash", "2024-03-02"),
		rec("3", core.KindExpense, "x", "5", "Food", "Cash", "2024-03-02"),
	}
	for _, key := range []SortKey{SortNewest, SortOldest, SortAmountDesc, SortAmountAsc} {
		assert.Equal(t, []string{"1", "2", "3"}, ids(Sort(records, key)), key)
	}
}

func TestSortEmptyDateAndZeroAmount(t *testing.T) {
	records := []core.Record{
		{ID: "nodate", Date: ""},
		rec("dated", core.KindExpense, "x", "1", "Food", "Cash", "2024-03-02"),
	}
	assert.Equal(t, []string{"dated", "nodate"}, ids(Sort(records, SortNewest)))
	assert.Equal(t, []string{"nodate", "dated"}, ids(Sort(records, SortOldest)))
	assert.Equal(t, []string{"nodate", "dated"}, ids(Sort(records, SortAmountAsc)))
}

func TestSortDoesNotMutateInput(t *testing.T) {
	records := sample()
	_ = Sort(records, SortAmountAsc)
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, ids(records))
}

func TestSortIdempotent(t *testing.T) {
	once := Sort(sample(), SortNewest)
	assert.Equal(t, once, Sort(once, SortNewest))
}

func TestSortKeyIsValid(t *testing.T) {
	assert.True(t, SortAmountDesc.IsValid())
	assert.False(t, SortKey("random").IsValid())
}
