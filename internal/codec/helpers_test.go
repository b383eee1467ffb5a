// Tests in this package assert with testify's assert and require, like the
// ledger package. The service, transport and storage packages use plain
// testing with t.Fatalf.
package codec

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"bilancio/internal/core"
)

type fixedGen struct{ n int }

func (g *fixedGen) NewID() string {
	g.n++
	return fmt.Sprintf("gen-%d", g.n)
}

func (g *fixedGen) Today() string { return "2024-03-15" }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertSameRecords(t *testing.T, want, got []core.Record) {
	t.Helper()
	if !assert.Len(t, got, len(want)) {
		return
	}
	for i := range want {
		w, g := want[i], got[i]
		assert.True(t, w.Amount.Equal(g.Amount), "record %d amount: want %s got %s", i, w.Amount, g.Amount)
		w.Amount, g.Amount = decimal.Zero, decimal.Zero
		assert.Equal(t, w, g, "record %d", i)
	}
}
