package interval_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/grailbio/hicgenome/interval"
	"github.com/grailbio/testutil/expect"
)

func TestSearch(t *testing.T) {
	a := []int64{5, 17, 20, 25, 25, 40}
	tests := []struct {
		x    int64
		want int
	}{
		{0, 0},
		{5, 0},
		{6, 1},
		{17, 1},
		{25, 3},
		{26, 5},
		{40, 5},
		{41, 6},
	}
	for _, tt := range tests {
		expect.EQ(t, interval.Search(a, tt.x), tt.want, tt.x)
		for idx := 0; idx <= tt.want; idx++ {
			expect.EQ(t, interval.FwdSearch(a, tt.x, idx), tt.want, tt.x, idx)
		}
	}
	expect.True(t, interval.Contains(a, 20))
	expect.False(t, interval.Contains(a, 21))
	expect.False(t, interval.Contains(nil, 21))
}

func TestSearchAllMatchesSortSearch(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	a := make([]int64, 1000)
	for i := range a {
		a[i] = r.Int63n(100000)
	}
	sort.Slice(a, func(i, j int) bool { return a[i] < a[j] })
	xs := make([]int64, 500)
	for i := range xs {
		xs[i] = r.Int63n(110000) - 5000
	}
	// Half sorted, half random, to exercise both forward and restart paths.
	sort.Slice(xs[:250], func(i, j int) bool { return xs[i] < xs[j] })
	got := interval.SearchAll(a, xs)
	for i, x := range xs {
		want := sort.Search(len(a), func(j int) bool { return a[j] >= x })
		if got[i] != want {
			t.Fatalf("SearchAll(%d): got %d, want %d", x, got[i], want)
		}
	}
}

func TestGetTokens(t *testing.T) {
	var tokens [4][]byte
	n := interval.GetTokens(tokens[:], []byte("  585\tchr1 121535434  \t124535434\t1270"))
	expect.EQ(t, n, 4)
	expect.EQ(t, string(tokens[0]), "585")
	expect.EQ(t, string(tokens[1]), "chr1")
	expect.EQ(t, string(tokens[3]), "124535434")

	n = interval.GetTokens(tokens[:], []byte("a b"))
	expect.EQ(t, n, 2)
	n = interval.GetTokens(tokens[:], []byte("   "))
	expect.EQ(t, n, 0)
}
