package genome_test

import (
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hicgenome/genome"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestSetEnzyme(t *testing.T) {
	g, cleanup := newTestGenome(t, true)
	defer cleanup()
	ctx := vcontext.Background()

	expect.False(t, g.HasEnzyme())
	assert.NoError(t, g.SetEnzyme(ctx, "HindIII"))
	expect.True(t, g.HasEnzyme())
	r := g.Restriction
	expect.EQ(t, r.EnzymeName, "HindIII")
	expect.EQ(t, r.Rsites, [][]int64{
		{1001, 20001, 30001, 49950},
		{49950},
		{101, 24950},
		{49941, 49950},
	})
	expect.EQ(t, r.RfragMids, [][]int64{
		{500, 10501, 25001, 39975},
		{24975},
		{50, 12525},
		{24970, 49945},
	})
	for c := range r.Rsites {
		expect.EQ(t, len(r.Rsites[c]), len(r.RfragMids[c]))
	}
	expect.EQ(t, r.RfragMidIDs, []int64{500, 10501, 25001, 39975, 75925, 101950, 114425, 177820, 202795})
	expect.EQ(t, r.RsiteIDs, []int64{1001, 20001, 30001, 49950, 100900, 102001, 126850, 202791, 202800})
	expect.EQ(t, r.RsiteChrms, []int64{0, 0, 0, 0, 1, 2, 2, 3, 3})
	expect.EQ(t, r.NumFragments(), 9)
	for i := 1; i < len(r.RfragMidIDs); i++ {
		expect.True(t, r.RfragMidIDs[i-1] < r.RfragMidIDs[i])
	}

	// With no sites, every chromosome is a single fragment.
	assert.NoError(t, g.SetEnzyme(ctx, "NotI"))
	expect.EQ(t, g.Restriction.Rsites, [][]int64{{49950}, {49950}, {24950}, {49950}})
	expect.EQ(t, g.Restriction.RfragMids, [][]int64{{24975}, {24975}, {12475}, {24975}})

	err := g.SetEnzyme(ctx, "HindII")
	expect.True(t, genome.IsConfigurationError(err), "%v", err)
	expect.EQ(t, g.Restriction.EnzymeName, "NotI")
}

func TestFragmentDistance(t *testing.T) {
	g, cleanup := newTestGenome(t, true)
	defer cleanup()
	ctx := vcontext.Background()

	// The enzyme is set on first use.
	d, err := g.FragmentDistance(ctx, "HindIII",
		[]int64{500, 500, 39975, 101950, 202795},
		[]int64{39975, 75925, 500, 114425, 202795})
	assert.NoError(t, err)
	expect.True(t, g.HasEnzyme())
	expect.EQ(t, d, []int64{3, genome.FarDistance, 3, 1, 0})

	mids := g.Restriction.RfragMidIDs
	for _, a := range mids {
		for _, b := range mids {
			ab, err := g.FragmentDistance(ctx, "HindIII", []int64{a}, []int64{b})
			assert.NoError(t, err)
			ba, err := g.FragmentDistance(ctx, "HindIII", []int64{b}, []int64{a})
			assert.NoError(t, err)
			expect.EQ(t, ab, ba)
			ca, _ := g.Decode(a)
			cb, _ := g.Decode(b)
			if ca != cb {
				expect.EQ(t, ab[0], int64(genome.FarDistance))
			}
		}
	}

	// Ids between midpoints take their insertion rank.
	d, err = g.FragmentDistance(ctx, "HindIII", []int64{501}, []int64{39975})
	assert.NoError(t, err)
	expect.EQ(t, d, []int64{2})

	_, err = g.FragmentDistance(ctx, "HindIII", []int64{1}, nil)
	expect.True(t, genome.IsConfigurationError(err))
}

func TestPairsLessThanDistance(t *testing.T) {
	g, cleanup := newTestGenome(t, true)
	defer cleanup()
	ctx := vcontext.Background()

	b := []int64{500, 25001, 39975, 75925}
	pa, pb, err := g.PairsLessThanDistance(ctx, "HindIII", []int64{10501}, b, 2)
	assert.NoError(t, err)
	expect.EQ(t, pa, []int64{10501, 10501, 10501})
	expect.EQ(t, pb, []int64{500, 25001, 39975})

	pa, pb, err = g.PairsLessThanDistance(ctx, "HindIII", []int64{10501}, b, 1)
	assert.NoError(t, err)
	expect.EQ(t, pa, []int64{10501, 10501})
	expect.EQ(t, pb, []int64{500, 25001})

	// Fragments at either end of the genome.
	pa, pb, err = g.PairsLessThanDistance(ctx, "HindIII", []int64{500, 202795}, []int64{500, 10501, 177820, 202795}, 1)
	assert.NoError(t, err)
	expect.EQ(t, pa, []int64{500, 202795})
	expect.EQ(t, pb, []int64{10501, 177820})

	pa, _, err = g.PairsLessThanDistance(ctx, "HindIII", []int64{10501}, b, 0)
	assert.NoError(t, err)
	expect.EQ(t, len(pa), 0)

	_, _, err = g.PairsLessThanDistance(ctx, "HindIII", nil, nil, -1)
	expect.True(t, genome.IsConfigurationError(err))
}
