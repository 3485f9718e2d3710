package fmap_test

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/grailbio/hicgenome/fmap"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	for _, parallelism := range []int{0, 1, 3, 100} {
		var calls int32
		out := make([]int, 50)
		errs, err := fmap.Map(len(out), parallelism, func(i int) error {
			atomic.AddInt32(&calls, 1)
			out[i] = i * i
			return nil
		})
		assert.NoError(t, err)
		expect.EQ(t, int(calls), 50)
		for i := range out {
			expect.EQ(t, out[i], i*i)
			expect.Nil(t, errs[i])
		}
	}
	errs, err := fmap.Map(0, 4, func(int) error { panic("unreachable") })
	assert.NoError(t, err)
	expect.EQ(t, len(errs), 0)
}

func TestMapIsolatesFailures(t *testing.T) {
	out := make([]int, 10)
	errs, err := fmap.Map(len(out), 2, func(i int) error {
		switch i {
		case 3:
			return fmt.Errorf("item %d failed", i)
		case 7:
			panic("boom")
		}
		out[i] = 1
		return nil
	})
	require.Error(t, err)
	for i := range out {
		switch i {
		case 3:
			require.EqualError(t, errs[i], "item 3 failed")
		case 7:
			require.Error(t, errs[i])
			require.Contains(t, errs[i].Error(), "panicked: boom")
		default:
			require.NoError(t, errs[i])
			require.Equal(t, 1, out[i])
		}
	}
}
