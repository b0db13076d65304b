package stream

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMapAppliesFunction(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan int, 3)
	in <- 1
	in <- 2
	in <- 3
	close(in)

	pool := NewPool(2)
	out := Map(ctx, pool, in, func(i int) int { return i * 10 })

	var got []int
	for v := range out {
		got = append(got, v)
	}
	sort.Ints(got)
	require.Equal(t, []int{10, 20, 30}, got)
}

func TestFilterDropsItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan int, 4)
	in <- 1
	in <- 2
	in <- 3
	in <- 4
	close(in)

	out := Filter(ctx, in, func(i int) bool { return i%2 == 0 })

	var got []int
	for v := range out {
		got = append(got, v)
	}
	sort.Ints(got)
	require.Equal(t, []int{2, 4}, got)
}

func TestFlatMapExpandsItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan int, 2)
	in <- 1
	in <- 2
	close(in)

	pool := NewPool(2)
	out := FlatMap(ctx, pool, in, func(i int) []int { return []int{i, i} })

	var got []int
	for v := range out {
		got = append(got, v)
	}
	sort.Ints(got)
	require.Equal(t, []int{1, 1, 2, 2}, got)
}

func TestGroupByPartitionsItems(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6}
	groups := GroupBy(items, func(i int) int { return i % 2 })
	require.ElementsMatch(t, []int{2, 4, 6}, groups[0])
	require.ElementsMatch(t, []int{1, 3, 5}, groups[1])
}

func TestReduceFoldsItems(t *testing.T) {
	sum := Reduce([]int{1, 2, 3, 4}, 0, func(acc, i int) int { return acc + i })
	require.Equal(t, 10, sum)
}

func TestSlidingWindowEmitsSnapshotsOnHop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan time.Time, 4)
	base := time.Now()
	in <- base
	in <- base.Add(10 * time.Millisecond)

	out := SlidingWindow(ctx, in, 200*time.Millisecond, 30*time.Millisecond, func(t time.Time) time.Time { return t })

	snapshot := <-out
	require.GreaterOrEqual(t, len(snapshot), 1)
	close(in)
}

func TestSlidingWindowEvictsStaleItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan time.Time, 1)
	stale := time.Now().Add(-time.Second)
	in <- stale

	out := SlidingWindow(ctx, in, 50*time.Millisecond, 30*time.Millisecond, func(t time.Time) time.Time { return t })

	snapshot := <-out
	require.Empty(t, snapshot)
	close(in)
}
