package search

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamusis/sight-cli/internal/fingerprint/fingerprinttest"
)

func TestRunner_CancelledSearchNeverCallsBack(t *testing.T) {
	r := NewRunner(newEngine())
	snap := snapshotOf(1, 2, 3)

	entered := make(chan struct{})
	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	var firstCalls, secondCalls atomic.Int32

	r.Submit(ctx, snap, fingerprinttest.Value(0), Options{
		BatchSize: 1,
		OnProgress: func(p Progress) {
			if p.Completed == 1 {
				close(entered)
				<-release
			}
		},
	}, func([]Result) { firstCalls.Add(1) })

	<-entered
	cancel()
	close(release)

	var got []Result
	r.Submit(context.Background(), snap, fingerprinttest.Value(0), Options{Limit: 2, Threshold: 8}, func(rs []Result) {
		secondCalls.Add(1)
		got = rs
	})
	r.Wait()

	assert.Zero(t, firstCalls.Load())
	assert.Equal(t, int32(1), secondCalls.Load())
	require.Len(t, got, 2)
	assert.Equal(t, "/img/00.png", got[0].Path)
}

func TestRunner_CancelWithoutSearch(t *testing.T) {
	r := NewRunner(newEngine())
	r.Cancel()
	r.Wait()
}

func TestRunner_SubmitFromCallback(t *testing.T) {
	r := NewRunner(newEngine())
	snap := snapshotOf(5, 1, 9)

	refined := make(chan []Result, 1)
	r.Submit(context.Background(), snap, fingerprinttest.Value(0), Options{Limit: 3, Threshold: 8}, func(first []Result) {
		assert.NotEmpty(t, first)
		r.Submit(context.Background(), snap, fingerprinttest.Value(9), Options{Limit: 1, Threshold: 8}, func(rs []Result) {
			refined <- rs
		})
	})

	select {
	case rs := <-refined:
		require.Len(t, rs, 1)
		assert.Equal(t, "/img/02.png", rs[0].Path)
	case <-time.After(5 * time.Second):
		t.Fatal("search submitted from a completion callback never completed")
	}
	r.Wait()
}
