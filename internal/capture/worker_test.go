package capture_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zMarques/albion-network/internal/capture"
	"github.com/zMarques/albion-network/internal/capture/capturetest"
	"github.com/zMarques/albion-network/internal/core"
	"github.com/zMarques/albion-network/internal/metrics"
	"github.com/zMarques/albion-network/internal/netif"
	"github.com/zMarques/albion-network/internal/queue"
)

const port = 5056

func newWorker(name string, src capture.Source, q *queue.Queue[core.Payload]) *capture.Worker {
	return capture.NewWorker(capture.WorkerConfig{
		Interface:    netif.Interface{Name: name, Ethernet: true},
		Source:       src,
		Options:      capture.DefaultOptions(),
		TargetPort:   port,
		MaxFrameSize: capture.DefaultSnapLen,
		Queue:        q,
	})
}

// runWorker starts w and returns a channel receiving its result.
func runWorker(ctx context.Context, w *capture.Worker) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx)
	}()
	return done
}

func pop(t *testing.T, q *queue.Queue[core.Payload]) core.Payload {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	p, err := q.Pop(ctx)
	require.NoError(t, err)
	return p
}

func TestWorkerPushesMatchingPayloads(t *testing.T) {
	src := capturetest.NewSource().
		AddFrames("eth0",
			capturetest.UDPFrame(40000, port, []byte{1, 2, 3}),
			capturetest.UDPFrame(40000, 9999, []byte{4}),
			capturetest.ARPFrame(),
			capturetest.UDPFrame(port, 40000, []byte{5, 6}),
		)
	q := queue.New[core.Payload](16, queue.Block)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runWorker(ctx, newWorker("eth0", src, q))

	first := pop(t, q)
	assert.Equal(t, "eth0", first.Interface)
	assert.Equal(t, []byte{1, 2, 3}, first.Data)
	assert.Equal(t, uint16(port), first.Flow.DstPort)
	assert.Equal(t, "192.168.1.1", first.Flow.SrcIP.String())
	assert.False(t, first.Timestamp.IsZero())

	second := pop(t, q)
	assert.Equal(t, []byte{5, 6}, second.Data)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
	assert.True(t, src.Handle("eth0").Closed())
	assert.Equal(t, 0, q.Len())
}

func TestWorkerSkipsReadErrorsAndMalformedFrames(t *testing.T) {
	valid := capturetest.UDPFrame(40000, port, []byte{7})
	src := capturetest.NewSource().
		AddError("eth1", errors.New("interrupted system call")).
		AddFrames("eth1", valid[:20]).
		AddError("eth1", core.ErrReadTimeout).
		AddFrames("eth1", valid)
	q := queue.New[core.Payload](16, queue.Block)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runWorker(ctx, newWorker("eth1", src, q))

	p := pop(t, q)
	assert.Equal(t, []byte{7}, p.Data)

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.CaptureReadErrorsTotal.WithLabelValues("eth1")) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FilterDropsTotal.WithLabelValues("eth1", "malformed")))
}

func TestWorkerOpenFailure(t *testing.T) {
	src := capturetest.NewSource().FailOpen("eth2", core.ErrNotEthernet)
	q := queue.New[core.Payload](16, queue.Block)

	err := newWorker("eth2", src, q).Run(context.Background())
	assert.ErrorIs(t, err, core.ErrNotEthernet)
	assert.ErrorIs(t, err, core.ErrCaptureOpen)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CaptureOpenFailuresTotal.WithLabelValues("eth2", "fake")))
}

func TestWorkerTruncatesLongFrames(t *testing.T) {
	payload := make([]byte, 2000)
	for i := range payload {
		payload[i] = byte(i)
	}
	src := capturetest.NewSource().AddFrames("eth3", capturetest.UDPFrame(40000, port, payload))
	q := queue.New[core.Payload](16, queue.Block)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runWorker(ctx, newWorker("eth3", src, q))

	p := pop(t, q)
	assert.Equal(t, payload[:capture.DefaultSnapLen-42], p.Data)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CaptureTruncatedTotal.WithLabelValues("eth3")))
}

func TestWorkerStopsOnClosedQueue(t *testing.T) {
	src := capturetest.NewSource().AddFrames("eth4", capturetest.UDPFrame(40000, port, []byte{1}))
	q := queue.New[core.Payload](16, queue.Block)
	q.Close()

	select {
	case err := <-runWorker(context.Background(), newWorker("eth4", src, q)):
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker kept running on a closed queue")
	}
}

func TestWorkerStopsOnClosedHandle(t *testing.T) {
	src := capturetest.NewSource().AddError("eth5", core.ErrHandleClosed)
	q := queue.New[core.Payload](16, queue.Block)

	err := newWorker("eth5", src, q).Run(context.Background())
	assert.ErrorIs(t, err, core.ErrHandleClosed)
	assert.NotErrorIs(t, err, core.ErrCaptureOpen)
}

func TestWorkerDropTailKeepsRunning(t *testing.T) {
	src := capturetest.NewSource().AddFrames("eth6",
		capturetest.UDPFrame(40000, port, []byte{1}),
		capturetest.UDPFrame(40000, port, []byte{2}),
		capturetest.UDPFrame(40000, port, []byte{3}),
	)
	q := queue.New[core.Payload](1, queue.DropTail)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runWorker(ctx, newWorker("eth6", src, q))

	require.Eventually(t, func() bool { return src.Handle("eth6") != nil && src.Handle("eth6").Drained() }, time.Second, 5*time.Millisecond)
	p := pop(t, q)
	assert.Equal(t, []byte{1}, p.Data)
}
