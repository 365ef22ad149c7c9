package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zMarques/albion-network/internal/core"
	"github.com/zMarques/albion-network/internal/queue"
	"github.com/zMarques/albion-network/pkg/decoder"
)

func TestPumpDrainsQueueThenExits(t *testing.T) {
	q := queue.New[core.Payload](8, queue.Block)
	ctx := context.Background()
	for _, b := range []byte{1, 2, 3} {
		require.NoError(t, q.Push(ctx, core.Payload{Interface: "eth0", Data: []byte{b}}))
	}
	q.Close()

	var got []byte
	m := NewMetrics()
	p := NewPump(q, decoder.Raw{}, decoder.RawName, func(msg decoder.Message) {
		got = append(got, msg.Raw...)
	}, m, nil)

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump did not exit after the queue was closed")
	}
	assert.Equal(t, []byte{1, 2, 3}, got)
	assert.Equal(t, uint64(3), m.Payloads.Load())
	assert.Equal(t, uint64(3), m.Messages.Load())
}

func TestPumpStopsOnCancel(t *testing.T) {
	q := queue.New[core.Payload](8, queue.Block)
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPump(q, decoder.Raw{}, decoder.RawName, func(decoder.Message) {}, nil, nil)

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump did not exit on cancellation")
	}
}

func TestPumpNoMessages(t *testing.T) {
	q := queue.New[core.Payload](1, queue.Block)
	require.NoError(t, q.Push(context.Background(), core.Payload{Data: []byte{1}}))
	q.Close()

	calls := 0
	m := NewMetrics()
	silent := decoder.Func(func([]byte) []decoder.Message { return nil })
	NewPump(q, silent, "silent", func(decoder.Message) { calls++ }, m, nil).Run(context.Background())

	assert.Zero(t, calls)
	assert.Equal(t, uint64(1), m.Payloads.Load())
	assert.Zero(t, m.Messages.Load())

	m.Reset()
	assert.Zero(t, m.Payloads.Load())
}
