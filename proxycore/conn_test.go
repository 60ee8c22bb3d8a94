package proxycore

import (
	"bufio"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cqldriver/native"
)

// newPipeEntry wires a ConnectionEntry directly to one end of a net.Pipe,
// starting its read loop, and returns the other end for a fake server to
// drive in the test.
func newPipeEntry(t *testing.T) (*ConnectionEntry, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	e := &ConnectionEntry{
		conn:      client,
		r:         bufio.NewReader(client),
		version:   native.ProtocolVersion4,
		logger:    zap.NewNop(),
		waiters:   make(map[int16]waiter),
		createdAt: time.Now(),
	}
	go e.readLoop()
	return e, server
}

func TestSendReceivesMatchingResponse(t *testing.T) {
	e, server := newPipeEntry(t)
	defer e.Close()

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		sr := bufio.NewReader(server)
		frame, err := native.DecodeFrame(sr, nil)
		require.NoError(t, err)
		resp := &native.Frame{
			Header: &native.Header{Version: native.ProtocolVersion4, Request: false, StreamID: frame.Header.StreamID, OpCode: native.OpReady},
			Body:   &native.Ready{},
		}
		require.NoError(t, native.EncodeFrame(resp, nil, server))
	}()

	frame, err := e.Send(context.Background(), &native.OptionsMessage{})
	require.NoError(t, err)
	require.IsType(t, &native.Ready{}, frame.Body)
	<-serverDone
}

func TestTwoConcurrentSendsGetCorrectResponses(t *testing.T) {
	e, server := newPipeEntry(t)
	defer e.Close()

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		sr := bufio.NewReader(server)
		for i := 0; i < 2; i++ {
			frame, err := native.DecodeFrame(sr, nil)
			require.NoError(t, err)
			q := frame.Body.(*native.Query)
			resp := &native.Frame{
				Header: &native.Header{Version: native.ProtocolVersion4, StreamID: frame.Header.StreamID, OpCode: native.OpResult},
				Body:   &native.SetKeyspaceResult{Keyspace: q.QueryString},
			}
			require.NoError(t, native.EncodeFrame(resp, nil, server))
		}
	}()

	type result struct {
		frame *native.Frame
		err   error
	}
	resCh := make(chan result, 2)
	for _, q := range []string{"A", "B"} {
		q := q
		go func() {
			frame, err := e.Send(context.Background(), &native.Query{QueryString: q, Params: native.QueryParams{Consistency: native.ConsistencyOne}})
			resCh <- result{frame, err}
		}()
	}

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		r := <-resCh
		require.NoError(t, r.err)
		got[r.frame.Body.(*native.SetKeyspaceResult).Keyspace] = true
	}
	require.True(t, got["A"])
	require.True(t, got["B"])
	<-serverDone
}

func TestCancelDropsLateResponse(t *testing.T) {
	e, server := newPipeEntry(t)
	defer e.Close()

	// net.Pipe is unbuffered, so the fake server must already be reading
	// when sendAsync writes; it holds its reply until the id is canceled.
	respond := make(chan struct{})
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		sr := bufio.NewReader(server)
		frame, err := native.DecodeFrame(sr, nil)
		require.NoError(t, err)
		<-respond
		resp := &native.Frame{
			Header: &native.Header{Version: native.ProtocolVersion4, StreamID: frame.Header.StreamID, OpCode: native.OpReady},
			Body:   &native.Ready{},
		}
		require.NoError(t, native.EncodeFrame(resp, nil, server))
	}()

	respCh, id, err := e.sendAsync(&native.OptionsMessage{})
	require.NoError(t, err)
	e.Cancel(id)
	close(respond)
	<-serverDone

	select {
	case _, ok := <-respCh:
		require.False(t, ok, "canceled waiter should not receive a late frame")
	case <-time.After(100 * time.Millisecond):
		// No delivery at all is also an acceptable outcome of cancellation.
	}
}

func TestSendContextCancelOrphansStreamID(t *testing.T) {
	e, server := newPipeEntry(t)
	defer e.Close()

	sr := bufio.NewReader(server)
	reqDone := make(chan int16)
	go func() {
		frame, err := native.DecodeFrame(sr, nil)
		require.NoError(t, err)
		reqDone <- frame.Header.StreamID
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	frame, err := e.Send(ctx, &native.OptionsMessage{})
	require.Nil(t, frame)
	require.ErrorIs(t, err, context.Canceled)

	id := <-reqDone

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		resp := &native.Frame{
			Header: &native.Header{Version: native.ProtocolVersion4, StreamID: id, OpCode: native.OpReady},
			Body:   &native.Ready{},
		}
		require.NoError(t, native.EncodeFrame(resp, nil, server))
	}()
	<-serverDone

	e.mu.Lock()
	_, stillWaiting := e.waiters[id]
	e.mu.Unlock()
	require.False(t, stillWaiting, "a canceled stream id must not still have a registered waiter")
}

func TestConnectionFailureCompletesAllWaiters(t *testing.T) {
	e, server := newPipeEntry(t)

	// Drain the requests so the unbuffered pipe lets both writes complete.
	go io.Copy(io.Discard, server)

	respCh1, _, err := e.sendAsync(&native.OptionsMessage{})
	require.NoError(t, err)
	respCh2, _, err := e.sendAsync(&native.OptionsMessage{})
	require.NoError(t, err)

	server.Close()

	_, ok := <-respCh1
	require.False(t, ok)
	_, ok = <-respCh2
	require.False(t, ok)
	require.True(t, e.IsClosed())
}
