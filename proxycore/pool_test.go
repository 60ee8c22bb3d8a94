package proxycore

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cqldriver/native"
)

// startFakeServer listens on localhost and answers every connection's
// STARTUP with READY, forever, until the listener is closed.
func startFakeServer(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go serveFakeConn(conn)
		}
	}()
	return ln
}

func serveFakeConn(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		frame, err := native.DecodeFrame(r, nil)
		if err != nil {
			return
		}
		resp := &native.Frame{
			Header: &native.Header{Version: frame.Header.Version, StreamID: frame.Header.StreamID, OpCode: native.OpReady},
			Body:   &native.Ready{},
		}
		switch frame.Body.(type) {
		case *native.Startup:
			resp.Header.OpCode, resp.Body = native.OpReady, &native.Ready{}
		case *native.Query:
			resp.Header.OpCode, resp.Body = native.OpResult, &native.VoidResult{}
		default:
			resp.Header.OpCode, resp.Body = native.OpReady, &native.Ready{}
		}
		if err := native.EncodeFrame(resp, nil, conn); err != nil {
			return
		}
	}
}

func testPoolConfig(addr string) PoolConfig {
	cfg := DefaultPoolConfig()
	cfg.MaxSize = 2
	cfg.ConnectionTimeout = time.Second
	cfg.Dial = DialConfig{
		Endpoint:   &basicEndpoint{addr: addr},
		Version:    native.ProtocolVersion4,
		CQLVersion: "3.0.0",
	}
	return cfg
}

func TestPoolNeverExceedsMaxSize(t *testing.T) {
	ln := startFakeServer(t)
	defer ln.Close()

	pool, err := NewPool(testPoolConfig(ln.Addr().String()), nil, zap.NewNop())
	require.NoError(t, err)
	defer pool.Close()

	ctx := context.Background()
	e1, err := pool.Lease(ctx)
	require.NoError(t, err)
	e2, err := pool.Lease(ctx)
	require.NoError(t, err)

	require.Equal(t, 2, pool.Size())

	shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	origTimeout := pool.cfg.ConnectionTimeout
	pool.cfg.ConnectionTimeout = 50 * time.Millisecond
	_, err = pool.Lease(shortCtx)
	pool.cfg.ConnectionTimeout = origTimeout
	require.Error(t, err)

	pool.Return(e1)
	pool.Return(e2)
}

func TestPoolReturnReusesIdleConnection(t *testing.T) {
	ln := startFakeServer(t)
	defer ln.Close()

	pool, err := NewPool(testPoolConfig(ln.Addr().String()), nil, zap.NewNop())
	require.NoError(t, err)
	defer pool.Close()

	ctx := context.Background()
	e1, err := pool.Lease(ctx)
	require.NoError(t, err)
	pool.Return(e1)

	e2, err := pool.Lease(ctx)
	require.NoError(t, err)
	require.Same(t, e1, e2)
	pool.Return(e2)
}

func TestPoolRejectsMinIdleGreaterThanMaxSize(t *testing.T) {
	cfg := DefaultPoolConfig()
	cfg.MaxSize = 2
	cfg.MinIdle = 5
	_, err := NewPool(cfg, nil, zap.NewNop())
	require.ErrorIs(t, err, ErrInvalidPoolConfig)
}

func TestPoolMaintainsMinIdleAtConstruction(t *testing.T) {
	ln := startFakeServer(t)
	defer ln.Close()

	cfg := testPoolConfig(ln.Addr().String())
	cfg.MaxSize = 2
	cfg.MinIdle = 2
	pool, err := NewPool(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	defer pool.Close()

	require.Equal(t, 2, pool.Size())
	pool.mu.Lock()
	idle := len(pool.idle)
	pool.mu.Unlock()
	require.Equal(t, 2, idle)
}

func TestPoolReapToppedBackUpToMinIdle(t *testing.T) {
	ln := startFakeServer(t)
	defer ln.Close()

	cfg := testPoolConfig(ln.Addr().String())
	cfg.MaxSize = 2
	cfg.MinIdle = 1
	cfg.IdleTimeout = time.Millisecond
	pool, err := NewPool(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	defer pool.Close()

	require.Equal(t, 1, pool.Size())
	pool.mu.Lock()
	stale := pool.idle[0]
	stale.lastUsedAt = time.Now().Add(-reapGrace - time.Hour)
	pool.mu.Unlock()

	pool.reapOnce()

	require.Equal(t, 1, pool.Size())
	pool.mu.Lock()
	require.Len(t, pool.idle, 1)
	replaced := pool.idle[0]
	pool.mu.Unlock()
	require.NotSame(t, stale, replaced)
}

func TestPoolReadsSharedKeyspaceMemo(t *testing.T) {
	ln := startFakeServer(t)
	defer ln.Close()

	ks := &keyspaceMemo{}
	pool, err := NewPool(testPoolConfig(ln.Addr().String()), ks, zap.NewNop())
	require.NoError(t, err)
	defer pool.Close()

	ks.set("my_keyspace")
	require.Equal(t, "my_keyspace", pool.keyspace.get())
}
