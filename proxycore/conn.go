package proxycore

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"cqldriver/native"
)

const eventSinkBufferSize = 32

// waiter is the one-shot rendezvous a caller blocks on between sending a
// frame and receiving its response.
type waiter chan *native.Frame

// ConnectionEntry is one multiplexed connection to a single node: a
// transport (TCP or TLS), a write lock guaranteeing whole-frame atomicity,
// and a read goroutine that runs for the connection's lifetime delivering
// responses to waiters and events to subscribers.
type ConnectionEntry struct {
	conn    net.Conn
	r       *bufio.Reader
	version native.Version
	compressor native.Compressor
	logger  *zap.Logger

	writeMu sync.Mutex

	mu       sync.Mutex
	waiters  map[int16]waiter
	closed   bool
	closeErr error

	eventMu   sync.Mutex
	eventSubs []chan *native.Frame

	createdAt  time.Time
	lastUsedAt time.Time
}

// DialConfig bundles the parameters needed to open and connect a single
// node connection.
type DialConfig struct {
	Endpoint      Endpoint
	Version       native.Version
	CQLVersion    string
	Compression   native.Compression
	Auth          Authenticator
	Keyspace      string
	ConnectTimeout time.Duration
	Logger        *zap.Logger
}

// Connect opens the transport, negotiates STARTUP/AUTHENTICATE, and issues
// USE if a keyspace is requested. Any step failing aborts the connect; no
// partially initialized entry is ever returned.
func Connect(cfg DialConfig) (*ConnectionEntry, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	var conn net.Conn
	var err error
	if tlsConfig := cfg.Endpoint.TLSConfig(); tlsConfig != nil {
		conn, err = tls.DialWithDialer(dialer, "tcp", cfg.Endpoint.Addr(), tlsConfig)
	} else {
		conn, err = dialer.Dial("tcp", cfg.Endpoint.Addr())
	}
	if err != nil {
		return nil, fmt.Errorf("proxycore: unable to dial %s: %w", cfg.Endpoint.Addr(), err)
	}

	var compressor native.Compressor
	if cfg.Compression != native.CompressionNone {
		if compressor, err = native.NewCompressor(cfg.Compression); err != nil {
			conn.Close()
			return nil, err
		}
	}

	e := &ConnectionEntry{
		conn:       conn,
		r:          bufio.NewReader(conn),
		version:    cfg.Version,
		compressor: compressor,
		logger:     logger,
		waiters:    make(map[int16]waiter),
		createdAt:  time.Now(),
		lastUsedAt: time.Now(),
	}
	go e.readLoop()

	if err := e.handshake(cfg); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *ConnectionEntry) handshake(cfg DialConfig) error {
	startup := native.NewStartup(cfg.CQLVersion)
	startup.SetCompression(cfg.Compression)

	frame, err := e.Send(context.Background(), startup)
	if err != nil {
		return fmt.Errorf("proxycore: startup failed: %w", err)
	}

	switch body := frame.Body.(type) {
	case *native.Ready:
		// no auth required
	case *native.Authenticate:
		if cfg.Auth == nil {
			return ErrNoAuthenticator
		}
		if err := e.authenticate(body.Authenticator, cfg.Auth); err != nil {
			return err
		}
	case *native.ErrorMessage:
		return fmt.Errorf("proxycore: startup rejected: %s", body.Message)
	default:
		return fmt.Errorf("proxycore: unexpected startup response %T", frame.Body)
	}

	if cfg.Keyspace != "" {
		useFrame, err := e.Send(context.Background(), &native.Query{
			QueryString: "USE " + cfg.Keyspace,
			Params:      native.QueryParams{Consistency: native.ConsistencyOne},
		})
		if err != nil {
			return fmt.Errorf("proxycore: USE %s failed: %w", cfg.Keyspace, err)
		}
		if errMsg, ok := useFrame.Body.(*native.ErrorMessage); ok {
			return fmt.Errorf("proxycore: USE %s rejected: %s", cfg.Keyspace, errMsg.Message)
		}
	}
	return nil
}

func (e *ConnectionEntry) authenticate(authenticatorName string, auth Authenticator) error {
	token, err := auth.InitialResponse(authenticatorName)
	if err != nil {
		return fmt.Errorf("proxycore: authenticator initial response: %w", err)
	}
	for {
		frame, err := e.Send(context.Background(), &native.AuthResponse{Token: token})
		if err != nil {
			return fmt.Errorf("proxycore: auth response failed: %w", err)
		}
		switch body := frame.Body.(type) {
		case *native.AuthSuccess:
			return nil
		case *native.AuthChallenge:
			if token, err = auth.Challenge(body.Token); err != nil {
				return fmt.Errorf("proxycore: authenticator challenge: %w", err)
			}
		case *native.ErrorMessage:
			return fmt.Errorf("proxycore: authentication rejected: %s", body.Message)
		default:
			return fmt.Errorf("proxycore: unexpected auth response %T", frame.Body)
		}
	}
}

// Send writes body as a new request frame and waits for its response,
// the connection closing, or ctx being done. A canceled or timed-out ctx
// calls Cancel on the stream id before returning, so a response arriving
// afterward is dropped by readLoop and delivered to no one — the same
// orphan-and-drain rule Cancel itself documents.
func (e *ConnectionEntry) Send(ctx context.Context, body native.Body) (*native.Frame, error) {
	respCh, id, err := e.sendAsync(body)
	if err != nil {
		return nil, err
	}
	select {
	case frame, ok := <-respCh:
		if !ok {
			return nil, e.closedError()
		}
		return frame, nil
	case <-ctx.Done():
		e.Cancel(id)
		return nil, ctx.Err()
	}
}

// sendAsync allocates a stream id, registers its waiter, and writes the
// frame, returning the channel the caller should receive from.
func (e *ConnectionEntry) sendAsync(body native.Body) (waiter, int16, error) {
	id := nextStreamID()
	respCh := make(waiter, 1)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, 0, e.closedError()
	}
	e.waiters[id] = respCh
	e.mu.Unlock()

	frame := native.NewRequestFrame(e.version, id, body)
	if e.compressor != nil {
		frame.Header.Flags |= native.FlagCompression
	}

	e.writeMu.Lock()
	err := native.EncodeFrame(frame, e.compressor, e.conn)
	e.writeMu.Unlock()

	if err != nil {
		e.mu.Lock()
		delete(e.waiters, id)
		e.mu.Unlock()
		return nil, 0, fmt.Errorf("proxycore: write failed: %w", err)
	}
	return respCh, id, nil
}

// Cancel abandons interest in a stream id without reclaiming it: the
// in-flight request's eventual response, if any, is discarded by readLoop
// rather than delivered to a new caller.
func (e *ConnectionEntry) Cancel(id int16) {
	e.mu.Lock()
	delete(e.waiters, id)
	e.mu.Unlock()
}

// SubscribeEvents registers a bounded sink for server-pushed EVENT frames.
// A slow subscriber never blocks the read loop: frames are dropped for that
// subscriber once its buffer is full.
func (e *ConnectionEntry) SubscribeEvents() <-chan *native.Frame {
	ch := make(chan *native.Frame, eventSinkBufferSize)
	e.eventMu.Lock()
	e.eventSubs = append(e.eventSubs, ch)
	e.eventMu.Unlock()
	return ch
}

func (e *ConnectionEntry) readLoop() {
	for {
		frame, err := native.DecodeFrame(e.r, e.compressor)
		if err != nil {
			e.fail(fmt.Errorf("proxycore: frame decode failed: %w", err))
			return
		}

		if frame.Header.StreamID < 0 {
			e.publishEvent(frame)
			continue
		}

		e.mu.Lock()
		ch, ok := e.waiters[frame.Header.StreamID]
		if ok {
			delete(e.waiters, frame.Header.StreamID)
		}
		e.mu.Unlock()

		if !ok {
			e.logger.Warn("dropping late frame for unknown or canceled stream",
				zap.Int16("stream_id", frame.Header.StreamID))
			continue
		}
		ch <- frame
	}
}

func (e *ConnectionEntry) publishEvent(frame *native.Frame) {
	e.eventMu.Lock()
	defer e.eventMu.Unlock()
	for _, sub := range e.eventSubs {
		select {
		case sub <- frame:
		default:
			e.logger.Warn("event subscriber buffer full, dropping frame")
		}
	}
}

func (e *ConnectionEntry) fail(err error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.closeErr = err
	waiters := e.waiters
	e.waiters = nil
	e.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}

	e.eventMu.Lock()
	for _, sub := range e.eventSubs {
		close(sub)
	}
	e.eventSubs = nil
	e.eventMu.Unlock()

	e.conn.Close()
}

func (e *ConnectionEntry) closedError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closeErr != nil {
		return e.closeErr
	}
	return ErrConnectionClosed
}

// Close gracefully shuts down the connection, failing any outstanding
// waiters with ErrConnectionClosed.
func (e *ConnectionEntry) Close() error {
	e.fail(ErrConnectionClosed)
	return nil
}

// IsClosed reports whether the connection has already failed or been
// closed.
func (e *ConnectionEntry) IsClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// IsAlive reports whether this connection is still usable. cdrs-tokio's
// transport.rs probes liveness with a direct zero-timeout peek, but here the
// connection's socket is owned exclusively by readLoop for its lifetime: a
// second reader racing on the same net.Conn would steal bytes out of the
// frame stream. Liveness is instead the readLoop-maintained closed flag,
// which is set the instant a transport error or EOF is observed — equivalent
// in effect, since any broken socket is detected on its very next read.
func (e *ConnectionEntry) IsAlive() bool {
	return !e.IsClosed()
}

func (e *ConnectionEntry) touch() { e.lastUsedAt = time.Now() }
