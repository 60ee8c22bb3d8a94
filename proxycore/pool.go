package proxycore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// reapGrace is the window applied to both idle_timeout and max_lifetime
// enforcement: the reaper only closes an entry once it has exceeded its cap
// by at least this much, so a connection returned right at the boundary
// isn't punished for scheduler jitter.
const reapGrace = 30 * time.Second

const reapInterval = 10 * time.Second

// PoolConfig are the node-pool configuration knobs.
type PoolConfig struct {
	MaxSize           int
	MinIdle           int // 0 means no minimum is maintained
	MaxLifetime       time.Duration
	IdleTimeout       time.Duration
	ConnectionTimeout time.Duration
	Dial              DialConfig
	// Reconnect paces retries of the min_idle top-up after a dial failure.
	// Nil falls back to NewExponentialReconnectPolicy's defaults.
	Reconnect ReconnectPolicy
}

// DefaultPoolConfig returns reasonable defaults with Dial left zero for the
// caller to fill in.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxSize:           10,
		MaxLifetime:       30 * time.Minute,
		IdleTimeout:       10 * time.Minute,
		ConnectionTimeout: 30 * time.Second,
		Reconnect:         NewExponentialReconnectPolicy(),
	}
}

// Pool manages up to MaxSize connections to a single node, handing out
// leases and reaping connections that exceed their lifetime or idle budget.
//
// "alive" permits in poolSem represent every connection currently open
// (idle or leased) — acquired only at creation and released only at
// destruction, never at an ordinary return-to-idle. Lease() therefore blocks
// only when MaxSize connections already exist AND none is idle, and a
// return-to-idle wakes a waiting Lease() via the broadcast channel without
// needing a semaphore release.
type Pool struct {
	cfg    PoolConfig
	logger *zap.Logger

	sem *semaphore.Weighted

	mu       sync.Mutex
	idle     []*ConnectionEntry
	numAlive int
	keyspace *keyspaceMemo
	closed   bool
	waitCh   chan struct{}

	reconnect    ReconnectPolicy
	retryAttempt int
	nextRetryAt  time.Time

	reaperDone chan struct{}
	reaperStop chan struct{}
}

// NewPool validates cfg and starts the background reaper. min_idle > max_size
// is rejected at construction; no partially built pool is ever handed back
// on error.
func NewPool(cfg PoolConfig, keyspace *keyspaceMemo, logger *zap.Logger) (*Pool, error) {
	if cfg.MaxSize <= 0 {
		return nil, fmt.Errorf("%w: max_size must be positive, got %d", ErrInvalidPoolConfig, cfg.MaxSize)
	}
	if cfg.MinIdle > cfg.MaxSize {
		return nil, fmt.Errorf("%w: min_idle (%d) must not exceed max_size (%d)", ErrInvalidPoolConfig, cfg.MinIdle, cfg.MaxSize)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if keyspace == nil {
		keyspace = &keyspaceMemo{}
	}

	reconnect := cfg.Reconnect
	if reconnect == nil {
		reconnect = NewExponentialReconnectPolicy()
	}

	p := &Pool{
		cfg:        cfg,
		logger:     logger,
		sem:        semaphore.NewWeighted(int64(cfg.MaxSize)),
		keyspace:   keyspace,
		waitCh:     make(chan struct{}),
		reconnect:  reconnect,
		reaperDone: make(chan struct{}),
		reaperStop: make(chan struct{}),
	}
	p.fillToMinIdle()
	go p.reap()
	return p, nil
}

// minIdle resolves the configured idle floor; zero (the default) means no
// minimum is maintained and the pool stays fully lazy.
func (p *Pool) minIdle() int {
	if p.cfg.MinIdle <= 0 {
		return 0
	}
	return p.cfg.MinIdle
}

// fillToMinIdle dials new connections straight into the idle list until
// numAlive reaches minIdle, or a dial fails, or the pool is closed. A dial
// failure schedules a backoff via reconnect rather than failing the
// caller — a node being briefly unreachable shouldn't block pool
// construction or reaping — and top-up is skipped entirely while that
// backoff is still pending, so repeated reap ticks don't hammer a down node.
func (p *Pool) fillToMinIdle() {
	target := p.minIdle()
	for {
		p.mu.Lock()
		if p.closed || p.numAlive >= target || time.Now().Before(p.nextRetryAt) {
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()

		if !p.sem.TryAcquire(1) {
			return
		}
		entry, err := p.createEntry(context.Background())
		if err != nil {
			p.logger.Warn("min_idle top-up connect failed", zap.Error(err))
			p.mu.Lock()
			p.retryAttempt++
			p.nextRetryAt = time.Now().Add(p.reconnect.NextDelay(p.retryAttempt))
			p.mu.Unlock()
			return
		}

		p.mu.Lock()
		p.retryAttempt = 0
		if p.closed {
			p.mu.Unlock()
			entry.Close()
			p.releaseAliveSlot()
			return
		}
		p.idle = append(p.idle, entry)
		p.wake()
		p.mu.Unlock()
	}
}

// wake broadcasts a pool-state change to every blocked Lease call. Must be
// called with p.mu held.
func (p *Pool) wake() {
	close(p.waitCh)
	p.waitCh = make(chan struct{})
}

// Lease hands out an idle connection if one exists; otherwise opens a new
// one if under MaxSize; otherwise waits up to ConnectionTimeout for either
// to become possible.
func (p *Pool) Lease(ctx context.Context) (*ConnectionEntry, error) {
	deadline := time.Now().Add(p.cfg.ConnectionTimeout)
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, ErrConnectionClosed
		}
		for len(p.idle) > 0 {
			entry := p.idle[len(p.idle)-1]
			p.idle = p.idle[:len(p.idle)-1]
			p.mu.Unlock()
			if entry.IsClosed() || p.hasBroken(entry) {
				p.releaseAliveSlot()
				p.mu.Lock()
				continue
			}
			entry.touch()
			return entry, nil
		}
		waitCh := p.waitCh
		p.mu.Unlock()

		if p.sem.TryAcquire(1) {
			// createEntry releases the acquired slot itself on failure (via
			// releaseAliveSlot), so no balancing Release belongs here.
			entry, err := p.createEntry(ctx)
			if err != nil {
				return nil, err
			}
			return entry, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrPoolExhausted
		}
		timer := time.NewTimer(remaining)
		select {
		case <-waitCh:
			timer.Stop()
		case <-timer.C:
			return nil, ErrPoolExhausted
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

func (p *Pool) createEntry(ctx context.Context) (*ConnectionEntry, error) {
	p.mu.Lock()
	p.numAlive++
	p.mu.Unlock()

	dial := p.cfg.Dial
	dial.Keyspace = p.keyspace.get()
	if dial.ConnectTimeout == 0 {
		dial.ConnectTimeout = p.cfg.ConnectionTimeout
	}

	entry, err := Connect(dial)
	if err != nil {
		p.releaseAliveSlot()
		return nil, fmt.Errorf("proxycore: pool connect failed: %w", err)
	}
	return entry, nil
}

// releaseAliveSlot returns one unit of creation budget to the semaphore,
// used whenever a connection is destroyed (reaped, broken, or explicitly
// dropped) rather than merely returned to idle.
func (p *Pool) releaseAliveSlot() {
	p.mu.Lock()
	p.numAlive--
	p.wake()
	p.mu.Unlock()
	p.sem.Release(1)
}

// hasBroken reports whether entry should be dropped instead of reused: it
// has exceeded MaxLifetime, or it is no longer alive.
func (p *Pool) hasBroken(entry *ConnectionEntry) bool {
	if entry.IsClosed() {
		return true
	}
	if p.cfg.MaxLifetime > 0 && time.Since(entry.createdAt) > p.cfg.MaxLifetime {
		return true
	}
	return !entry.IsAlive()
}

// Return hands a leased connection back to the pool: dropped if broken or
// past its lifetime, dropped if the idle pool is already at MaxSize,
// otherwise parked as idle.
func (p *Pool) Return(entry *ConnectionEntry) {
	if p.hasBroken(entry) {
		entry.Close()
		p.releaseAliveSlot()
		return
	}

	p.mu.Lock()
	if p.closed || len(p.idle) >= p.cfg.MaxSize {
		p.mu.Unlock()
		entry.Close()
		p.releaseAliveSlot()
		return
	}
	entry.touch()
	p.idle = append(p.idle, entry)
	p.wake()
	p.mu.Unlock()
}

func (p *Pool) reap() {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()
	defer close(p.reaperDone)
	for {
		select {
		case <-ticker.C:
			p.reapOnce()
		case <-p.reaperStop:
			return
		}
	}
}

func (p *Pool) reapOnce() {
	now := time.Now()
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	keep := p.idle[:0]
	var dropped []*ConnectionEntry
	for _, entry := range p.idle {
		expired := (p.cfg.IdleTimeout > 0 && now.Sub(entry.lastUsedAt) > p.cfg.IdleTimeout+reapGrace) ||
			(p.cfg.MaxLifetime > 0 && now.Sub(entry.createdAt) > p.cfg.MaxLifetime+reapGrace)
		if expired || entry.IsClosed() {
			dropped = append(dropped, entry)
		} else {
			keep = append(keep, entry)
		}
	}
	p.idle = keep
	p.mu.Unlock()

	for _, entry := range dropped {
		entry.Close()
		p.releaseAliveSlot()
		p.logger.Debug("reaped connection", zap.Duration("age", now.Sub(entry.createdAt)))
	}
	if len(dropped) > 0 {
		p.fillToMinIdle()
	}
}

// Close shuts down every idle connection and stops the reaper. Leased
// connections close themselves when returned, since Return consults
// p.closed.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.wake()
	p.mu.Unlock()

	for _, entry := range idle {
		entry.Close()
	}
	close(p.reaperStop)
	<-p.reaperDone
}

// Size reports the number of currently alive connections (idle + leased).
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.numAlive
}
