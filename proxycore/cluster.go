package proxycore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cqldriver/native"
)

// ClusterConfig configures the set of contact points and shared pool/dial
// settings a Cluster connects with.
type ClusterConfig struct {
	Endpoints   []string
	Factory     EndpointFactory
	Version     native.Version
	CQLVersion  string
	Compression native.Compression
	Auth        Authenticator
	Pool        PoolConfig
	Logger      *zap.Logger
}

// Cluster owns an ordered vector of node pools and dispatches leases through
// a pluggable LoadBalancer.
type Cluster struct {
	pools    []*Pool
	keyspace *keyspaceMemo
	lb       LoadBalancer
	logger   *zap.Logger
}

// NewCluster builds a pool for every configured endpoint; each pool dials
// only its MinIdle connections up front (none by default). A pool
// that fails to validate its config aborts the whole construction — no
// partially built cluster is returned.
func NewCluster(cfg ClusterConfig, lb LoadBalancer) (*Cluster, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, ErrNoPools
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if lb == nil {
		lb = &RoundRobinLoadBalancer{}
	}

	keyspace := &keyspaceMemo{}
	pools := make([]*Pool, 0, len(cfg.Endpoints))
	for _, addr := range cfg.Endpoints {
		poolCfg := cfg.Pool
		poolCfg.Dial = DialConfig{
			Endpoint:    cfg.Factory.Create(addr),
			Version:     cfg.Version,
			CQLVersion:  cfg.CQLVersion,
			Compression: cfg.Compression,
			Auth:        cfg.Auth,
			Logger:      logger,
		}
		pool, err := NewPool(poolCfg, keyspace, logger)
		if err != nil {
			for _, p := range pools {
				p.Close()
			}
			return nil, fmt.Errorf("proxycore: pool for %s: %w", addr, err)
		}
		pools = append(pools, pool)
	}

	return &Cluster{pools: pools, keyspace: keyspace, lb: lb, logger: logger}, nil
}

// GetConnection asks the balancer for a pool and leases from it. On pool
// exhaustion or connect failure it advances to the next balancer pick,
// asking the balancer at most len(pools) times — a single sweep around the
// ring for an uncontended round robin rather than unbounded retry. A
// balancer that repeats an index, or concurrent callers sharing a round
// robin, can make the sweep try one pool twice and skip another.
func (c *Cluster) GetConnection(ctx context.Context, hints QueryHints) (*ConnectionEntry, *Pool, error) {
	n := len(c.pools)
	if n == 0 {
		return nil, nil, ErrNoPools
	}
	var lastErr error
	for i := 0; i < n; i++ {
		idx := c.lb.Next(n, hints)
		if idx < 0 || idx >= n {
			continue
		}
		pool := c.pools[idx]
		entry, err := pool.Lease(ctx)
		if err == nil {
			return entry, pool, nil
		}
		lastErr = err
		c.logger.Debug("lease failed, advancing load balancer", zap.Int("pool_index", idx), zap.Error(err))
	}
	return nil, nil, fmt.Errorf("proxycore: all pools exhausted: %w", lastErr)
}

// SetKeyspace updates the cluster-wide keyspace memo; every newly opened
// connection in any pool issues USE with this value at connect time.
func (c *Cluster) SetKeyspace(keyspace string) {
	c.keyspace.set(keyspace)
}

// Close shuts down every node pool.
func (c *Cluster) Close() {
	for _, p := range c.pools {
		p.Close()
	}
}
