package proxycore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cqldriver/native"
)

func TestRoundRobinCyclesPools(t *testing.T) {
	lb := &RoundRobinLoadBalancer{}
	seen := make([]int, 6)
	for i := range seen {
		seen[i] = lb.Next(3, QueryHints{})
	}
	require.Equal(t, []int{1, 2, 0, 1, 2, 0}, seen)
}

func TestClusterGetConnectionRoundRobins(t *testing.T) {
	ln1 := startFakeServer(t)
	defer ln1.Close()
	ln2 := startFakeServer(t)
	defer ln2.Close()

	cfg := ClusterConfig{
		Endpoints:  []string{ln1.Addr().String(), ln2.Addr().String()},
		Factory:    &BasicEndpointFactory{},
		Version:    native.ProtocolVersion4,
		CQLVersion: "3.0.0",
		Pool:       DefaultPoolConfig(),
		Logger:     zap.NewNop(),
	}
	cluster, err := NewCluster(cfg, &RoundRobinLoadBalancer{})
	require.NoError(t, err)
	defer cluster.Close()

	entry, pool, err := cluster.GetConnection(context.Background(), QueryHints{})
	require.NoError(t, err)
	require.NotNil(t, entry)
	pool.Return(entry)

	entry2, pool2, err := cluster.GetConnection(context.Background(), QueryHints{})
	require.NoError(t, err)
	require.NotNil(t, entry2)
	require.NotSame(t, pool, pool2)
	pool2.Return(entry2)
}

func TestNewClusterRejectsEmptyEndpoints(t *testing.T) {
	_, err := NewCluster(ClusterConfig{Factory: &BasicEndpointFactory{}}, nil)
	require.ErrorIs(t, err, ErrNoPools)
}
