package proxycore

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cqldriver/native"
)

func newTestSession(t *testing.T) (*Session, net.Listener) {
	t.Helper()
	ln := startFakeServer(t)
	cfg := ClusterConfig{
		Endpoints:  []string{ln.Addr().String()},
		Factory:    &BasicEndpointFactory{},
		Version:    native.ProtocolVersion4,
		CQLVersion: "3.0.0",
		Pool:       DefaultPoolConfig(),
		Logger:     zap.NewNop(),
	}
	cluster, err := NewCluster(cfg, &RoundRobinLoadBalancer{})
	require.NoError(t, err)
	return NewSession(cluster, zap.NewNop()), ln
}

func TestSessionQueryReturnsVoidResult(t *testing.T) {
	s, ln := newTestSession(t)
	defer ln.Close()

	frame, err := s.Query(context.Background(), "INSERT INTO t (k) VALUES (1)", native.QueryParams{Consistency: native.ConsistencyOne})
	require.NoError(t, err)
	require.IsType(t, &native.VoidResult{}, frame.Body)
}
