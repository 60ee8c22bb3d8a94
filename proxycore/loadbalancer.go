package proxycore

import "sync/atomic"

// QueryHints carries the optional routing hints a smarter load balancer
// could use (prepared-statement routing key, consistency level); round
// robin ignores them.
type QueryHints struct {
	RoutingKey  []byte
	Consistency byte
}

// LoadBalancer picks the next pool index to try out of numPools. It is a
// pure function of its own state plus hints; it never blocks.
type LoadBalancer interface {
	Next(numPools int, hints QueryHints) int
}

// RoundRobinLoadBalancer cycles through pool indices via an atomic counter
// modulo numPools.
type RoundRobinLoadBalancer struct {
	counter uint64
}

func (b *RoundRobinLoadBalancer) Next(numPools int, _ QueryHints) int {
	if numPools <= 0 {
		return -1
	}
	n := atomic.AddUint64(&b.counter, 1)
	return int(n % uint64(numPools))
}
