package proxycore

import (
	"crypto/tls"
)

// Endpoint names one contact point a node pool connects to: a dial address
// plus the optional TLS config to use over it. TLS is an optional transport
// variant selected per endpoint, never globally.
type Endpoint interface {
	Addr() string
	TLSConfig() *tls.Config
}

// EndpointFactory produces the Endpoint for a node, letting callers resolve
// DNS, pick SNI names, or attach per-node certificates without proxycore
// needing to know about service discovery.
type EndpointFactory interface {
	Create(addr string) Endpoint
}

type basicEndpoint struct {
	addr      string
	tlsConfig *tls.Config
}

func (e *basicEndpoint) Addr() string          { return e.addr }
func (e *basicEndpoint) TLSConfig() *tls.Config { return e.tlsConfig }

// BasicEndpointFactory builds plaintext-or-TLS endpoints from a bare address,
// applying the same tls.Config (if any) to every node.
type BasicEndpointFactory struct {
	TLSConfig *tls.Config
}

func (f *BasicEndpointFactory) Create(addr string) Endpoint {
	return &basicEndpoint{addr: addr, tlsConfig: f.TLSConfig}
}
