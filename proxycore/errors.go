package proxycore

import "errors"

// Sentinel errors checked with errors.Is throughout proxycore. Wrapping
// keeps %w context (connect target, stream id, pool name) attached while
// still letting callers branch on the kind.
var (
	ErrConnectionClosed   = errors.New("proxycore: connection closed")
	ErrPoolExhausted      = errors.New("proxycore: pool exhausted")
	ErrConnectTimeout     = errors.New("proxycore: connect timeout")
	ErrNoAuthenticator    = errors.New("proxycore: server requires authentication but none was configured")
	ErrUnsupportedProtocol = errors.New("proxycore: unsupported protocol version")
	ErrInvalidPoolConfig  = errors.New("proxycore: invalid pool configuration")
	ErrNoPools            = errors.New("proxycore: cluster has no node pools")
)
