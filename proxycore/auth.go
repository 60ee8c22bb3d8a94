package proxycore

import "fmt"

// Authenticator drives the SASL-like challenge/response handshake following
// an AUTHENTICATE response. InitialResponse is sent as the first
// AUTH_RESPONSE; Challenge answers each subsequent AUTH_CHALLENGE until the
// server returns AUTH_SUCCESS.
type Authenticator interface {
	InitialResponse(authenticator string) ([]byte, error)
	Challenge(token []byte) ([]byte, error)
}

// PasswordAuthenticator implements Cassandra's PasswordAuthenticator: a
// single response of "\x00<username>\x00<password>" with no further
// challenge rounds expected.
type PasswordAuthenticator struct {
	Username string
	Password string
}

func (a *PasswordAuthenticator) InitialResponse(_ string) ([]byte, error) {
	resp := make([]byte, 0, len(a.Username)+len(a.Password)+2)
	resp = append(resp, 0)
	resp = append(resp, a.Username...)
	resp = append(resp, 0)
	resp = append(resp, a.Password...)
	return resp, nil
}

func (a *PasswordAuthenticator) Challenge(token []byte) ([]byte, error) {
	return nil, fmt.Errorf("proxycore: unexpected auth challenge %q for password authenticator", token)
}
