package proxycore

import (
	"sync"

	"cqldriver/native"
)

// PreparedStatement is the handle returned by Session.Prepare. Its id is
// guarded by a read-write lock so a future re-preparation on an UNPREPARED
// error could swap it under the write lock without blocking concurrent
// readers; re-preparation itself is not wired into any automatic retry
// here, left as an explicit capability for callers.
type PreparedStatement struct {
	mu                sync.RWMutex
	id                []byte
	resultMetadataID  []byte
	variablesMetadata *native.RowsMetadata
	resultMetadata    *native.RowsMetadata
	query             string
}

func newPreparedStatement(query string, res *native.PreparedResult) *PreparedStatement {
	return &PreparedStatement{
		id:                res.ID,
		resultMetadataID:  res.ResultMetadataID,
		variablesMetadata: res.VariablesMetadata,
		resultMetadata:    res.ResultMetadata,
		query:             query,
	}
}

// ID returns the current prepared-statement id.
func (p *PreparedStatement) ID() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.id
}

// ResultMetadataID returns the v5 result-metadata id, if any.
func (p *PreparedStatement) ResultMetadataID() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.resultMetadataID
}

// VariablesMetadata describes the bind-variable columns.
func (p *PreparedStatement) VariablesMetadata() *native.RowsMetadata {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.variablesMetadata
}

// Query returns the original CQL text this statement was prepared from.
func (p *PreparedStatement) Query() string {
	return p.query
}

// reprepare swaps the id atomically under the write lock, for a caller that
// chooses to handle UNPREPARED errors by re-issuing PREPARE.
func (p *PreparedStatement) reprepare(res *native.PreparedResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.id = res.ID
	p.resultMetadataID = res.ResultMetadataID
	p.variablesMetadata = res.VariablesMetadata
	p.resultMetadata = res.ResultMetadata
}
