package proxycore

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cqldriver/native"
)

// Session is the top-level façade: query/prepare/execute/batch/paged/listen,
// each leasing a connection from the cluster's load balancer and returning
// it when done.
type Session struct {
	cluster *Cluster
	logger  *zap.Logger
}

// NewSession wraps an already-constructed Cluster.
func NewSession(cluster *Cluster, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{cluster: cluster, logger: logger}
}

// withConnection leases a connection, runs fn, and always returns it to its
// pool — even when fn panics is out of scope here; a plain defer covers the
// error and success paths, which is all the façade promises. A successful
// *native.SetKeyspaceResult response updates the cluster's keyspace memo
// here, so every caller that issues a USE (directly or via Query) keeps the
// memo current without repeating the check itself.
func (s *Session) withConnection(ctx context.Context, hints QueryHints, fn func(context.Context, *ConnectionEntry) (*native.Frame, error)) (*native.Frame, error) {
	entry, pool, err := s.cluster.GetConnection(ctx, hints)
	if err != nil {
		return nil, err
	}
	defer pool.Return(entry)
	frame, err := fn(ctx, entry)
	if err != nil {
		return nil, err
	}
	if ks, ok := frame.Body.(*native.SetKeyspaceResult); ok {
		s.cluster.SetKeyspace(ks.Keyspace)
	}
	return frame, nil
}

// Query builds and sends a QUERY frame.
func (s *Session) Query(ctx context.Context, stmt string, params native.QueryParams) (*native.Frame, error) {
	return s.withConnection(ctx, QueryHints{Consistency: byte(params.Consistency)}, func(ctx context.Context, entry *ConnectionEntry) (*native.Frame, error) {
		return entry.Send(ctx, &native.Query{QueryString: stmt, Params: params})
	})
}

// Prepare issues PREPARE and wraps the response in a PreparedStatement.
func (s *Session) Prepare(ctx context.Context, stmt string) (*PreparedStatement, error) {
	frame, err := s.withConnection(ctx, QueryHints{}, func(ctx context.Context, entry *ConnectionEntry) (*native.Frame, error) {
		return entry.Send(ctx, &native.Prepare{Query: stmt})
	})
	if err != nil {
		return nil, err
	}
	res, ok := frame.Body.(*native.PreparedResult)
	if !ok {
		if errMsg, ok := frame.Body.(*native.ErrorMessage); ok {
			return nil, fmt.Errorf("proxycore: prepare failed: %s", errMsg.Message)
		}
		return nil, fmt.Errorf("proxycore: unexpected prepare response %T", frame.Body)
	}
	return newPreparedStatement(stmt, res), nil
}

// Execute builds and sends an EXECUTE frame for a prepared statement.
func (s *Session) Execute(ctx context.Context, prepared *PreparedStatement, values [][]byte, params native.QueryParams) (*native.Frame, error) {
	params.Values = values
	hints := QueryHints{Consistency: byte(params.Consistency)}
	if meta := prepared.VariablesMetadata(); meta != nil && len(meta.Columns) > 0 && len(values) > 0 {
		hints.RoutingKey = values[0]
	}
	return s.withConnection(ctx, hints, func(ctx context.Context, entry *ConnectionEntry) (*native.Frame, error) {
		return entry.Send(ctx, &native.Execute{
			ID:               prepared.ID(),
			ResultMetadataID: prepared.ResultMetadataID(),
			Params:           params,
		})
	})
}

// Batch builds and sends a BATCH frame.
func (s *Session) Batch(ctx context.Context, batch *native.Batch) (*native.Frame, error) {
	return s.withConnection(ctx, QueryHints{Consistency: byte(batch.Consistency)}, func(ctx context.Context, entry *ConnectionEntry) (*native.Frame, error) {
		return entry.Send(ctx, batch)
	})
}

// Paged returns a lazy, restartable page sequence for a plain QUERY,
// resuming from resumeFrom if non-nil.
func (s *Session) Paged(stmt string, params native.QueryParams, resumeFrom []byte) *PageIterator {
	fetch := func(ctx context.Context, pagingState []byte) (*native.RowsResult, error) {
		p := params
		p.PagingState = pagingState
		frame, err := s.Query(ctx, stmt, p)
		if err != nil {
			return nil, err
		}
		return frameToRows(frame)
	}
	return NewPageIterator(fetch, resumeFrom)
}

// PagedExecute returns a lazy, restartable page sequence for a prepared
// statement execution.
func (s *Session) PagedExecute(prepared *PreparedStatement, values [][]byte, params native.QueryParams, resumeFrom []byte) *PageIterator {
	fetch := func(ctx context.Context, pagingState []byte) (*native.RowsResult, error) {
		p := params
		p.PagingState = pagingState
		frame, err := s.Execute(ctx, prepared, values, p)
		if err != nil {
			return nil, err
		}
		return frameToRows(frame)
	}
	return NewPageIterator(fetch, resumeFrom)
}

func frameToRows(frame *native.Frame) (*native.RowsResult, error) {
	switch body := frame.Body.(type) {
	case *native.RowsResult:
		return body, nil
	case *native.ErrorMessage:
		return nil, fmt.Errorf("proxycore: query failed: %s", body.Message)
	default:
		return nil, fmt.Errorf("proxycore: expected rows result, got %T", frame.Body)
	}
}

// EventListener owns a dedicated connection's read loop and the channel of
// decoded server events delivered to the caller.
type EventListener struct {
	entry  *ConnectionEntry
	Events <-chan *native.Frame
}

// Close tears down the dedicated connection, which in turn closes Events.
func (l *EventListener) Close() error {
	return l.entry.Close()
}

// Listen opens a dedicated connection to dial.Endpoint, authenticates with
// dial.Auth when the server asks for it, and
// registers for the requested event kinds. The returned EventListener owns
// the connection for as long as the caller wants events; the event stream is
// finite once Close is called or the connection fails, otherwise infinite.
func (s *Session) Listen(ctx context.Context, dial DialConfig, kinds ...native.EventKind) (*EventListener, error) {
	entry, err := Connect(dial)
	if err != nil {
		return nil, err
	}

	types := make([]string, len(kinds))
	for i, k := range kinds {
		types[i] = string(k)
	}

	events := entry.SubscribeEvents()
	frame, err := entry.Send(ctx, &native.Register{EventTypes: types})
	if err != nil {
		entry.Close()
		return nil, err
	}
	if _, ok := frame.Body.(*native.Ready); !ok {
		entry.Close()
		return nil, fmt.Errorf("proxycore: register rejected, got %T", frame.Body)
	}

	return &EventListener{entry: entry, Events: events}, nil
}
