package proxycore

import (
	"context"

	"cqldriver/native"
)

// pageFetcher issues one more page given an optional paging-state token,
// letting PageIterator stay agnostic to whether it's paging a bare QUERY or
// an EXECUTE.
type pageFetcher func(ctx context.Context, pagingState []byte) (*native.RowsResult, error)

// PageIterator is a lazy, restartable sequence of result pages. Next
// fetches the next page on demand; the final page carries no paging state,
// at which point Next returns io.EOF-equivalent via the done flag.
type PageIterator struct {
	fetch       pageFetcher
	pagingState []byte
	started     bool
	done        bool
}

// NewPageIterator builds an iterator that starts from scratch, or resumes
// from a previously captured PagingState() token.
func NewPageIterator(fetch pageFetcher, resumeFrom []byte) *PageIterator {
	return &PageIterator{fetch: fetch, pagingState: resumeFrom}
}

// Next fetches the next page of rows. Calling Next after the final page
// (Done() == true) returns (nil, false, nil) without issuing a request.
func (it *PageIterator) Next(ctx context.Context) (*native.RowsResult, bool, error) {
	if it.done {
		return nil, false, nil
	}
	res, err := it.fetch(ctx, it.pagingState)
	if err != nil {
		return nil, false, err
	}
	it.started = true
	if res.Metadata.Flags.Has(native.MetadataHasMorePages) && len(res.Metadata.PagingState) > 0 {
		it.pagingState = res.Metadata.PagingState
	} else {
		it.done = true
	}
	return res, true, nil
}

// Done reports whether the final page has already been delivered.
func (it *PageIterator) Done() bool { return it.done }

// PagingState returns the token that would resume this sequence from its
// current position, for handing off to a later, possibly different, session.
func (it *PageIterator) PagingState() []byte { return it.pagingState }
