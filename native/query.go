package native

import "io"

// QueryParams is the common parameter block shared by QUERY, EXECUTE, and
// (mostly) BATCH: a consistency level plus a set of optionals whose
// presence alone determines the wire flag byte. The named-values flag
// (QueryFlagWithNamesForValues) is deliberately never produced — binding by
// name is a documented server-side defect upstream — so Values is always
// positional.
type QueryParams struct {
	Consistency       Consistency
	Values            [][]byte // nil: no values flag; non-nil (incl. empty): values flag set
	SkipMetadata      bool
	PageSize          *int32
	PagingState       []byte // nil: unset
	SerialConsistency *Consistency
	Timestamp         *int64
}

func (p QueryParams) flags() QueryFlag {
	var f QueryFlag
	if p.Values != nil {
		f |= QueryFlagValues
	}
	if p.SkipMetadata {
		f |= QueryFlagSkipMetadata
	}
	if p.PageSize != nil {
		f |= QueryFlagPageSize
	}
	if p.PagingState != nil {
		f |= QueryFlagWithPagingState
	}
	if p.SerialConsistency != nil {
		f |= QueryFlagWithSerialConsistency
	}
	if p.Timestamp != nil {
		f |= QueryFlagWithDefaultTimestamp
	}
	return f
}

func encodeQueryParams(w io.Writer, p QueryParams) error {
	if err := WriteShort(w, uint16(p.Consistency)); err != nil {
		return err
	}
	flags := p.flags()
	if _, err := w.Write([]byte{byte(flags)}); err != nil {
		return err
	}
	if flags.Has(QueryFlagValues) {
		if err := WriteShort(w, uint16(len(p.Values))); err != nil {
			return err
		}
		for _, v := range p.Values {
			if err := WriteBytes(w, v); err != nil {
				return err
			}
		}
	}
	if flags.Has(QueryFlagPageSize) {
		if err := WriteInt(w, *p.PageSize); err != nil {
			return err
		}
	}
	if flags.Has(QueryFlagWithPagingState) {
		if err := WriteBytes(w, p.PagingState); err != nil {
			return err
		}
	}
	if flags.Has(QueryFlagWithSerialConsistency) {
		if err := WriteShort(w, uint16(*p.SerialConsistency)); err != nil {
			return err
		}
	}
	if flags.Has(QueryFlagWithDefaultTimestamp) {
		if err := WriteLong(w, *p.Timestamp); err != nil {
			return err
		}
	}
	return nil
}

func decodeQueryParams(r io.Reader) (QueryParams, error) {
	var p QueryParams
	cons, err := ReadShort(r)
	if err != nil {
		return p, err
	}
	p.Consistency = Consistency(cons)
	flagByte, err := readFull(r, 1)
	if err != nil {
		return p, decodeErr("query flags", err)
	}
	flags := QueryFlag(flagByte[0])
	if flags.Has(QueryFlagValues) {
		n, err := ReadShort(r)
		if err != nil {
			return p, err
		}
		p.Values = make([][]byte, n)
		for i := range p.Values {
			if p.Values[i], err = ReadBytes(r); err != nil {
				return p, err
			}
		}
	}
	p.SkipMetadata = flags.Has(QueryFlagSkipMetadata)
	if flags.Has(QueryFlagPageSize) {
		v, err := ReadInt(r)
		if err != nil {
			return p, err
		}
		p.PageSize = &v
	}
	if flags.Has(QueryFlagWithPagingState) {
		if p.PagingState, err = ReadBytes(r); err != nil {
			return p, err
		}
	}
	if flags.Has(QueryFlagWithSerialConsistency) {
		v, err := ReadShort(r)
		if err != nil {
			return p, err
		}
		sc := Consistency(v)
		p.SerialConsistency = &sc
	}
	if flags.Has(QueryFlagWithDefaultTimestamp) {
		v, err := ReadLong(r)
		if err != nil {
			return p, err
		}
		p.Timestamp = &v
	}
	return p, nil
}

// Query is the QUERY request body: a CQL string plus QueryParams.
type Query struct {
	QueryString string
	Params      QueryParams
}

func (*Query) OpCode() OpCode { return OpQuery }

func encodeQuery(w io.Writer, q *Query, _ Version) error {
	if err := WriteLongString(w, q.QueryString); err != nil {
		return err
	}
	return encodeQueryParams(w, q.Params)
}

func decodeQuery(r io.Reader) (*Query, error) {
	s, err := ReadLongString(r)
	if err != nil {
		return nil, err
	}
	params, err := decodeQueryParams(r)
	if err != nil {
		return nil, err
	}
	return &Query{QueryString: s, Params: params}, nil
}

// Execute is the EXECUTE request body: a prepared-statement id (and, from
// protocol v5 on, the result-metadata id) plus QueryParams.
type Execute struct {
	ID               []byte
	ResultMetadataID []byte
	Params           QueryParams
}

func (*Execute) OpCode() OpCode { return OpExecute }

func encodeExecute(w io.Writer, e *Execute, version Version) error {
	if err := WriteShortBytes(w, e.ID); err != nil {
		return err
	}
	if version.SupportsV5Framing() {
		if err := WriteShortBytes(w, e.ResultMetadataID); err != nil {
			return err
		}
	}
	return encodeQueryParams(w, e.Params)
}

func decodeExecute(r io.Reader, version Version) (*Execute, error) {
	id, err := ReadShortBytes(r)
	if err != nil {
		return nil, err
	}
	e := &Execute{ID: id}
	if version.SupportsV5Framing() {
		if e.ResultMetadataID, err = ReadShortBytes(r); err != nil {
			return nil, err
		}
	}
	if e.Params, err = decodeQueryParams(r); err != nil {
		return nil, err
	}
	return e, nil
}

// Prepare is the PREPARE request body: the CQL string to compile server-side.
type Prepare struct {
	Query string
}

func (*Prepare) OpCode() OpCode { return OpPrepare }
