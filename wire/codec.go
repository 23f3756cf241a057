package wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrUnknownKind = errors.New("unknown message kind")
	ErrMalformed   = errors.New("malformed frame")
)

// Terminator ends every segment of a SchedulesSend payload. A schedule
// encodes as `scheduled... -1 unscheduled...`, so inside a batch each
// schedule occupies two terminated segments.
const Terminator = -1

// frame field numbers
const (
	fKind  protowire.Number = 1
	fFrom  protowire.Number = 2
	fInts  protowire.Number = 3
	fValue protowire.Number = 4
)

// Marshal encodes an envelope as a protobuf-wire frame.
func Marshal(env Envelope) []byte {
	var ints []int
	var value int
	hasValue := false

	switch m := env.Msg.(type) {
	case ScheduleSend:
		ints = m.Seq
	case SchedulesSend:
		for _, seq := range m.Seqs {
			ints = append(ints, seq...)
			ints = append(ints, Terminator)
		}
	case BoundUpdate:
		value, hasValue = m.Bound, true
	case JobResponse:
		hasValue = true
		if m.Accept {
			value = 1
		}
	case TokenPass:
		value, hasValue = int(m.Color), true
	case OptimalPrefix:
		ints = m.Prefix
	case TasksBroadcast:
		ints = m.Triples
	case Result:
		ints = m.Order
	}

	b := protowire.AppendTag(nil, fKind, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(env.Msg.Kind()))
	b = protowire.AppendTag(b, fFrom, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(env.From))
	if len(ints) > 0 {
		var packed []byte
		for _, v := range ints {
			packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(v)))
		}
		b = protowire.AppendTag(b, fInts, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	if hasValue {
		b = protowire.AppendTag(b, fValue, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(value)))
	}
	return b
}

// Unmarshal decodes a frame produced by Marshal. Unknown fields are skipped.
func Unmarshal(b []byte) (Envelope, error) {
	var kind Kind
	var from int
	var ints []int
	var value int

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fKind && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Envelope{}, fmt.Errorf("%w: kind: %v", ErrMalformed, protowire.ParseError(n))
			}
			kind, b = Kind(v), b[n:]
		case num == fFrom && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Envelope{}, fmt.Errorf("%w: from: %v", ErrMalformed, protowire.ParseError(n))
			}
			from, b = int(v), b[n:]
		case num == fInts && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Envelope{}, fmt.Errorf("%w: ints: %v", ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
			for len(packed) > 0 {
				v, m := protowire.ConsumeVarint(packed)
				if m < 0 {
					return Envelope{}, fmt.Errorf("%w: ints: %v", ErrMalformed, protowire.ParseError(m))
				}
				ints = append(ints, int(protowire.DecodeZigZag(v)))
				packed = packed[m:]
			}
		case num == fValue && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Envelope{}, fmt.Errorf("%w: value: %v", ErrMalformed, protowire.ParseError(n))
			}
			value, b = int(protowire.DecodeZigZag(v)), b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Envelope{}, fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	msg, err := build(kind, ints, value)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{From: from, Msg: msg}, nil
}

func build(kind Kind, ints []int, value int) (Message, error) {
	switch kind {
	case MK_ScheduleSend:
		return ScheduleSend{Seq: ints}, nil
	case MK_SchedulesSend:
		seqs, err := splitBatch(ints)
		if err != nil {
			return nil, err
		}
		return SchedulesSend{Seqs: seqs}, nil
	case MK_BoundUpdate:
		return BoundUpdate{Bound: value}, nil
	case MK_OptimalPrefix:
		return OptimalPrefix{Prefix: ints}, nil
	case MK_JobRequest:
		return JobRequest{}, nil
	case MK_JobResponse:
		return JobResponse{Accept: value != 0}, nil
	case MK_TokenPass:
		if value != int(TC_Green) && value != int(TC_Red) {
			return nil, fmt.Errorf("%w: token color %d", ErrMalformed, value)
		}
		return TokenPass{Color: Color(value)}, nil
	case MK_End:
		return End{}, nil
	case MK_TasksBroadcast:
		if len(ints)%3 != 0 {
			return nil, fmt.Errorf("%w: %d integers is not a list of task triples", ErrMalformed, len(ints))
		}
		return TasksBroadcast{Triples: ints}, nil
	case MK_Result:
		return Result{Order: ints}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
}

// splitBatch cuts a SchedulesSend payload back into single schedule
// encodings, two terminated segments per schedule.
func splitBatch(ints []int) ([][]int, error) {
	var seqs [][]int
	start := 0
	separators := 0
	for i, v := range ints {
		if v != Terminator {
			continue
		}
		separators++
		if separators%2 == 0 {
			seqs = append(seqs, ints[start:i])
			start = i + 1
		}
	}
	if start != len(ints) {
		return nil, fmt.Errorf("%w: unterminated schedule in batch", ErrMalformed)
	}
	return seqs, nil
}
