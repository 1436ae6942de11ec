package msg

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/reprise/entity"
	"github.com/roach88/reprise/value"
)

// Encode serializes a message to its wire form: a single JSON object with
// the kind name first, then the kind-specific fields. Object keys inside
// values are emitted in canonical order, so encoding is byte-stable and
// suitable for golden comparison and journal storage.
func Encode(m Message) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.MsgKind(), err)
	}
	// Splice the kind tag in front of the struct fields.
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"kind":%q`, m.MsgKind())
	if !bytes.Equal(body, []byte("{}")) {
		buf.WriteByte(',')
		buf.Write(body[1 : len(body)-1])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode parses a wire-form message. Unknown kinds and malformed payloads
// are errors; the taxonomy is closed.
func Decode(data []byte) (Message, error) {
	var probe struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	switch probe.Kind {
	case KindEntityStateChanged:
		var raw struct {
			Offset int64           `json:"offset"`
			State  json.RawMessage `json:"state"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		state, err := value.Decode(raw.State)
		if err != nil {
			return nil, fmt.Errorf("decode %s state: %w", probe.Kind, err)
		}
		return EntityStateChanged{Offset: raw.Offset, State: state}, nil

	case KindCreateEntityRequestReceived:
		var raw struct {
			Offset int64           `json:"offset"`
			Args   json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		args, err := decodeObject(raw.Args)
		if err != nil {
			return nil, fmt.Errorf("decode %s args: %w", probe.Kind, err)
		}
		return CreateEntityRequestReceived{Offset: raw.Offset, Args: args}, nil

	case KindEntityMethodRequestReceived:
		var raw struct {
			Offset int64           `json:"offset"`
			Method string          `json:"method"`
			Args   json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		args, err := decodeObject(raw.Args)
		if err != nil {
			return nil, fmt.Errorf("decode %s args: %w", probe.Kind, err)
		}
		return EntityMethodRequestReceived{Offset: raw.Offset, Method: raw.Method, Args: args}, nil

	case KindEntityMethodRequestSent:
		var raw struct {
			Offset      int64           `json:"offset"`
			TraceOffset int64           `json:"trace_offset"`
			Receiver    json.RawMessage `json:"receiver"`
			Method      string          `json:"method"`
			Args        json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		receiver, err := decodeRef(raw.Receiver)
		if err != nil {
			return nil, fmt.Errorf("decode %s receiver: %w", probe.Kind, err)
		}
		args, err := decodeObject(raw.Args)
		if err != nil {
			return nil, fmt.Errorf("decode %s args: %w", probe.Kind, err)
		}
		return EntityMethodRequestSent{
			Offset:      raw.Offset,
			TraceOffset: raw.TraceOffset,
			Receiver:    receiver,
			Method:      raw.Method,
			Args:        args,
		}, nil

	case KindEntityMethodResponseReceived:
		var raw struct {
			Offset        int64           `json:"offset"`
			RequestOffset int64           `json:"request_offset"`
			Response      json.RawMessage `json:"response"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		resp, err := value.Decode(raw.Response)
		if err != nil {
			return nil, fmt.Errorf("decode %s response: %w", probe.Kind, err)
		}
		return EntityMethodResponseReceived{Offset: raw.Offset, RequestOffset: raw.RequestOffset, Response: resp}, nil

	case KindEntityMethodErrorReceived:
		offset, reqOffset, derr, err := decodeErrorReceived(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", probe.Kind, err)
		}
		return EntityMethodErrorReceived{Offset: offset, RequestOffset: reqOffset, Error: derr}, nil

	case KindEntityMethodResponseSent:
		var raw struct {
			Offset        int64           `json:"offset"`
			RequestOffset int64           `json:"request_offset"`
			Response      json.RawMessage `json:"response"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		resp, err := value.Decode(raw.Response)
		if err != nil {
			return nil, fmt.Errorf("decode %s response: %w", probe.Kind, err)
		}
		return EntityMethodResponseSent{Offset: raw.Offset, RequestOffset: raw.RequestOffset, Response: resp}, nil

	case KindCreateEntityRequestSent:
		var raw struct {
			Offset      int64           `json:"offset"`
			TraceOffset int64           `json:"trace_offset"`
			EntityKind  string          `json:"entity_kind"`
			Args        json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		args, err := decodeObject(raw.Args)
		if err != nil {
			return nil, fmt.Errorf("decode %s args: %w", probe.Kind, err)
		}
		return CreateEntityRequestSent{
			Offset:      raw.Offset,
			TraceOffset: raw.TraceOffset,
			EntityKind:  raw.EntityKind,
			Args:        args,
		}, nil

	case KindCreateEntityResponseReceived:
		var raw struct {
			Offset        int64           `json:"offset"`
			RequestOffset int64           `json:"request_offset"`
			Entity        json.RawMessage `json:"entity"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		ref, err := decodeRef(raw.Entity)
		if err != nil {
			return nil, fmt.Errorf("decode %s entity: %w", probe.Kind, err)
		}
		return CreateEntityResponseReceived{Offset: raw.Offset, RequestOffset: raw.RequestOffset, Entity: ref}, nil

	case KindCreateEntityErrorReceived:
		offset, reqOffset, derr, err := decodeErrorReceived(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", probe.Kind, err)
		}
		return CreateEntityErrorReceived{Offset: offset, RequestOffset: reqOffset, Error: derr}, nil

	case KindCreateEntityResponseSent:
		var m CreateEntityResponseSent
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return m, nil

	case KindServiceRequestSent:
		var raw struct {
			Offset      int64           `json:"offset"`
			TraceOffset int64           `json:"trace_offset"`
			Service     string          `json:"service"`
			Method      string          `json:"method"`
			Args        json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		args, err := decodeObject(raw.Args)
		if err != nil {
			return nil, fmt.Errorf("decode %s args: %w", probe.Kind, err)
		}
		return ServiceRequestSent{
			Offset:      raw.Offset,
			TraceOffset: raw.TraceOffset,
			Service:     raw.Service,
			Method:      raw.Method,
			Args:        args,
		}, nil

	case KindServiceResponseReceived:
		var raw struct {
			Offset        int64           `json:"offset"`
			RequestOffset int64           `json:"request_offset"`
			Response      json.RawMessage `json:"response"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		resp, err := value.Decode(raw.Response)
		if err != nil {
			return nil, fmt.Errorf("decode %s response: %w", probe.Kind, err)
		}
		return ServiceResponseReceived{Offset: raw.Offset, RequestOffset: raw.RequestOffset, Response: resp}, nil

	case KindServiceErrorReceived:
		offset, reqOffset, derr, err := decodeErrorReceived(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", probe.Kind, err)
		}
		return ServiceErrorReceived{Offset: offset, RequestOffset: reqOffset, Error: derr}, nil

	case KindErrorRaised:
		var raw struct {
			Offset        int64           `json:"offset"`
			TraceOffset   int64           `json:"trace_offset"`
			RequestOffset int64           `json:"request_offset"`
			Fault         FaultCode       `json:"fault"`
			Error         json.RawMessage `json:"error"`
			Reason        string          `json:"reason"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		m := ErrorRaised{
			Offset:        raw.Offset,
			TraceOffset:   raw.TraceOffset,
			RequestOffset: raw.RequestOffset,
			Fault:         raw.Fault,
			Reason:        raw.Reason,
		}
		if len(raw.Error) > 0 && !bytes.Equal(raw.Error, []byte("null")) {
			derr, err := decodeDomainError(raw.Error)
			if err != nil {
				return nil, fmt.Errorf("decode %s error: %w", probe.Kind, err)
			}
			m.Error = &derr
		}
		return m, nil

	default:
		return nil, fmt.Errorf("decode message: unknown kind %q", probe.Kind)
	}
}

// DecodeAll parses a sequence of newline-delimited wire-form messages.
func DecodeAll(lines [][]byte) ([]Message, error) {
	msgs := make([]Message, 0, len(lines))
	for i, line := range lines {
		m, err := Decode(line)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func decodeObject(data json.RawMessage) (value.Object, error) {
	if len(data) == 0 {
		return value.Object{}, nil
	}
	v, err := value.Decode(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(value.Object)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", v)
	}
	return obj, nil
}

func decodeRef(data json.RawMessage) (value.Ref, error) {
	v, err := value.Decode(data)
	if err != nil {
		return value.Ref{}, err
	}
	ref, ok := v.(value.Ref)
	if !ok {
		return value.Ref{}, fmt.Errorf("expected entity ref, got %T", v)
	}
	return ref, nil
}

func decodeErrorReceived(data []byte) (offset, reqOffset int64, derr entity.DomainError, err error) {
	var raw struct {
		Offset        int64           `json:"offset"`
		RequestOffset int64           `json:"request_offset"`
		Error         json.RawMessage `json:"error"`
	}
	if err = json.Unmarshal(data, &raw); err != nil {
		return 0, 0, entity.DomainError{}, err
	}
	derr, err = decodeDomainError(raw.Error)
	if err != nil {
		return 0, 0, entity.DomainError{}, err
	}
	return raw.Offset, raw.RequestOffset, derr, nil
}

func decodeDomainError(data json.RawMessage) (entity.DomainError, error) {
	var raw struct {
		Name string          `json:"name"`
		Args json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return entity.DomainError{}, err
	}
	if raw.Name == "" {
		return entity.DomainError{}, fmt.Errorf("domain error requires a name")
	}
	args, err := decodeObject(raw.Args)
	if err != nil {
		return entity.DomainError{}, fmt.Errorf("domain error args: %w", err)
	}
	return entity.DomainError{Name: raw.Name, Args: args}, nil
}
