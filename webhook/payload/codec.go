package payload

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	EncodingJSON    = "json"
	EncodingMsgPack = "msgpack"
)

// Codec encodes a decoded payload for the downstream request
type Codec interface {
	Name() string
	ContentType() string
	Encode(v any) ([]byte, error)
}

// NewCodec returns the codec registered under name
func NewCodec(name string) (Codec, error) {
	switch name {
	case EncodingJSON, "":
		return JSON{}, nil
	case EncodingMsgPack:
		return MsgPack{}, nil
	default:
		return nil, fmt.Errorf("unknown encoding: %s", name)
	}
}

type JSON struct{}

func (JSON) Name() string        { return EncodingJSON }
func (JSON) ContentType() string { return "application/json" }

func (JSON) Encode(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling json: %w", err)
	}
	return b, nil
}

type MsgPack struct{}

func (MsgPack) Name() string        { return EncodingMsgPack }
func (MsgPack) ContentType() string { return "application/msgpack" }

func (MsgPack) Encode(v any) ([]byte, error) {
	b, err := msgpack.Marshal(Normalize(v))
	if err != nil {
		return nil, fmt.Errorf("marshaling msgpack: %w", err)
	}
	return b, nil
}
