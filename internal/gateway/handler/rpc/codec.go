package rpc

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// jsonCodec lets Connect serve plain Go structs. It takes the "json" name so
// clients sending application/json (or application/connect+json) use it.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func handlerOptions(opts ...connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
}
