package component

import (
	"encoding/json"
	"fmt"
)

// outputEnvelope is the serialized form of a node output stored in a cache
// entry. Exactly one field is set; the envelope preserves enough shape for
// a cache replay to hand downstream consumers the same types a fresh
// computation would.
type outputEnvelope struct {
	Resource *Resource `json:"resource,omitempty"`
	// Messages deliberately has no omitempty: an empty sequence is a
	// legitimate output and must survive the round trip as non-nil.
	Messages []*Message `json:"messages"`
	Value    any        `json:"value,omitempty"`
	IsValue  bool       `json:"is_value,omitempty"`
}

// EncodeOutput serializes a node output into its cache descriptor form.
func EncodeOutput(output any) (json.RawMessage, error) {
	var env outputEnvelope
	switch v := output.(type) {
	case Resource:
		env.Resource = &v
	case *Resource:
		env.Resource = v
	case []*Message:
		// Distinguish an empty sequence from an absent one.
		if v == nil {
			v = []*Message{}
		}
		env.Messages = v
	case *Message:
		env.Messages = []*Message{v}
	default:
		env.Value = v
		env.IsValue = true
	}
	data, err := json.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("encoding node output: %w", err)
	}
	return data, nil
}

// DecodeOutput restores a node output from its cache descriptor.
func DecodeOutput(raw json.RawMessage) (any, error) {
	var env outputEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decoding node output: %w", err)
	}
	switch {
	case env.Resource != nil:
		return *env.Resource, nil
	case env.Messages != nil:
		return env.Messages, nil
	case env.IsValue:
		return env.Value, nil
	default:
		return nil, nil
	}
}
