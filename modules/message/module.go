// Package message provides the pipeline's source component: it converts
// one raw incoming user message into the initial pipeline message. Given
// no input it emits an empty sequence; given one input it emits exactly
// one message carrying the text, message identifier, and metadata
// unchanged.
package message

import (
	"context"
	"fmt"

	"github.com/plexusml/plexus/internal/component"
)

// UserMessage is the raw external input shape.
type UserMessage struct {
	Text      string         `json:"text"`
	MessageID string         `json:"message_id"`
	Metadata  map[string]any `json:"metadata"`
}

// Provider registers the message source component.
type Provider struct{}

// Type implements component.Provider.
func (Provider) Type() string { return "message" }

// Version implements component.Provider.
func (Provider) Version() string { return "1.0.0" }

// New implements component.Provider. The converter is stateless.
func (Provider) New(cfg component.Config, _ component.Storage, _ component.Resource, _ component.ExecutionContext) (component.Component, error) {
	if len(cfg) > 0 {
		return nil, fmt.Errorf("message component takes no configuration")
	}
	return &converter{}, nil
}

// converter builds the initial pipeline message from external input.
type converter struct{}

// Process implements component.Component. The input parameter "message"
// holds the raw user message; its absence yields an empty sequence, never
// an error.
func (c *converter) Process(_ context.Context, inputs component.Inputs) (any, error) {
	raw, ok := inputs["message"]
	if !ok || raw == nil {
		return []*component.Message{}, nil
	}

	um, err := coerce(raw)
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"text":       um.Text,
		"message_id": um.MessageID,
		"metadata":   um.Metadata,
	}
	return []*component.Message{component.NewMessage(data)}, nil
}

// coerce accepts the raw input either as a typed UserMessage or as the
// generic mapping a CLI or wire deserializer produces.
func coerce(raw any) (UserMessage, error) {
	switch v := raw.(type) {
	case UserMessage:
		return v, nil
	case *UserMessage:
		return *v, nil
	case map[string]any:
		um := UserMessage{}
		if text, ok := v["text"].(string); ok {
			um.Text = text
		}
		if id, ok := v["message_id"].(string); ok {
			um.MessageID = id
		}
		if meta, ok := v["metadata"].(map[string]any); ok {
			um.Metadata = meta
		}
		return um, nil
	default:
		return UserMessage{}, fmt.Errorf("unsupported message input of type %T", raw)
	}
}
