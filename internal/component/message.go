package component

// Message is the unit of data flowing between nodes during inference: an
// open key->value record plus the structured outputs accumulated by each
// processing stage it has passed through.
type Message struct {
	// Data carries the open record (raw text, request identifiers, side
	// metadata) the source node built from external input.
	Data map[string]any `json:"data"`

	// Outputs maps a processing stage's node name to that stage's
	// structured output, accumulated as the message moves downstream.
	Outputs map[string]any `json:"outputs,omitempty"`
}

// NewMessage builds a message around the given record.
func NewMessage(data map[string]any) *Message {
	if data == nil {
		data = make(map[string]any)
	}
	return &Message{Data: data}
}

// Get returns a record value and whether it is present.
func (m *Message) Get(key string) (any, bool) {
	v, ok := m.Data[key]
	return v, ok
}

// Text returns the message text, or "" when absent.
func (m *Message) Text() string {
	if v, ok := m.Data["text"].(string); ok {
		return v
	}
	return ""
}

// SetOutput records a stage's structured output on the message.
func (m *Message) SetOutput(stage string, output any) {
	if m.Outputs == nil {
		m.Outputs = make(map[string]any)
	}
	m.Outputs[stage] = output
}

// Copy returns a message whose record and outputs can be extended without
// affecting the original. Values are shared; stages must treat upstream
// values as read-only.
func (m *Message) Copy() *Message {
	data := make(map[string]any, len(m.Data))
	for k, v := range m.Data {
		data[k] = v
	}
	out := &Message{Data: data}
	if len(m.Outputs) > 0 {
		out.Outputs = make(map[string]any, len(m.Outputs))
		for k, v := range m.Outputs {
			out.Outputs[k] = v
		}
	}
	return out
}
