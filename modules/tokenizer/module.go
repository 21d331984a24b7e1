// Package tokenizer provides a whitespace tokenizer split into two
// components, mirroring the train/process split of pipeline graphs: the
// trainer scans messages, assigns each distinct token an id, and persists
// the vocabulary into its node's resource; the annotator consumes that
// resource by reference and marks up messages with tokens and ids.
package tokenizer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/plexusml/plexus/internal/component"
)

const vocabFile = "vocab.json"

// Config is shared by both components; tokenization must agree between
// training and annotation.
type Config struct {
	Lowercase bool `cty:"lowercase"`
}

func (c Config) tokenize(text string) []string {
	if c.Lowercase {
		text = strings.ToLower(text)
	}
	return strings.Fields(text)
}

// TrainerProvider registers the vocabulary-training component.
type TrainerProvider struct{}

// Type implements component.Provider.
func (TrainerProvider) Type() string { return "tokenizer_trainer" }

// Version implements component.Provider.
func (TrainerProvider) Version() string { return "1.0.0" }

// New implements component.Provider.
func (TrainerProvider) New(cfg component.Config, storage component.Storage, res component.Resource, ectx component.ExecutionContext) (component.Component, error) {
	var conf Config
	if err := component.DecodeConfig(cfg, &conf); err != nil {
		return nil, err
	}
	return &trainer{config: conf, storage: storage, res: res}, nil
}

// trainer builds and persists the vocabulary.
type trainer struct {
	config  Config
	storage component.Storage
	res     component.Resource
}

// Train implements component.Trainer: build the vocabulary from the
// incoming messages and persist it into this node's resource.
func (t *trainer) Train(_ context.Context, inputs component.Inputs) (any, error) {
	seen := make(map[string]bool)
	var ordered []string
	for _, msg := range messagesFrom(inputs["messages"]) {
		for _, tok := range t.config.tokenize(msg.Text()) {
			if !seen[tok] {
				seen[tok] = true
				ordered = append(ordered, tok)
			}
		}
	}
	// Sorted assignment keeps ids stable across input orderings.
	sort.Strings(ordered)
	vocab := make(map[string]int, len(ordered))
	for i, tok := range ordered {
		vocab[tok] = i
	}

	dir, err := t.storage.WriteTo(component.Resource{Name: t.res.Name})
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(vocab)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, vocabFile), data, 0o644); err != nil {
		return nil, err
	}
	return t.res, nil
}

// Process delegates to Train: building the vocabulary is mode-independent
// given its inputs, so an uncached trainer node behaves identically in
// every run mode.
func (t *trainer) Process(ctx context.Context, inputs component.Inputs) (any, error) {
	return t.Train(ctx, inputs)
}

// Provider registers the annotating component.
type Provider struct{}

// Type implements component.Provider.
func (Provider) Type() string { return "tokenizer" }

// Version implements component.Provider.
func (Provider) Version() string { return "1.0.0" }

// New implements component.Provider. The vocabulary is restored either
// from this node's own published resource (resuming fine-tuned state) or,
// more commonly, from the trainer node's resource arriving as the "model"
// input at process time.
func (Provider) New(cfg component.Config, storage component.Storage, res component.Resource, ectx component.ExecutionContext) (component.Component, error) {
	var conf Config
	if err := component.DecodeConfig(cfg, &conf); err != nil {
		return nil, err
	}
	a := &annotator{config: conf, storage: storage, node: ectx.NodeName}
	if res.Published() {
		if err := a.restore(res); err != nil {
			return nil, fmt.Errorf("restoring tokenizer vocabulary: %w", err)
		}
	}
	return a, nil
}

// annotator marks up messages using a trained vocabulary.
type annotator struct {
	config  Config
	storage component.Storage
	node    string
	vocab   map[string]int
}

// Process implements component.Component. It never mutates persisted
// state; unknown tokens map to id -1.
func (a *annotator) Process(_ context.Context, inputs component.Inputs) (any, error) {
	if res, ok := inputs["model"].(component.Resource); ok {
		if err := a.restore(res); err != nil {
			return nil, fmt.Errorf("loading tokenizer model: %w", err)
		}
	}

	in := messagesFrom(inputs["messages"])
	out := make([]*component.Message, 0, len(in))
	for _, msg := range in {
		tokens := a.config.tokenize(msg.Text())
		ids := make([]int, len(tokens))
		for i, tok := range tokens {
			if id, ok := a.vocab[tok]; ok {
				ids[i] = id
			} else {
				ids[i] = -1
			}
		}
		annotated := msg.Copy()
		annotated.SetOutput(a.node, map[string]any{
			"tokens": tokens,
			"ids":    ids,
		})
		out = append(out, annotated)
	}
	return out, nil
}

func (a *annotator) restore(res component.Resource) error {
	dir, err := a.storage.ReadFrom(res)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(filepath.Join(dir, vocabFile))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, &a.vocab)
}

// messagesFrom tolerates an absent input, yielding no messages.
func messagesFrom(raw any) []*component.Message {
	switch v := raw.(type) {
	case []*component.Message:
		return v
	case *component.Message:
		return []*component.Message{v}
	default:
		return nil
	}
}
