// Package yamlschema loads pipeline schema documents written in YAML, the
// configuration format most model-training stacks already speak:
//
//	pipeline:
//	  name: nlu
//	  version: "2"
//	nodes:
//	  - name: source
//	    uses: message
//	    needs: { message: input.message }
//	  - name: tok
//	    uses: tokenizer
//	    config: { lowercase: true }
//	    needs: { messages: source }
//	    resource: tokenizer_vocab
//	    target: true
package yamlschema

import (
	"context"
	"fmt"
	"os"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/plexusml/plexus/internal/ctxlog"
	"github.com/plexusml/plexus/internal/schema"
)

// Loader parses YAML pipeline documents.
type Loader struct{}

// NewLoader creates a YAML schema loader.
func NewLoader() *Loader {
	return &Loader{}
}

type pipelineDoc struct {
	Pipeline struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"pipeline"`
	Nodes []nodeDoc `yaml:"nodes"`
}

type nodeDoc struct {
	Name            string            `yaml:"name"`
	Uses            string            `yaml:"uses"`
	Config          map[string]any    `yaml:"config"`
	Needs           map[string]string `yaml:"needs"`
	Resource        string            `yaml:"resource"`
	Target          bool              `yaml:"target"`
	ContinueOnError bool              `yaml:"continue_on_error"`
}

// Load parses one pipeline document, preserving node declaration order.
func (l *Loader) Load(ctx context.Context, path string) (*schema.Schema, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML schema loader started.", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema document %s: %w", path, err)
	}

	var doc pipelineDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing schema document %s: %w", path, err)
	}

	s := &schema.Schema{Name: doc.Pipeline.Name, Version: doc.Pipeline.Version}
	for _, nd := range doc.Nodes {
		cfg, err := toCtyConfig(nd.Config)
		if err != nil {
			return nil, fmt.Errorf("node '%s' in %s: %w", nd.Name, path, err)
		}
		s.Nodes = append(s.Nodes, &schema.Node{
			Name:            nd.Name,
			Uses:            nd.Uses,
			Config:          cfg,
			Needs:           nd.Needs,
			Resource:        nd.Resource,
			Target:          nd.Target,
			ContinueOnError: nd.ContinueOnError,
		})
	}

	logger.Debug("YAML schema loaded.", "nodes", len(s.Nodes), "pipeline", s.Name)
	return s, nil
}

// toCtyConfig converts decoded YAML values into the typed config values
// the rest of the engine works with.
func toCtyConfig(cfg map[string]any) (map[string]cty.Value, error) {
	if len(cfg) == 0 {
		return nil, nil
	}
	out := make(map[string]cty.Value, len(cfg))
	for k, v := range cfg {
		val, err := toCtyValue(v)
		if err != nil {
			return nil, fmt.Errorf("config key '%s': %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}

func toCtyValue(v any) (cty.Value, error) {
	switch t := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case bool:
		return cty.BoolVal(t), nil
	case string:
		return cty.StringVal(t), nil
	case int:
		return cty.NumberIntVal(int64(t)), nil
	case int64:
		return cty.NumberIntVal(t), nil
	case float64:
		return cty.NumberFloatVal(t), nil
	case []any:
		vals := make([]cty.Value, 0, len(t))
		for _, item := range t {
			val, err := toCtyValue(item)
			if err != nil {
				return cty.NilVal, err
			}
			vals = append(vals, val)
		}
		if len(vals) == 0 {
			return cty.EmptyTupleVal, nil
		}
		return cty.TupleVal(vals), nil
	case map[string]any:
		vals := make(map[string]cty.Value, len(t))
		for k, item := range t {
			val, err := toCtyValue(item)
			if err != nil {
				return cty.NilVal, err
			}
			vals[k] = val
		}
		return cty.ObjectVal(vals), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported config value of type %T", v)
	}
}
