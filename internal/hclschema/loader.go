// Package hclschema loads pipeline schema documents written in HCL into
// the in-memory schema model. The document format is intentionally small:
// one optional pipeline identity block plus node blocks labeled with the
// component type and the node name.
//
//	pipeline {
//	  name    = "nlu"
//	  version = "2"
//	}
//
//	node "message" "source" {
//	  needs  = { message = "input.message" }
//	}
//
//	node "tokenizer" "tok" {
//	  config { lowercase = true }
//	  needs    = { messages = "source" }
//	  resource = "tokenizer_vocab"
//	  target   = true
//	}
package hclschema

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/plexusml/plexus/internal/ctxlog"
	"github.com/plexusml/plexus/internal/schema"
)

// Loader parses HCL pipeline documents.
type Loader struct{}

// NewLoader creates an HCL schema loader.
func NewLoader() *Loader {
	return &Loader{}
}

// pipelineBlock carries the schema's identity metadata.
type pipelineBlock struct {
	Name    string `hcl:"name,optional"`
	Version string `hcl:"version,optional"`
}

// configBlock defers decoding so attribute values can be evaluated as
// constants.
type configBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// nodeBlock is one `node "<type>" "<name>"` block.
type nodeBlock struct {
	Uses            string            `hcl:"uses,label"`
	Name            string            `hcl:"name,label"`
	Config          *configBlock      `hcl:"config,block"`
	Needs           map[string]string `hcl:"needs,optional"`
	Resource        string            `hcl:"resource,optional"`
	Target          bool              `hcl:"target,optional"`
	ContinueOnError bool              `hcl:"continue_on_error,optional"`
}

// fileRoot is the top-level document structure.
type fileRoot struct {
	Pipeline *pipelineBlock `hcl:"pipeline,block"`
	Nodes    []*nodeBlock   `hcl:"node,block"`
}

// Load parses one pipeline document. Node declaration order in the file is
// preserved; it is the scheduling tie-breaker downstream.
func (l *Loader) Load(ctx context.Context, path string) (*schema.Schema, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL schema loader started.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing schema document %s: %w", path, diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("decoding schema document %s: %w", path, diags)
	}

	s := &schema.Schema{}
	if root.Pipeline != nil {
		s.Name = root.Pipeline.Name
		s.Version = root.Pipeline.Version
	}

	for _, block := range root.Nodes {
		cfg, err := decodeConfig(block)
		if err != nil {
			return nil, fmt.Errorf("node '%s' in %s: %w", block.Name, path, err)
		}
		s.Nodes = append(s.Nodes, &schema.Node{
			Name:            block.Name,
			Uses:            block.Uses,
			Config:          cfg,
			Needs:           block.Needs,
			Resource:        block.Resource,
			Target:          block.Target,
			ContinueOnError: block.ContinueOnError,
		})
	}

	logger.Debug("HCL schema loaded.", "nodes", len(s.Nodes), "pipeline", s.Name)
	return s, nil
}

// decodeConfig evaluates the config block's attributes as constants. Node
// configuration feeds fingerprints, so values must not depend on anything
// outside the document.
func decodeConfig(block *nodeBlock) (map[string]cty.Value, error) {
	if block.Config == nil {
		return nil, nil
	}
	attrs, diags := block.Config.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("config block: %w", diags)
	}
	cfg := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("config attribute '%s' must be a constant: %w", name, diags)
		}
		cfg[name] = val
	}
	return cfg, nil
}
