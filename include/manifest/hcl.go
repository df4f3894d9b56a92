package manifest

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

var hclSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "package", Required: true},
		{Name: "output"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: string(Str), LabelNames: []string{"name"}},
		{Type: string(Bytes), LabelNames: []string{"name"}},
		{Type: string(Array), LabelNames: []string{"name"}},
	},
}

type hclBinding struct {
	Paths  []string `hcl:"paths"`
	Doc    string   `hcl:"doc,optional"`
	Type   string   `hcl:"type,optional"`
	Length int      `hcl:"length,optional"`
}

// ParseHCL parses a manifest written in HCL. Expressions can refer to the variables in env as env.NAME.
// The manifest isn't validated.
func ParseHCL(src []byte, filename string, env map[string]string) (*Manifest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL manifest %s: %w", filename, diags)
	}

	ctx := evalContext(env)
	content, diags := file.Body.Content(hclSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL manifest %s: %w", filename, diags)
	}

	m := newManifest(filename)
	if diags := gohcl.DecodeExpression(content.Attributes["package"].Expr, ctx, &m.Package); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL manifest %s: %w", filename, diags)
	}
	if attr, ok := content.Attributes["output"]; ok {
		if diags := gohcl.DecodeExpression(attr.Expr, ctx, &m.Output); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL manifest %s: %w", filename, diags)
		}
	}

	for _, block := range content.Blocks {
		var parsed hclBinding
		if diags := gohcl.DecodeBody(block.Body, ctx, &parsed); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s block %q in HCL manifest %s: %w", block.Type, block.Labels[0], filename, diags)
		}
		m.Bindings = append(m.Bindings, Binding{
			Kind:     Kind(block.Type),
			Name:     block.Labels[0],
			Paths:    parsed.Paths,
			TypeName: parsed.Type,
			Length:   parsed.Length,
			Doc:      parsed.Doc,
		})
	}

	return m, nil
}

// evalContext returns the context that manifest expressions are evaluated in.
func evalContext(env map[string]string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vars),
		},
	}
}
