package ragflow

import (
	"fmt"
	"maps"
)

// ValidationResult reports problems a workflow editor should surface.
// Validation is advisory; Compile and Run accept workflows that fail it.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate checks that a workflow has the components needed to answer a
// query and that its components are connected.
func Validate(nodes []Node, edges []Edge) ValidationResult {
	errs := []string{}
	warnings := []string{}

	present := make(map[NodeType]bool)
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.Type] = true
		if seen[n.ID] {
			errs = append(errs, fmt.Sprintf("Component id '%s' is used more than once", n.ID))
		}
		seen[n.ID] = true
	}

	if !present[TypeUserQuery] {
		errs = append(errs, "Workflow must have a User Query component")
	}
	if !present[TypeOutput] {
		errs = append(errs, "Workflow must have an Output component")
	}
	if !present[TypeLLMEngine] {
		warnings = append(warnings, "Workflow should have an LLM Engine component to generate responses")
	}
	if len(nodes) > 1 && len(edges) == 0 {
		errs = append(errs, "Components must be connected to form a workflow")
	}

	connected := make(map[string]bool, 2*len(edges))
	for _, e := range edges {
		connected[e.Source] = true
		connected[e.Target] = true
	}
	for _, n := range nodes {
		if !connected[n.ID] && len(nodes) > 1 {
			warnings = append(warnings, fmt.Sprintf("Component '%s' is not connected to the workflow", n.Data.Label))
		}
	}

	reg := DefaultRegistry()
	for _, n := range nodes {
		if !reg.Has(n.Type) {
			warnings = append(warnings, fmt.Sprintf("Component '%s' has unknown type '%s' and will not run", n.Data.Label, n.Type))
		}
	}

	return ValidationResult{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}
}

// NodeConfigsFromNodes collects the config of each knowledgeBase and
// llmEngine node, keyed by type. When a type appears twice the later node
// wins.
func NodeConfigsFromNodes(nodes []Node) NodeConfigs {
	configs := NodeConfigs{}
	for _, n := range nodes {
		switch n.Type {
		case TypeKnowledgeBase, TypeLLMEngine:
			cfg := make(map[string]any, len(n.Data.Config))
			maps.Copy(cfg, n.Data.Config)
			configs[string(n.Type)] = cfg
		}
	}
	return configs
}
