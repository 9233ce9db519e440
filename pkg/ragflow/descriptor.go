package ragflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/randalmurphal/ragflow/pkg/ragflow/config"
)

// Position is a node's canvas coordinate. The compiler ignores it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData carries a node's label and type-specific configuration.
type NodeData struct {
	Label  string         `json:"label"`
	Config map[string]any `json:"config"`
}

// Node is a workflow node descriptor.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// Edge is a directed dependency between two node IDs.
// Handles are carried through but never interpreted.
type Edge struct {
	ID           string  `json:"id"`
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	SourceHandle *string `json:"sourceHandle,omitempty"`
	TargetHandle *string `json:"targetHandle,omitempty"`
}

// Workflow is a named node and edge list.
type Workflow struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Nodes       []Node `json:"nodes"`
	Edges       []Edge `json:"edges"`
}

type rawPosition struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type rawData struct {
	Label  *string         `json:"label"`
	Config json.RawMessage `json:"config"`
}

type rawNode struct {
	ID       *string      `json:"id"`
	Type     *string      `json:"type"`
	Position *rawPosition `json:"position"`
	Data     *rawData     `json:"data"`
}

type rawEdge struct {
	ID           *string `json:"id"`
	Source       *string `json:"source"`
	Target       *string `json:"target"`
	SourceHandle *string `json:"sourceHandle"`
	TargetHandle *string `json:"targetHandle"`
}

type rawWorkflow struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Nodes       []json.RawMessage `json:"nodes"`
	Edges       []json.RawMessage `json:"edges"`
}

// ParseNodes decodes a JSON array of node descriptors.
//
// Every node must carry id, type, position {x, y} and data {label}.
// data.config defaults to an empty map. Unknown fields are ignored, and so
// is an unknown type: it parses but is never scheduled.
func ParseNodes(data []byte) ([]Node, error) {
	var raws []json.RawMessage
	if err := decodeArray(data, "nodes", &raws); err != nil {
		return nil, err
	}
	return parseNodes(raws, "nodes")
}

// ParseEdges decodes a JSON array of edge descriptors.
// Every edge must carry id, source and target.
func ParseEdges(data []byte) ([]Edge, error) {
	var raws []json.RawMessage
	if err := decodeArray(data, "edges", &raws); err != nil {
		return nil, err
	}
	return parseEdges(raws, "edges")
}

// ParseWorkflow decodes a JSON workflow document with nodes and edges.
// Absent nodes or edges decode as empty lists.
func ParseWorkflow(data []byte) (*Workflow, error) {
	var raw rawWorkflow
	if err := decodeStrict(data, &raw); err != nil {
		return nil, err
	}

	nodes, err := parseNodes(raw.Nodes, "nodes")
	if err != nil {
		return nil, err
	}
	edges, err := parseEdges(raw.Edges, "edges")
	if err != nil {
		return nil, err
	}

	return &Workflow{
		Name:        raw.Name,
		Description: raw.Description,
		Nodes:       nodes,
		Edges:       edges,
	}, nil
}

// ParseWorkflowYAML decodes a YAML workflow document.
func ParseWorkflowYAML(data []byte) (*Workflow, error) {
	jsonData, err := config.YAMLToJSON(data)
	if err != nil {
		return nil, &ParseError{Msg: "invalid YAML", Err: err}
	}
	return ParseWorkflow(jsonData)
}

// LoadWorkflow reads a workflow file. The format is chosen by extension:
// .yaml and .yml are YAML, anything else is JSON.
func LoadWorkflow(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseWorkflowYAML(data)
	default:
		return ParseWorkflow(data)
	}
}

func decodeArray(data []byte, what string, out *[]json.RawMessage) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if json.Valid(trimmed) {
			return &SchemaError{Field: what, Msg: "must be an array"}
		}
	}
	return decodeStrict(data, out)
}

func decodeStrict(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return classify(err, "")
	}
	return nil
}

// classify maps a json error onto ParseError or SchemaError.
func classify(err error, prefix string) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if prefix != "" && field != "" {
			field = prefix + "." + field
		} else if prefix != "" {
			field = prefix
		}
		return &SchemaError{Field: field, Msg: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value)}
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &ParseError{Msg: fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset), Err: err}
	}
	return &ParseError{Msg: err.Error(), Err: err}
}

func missing(field string) error {
	return &SchemaError{Field: field, Msg: "required field is missing"}
}

func parseNodes(raws []json.RawMessage, prefix string) ([]Node, error) {
	nodes := make([]Node, 0, len(raws))
	for i, msg := range raws {
		path := fmt.Sprintf("%s[%d]", prefix, i)
		n, err := parseNode(msg, path)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func parseNode(msg json.RawMessage, path string) (Node, error) {
	var raw rawNode
	if err := json.Unmarshal(msg, &raw); err != nil {
		return Node{}, classify(err, path)
	}

	switch {
	case raw.ID == nil:
		return Node{}, missing(path + ".id")
	case *raw.ID == "":
		return Node{}, &SchemaError{Field: path + ".id", Msg: "must not be empty"}
	case raw.Type == nil:
		return Node{}, missing(path + ".type")
	case raw.Position == nil:
		return Node{}, missing(path + ".position")
	case raw.Position.X == nil:
		return Node{}, missing(path + ".position.x")
	case raw.Position.Y == nil:
		return Node{}, missing(path + ".position.y")
	case raw.Data == nil:
		return Node{}, missing(path + ".data")
	case raw.Data.Label == nil:
		return Node{}, missing(path + ".data.label")
	}

	cfg := map[string]any{}
	if len(raw.Data.Config) > 0 && string(raw.Data.Config) != "null" {
		if err := json.Unmarshal(raw.Data.Config, &cfg); err != nil {
			return Node{}, classify(err, path+".data.config")
		}
	}

	return Node{
		ID:       *raw.ID,
		Type:     NodeType(*raw.Type),
		Position: Position{X: *raw.Position.X, Y: *raw.Position.Y},
		Data:     NodeData{Label: *raw.Data.Label, Config: cfg},
	}, nil
}

func parseEdges(raws []json.RawMessage, prefix string) ([]Edge, error) {
	edges := make([]Edge, 0, len(raws))
	for i, msg := range raws {
		path := fmt.Sprintf("%s[%d]", prefix, i)

		var raw rawEdge
		if err := json.Unmarshal(msg, &raw); err != nil {
			return nil, classify(err, path)
		}
		switch {
		case raw.ID == nil:
			return nil, missing(path + ".id")
		case raw.Source == nil:
			return nil, missing(path + ".source")
		case raw.Target == nil:
			return nil, missing(path + ".target")
		}

		edges = append(edges, Edge{
			ID:           *raw.ID,
			Source:       *raw.Source,
			Target:       *raw.Target,
			SourceHandle: raw.SourceHandle,
			TargetHandle: raw.TargetHandle,
		})
	}
	return edges, nil
}
