package ragflow

import (
	"encoding/json"

	"github.com/randalmurphal/ragflow/pkg/ragflow/config"
)

// Value is an optional string. The zero value is null.
type Value struct {
	s  string
	ok bool
}

// Null is the absent Value.
var Null = Value{}

// Some returns a present Value holding s. The empty string is present.
func Some(s string) Value {
	return Value{s: s, ok: true}
}

// Get returns the string and whether it is present.
func (v Value) Get() (string, bool) {
	return v.s, v.ok
}

// String returns the held string, or "" when null.
func (v Value) String() string {
	return v.s
}

// IsNull reports whether v is absent.
func (v Value) IsNull() bool {
	return !v.ok
}

// Truthy reports whether v is present and non-empty.
func (v Value) Truthy() bool {
	return v.ok && v.s != ""
}

// MarshalJSON encodes null or a JSON string.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.ok {
		return []byte("null"), nil
	}
	return json.Marshal(v.s)
}

// UnmarshalJSON decodes null or a JSON string.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Null
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = Some(s)
	return nil
}

// NodeConfigs maps a node type to that type's configuration.
type NodeConfigs map[string]map[string]any

// For returns the configuration section for a node type.
// A missing section yields an empty Config.
func (nc NodeConfigs) For(t NodeType) config.Config {
	return config.New(nc[string(t)])
}

// State is the record threaded through every node of a run.
//
// Query and NodeConfigs are fixed for the run. The remaining fields start
// null and are filled in by node updates.
type State struct {
	Query       string      `json:"query"`
	NodeConfigs NodeConfigs `json:"node_configs"`

	Context          Value `json:"context"`
	LLMResponse      Value `json:"llm_response"`
	WebSearchResults Value `json:"web_search_results"`
	FinalOutput      Value `json:"final_output"`
	Error            Value `json:"error"`
}

// NewState creates the initial state for a run.
func NewState(query string, configs NodeConfigs) State {
	if configs == nil {
		configs = NodeConfigs{}
	}
	return State{Query: query, NodeConfigs: configs}
}

type field uint8

const (
	fieldQuery field = 1 << iota
	fieldContext
	fieldLLMResponse
	fieldWebSearchResults
	fieldFinalOutput
	fieldError
)

// Update is a partial state produced by one node. Only fields set through
// the With methods are merged; everything else is left untouched.
type Update struct {
	set field

	query            string
	context          Value
	llmResponse      Value
	webSearchResults Value
	finalOutput      Value
	err              Value
}

// WithQuery sets the query.
func (u Update) WithQuery(q string) Update {
	u.set |= fieldQuery
	u.query = q
	return u
}

// WithContext sets the document context.
func (u Update) WithContext(v Value) Update {
	u.set |= fieldContext
	u.context = v
	return u
}

// WithLLMResponse sets the generated response.
func (u Update) WithLLMResponse(v Value) Update {
	u.set |= fieldLLMResponse
	u.llmResponse = v
	return u
}

// WithWebSearchResults sets the formatted web search text.
func (u Update) WithWebSearchResults(v Value) Update {
	u.set |= fieldWebSearchResults
	u.webSearchResults = v
	return u
}

// WithFinalOutput sets the terminal output.
func (u Update) WithFinalOutput(v Value) Update {
	u.set |= fieldFinalOutput
	u.finalOutput = v
	return u
}

// WithError records an error message.
func (u Update) WithError(msg string) Update {
	u.set |= fieldError
	u.err = Some(msg)
	return u
}

// IsEmpty reports whether the update sets no field.
func (u Update) IsEmpty() bool {
	return u.set == 0
}

// Merge folds u into s and returns the result. Fields u does not set keep
// their current value. An error already recorded in s is never replaced.
func (s State) Merge(u Update) State {
	if u.set&fieldQuery != 0 {
		s.Query = u.query
	}
	if u.set&fieldContext != 0 {
		s.Context = u.context
	}
	if u.set&fieldLLMResponse != 0 {
		s.LLMResponse = u.llmResponse
	}
	if u.set&fieldWebSearchResults != 0 {
		s.WebSearchResults = u.webSearchResults
	}
	if u.set&fieldFinalOutput != 0 {
		s.FinalOutput = u.finalOutput
	}
	if u.set&fieldError != 0 && s.Error.IsNull() {
		s.Error = u.err
	}
	return s
}
