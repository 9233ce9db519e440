/*
Package config provides typed access to loosely-shaped configuration.

Node configs arrive from the workflow editor as map[string]any. Config wraps
such a map and exposes accessors that fall back to a default instead of
failing, which is the behavior the node behaviors rely on:

	kb := config.New(nodeConfigs["knowledgeBase"])
	collection := kb.String("collection_name", "")
	model := kb.String("embedding_model", "text-embedding-3-small")

Temperature and toggles are tolerated as strings because the editor does
not always coerce form values:

	cfg := config.New(map[string]any{"temperature": "0.2", "use_web_search": "true"})
	cfg.Float("temperature", 0.7)     // 0.2
	cfg.Bool("use_web_search", false) // true

# Files

FromFile loads YAML or JSON, chosen by extension. LoadSettings layers
environment variables over an optional settings file to produce the process
Settings used by the CLI and HTTP server.
*/
package config
