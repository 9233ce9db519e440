package ragflow

import (
	"errors"

	"github.com/randalmurphal/ragflow/pkg/ragflow/llm"
	"github.com/randalmurphal/ragflow/pkg/ragflow/retrieval"
	"github.com/randalmurphal/ragflow/pkg/ragflow/search"
)

// NoResponse is the final output when nothing was generated.
const NoResponse = "No response generated."

// FormattingPrompt asks the refine pass to restructure a response.
const FormattingPrompt = "You are an expert technical writer. Refine the following response into a clean, professional, and well-structured format. " +
	"Use bold headers for main sections (e.g., **Summary**, **Key Skills**, **Experience**, **Education**). " +
	"Use bullet points for lists to improve readability. " +
	"Do not remove any facts, but ensure the tone is polished and professional."

// EditorPrompt is the system prompt of the refine pass.
const EditorPrompt = "You are an expert technical editor. Improve the structure and tone of the provided text."

var (
	errNoRetriever = errors.New("no retriever configured")
	errNoGenerator = errors.New("no generator configured")
)

// UserQueryNode passes the query through unchanged.
func UserQueryNode(_ Context, s State) (Update, error) {
	return Update{}.WithQuery(s.Query), nil
}

// KnowledgeBaseNode retrieves document context for the query.
//
// Without a collection name, or when the collection has no matches, context
// is set to null. A retrieval failure also nulls the context and records
// the error; the run continues.
func KnowledgeBaseNode(ctx Context, s State) (Update, error) {
	cfg := KnowledgeBaseConfigFrom(s.NodeConfigs.For(TypeKnowledgeBase))
	if cfg.CollectionName == "" {
		return Update{}.WithContext(Null), nil
	}

	r := ctx.Retriever()
	if r == nil {
		degraded(ctx, "retriever", errNoRetriever)
		return Update{}.WithContext(Null).WithError(errNoRetriever.Error()), nil
	}

	text, err := r.Retrieve(ctx, retrieval.Request{
		Collection:        cfg.CollectionName,
		EmbeddingProvider: cfg.EmbeddingProvider,
		EmbeddingModel:    cfg.EmbeddingModel,
		APIKey:            cfg.APIKey,
		Query:             s.Query,
		K:                 retrieval.DefaultK,
	})
	if err != nil {
		degraded(ctx, "retriever", err)
		return Update{}.WithContext(Null).WithError(err.Error()), nil
	}
	if text == "" {
		return Update{}.WithContext(Null), nil
	}
	return Update{}.WithContext(Some(text)), nil
}

// LLMEngineNode generates a response from the query, the document context
// and optional web search results. Document context is placed first.
//
// A generation failure nulls the response and records the error.
func LLMEngineNode(ctx Context, s State) (Update, error) {
	cfg := LLMEngineConfigFrom(s.NodeConfigs.For(TypeLLMEngine))

	var webContext string
	if cfg.UseWebSearch && cfg.SerpAPIKey != "" && ctx.Searcher() != nil {
		webContext = search.FormatResults(ctx.Searcher().Search(ctx, cfg.SerpAPIKey, s.Query))
	}

	var fullContext string
	if s.Context.Truthy() {
		fullContext += "Document Context:\n" + s.Context.String() + "\n\n"
	}
	fullContext += webContext

	gen := ctx.Generator()
	if gen == nil {
		degraded(ctx, "generator", errNoGenerator)
		return Update{}.WithLLMResponse(Null).WithError(errNoGenerator.Error()), nil
	}

	resp, err := gen.Generate(ctx, llm.GenerateRequest{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		Temperature: cfg.Temperature,
		Query:       s.Query,
		Context:     fullContext,
		Prompt:      cfg.Prompt,
	})
	if err != nil {
		degraded(ctx, "generator", err)
		return Update{}.WithLLMResponse(Null).WithError(err.Error()), nil
	}

	web := Null
	if webContext != "" {
		web = Some(webContext)
	}
	return Update{}.WithLLMResponse(Some(resp)).WithWebSearchResults(web), nil
}

// OutputNode renders the final output.
//
// An upstream error wins. Otherwise the response goes through a refine
// pass, falling back to the unrefined text if that fails.
func OutputNode(ctx Context, s State) (Update, error) {
	if s.Error.Truthy() {
		return Update{}.WithFinalOutput(Some("Error: " + s.Error.String())), nil
	}
	if !s.LLMResponse.Truthy() {
		return Update{}.WithFinalOutput(Some(NoResponse)), nil
	}

	response := s.LLMResponse.String()
	refined, err := refine(ctx, s, response)
	if err != nil {
		degraded(ctx, "generator", err)
		return Update{}.WithFinalOutput(Some(response)), nil
	}
	return Update{}.WithFinalOutput(Some(refined)), nil
}

func refine(ctx Context, s State, response string) (string, error) {
	gen := ctx.Generator()
	if gen == nil {
		return "", errNoGenerator
	}
	engine := LLMEngineConfigFrom(s.NodeConfigs.For(TypeLLMEngine))
	return gen.Generate(ctx, llm.GenerateRequest{
		Provider:    llm.ProviderOpenAI,
		Model:       DefaultLLMModel,
		APIKey:      engine.APIKey,
		Temperature: DefaultTemperature,
		Query:       FormattingPrompt + "\n\n=== CONTENT TO REFINE ===\n" + response,
		Prompt:      EditorPrompt,
	})
}
