package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question    string   `json:"question" jsonschema:"the D&D 5e rules question to answer"`
	TopK        int      `json:"top_k,omitempty" jsonschema:"number of SRD chunks to ground the answer on (default 5)"`
	Temperature *float64 `json:"temperature,omitempty" jsonschema:"generation temperature between 0 and 1 (default 0.3)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer      string          `json:"answer"`
	Sources     []domain.Source `json:"sources"`
	ContextUsed int             `json:"context_used"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Question string `json:"question" jsonschema:"the text to find similar SRD chunks for"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (default 5)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results []RetrieveResult `json:"results"`
	Count   int              `json:"count"`
}

// RetrieveResult represents one ranked chunk.
type RetrieveResult struct {
	Rank  int     `json:"rank"`
	Score float64 `json:"score"`
	Type  string  `json:"type"`
	Name  string  `json:"name"`
	URL   string  `json:"url,omitempty"`
	Text  string  `json:"text"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a D&D 5e rules question from the SRD, with numbered sources",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Rank SRD chunks (spells, monsters, rules) by similarity to a question",
	}, s.handleRetrieve)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, AskOutput{}, errEmptyQuestion
	}

	opts := domain.DefaultAskOptions()
	if input.TopK != 0 {
		opts.TopK = input.TopK
	}
	if input.Temperature != nil {
		opts.Temperature = *input.Temperature
	}

	answer, err := s.ports.Ask.Ask(ctx, input.Question, opts)
	if err != nil {
		return nil, AskOutput{}, err
	}

	sources := answer.Sources
	if sources == nil {
		sources = []domain.Source{}
	}
	return nil, AskOutput{
		Answer:      answer.Answer,
		Sources:     sources,
		ContextUsed: answer.ContextUsed,
	}, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, RetrieveOutput{}, errEmptyQuestion
	}

	topK := input.TopK
	if topK == 0 {
		topK = domain.DefaultTopK
	}

	ranked, err := s.ports.Ask.Retrieve(ctx, input.Question, topK)
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Results: make([]RetrieveResult, len(ranked)),
		Count:   len(ranked),
	}
	for i := range ranked {
		m := ranked[i].Chunk.Metadata
		output.Results[i] = RetrieveResult{
			Rank:  i + 1,
			Score: ranked[i].Score,
			Type:  ranked[i].Chunk.Type(),
			Name:  m.StringOr(domain.MetaName, m.StringOr(domain.MetaSection, "Unknown")),
			URL:   m.String(domain.MetaURL),
			Text:  ranked[i].Chunk.Text,
		}
	}

	return nil, output, nil
}
