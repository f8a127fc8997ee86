package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for Sage resources.
	uriScheme = "sage://"

	mimeJSON = "application/json"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Readiness and models of the loaded index",
		MIMEType:    mimeJSON,
	}, s.handleStatusResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sources/{type}",
		Name:        "sources",
		Description: "Metadata of every indexed chunk of a type (spell, monster, rule)",
		MIMEType:    mimeJSON,
	}, s.handleSourcesResource)
}

// handleStatusResource returns the engine status.
func (s *Server) handleStatusResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	status := s.ports.Ask.Status()

	type statusInfo struct {
		Ready          bool   `json:"ready"`
		ChunksLoaded   int    `json:"chunks_loaded"`
		Dimensions     int    `json:"dimensions"`
		EmbeddingModel string `json:"embedding_model"`
		LLMModel       string `json:"llm_model"`
	}

	return jsonResource(req.Params.URI, statusInfo{
		Ready:          status.Ready,
		ChunksLoaded:   status.ChunksLoaded,
		Dimensions:     status.Dimensions,
		EmbeddingModel: status.EmbeddingModel,
		LLMModel:       status.LLMModel,
	})
}

// handleSourcesResource returns the metadata of every chunk of a type.
func (s *Server) handleSourcesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract type from URI: sage://sources/{type}
	docType := extractDocType(req.Params.URI)
	if docType == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	sources, err := s.ports.Ask.Sources(ctx, docType)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	if sources == nil {
		sources = []domain.Metadata{}
	}

	return jsonResource(req.Params.URI, sources)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		}},
	}, nil
}

// extractDocType extracts the type from a URI like sage://sources/{type}.
func extractDocType(uri string) string {
	const prefix = uriScheme + "sources/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	docType := strings.TrimPrefix(uri, prefix)
	if strings.Contains(docType, "/") {
		return ""
	}
	return docType
}
