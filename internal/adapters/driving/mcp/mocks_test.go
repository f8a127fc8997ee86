package mcp

import (
	"context"

	"github.com/custodia-labs/sages-oracle/internal/core/domain"
)

// mockAskService is a mock implementation of driving.AskService.
type mockAskService struct {
	answer  *domain.AnswerResponse
	ranked  []domain.ScoredChunk
	sources map[string][]domain.Metadata
	status  domain.EngineStatus
	err     error

	gotQuestion string
	gotTopK     int
	gotOpts     domain.AskOptions
	gotDocType  string
}

func (m *mockAskService) Load(_ context.Context) error {
	return m.err
}

func (m *mockAskService) Retrieve(_ context.Context, question string, topK int) ([]domain.ScoredChunk, error) {
	m.gotQuestion = question
	m.gotTopK = topK
	return m.ranked, m.err
}

func (m *mockAskService) GenerateAnswer(
	_ context.Context,
	_ string,
	_ []domain.ScoredChunk,
	_ float64,
) (*domain.AnswerResponse, error) {
	return m.answer, m.err
}

func (m *mockAskService) Ask(_ context.Context, question string, opts domain.AskOptions) (*domain.AnswerResponse, error) {
	m.gotQuestion = question
	m.gotOpts = opts
	return m.answer, m.err
}

func (m *mockAskService) Sources(_ context.Context, docType string) ([]domain.Metadata, error) {
	m.gotDocType = docType
	return m.sources[docType], m.err
}

func (m *mockAskService) Status() domain.EngineStatus {
	return m.status
}
