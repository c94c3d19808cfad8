package studio

import (
	"context"
	"sync"
	"time"

	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
)

// --- Mocks ---

type mockGenerator struct {
	generateFunc func(ctx context.Context, req domain.GenerationRequest) (*domain.ImageResult, error)

	calls    int
	requests []domain.GenerationRequest
}

func (m *mockGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.ImageResult, error) {
	m.calls++
	m.requests = append(m.requests, req)
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return &domain.ImageResult{MIMEType: "image/png", DataURI: domain.EncodeDataURI("image/png", []byte("result"))}, nil
}

type mockRecorder struct {
	mu      sync.Mutex
	err     error
	records []domain.HistoryRecord
}

func (m *mockRecorder) Record(ctx context.Context, rec domain.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return m.err
}

type observation struct {
	mode    domain.GeneratorMode
	outcome Outcome
}

type mockObserver struct {
	generations     []observation
	historyFailures int
}

func (m *mockObserver) ObserveGeneration(mode domain.GeneratorMode, outcome Outcome, elapsed time.Duration) {
	m.generations = append(m.generations, observation{mode: mode, outcome: outcome})
}

func (m *mockObserver) ObserveHistoryFailure() {
	m.historyFailures++
}
