package httpapi

import (
	"context"
	"sync"

	"github.com/shouni/gemini-jewelry-studio/internal/auth"
	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
)

// --- Mocks ---

type mockGenerator struct {
	mu           sync.Mutex
	generateFunc func(ctx context.Context, req domain.GenerationRequest) (*domain.ImageResult, error)
	calls        int
}

func (m *mockGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.ImageResult, error) {
	m.mu.Lock()
	m.calls++
	fn := m.generateFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	return &domain.ImageResult{MIMEType: "image/png", DataURI: "data:image/png;base64,cmVzdWx0"}, nil
}

// tokenResolver は固定のトークン表で利用者を解決します。
type tokenResolver map[string]string

func (t tokenResolver) Resolve(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, nil
	}
	userID, ok := t[token]
	if !ok {
		return nil, auth.ErrInvalidSession
	}
	return &domain.Identity{UserID: userID}, nil
}

type mockRecorder struct {
	mu      sync.Mutex
	records []domain.HistoryRecord
}

func (m *mockRecorder) Record(ctx context.Context, rec domain.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

type mockHistory struct {
	listFunc func(ownerID string, limit int) ([]domain.HistoryRecord, error)
}

func (m *mockHistory) List(ctx context.Context, ownerID string, limit int) ([]domain.HistoryRecord, error) {
	return m.listFunc(ownerID, limit)
}

type mockSigner struct{}

func (mockSigner) DownloadURL(ctx context.Context, ref string) (string, error) {
	return "https://signed.example/" + ref[len("s3://"):], nil
}
