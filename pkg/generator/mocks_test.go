package generator

import (
	"context"

	"google.golang.org/genai"
)

// --- Mocks ---

// mockModels は ModelsAPI のテスト用モックです。呼び出し回数を記録します。
type mockModels struct {
	contentFunc func(model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	imagesFunc  func(model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)

	contentCalls int
	imagesCalls  int
}

func (m *mockModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.contentCalls++
	if m.contentFunc != nil {
		return m.contentFunc(model, contents, config)
	}
	return nil, nil
}

func (m *mockModels) GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	m.imagesCalls++
	if m.imagesFunc != nil {
		return m.imagesFunc(model, prompt, config)
	}
	return nil, nil
}

// connectTo は常に同じモックを返す Connector を作ります。
func connectTo(m *mockModels) Connector {
	return func(ctx context.Context, apiKey string) (ModelsAPI, error) {
		return m, nil
	}
}

func imageResponse(mimeType string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
			},
		}},
	}
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}
