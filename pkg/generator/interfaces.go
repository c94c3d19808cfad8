package generator

import (
	"context"

	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
	"google.golang.org/genai"
)

// ImageGenerator はオーケストレーターが利用する生成クライアントの窓口です。
// 1回の呼び出しにつきネットワーク往復は最大1回で、内部リトライは行いません。
type ImageGenerator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.ImageResult, error)
}

// ModelsAPI は genai.Models のうち、このパッケージが使うメソッドだけを切り出したものです。
type ModelsAPI interface {
	// GenerateContent は画像+テキストの合成・編集に使います。
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	// GenerateImages はテキストからの画像生成に使います。
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Connector は API キーから ModelsAPI を生成します。呼び出しごとに解決されます。
type Connector func(ctx context.Context, apiKey string) (ModelsAPI, error)
