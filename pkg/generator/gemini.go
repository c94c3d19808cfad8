package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
	"google.golang.org/genai"
)

// GeminiGenerator は合成 (Catalog / Edit) とテキストからの生成 (Creative) の両方を担当する
// 統合ジェネレーターです。
type GeminiGenerator struct {
	cfg     Config
	connect Connector
}

// NewGeminiGenerator は GeminiGenerator を初期化します。connect が nil の場合は genai SDK を使います。
// APIKey の有無はここでは検査せず、呼び出し時に解決します。
func NewGeminiGenerator(cfg Config, connect Connector) *GeminiGenerator {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.ComposeModel == "" {
		cfg.ComposeModel = DefaultComposeModel
	}
	if cfg.CreativeModel == "" {
		cfg.CreativeModel = DefaultCreativeModel
	}
	if connect == nil {
		connect = DefaultConnector
	}
	return &GeminiGenerator{cfg: cfg, connect: connect}
}

// DefaultConnector は Gemini API バックエンドの genai クライアントを生成します。
func DefaultConnector(ctx context.Context, apiKey string) (ModelsAPI, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

// Generate はリクエストをプロバイダーへ1回だけ送信し、最初の画像を data URI として返します。
func (g *GeminiGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.ImageResult, error) {
	if !g.cfg.Configured() {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set: %w", domain.ErrConfiguration)
	}
	models, err := g.connect(ctx, g.cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %v: %w", err, domain.ErrConfiguration)
	}

	switch req.Mode {
	case domain.ModeCatalog, domain.ModeEdit:
		return g.compose(ctx, models, req)
	case domain.ModeCreative:
		return g.create(ctx, models, req)
	}
	return nil, fmt.Errorf("unsupported generator mode: %q", req.Mode)
}

// compose は画像パーツと指示文を合成モデルへ送ります。
func (g *GeminiGenerator) compose(ctx context.Context, models ModelsAPI, req domain.GenerationRequest) (*domain.ImageResult, error) {
	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for i, img := range req.Images {
		part, err := toPart(img)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		parts = append(parts, part)
	}
	parts = append(parts, &genai.Part{Text: req.Prompt})

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{responseModalityImage},
	}
	if req.Mode == domain.ModeCatalog && req.AspectRatio != "" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: string(req.AspectRatio)}
	}

	slog.InfoContext(ctx, "Gemini に合成リクエストを送信します",
		"model", g.cfg.ComposeModel, "mode", req.Mode, "images", len(req.Images), "aspect_ratio", req.AspectRatio)

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := models.GenerateContent(ctx, g.cfg.ComposeModel, contents, config)
	if err != nil {
		return nil, fmt.Errorf("Gemini composition request failed: %w", err)
	}
	return parseContentResponse(resp)
}

// create はテキストのみから画像を1枚生成します。
func (g *GeminiGenerator) create(ctx context.Context, models ModelsAPI, req domain.GenerationRequest) (*domain.ImageResult, error) {
	count := req.ImageCount
	if count <= 0 {
		count = defaultCreativeImageCount
	}
	config := &genai.GenerateImagesConfig{
		NumberOfImages: int32(count),
		AspectRatio:    string(req.AspectRatio),
		OutputMIMEType: creativeOutputMIMEType,
	}

	slog.InfoContext(ctx, "Imagen に生成リクエストを送信します",
		"model", g.cfg.CreativeModel, "aspect_ratio", req.AspectRatio, "count", count)

	resp, err := models.GenerateImages(ctx, g.cfg.CreativeModel, req.Prompt, config)
	if err != nil {
		return nil, fmt.Errorf("Imagen generation request failed: %w", err)
	}
	return parseImagesResponse(resp)
}
