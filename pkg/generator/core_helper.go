package generator

import (
	"fmt"
	"strings"

	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
	"google.golang.org/genai"
)

// toPart はプレビュー用のプレフィックスを外した画像本体を InlineData パーツに変換します。
func toPart(img domain.EncodedImage) (*genai.Part, error) {
	if img.MIMEType == "" {
		return nil, fmt.Errorf("image %q has no media type", img.Name)
	}
	data, err := img.Bytes()
	if err != nil {
		return nil, err
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: img.MIMEType, Data: data}}, nil
}

// parseContentResponse は最初の候補のパーツを順に走査し、最初の画像パーツを返します。
// 画像がなくテキストがある場合はその説明文をそのまま GenerationRefused として返します。
func parseContentResponse(resp *genai.GenerateContentResponse) (*domain.ImageResult, error) {
	if resp == nil {
		return nil, domain.ErrEmptyResponse
	}
	if len(resp.Candidates) == 0 {
		if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
			return nil, &domain.RefusedError{Reason: firstNonEmpty(fb.BlockReasonMessage, string(fb.BlockReason))}
		}
		return nil, domain.ErrEmptyResponse
	}

	// 最初の候補 (Candidate) のみを利用する。
	candidate := resp.Candidates[0]
	var explanation string
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mimeType := firstNonEmpty(part.InlineData.MIMEType, composeFallbackMIMEType)
				return &domain.ImageResult{
					MIMEType: mimeType,
					DataURI:  domain.EncodeDataURI(mimeType, part.InlineData.Data),
				}, nil
			}
			if explanation == "" && !part.Thought && strings.TrimSpace(part.Text) != "" {
				explanation = part.Text
			}
		}
	}
	if explanation != "" {
		return nil, &domain.RefusedError{Reason: explanation}
	}

	// 安全フィルター等によるブロックの確認
	if candidate.FinishReason != "" && candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, &domain.RefusedError{
			Reason: firstNonEmpty(candidate.FinishMessage, "finish reason: "+string(candidate.FinishReason)),
		}
	}
	return nil, domain.ErrEmptyResponse
}

// parseImagesResponse は生成された最初の画像を返します。
func parseImagesResponse(resp *genai.GenerateImagesResponse) (*domain.ImageResult, error) {
	if resp == nil {
		return nil, domain.ErrEmptyResponse
	}
	var filtered string
	for _, gi := range resp.GeneratedImages {
		if gi == nil {
			continue
		}
		if gi.Image != nil && len(gi.Image.ImageBytes) > 0 {
			mimeType := firstNonEmpty(gi.Image.MIMEType, creativeOutputMIMEType)
			return &domain.ImageResult{
				MIMEType: mimeType,
				DataURI:  domain.EncodeDataURI(mimeType, gi.Image.ImageBytes),
			}, nil
		}
		if filtered == "" {
			filtered = gi.RAIFilteredReason
		}
	}
	if filtered != "" {
		return nil, &domain.RefusedError{Reason: filtered}
	}
	return nil, domain.ErrEmptyResponse
}
