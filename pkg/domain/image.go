package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// GeneratorMode は生成ワークフローの種別です。
type GeneratorMode string

const (
	ModeCatalog  GeneratorMode = "CATALOG"
	ModeCreative GeneratorMode = "CREATIVE"
	ModeEdit     GeneratorMode = "EDIT"
)

// ParseMode は大文字小文字を区別せずにモード名を解釈します。
func ParseMode(raw string) (GeneratorMode, error) {
	switch GeneratorMode(strings.ToUpper(strings.TrimSpace(raw))) {
	case ModeCatalog:
		return ModeCatalog, nil
	case ModeCreative:
		return ModeCreative, nil
	case ModeEdit:
		return ModeEdit, nil
	}
	return "", fmt.Errorf("unknown generator mode: %q", raw)
}

// AspectRatio は出力画像の縦横比 (OutputShape) です。
type AspectRatio string

const (
	AspectSquare     AspectRatio = "1:1"
	AspectPortrait   AspectRatio = "3:4"
	AspectLandscape  AspectRatio = "4:3"
	AspectStory      AspectRatio = "9:16"
	AspectWidescreen AspectRatio = "16:9"
)

// SupportedAspectRatios はサポートするすべての比率を表示順で返します。
func SupportedAspectRatios() []AspectRatio {
	return []AspectRatio{AspectSquare, AspectPortrait, AspectLandscape, AspectStory, AspectWidescreen}
}

// ParseAspectRatio は比率文字列を検証します。空文字は正方形として扱います。
func ParseAspectRatio(raw string) (AspectRatio, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AspectSquare, nil
	}
	for _, r := range SupportedAspectRatios() {
		if string(r) == raw {
			return r, nil
		}
	}
	return "", fmt.Errorf("unsupported aspect ratio: %q", raw)
}

const dataURIScheme = "data:"

// EncodedImage は送信・プレビュー可能な正規化済み画像です。
// DataURI のプレフィックスと MIMEType は常に一致している必要があります。
type EncodedImage struct {
	Name     string `json:"name,omitempty"`
	MIMEType string `json:"mimeType"`
	DataURI  string `json:"dataUri"`
}

// IsZero は画像が未指定かどうかを返します。
func (e EncodedImage) IsZero() bool {
	return strings.TrimSpace(e.DataURI) == ""
}

// Preview はブラウザでそのまま描画できる参照を返します。
func (e EncodedImage) Preview() string {
	return e.DataURI
}

// Payload はプレフィックスを除いた base64 本体を返します。
func (e EncodedImage) Payload() string {
	return StripDataURIPrefix(e.DataURI)
}

// Bytes は base64 本体をデコードします。
func (e EncodedImage) Bytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(e.Payload())
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return data, nil
}

// EncodeDataURI はバイト列を data URI に変換します。
func EncodeDataURI(mimeType string, data []byte) string {
	return dataURIScheme + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// StripDataURIPrefix は "data:<mime>;base64," を取り除きます。プレフィックスがなければそのまま返します。
func StripDataURIPrefix(s string) string {
	if !strings.HasPrefix(s, dataURIScheme) {
		return s
	}
	if _, payload, ok := strings.Cut(s, ","); ok {
		return payload
	}
	return s
}

// DataURIMediaType は data URI に埋め込まれたメディアタイプを返します。
func DataURIMediaType(s string) (string, bool) {
	if !strings.HasPrefix(s, dataURIScheme) {
		return "", false
	}
	header, _, ok := strings.Cut(strings.TrimPrefix(s, dataURIScheme), ",")
	if !ok {
		return "", false
	}
	mediaType, _, _ := strings.Cut(header, ";")
	return mediaType, true
}
