package normalizer

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
)

const (
	// DefaultMIMEType は拡張子から推定できない場合の既定値です。
	DefaultMIMEType = "image/jpeg"
	genericMIMEType = "application/octet-stream"
)

// 拡張子からの推定に使う固定マッピングです。
var extensionTypes = map[string]string{
	".png":  "image/png",
	".webp": "image/webp",
	".heic": "image/heic",
}

// InferMIMEType はファイル名の拡張子からメディアタイプを推定します。
func InferMIMEType(name string) string {
	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return DefaultMIMEType
}

// FromBytes は生のファイル内容を data URI にエンコードし、正規化した EncodedImage を返します。
// declaredType が空でも結果のメディアタイプは必ず具体的な値になります。
func FromBytes(name, declaredType string, data []byte) domain.EncodedImage {
	declaredType = strings.TrimSpace(declaredType)
	return Normalize(domain.EncodedImage{
		Name:     name,
		MIMEType: declaredType,
		DataURI:  domain.EncodeDataURI(declaredType, data),
	})
}

// FromReader は r を最後まで読み込んで FromBytes と同じ正規化を行います。
func FromReader(name, declaredType string, r io.Reader) (domain.EncodedImage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.EncodedImage{}, fmt.Errorf("read %s: %w", name, err)
	}
	return FromBytes(name, declaredType, data), nil
}

// FromFileHeader はマルチパートでアップロードされたファイルを正規化します。
func FromFileHeader(fh *multipart.FileHeader) (domain.EncodedImage, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.EncodedImage{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return FromReader(fh.Filename, fh.Header.Get("Content-Type"), f)
}

// Normalize は宣言されたメディアタイプと data URI のプレフィックスを一致させます。
// 正規化済みの画像に対しては何も変更しません。
func Normalize(img domain.EncodedImage) domain.EncodedImage {
	if img.IsZero() {
		return img
	}

	prefixType, hasPrefix := domain.DataURIMediaType(img.DataURI)
	mimeType := strings.TrimSpace(img.MIMEType)
	if isUnspecified(mimeType) {
		switch {
		case hasPrefix && !isUnspecified(prefixType):
			// エンコード側が具体的な型を持っていればそれを宣言値として採用する
			mimeType = prefixType
		default:
			mimeType = InferMIMEType(img.Name)
		}
	}

	out := img
	out.MIMEType = mimeType
	switch {
	case !hasPrefix:
		out.DataURI = "data:" + mimeType + ";base64," + strings.TrimSpace(img.DataURI)
	case prefixType != mimeType:
		out.DataURI = "data:" + mimeType + ";base64," + domain.StripDataURIPrefix(img.DataURI)
	}
	return out
}

func isUnspecified(mimeType string) bool {
	return mimeType == "" || strings.EqualFold(mimeType, genericMIMEType)
}
