package generator

import "strings"

const (
	DefaultComposeModel  = "gemini-2.5-flash-image"
	DefaultCreativeModel = "imagen-4.0-generate-001"

	composeFallbackMIMEType   = "image/png"
	creativeOutputMIMEType    = "image/jpeg"
	responseModalityImage     = "IMAGE"
	defaultCreativeImageCount = 1
)

// Config は生成プロバイダーの接続設定です。
// APIKey が空の場合、生成は ConfigurationError で失敗します。
type Config struct {
	APIKey        string
	ComposeModel  string
	CreativeModel string
}

// Configured はプロバイダーの資格情報が設定済みかを返します。
func (c Config) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}
