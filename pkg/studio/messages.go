package studio

import (
	"errors"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
)

// メッセージキー
const (
	keyMissingInput  = "missing_input"
	keyConfiguration = "configuration"
	keyRefused       = "refused"
	keyEmpty         = "empty_response"
	keyGeneric       = "generic"
	keyBusy          = "busy"
)

// DefaultLanguage は利用者向けメッセージの既定言語です。
var DefaultLanguage = language.BrazilianPortuguese

// SupportedLanguages は翻訳を持つ言語です。先頭が既定値です。
var SupportedLanguages = []language.Tag{language.BrazilianPortuguese, language.English, language.Japanese}

var translations = map[language.Tag]map[string]string{
	language.BrazilianPortuguese: {
		keyMissingInput:         "Preencha os campos obrigatórios: %s",
		keyConfiguration:        "O serviço de geração de imagens não está configurado.",
		keyRefused:              "A IA não gerou uma imagem: %s",
		keyEmpty:                "A IA não retornou nenhuma imagem. Tente novamente.",
		keyGeneric:              "Erro ao gerar imagem. Tente novamente.",
		keyBusy:                 "Já existe uma geração em andamento.",
		domain.FieldPieceImage:  "foto da peça",
		domain.FieldStyleImage:  "foto de referência de estilo",
		domain.FieldSourceImage: "imagem para editar",
		domain.FieldDescription: "descrição",
		domain.FieldInstruction: "instruções de edição",
	},
	language.English: {
		keyMissingInput:         "Please provide the required fields: %s",
		keyConfiguration:        "The image generation service is not configured.",
		keyRefused:              "The AI did not return an image: %s",
		keyEmpty:                "The AI returned no image. Please try again.",
		keyGeneric:              "Something went wrong while generating the image. Please try again.",
		keyBusy:                 "A generation is already in progress.",
		domain.FieldPieceImage:  "jewelry photo",
		domain.FieldStyleImage:  "style reference photo",
		domain.FieldSourceImage: "image to edit",
		domain.FieldDescription: "description",
		domain.FieldInstruction: "edit instructions",
	},
	language.Japanese: {
		keyMissingInput:         "必須項目を入力してください: %s",
		keyConfiguration:        "画像生成サービスが設定されていません。",
		keyRefused:              "画像は生成されませんでした: %s",
		keyEmpty:                "画像が返されませんでした。もう一度お試しください。",
		keyGeneric:              "画像の生成中にエラーが発生しました。もう一度お試しください。",
		keyBusy:                 "前回の生成がまだ実行中です。",
		domain.FieldPieceImage:  "商品写真",
		domain.FieldStyleImage:  "スタイル参照写真",
		domain.FieldSourceImage: "編集する画像",
		domain.FieldDescription: "説明文",
		domain.FieldInstruction: "編集指示",
	},
}

// Localizer はエラーを利用者の言語のメッセージに変換します。
type Localizer struct {
	cat     catalog.Catalog
	matcher language.Matcher
}

// NewLocalizer は組み込みの翻訳から Localizer を作ります。
func NewLocalizer() *Localizer {
	b := catalog.NewBuilder(catalog.Fallback(DefaultLanguage))
	for tag, entries := range translations {
		for key, msg := range entries {
			// 定義済みの固定文字列なのでエラーにはならない
			_ = b.SetString(tag, key, msg)
		}
	}
	return &Localizer{cat: b, matcher: language.NewMatcher(SupportedLanguages)}
}

// Match は Accept-Language ヘッダーの値から対応言語を選びます。
// 解釈できない場合や一致しない場合は既定言語を返します。
func (l *Localizer) Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, idx, conf := l.matcher.Match(tags...)
	if conf == language.No {
		return DefaultLanguage
	}
	return SupportedLanguages[idx]
}

// Message はエラーを1つの読めるメッセージに変換します。
// プロバイダーの説明文がある場合はそのまま埋め込みます。
func (l *Localizer) Message(tag language.Tag, err error) string {
	p := message.NewPrinter(l.supported(tag), message.Catalog(l.cat))

	var missing *domain.MissingInputError
	var refused *domain.RefusedError
	switch {
	case errors.As(err, &missing) && len(missing.Fields) > 0:
		names := make([]string, 0, len(missing.Fields))
		for _, f := range missing.Fields {
			names = append(names, p.Sprintf(f))
		}
		return p.Sprintf(keyMissingInput, strings.Join(names, ", "))
	case errors.As(err, &refused) && strings.TrimSpace(refused.Reason) != "":
		return p.Sprintf(keyRefused, strings.TrimSpace(refused.Reason))
	case errors.Is(err, domain.ErrMissingInput):
		return p.Sprintf(keyMissingInput, "-")
	case errors.Is(err, ErrBusy):
		return p.Sprintf(keyBusy)
	case errors.Is(err, domain.ErrConfiguration):
		return p.Sprintf(keyConfiguration)
	case errors.Is(err, domain.ErrEmptyResponse):
		return p.Sprintf(keyEmpty)
	}
	return p.Sprintf(keyGeneric)
}

func (l *Localizer) supported(tag language.Tag) language.Tag {
	for _, s := range SupportedLanguages {
		if s == tag {
			return s
		}
	}
	_, idx, conf := l.matcher.Match(tag)
	if conf == language.No {
		return DefaultLanguage
	}
	return SupportedLanguages[idx]
}
