package domain

import (
	"errors"
	"strings"
)

var (
	ErrMissingInput      = errors.New("missing input")
	ErrConfiguration     = errors.New("generation provider is not configured")
	ErrGenerationRefused = errors.New("generation refused")
	ErrEmptyResponse     = errors.New("empty response from generation provider")
	ErrPersistence       = errors.New("history persistence failed")
)

// 入力フィールド名。利用者向けメッセージの翻訳キーにもなります。
const (
	FieldPieceImage  = "piece_image"
	FieldStyleImage  = "style_image"
	FieldSourceImage = "source_image"
	FieldDescription = "description"
	FieldInstruction = "instructions"
)

// MissingInputError は不足している入力フィールドを保持します。
type MissingInputError struct {
	Mode   GeneratorMode
	Fields []string
}

func (e *MissingInputError) Error() string {
	return "missing input for " + string(e.Mode) + ": " + strings.Join(e.Fields, ", ")
}

func (e *MissingInputError) Is(target error) bool { return target == ErrMissingInput }

// RefusedError はプロバイダーが画像の代わりに返した説明文を保持します。
type RefusedError struct {
	Reason string
}

func (e *RefusedError) Error() string {
	return "generation refused: " + e.Reason
}

func (e *RefusedError) Is(target error) bool { return target == ErrGenerationRefused }
