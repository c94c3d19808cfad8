package prompt

import (
	"fmt"
	"strings"

	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
)

// CreativeStyleSuffix は Creative モードのプロンプトに必ず付与する品質指定です。
const CreativeStyleSuffix = "Professional luxury jewelry product photography, cinematic studio lighting, " +
	"macro lens close-up, sharp focus on gemstones and metal, high resolution, photorealistic."

const catalogTemplate = `Act as a professional luxury jewelry photographer.
GOAL: produce a flawless catalog photograph.

INSTRUCTIONS:
1. Extract the JEWELRY piece precisely from the first image (the product photo).
2. Preserve its exact geometry, proportions, material, color and surface details. Do not redesign, simplify or embellish it.
3. Take the lighting, background, props and mood strictly from the second image (the style reference).
4. Do not introduce people, hands, skin or any body parts unless they are already present in the reference image.
5. The result must be a photorealistic, high-fidelity composition with accurate reflections on metal and stones.
6. Compose the final image in %s (%s) format.`

const editTemplate = `Edit instructions: %s

Apply only the requested change. Preserve the original resolution, framing and photorealism of the photograph, and keep the jewelry piece itself unchanged unless the instructions say otherwise.`

// Builder はモードごとの入力から生成リクエストを組み立てます。I/O は行いません。
type Builder struct{}

// NewBuilder は Builder を返します。
func NewBuilder() *Builder {
	return &Builder{}
}

// Validate はモードに必要な入力が揃っているかを検査します。
// 不足がある場合は不足フィールドを列挙した *domain.MissingInputError を返します。
func (b *Builder) Validate(in domain.Input) error {
	var missing []string
	switch v := in.(type) {
	case domain.CatalogInput:
		if v.Piece.IsZero() {
			missing = append(missing, domain.FieldPieceImage)
		}
		if v.Style.IsZero() {
			missing = append(missing, domain.FieldStyleImage)
		}
	case domain.CreativeInput:
		if strings.TrimSpace(v.Description) == "" {
			missing = append(missing, domain.FieldDescription)
		}
	case domain.EditInput:
		if v.Source.IsZero() {
			missing = append(missing, domain.FieldSourceImage)
		}
		if strings.TrimSpace(v.Instructions) == "" {
			missing = append(missing, domain.FieldInstruction)
		}
	case nil:
		return fmt.Errorf("input is required: %w", domain.ErrMissingInput)
	default:
		return fmt.Errorf("unsupported input type %T", in)
	}

	if len(missing) > 0 {
		return &domain.MissingInputError{Mode: in.Mode(), Fields: missing}
	}
	return nil
}

// Build は検証済みの入力から GenerationRequest を構築します。
func (b *Builder) Build(in domain.Input) (domain.GenerationRequest, error) {
	if err := b.Validate(in); err != nil {
		return domain.GenerationRequest{}, err
	}

	switch v := in.(type) {
	case domain.CatalogInput:
		shape := CatalogShape(v.AspectRatio)
		return domain.GenerationRequest{
			Mode:        domain.ModeCatalog,
			Images:      []domain.EncodedImage{v.Piece, v.Style},
			Prompt:      fmt.Sprintf(catalogTemplate, shapeName(shape), shape),
			AspectRatio: shape,
		}, nil
	case domain.CreativeInput:
		shape := v.AspectRatio
		if shape == "" {
			shape = domain.AspectSquare
		}
		return domain.GenerationRequest{
			Mode:        domain.ModeCreative,
			Prompt:      CreativePrompt(v.Description),
			AspectRatio: shape,
			ImageCount:  1,
		}, nil
	case domain.EditInput:
		return domain.GenerationRequest{
			Mode:   domain.ModeEdit,
			Images: []domain.EncodedImage{v.Source},
			Prompt: fmt.Sprintf(editTemplate, strings.TrimSpace(v.Instructions)),
		}, nil
	}
	return domain.GenerationRequest{}, fmt.Errorf("unsupported input type %T", in)
}

// CreativePrompt は利用者の記述に品質指定を付け加えます。記述はそのまま保持されます。
func CreativePrompt(description string) string {
	description = strings.TrimSpace(description)
	if strings.HasSuffix(description, ".") {
		return description + " " + CreativeStyleSuffix
	}
	return description + ". " + CreativeStyleSuffix
}

// CatalogShape は Catalog モードで許される比率 (正方形 / ストーリー) に丸めます。
func CatalogShape(r domain.AspectRatio) domain.AspectRatio {
	if r == domain.AspectStory {
		return domain.AspectStory
	}
	return domain.AspectSquare
}

func shapeName(r domain.AspectRatio) string {
	switch r {
	case domain.AspectStory:
		return "vertical story"
	case domain.AspectPortrait:
		return "portrait"
	case domain.AspectLandscape:
		return "landscape"
	case domain.AspectWidescreen:
		return "widescreen"
	default:
		return "square"
	}
}
