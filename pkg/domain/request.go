package domain

import "time"

// Input はモードごとの入力を表すタグ付きユニオンです。
// 各バリアントはそのモードに必要なフィールドだけを持ちます。
type Input interface {
	Mode() GeneratorMode
	// Shape は履歴に記録する出力比率です。Edit では空になります。
	Shape() AspectRatio
	// Text は利用者が入力した自由記述です。
	Text() string
	// Images は入力画像を宣言順に返します。未指定のスロットはゼロ値のまま含まれます。
	Images() []EncodedImage
}

// CatalogInput は商品写真とスタイル参照写真の合成リクエストです。
type CatalogInput struct {
	Piece       EncodedImage
	Style       EncodedImage
	AspectRatio AspectRatio
}

func (CatalogInput) Mode() GeneratorMode { return ModeCatalog }
func (in CatalogInput) Shape() AspectRatio { return in.AspectRatio }
func (CatalogInput) Text() string { return "" }
func (in CatalogInput) Images() []EncodedImage { return []EncodedImage{in.Piece, in.Style} }

// CreativeInput はテキストのみからの生成リクエストです。
type CreativeInput struct {
	Description string
	AspectRatio AspectRatio
}

func (CreativeInput) Mode() GeneratorMode { return ModeCreative }
func (in CreativeInput) Shape() AspectRatio { return in.AspectRatio }
func (in CreativeInput) Text() string { return in.Description }
func (CreativeInput) Images() []EncodedImage { return nil }

// EditInput は既存画像への指示ベースの編集リクエストです。
type EditInput struct {
	Source       EncodedImage
	Instructions string
}

func (EditInput) Mode() GeneratorMode { return ModeEdit }
func (EditInput) Shape() AspectRatio { return "" }
func (in EditInput) Text() string { return in.Instructions }
func (in EditInput) Images() []EncodedImage { return []EncodedImage{in.Source} }

// GenerationRequest は生成プロバイダーへ送る構築済みリクエストです。
// 構築後は変更せず、値渡しで扱います。
type GenerationRequest struct {
	Mode        GeneratorMode
	Images      []EncodedImage
	Prompt      string
	AspectRatio AspectRatio // Edit では空
	ImageCount  int         // Creative のみ
}

// ImageResult は生成結果の描画可能な参照 (data URI) です。
type ImageResult struct {
	MIMEType string `json:"mimeType"`
	DataURI  string `json:"dataUri"`
}

// Identity は認証済みセッションの利用者です。
type Identity struct {
	UserID string
	Email  string
}

// HistoryRecord は履歴ストアへ書き込む1件の生成記録です。
type HistoryRecord struct {
	ID           string        `json:"id"`
	OwnerID      string        `json:"ownerId"`
	ImageRef     string        `json:"imageRef"`
	ThumbnailRef string        `json:"thumbnailRef,omitempty"` // オブジェクトストレージに退避した場合のみ
	Mode         GeneratorMode `json:"mode"`
	AspectRatio  AspectRatio   `json:"aspectRatio,omitempty"`
	Prompt       string        `json:"prompt"`
	CreatedAt    time.Time     `json:"createdAt"`
}
