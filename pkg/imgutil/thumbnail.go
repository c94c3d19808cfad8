package imgutil

import (
	"bytes"
	"fmt"
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// DefaultThumbnailQuality は履歴用サムネイルの JPEG 品質です。
const DefaultThumbnailQuality = 80

// Thumbnail は画像データ (PNG, GIF, JPEG, WebP) を長辺 maxEdge 以内に縮小し、JPEG で返します。
// 縦横比は保たれ、元画像より大きくはなりません。
func Thumbnail(data []byte, maxEdge, quality int) ([]byte, error) {
	if maxEdge <= 0 {
		return nil, fmt.Errorf("invalid thumbnail edge: %d", maxEdge)
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultThumbnailQuality
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, thumb, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
