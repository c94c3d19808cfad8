package history

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
	"github.com/shouni/gemini-jewelry-studio/pkg/imgutil"
)

// Inserter は記録の書き込み先です。
type Inserter interface {
	Insert(ctx context.Context, rec domain.HistoryRecord) error
}

// ObjectStore は生成画像の退避先です。
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Recorder は生成結果を履歴に記録します。ObjectStore があれば画像本体とサムネイルを退避し、
// その参照を記録します。なければ data URI をそのまま記録します。
type Recorder struct {
	store         Inserter
	blobs         ObjectStore
	thumbnailEdge int
	newID         func() string
}

// NewRecorder は Recorder を初期化します。blobs は nil でも構いません。
func NewRecorder(store Inserter, blobs ObjectStore, thumbnailEdge int) *Recorder {
	return &Recorder{
		store:         store,
		blobs:         blobs,
		thumbnailEdge: thumbnailEdge,
		newID:         uuid.NewString,
	}
}

// Record は1件の記録を書き込みます。書き込みの失敗は domain.ErrPersistence でラップされます。
// 退避の失敗は記録を止めず、data URI の記録に切り替えます。
func (r *Recorder) Record(ctx context.Context, rec domain.HistoryRecord) error {
	if rec.OwnerID == "" {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, ErrOwnerRequired)
	}
	if rec.ID == "" {
		rec.ID = r.newID()
	}
	if r.blobs != nil && strings.HasPrefix(rec.ImageRef, "data:") {
		rec = r.offload(ctx, rec)
	}

	if err := r.store.Insert(ctx, rec); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	slog.InfoContext(ctx, "履歴を保存しました", "id", rec.ID, "user_id", rec.OwnerID, "mode", rec.Mode)
	return nil
}

func (r *Recorder) offload(ctx context.Context, rec domain.HistoryRecord) domain.HistoryRecord {
	mimeType, _ := domain.DataURIMediaType(rec.ImageRef)
	img := domain.EncodedImage{MIMEType: mimeType, DataURI: rec.ImageRef}
	data, err := img.Bytes()
	if err != nil {
		slog.WarnContext(ctx, "画像のデコードに失敗したため data URI のまま記録します", "id", rec.ID, "error", err)
		return rec
	}

	base := "generations/" + rec.OwnerID + "/" + rec.ID
	ref, err := r.blobs.Put(ctx, base+"."+extensionFor(mimeType), mimeType, data)
	if err != nil {
		slog.WarnContext(ctx, "画像の退避に失敗したため data URI のまま記録します", "id", rec.ID, "error", err)
		return rec
	}
	rec.ImageRef = ref

	if r.thumbnailEdge <= 0 {
		return rec
	}
	thumb, err := imgutil.Thumbnail(data, r.thumbnailEdge, imgutil.DefaultThumbnailQuality)
	if err != nil {
		// HEIC などデコードできない形式はサムネイルなし
		slog.DebugContext(ctx, "サムネイルを作成できません", "id", rec.ID, "mime_type", mimeType, "error", err)
		return rec
	}
	if thumbRef, err := r.blobs.Put(ctx, base+"_thumb.jpg", "image/jpeg", thumb); err == nil {
		rec.ThumbnailRef = thumbRef
	} else {
		slog.WarnContext(ctx, "サムネイルの退避に失敗しました", "id", rec.ID, "error", err)
	}
	return rec
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/heic":
		return "heic"
	}
	return "bin"
}
