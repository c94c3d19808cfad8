package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shouni/gemini-jewelry-studio/internal/blobstore"
	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
	"github.com/shouni/gemini-jewelry-studio/pkg/normalizer"
	"github.com/shouni/gemini-jewelry-studio/pkg/studio"
)

type generationImages struct {
	Piece  domain.EncodedImage `json:"piece"`
	Style  domain.EncodedImage `json:"style"`
	Source domain.EncodedImage `json:"source"`
}

type generationPayload struct {
	Mode        string           `json:"mode"`
	AspectRatio string           `json:"aspectRatio"`
	Prompt      string           `json:"prompt"`
	Images      generationImages `json:"images"`
}

// toInput はリクエストをモードごとの入力に変換します。
func (p generationPayload) toInput() (domain.Input, error) {
	mode, err := domain.ParseMode(p.Mode)
	if err != nil {
		return nil, err
	}
	switch mode {
	case domain.ModeCatalog:
		shape, err := domain.ParseAspectRatio(p.AspectRatio)
		if err != nil {
			return nil, err
		}
		return domain.CatalogInput{Piece: p.Images.Piece, Style: p.Images.Style, AspectRatio: shape}, nil
	case domain.ModeCreative:
		shape, err := domain.ParseAspectRatio(p.AspectRatio)
		if err != nil {
			return nil, err
		}
		return domain.CreativeInput{Description: p.Prompt, AspectRatio: shape}, nil
	default:
		// Edit では比率を受け付けても無視する
		return domain.EditInput{Source: p.Images.Source, Instructions: p.Prompt}, nil
	}
}

type historyItem struct {
	domain.HistoryRecord
	ImageURL     string `json:"imageUrl"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"provider":     s.opts.ProviderConfigured,
		"persistence":  s.opts.Persistence,
		"aspectRatios": domain.SupportedAspectRatios(),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid upload: %w", err))
		return
	}
	_, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("file is required: %w", err))
		return
	}
	img, err := normalizer.FromFileHeader(header)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, img)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var payload generationPayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGenerationBody)).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	in, err := payload.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	lang := s.language(r)

	state, err := s.studioFor(id).Generate(r.Context(), id, in, lang)
	if errors.Is(err, studio.ErrBusy) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  s.localizer.Message(lang, err),
			"status": http.StatusConflict,
			"state":  state,
		})
		return
	}
	writeJSON(w, statusFor(state), state)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	if id == nil {
		// 未認証の呼び出しは状態を保持しない
		writeJSON(w, http.StatusOK, studio.State{Phase: studio.PhaseIdle})
		return
	}
	writeJSON(w, http.StatusOK, s.studioFor(id).State())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.identity(w, r)
	if !ok {
		return
	}
	if id == nil {
		writeError(w, http.StatusUnauthorized, errors.New("sign in to view your history"))
		return
	}
	if s.opts.History == nil {
		writeJSON(w, http.StatusOK, map[string]any{"records": []historyItem{}})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit: %q", raw))
			return
		}
		limit = n
	}

	records, err := s.opts.History.List(r.Context(), id.UserID, limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "履歴の取得に失敗しました", "user_id", id.UserID, "error", err)
		writeError(w, http.StatusBadGateway, errors.New("failed to load history"))
		return
	}

	items := make([]historyItem, 0, len(records))
	for _, rec := range records {
		items = append(items, s.toHistoryItem(r, rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": items})
}

func (s *Server) toHistoryItem(r *http.Request, rec domain.HistoryRecord) historyItem {
	item := historyItem{HistoryRecord: rec, ImageURL: rec.ImageRef}
	if s.opts.Signer == nil || !blobstore.IsObjectRef(rec.ImageRef) {
		return item
	}
	if u, err := s.opts.Signer.DownloadURL(r.Context(), rec.ImageRef); err == nil {
		item.ImageURL = u
	} else {
		slog.WarnContext(r.Context(), "ダウンロード URL を発行できません", "id", rec.ID, "error", err)
	}
	if rec.ThumbnailRef != "" {
		if u, err := s.opts.Signer.DownloadURL(r.Context(), rec.ThumbnailRef); err == nil {
			item.ThumbnailURL = u
		}
	}
	return item
}

// statusFor は終端状態を HTTP ステータスに変換します。
func statusFor(st studio.State) int {
	if st.Phase == studio.PhaseSucceeded {
		return http.StatusOK
	}
	switch st.Outcome {
	case studio.OutcomeMissingInput:
		return http.StatusUnprocessableEntity
	case studio.OutcomeConfiguration:
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}
