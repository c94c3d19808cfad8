package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/gemini-jewelry-studio/pkg/domain"
	"github.com/shouni/gemini-jewelry-studio/pkg/prompt"
	"github.com/shouni/gemini-jewelry-studio/pkg/studio"
)

type testEnv struct {
	gen      *mockGenerator
	recorder *mockRecorder
	handler  http.Handler
}

func newTestEnv(t *testing.T, mutate func(*Options)) *testEnv {
	t.Helper()
	env := &testEnv{gen: &mockGenerator{}, recorder: &mockRecorder{}}
	opts := Options{
		ProviderConfigured: true,
		Persistence:        "configured",
		Resolver:           tokenResolver{"token-ana": "user-ana"},
		NewStudio: func() *studio.Studio {
			return studio.New(prompt.NewBuilder(), env.gen, studio.WithRecorder(env.recorder))
		},
	}
	if mutate != nil {
		mutate(&opts)
	}
	env.handler = New(opts).Router()
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) studio.State {
	t.Helper()
	var st studio.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

var pieceJSON = map[string]string{"name": "ring.png", "mimeType": "image/png", "dataUri": "data:image/png;base64,cGllY2U="}
var styleJSON = map[string]string{"name": "velvet.jpg", "mimeType": "image/jpeg", "dataUri": "data:image/jpeg;base64,c3R5bGU="}

func TestHealthAndStatus(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, true, status["provider"])
	assert.Equal(t, "configured", status["persistence"])
}

func TestGenerate(t *testing.T) {
	t.Run("Creative の成功は 200 と結果を返す", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(t, http.MethodPost, "/api/generations", map[string]any{
			"mode": "creative", "aspectRatio": "16:9", "prompt": "emerald ring on marble pedestal",
		}, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		st := decodeState(t, rec)
		assert.Equal(t, studio.PhaseSucceeded, st.Phase)
		require.NotNil(t, st.Result)
		assert.Equal(t, "data:image/png;base64,cmVzdWx0", st.Result.DataURI)
		// 未認証なので履歴なし
		assert.Empty(t, env.recorder.records)
	})

	t.Run("認証済みなら履歴を書く", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(t, http.MethodPost, "/api/generations", map[string]any{
			"mode": "CATALOG", "aspectRatio": "9:16",
			"images": map[string]any{"piece": pieceJSON, "style": styleJSON},
		}, map[string]string{"Authorization": "Bearer token-ana"})

		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, env.recorder.records, 1)
		assert.Equal(t, "user-ana", env.recorder.records[0].OwnerID)
		assert.Equal(t, studio.DefaultHistoryLabel, env.recorder.records[0].Prompt)

		current := env.do(t, http.MethodGet, "/api/generations/current", nil, map[string]string{"Authorization": "Bearer token-ana"})
		assert.Equal(t, studio.PhaseSucceeded, decodeState(t, current).Phase)
	})

	t.Run("入力不足は 422 で利用者の言語のメッセージ", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(t, http.MethodPost, "/api/generations", map[string]any{
			"mode": "CATALOG", "images": map[string]any{"piece": pieceJSON},
		}, map[string]string{"Accept-Language": "en-US,en;q=0.9"})

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		st := decodeState(t, rec)
		assert.Equal(t, studio.PhaseFailed, st.Phase)
		assert.Equal(t, "Please provide the required fields: style reference photo", st.Message)
		assert.Zero(t, env.gen.calls)
	})

	t.Run("既定言語はポルトガル語", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(t, http.MethodPost, "/api/generations", map[string]any{"mode": "EDIT"}, nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeState(t, rec).Message, "Preencha os campos obrigatórios")
	})

	t.Run("プロバイダーの拒否は 502 で説明文を含む", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.gen.generateFunc = func(context.Context, domain.GenerationRequest) (*domain.ImageResult, error) {
			return nil, &domain.RefusedError{Reason: "I can't edit faces."}
		}
		rec := env.do(t, http.MethodPost, "/api/generations", map[string]any{
			"mode": "EDIT", "prompt": "swap the face", "images": map[string]any{"source": pieceJSON},
		}, map[string]string{"Accept-Language": "ja"})

		require.Equal(t, http.StatusBadGateway, rec.Code)
		st := decodeState(t, rec)
		assert.Equal(t, studio.OutcomeRefused, st.Outcome)
		assert.Equal(t, "画像は生成されませんでした: I can't edit faces.", st.Message)
	})

	t.Run("未設定のプロバイダーは 500", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.gen.generateFunc = func(context.Context, domain.GenerationRequest) (*domain.ImageResult, error) {
			return nil, domain.ErrConfiguration
		}
		rec := env.do(t, http.MethodPost, "/api/generations", map[string]any{"mode": "CREATIVE", "prompt": "ring"}, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("不正なモードや比率は 400", func(t *testing.T) {
		env := newTestEnv(t, nil)
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/generations", map[string]any{"mode": "COLLAGE"}, nil).Code)
		assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/generations", map[string]any{"mode": "CREATIVE", "aspectRatio": "2:1"}, nil).Code)
	})

	t.Run("拒否されたトークンは 401", func(t *testing.T) {
		env := newTestEnv(t, nil)
		rec := env.do(t, http.MethodPost, "/api/generations", map[string]any{"mode": "CREATIVE", "prompt": "ring"},
			map[string]string{"Authorization": "Bearer stolen"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, env.gen.calls)
	})
}

func TestGenerate_ConflictWhileRunning(t *testing.T) {
	env := newTestEnv(t, nil)
	entered := make(chan struct{})
	release := make(chan struct{})
	env.gen.generateFunc = func(context.Context, domain.GenerationRequest) (*domain.ImageResult, error) {
		close(entered)
		<-release
		return &domain.ImageResult{MIMEType: "image/png", DataURI: "data:image/png;base64,eA=="}, nil
	}
	auth := map[string]string{"Authorization": "Bearer token-ana"}
	body := map[string]any{"mode": "CREATIVE", "prompt": "ring"}

	first := make(chan int)
	go func() {
		first <- env.do(t, http.MethodPost, "/api/generations", body, auth).Code
	}()
	<-entered

	current := env.do(t, http.MethodGet, "/api/generations/current", nil, auth)
	assert.Equal(t, studio.PhaseRunning, decodeState(t, current).Phase)

	second := env.do(t, http.MethodPost, "/api/generations", body, auth)
	assert.Equal(t, http.StatusConflict, second.Code)

	close(release)
	select {
	case code := <-first:
		assert.Equal(t, http.StatusOK, code)
	case <-time.After(5 * time.Second):
		t.Fatal("first request did not finish")
	}
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="brooch.webp"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("webp-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var img domain.EncodedImage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &img))
	assert.Equal(t, "image/webp", img.MIMEType)
	assert.True(t, strings.HasPrefix(img.DataURI, "data:image/webp;base64,"))

	t.Run("ファイルなしは 400", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/images", nil, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHistory(t *testing.T) {
	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	history := &mockHistory{listFunc: func(ownerID string, limit int) ([]domain.HistoryRecord, error) {
		assert.Equal(t, "user-ana", ownerID)
		assert.Equal(t, 10, limit)
		return []domain.HistoryRecord{
			{ID: "b", OwnerID: ownerID, ImageRef: "s3://jewelry/generations/user-ana/b.png", ThumbnailRef: "s3://jewelry/generations/user-ana/b_thumb.jpg", Mode: domain.ModeCatalog, CreatedAt: created},
			{ID: "a", OwnerID: ownerID, ImageRef: "data:image/jpeg;base64,eA==", Mode: domain.ModeEdit, CreatedAt: created},
		}, nil
	}}
	env := newTestEnv(t, func(o *Options) {
		o.History = history
		o.Signer = mockSigner{}
	})

	t.Run("セッションなしは 401", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/history", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("自分の記録を署名付き URL 付きで返す", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/history?limit=10", nil, map[string]string{"Authorization": "Bearer token-ana"})
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Records []historyItem `json:"records"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Records, 2)
		assert.Equal(t, "https://signed.example/jewelry/generations/user-ana/b.png", body.Records[0].ImageURL)
		assert.Equal(t, "https://signed.example/jewelry/generations/user-ana/b_thumb.jpg", body.Records[0].ThumbnailURL)
		assert.Equal(t, "data:image/jpeg;base64,eA==", body.Records[1].ImageURL)
		assert.Empty(t, body.Records[1].ThumbnailURL)
	})

	t.Run("不正な limit は 400", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/history?limit=ten", nil, map[string]string{"Authorization": "Bearer token-ana"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMetricsRoute(t *testing.T) {
	env := newTestEnv(t, func(o *Options) {
		o.Metrics = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("studio_generations_total 0\n"))
		})
	})
	rec := env.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "studio_generations_total")
}
