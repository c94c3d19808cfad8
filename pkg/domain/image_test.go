package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURIHelpers(t *testing.T) {
	t.Run("EncodeDataURI と StripDataURIPrefix は往復できる", func(t *testing.T) {
		uri := EncodeDataURI("image/png", []byte("png-bytes"))
		assert.Equal(t, "data:image/png;base64,cG5nLWJ5dGVz", uri)
		assert.Equal(t, "cG5nLWJ5dGVz", StripDataURIPrefix(uri))

		mediaType, ok := DataURIMediaType(uri)
		assert.True(t, ok)
		assert.Equal(t, "image/png", mediaType)
	})

	t.Run("プレフィックスのない文字列はそのまま返す", func(t *testing.T) {
		assert.Equal(t, "cG5n", StripDataURIPrefix("cG5n"))
		_, ok := DataURIMediaType("cG5n")
		assert.False(t, ok)
	})

	t.Run("メディアタイプが空のプレフィックス", func(t *testing.T) {
		mediaType, ok := DataURIMediaType("data:;base64,cG5n")
		assert.True(t, ok)
		assert.Empty(t, mediaType)
	})

	t.Run("Bytes はペイロードをデコードする", func(t *testing.T) {
		img := EncodedImage{MIMEType: "image/jpeg", DataURI: EncodeDataURI("image/jpeg", []byte{0xFF, 0xD8})}
		data, err := img.Bytes()
		require.NoError(t, err)
		assert.Equal(t, []byte{0xFF, 0xD8}, data)
		assert.False(t, img.IsZero())
		assert.True(t, EncodedImage{}.IsZero())
	})
}

func TestParseModeAndAspectRatio(t *testing.T) {
	mode, err := ParseMode(" creative ")
	require.NoError(t, err)
	assert.Equal(t, ModeCreative, mode)

	_, err = ParseMode("collage")
	assert.Error(t, err)

	ratio, err := ParseAspectRatio("")
	require.NoError(t, err)
	assert.Equal(t, AspectSquare, ratio)

	ratio, err = ParseAspectRatio("9:16")
	require.NoError(t, err)
	assert.Equal(t, AspectStory, ratio)

	_, err = ParseAspectRatio("2:1")
	assert.Error(t, err)
}

func TestClassifiedErrors(t *testing.T) {
	var err error = &MissingInputError{Mode: ModeCatalog, Fields: []string{FieldPieceImage}}
	assert.True(t, errors.Is(err, ErrMissingInput))
	assert.Contains(t, err.Error(), FieldPieceImage)

	err = &RefusedError{Reason: "I cannot depict that."}
	assert.True(t, errors.Is(err, ErrGenerationRefused))
	assert.False(t, errors.Is(err, ErrEmptyResponse))
}
