package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodedSize(t *testing.T, b []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	return cfg.Width, cfg.Height
}

func TestSampleSize(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
		want             int
	}{
		{4000, 3000, 1024, 1024, 2},
		{100, 100, 1024, 1024, 1},
		{1024, 1024, 1024, 1024, 1},
		{2048, 2048, 1024, 1024, 2},
		{5000, 5000, 500, 500, 8},
		{1025, 10, 1024, 1024, 1},
		{8000, 1000, 500, 500, 2},
	}
	for _, tt := range tests {
		got := SampleSize(tt.w, tt.h, tt.maxW, tt.maxH)
		assert.Equal(t, tt.want, got, "%dx%d into %dx%d", tt.w, tt.h, tt.maxW, tt.maxH)
	}
}

func TestCompress_LargePhotoFitsWithinOneHalving(t *testing.T) {
	src := encodeJPEG(t, image.NewRGBA(image.Rect(0, 0, 4000, 3000)))

	out, err := Compress(src, CarImageMaxSide, CarImageMaxSide, DefaultQuality)
	require.NoError(t, err)

	w, h := decodedSize(t, out)
	assert.Equal(t, 2000, w)
	assert.Equal(t, 1500, h)
	assert.LessOrEqual(t, w, 2*CarImageMaxSide)
	assert.LessOrEqual(t, h, 2*CarImageMaxSide)
}

func TestCompress_SmallImageKeepsSize(t *testing.T) {
	out, err := Compress(encodePNG(t, gradient(300, 200)), AvatarMaxSide, AvatarMaxSide, DefaultQuality)
	require.NoError(t, err)
	w, h := decodedSize(t, out)
	assert.Equal(t, 300, w)
	assert.Equal(t, 200, h)
}

func TestCompress_OddSidesRoundUp(t *testing.T) {
	out, err := Compress(encodePNG(t, gradient(2001, 1999)), AvatarMaxSide, AvatarMaxSide, DefaultQuality)
	require.NoError(t, err)
	// (1999/2)/2 < 500 stops the doubling at 2
	w, h := decodedSize(t, out)
	assert.Equal(t, 1001, w)
	assert.Equal(t, 1000, h)
}

func TestCompress_Deterministic(t *testing.T) {
	src := encodePNG(t, gradient(640, 480))
	a, err := Compress(src, 100, 100, 70)
	require.NoError(t, err)
	b, err := Compress(src, 100, 100, 70)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompress_TransparentFlattenedOntoWhite(t *testing.T) {
	out, err := Compress(encodePNG(t, image.NewNRGBA(image.Rect(0, 0, 16, 16))), 100, 100, 100)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	r, g, b, _ := img.At(8, 8).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestCompress_InvalidArguments(t *testing.T) {
	src := encodePNG(t, gradient(4, 4))

	_, err := Compress(src, 0, 10, 80)
	assert.ErrorIs(t, err, ErrInvalidBox)
	_, err = Compress(src, 10, -1, 80)
	assert.ErrorIs(t, err, ErrInvalidBox)
	_, err = Compress(src, 10, 10, 0)
	assert.ErrorIs(t, err, ErrInvalidQuality)
	_, err = Compress(src, 10, 10, 101)
	assert.ErrorIs(t, err, ErrInvalidQuality)

	_, err = Compress([]byte("definitely not an image"), 10, 10, 80)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
	_, err = Compress(nil, 10, 10, 80)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
