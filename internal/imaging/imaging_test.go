package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func createTestJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, solid(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, solid(w, h, color.RGBA{0, 0, 255, 255}))
	return buf.Bytes()
}

func decodedSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("expected jpeg output, got %s", format)
	}
	return cfg.Width, cfg.Height
}

func TestNormalizeJPEGAndPNG(t *testing.T) {
	for name, data := range map[string][]byte{
		"jpeg": createTestJPEG(100, 60),
		"png":  createTestPNG(100, 60),
	} {
		out, err := Normalize(data)
		if err != nil {
			t.Fatalf("Normalize %s: %v", name, err)
		}
		w, h := decodedSize(t, out)
		if w != 100 || h != 60 {
			t.Errorf("%s: small image should keep its size, got %dx%d", name, w, h)
		}
	}
}

func TestNormalizeDownscalesKeepingAspect(t *testing.T) {
	out, err := Normalize(createTestJPEG(2048, 1024))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	w, h := decodedSize(t, out)
	if w != MaxDimension || h != MaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/2, w, h)
	}
}

func TestNormalizeRejectsOtherFormats(t *testing.T) {
	for _, data := range [][]byte{[]byte("not an image"), []byte("GIF89a..."), []byte("%PDF-1.4")} {
		if _, err := Normalize(data); !errors.Is(err, ErrUnsupported) {
			t.Errorf("expected ErrUnsupported for %q, got %v", data, err)
		}
	}
}

func TestThumbnailsCacheByVersion(t *testing.T) {
	thumbs, err := NewThumbnails(2)
	if err != nil {
		t.Fatal(err)
	}

	loads := 0
	load := func() ([]byte, error) {
		loads++
		return createTestPNG(800, 400), nil
	}
	v1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	data, err := thumbs.Get("item-1", v1, load)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	w, h := decodedSize(t, data)
	if w != ThumbnailDimension || h != ThumbnailDimension/2 {
		t.Errorf("expected %dx%d thumbnail, got %dx%d", ThumbnailDimension, ThumbnailDimension/2, w, h)
	}

	thumbs.Get("item-1", v1, load)
	if loads != 1 {
		t.Errorf("expected cached thumbnail, loaded %d times", loads)
	}

	thumbs.Get("item-1", v1.Add(time.Second), load)
	if loads != 2 {
		t.Errorf("expected a reload for a newer version, loaded %d times", loads)
	}

	thumbs.Get("item-2", v1, load)
	if thumbs.Len() != 2 {
		t.Errorf("expected cache bounded at 2, got %d", thumbs.Len())
	}
}

func TestThumbnailsLoadError(t *testing.T) {
	thumbs, _ := NewThumbnails(0)
	boom := errors.New("boom")

	_, err := thumbs.Get("x", time.Now(), func() ([]byte, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected load error, got %v", err)
	}
	if thumbs.Len() != 0 {
		t.Error("expected failed loads not to be cached")
	}
}
