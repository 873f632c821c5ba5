package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rohits-web03/inkwell/internal/models"
	_ "golang.org/x/image/webp"
)

const maxThumbnailPixels = 40_000_000

// Thumbnail is a decoded, validated inline image ready for the blob store.
type Thumbnail struct {
	Key         string
	ContentType string
	Data        []byte
}

var thumbnailExt = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

// DecodeThumbnail accepts a data URL ("data:image/png;base64,...") or bare
// base64 and returns the image bytes under a fresh key. Oversized payloads
// and bytes that are not a supported image fail with InvalidImageError.
func DecodeThumbnail(encoded string, maxBytes int64) (*Thumbnail, error) {
	payload := strings.TrimSpace(encoded)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.HasSuffix(payload[:comma], ";base64") {
			return nil, models.NewInvalidImageError("Thumbnail must be a base64 data URL", nil)
		}
		payload = payload[comma+1:]
	}
	if payload == "" {
		return nil, models.NewInvalidImageError("Thumbnail is empty", nil)
	}
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return nil, tooLarge(maxBytes)
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, models.NewInvalidImageError("Thumbnail is not valid base64", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, tooLarge(maxBytes)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewInvalidImageError("Thumbnail is not a supported image", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxThumbnailPixels {
		return nil, models.NewInvalidImageError("Thumbnail dimensions are out of range", nil)
	}

	contentType := sniffImageType(data)
	return &Thumbnail{
		Key:         uuid.NewString() + "." + thumbnailExt[contentType],
		ContentType: contentType,
		Data:        data,
	}, nil
}

// sniffImageType reports image/png or image/webp when the bytes say so and
// image/jpeg for everything else the decoders accept.
func sniffImageType(data []byte) string {
	switch ct := http.DetectContentType(data); ct {
	case "image/png", "image/webp":
		return ct
	}
	return "image/jpeg"
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)

	var firstErr error
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		data, err := enc.DecodeString(s)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func tooLarge(maxBytes int64) error {
	return models.NewInvalidImageError(fmt.Sprintf("Thumbnail exceeds %d bytes", maxBytes), nil)
}
