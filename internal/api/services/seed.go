package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/rohits-web03/inkwell/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSeedCount = 3
	MaxSeedCount     = 50
	seedAuthor       = "system"
	seedConcurrency  = 4
)

var seedBorder = color.RGBA{R: 0x34, G: 0x98, B: 0xdb, A: 0xff}

// Seed creates count sample posts authored by "system", each with a
// generated PNG thumbnail. count is clamped to [1, MaxSeedCount].
func (s *PostService) Seed(ctx context.Context, count int) ([]string, error) {
	count = max(1, min(count, MaxSeedCount))

	thumb, err := sampleThumbnail(600, 400, 20)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString(thumb)

	titles := make([]string, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(seedConcurrency)
	for i := range count {
		g.Go(func() error {
			title := fmt.Sprintf("Sample post %d", i+1)
			_, err := s.Create(gctx, nil, CreatePostInput{
				Title:           title,
				Content:         fmt.Sprintf("# %s\n\nThis is an automatically generated sample post.\n\nExample content.", title),
				ThumbnailBase64: encoded,
				Author:          seedAuthor,
			})
			if err != nil {
				return err
			}
			titles[i] = title
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return titles, nil
}

// sampleThumbnail draws a white width x height PNG with a colored border.
func sampleThumbnail(width, height, border int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: seedBorder}, image.Point{}, draw.Src)
	inner := image.Rect(border, border, width-border, height-border)
	draw.Draw(img, inner, &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
