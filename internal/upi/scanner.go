package upi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	"fintrack/internal/core"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrUnreadableImage means the bytes are not a supported image format.
	ErrUnreadableImage = errors.New("could not load image")
	// ErrNoCodeFound means the image holds no decodable QR code.
	ErrNoCodeFound = errors.New("could not scan QR code from image")
)

// Decoder extracts the text payload of a QR code from encoded image bytes.
type Decoder interface {
	Decode(data []byte) (string, error)
}

// QRDecoder decodes PNG, JPEG and GIF images with gozxing.
type QRDecoder struct {
	hints map[gozxing.DecodeHintType]interface{}
}

func NewQRDecoder() *QRDecoder {
	return &QRDecoder{hints: map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}}
}

func (d *QRDecoder) Decode(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCodeFound, err)
	}
	res, err := qrcode.NewQRCodeReader().Decode(bmp, d.hints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCodeFound, err)
	}
	return res.GetText(), nil
}

// Scanner runs a Decoder off the caller's goroutine so a scan can be
// abandoned through its context. Abandoned scans have no side effects.
type Scanner struct {
	decoder Decoder
	parser  *Parser
	// MaxConcurrent bounds ScanAll; zero means 4.
	MaxConcurrent int
}

func NewScanner(decoder Decoder, parser *Parser) *Scanner {
	if decoder == nil {
		decoder = NewQRDecoder()
	}
	if parser == nil {
		parser = DefaultParser
	}
	return &Scanner{decoder: decoder, parser: parser}
}

type scanResult struct {
	text string
	err  error
}

// Scan decodes a single image. It returns ctx.Err() if the context ends
// before decoding finishes.
func (s *Scanner) Scan(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	done := make(chan scanResult, 1)
	go func() {
		text, err := s.decoder.Decode(data)
		done <- scanResult{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		slog.DebugContext(ctx, "QR scan abandoned", "reason", ctx.Err())
		return "", ctx.Err()
	case r := <-done:
		return r.text, r.err
	}
}

// ScanIntent decodes an image and parses its payload. Text that is not a
// payment URI yields ErrInvalidCode.
func (s *Scanner) ScanIntent(ctx context.Context, data []byte) (core.PaymentIntent, error) {
	text, err := s.Scan(ctx, data)
	if err != nil {
		return core.PaymentIntent{}, err
	}
	pi, ok := s.parser.Parse(text)
	if !ok {
		return core.PaymentIntent{}, ErrInvalidCode
	}
	return pi, nil
}

// ScanAll decodes several images concurrently and returns their payloads in
// input order. The first failure cancels the remaining scans.
func (s *Scanner) ScanAll(ctx context.Context, images [][]byte) ([]string, error) {
	limit := s.MaxConcurrent
	if limit <= 0 {
		limit = 4
	}
	out := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, data := range images {
		g.Go(func() error {
			text, err := s.Scan(gctx, data)
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			out[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
