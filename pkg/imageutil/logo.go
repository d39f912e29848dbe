// Package imageutil loads the institution logo and normalises it into JPEG
// bytes that can be embedded in a PDF.
package imageutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // registers the webp decoder with image.Decode
)

const (
	maxLogoBytes = 5 << 20
	logoMaxSide  = 300
)

// LogoLoader fetches the logo from a file path or an http(s) URL. Only
// successful loads are cached; a failed load is retried on the next call.
type LogoLoader struct {
	source string
	client *http.Client

	mu     sync.RWMutex
	cached []byte
}

// NewLogoLoader builds a loader. A nil client gets a 10 second timeout client.
func NewLogoLoader(source string, client *http.Client) *LogoLoader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &LogoLoader{source: strings.TrimSpace(source), client: client}
}

// Source returns the configured location.
func (l *LogoLoader) Source() string {
	return l.source
}

// Logo returns the normalised JPEG bytes.
func (l *LogoLoader) Logo(ctx context.Context) ([]byte, error) {
	l.mu.RLock()
	cached := l.cached
	l.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	raw, err := l.fetch(ctx)
	if err != nil {
		return nil, err
	}
	normalized, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cached = normalized
	l.mu.Unlock()
	return normalized, nil
}

func (l *LogoLoader) fetch(ctx context.Context) ([]byte, error) {
	if l.source == "" {
		return nil, fmt.Errorf("logo source not configured")
	}
	if strings.HasPrefix(l.source, "http://") || strings.HasPrefix(l.source, "https://") {
		return l.fetchURL(ctx)
	}

	f, err := os.Open(l.source)
	if err != nil {
		return nil, fmt.Errorf("open logo: %w", err)
	}
	defer f.Close() //nolint:errcheck
	return readLimited(f)
}

func (l *LogoLoader) fetchURL(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, fmt.Errorf("build logo request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch logo: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch logo: unexpected status %d", resp.StatusCode)
	}
	return readLimited(resp.Body)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxLogoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read logo: %w", err)
	}
	if len(data) > maxLogoBytes {
		return nil, fmt.Errorf("logo exceeds %d bytes", maxLogoBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("logo is empty")
	}
	return data, nil
}

// Normalize decodes png, jpeg, gif or webp input, fits it into a 300x300 box,
// flattens transparency onto white and re-encodes it as JPEG.
func Normalize(raw []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode logo: %w", err)
	}

	fitted := imaging.Fit(img, logoMaxSide, logoMaxSide, imaging.Lanczos)
	bounds := fitted.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	flat := imaging.Overlay(canvas, fitted, image.Pt(0, 0), 1.0)

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, flat, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("encode logo: %w", err)
	}
	return buf.Bytes(), nil
}
