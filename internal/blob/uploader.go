// Package blob decodes browser image uploads and persists them for serving.
//
// Uploads arrive as `data:image/<type>;base64,<payload>` envelopes or bare
// base64. The file extension comes from the MIME tag, defaulting to png.
package blob

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/Giorgiomufen/display-sync/internal/domain"
	"github.com/Giorgiomufen/display-sync/internal/metrics"
)

// Namespace separates the two upload flows sharing this store.
type Namespace string

const (
	NamespaceCanvas Namespace = "canvas"
	NamespaceScene  Namespace = "scene"
)

// Uploader writes decoded images into a directory served under /canvas/.
type Uploader struct {
	dir   string
	clock clockwork.Clock
}

// NewUploader creates the backing directory if needed.
func NewUploader(dir string, clock clockwork.Clock) (*Uploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create canvas dir: %w", err)
	}
	return &Uploader{dir: dir, clock: clock}, nil
}

// SaveImage decodes an encoded payload, persists it under a fresh filename in
// the given namespace and returns the URL path displays can fetch it from.
func (u *Uploader) SaveImage(ns Namespace, payload string) (string, error) {
	if payload == "" {
		metrics.ImageUploadsTotal.WithLabelValues(string(ns), "error").Inc()
		return "", domain.ErrEmptyImage
	}

	data, ext := splitDataURL(payload)
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		metrics.ImageUploadsTotal.WithLabelValues(string(ns), "error").Inc()
		return "", fmt.Errorf("%w: %v", domain.ErrBadImagePayload, err)
	}

	name := u.newFilename(ns, ext)
	if err := os.WriteFile(filepath.Join(u.dir, name), raw, 0o644); err != nil {
		metrics.ImageUploadsTotal.WithLabelValues(string(ns), "error").Inc()
		return "", fmt.Errorf("write image: %w", err)
	}

	metrics.ImageUploadsTotal.WithLabelValues(string(ns), "ok").Inc()
	return "/canvas/" + name, nil
}

// splitDataURL strips a data:image envelope, returning the base64 body and the
// extension implied by the MIME tag. Bare base64 passes through as png.
func splitDataURL(payload string) (data, ext string) {
	ext = ".png"
	data = payload
	if !strings.HasPrefix(payload, "data:image") {
		return data, ext
	}

	header, body, found := strings.Cut(payload, ",")
	if !found {
		return data, ext
	}
	data = body

	switch {
	case strings.Contains(header, "jpeg"), strings.Contains(header, "jpg"):
		ext = ".jpg"
	case strings.Contains(header, "gif"):
		ext = ".gif"
	case strings.Contains(header, "webp"):
		ext = ".webp"
	}
	return data, ext
}

func (u *Uploader) newFilename(ns Namespace, ext string) string {
	id := uuid.New()
	name := fmt.Sprintf("%d_%s%s", u.clock.Now().Unix(), hex.EncodeToString(id[:])[:6], ext)
	if ns == NamespaceScene {
		name = "scene_" + name
	}
	return name
}
