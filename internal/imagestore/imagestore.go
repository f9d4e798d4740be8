package imagestore

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Store persists base64 image payloads to disk and returns relative
// paths for storage alongside the shipment records. Failures never
// propagate: a bad image yields an empty path and a warning, and the
// rest of the entry proceeds.
type Store interface {
	SaveImage(data, waybillNo, category string, index int) string
	SaveImages(data []string, waybillNo, category string) []string
}

type fileStore struct {
	basePath string
	log      *logrus.Logger
	now      func() time.Time
}

// NewFileStore creates a Store rooted at basePath.
func NewFileStore(basePath string, log *logrus.Logger) Store {
	return &fileStore{
		basePath: basePath,
		log:      log,
		now:      time.Now,
	}
}

// SaveImage decodes one base64 payload and writes it under
// {basePath}/{waybillNo}/{category}/. The returned path is relative to
// the parent of basePath so it stays valid when the upload root moves.
func (s *fileStore) SaveImage(data, waybillNo, category string, index int) string {
	if strings.TrimSpace(data) == "" {
		return ""
	}

	ext := "jpg"
	if strings.HasPrefix(data, "data:") {
		// data:image/png;base64,iVBOR...
		parts := strings.SplitN(data, ",", 2)
		if len(parts) != 2 {
			s.log.WithFields(logrus.Fields{
				"waybill_no": waybillNo,
				"category":   category,
			}).Warn("Malformed data URI, skipping image")
			return ""
		}
		if mt := strings.TrimPrefix(parts[0], "data:"); strings.Contains(mt, "/") {
			sub := strings.SplitN(strings.SplitN(mt, ";", 2)[0], "/", 2)[1]
			if sub != "" {
				ext = normalizeExt(sub)
			}
		}
		data = parts[1]
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(data)
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"waybill_no": waybillNo,
			"category":   category,
			"error":      err.Error(),
		}).Warn("Failed to decode image payload, skipping")
		return ""
	}

	dir := filepath.Join(s.basePath, waybillNo, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.WithFields(logrus.Fields{
			"dir":   dir,
			"error": err.Error(),
		}).Warn("Failed to create image directory, skipping")
		return ""
	}

	filename := fmt.Sprintf("%d_%d.%s", s.now().UnixMilli(), index, ext)
	fullPath := filepath.Join(dir, filename)
	if err := os.WriteFile(fullPath, raw, 0o644); err != nil {
		s.log.WithFields(logrus.Fields{
			"path":  fullPath,
			"error": err.Error(),
		}).Warn("Failed to write image file, skipping")
		return ""
	}

	return filepath.Join(filepath.Base(s.basePath), waybillNo, category, filename)
}

// SaveImages stores each payload in order. The result keeps positional
// correspondence with the input; failed entries come back as "".
func (s *fileStore) SaveImages(data []string, waybillNo, category string) []string {
	paths := make([]string, 0, len(data))
	for i, d := range data {
		paths = append(paths, s.SaveImage(d, waybillNo, category, i))
	}
	return paths
}

func normalizeExt(sub string) string {
	switch strings.ToLower(sub) {
	case "jpeg":
		return "jpg"
	case "svg+xml":
		return "svg"
	default:
		return strings.ToLower(sub)
	}
}
