package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strconv"
	"strings"
	"time"

	"promo-quiz-service/internal/domain"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultMaxUploadBytes caps an upload when no limit is configured.
const DefaultMaxUploadBytes int64 = 200 << 20

// sniffLen is how much of the body is inspected when no usable MIME type is declared.
const sniffLen = 3072

// UploadInput is one uploaded file.
type UploadInput struct {
	Reader      io.Reader
	Size        int64
	Filename    string
	ContentType string
	Kind        domain.UploadKind
}

// UploadService stores uploaded binaries and writes media URLs through to the
// content record.
type UploadService struct {
	assets   AssetSource
	content  *ContentService
	maxBytes int64
	clock    func() time.Time
	log      zerolog.Logger
}

func NewUploadService(assets AssetSource, content *ContentService, maxBytes int64, log zerolog.Logger) *UploadService {
	return NewUploadServiceWithClock(assets, content, maxBytes, log, time.Now)
}

// NewUploadServiceWithClock is used by tests for deterministic file names.
func NewUploadServiceWithClock(assets AssetSource, content *ContentService, maxBytes int64, log zerolog.Logger, now func() time.Time) *UploadService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadService{
		assets:   assets,
		content:  content,
		maxBytes: maxBytes,
		clock:    now,
		log:      log.With().Str("component", "uploads").Logger(),
	}
}

// Upload validates the MIME type against the kind, stores the bytes and, for
// videos and backgrounds, updates the media config.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (domain.UploadResult, error) {
	if in.Reader == nil {
		return domain.UploadResult{}, domain.NewValidationError("file", "is required")
	}
	if in.Size > s.maxBytes {
		return domain.UploadResult{}, domain.NewValidationError("file", fmt.Sprintf("exceeds %d bytes", s.maxBytes))
	}

	body := in.Reader
	contentType := baseMediaType(in.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(in.Reader, head)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return domain.UploadResult{}, fmt.Errorf("%w: read body: %v", domain.ErrUploadFailed, err)
		}
		head = head[:n]
		contentType = baseMediaType(mimetype.Detect(head).String())
		body = io.MultiReader(bytes.NewReader(head), in.Reader)
	}

	dir, err := checkKind(in.Kind, contentType)
	if err != nil {
		return domain.UploadResult{}, err
	}

	key := dir + "/" + s.objectName(in.Filename, contentType)
	store := s.assets.AssetStore()
	if store == nil {
		return domain.UploadResult{}, fmt.Errorf("%w: no asset store configured", domain.ErrUploadFailed)
	}
	url, err := store.Put(ctx, key, body, in.Size, contentType)
	if err != nil {
		s.log.Error().Err(err).Str("store", store.Name()).Str("key", key).Msg("store upload")
		return domain.UploadResult{}, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	switch in.Kind {
	case domain.UploadVideo:
		videoType := domain.VideoTypeUpload
		s.content.UpdateMedia(ctx, domain.MediaPatch{VideoURL: &url, VideoType: &videoType})
	case domain.UploadBackgroundImage:
		s.content.UpdateMedia(ctx, domain.MediaPatch{BackgroundImageURL: &url})
	}

	s.log.Info().
		Str("kind", string(in.Kind)).
		Str("store", store.Name()).
		Str("contentType", contentType).
		Str("url", url).
		Msg("upload stored")
	return domain.UploadResult{Kind: in.Kind, URL: url}, nil
}

// checkKind returns the folder for the kind or an error when the MIME type does
// not fit it.
func checkKind(kind domain.UploadKind, contentType string) (string, error) {
	switch kind {
	case domain.UploadVideo:
		if !strings.HasPrefix(contentType, "video/") {
			return "", fmt.Errorf("%w: %s is not a video", domain.ErrUnsupportedMedia, contentType)
		}
		return "videos", nil
	case domain.UploadBackgroundImage:
		if !strings.HasPrefix(contentType, "image/") {
			return "", fmt.Errorf("%w: %s is not an image", domain.ErrUnsupportedMedia, contentType)
		}
		return "backgrounds", nil
	case domain.UploadQuestionImage:
		if !strings.HasPrefix(contentType, "image/") {
			return "", fmt.Errorf("%w: %s is not an image", domain.ErrUnsupportedMedia, contentType)
		}
		return "questions", nil
	}
	return "", domain.NewValidationError("type", "must be one of video, background-image, question-image")
}

// objectName builds "<unix-millis>-<short uuid>-<sanitised name>"; the uuid part
// keeps same-millisecond uploads of one file name apart.
func (s *UploadService) objectName(filename, contentType string) string {
	name := sanitizeFilename(path.Base(strings.ReplaceAll(filename, "\\", "/")))
	if name == "" || name == "." || name == "-" {
		name = "upload"
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			name += exts[0]
		}
	}
	return strconv.FormatInt(s.clock().UnixMilli(), 10) + "-" + uuid.NewString()[:8] + "-" + name
}

func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), ".")
}

func baseMediaType(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(ct)
	}
	return mt
}
