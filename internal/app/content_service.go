package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"promo-quiz-service/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ContentUpdate is a partial content save. Absent parts are left as stored.
type ContentUpdate struct {
	Media     domain.MediaPatch
	Questions *[]domain.Question
}

// ContentService composes media and questions into the page content.
type ContentService struct {
	records *RecordStore
	clock   func() time.Time
	log     zerolog.Logger
}

func NewContentService(records *RecordStore, log zerolog.Logger) *ContentService {
	return NewContentServiceWithClock(records, log, time.Now)
}

// NewContentServiceWithClock is used by tests for deterministic question ids.
func NewContentServiceWithClock(records *RecordStore, log zerolog.Logger, now func() time.Time) *ContentService {
	return &ContentService{
		records: records,
		clock:   now,
		log:     log.With().Str("component", "content").Logger(),
	}
}

// Get returns media and questions, reading both records concurrently. A fresh
// deployment gets the example video so the page is usable right away.
func (s *ContentService) Get(ctx context.Context) domain.Content {
	var (
		media     domain.MediaConfig
		questions []domain.Question
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		media = s.records.Media(gctx)
		return nil
	})
	g.Go(func() error {
		questions = s.records.Questions(gctx)
		return nil
	})
	_ = g.Wait()

	if media.VideoURL == "" {
		media.VideoURL = domain.DefaultVideoURL
	}
	if media.VideoType == "" {
		media.VideoType = domain.VideoTypeUpload
	}
	return domain.Content{MediaConfig: media, Questions: questions}
}

// Save persists only the parts present in the update.
func (s *ContentService) Save(ctx context.Context, update ContentUpdate) error {
	if update.Media.Empty() && update.Questions == nil {
		return domain.NewValidationError("body", "no content fields provided")
	}
	if update.Media.VideoType != nil && !update.Media.VideoType.Valid() {
		return domain.NewValidationError("videoType", "must be one of upload, youtube")
	}

	var questions []domain.Question
	if update.Questions != nil {
		normalized, err := s.normalizeQuestions(*update.Questions)
		if err != nil {
			return err
		}
		questions = normalized
	}

	if !update.Media.Empty() {
		s.UpdateMedia(ctx, update.Media)
	}
	if update.Questions != nil {
		s.records.SaveQuestions(ctx, questions)
		s.log.Info().Int("questions", len(questions)).Msg("questions saved")
	}
	return nil
}

// UpdateMedia merges patch over the stored media config and saves the result.
func (s *ContentService) UpdateMedia(ctx context.Context, patch domain.MediaPatch) domain.MediaConfig {
	current := s.records.Media(ctx)
	next := patch.Apply(current)
	s.records.SaveMedia(ctx, next)
	s.log.Info().
		Str("videoUrl", next.VideoURL).
		Str("backgroundImageUrl", next.BackgroundImageURL).
		Str("videoType", string(next.VideoType)).
		Msg("media saved")
	return next
}

// Question looks up a stored question by id.
func (s *ContentService) Question(ctx context.Context, id string) (domain.Question, bool) {
	for _, q := range s.records.Questions(ctx) {
		if q.ID == id {
			return q, true
		}
	}
	return domain.Question{}, false
}

// normalizeQuestions trims fields, rejects blank text and duplicate ids, and
// assigns timestamp-derived ids to new questions.
func (s *ContentService) normalizeQuestions(in []domain.Question) ([]domain.Question, error) {
	out := make([]domain.Question, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for i, q := range in {
		q.ID = strings.TrimSpace(q.ID)
		q.Text = strings.TrimSpace(q.Text)
		q.ImageURL = strings.TrimSpace(q.ImageURL)
		if q.Text == "" {
			return nil, domain.NewValidationError(fmt.Sprintf("questions[%d].text", i), "is required")
		}
		if q.ID != "" {
			if _, dup := seen[q.ID]; dup {
				return nil, domain.NewValidationError(fmt.Sprintf("questions[%d].id", i), "duplicate id "+q.ID)
			}
			seen[q.ID] = struct{}{}
		}
		out = append(out, q)
	}

	next := s.clock().UnixMilli()
	for i := range out {
		if out[i].ID != "" {
			continue
		}
		for {
			id := strconv.FormatInt(next, 10)
			next++
			if _, taken := seen[id]; !taken {
				out[i].ID = id
				seen[id] = struct{}{}
				break
			}
		}
	}
	return out, nil
}
