package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"promo-quiz-service/internal/domain"
	"github.com/rs/zerolog"
)

// RecordStore reads and writes the named records through the backend chain.
// Backend failures never reach the caller: reads degrade to defaults and writes
// are best effort.
type RecordStore struct {
	chain BackendChain
	log   zerolog.Logger
}

func NewRecordStore(chain BackendChain, log zerolog.Logger) *RecordStore {
	return &RecordStore{
		chain: chain,
		log:   log.With().Str("component", "record_store").Logger(),
	}
}

// Media returns the stored media config or the default one.
func (s *RecordStore) Media(ctx context.Context) domain.MediaConfig {
	media, ok := getRecord[domain.MediaConfig](ctx, s, domain.RecordMedia)
	if !ok {
		return domain.DefaultMediaConfig()
	}
	if media.VideoType == "" {
		media.VideoType = domain.VideoTypeUpload
	}
	return media
}

func (s *RecordStore) SaveMedia(ctx context.Context, media domain.MediaConfig) {
	s.Set(ctx, domain.RecordMedia, media)
}

// Questions returns the stored question set or an empty one.
func (s *RecordStore) Questions(ctx context.Context) []domain.Question {
	questions, ok := getRecord[[]domain.Question](ctx, s, domain.RecordQuestions)
	if !ok || questions == nil {
		return []domain.Question{}
	}
	return questions
}

func (s *RecordStore) SaveQuestions(ctx context.Context, questions []domain.Question) {
	if questions == nil {
		questions = []domain.Question{}
	}
	s.Set(ctx, domain.RecordQuestions, questions)
}

// Submissions returns the stored submission log or an empty one.
func (s *RecordStore) Submissions(ctx context.Context) []domain.Submission {
	subs, ok := getRecord[[]domain.Submission](ctx, s, domain.RecordSubmissions)
	if !ok || subs == nil {
		return []domain.Submission{}
	}
	return subs
}

func (s *RecordStore) SaveSubmissions(ctx context.Context, subs []domain.Submission) {
	if subs == nil {
		subs = []domain.Submission{}
	}
	s.Set(ctx, domain.RecordSubmissions, subs)
}

// Set writes value to every backend in the chain. Failures are logged only.
func (s *RecordStore) Set(ctx context.Context, record domain.RecordName, value any) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		s.log.Error().Err(err).Str("record", string(record)).Msg("encode record")
		return
	}
	for _, b := range s.chain.Backends() {
		if err := b.Save(ctx, record, data); err != nil {
			s.log.Warn().Err(err).Str("record", string(record)).Str("backend", b.Name()).Msg("save record failed")
		}
	}
}

// Delete resets a record on every backend. Failures are logged only.
func (s *RecordStore) Delete(ctx context.Context, record domain.RecordName) {
	for _, b := range s.chain.Backends() {
		if err := b.Clear(ctx, record); err != nil {
			s.log.Warn().Err(err).Str("record", string(record)).Str("backend", b.Name()).Msg("clear record failed")
		}
	}
}

// getRecord walks the chain and returns the first value that decodes cleanly.
func getRecord[T any](ctx context.Context, s *RecordStore, record domain.RecordName) (T, bool) {
	for _, b := range s.chain.Backends() {
		value, err := loadRecord[T](ctx, b, record)
		if err == nil {
			return value, true
		}
		if errors.Is(err, domain.ErrRecordNotFound) {
			s.log.Debug().Str("record", string(record)).Str("backend", b.Name()).Msg("record miss")
			continue
		}
		s.log.Warn().Err(err).Str("record", string(record)).Str("backend", b.Name()).Msg("load record failed")
	}
	var zero T
	return zero, false
}

func loadRecord[T any](ctx context.Context, b RecordBackend, record domain.RecordName) (T, error) {
	var value T
	data, err := b.Load(ctx, record)
	if err != nil {
		return value, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return value, domain.ErrRecordNotFound
	}
	if err := json.Unmarshal(data, &value); err != nil {
		var zero T
		return zero, fmt.Errorf("decode %s: %w", record, err)
	}
	return value, nil
}
