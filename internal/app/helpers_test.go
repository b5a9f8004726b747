package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"promo-quiz-service/internal/app"
	"promo-quiz-service/internal/domain"
	"promo-quiz-service/internal/infra/memory"
	"github.com/rs/zerolog"
)

// failingBackend errors on every call and counts them.
type failingBackend struct {
	mu    sync.Mutex
	calls int
}

func (b *failingBackend) Name() string { return "failing" }

func (b *failingBackend) Load(context.Context, domain.RecordName) ([]byte, error) {
	b.hit()
	return nil, errors.New("connection refused")
}

func (b *failingBackend) Save(context.Context, domain.RecordName, []byte) error {
	b.hit()
	return errors.New("connection refused")
}

func (b *failingBackend) Clear(context.Context, domain.RecordName) error {
	b.hit()
	return errors.New("connection refused")
}

func (b *failingBackend) hit() {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
}

func (b *failingBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// fixedClock returns t and advances it by step on every call.
func fixedClock(t time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := t
		t = t.Add(step)
		return now
	}
}

type fixture struct {
	primary     *memory.RecordBackend
	backup      *memory.RecordBackend
	assets      *memory.AssetStore
	records     *app.RecordStore
	content     *app.ContentService
	submissions *app.SubmissionService
	uploads     *app.UploadService
}

type assetSource struct{ store app.AssetStore }

func (s assetSource) AssetStore() app.AssetStore { return s.store }

func newFixture() *fixture {
	log := zerolog.Nop()
	primary := memory.NewRecordBackend()
	backup := memory.NewRecordBackend()
	assets := memory.NewAssetStore("https://cdn.test")
	records := app.NewRecordStore(app.StaticChain{primary, backup}, log)
	content := app.NewContentServiceWithClock(records, log, fixedClock(time.UnixMilli(1700000000000), time.Millisecond))
	submissions := app.NewSubmissionService(records, content, app.NewSubmissionFeed(), log)
	uploads := app.NewUploadServiceWithClock(assetSource{assets}, content, 1<<20, log, fixedClock(time.UnixMilli(1700000000000), time.Millisecond))
	return &fixture{
		primary:     primary,
		backup:      backup,
		assets:      assets,
		records:     records,
		content:     content,
		submissions: submissions,
		uploads:     uploads,
	}
}

func strPtr(s string) *string { return &s }
