package app_test

import (
	"context"
	"encoding/json"
	"testing"

	"promo-quiz-service/internal/app"
	"promo-quiz-service/internal/domain"
	"promo-quiz-service/internal/infra/memory"
	"github.com/rs/zerolog"
)

func TestGetReturnsDefaultsWhenEverythingMisses(t *testing.T) {
	ctx := context.Background()
	store := app.NewRecordStore(app.StaticChain{memory.NewRecordBackend()}, zerolog.Nop())

	if got := store.Media(ctx); got != domain.DefaultMediaConfig() {
		t.Fatalf("expected default media, got %+v", got)
	}
	if got := store.Questions(ctx); got == nil || len(got) != 0 {
		t.Fatalf("expected empty question set, got %#v", got)
	}
	if got := store.Submissions(ctx); got == nil || len(got) != 0 {
		t.Fatalf("expected empty submissions, got %#v", got)
	}
}

func TestCorruptPrimaryFallsThroughToBackup(t *testing.T) {
	ctx := context.Background()
	primary := memory.NewRecordBackend()
	backup := memory.NewRecordBackend()
	primary.Put(domain.RecordQuestions, []byte("{not json"))
	backup.Put(domain.RecordQuestions, []byte(`[{"id":"1","text":"Pet?","answer":"cat"}]`))

	store := app.NewRecordStore(app.StaticChain{primary, backup}, zerolog.Nop())
	questions := store.Questions(ctx)
	if len(questions) != 1 || questions[0].Answer != "cat" {
		t.Fatalf("expected backup question, got %+v", questions)
	}
}

func TestCorruptDataEverywhereYieldsDefaults(t *testing.T) {
	ctx := context.Background()
	b := memory.NewRecordBackend()
	b.Put(domain.RecordMedia, []byte("<<<"))
	b.Put(domain.RecordSubmissions, []byte(`{"not":"an array"}`))

	store := app.NewRecordStore(app.StaticChain{b}, zerolog.Nop())
	if got := store.Media(ctx); got != domain.DefaultMediaConfig() {
		t.Fatalf("expected default media, got %+v", got)
	}
	if got := store.Submissions(ctx); len(got) != 0 {
		t.Fatalf("expected empty submissions, got %+v", got)
	}
}

func TestNullValueIsTreatedAsMiss(t *testing.T) {
	ctx := context.Background()
	primary := memory.NewRecordBackend()
	backup := memory.NewRecordBackend()
	primary.Put(domain.RecordMedia, []byte("null"))
	backup.Put(domain.RecordMedia, []byte(`{"videoUrl":"https://x/b.mp4"}`))

	store := app.NewRecordStore(app.StaticChain{primary, backup}, zerolog.Nop())
	got := store.Media(ctx)
	if got.VideoURL != "https://x/b.mp4" || got.VideoType != domain.VideoTypeUpload {
		t.Fatalf("expected backup media with default type, got %+v", got)
	}
}

func TestSetWritesEveryBackendAndSurvivesFailures(t *testing.T) {
	ctx := context.Background()
	broken := &failingBackend{}
	backup := memory.NewRecordBackend()
	store := app.NewRecordStore(app.StaticChain{broken, backup}, zerolog.Nop())

	store.SaveMedia(ctx, domain.MediaConfig{VideoURL: "https://x/a.mp4", VideoType: domain.VideoTypeYouTube})
	if broken.Calls() != 1 {
		t.Fatalf("expected primary write attempt, got %d", broken.Calls())
	}

	raw, err := backup.Load(ctx, domain.RecordMedia)
	if err != nil {
		t.Fatalf("expected backup write: %v", err)
	}
	var m domain.MediaConfig
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode backup: %v", err)
	}
	if m.VideoURL != "https://x/a.mp4" {
		t.Fatalf("unexpected backup media %+v", m)
	}

	if got := store.Media(ctx); got.VideoType != domain.VideoTypeYouTube {
		t.Fatalf("expected read to skip failing backend, got %+v", got)
	}
}

func TestDeleteClearsEveryBackend(t *testing.T) {
	ctx := context.Background()
	a := memory.NewRecordBackend()
	b := memory.NewRecordBackend()
	store := app.NewRecordStore(app.StaticChain{a, b}, zerolog.Nop())

	store.SaveSubmissions(ctx, []domain.Submission{{ID: "1"}})
	store.Delete(ctx, domain.RecordSubmissions)
	store.Delete(ctx, domain.RecordSubmissions)

	if a.Has(domain.RecordSubmissions) || b.Has(domain.RecordSubmissions) {
		t.Fatalf("expected submissions cleared everywhere")
	}
	if got := store.Submissions(ctx); len(got) != 0 {
		t.Fatalf("expected empty log, got %+v", got)
	}
}

func TestLegacyMultipleChoiceQuestionsAreMigrated(t *testing.T) {
	ctx := context.Background()
	b := memory.NewRecordBackend()
	b.Put(domain.RecordQuestions, []byte(`[{"id":"7","text":"2+2?","options":[{"id":"a","text":"3","correct":false},{"id":"b","text":"4","correct":true}]}]`))

	store := app.NewRecordStore(app.StaticChain{b}, zerolog.Nop())
	questions := store.Questions(ctx)
	if len(questions) != 1 || questions[0].Answer != "4" {
		t.Fatalf("expected migrated answer, got %+v", questions)
	}
}
