package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"promo-quiz-service/internal/domain"
)

const (
	ContentFile     = "content.json"
	SubmissionsFile = "submissions.json"
)

// mediaFields are the content.json keys that make up the media record.
var mediaFields = []string{"videoUrl", "backgroundImageUrl", "videoType"}

// RecordBackend persists records as pretty-printed JSON files under a data directory.
// Media and questions share content.json; submissions live in submissions.json.
type RecordBackend struct {
	dir string
	mu  sync.Mutex
}

func NewRecordBackend(dir string) *RecordBackend {
	return &RecordBackend{dir: dir}
}

func (b *RecordBackend) Name() string { return "file" }

// Dir is the data directory.
func (b *RecordBackend) Dir() string { return b.dir }

func (b *RecordBackend) Load(_ context.Context, record domain.RecordName) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch record {
	case domain.RecordSubmissions:
		return b.read(SubmissionsFile)
	case domain.RecordMedia:
		doc, err := b.readContent()
		if err != nil {
			return nil, err
		}
		media := make(map[string]json.RawMessage, len(mediaFields))
		for _, k := range mediaFields {
			if v, ok := doc[k]; ok {
				media[k] = v
			}
		}
		if len(media) == 0 {
			return nil, domain.ErrRecordNotFound
		}
		return json.Marshal(media)
	case domain.RecordQuestions:
		doc, err := b.readContent()
		if err != nil {
			return nil, err
		}
		questions, ok := doc["questions"]
		if !ok {
			return nil, domain.ErrRecordNotFound
		}
		return questions, nil
	}
	return nil, fmt.Errorf("unknown record %q", record)
}

func (b *RecordBackend) Save(_ context.Context, record domain.RecordName, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch record {
	case domain.RecordSubmissions:
		return b.write(SubmissionsFile, data)
	case domain.RecordMedia:
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return fmt.Errorf("decode media: %w", err)
		}
		return b.updateContent(func(doc map[string]json.RawMessage) {
			for _, k := range mediaFields {
				if v, ok := fields[k]; ok {
					doc[k] = v
				}
			}
		})
	case domain.RecordQuestions:
		return b.updateContent(func(doc map[string]json.RawMessage) {
			doc["questions"] = json.RawMessage(data)
		})
	}
	return fmt.Errorf("unknown record %q", record)
}

// Clear writes an empty submissions array rather than removing the file. Content
// records lose their keys inside content.json.
func (b *RecordBackend) Clear(_ context.Context, record domain.RecordName) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch record {
	case domain.RecordSubmissions:
		return b.write(SubmissionsFile, []byte("[]"))
	case domain.RecordMedia:
		return b.updateContent(func(doc map[string]json.RawMessage) {
			for _, k := range mediaFields {
				delete(doc, k)
			}
		})
	case domain.RecordQuestions:
		return b.updateContent(func(doc map[string]json.RawMessage) {
			delete(doc, "questions")
		})
	}
	return fmt.Errorf("unknown record %q", record)
}

func (b *RecordBackend) read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(b.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (b *RecordBackend) readContent() (map[string]json.RawMessage, error) {
	data, err := b.read(ContentFile)
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ContentFile, err)
	}
	return doc, nil
}

// updateContent rewrites content.json. An unreadable or corrupt file is replaced.
func (b *RecordBackend) updateContent(mutate func(map[string]json.RawMessage)) error {
	doc, err := b.readContent()
	if err != nil || doc == nil {
		doc = make(map[string]json.RawMessage)
	}
	mutate(doc)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ContentFile, err)
	}
	return b.write(ContentFile, data)
}

// write replaces name atomically with data re-indented for humans.
func (b *RecordBackend) write(name string, data []byte) error {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return fmt.Errorf("indent %s: %w", name, err)
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(b.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(pretty.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(b.dir, name)); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
