package app

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"promo-quiz-service/internal/domain"
	"github.com/rs/zerolog"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// SubmissionService records quiz attempts and manages the submission log.
type SubmissionService struct {
	records *RecordStore
	content *ContentService
	feed    *SubmissionFeed
	clock   func() time.Time
	log     zerolog.Logger

	// mu serialises read-modify-write appends within this process.
	mu     sync.Mutex
	lastID int64
}

func NewSubmissionService(records *RecordStore, content *ContentService, feed *SubmissionFeed, log zerolog.Logger) *SubmissionService {
	return NewSubmissionServiceWithClock(records, content, feed, log, time.Now)
}

// NewSubmissionServiceWithClock is used by tests for deterministic timestamps.
func NewSubmissionServiceWithClock(records *RecordStore, content *ContentService, feed *SubmissionFeed, log zerolog.Logger, now func() time.Time) *SubmissionService {
	if feed == nil {
		feed = NewSubmissionFeed()
	}
	return &SubmissionService{
		records: records,
		content: content,
		feed:    feed,
		clock:   now,
		log:     log.With().Str("component", "submissions").Logger(),
	}
}

// Record validates and appends one submission and returns the stored record.
// When QuestionID names a stored question the answer is graded here and the
// client's IsCorrect is ignored.
func (s *SubmissionService) Record(ctx context.Context, in domain.SubmissionInput) (domain.Submission, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	in.Answer = strings.TrimSpace(in.Answer)
	in.QuestionID = strings.TrimSpace(in.QuestionID)

	verr := &domain.ValidationError{Fields: map[string]string{}}
	if in.Name == "" {
		verr.Fields["name"] = "is required"
	}
	if in.EmployeeID == "" {
		verr.Fields["employeeId"] = "is required"
	}
	if in.Answer == "" {
		verr.Fields["answer"] = "is required"
	}
	if len(verr.Fields) > 0 {
		return domain.Submission{}, verr
	}

	correct := in.IsCorrect
	if in.QuestionID != "" && s.content != nil {
		if q, ok := s.content.Question(ctx, in.QuestionID); ok {
			correct = q.Accepts(in.Answer)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock().UTC()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	sub := domain.Submission{
		ID:         strconv.FormatInt(id, 10),
		Name:       in.Name,
		EmployeeID: in.EmployeeID,
		QuestionID: in.QuestionID,
		Answer:     in.Answer,
		IsCorrect:  correct,
		Timestamp:  now.Format(TimestampLayout),
	}

	subs := s.records.Submissions(ctx)
	subs = append(subs, sub)
	s.records.SaveSubmissions(ctx, subs)

	s.log.Info().
		Str("id", sub.ID).
		Str("employeeId", sub.EmployeeID).
		Bool("correct", sub.IsCorrect).
		Int("total", len(subs)).
		Msg("submission recorded")
	s.feed.Publish(sub)
	return sub, nil
}

// List returns submissions in insertion order.
func (s *SubmissionService) List(ctx context.Context) []domain.Submission {
	return s.records.Submissions(ctx)
}

// ListNewestFirst returns submissions ordered by timestamp, newest first.
func (s *SubmissionService) ListNewestFirst(ctx context.Context) []domain.Submission {
	subs := s.List(ctx)
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].Timestamp > subs[j].Timestamp
	})
	return subs
}

// Reset empties the submission log. Calling it on an empty log is a no-op.
func (s *SubmissionService) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records.Delete(ctx, domain.RecordSubmissions)
	s.log.Info().Msg("submissions reset")
}

// Subscribe streams submissions recorded after the call.
func (s *SubmissionService) Subscribe() (<-chan domain.Submission, func()) {
	return s.feed.Subscribe()
}

var exportHeader = []string{"ID", "Name", "Employee ID", "Answer", "Correct", "Submitted At"}

// ExportCSV writes the submission log, newest first, as CSV.
func (s *SubmissionService) ExportCSV(ctx context.Context, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, sub := range s.ListNewestFirst(ctx) {
		correct := "No"
		if sub.IsCorrect {
			correct = "Yes"
		}
		row := []string{sub.ID, sub.Name, sub.EmployeeID, sub.Answer, correct, sub.Timestamp}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
