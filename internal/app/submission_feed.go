package app

import (
	"sync"

	"promo-quiz-service/internal/domain"
)

// SubmissionFeed fans newly recorded submissions out to live subscribers such as
// the admin console.
type SubmissionFeed struct {
	mu          sync.Mutex
	subscribers map[chan domain.Submission]struct{}
}

func NewSubmissionFeed() *SubmissionFeed {
	return &SubmissionFeed{subscribers: make(map[chan domain.Submission]struct{})}
}

// Subscribe returns a channel of new submissions.
// The caller must invoke the returned cancel function to avoid leaks.
func (f *SubmissionFeed) Subscribe() (<-chan domain.Submission, func()) {
	ch := make(chan domain.Submission, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish never blocks: a subscriber with a full buffer loses its oldest entry.
func (f *SubmissionFeed) Publish(sub domain.Submission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- sub:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- sub
		}
	}
}

// Subscribers reports how many subscribers are attached.
func (f *SubmissionFeed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}
