package domain

import (
	"encoding/json"
	"strings"
)

// RecordName identifies one of the independently persisted records.
type RecordName string

const (
	RecordMedia       RecordName = "media"
	RecordQuestions   RecordName = "questions"
	RecordSubmissions RecordName = "submissions"
)

// Records lists every record in a stable order.
var Records = []RecordName{RecordMedia, RecordQuestions, RecordSubmissions}

// VideoType tells the player how to render the configured video URL.
type VideoType string

const (
	VideoTypeUpload  VideoType = "upload"
	VideoTypeYouTube VideoType = "youtube"
)

// Valid reports whether t is one of the supported video types.
func (t VideoType) Valid() bool {
	return t == VideoTypeUpload || t == VideoTypeYouTube
}

// DefaultVideoURL is served when no video has been configured yet.
const DefaultVideoURL = "https://interactive-examples.mdn.mozilla.net/media/cc0-videos/flower.mp4"

// MediaConfig holds the promotional video and page background.
type MediaConfig struct {
	VideoURL           string    `json:"videoUrl"`
	BackgroundImageURL string    `json:"backgroundImageUrl"`
	VideoType          VideoType `json:"videoType"`
}

// DefaultMediaConfig is the media record when nothing is stored.
func DefaultMediaConfig() MediaConfig {
	return MediaConfig{VideoType: VideoTypeUpload}
}

// MediaPatch carries the media fields present in a save request.
// Nil fields leave the stored value untouched.
type MediaPatch struct {
	VideoURL           *string
	BackgroundImageURL *string
	VideoType          *VideoType
}

// Empty reports whether the patch changes nothing.
func (p MediaPatch) Empty() bool {
	return p.VideoURL == nil && p.BackgroundImageURL == nil && p.VideoType == nil
}

// Apply merges the patch over m field by field.
func (p MediaPatch) Apply(m MediaConfig) MediaConfig {
	if p.VideoURL != nil {
		m.VideoURL = *p.VideoURL
	}
	if p.BackgroundImageURL != nil {
		m.BackgroundImageURL = *p.BackgroundImageURL
	}
	if p.VideoType != nil {
		m.VideoType = *p.VideoType
	}
	if m.VideoType == "" {
		m.VideoType = VideoTypeUpload
	}
	return m
}

// Question is a free-text quiz question with a single canonical answer.
type Question struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl,omitempty"`
	Answer   string `json:"answer"`
}

// legacyOption is the multiple-choice shape older admin consoles stored.
type legacyOption struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// UnmarshalJSON accepts the legacy multiple-choice shape and migrates it:
// when no answer is stored, the text of the option marked correct becomes the answer.
func (q *Question) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string         `json:"id"`
		Text     string         `json:"text"`
		ImageURL string         `json:"imageUrl"`
		Answer   string         `json:"answer"`
		Options  []legacyOption `json:"options"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = Question{ID: raw.ID, Text: raw.Text, ImageURL: raw.ImageURL, Answer: raw.Answer}
	if q.Answer == "" {
		for _, opt := range raw.Options {
			if opt.Correct {
				q.Answer = opt.Text
				break
			}
		}
	}
	return nil
}

// Accepts reports whether answer matches the canonical answer, ignoring case and
// surrounding whitespace.
func (q Question) Accepts(answer string) bool {
	want := NormalizeAnswer(q.Answer)
	return want != "" && want == NormalizeAnswer(answer)
}

// NormalizeAnswer trims and lower-cases a free-text answer.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Content is the composite view served to the page flow and admin console.
type Content struct {
	MediaConfig
	Questions []Question `json:"questions"`
}

// Submission is one recorded quiz attempt. It is never modified after it is appended.
type Submission struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	EmployeeID string `json:"employeeId"`
	QuestionID string `json:"questionId,omitempty"`
	Answer     string `json:"answer"`
	IsCorrect  bool   `json:"isCorrect"`
	Timestamp  string `json:"timestamp"`
}

// SubmissionInput is what a participant sends when answering.
type SubmissionInput struct {
	Name       string
	EmployeeID string
	QuestionID string
	Answer     string
	IsCorrect  bool
}

// UploadKind says what an uploaded file is for.
type UploadKind string

const (
	UploadVideo           UploadKind = "video"
	UploadBackgroundImage UploadKind = "background-image"
	UploadQuestionImage   UploadKind = "question-image"
)

// ParseUploadKind maps the form value to a kind. "image" is the older spelling of
// background-image.
func ParseUploadKind(s string) (UploadKind, bool) {
	switch strings.TrimSpace(s) {
	case "video":
		return UploadVideo, true
	case "background-image", "image", "background":
		return UploadBackgroundImage, true
	case "question-image":
		return UploadQuestionImage, true
	}
	return "", false
}

// UploadResult is the stored location of an uploaded file.
type UploadResult struct {
	Kind UploadKind
	URL  string
}
