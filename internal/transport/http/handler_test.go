package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"promo-quiz-service/internal/app"
	"promo-quiz-service/internal/domain"
	"promo-quiz-service/internal/infra/memory"
	"github.com/rs/zerolog"
)

type testEnv struct {
	server      *httptest.Server
	assets      *memory.AssetStore
	submissions *app.SubmissionService
}

type staticAssets struct{ store app.AssetStore }

func (s staticAssets) AssetStore() app.AssetStore { return s.store }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zerolog.Nop()
	records := app.NewRecordStore(app.StaticChain{memory.NewRecordBackend()}, log)
	content := app.NewContentService(records, log)
	submissions := app.NewSubmissionService(records, content, app.NewSubmissionFeed(), log)
	assets := memory.NewAssetStore("https://cdn.test")
	uploads := app.NewUploadService(staticAssets{assets}, content, 1<<20, log)

	router := NewRouter(RouterConfig{
		API:  NewHandler(content, submissions, uploads, 1<<20, log),
		Feed: NewFeedHandler(submissions, log),
		Log:  log,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testEnv{server: server, assets: assets, submissions: submissions}
}

func (e *testEnv) postJSON(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(e.server.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func (e *testEnv) content(t *testing.T) domain.Content {
	t.Helper()
	resp, err := http.Get(e.server.URL + "/content")
	if err != nil {
		t.Fatalf("get content: %v", err)
	}
	var c domain.Content
	decodeBody(t, resp, &c)
	return c
}

func (e *testEnv) count(t *testing.T) int {
	t.Helper()
	resp, err := http.Get(e.server.URL + "/submissions")
	if err != nil {
		t.Fatalf("get submissions: %v", err)
	}
	var body submissionsResponse
	decodeBody(t, resp, &body)
	if body.Count != len(body.Submissions) {
		t.Fatalf("count %d does not match %d submissions", body.Count, len(body.Submissions))
	}
	return body.Count
}

func TestContentRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	if got := env.content(t); got.VideoURL != domain.DefaultVideoURL {
		t.Fatalf("expected example video on fresh instance, got %q", got.VideoURL)
	}

	resp := env.postJSON(t, "/content", `{"videoUrl":"https://x/a.mp4","questions":[]}`)
	var ok successResponse
	decodeBody(t, resp, &ok)
	if resp.StatusCode != http.StatusOK || !ok.Success {
		t.Fatalf("expected success, got %d %+v", resp.StatusCode, ok)
	}

	if got := env.content(t); got.VideoURL != "https://x/a.mp4" {
		t.Fatalf("expected saved video, got %q", got.VideoURL)
	}
}

func TestSaveContentPartialUpdate(t *testing.T) {
	env := newTestEnv(t)
	env.postJSON(t, "/content", `{"videoUrl":"https://x/a.mp4","videoType":"upload","questions":[{"text":"Pet?","answer":"cat"}]}`).Body.Close()
	env.postJSON(t, "/content", `{"backgroundImageUrl":"https://x/bg.png"}`).Body.Close()

	got := env.content(t)
	if got.VideoURL != "https://x/a.mp4" || got.BackgroundImageURL != "https://x/bg.png" {
		t.Fatalf("expected merged media, got %+v", got.MediaConfig)
	}
	if len(got.Questions) != 1 || got.Questions[0].ID == "" {
		t.Fatalf("expected question kept with generated id, got %+v", got.Questions)
	}
}

func TestSaveContentRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	for _, body := range []string{`{}`, `{"videoType":"vimeo"}`, `{not json`, ``} {
		resp := env.postJSON(t, "/content", body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestSubmitScenario(t *testing.T) {
	env := newTestEnv(t)
	start := time.Now().UTC().Add(-time.Millisecond)
	before := env.count(t)

	resp := env.postJSON(t, "/submit", `{"name":"Ana","employeeId":"E100","answer":"cat","isCorrect":true}`)
	var body submitResponse
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusOK || !body.Success {
		t.Fatalf("expected success, got %d", resp.StatusCode)
	}
	if env.count(t) != before+1 {
		t.Fatalf("expected count to grow by one")
	}
	if !body.Submission.IsCorrect {
		t.Fatalf("expected isCorrect true")
	}
	ts, err := time.Parse(time.RFC3339Nano, body.Submission.Timestamp)
	if err != nil || !ts.After(start) {
		t.Fatalf("expected ISO-8601 timestamp after test start, got %q (%v)", body.Submission.Timestamp, err)
	}
}

func TestSubmitMissingNameIsRejected(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postJSON(t, "/submit", `{"name":"","employeeId":"E1","answer":"x"}`)
	var body errorResponse
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body.Fields["name"] == "" {
		t.Fatalf("expected field error for name, got %+v", body)
	}
	if env.count(t) != 0 {
		t.Fatalf("expected no submission stored")
	}

	resp = env.postJSON(t, "/submit", `{"name":"  ","employeeId":"E1","answer":"x"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected whitespace name rejected, got %d", resp.StatusCode)
	}
}

func TestResetSubmissions(t *testing.T) {
	env := newTestEnv(t)
	env.postJSON(t, "/submit", `{"name":"Ana","employeeId":"E100","answer":"cat"}`).Body.Close()

	for i := 0; i < 2; i++ {
		resp := env.postJSON(t, "/submissions/reset", ``)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("reset %d: expected 200, got %d", i, resp.StatusCode)
		}
	}
	if env.count(t) != 0 {
		t.Fatalf("expected empty log after reset")
	}
}

func TestExportSubmissions(t *testing.T) {
	env := newTestEnv(t)
	env.postJSON(t, "/submit", `{"name":"Ana","employeeId":"E100","answer":"cat","isCorrect":true}`).Body.Close()

	resp, err := http.Get(env.server.URL + "/submissions/export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer resp.Body.Close()
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected content type %s", resp.Header.Get("Content-Type"))
	}
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "Ana,E100,cat,Yes") {
		t.Fatalf("expected submission row, got %q", buf.String())
	}
}

func multipartUpload(t *testing.T, url, kind, filename, contentType string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if kind != "" {
		_ = w.WriteField("type", kind)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write(data)
	_ = w.Close()

	resp, err := http.Post(url+"/upload", w.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return resp
}

func TestUploadVideoUpdatesContent(t *testing.T) {
	env := newTestEnv(t)

	resp := multipartUpload(t, env.server.URL, "video", "clip.mp4", "video/mp4", []byte("movie"))
	var body map[string]any
	decodeBody(t, resp, &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d %+v", resp.StatusCode, body)
	}
	videoURL, ok := body["videoUrl"].(string)
	if !ok || videoURL == "" {
		t.Fatalf("expected videoUrl in response, got %+v", body)
	}
	if got := env.content(t); got.VideoURL != videoURL {
		t.Fatalf("expected content to reflect upload, got %q", got.VideoURL)
	}
}

func TestUploadResponseKeysByType(t *testing.T) {
	env := newTestEnv(t)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	resp := multipartUpload(t, env.server.URL, "image", "bg.png", "image/png", png)
	var bg map[string]any
	decodeBody(t, resp, &bg)
	if _, ok := bg["backgroundImageUrl"]; !ok {
		t.Fatalf("expected backgroundImageUrl, got %+v", bg)
	}

	resp = multipartUpload(t, env.server.URL, "question-image", "q.png", "image/png", png)
	var q map[string]any
	decodeBody(t, resp, &q)
	if _, ok := q["url"]; !ok {
		t.Fatalf("expected url, got %+v", q)
	}
}

func TestUploadRejectsMismatchAndUnknownType(t *testing.T) {
	env := newTestEnv(t)

	resp := multipartUpload(t, env.server.URL, "video", "bg.png", "image/png", []byte("x"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for mime mismatch, got %d", resp.StatusCode)
	}

	resp = multipartUpload(t, env.server.URL, "spreadsheet", "a.csv", "text/csv", []byte("x"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown type, got %d", resp.StatusCode)
	}
	if env.assets.Len() != 0 {
		t.Fatalf("rejected uploads must not be stored")
	}
}

func TestUploadWithoutFile(t *testing.T) {
	env := newTestEnv(t)
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("type", "video")
	_ = w.Close()

	resp, err := http.Post(env.server.URL+"/upload", w.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Fatalf("expected request id header")
	}
}
