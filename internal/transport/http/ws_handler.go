package http

import (
	"net/http"
	"time"

	"promo-quiz-service/internal/app"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const feedWriteWait = 10 * time.Second

// FeedHandler streams new submissions to the admin console over a websocket.
type FeedHandler struct {
	submissions *app.SubmissionService
	upgrader    websocket.Upgrader
	log         zerolog.Logger
}

func NewFeedHandler(submissions *app.SubmissionService, log zerolog.Logger) *FeedHandler {
	return &FeedHandler{
		submissions: submissions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log.With().Str("component", "feed").Logger(),
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type snapshotPayload struct {
	Count int `json:"count"`
}

// ServeWS sends a snapshot with the current count, then one "submission" message
// per new record until the client goes away.
func (h *FeedHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	updates, cancel := h.submissions.Subscribe()
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	count := len(h.submissions.List(r.Context()))
	_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
	if err := conn.WriteJSON(outboundMessage[snapshotPayload]{Type: "snapshot", Payload: snapshotPayload{Count: count}}); err != nil {
		return
	}

	// The reader only watches for the client closing the socket.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case sub, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(outboundMessage[any]{Type: "submission", Payload: sub}); err != nil {
				h.log.Debug().Err(err).Msg("ws write error")
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
