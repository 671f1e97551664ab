package service

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/aulavid/aulavid-api/internal/models"
)

// VideoEvent is the payload published whenever a video changes lifecycle
// state. Consumers include dashboards and any future notification fanout.
type VideoEvent struct {
	VideoID     uint      `json:"video_id"`
	ProfessorID uint      `json:"professor_id"`
	SubjectID   uint      `json:"subject_id"`
	Status      string    `json:"status"`
	Source      string    `json:"source"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// VideoEventPublisher fans out video lifecycle events.
type VideoEventPublisher interface {
	PublishStatus(video models.Video, source string)
}

type natsVideoEvents struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSVideoEvents constructs a NATS-backed publisher. A nil connection
// yields a publisher that drops events, so callers never branch on wiring.
func NewNATSVideoEvents(conn *nats.Conn, subject string, logger zerolog.Logger) VideoEventPublisher {
	if subject == "" {
		subject = "aulavid.videos.status"
	}
	return &natsVideoEvents{
		conn:    conn,
		subject: subject,
		logger:  logger.With().Str("component", "video_events").Logger(),
	}
}

func (p *natsVideoEvents) PublishStatus(video models.Video, source string) {
	if p.conn == nil {
		return
	}

	payload, err := json.Marshal(VideoEvent{
		VideoID:     video.ID,
		ProfessorID: video.ProfessorID,
		SubjectID:   video.SubjectID,
		Status:      video.Status,
		Source:      source,
		OccurredAt:  time.Now().UTC(),
	})
	if err != nil {
		return
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).Uint("video_id", video.ID).Msg("failed to publish video event")
	}
}
