package audit

import (
	"context"

	"example.com/logistics/services/tracking/internal/models"
	"example.com/logistics/services/tracking/internal/repository"

	"github.com/sirupsen/logrus"
)

// Entry captures one webhook request/response pair for the audit
// trail.
type Entry struct {
	RequestID       string
	WaybillNo       string
	ResponseStatus  int
	ResponseMessage string
	ErrorMessage    string
	ClientIP        string
	ClientID        string
	Payload         []byte
}

// Recorder persists webhook audit entries. Recording is best-effort:
// an audit failure must never affect the webhook response.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

type recorder struct {
	repo repository.Repository
	log  *logrus.Logger
}

// NewRecorder creates a Recorder backed by the repository.
func NewRecorder(repo repository.Repository, log *logrus.Logger) Recorder {
	return &recorder{repo: repo, log: log}
}

func (r *recorder) Record(ctx context.Context, entry Entry) {
	row := &models.WebhookAuditLog{
		RequestID:       entry.RequestID,
		WaybillNo:       models.StrPtr(entry.WaybillNo),
		Payload:         models.StrPtr(string(entry.Payload)),
		ResponseStatus:  entry.ResponseStatus,
		ResponseMessage: models.StrPtr(entry.ResponseMessage),
		ErrorMessage:    models.StrPtr(entry.ErrorMessage),
		ClientIP:        models.StrPtr(entry.ClientIP),
		ClientID:        models.StrPtr(entry.ClientID),
	}

	if err := r.repo.SaveAuditLog(ctx, row); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": entry.RequestID,
			"error":      err.Error(),
		}).Warn("Failed to record webhook audit log")
	}
}
