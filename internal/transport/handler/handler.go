package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"

	"github.com/ravishrisanjay/AWS-serverless-processor/internal/entities"
	ierr "github.com/ravishrisanjay/AWS-serverless-processor/internal/errors"
	"github.com/ravishrisanjay/AWS-serverless-processor/internal/logger"
)

type UseCase interface {
	IssueLinks(ctx context.Context, req LinkRequest) (entities.Links, error)
}

// Publisher puts storage notifications on the processing queue.
type Publisher interface {
	Enqueue(ctx context.Context, body string) (string, error)
}

type Handler struct {
	useCase      UseCase
	publisher    Publisher
	maxBodyBytes int64
	log          *logger.Logger
}

// New builds the handler. publisher may be nil when notifications are
// delivered by SQS instead of webhook.
func New(useCase UseCase, publisher Publisher, maxBodyBytes int64, log *logger.Logger) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 64 << 10
	}
	return &Handler{
		useCase:      useCase,
		publisher:    publisher,
		maxBodyBytes: maxBodyBytes,
		log:          log.Named("http"),
	}
}

// AcceptsNotifications reports whether the notification webhook is wired.
func (h *Handler) AcceptsNotifications() bool {
	return h.publisher != nil
}

func (h *Handler) IssueLinks(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	var req LinkRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSONError(w, "request body must be a JSON object", http.StatusBadRequest)
			return
		}
	}

	links, err := h.useCase.IssueLinks(r.Context(), req)
	if err != nil {
		status := ierr.HTTPStatusFromErr(err)
		if status >= http.StatusInternalServerError {
			h.log.Errorw("issuing links failed", "filename", req.Filename, "error", err)
		}
		writeJSONError(w, ierr.DisplayMessage(err), status)
		return
	}

	writeJSON(w, http.StatusOK, links)
}

// Notify accepts a storage notification posted by an S3-compatible store and
// queues it for the pipeline.
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	if !isJSON(body) {
		writeJSONError(w, "notification must be JSON", http.StatusUnsupportedMediaType)
		return
	}

	id, err := h.publisher.Enqueue(r.Context(), string(body))
	if err != nil {
		h.log.Errorw("enqueue notification failed", "error", err)
		writeJSONError(w, "could not queue notification", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, NotificationAccepted{ID: id})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, "request body too large", http.StatusRequestEntityTooLarge)
		} else {
			writeJSONError(w, "could not read request body", http.StatusBadRequest)
		}
		return nil, false
	}
	return body, true
}

// isJSON also accepts JSON-derived types mimetype may report.
func isJSON(b []byte) bool {
	for m := mimetype.Detect(b); m != nil; m = m.Parent() {
		if m.Is("application/json") {
			return true
		}
	}
	return false
}
