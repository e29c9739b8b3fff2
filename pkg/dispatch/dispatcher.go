// Package dispatch sends the attachments of one checklist item to a storage
// backend and reports an outcome per attachment.
//
// Each upload runs as an independent task. Tasks share nothing but read
// access to their attachment's bytes; each one sends its Result on a channel
// and the batch is assembled from those messages. A failing upload never
// cancels or rolls back its siblings.
package dispatch

import (
	"context"
	"errors"
	"strings"

	"document-hub-be/internal/pkg/apperror"
	"document-hub-be/internal/pkg/logger"
	"document-hub-be/pkg/ledger"
	"document-hub-be/pkg/storage"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const logModule = "Dispatcher"

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Result is the outcome of uploading one attachment. Callers reconcile
// results with attachments by AttachmentID.
type Result struct {
	AttachmentID  uuid.UUID     `json:"attachment_id"`
	Name          string        `json:"name"`
	RequestedPath string        `json:"requested_path"`
	CommittedPath string        `json:"committed_path,omitempty"`
	Outcome       Outcome       `json:"outcome"`
	ErrorKind     apperror.Kind `json:"error_kind,omitempty"`
	Reason        string        `json:"reason,omitempty"`
}

func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// Renamed reports whether the backend committed under a different path.
func (r Result) Renamed() bool {
	return r.Succeeded() && r.CommittedPath != r.RequestedPath
}

// Dispatcher issues uploads against a storage.Backend.
type Dispatcher struct {
	backend     storage.Backend
	logger      logger.ILogger
	concurrency int
	tracer      trace.Tracer
}

// New creates a Dispatcher that runs at most concurrency uploads at once.
// A non-positive concurrency means one upload goroutine per attachment.
func New(backend storage.Backend, log logger.ILogger, concurrency int) *Dispatcher {
	return &Dispatcher{
		backend:     backend,
		logger:      log,
		concurrency: concurrency,
		tracer:      otel.Tracer("document-hub/dispatch"),
	}
}

// DestinationPath joins root and name as "{root}/{name}" without doubling a
// trailing slash on root.
func DestinationPath(root, name string) string {
	return strings.TrimSuffix(root, "/") + "/" + name
}

// Dispatch uploads every attachment under destinationRoot and returns exactly
// one Result per attachment, in the order given. It imposes no size limit and
// never returns an error: per-file failures are carried in the results.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	attachments []ledger.Attachment,
	destinationRoot string,
	mode storage.ConflictMode,
) []Result {
	results := make([]Result, len(attachments))
	if len(attachments) == 0 {
		return results
	}

	if !mode.Valid() {
		for i, att := range attachments {
			results[i] = failure(att, DestinationPath(destinationRoot, att.Name),
				apperror.KindValidation, "invalid conflict mode: "+string(mode))
		}
		return results
	}

	type indexed struct {
		pos    int
		result Result
	}
	done := make(chan indexed, len(attachments))

	var g errgroup.Group
	if d.concurrency > 0 {
		g.SetLimit(d.concurrency)
	}
	for i, att := range attachments {
		g.Go(func() error {
			done <- indexed{pos: i, result: d.upload(ctx, att, destinationRoot, mode)}
			return nil
		})
	}
	_ = g.Wait()
	close(done)

	for msg := range done {
		results[msg.pos] = msg.result
	}
	return results
}

func (d *Dispatcher) upload(ctx context.Context, att ledger.Attachment, root string, mode storage.ConflictMode) Result {
	requested := DestinationPath(root, att.Name)

	ctx, span := d.tracer.Start(ctx, "dispatch.upload", trace.WithAttributes(
		attribute.String("storage.backend", d.backend.Name()),
		attribute.String("storage.path", requested),
		attribute.String("storage.conflict_mode", string(mode)),
		attribute.Int64("attachment.size_bytes", att.SizeBytes),
	))
	defer span.End()

	committed, err := d.backend.Upload(ctx, requested, att.Content, mode)
	if err != nil {
		kind := classify(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(kind))
		d.logger.Warn(logModule, "Upload failed", map[string]interface{}{
			"attachment_id": att.ID.String(),
			"path":          requested,
			"kind":          kind,
			"error":         err.Error(),
		})
		return failure(att, requested, kind, err.Error())
	}

	span.SetAttributes(attribute.String("storage.committed_path", committed))
	d.logger.Info(logModule, "Upload committed", map[string]interface{}{
		"attachment_id":  att.ID.String(),
		"requested_path": requested,
		"committed_path": committed,
		"size_bytes":     att.SizeBytes,
	})

	return Result{
		AttachmentID:  att.ID,
		Name:          att.Name,
		RequestedPath: requested,
		CommittedPath: committed,
		Outcome:       OutcomeSuccess,
	}
}

func failure(att ledger.Attachment, requested string, kind apperror.Kind, reason string) Result {
	return Result{
		AttachmentID:  att.ID,
		Name:          att.Name,
		RequestedPath: requested,
		Outcome:       OutcomeFailure,
		ErrorKind:     kind,
		Reason:        reason,
	}
}

func classify(err error) apperror.Kind {
	switch {
	case errors.Is(err, storage.ErrPayloadTooLarge):
		return apperror.KindPayloadTooLarge
	case errors.Is(err, storage.ErrInvalidPath), errors.Is(err, storage.ErrInvalidMode):
		return apperror.KindValidation
	default:
		return apperror.KindBackend
	}
}

// Summary counts successes and failures in a batch.
func Summary(results []Result) (succeeded, failed int) {
	for _, r := range results {
		if r.Succeeded() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}
