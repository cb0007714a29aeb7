// Package classifications proxies the provider's classification endpoints and
// tracks each account's bulk submissions.
package classifications

import (
	"context"
	"log/slog"

	"github.com/JaimeStill/tollgate/internal/provider"
	"github.com/JaimeStill/tollgate/pkg/pagination"
	"github.com/JaimeStill/tollgate/pkg/repository"
	"github.com/JaimeStill/tollgate/pkg/result"
	"github.com/JaimeStill/tollgate/pkg/storage"
	"github.com/JaimeStill/tollgate/pkg/validation"
)

// System is the classification domain contract.
type System interface {
	Classify(ctx context.Context, req provider.ClassifyRequest) result.Result[provider.Classification]
	BulkClassify(ctx context.Context, cmd BulkCommand) result.Result[provider.BulkSubmission]
	Status(ctx context.Context, groupID string) result.Result[provider.BulkStatus]
	Results(ctx context.Context, groupID string) result.Result[provider.BulkResults]
	Cancel(ctx context.Context, groupID string) result.Result[provider.Message]
	DeleteBulk(ctx context.Context, groupID string) result.Result[provider.Message]
	Downloadables(ctx context.Context, _ struct{}) result.Result[provider.Downloadables]
	QueueStatuses(ctx context.Context, _ struct{}) result.Result[provider.QueueStatuses]
	Counts(ctx context.Context, _ struct{}) result.Result[provider.Counts]

	Jobs(ctx context.Context, q JobQuery) result.Result[pagination.PageResult[Job]]
	Sync(ctx context.Context, _ struct{}) result.Result[[]Job]
	DeleteJobs(ctx context.Context, cmd JobIDs) result.Result[Deleted]
	DeleteJob(ctx context.Context, id string) result.Result[Deleted]
	RestoreJob(ctx context.Context, id string) result.Result[Job]
	Archive(ctx context.Context, id string) result.Result[Download]
}

type system struct {
	provider provider.Provider
	jobs     *Jobs
	archives *Archives
	storage  storage.System
	logger   *slog.Logger
}

// New creates the classification System. A nil store disables archiving.
func New(p provider.Provider, jobs *Jobs, archives *Archives, store storage.System, logger *slog.Logger) System {
	return &system{
		provider: p,
		jobs:     jobs,
		archives: archives,
		storage:  store,
		logger:   logger.With("system", "classifications"),
	}
}

func classifyRules(v *validation.Validator, req provider.ClassifyRequest) {
	v.Required("productDescription", req.ProductDescription).
		Required("engine", req.Engine)
	delayRules(v, req.MockDelay)
}

func (s *system) Classify(ctx context.Context, req provider.ClassifyRequest) result.Result[provider.Classification] {
	if err := validation.Validate(req, classifyRules).Err(); err != nil {
		return result.Fail[provider.Classification](err)
	}
	c, err := s.provider.Classify(ctx, req)
	return result.From(c, err)
}

func (s *system) Status(ctx context.Context, groupID string) result.Result[provider.BulkStatus] {
	st, err := s.provider.BulkStatus(ctx, groupID)
	return result.From(st, err)
}

func (s *system) Results(ctx context.Context, groupID string) result.Result[provider.BulkResults] {
	res, err := s.provider.BulkResults(ctx, groupID)
	return result.From(res, err)
}

// Cancel cancels the group remotely and marks the caller's matching job.
func (s *system) Cancel(ctx context.Context, groupID string) result.Result[provider.Message] {
	msg, err := s.provider.CancelBulk(ctx, groupID)
	if err != nil {
		return result.Fail[provider.Message](err)
	}

	job, found, err := s.jobs.FindOne(ctx, repository.Criteria{Where: ownGroup(ctx, groupID)})
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "cancelled job lookup failed", "group_id", groupID, "error", err)
	case found:
		if _, err := s.jobs.Update(ctx, job.ID, repository.Fields{"status": provider.StatusCancelled}); err != nil {
			s.logger.WarnContext(ctx, "cancelled job not updated", "job", job.ID, "error", err)
		}
	}

	return result.Success(msg)
}

// DeleteBulk deletes the group remotely and soft deletes the caller's
// matching job with its archive.
func (s *system) DeleteBulk(ctx context.Context, groupID string) result.Result[provider.Message] {
	msg, err := s.provider.DeleteBulk(ctx, groupID)
	if err != nil {
		return result.Fail[provider.Message](err)
	}

	if _, err := s.jobs.SoftDeleteWhere(ctx, ownGroup(ctx, groupID)); err != nil {
		s.logger.WarnContext(ctx, "deleted job not removed", "group_id", groupID, "error", err)
	}

	return result.Success(msg)
}

func (s *system) Downloadables(ctx context.Context, _ struct{}) result.Result[provider.Downloadables] {
	d, err := s.provider.Downloadables(ctx)
	return result.From(d, err)
}

func (s *system) QueueStatuses(ctx context.Context, _ struct{}) result.Result[provider.QueueStatuses] {
	q, err := s.provider.QueueStatuses(ctx)
	return result.From(q, err)
}

func (s *system) Counts(ctx context.Context, _ struct{}) result.Result[provider.Counts] {
	c, err := s.provider.Counts(ctx)
	return result.From(c, err)
}
