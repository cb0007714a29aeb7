package classifications

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/tollgate/internal/provider"
	"github.com/JaimeStill/tollgate/pkg/pagination"
	"github.com/JaimeStill/tollgate/pkg/repository"
	"github.com/JaimeStill/tollgate/pkg/reqctx"
	"github.com/JaimeStill/tollgate/pkg/result"
	"github.com/JaimeStill/tollgate/pkg/validation"
)

// syncLimit bounds concurrent provider status calls during Sync.
const syncLimit = 4

func (s *system) Jobs(ctx context.Context, q JobQuery) result.Result[pagination.PageResult[Job]] {
	page, err := s.jobs.Find(ctx, repository.Criteria{
		Where:  q.Filters.Where(reqctx.AccountID(ctx)),
		Page:   q.Page.Page,
		Offset: q.Page.PageSize,
		Order:  q.Page.Sort,
	})
	return result.From(page, err)
}

// Sync refreshes the caller's unfinished jobs from the provider. Jobs whose
// status cannot be fetched keep their current values.
func (s *system) Sync(ctx context.Context, _ struct{}) result.Result[[]Job] {
	pending, err := s.jobs.FindAll(ctx, repository.Criteria{
		Where: repository.Fields{
			"account_id": reqctx.AccountID(ctx),
			"status":     []string{provider.StatusPending, provider.StatusRunning},
		},
	})
	if err != nil {
		return result.Fail[[]Job](err)
	}

	statuses := make([]*provider.BulkStatus, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncLimit)
	for i, job := range pending {
		g.Go(func() error {
			st, err := s.provider.BulkStatus(gctx, job.GroupID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.WarnContext(ctx, "job status unavailable", "job", job.ID, "group_id", job.GroupID, "error", err)
				return nil
			}
			statuses[i] = &st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result.Fail[[]Job](err)
	}

	patches := make([]repository.Patch, 0, len(pending))
	for i, st := range statuses {
		if st == nil {
			continue
		}
		patches = append(patches, repository.Patch{
			ID: pending[i].ID,
			Fields: repository.Fields{
				"status":          st.OverallStatus,
				"total_items":     st.TotalItems,
				"completed_count": st.CompletedCount,
				"failed_count":    st.FailedCount,
				"progress":        st.ProgressPercentage,
			},
		})
	}

	updated, err := s.jobs.BulkUpdate(ctx, patches, repository.BulkOptions{})
	return result.From(updated, err)
}

// DeleteJobs soft deletes the listed jobs the caller owns. Unknown or
// foreign ids are skipped.
func (s *system) DeleteJobs(ctx context.Context, cmd JobIDs) result.Result[Deleted] {
	v := validation.New().Check(len(cmd.IDs) > 0, "ids", "ids is required")
	for _, id := range cmd.IDs {
		v.UUID("ids", id)
	}
	if err := v.Err(); err != nil {
		return result.Fail[Deleted](err)
	}

	owned, err := s.jobs.FindAll(ctx, repository.Criteria{
		Where:  repository.Fields{"account_id": reqctx.AccountID(ctx), "id": cmd.IDs},
		Select: []string{"id"},
	})
	if err != nil {
		return result.Fail[Deleted](err)
	}

	ids := make([]string, len(owned))
	for i, j := range owned {
		ids[i] = j.ID
	}

	n, err := s.jobs.BulkDelete(ctx, ids, repository.BulkDeleteOptions{})
	if err != nil {
		return result.Fail[Deleted](err)
	}
	return result.Success(Deleted{Deleted: int(n)})
}

// DeleteJob soft deletes one of the caller's jobs and its archive.
func (s *system) DeleteJob(ctx context.Context, id string) result.Result[Deleted] {
	n, err := s.jobs.SoftDeleteWhere(ctx, own(ctx, id))
	if err != nil {
		return result.Fail[Deleted](err)
	}
	if n == 0 {
		return result.Fail[Deleted](jobNotFound(id))
	}
	return result.Success(Deleted{Deleted: n})
}

// RestoreJob undoes DeleteJob, archive included.
func (s *system) RestoreJob(ctx context.Context, id string) result.Result[Job] {
	job, found, err := s.jobs.FindOne(ctx, repository.Criteria{Where: own(ctx, id), IncludeDeleted: true})
	if err != nil {
		return result.Fail[Job](err)
	}
	if !found {
		return result.Fail[Job](jobNotFound(id))
	}

	if job.DeletedAt != nil {
		if err := s.jobs.Restore(ctx, job.ID); err != nil {
			return result.Fail[Job](repository.MapError(err, jobNotFound(id), err))
		}
		if job.ArchiveID != nil {
			if err := s.archives.Restore(ctx, *job.ArchiveID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return result.Fail[Job](err)
			}
		}
	}

	restored, found, err := s.jobs.FindByID(ctx, job.ID, repository.Criteria{})
	if err != nil {
		return result.Fail[Job](err)
	}
	if !found {
		return result.Fail[Job](jobNotFound(id))
	}
	return result.Success(restored)
}

// Archive opens the stored CSV of one of the caller's jobs.
func (s *system) Archive(ctx context.Context, id string) result.Result[Download] {
	job, found, err := s.jobs.FindOne(ctx, repository.Criteria{Where: own(ctx, id)})
	if err != nil {
		return result.Fail[Download](err)
	}
	if !found {
		return result.Fail[Download](jobNotFound(id))
	}
	if job.ArchiveID == nil || s.storage == nil {
		return result.Fail[Download](ErrArchiveNotFound)
	}

	archive, found, err := s.archives.FindByID(ctx, *job.ArchiveID, repository.Criteria{})
	if err != nil {
		return result.Fail[Download](err)
	}
	if !found {
		return result.Fail[Download](ErrArchiveNotFound)
	}

	body, err := s.storage.Download(ctx, archive.StorageKey)
	if err != nil {
		return result.Fail[Download](err)
	}
	return result.Success(Download{Archive: archive, Body: body})
}
