package classifications

import (
	"bytes"
	"context"
	"path"

	"github.com/google/uuid"

	"github.com/JaimeStill/tollgate/internal/provider"
	"github.com/JaimeStill/tollgate/pkg/repository"
	"github.com/JaimeStill/tollgate/pkg/reqctx"
	"github.com/JaimeStill/tollgate/pkg/result"
	"github.com/JaimeStill/tollgate/pkg/validation"
)

// BulkClassify submits the CSV to the provider and records the job for the
// caller. Recording failures are logged; the submission already happened.
func (s *system) BulkClassify(ctx context.Context, cmd BulkCommand) result.Result[provider.BulkSubmission] {
	if len(cmd.File) == 0 {
		return result.Fail[provider.BulkSubmission](ErrFileRequired)
	}
	v := validation.New()
	bulkRules(v, cmd)
	if err := v.Err(); err != nil {
		return result.Fail[provider.BulkSubmission](err)
	}

	sub, err := s.provider.BulkClassify(ctx, cmd.Request())
	if err != nil {
		return result.Fail[provider.BulkSubmission](err)
	}

	job, err := s.record(ctx, cmd, sub.GroupID)
	if err != nil {
		s.logger.ErrorContext(ctx, "bulk job not recorded", "group_id", sub.GroupID, "error", err)
	} else {
		s.logger.InfoContext(ctx, "bulk job recorded", "job", job.ID, "group_id", sub.GroupID)
	}

	return result.Success(sub)
}

func (s *system) record(ctx context.Context, cmd BulkCommand, groupID string) (Job, error) {
	accountID := reqctx.AccountID(ctx)

	fields := repository.Fields{
		"account_id":  accountID,
		"group_id":    groupID,
		"engine":      cmd.Engine,
		"priority":    cmd.Priority,
		"description": cmd.Description,
		"status":      provider.StatusPending,
	}

	if s.storage != nil {
		archive, err := s.archive(ctx, accountID, cmd)
		if err != nil {
			s.logger.WarnContext(ctx, "bulk file not archived", "group_id", groupID, "error", err)
		} else {
			fields["archive_id"] = archive.ID
		}
	}

	return s.jobs.Create(ctx, fields, "")
}

func (s *system) archive(ctx context.Context, accountID string, cmd BulkCommand) (Archive, error) {
	id := uuid.NewString()
	key := path.Join("bulk", accountID, id+".csv")

	if err := s.storage.Upload(ctx, key, bytes.NewReader(cmd.File), cmd.ContentType); err != nil {
		return Archive{}, err
	}

	a, err := s.archives.Create(ctx, repository.Fields{
		"storage_key":  key,
		"file_name":    cmd.FileName,
		"content_type": cmd.ContentType,
		"size_bytes":   int64(len(cmd.File)),
	}, id)
	if err != nil {
		if derr := s.storage.Delete(ctx, key); derr != nil {
			s.logger.WarnContext(ctx, "orphaned archive blob", "key", key, "error", derr)
		}
		return Archive{}, err
	}
	return a, nil
}

func own(ctx context.Context, id string) repository.Fields {
	return repository.Fields{"account_id": reqctx.AccountID(ctx), "id": id}
}

func ownGroup(ctx context.Context, groupID string) repository.Fields {
	return repository.Fields{"account_id": reqctx.AccountID(ctx), "group_id": groupID}
}
