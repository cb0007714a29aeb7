package classifications

import (
	"github.com/JaimeStill/tollgate/internal/schema"
	"github.com/JaimeStill/tollgate/pkg/pagination"
	"github.com/JaimeStill/tollgate/pkg/repository"
)

var (
	jobColumns = []string{
		"id", "account_id", "archive_id", "group_id", "engine", "priority",
		"description", "status", "total_items", "completed_count", "failed_count",
		"progress", "created_at", "updated_at", "deleted_at",
	}
	archiveColumns = []string{
		"id", "storage_key", "file_name", "content_type", "size_bytes",
		"created_at", "updated_at", "deleted_at",
	}
)

// Jobs is the bulk_jobs repository.
type Jobs = repository.Repository[Job, Job]

// Archives is the archives repository.
type Archives = repository.Repository[Archive, Archive]

func NewJobs(pool repository.Pool, relations *repository.Registry, observer repository.Observer, pg pagination.Config) *Jobs {
	return repository.New(pool, repository.Config[Job, Job]{
		Table:      schema.BulkJobs,
		Columns:    jobColumns,
		Relations:  relations,
		Observer:   observer,
		Pagination: pg,
	})
}

func NewArchives(pool repository.Pool, relations *repository.Registry, observer repository.Observer) *Archives {
	return repository.New(pool, repository.Config[Archive, Archive]{
		Table:     schema.Archives,
		Columns:   archiveColumns,
		Relations: relations,
		Observer:  observer,
	})
}
