package classifications

import (
	"io"
	"net/url"
	"time"

	"github.com/JaimeStill/tollgate/internal/provider"
	"github.com/JaimeStill/tollgate/pkg/pagination"
	"github.com/JaimeStill/tollgate/pkg/repository"
)

// Job tracks one bulk submission of an account.
type Job struct {
	ID             string     `db:"id" json:"id"`
	AccountID      string     `db:"account_id" json:"accountId"`
	ArchiveID      *string    `db:"archive_id" json:"archiveId"`
	GroupID        string     `db:"group_id" json:"groupId"`
	Engine         string     `db:"engine" json:"engine"`
	Priority       string     `db:"priority" json:"priority"`
	Description    string     `db:"description" json:"description"`
	Status         string     `db:"status" json:"status"`
	TotalItems     int        `db:"total_items" json:"totalItems"`
	CompletedCount int        `db:"completed_count" json:"completedCount"`
	FailedCount    int        `db:"failed_count" json:"failedCount"`
	Progress       float64    `db:"progress" json:"progress"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt      *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

func (j Job) EntityID() string { return j.ID }

// Finished reports whether the provider will not advance the job anymore.
func (j Job) Finished() bool {
	return provider.BulkStatus{OverallStatus: j.Status}.Finished()
}

// Archive is the stored copy of a submitted CSV.
type Archive struct {
	ID          string     `db:"id" json:"id"`
	StorageKey  string     `db:"storage_key" json:"-"`
	FileName    string     `db:"file_name" json:"fileName"`
	ContentType string     `db:"content_type" json:"contentType"`
	SizeBytes   int64      `db:"size_bytes" json:"sizeBytes"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt   *time.Time `db:"deleted_at" json:"-"`
}

func (a Archive) EntityID() string { return a.ID }

// Filters narrows the job listing.
type Filters struct {
	Status  string
	Engine  string
	GroupID string
}

// FiltersFromQuery reads status, engine and groupId from query values.
func FiltersFromQuery(values url.Values) Filters {
	return Filters{
		Status:  values.Get("status"),
		Engine:  values.Get("engine"),
		GroupID: values.Get("groupId"),
	}
}

// Where scopes the filters to an account.
func (f Filters) Where(accountID string) repository.Fields {
	where := repository.Fields{"account_id": accountID}
	if f.Status != "" {
		where["status"] = f.Status
	}
	if f.Engine != "" {
		where["engine"] = f.Engine
	}
	if f.GroupID != "" {
		where["group_id"] = f.GroupID
	}
	return where
}

// JobQuery is one page of the caller's jobs.
type JobQuery struct {
	Page    pagination.PageRequest
	Filters Filters
}

// JobIDs selects jobs for a bulk delete.
type JobIDs struct {
	IDs []string `json:"ids"`
}

// Deleted reports how many rows a delete touched.
type Deleted struct {
	Deleted int `json:"deleted"`
}

// Download is an archived file ready to stream.
type Download struct {
	Archive Archive
	Body    io.ReadCloser
}
