package classifications

import (
	"net/http"

	"github.com/JaimeStill/tollgate/pkg/apperr"
)

var (
	ErrFileRequired    = apperr.BadRequest("DefaultException", "File required")
	ErrFileType        = apperr.BadRequest("DefaultException", "File type not allowed. Only CSV are accepted.")
	ErrFileTooLarge    = apperr.New("FileTooLarge", http.StatusRequestEntityTooLarge, "File too large")
	ErrJobNotFound     = apperr.NotFound("JobNotFound", "Job not found")
	ErrArchiveNotFound = apperr.NotFound("ArchiveNotFound", "Archive not found")
)

func jobNotFound(id string) error {
	e := *ErrJobNotFound
	e.Message = "Job with id " + id + " not found"
	return &e
}
