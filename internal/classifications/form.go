package classifications

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/JaimeStill/tollgate/internal/provider"
	"github.com/JaimeStill/tollgate/pkg/validation"
)

const csvType = "text/csv"

// BulkCommand is a parsed bulk-classify upload.
type BulkCommand struct {
	Engine         string
	Priority       string
	ForceReprocess bool
	RequestID      string
	Description    string
	TestMode       *bool
	MockDelay      *provider.MockDelay
	FileName       string
	ContentType    string
	File           []byte
}

// Request converts the command into the provider submission.
func (c BulkCommand) Request() provider.BulkRequest {
	return provider.BulkRequest{
		Engine:         c.Engine,
		Priority:       c.Priority,
		ForceReprocess: c.ForceReprocess,
		FileName:       c.FileName,
		ContentType:    c.ContentType,
		File:           c.File,
		RequestID:      c.RequestID,
		Description:    c.Description,
		TestMode:       c.TestMode,
		MockDelay:      c.MockDelay,
	}
}

// ParseBulkForm reads a multipart bulk-classify upload of at most maxSize
// bytes. The file is checked before any other field.
func ParseBulkForm(w http.ResponseWriter, r *http.Request, maxSize int64) (BulkCommand, error) {
	var cmd BulkCommand

	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return cmd, ErrFileTooLarge
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return cmd, ErrFileRequired
		}
		return cmd, ErrFileRequired.Wrap(err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return cmd, ErrFileRequired
	}
	defer file.Close()

	mediaType, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil || mediaType != csvType {
		return cmd, ErrFileType
	}

	if cmd.File, err = io.ReadAll(file); err != nil {
		return cmd, err
	}
	cmd.FileName = header.Filename
	cmd.ContentType = csvType

	v := validation.New()
	cmd.Engine = r.FormValue("engine")
	cmd.Priority = r.FormValue("priority")
	cmd.ForceReprocess = truthy(r.FormValue("forceReprocess"))
	cmd.RequestID = r.FormValue("requestId")
	cmd.Description = r.FormValue("description")

	if raw := r.FormValue("testMode"); raw != "" {
		b := truthy(raw)
		cmd.TestMode = &b
	}
	if raw := r.FormValue("mockDelay"); raw != "" {
		d := provider.ParseMockDelay(raw)
		cmd.MockDelay = &d
	}

	bulkRules(v, cmd)
	return cmd, v.Err()
}

func bulkRules(v *validation.Validator, c BulkCommand) {
	v.Required("engine", c.Engine).
		Required("priority", c.Priority).
		OneOf("priority", c.Priority, provider.PriorityLow, provider.PriorityNormal, provider.PriorityHigh).
		UUID("requestId", c.RequestID)
	delayRules(v, c.MockDelay)
}

func delayRules(v *validation.Validator, d *provider.MockDelay) {
	if d == nil {
		return
	}
	v.Check(d.Valid(), "mockDelay", "mockDelay must be a preset name or at least 1 second")
}

func truthy(s string) bool {
	return s == "true" || s == "1"
}
