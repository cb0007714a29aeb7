package classifications

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/JaimeStill/tollgate/internal/provider"
	"github.com/JaimeStill/tollgate/pkg/handlers"
	"github.com/JaimeStill/tollgate/pkg/openapi"
	"github.com/JaimeStill/tollgate/pkg/pagination"
	"github.com/JaimeStill/tollgate/pkg/routes"
	"github.com/JaimeStill/tollgate/pkg/service"
)

// Handler provides the /classifications endpoints.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64

	classify service.Service[provider.ClassifyRequest, provider.Classification]
	bulk     service.Service[BulkCommand, provider.BulkSubmission]
	sync     service.Service[struct{}, []Job]
}

func NewHandler(sys System, logger *slog.Logger, pg pagination.Config, maxUploadSize int64) *Handler {
	logger = logger.With("handler", "classifications")
	return &Handler{
		sys:           sys,
		logger:        logger,
		pagination:    pg,
		maxUploadSize: maxUploadSize,
		classify:      service.Logged("classifications.classify", logger, service.Func[provider.ClassifyRequest, provider.Classification](sys.Classify)),
		bulk:          service.Logged("classifications.bulk_classify", logger, service.Func[BulkCommand, provider.BulkSubmission](sys.BulkClassify)),
		sync:          service.Logged("classifications.sync", logger, service.Func[struct{}, []Job](sys.Sync)),
	}
}

func (h *Handler) Routes() routes.Group {
	group := openapi.PathParam("groupId", "Provider bulk group id")
	job := openapi.PathParam("id", "Job id")
	tags := []string{"classifications"}

	return routes.Group{
		Prefix: "/classifications",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/classify-product", Handler: h.ClassifyProduct, Doc: &openapi.Operation{
				Summary: "Classify one product", Tags: tags,
				RequestBody: openapi.JSONBody("ClassifyRequest"),
				Responses:   openapi.Responses(http.StatusOK, "Object", "BadRequest", "Unauthorized"),
			}},
			{Method: "POST", Pattern: "/bulk-classify", Handler: h.BulkClassify, Doc: &openapi.Operation{
				Summary: "Submit a CSV for bulk classification", Tags: tags,
				RequestBody: openapi.MultipartBody(map[string]*openapi.Schema{
					"file":           {Type: "string", Format: "binary"},
					"engine":         {Type: "string"},
					"priority":       {Type: "string", Enum: []any{provider.PriorityLow, provider.PriorityNormal, provider.PriorityHigh}},
					"forceReprocess": {Type: "string"},
					"requestId":      {Type: "string", Format: "uuid"},
					"description":    {Type: "string"},
					"testMode":       {Type: "string"},
					"mockDelay":      {Type: "string", Description: "Preset name or whole seconds"},
				}, "file", "engine", "priority"),
				Responses: openapi.Responses(http.StatusCreated, "Object", "BadRequest", "Unauthorized"),
			}},
			{Method: "GET", Pattern: "/bulk/downloadables", Handler: h.Downloadables, Doc: &openapi.Operation{
				Summary: "Downloadable bulk groups", Tags: tags,
				Responses: openapi.Responses(http.StatusOK, "Object", "BadRequest", "Unauthorized"),
			}},
			{Method: "GET", Pattern: "/bulk/queue-statuses", Handler: h.QueueStatuses, Doc: &openapi.Operation{
				Summary: "Bulk queue statistics", Tags: tags,
				Responses: openapi.Responses(http.StatusOK, "Object", "BadRequest", "Unauthorized"),
			}},
			{Method: "GET", Pattern: "/bulk/{groupId}/status", Handler: h.Status, Doc: &openapi.Operation{
				Summary: "Bulk group status", Tags: tags, Parameters: []*openapi.Parameter{group},
				Responses: openapi.Responses(http.StatusOK, "Object", "BadRequest", "Unauthorized"),
			}},
			{Method: "GET", Pattern: "/bulk/{groupId}/result", Handler: h.Results, Doc: &openapi.Operation{
				Summary: "Bulk group results", Tags: tags, Parameters: []*openapi.Parameter{group},
				Responses: openapi.Responses(http.StatusOK, "Object", "BadRequest", "Unauthorized"),
			}},
			{Method: "POST", Pattern: "/bulk/{groupId}/cancel", Handler: h.Cancel, Doc: &openapi.Operation{
				Summary: "Cancel a bulk group", Tags: tags, Parameters: []*openapi.Parameter{group},
				Responses: openapi.Responses(http.StatusOK, "Object", "BadRequest", "Unauthorized"),
			}},
			{Method: "DELETE", Pattern: "/bulk/{groupId}", Handler: h.DeleteBulk, Doc: &openapi.Operation{
				Summary: "Delete a bulk group", Tags: tags, Parameters: []*openapi.Parameter{group},
				Responses: openapi.Responses(http.StatusOK, "Object", "BadRequest", "Unauthorized"),
			}},
			{Method: "GET", Pattern: "/counts", Handler: h.Counts, Doc: &openapi.Operation{
				Summary: "Classification counts", Tags: tags,
				Responses: openapi.Responses(http.StatusOK, "Object", "BadRequest", "Unauthorized"),
			}},
			{Method: "GET", Pattern: "/jobs", Handler: h.Jobs, Doc: &openapi.Operation{
				Summary: "List the caller's bulk jobs", Tags: tags,
				Parameters: []*openapi.Parameter{
					openapi.QueryParam("page", "integer", "1-based page"),
					openapi.QueryParam("page_size", "integer", "Page size"),
					openapi.QueryParam("sort", "string", "Comma separated fields, - for descending"),
					openapi.QueryParam("status", "string", "Job status"),
					openapi.QueryParam("engine", "string", "Engine name"),
					openapi.QueryParam("groupId", "string", "Provider group id"),
				},
				Responses: openapi.Responses(http.StatusOK, "JobPage", "BadRequest", "Unauthorized"),
			}},
			{Method: "POST", Pattern: "/jobs/sync", Handler: h.Sync, Doc: &openapi.Operation{
				Summary: "Refresh unfinished jobs from the provider", Tags: tags,
				Responses: openapi.Responses(http.StatusOK, "Jobs", "Unauthorized"),
			}},
			{Method: "DELETE", Pattern: "/jobs", Handler: h.DeleteJobs, Doc: &openapi.Operation{
				Summary: "Delete several jobs", Tags: tags,
				RequestBody: openapi.JSONBody("JobIDs"),
				Responses:   openapi.Responses(http.StatusOK, "Deleted", "BadRequest", "Unauthorized"),
			}},
			{Method: "DELETE", Pattern: "/jobs/{id}", Handler: h.DeleteJob, Doc: &openapi.Operation{
				Summary: "Delete a job and its archive", Tags: tags, Parameters: []*openapi.Parameter{job},
				Responses: openapi.Responses(http.StatusOK, "Deleted", "Unauthorized", "NotFound"),
			}},
			{Method: "POST", Pattern: "/jobs/{id}/restore", Handler: h.RestoreJob, Doc: &openapi.Operation{
				Summary: "Restore a deleted job", Tags: tags, Parameters: []*openapi.Parameter{job},
				Responses: openapi.Responses(http.StatusOK, "Job", "Unauthorized", "NotFound"),
			}},
			{Method: "GET", Pattern: "/jobs/{id}/archive", Handler: h.Archive, Doc: &openapi.Operation{
				Summary: "Download the archived CSV of a job", Tags: tags, Parameters: []*openapi.Parameter{job},
				Responses: map[string]*openapi.Response{
					"200": {Description: "CSV file", Content: map[string]*openapi.MediaType{csvType: {Schema: &openapi.Schema{Type: "string"}}}},
					"401": openapi.ResponseRef("Unauthorized"),
					"404": openapi.ResponseRef("NotFound"),
				},
			}},
		},
	}
}

func Schemas() map[string]*openapi.Schema {
	jobSchema := &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":             {Type: "string", Format: "uuid"},
			"accountId":      {Type: "string", Format: "uuid"},
			"archiveId":      {Type: "string", Format: "uuid", Nullable: true},
			"groupId":        {Type: "string"},
			"engine":         {Type: "string"},
			"priority":       {Type: "string"},
			"description":    {Type: "string"},
			"status":         {Type: "string"},
			"totalItems":     {Type: "integer"},
			"completedCount": {Type: "integer"},
			"failedCount":    {Type: "integer"},
			"progress":       {Type: "number"},
			"createdAt":      {Type: "string", Format: "date-time"},
			"updatedAt":      {Type: "string", Format: "date-time"},
		},
	}
	return map[string]*openapi.Schema{
		"Object": {Type: "object", Description: "Provider response passed through"},
		"ClassifyRequest": {
			Type:     "object",
			Required: []string{"productDescription", "engine"},
			Properties: map[string]*openapi.Schema{
				"productDescription": {Type: "string"},
				"engine":             {Type: "string"},
				"testMode":           {Type: "boolean"},
				"mockDelay":          {Description: "Preset name or whole seconds of at least 1"},
			},
		},
		"Job":  jobSchema,
		"Jobs": {Type: "array", Items: openapi.SchemaRef("Job")},
		"JobPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":          {Type: "array", Items: openapi.SchemaRef("Job")},
				"total":         {Type: "integer"},
				"page":          {Type: "integer"},
				"page_size":     {Type: "integer"},
				"total_pages":   {Type: "integer"},
				"has_next_page": {Type: "boolean"},
			},
		},
		"JobIDs": {
			Type:       "object",
			Required:   []string{"ids"},
			Properties: map[string]*openapi.Schema{"ids": {Type: "array", Items: &openapi.Schema{Type: "string", Format: "uuid"}}},
		},
	}
}

func (h *Handler) ClassifyProduct(w http.ResponseWriter, r *http.Request) {
	var req provider.ClassifyRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		handlers.RespondError(w, r, h.logger, err)
		return
	}
	handlers.Respond(w, r, h.logger, http.StatusOK, h.classify.Execute(r.Context(), req))
}

func (h *Handler) BulkClassify(w http.ResponseWriter, r *http.Request) {
	cmd, err := ParseBulkForm(w, r, h.maxUploadSize)
	if err != nil {
		handlers.RespondError(w, r, h.logger, err)
		return
	}
	handlers.Respond(w, r, h.logger, http.StatusCreated, h.bulk.Execute(r.Context(), cmd))
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	handlers.Respond(w, r, h.logger, http.StatusOK, h.sys.Status(r.Context(), r.PathValue("groupId")))
}

func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	handlers.Respond(w, r, h.logger, http.StatusOK, h.sys.Results(r.Context(), r.PathValue("groupId")))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	handlers.Respond(w, r, h.logger, http.StatusOK, h.sys.Cancel(r.Context(), r.PathValue("groupId")))
}

func (h *Handler) DeleteBulk(w http.ResponseWriter, r *http.Request) {
	handlers.Respond(w, r, h.logger, http.StatusOK, h.sys.DeleteBulk(r.Context(), r.PathValue("groupId")))
}

func (h *Handler) Downloadables(w http.ResponseWriter, r *http.Request) {
	handlers.Respond(w, r, h.logger, http.StatusOK, h.sys.Downloadables(r.Context(), struct{}{}))
}

func (h *Handler) QueueStatuses(w http.ResponseWriter, r *http.Request) {
	handlers.Respond(w, r, h.logger, http.StatusOK, h.sys.QueueStatuses(r.Context(), struct{}{}))
}

func (h *Handler) Counts(w http.ResponseWriter, r *http.Request) {
	handlers.Respond(w, r, h.logger, http.StatusOK, h.sys.Counts(r.Context(), struct{}{}))
}

// Jobs returns a page of the caller's jobs filtered by query parameters.
func (h *Handler) Jobs(w http.ResponseWriter, r *http.Request) {
	q := JobQuery{
		Page:    pagination.PageRequestFromQuery(r.URL.Query(), h.pagination),
		Filters: FiltersFromQuery(r.URL.Query()),
	}
	handlers.Respond(w, r, h.logger, http.StatusOK, h.sys.Jobs(r.Context(), q))
}

func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	handlers.Respond(w, r, h.logger, http.StatusOK, h.sync.Execute(r.Context(), struct{}{}))
}

func (h *Handler) DeleteJobs(w http.ResponseWriter, r *http.Request) {
	var cmd JobIDs
	if err := handlers.DecodeJSON(r, &cmd); err != nil {
		handlers.RespondError(w, r, h.logger, err)
		return
	}
	handlers.Respond(w, r, h.logger, http.StatusOK, h.sys.DeleteJobs(r.Context(), cmd))
}

func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	handlers.Respond(w, r, h.logger, http.StatusOK, h.sys.DeleteJob(r.Context(), r.PathValue("id")))
}

func (h *Handler) RestoreJob(w http.ResponseWriter, r *http.Request) {
	handlers.Respond(w, r, h.logger, http.StatusOK, h.sys.RestoreJob(r.Context(), r.PathValue("id")))
}

// Archive streams the archived CSV of a job as an attachment.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	dl, err := h.sys.Archive(r.Context(), r.PathValue("id")).Unwrap()
	if err != nil {
		handlers.RespondError(w, r, h.logger, err)
		return
	}
	defer dl.Body.Close()

	w.Header().Set("Content-Type", dl.Archive.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(dl.Archive.SizeBytes, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Archive.FileName}))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, dl.Body); err != nil {
		h.logger.WarnContext(r.Context(), "archive stream interrupted", "job", r.PathValue("id"), "error", err)
	}
}
