package provider

import "encoding/json"

// Priority values accepted for bulk submissions.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

type Engine struct {
	Name string `json:"name"`
	Cost string `json:"cost"`
}

type Balance struct {
	Message string `json:"message"`
	Data    struct {
		Balance  float64 `json:"balance"`
		Currency string  `json:"currency"`
	} `json:"data"`
}

type Counts struct {
	Count int `json:"count"`
}

// Message is the acknowledgement body of cancel and delete.
type Message struct {
	Message string `json:"message"`
}

type ClassifyRequest struct {
	ProductDescription string     `json:"productDescription"`
	Engine             string     `json:"engine"`
	TestMode           *bool      `json:"testMode,omitempty"`
	MockDelay          *MockDelay `json:"mockDelay,omitempty"`
}

// Classification is the provider's single-product result. The classification
// payload itself is passed through untouched.
type Classification struct {
	Message string `json:"message"`
	Data    struct {
		ID        string          `json:"id"`
		Engine    string          `json:"engine"`
		Timestamp string          `json:"timestamp"`
		Result    json.RawMessage `json:"result"`
		Billing   Billing         `json:"billing"`
		RequestID string          `json:"requestId"`
	} `json:"data"`
}

type Billing struct {
	BaseCost         float64 `json:"base_cost"`
	DiscountPercent  float64 `json:"discount_percent"`
	FinalCost        float64 `json:"final_cost"`
	RemainingBalance float64 `json:"remaining_balance"`
	Currency         string  `json:"currency"`
}

// BulkRequest is a CSV submission. File holds the whole upload.
type BulkRequest struct {
	Engine         string
	Priority       string
	ForceReprocess bool
	FileName       string
	ContentType    string
	File           []byte
	RequestID      string
	Description    string
	TestMode       *bool
	MockDelay      *MockDelay
}

type BulkSubmission struct {
	Message string `json:"message"`
	GroupID string `json:"group_id"`
}

// Overall statuses reported for a bulk group.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

type BulkStatus struct {
	GroupID            string   `json:"group_id"`
	OrganizationID     string   `json:"organization_id"`
	TotalItems         int      `json:"total_items"`
	PendingCount       int      `json:"pending_count"`
	RunningCount       int      `json:"running_count"`
	CompletedCount     int      `json:"completed_count"`
	FailedCount        int      `json:"failed_count"`
	OverallStatus      string   `json:"overall_status"`
	ProgressPercentage float64  `json:"progress_percentage"`
	CreatedAt          string   `json:"created_at"`
	TotalCost          float64  `json:"total_cost"`
	EnginesUsed        []string `json:"engines_used"`
}

// Finished reports whether the group will not change anymore.
func (s BulkStatus) Finished() bool {
	switch s.OverallStatus {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

type BulkResults struct {
	GroupID      string `json:"groupId"`
	TotalResults int    `json:"totalResults"`
	Results      []struct {
		ProductDescription   string `json:"product_description"`
		TIAClassification    string `json:"tia_classification"`
		Engine               string `json:"engine"`
		ClassificationResult string `json:"classification_result"`
	} `json:"results"`
}

type Downloadables struct {
	DownloadableClassifications struct {
		Groups []struct {
			GroupID        string   `json:"group_id"`
			Description    string   `json:"description"`
			CreatedAt      string   `json:"created_at"`
			TotalItems     int      `json:"total_items"`
			CompletedCount int      `json:"completed_count"`
			FailedCount    int      `json:"failed_count"`
			EnginesUsed    []string `json:"engines_used"`
		} `json:"groups"`
	} `json:"downloadable_classifications"`
}

type QueueStatuses struct {
	QueuedCount         *int     `json:"queued_count,omitempty"`
	ProcessingCount     *int     `json:"processing_count,omitempty"`
	CompletedCount      *int     `json:"completed_count,omitempty"`
	FailedCount         *int     `json:"failed_count,omitempty"`
	TotalCount          *int     `json:"total_count,omitempty"`
	PendingItemsCount   *int     `json:"pending_items_count,omitempty"`
	RunningItemsCount   *int     `json:"running_items_count,omitempty"`
	CompletedItemsCount *int     `json:"completed_items_count,omitempty"`
	FailedItemsCount    *int     `json:"failed_items_count,omitempty"`
	TotalItemsCount     *int     `json:"total_items_count,omitempty"`
	SuccessRate         *float64 `json:"success_rate,omitempty"`
	AvgProcessingTimeMS *float64 `json:"avg_processing_time_ms,omitempty"`
	ThroughputPerHour   *float64 `json:"throughput_per_hour,omitempty"`
	Timestamp           string   `json:"timestamp,omitempty"`
}
