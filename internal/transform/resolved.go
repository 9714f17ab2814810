package transform

import (
	"strings"

	"github.com/dvkit/transfer/internal/domain"
)

// RecordAction classifies what the transfer would do with a record.
type RecordAction string

const (
	ActionCreate     RecordAction = "create"
	ActionUpdate     RecordAction = "update"
	ActionNoChange   RecordAction = "nochange"
	ActionDelete     RecordAction = "delete"
	ActionDeactivate RecordAction = "deactivate"
	ActionTargetOnly RecordAction = "target_only"
	ActionError      RecordAction = "error"
)

// FieldError is a single failed field mapping on a record.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ResolvedRecord is one transformed record with its planned action.
// Records with field errors are still emitted so a preview can show
// every failure at once.
type ResolvedRecord struct {
	Action RecordAction            `json:"action"`
	Fields map[string]domain.Value `json:"fields"`
	Errors []FieldError            `json:"errors,omitempty"`
}

// ErrorMessage joins the field errors into one line.
func (r ResolvedRecord) ErrorMessage() string {
	if len(r.Errors) == 0 {
		return ""
	}
	parts := make([]string, 0, len(r.Errors))
	for _, fe := range r.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

// ResolvedEntity is the transform output for one entity mapping.
type ResolvedEntity struct {
	SourceEntity    string           `json:"sourceEntity"`
	TargetEntity    string           `json:"targetEntity"`
	Priority        int              `json:"priority"`
	PrimaryKeyField string           `json:"primaryKeyField"`
	FieldNames      []string         `json:"fieldNames"`
	Records         []ResolvedRecord `json:"records"`
}

// ActionCounts tallies records per action.
func (e ResolvedEntity) ActionCounts() map[RecordAction]int {
	counts := map[RecordAction]int{}
	for _, rec := range e.Records {
		counts[rec.Action]++
	}
	return counts
}

// ResolvedTransfer is the full engine output for one config run.
type ResolvedTransfer struct {
	ConfigName string           `json:"configName"`
	Entities   []ResolvedEntity `json:"entities"`
}

// ActionCounts tallies records per action across all entities.
func (t ResolvedTransfer) ActionCounts() map[RecordAction]int {
	counts := map[RecordAction]int{}
	for _, entity := range t.Entities {
		for action, n := range entity.ActionCounts() {
			counts[action] += n
		}
	}
	return counts
}
