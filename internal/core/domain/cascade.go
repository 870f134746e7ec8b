package domain

import "time"

// EntityType names a collection the cascade coordinator can act on.
type EntityType string

const (
	EntityCategory    EntityType = "category"
	EntitySubcategory EntityType = "subcategory"
	EntityProduct     EntityType = "product"
)

// DeleteMode selects between deactivation and physical removal.
type DeleteMode string

const (
	ModeSoft DeleteMode = "soft"
	ModeHard DeleteMode = "hard"
)

// ModeFromHardFlag maps the hardDelete query flag to a DeleteMode.
func ModeFromHardFlag(hard bool) DeleteMode {
	if hard {
		return ModeHard
	}
	return ModeSoft
}

// CascadeResult summarizes a completed remove operation. Counts cover
// descendants only, never the target itself.
type CascadeResult struct {
	Entity                EntityType `json:"entity"`
	ID                    string     `json:"id"`
	Mode                  DeleteMode `json:"mode"`
	SubcategoriesAffected int64      `json:"subcategoriesAffected"`
	ProductsAffected      int64      `json:"productsAffected"`
}

// Cascade audit outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomePartial   = "partial"
	OutcomeFailed    = "failed"
)

// CascadeAudit is the persisted trace of one remove operation.
type CascadeAudit struct {
	ID                    string     `json:"id"`
	Entity                EntityType `json:"entity"`
	EntityID              string     `json:"entityId"`
	Mode                  DeleteMode `json:"mode"`
	Outcome               string     `json:"outcome"`
	Actor                 string     `json:"actor,omitempty"`
	CompletedSteps        []string   `json:"completedSteps"`
	FailedStep            string     `json:"failedStep,omitempty"`
	Error                 string     `json:"error,omitempty"`
	SubcategoriesAffected int64      `json:"subcategoriesAffected"`
	ProductsAffected      int64      `json:"productsAffected"`
	At                    time.Time  `json:"at"`
}
