package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EvalType distinguishes one-off evaluations from recurring cycles.
type EvalType string

const (
	EvalAdhoc   EvalType = "adhoc"
	EvalRegular EvalType = "regular"
)

// IsValid reports whether t is a known evaluation type.
func (t EvalType) IsValid() bool {
	return t == EvalAdhoc || t == EvalRegular
}

// EvalItemType is the response kind an evaluation item expects.
type EvalItemType string

const (
	EvalItemScore EvalItemType = "score"
	EvalItemText  EvalItemType = "text"
)

// IsValid reports whether t is a known item type.
func (t EvalItemType) IsValid() bool {
	return t == EvalItemScore || t == EvalItemText
}

// EvalStatus is the evaluation workflow state.
type EvalStatus string

const (
	EvalDraft     EvalStatus = "draft"
	EvalSubmitted EvalStatus = "submitted"
)

// IsValid reports whether s is a known status.
func (s EvalStatus) IsValid() bool {
	return s == EvalDraft || s == EvalSubmitted
}

// EvalTemplate defines a reusable evaluation form targeted at a role
// level. Regular templates repeat every CycleWeeks.
type EvalTemplate struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	TargetLevel    int       `json:"target_level" db:"target_level"`
	EvalType       EvalType  `json:"eval_type" db:"eval_type"`
	CycleWeeks     int       `json:"cycle_weeks,omitempty" db:"cycle_weeks"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	Items []*EvalTemplateItem `json:"items,omitempty" db:"-"`
}

// EvalTemplateItem is one question on an evaluation form.
type EvalTemplateItem struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	TemplateID uuid.UUID    `json:"template_id" db:"template_id"`
	Title      string       `json:"title" db:"title"`
	ItemType   EvalItemType `json:"item_type" db:"item_type"`
	MaxScore   int          `json:"max_score" db:"max_score"`
	SortOrder  int          `json:"sort_order" db:"sort_order"`
}

// SetDefaults fills zero-valued fields.
func (i *EvalTemplateItem) SetDefaults() {
	if i.ItemType == "" {
		i.ItemType = EvalItemScore
	}
	if i.MaxScore == 0 {
		i.MaxScore = 5
	}
}

// Evaluation is one evaluator-to-evaluatee assessment. The evaluator's
// role must outrank the evaluatee's; peers and subordinates may not
// evaluate upward.
type Evaluation struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	StoreID        *uuid.UUID `json:"store_id,omitempty" db:"store_id"`
	EvaluatorID    uuid.UUID  `json:"evaluator_id" db:"evaluator_id"`
	EvaluateeID    uuid.UUID  `json:"evaluatee_id" db:"evaluatee_id"`
	TemplateID     *uuid.UUID `json:"template_id,omitempty" db:"template_id"`
	Status         EvalStatus `json:"status" db:"status"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`

	Responses []*EvalResponse `json:"responses,omitempty" db:"-"`
}

// EvalResponse is one answer on an evaluation.
type EvalResponse struct {
	ID           uuid.UUID `json:"id" db:"id"`
	EvaluationID uuid.UUID `json:"evaluation_id" db:"evaluation_id"`
	ItemID       uuid.UUID `json:"item_id" db:"item_id"`
	Score        *int      `json:"score,omitempty" db:"score"`
	Text         string    `json:"text,omitempty" db:"text_value"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// ValidateAgainst checks the response against its item definition.
func (r *EvalResponse) ValidateAgainst(item *EvalTemplateItem) error {
	switch item.ItemType {
	case EvalItemScore:
		if r.Score == nil {
			return fmt.Errorf("item %s expects a score", item.ID)
		}
		if *r.Score < 0 || *r.Score > item.MaxScore {
			return fmt.Errorf("score %d out of range 0..%d", *r.Score, item.MaxScore)
		}
	case EvalItemText:
		if r.Text == "" {
			return fmt.Errorf("item %s expects a text answer", item.ID)
		}
	}
	return nil
}
