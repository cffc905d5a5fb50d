package checklist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// ItemView is one checklist item with everything known about it merged
// in: the frozen snapshot fields, the live completion row if one exists,
// and the supervisor review if one exists.
type ItemView struct {
	ItemIndex        int                        `json:"item_index"`
	Title            string                     `json:"title"`
	Description      string                     `json:"description,omitempty"`
	VerificationType types.VerificationType     `json:"verification_type"`
	SortOrder        int                        `json:"sort_order"`
	Completion       *types.ChecklistCompletion `json:"completion,omitempty"`
	Review           *types.ChecklistItemReview `json:"review,omitempty"`
}

// InstanceDetail is the full state of one checklist instance, assembled
// from normalized rows at read time. Nothing here is cached; the rows
// are the truth and the view is rebuilt on every request.
type InstanceDetail struct {
	Instance *types.ChecklistInstance  `json:"instance"`
	Items    []ItemView                `json:"items"`
	Comments []*types.ChecklistComment `json:"comments"`
}

// Detail loads an instance and merges its snapshot with completion rows,
// reviews, and comments.
func (s *Service) Detail(ctx context.Context, orgID, instanceID uuid.UUID) (*InstanceDetail, error) {
	inst, err := s.guardOrg(ctx, orgID, instanceID)
	if err != nil {
		return nil, err
	}

	completions, err := s.store.ListCompletions(ctx, inst.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load completions: %w", err)
	}
	reviews, err := s.store.ListItemReviews(ctx, inst.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	comments, err := s.store.ListInstanceComments(ctx, inst.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}

	compByIndex := make(map[int]*types.ChecklistCompletion, len(completions))
	for _, c := range completions {
		compByIndex[c.ItemIndex] = c
	}
	revByIndex := make(map[int]*types.ChecklistItemReview, len(reviews))
	for _, r := range reviews {
		revByIndex[r.ItemIndex] = r
	}

	detail := &InstanceDetail{
		Instance: inst,
		Items:    make([]ItemView, 0, inst.Snapshot.TotalItems()),
		Comments: comments,
	}
	if inst.Snapshot == nil {
		return detail, nil
	}
	for _, item := range inst.Snapshot.Items {
		detail.Items = append(detail.Items, ItemView{
			ItemIndex:        item.ItemIndex,
			Title:            item.Title,
			Description:      item.Description,
			VerificationType: item.VerificationType,
			SortOrder:        item.SortOrder,
			Completion:       compByIndex[item.ItemIndex],
			Review:           revByIndex[item.ItemIndex],
		})
	}
	return detail, nil
}

// List returns instances matching the filter along with the total count.
func (s *Service) List(ctx context.Context, f storage.InstanceFilter) ([]*types.ChecklistInstance, int, error) {
	return s.store.ListChecklistInstances(ctx, f)
}

// CompletionLog returns the org-wide feed of recent completions, newest
// first.
func (s *Service) CompletionLog(ctx context.Context, orgID uuid.UUID, page storage.Page) ([]*storage.CompletionLogEntry, int, error) {
	return s.store.ListRecentCompletions(ctx, orgID, page)
}

// ReviewItem records a supervisor verdict on one item, replacing any
// earlier verdict for the same item. Reviews are independent of the
// completion lifecycle: an unfinished item can be failed.
func (s *Service) ReviewItem(ctx context.Context, orgID, instanceID uuid.UUID, itemIndex int, reviewerID uuid.UUID, result types.ReviewResult, comment, photoURL string) (*types.ChecklistItemReview, error) {
	inst, err := s.guardOrg(ctx, orgID, instanceID)
	if err != nil {
		return nil, err
	}
	if snapshotItem(inst.Snapshot, itemIndex) == nil {
		return nil, fmt.Errorf("item index %d out of range: %w", itemIndex, apperr.ErrBadRequest)
	}
	if !result.IsValid() {
		return nil, fmt.Errorf("invalid review result %q: %w", result, apperr.ErrBadRequest)
	}

	review := &types.ChecklistItemReview{
		ID:         uuid.New(),
		InstanceID: inst.ID,
		ItemIndex:  itemIndex,
		ReviewerID: reviewerID,
		Result:     result,
		Comment:    comment,
		PhotoURL:   photoURL,
	}
	if err := s.store.UpsertItemReview(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}
	reviews, err := s.store.ListItemReviews(ctx, inst.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload review: %w", err)
	}
	for _, r := range reviews {
		if r.ItemIndex == itemIndex {
			return r, nil
		}
	}
	return review, nil
}

// UnreviewItem removes a verdict. Deleting a verdict that does not exist
// is NotFound.
func (s *Service) UnreviewItem(ctx context.Context, orgID, instanceID uuid.UUID, itemIndex int) error {
	inst, err := s.guardOrg(ctx, orgID, instanceID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteItemReview(ctx, inst.ID, itemIndex); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("item %d has no review: %w", itemIndex, apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

// AddComment attaches a discussion comment to an instance. Any member of
// the organization may comment, not just the assigned worker.
func (s *Service) AddComment(ctx context.Context, orgID, instanceID, authorID uuid.UUID, body string) (*types.ChecklistComment, error) {
	inst, err := s.guardOrg(ctx, orgID, instanceID)
	if err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("comment body is required: %w", apperr.ErrBadRequest)
	}

	comment := &types.ChecklistComment{
		ID:         uuid.New(),
		InstanceID: inst.ID,
		UserID:     authorID,
		Body:       body,
		CreatedAt:  s.now(),
	}
	if err := s.store.AddInstanceComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return comment, nil
}

// Comments lists an instance's discussion thread, oldest first.
func (s *Service) Comments(ctx context.Context, orgID, instanceID uuid.UUID) ([]*types.ChecklistComment, error) {
	inst, err := s.guardOrg(ctx, orgID, instanceID)
	if err != nil {
		return nil, err
	}
	return s.store.ListInstanceComments(ctx, inst.ID)
}
