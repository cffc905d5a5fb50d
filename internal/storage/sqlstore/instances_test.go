package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

func seedInstance(t *testing.T, s *Store, f *fixture, titles ...string) (*types.WorkAssignment, *types.ChecklistInstance) {
	t.Helper()
	ctx := context.Background()
	now := testNow()

	a := seedAssignment(t, s, f, types.DateOnly(now), titles...)
	ci := &types.ChecklistInstance{
		ID: uuid.New(), OrganizationID: f.org.ID, WorkAssignmentID: a.ID,
		StoreID: f.store.ID, UserID: f.user.ID, WorkDate: a.WorkDate,
		Snapshot: a.Snapshot, TotalItems: a.TotalItems,
		Status: types.InstancePending, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateChecklistInstance(ctx, ci); err != nil {
		t.Fatalf("CreateChecklistInstance failed: %v", err)
	}
	return a, ci
}

func completion(instanceID, userID uuid.UUID, idx int) *types.ChecklistCompletion {
	return &types.ChecklistCompletion{
		ID: uuid.New(), InstanceID: instanceID, ItemIndex: idx, UserID: userID,
		CompletedAt: testNow(), CompletedTimezone: "America/Los_Angeles",
	}
}

func TestInstancePerAssignmentUnique(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()
	now := testNow()

	a, ci := seedInstance(t, s, f, "item")

	dup := &types.ChecklistInstance{
		ID: uuid.New(), OrganizationID: f.org.ID, WorkAssignmentID: a.ID,
		StoreID: f.store.ID, UserID: f.user.ID, WorkDate: a.WorkDate,
		Status: types.InstancePending, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateChecklistInstance(ctx, dup); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("Expected ErrConflict for second instance on assignment, got %v", err)
	}

	got, err := s.GetInstanceByAssignment(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetInstanceByAssignment failed: %v", err)
	}
	if got.ID != ci.ID {
		t.Errorf("Expected instance %s, got %s", ci.ID, got.ID)
	}
}

func TestUpsertCompletionIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	_, ci := seedInstance(t, s, f, "one", "two")

	first := completion(ci.ID, f.user.ID, 0)
	first.Note = "first pass"
	if err := s.UpsertCompletion(ctx, first); err != nil {
		t.Fatalf("UpsertCompletion failed: %v", err)
	}

	// Completing the same item again replaces evidence, never errors and
	// never creates a second row.
	second := completion(ci.ID, f.user.ID, 0)
	second.Note = "second pass"
	second.PhotoURL = "https://cdn.example.com/p.jpg"
	second.Location = &types.Location{Lat: 37.77, Lng: -122.42}
	if err := s.UpsertCompletion(ctx, second); err != nil {
		t.Fatalf("Second UpsertCompletion failed: %v", err)
	}

	n, err := s.CountCompletions(ctx, ci.ID)
	if err != nil {
		t.Fatalf("CountCompletions failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("Expected exactly one completion row, got %d", n)
	}

	rows, err := s.ListCompletions(ctx, ci.ID)
	if err != nil {
		t.Fatalf("ListCompletions failed: %v", err)
	}
	if rows[0].Note != "second pass" {
		t.Errorf("Expected replaced note, got %q", rows[0].Note)
	}
	if rows[0].Location == nil || rows[0].Location.Lat != 37.77 {
		t.Errorf("Expected location to round-trip, got %+v", rows[0].Location)
	}
}

func TestDeleteCompletion(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	_, ci := seedInstance(t, s, f, "one", "two")

	if err := s.UpsertCompletion(ctx, completion(ci.ID, f.user.ID, 1)); err != nil {
		t.Fatalf("UpsertCompletion failed: %v", err)
	}
	if err := s.DeleteCompletion(ctx, ci.ID, 1); err != nil {
		t.Fatalf("DeleteCompletion failed: %v", err)
	}
	if err := s.DeleteCompletion(ctx, ci.ID, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for already-deleted completion, got %v", err)
	}

	n, err := s.CountCompletions(ctx, ci.ID)
	if err != nil {
		t.Fatalf("CountCompletions failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected zero completions, got %d", n)
	}
}

func TestInstanceProgressUpdate(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	_, ci := seedInstance(t, s, f, "one", "two")

	if err := s.UpdateInstanceProgress(ctx, ci.ID, 2, types.InstanceCompleted); err != nil {
		t.Fatalf("UpdateInstanceProgress failed: %v", err)
	}
	got, err := s.GetChecklistInstance(ctx, ci.ID)
	if err != nil {
		t.Fatalf("GetChecklistInstance failed: %v", err)
	}
	if got.Status != types.InstanceCompleted || got.CompletedItems != 2 {
		t.Errorf("Unexpected progress: %s %d", got.Status, got.CompletedItems)
	}
}

func TestListChecklistInstancesFilters(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	_, ci := seedInstance(t, s, f, "one")
	if err := s.UpdateInstanceProgress(ctx, ci.ID, 1, types.InstanceCompleted); err != nil {
		t.Fatalf("UpdateInstanceProgress failed: %v", err)
	}

	done, total, err := s.ListChecklistInstances(ctx, storage.InstanceFilter{
		OrgID: f.org.ID, Status: types.InstanceCompleted,
	})
	if err != nil {
		t.Fatalf("ListChecklistInstances failed: %v", err)
	}
	if total != 1 || len(done) != 1 || done[0].ID != ci.ID {
		t.Errorf("Expected the completed instance, got total=%d %+v", total, done)
	}

	none, total, err := s.ListChecklistInstances(ctx, storage.InstanceFilter{
		OrgID: f.org.ID, Status: types.InstancePending,
	})
	if err != nil {
		t.Fatalf("ListChecklistInstances failed: %v", err)
	}
	if total != 0 || len(none) != 0 {
		t.Errorf("Expected no pending instances, got %d", len(none))
	}
}

func TestItemReviewUpsertAndDelete(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()
	now := testNow()

	_, ci := seedInstance(t, s, f, "one")

	review := &types.ChecklistItemReview{
		ID: uuid.New(), InstanceID: ci.ID, ItemIndex: 0, ReviewerID: f.user.ID,
		Result: types.ReviewFail, Comment: "redo this", CreatedAt: now, UpdatedAt: now,
	}
	if err := s.UpsertItemReview(ctx, review); err != nil {
		t.Fatalf("UpsertItemReview failed: %v", err)
	}

	// Re-reviewing replaces the verdict in place.
	replacement := &types.ChecklistItemReview{
		ID: uuid.New(), InstanceID: ci.ID, ItemIndex: 0, ReviewerID: f.user.ID,
		Result: types.ReviewPass, CreatedAt: now, UpdatedAt: now.Add(time.Second),
	}
	if err := s.UpsertItemReview(ctx, replacement); err != nil {
		t.Fatalf("Second UpsertItemReview failed: %v", err)
	}

	reviews, err := s.ListItemReviews(ctx, ci.ID)
	if err != nil {
		t.Fatalf("ListItemReviews failed: %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("Expected one review, got %d", len(reviews))
	}
	if reviews[0].Result != types.ReviewPass {
		t.Errorf("Expected replaced verdict pass, got %s", reviews[0].Result)
	}
	if reviews[0].ID != review.ID {
		t.Errorf("Expected upsert to keep original row ID")
	}

	if err := s.DeleteItemReview(ctx, ci.ID, 0); err != nil {
		t.Fatalf("DeleteItemReview failed: %v", err)
	}
	if err := s.DeleteItemReview(ctx, ci.ID, 0); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestInstanceComments(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()
	now := testNow()

	_, ci := seedInstance(t, s, f, "one")

	for i, body := range []string{"looks good", "fridge was warm"} {
		c := &types.ChecklistComment{
			ID: uuid.New(), InstanceID: ci.ID, UserID: f.user.ID,
			Body: body, CreatedAt: now.Add(time.Duration(i) * time.Second),
		}
		if err := s.AddInstanceComment(ctx, c); err != nil {
			t.Fatalf("AddInstanceComment failed: %v", err)
		}
	}

	comments, err := s.ListInstanceComments(ctx, ci.ID)
	if err != nil {
		t.Fatalf("ListInstanceComments failed: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("Expected 2 comments, got %d", len(comments))
	}
	if comments[0].Body != "looks good" {
		t.Errorf("Expected chronological order, got %q first", comments[0].Body)
	}
}

func TestListRecentCompletions(t *testing.T) {
	s := newTestStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	_, ci := seedInstance(t, s, f, "Wipe counters", "Check fridge")

	c0 := completion(ci.ID, f.user.ID, 0)
	c0.CompletedAt = testNow().Add(-time.Minute)
	if err := s.UpsertCompletion(ctx, c0); err != nil {
		t.Fatalf("UpsertCompletion failed: %v", err)
	}
	c1 := completion(ci.ID, f.user.ID, 1)
	if err := s.UpsertCompletion(ctx, c1); err != nil {
		t.Fatalf("UpsertCompletion failed: %v", err)
	}

	entries, total, err := s.ListRecentCompletions(ctx, f.org.ID, storage.Page{})
	if err != nil {
		t.Fatalf("ListRecentCompletions failed: %v", err)
	}
	if total != 2 || len(entries) != 2 {
		t.Fatalf("Expected 2 feed entries, got total=%d len=%d", total, len(entries))
	}
	// Newest first.
	if entries[0].Completion.ItemIndex != 1 {
		t.Errorf("Expected newest completion first, got index %d", entries[0].Completion.ItemIndex)
	}
	if entries[0].ItemTitle != "Check fridge" {
		t.Errorf("Expected item title from snapshot, got %q", entries[0].ItemTitle)
	}
	if entries[0].UserName != "Worker One" {
		t.Errorf("Expected joined user name, got %q", entries[0].UserName)
	}
	if entries[0].InstanceID != ci.ID {
		t.Errorf("Expected instance ID on entry, got %s", entries[0].InstanceID)
	}
}
