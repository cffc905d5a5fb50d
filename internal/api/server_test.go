package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/shiftcrew/shiftcrew/internal/announce"
	"github.com/shiftcrew/shiftcrew/internal/api"
	"github.com/shiftcrew/shiftcrew/internal/assignment"
	"github.com/shiftcrew/shiftcrew/internal/attendance"
	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/checklist"
	"github.com/shiftcrew/shiftcrew/internal/evaluation"
	"github.com/shiftcrew/shiftcrew/internal/notify"
	"github.com/shiftcrew/shiftcrew/internal/org"
	"github.com/shiftcrew/shiftcrew/internal/schedule"
	"github.com/shiftcrew/shiftcrew/internal/snapshot"
	"github.com/shiftcrew/shiftcrew/internal/storage/factory"
	"github.com/shiftcrew/shiftcrew/internal/storage/sqlstore"
	"github.com/shiftcrew/shiftcrew/internal/task"
)

// testAPI drives the full HTTP stack against a throwaway sqlite database.
type testAPI struct {
	ts         *httptest.Server
	dispatcher *notify.Dispatcher
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()

	store, err := sqlstore.New(ctx, t.TempDir()+"/api.db", factory.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	log := logrus.New()
	log.SetOutput(io.Discard)

	outbox := notify.NewOutbox()
	instances := checklist.NewService(store)
	assignments := assignment.NewService(store, snapshot.NewBuilder(store), outbox, instances)

	srv := api.NewServer(api.Config{CORSOrigins: []string{"https://app.example.com"}}, log, api.Services{
		Store:       store,
		Auth:        auth.NewService(store, auth.Config{Secret: []byte("0123456789abcdef0123456789abcdef")}),
		Orgs:        org.NewService(store),
		Templates:   checklist.NewTemplateService(store),
		Instances:   instances,
		Assignments: assignments,
		Schedules:   schedule.NewService(store, assignments, outbox),
		Attendance:  attendance.NewService(store, outbox),
		Announce:    announce.NewService(store, outbox),
		Tasks:       task.NewService(store, outbox),
		Evaluations: evaluation.NewService(store),
	})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testAPI{
		ts:         ts,
		dispatcher: notify.NewDispatcher(store, log, notify.DispatcherConfig{}),
	}
}

// do sends a JSON request and returns the status code and raw body.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, a.ts.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

type setupResult struct {
	Organization struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	} `json:"organization"`
	Store struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	} `json:"store"`
	Owner struct {
		ID       uuid.UUID `json:"id"`
		Username string    `json:"username"`
	} `json:"owner"`
	Roles []struct {
		ID    uuid.UUID `json:"id"`
		Name  string    `json:"name"`
		Level int       `json:"level"`
	} `json:"roles"`
}

func (r setupResult) roleID(t *testing.T, level int) uuid.UUID {
	t.Helper()
	for _, role := range r.Roles {
		if role.Level == level {
			return role.ID
		}
	}
	t.Fatalf("no role with level %d", level)
	return uuid.Nil
}

func (a *testAPI) setup(t *testing.T) setupResult {
	t.Helper()
	status, raw := a.do(t, http.MethodPost, "/api/v1/auth/setup", "", map[string]string{
		"organization_name": "Acme Diner",
		"store_name":        "Downtown",
		"username":          "owner",
		"full_name":         "Pat Owner",
		"email":             "pat@example.com",
		"password":          "ownerpass123",
	})
	require.Equal(t, http.StatusCreated, status, "setup failed: %s", raw)

	var res setupResult
	require.NoError(t, json.Unmarshal(raw, &res))
	require.Equal(t, "Acme Diner", res.Organization.Name)
	require.Len(t, res.Roles, 4)
	return res
}

func (a *testAPI) login(t *testing.T, username, password string) string {
	t.Helper()
	status, raw := a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status, "login failed: %s", raw)

	var pair struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(raw, &pair))
	require.NotEmpty(t, pair.AccessToken)
	return pair.AccessToken
}

// created unwraps the id of a 201 response.
func (a *testAPI) created(t *testing.T, path, token string, body any) uuid.UUID {
	t.Helper()
	status, raw := a.do(t, http.MethodPost, path, token, body)
	require.Equal(t, http.StatusCreated, status, "POST %s: %s", path, raw)
	var res struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &res))
	return res.ID
}

// seedRoster builds the minimum admin fixture for assignment flows: one
// shift, one position, and a checklist template with a single item.
func (a *testAPI) seedRoster(t *testing.T, owner string, storeID uuid.UUID) (shiftID, positionID uuid.UUID) {
	t.Helper()
	shiftID = a.created(t, fmt.Sprintf("/api/v1/admin/stores/%s/shifts", storeID), owner,
		map[string]any{"name": "Morning", "sort_order": 1})
	positionID = a.created(t, fmt.Sprintf("/api/v1/admin/stores/%s/positions", storeID), owner,
		map[string]any{"name": "Kitchen", "sort_order": 1})
	tplID := a.created(t, fmt.Sprintf("/api/v1/admin/stores/%s/checklist-templates", storeID), owner,
		map[string]any{"shift_id": shiftID, "position_id": positionID, "title": "Morning Kitchen Prep"})
	a.created(t, fmt.Sprintf("/api/v1/admin/checklist-templates/%s/items", tplID), owner,
		map[string]any{"title": "Sanitize counters", "verification_type": "none", "recurrence_type": "daily"})
	return shiftID, positionID
}

func (a *testAPI) createWorker(t *testing.T, owner string, roleID uuid.UUID, username string) uuid.UUID {
	t.Helper()
	return a.created(t, "/api/v1/admin/users", owner, map[string]any{
		"role_id":   roleID,
		"username":  username,
		"password":  "workerpass123",
		"full_name": "Wendy Worker",
	})
}

func detailOf(t *testing.T, raw []byte) string {
	t.Helper()
	var e struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(raw, &e))
	return e.Detail
}

func TestHealthEndpoints(t *testing.T) {
	a := newTestAPI(t)

	for _, path := range []string{"/health", "/healthz"} {
		status, raw := a.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, status)
		var body map[string]string
		require.NoError(t, json.Unmarshal(raw, &body))
		require.Equal(t, "healthy", body["status"])
	}

	status, raw := a.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, status)
	var body map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, "ready", body["status"])
}

func TestSetupAndLogin(t *testing.T) {
	a := newTestAPI(t)
	a.setup(t)

	// A second setup is refused once any organization exists.
	status, raw := a.do(t, http.MethodPost, "/api/v1/auth/setup", "", map[string]string{
		"organization_name": "Second Org",
		"username":          "other",
		"full_name":         "Other Person",
		"password":          "otherpass123",
	})
	require.Equal(t, http.StatusForbidden, status)
	require.Contains(t, detailOf(t, raw), "setup already completed")

	// With a single organization the login body may omit its name.
	token := a.login(t, "owner", "ownerpass123")

	// Wrong passwords and unknown usernames read identically.
	status, raw = a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "owner",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "invalid username or password", detailOf(t, raw))

	status, raw = a.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	var me struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
		Role struct {
			Level int `json:"level"`
		} `json:"role"`
		OrganizationName string   `json:"organization_name"`
		Permissions      []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(raw, &me))
	require.Equal(t, "owner", me.User.Username)
	require.Equal(t, 1, me.Role.Level)
	require.Equal(t, "Acme Diner", me.OrganizationName)
	require.Contains(t, me.Permissions, "stores:delete")
}

func TestAuthRequired(t *testing.T) {
	a := newTestAPI(t)
	a.setup(t)

	status, _ := a.do(t, http.MethodGet, "/api/v1/admin/stores", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = a.do(t, http.MethodGet, "/api/v1/admin/stores", "not-a-real-token", nil)
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestStaffCannotReachAdminRoutes(t *testing.T) {
	a := newTestAPI(t)
	res := a.setup(t)
	owner := a.login(t, "owner", "ownerpass123")

	a.createWorker(t, owner, res.roleID(t, 4), "worker")
	staff := a.login(t, "worker", "workerpass123")

	// Level-gated and permission-gated admin routes both refuse staff.
	status, _ := a.do(t, http.MethodGet, "/api/v1/admin/work-assignments", staff, nil)
	require.Equal(t, http.StatusForbidden, status)
	status, _ = a.do(t, http.MethodGet, "/api/v1/admin/users", staff, nil)
	require.Equal(t, http.StatusForbidden, status)

	// The worker surface still works for them.
	status, _ = a.do(t, http.MethodGet, "/api/v1/my/work-assignments", staff, nil)
	require.Equal(t, http.StatusOK, status)
}

// TestAssignmentLifecycle walks the daily loop end to end: the owner sets
// up a shift, position, and checklist template, assigns a worker, the
// worker completes the item, and the owner reviews it.
func TestAssignmentLifecycle(t *testing.T) {
	a := newTestAPI(t)
	res := a.setup(t)
	owner := a.login(t, "owner", "ownerpass123")
	storeID := res.Store.ID
	ctx := context.Background()

	shiftID, positionID := a.seedRoster(t, owner, storeID)
	workerID := a.createWorker(t, owner, res.roleID(t, 4), "worker")

	workDate := time.Now().UTC().Format("2006-01-02")
	var created struct {
		ID         uuid.UUID `json:"id"`
		Status     string    `json:"status"`
		TotalItems int       `json:"total_items"`
	}
	status, raw := a.do(t, http.MethodPost, "/api/v1/admin/work-assignments", owner, map[string]any{
		"store_id":    storeID,
		"shift_id":    shiftID,
		"position_id": positionID,
		"user_id":     workerID,
		"work_date":   workDate,
	})
	require.Equal(t, http.StatusCreated, status, "create assignment: %s", raw)
	require.NoError(t, json.Unmarshal(raw, &created))
	require.Equal(t, "assigned", created.Status)
	require.Equal(t, 1, created.TotalItems)

	// The same slot on the same date is a conflict, not a second row.
	status, raw = a.do(t, http.MethodPost, "/api/v1/admin/work-assignments", owner, map[string]any{
		"store_id":    storeID,
		"shift_id":    shiftID,
		"position_id": positionID,
		"user_id":     workerID,
		"work_date":   workDate,
	})
	require.Equal(t, http.StatusConflict, status, "duplicate assignment: %s", raw)

	// Fan the outbox out so the worker sees the assignment notification.
	delivered, err := a.dispatcher.DrainOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, delivered)

	staff := a.login(t, "worker", "workerpass123")

	status, raw = a.do(t, http.MethodGet, "/api/v1/my/notifications/unread-count", staff, nil)
	require.Equal(t, http.StatusOK, status)
	var unread struct {
		UnreadCount int `json:"unread_count"`
	}
	require.NoError(t, json.Unmarshal(raw, &unread))
	require.Equal(t, 1, unread.UnreadCount)

	var mine []struct {
		ID uuid.UUID `json:"id"`
	}
	status, raw = a.do(t, http.MethodGet, "/api/v1/my/work-assignments?work_date="+workDate, staff, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &mine))
	require.Len(t, mine, 1)
	require.Equal(t, created.ID, mine[0].ID)

	var instPage struct {
		Items []struct {
			ID uuid.UUID `json:"id"`
		} `json:"items"`
		Total int `json:"total"`
	}
	status, raw = a.do(t, http.MethodGet, "/api/v1/my/checklist-instances?work_date="+workDate, staff, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &instPage))
	require.Equal(t, 1, instPage.Total)
	instanceID := instPage.Items[0].ID

	completePath := fmt.Sprintf("/api/v1/my/checklist-instances/%s/items/0/complete", instanceID)
	var inst struct {
		Status         string `json:"status"`
		CompletedItems int    `json:"completed_items"`
	}
	status, raw = a.do(t, http.MethodPost, completePath, staff, map[string]any{"note": "done before opening"})
	require.Equal(t, http.StatusCreated, status, "complete item: %s", raw)
	require.NoError(t, json.Unmarshal(raw, &inst))
	require.Equal(t, "completed", inst.Status)
	require.Equal(t, 1, inst.CompletedItems)

	// Completing twice upserts the same row; the recount keeps the counter at one.
	status, raw = a.do(t, http.MethodPost, completePath, staff, map[string]any{"note": "again"})
	require.Equal(t, http.StatusCreated, status, "double complete: %s", raw)
	require.NoError(t, json.Unmarshal(raw, &inst))
	require.Equal(t, 1, inst.CompletedItems)

	// The assignment mirrors the instance counters.
	var asg struct {
		Status         string `json:"status"`
		CompletedItems int    `json:"completed_items"`
	}
	status, raw = a.do(t, http.MethodGet, "/api/v1/my/work-assignments/"+created.ID.String(), staff, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &asg))
	require.Equal(t, "completed", asg.Status)
	require.Equal(t, 1, asg.CompletedItems)

	// Another worker cannot even see the instance.
	a.createWorker(t, owner, res.roleID(t, 4), "stranger")
	stranger := a.login(t, "stranger", "workerpass123")
	status, _ = a.do(t, http.MethodGet, "/api/v1/my/checklist-instances/"+instanceID.String(), stranger, nil)
	require.Equal(t, http.StatusNotFound, status)

	// The owner reviews the completed item.
	reviewPath := fmt.Sprintf("/api/v1/admin/checklist-instances/%s/items/0/review", instanceID)
	status, raw = a.do(t, http.MethodPut, reviewPath, owner, map[string]any{"result": "pass", "comment": "spotless"})
	require.Equal(t, http.StatusOK, status, "review item: %s", raw)

	status, raw = a.do(t, http.MethodGet, "/api/v1/admin/checklist-instances/completion-log", owner, nil)
	require.Equal(t, http.StatusOK, status)
	var logPage struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(raw, &logPage))
	require.Equal(t, 1, logPage.Total)

	// The dashboard reflects the completed assignment.
	status, raw = a.do(t, http.MethodGet, "/api/v1/admin/dashboard", owner, nil)
	require.Equal(t, http.StatusOK, status)
	var counts struct {
		Assignments     int `json:"assignments"`
		AssignmentsDone int `json:"assignments_completed"`
	}
	require.NoError(t, json.Unmarshal(raw, &counts))
	require.Equal(t, 1, counts.Assignments)
	require.Equal(t, 1, counts.AssignmentsDone)
}

func TestQRAttendanceFlow(t *testing.T) {
	a := newTestAPI(t)
	res := a.setup(t)
	owner := a.login(t, "owner", "ownerpass123")
	storeID := res.Store.ID

	// No active code yet.
	status, _ := a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/stores/%s/qr-code", storeID), owner, nil)
	require.Equal(t, http.StatusNotFound, status)

	var qr struct {
		ID       uuid.UUID `json:"id"`
		Code     string    `json:"code"`
		IsActive bool      `json:"is_active"`
	}
	status, raw := a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/stores/%s/qr-codes", storeID), owner, nil)
	require.Equal(t, http.StatusCreated, status, "create qr: %s", raw)
	require.NoError(t, json.Unmarshal(raw, &qr))
	require.True(t, qr.IsActive)
	require.NotEmpty(t, qr.Code)

	a.createWorker(t, owner, res.roleID(t, 4), "worker")
	staff := a.login(t, "worker", "workerpass123")

	// Before scanning, today reads as null.
	status, raw = a.do(t, http.MethodGet, "/api/v1/my/attendance/today", staff, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "null", string(bytes.TrimSpace(raw)))

	var att struct {
		Status string `json:"status"`
	}
	status, raw = a.do(t, http.MethodPost, "/api/v1/my/attendance/scan", staff,
		map[string]string{"qr_code": qr.Code, "action": "clock_in", "timezone": "America/Los_Angeles"})
	require.Equal(t, http.StatusOK, status, "clock in: %s", raw)
	require.NoError(t, json.Unmarshal(raw, &att))
	require.Equal(t, "clocked_in", att.Status)

	// A second clock-in without a clock-out is refused.
	status, raw = a.do(t, http.MethodPost, "/api/v1/my/attendance/scan", staff,
		map[string]string{"qr_code": qr.Code, "action": "clock_in"})
	require.Equal(t, http.StatusBadRequest, status, "double clock in: %s", raw)

	status, raw = a.do(t, http.MethodPost, "/api/v1/my/attendance/scan", staff,
		map[string]string{"qr_code": qr.Code, "action": "clock_out"})
	require.Equal(t, http.StatusOK, status, "clock out: %s", raw)
	require.NoError(t, json.Unmarshal(raw, &att))
	require.Equal(t, "clocked_out", att.Status)

	status, raw = a.do(t, http.MethodGet, "/api/v1/my/attendance/today", staff, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotEqual(t, "null", string(bytes.TrimSpace(raw)))

	// The admin listing sees the same record.
	status, raw = a.do(t, http.MethodGet, "/api/v1/admin/attendances", owner, nil)
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(raw, &page))
	require.Equal(t, 1, page.Total)

	// Regeneration retires the old code.
	status, raw = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/qr-codes/%s/regenerate", qr.ID), owner, nil)
	require.Equal(t, http.StatusOK, status, "regenerate: %s", raw)
	var regenerated struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(raw, &regenerated))
	require.NotEqual(t, qr.Code, regenerated.Code)

	status, raw = a.do(t, http.MethodPost, "/api/v1/my/attendance/scan", staff,
		map[string]string{"qr_code": qr.Code, "action": "clock_in"})
	require.Equal(t, http.StatusBadRequest, status, "stale code: %s", raw)
	require.Contains(t, detailOf(t, raw), "invalid or inactive qr code")
}

func TestScheduleApprovalOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	res := a.setup(t)
	owner := a.login(t, "owner", "ownerpass123")
	storeID := res.Store.ID

	shiftID, positionID := a.seedRoster(t, owner, storeID)
	workerID := a.createWorker(t, owner, res.roleID(t, 4), "worker")

	workDate := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	var sched struct {
		ID               uuid.UUID  `json:"id"`
		Status           string     `json:"status"`
		WorkAssignmentID *uuid.UUID `json:"work_assignment_id"`
	}
	status, raw := a.do(t, http.MethodPost, "/api/v1/admin/schedules", owner, map[string]any{
		"store_id":    storeID,
		"user_id":     workerID,
		"shift_id":    shiftID,
		"position_id": positionID,
		"work_date":   workDate,
		"start_time":  "09:00",
		"end_time":    "17:00",
	})
	require.Equal(t, http.StatusCreated, status, "create schedule: %s", raw)
	require.NoError(t, json.Unmarshal(raw, &sched))
	require.Equal(t, "draft", sched.Status)

	// Drafts cannot be approved; they must pass through pending.
	status, raw = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/schedules/%s/approve", sched.ID), owner, nil)
	require.Equal(t, http.StatusBadRequest, status, "approve draft: %s", raw)

	status, raw = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/schedules/%s/submit", sched.ID), owner, nil)
	require.Equal(t, http.StatusOK, status, "submit: %s", raw)
	require.NoError(t, json.Unmarshal(raw, &sched))
	require.Equal(t, "pending", sched.Status)

	status, raw = a.do(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/schedules/%s/approve", sched.ID), owner, nil)
	require.Equal(t, http.StatusOK, status, "approve: %s", raw)
	require.NoError(t, json.Unmarshal(raw, &sched))
	require.Equal(t, "approved", sched.Status)
	require.NotNil(t, sched.WorkAssignmentID)

	// Approval materialized the work assignment.
	status, raw = a.do(t, http.MethodGet, "/api/v1/admin/work-assignments/"+sched.WorkAssignmentID.String(), owner, nil)
	require.Equal(t, http.StatusOK, status, "load assignment: %s", raw)

	// The audit trail records both transitions, oldest first.
	status, raw = a.do(t, http.MethodGet, fmt.Sprintf("/api/v1/admin/schedules/%s/history", sched.ID), owner, nil)
	require.Equal(t, http.StatusOK, status)
	var history []struct {
		Action string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(raw, &history))
	require.Len(t, history, 2)
	require.Equal(t, "submit", history[0].Action)
	require.Equal(t, "approve", history[1].Action)
}

func TestPaginationEnvelope(t *testing.T) {
	a := newTestAPI(t)
	res := a.setup(t)
	owner := a.login(t, "owner", "ownerpass123")

	for i := 0; i < 3; i++ {
		a.createWorker(t, owner, res.roleID(t, 4), fmt.Sprintf("worker%d", i))
	}

	status, raw := a.do(t, http.MethodGet, "/api/v1/admin/users?page=1&per_page=2", owner, nil)
	require.Equal(t, http.StatusOK, status)
	var page struct {
		Items   []json.RawMessage `json:"items"`
		Total   int               `json:"total"`
		Page    int               `json:"page"`
		PerPage int               `json:"per_page"`
	}
	require.NoError(t, json.Unmarshal(raw, &page))
	require.Len(t, page.Items, 2)
	require.Equal(t, 4, page.Total) // owner plus three workers
	require.Equal(t, 1, page.Page)
	require.Equal(t, 2, page.PerPage)

	// Out-of-range values clamp instead of erroring.
	status, raw = a.do(t, http.MethodGet, "/api/v1/admin/users?page=0&per_page=9999", owner, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &page))
	require.Equal(t, 1, page.Page)
	require.Equal(t, 100, page.PerPage)
}

func TestCORSPreflight(t *testing.T) {
	a := newTestAPI(t)

	req, err := http.NewRequest(http.MethodOptions, a.ts.URL+"/api/v1/auth/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	resp, err := a.ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")

	// Unlisted origins get no CORS headers back.
	req, err = http.NewRequest(http.MethodOptions, a.ts.URL+"/api/v1/auth/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.example.com")
	resp, err = a.ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestValidationErrors(t *testing.T) {
	a := newTestAPI(t)
	a.setup(t)
	owner := a.login(t, "owner", "ownerpass123")

	// Garbage UUIDs in the path are a 400, not a 500.
	status, raw := a.do(t, http.MethodGet, "/api/v1/admin/stores/not-a-uuid", owner, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, detailOf(t, raw), "invalid storeID")

	// Bad enum values in queries are rejected with the offending value.
	status, raw = a.do(t, http.MethodGet, "/api/v1/admin/schedules?status=bogus", owner, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, detailOf(t, raw), "bogus")

	// Missing bodies read as a 400 with a stable message.
	status, raw = a.do(t, http.MethodPost, "/api/v1/admin/work-assignments", owner, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, detailOf(t, raw), "request body is required")
}
