// Package storage provides shared types for workforce data storage.
//
// The concrete implementation lives in the sqlstore sub-package, which
// speaks both PostgreSQL and SQLite. This package holds the interface and
// value types referenced by both the implementation and its consumers
// (services, API handlers, cmd/sc).
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist in the database.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique constraint rejects a write. The
// constraint is the single arbiter of uniqueness; callers translate this
// into their Duplicate error kind instead of pre-checking.
var ErrConflict = errors.New("conflict")

// ErrInvalidID is returned when an identifier fails to parse.
var ErrInvalidID = errors.New("invalid ID")

// Page is a pagination request. Zero values fall back to the defaults.
type Page struct {
	Number  int
	PerPage int
}

// Normalize clamps a page request to sane bounds (page >= 1, 1..100 per page).
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.PerPage < 1 {
		p.PerPage = 20
	}
	if p.PerPage > 100 {
		p.PerPage = 100
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Number - 1) * n.PerPage
}

// AssignmentFilter narrows work-assignment listings. OrgID is mandatory;
// everything else optional.
type AssignmentFilter struct {
	OrgID    uuid.UUID
	StoreID  *uuid.UUID
	UserID   *uuid.UUID
	WorkDate *time.Time
	Status   types.AssignmentStatus
	Page     Page
}

// InstanceFilter narrows checklist-instance listings.
type InstanceFilter struct {
	OrgID    uuid.UUID
	StoreID  *uuid.UUID
	UserID   *uuid.UUID
	WorkDate *time.Time
	Status   types.InstanceStatus
	Page     Page
}

// ScheduleFilter narrows schedule listings.
type ScheduleFilter struct {
	OrgID    uuid.UUID
	StoreID  *uuid.UUID
	UserID   *uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
	Status   types.ScheduleStatus
	Page     Page
}

// AttendanceFilter narrows attendance listings.
type AttendanceFilter struct {
	OrgID    uuid.UUID
	StoreID  *uuid.UUID
	UserID   *uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
	Status   types.AttendanceStatus
	Page     Page
}

// TaskFilter narrows additional-task listings.
type TaskFilter struct {
	OrgID    uuid.UUID
	Assignee *uuid.UUID
	Status   types.TaskStatus
	Page     Page
}

// EvaluationFilter narrows evaluation listings.
type EvaluationFilter struct {
	OrgID       uuid.UUID
	EvaluatorID *uuid.UUID
	EvaluateeID *uuid.UUID
	Status      types.EvalStatus
	Page        Page
}

// CompletionLogEntry is one row of the org-wide completion feed.
type CompletionLogEntry struct {
	Completion *types.ChecklistCompletion `json:"completion"`
	InstanceID uuid.UUID                  `json:"instance_id"`
	StoreID    uuid.UUID                  `json:"store_id"`
	WorkDate   time.Time                  `json:"work_date"`
	ItemTitle  string                     `json:"item_title"`
	UserName   string                     `json:"user_name"`
}

// RecentAssignmentUser is one (shift, position, user) combo with its most
// recent assignment date. Used to suggest workers when building a day's
// roster.
type RecentAssignmentUser struct {
	ShiftID      uuid.UUID `json:"shift_id" db:"shift_id"`
	PositionID   uuid.UUID `json:"position_id" db:"position_id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	LastWorkDate time.Time `json:"last_work_date" db:"last_work_date"`
}

// DashboardCounts is the admin landing-page aggregate for one org-day.
type DashboardCounts struct {
	Assignments       int `json:"assignments"`
	AssignmentsDone   int `json:"assignments_completed"`
	AssignmentsActive int `json:"assignments_in_progress"`
	InstancesDone     int `json:"instances_completed"`
	PendingSchedules  int `json:"pending_schedules"`
	PresentWorkers    int `json:"present_workers"`
	OnBreakWorkers    int `json:"on_break_workers"`
	OpenTasks         int `json:"open_tasks"`
	UnreadNotices     int `json:"unread_notifications"`
}

// Queries is the method set available both on the root Storage handle and
// inside RunInTransaction. Every method takes a context and is scoped to
// one organization wherever tenancy applies.
type Queries interface {
	// Organizations
	CreateOrganization(ctx context.Context, org *types.Organization) error
	GetOrganization(ctx context.Context, id uuid.UUID) (*types.Organization, error)
	ListOrganizations(ctx context.Context) ([]*types.Organization, error)
	UpdateOrganization(ctx context.Context, org *types.Organization) error

	// Stores
	CreateStore(ctx context.Context, store *types.Store) error
	GetStore(ctx context.Context, id uuid.UUID) (*types.Store, error)
	ListStores(ctx context.Context, orgID uuid.UUID) ([]*types.Store, error)
	UpdateStore(ctx context.Context, store *types.Store) error
	DeleteStore(ctx context.Context, id uuid.UUID) error

	// Shifts and positions
	CreateShift(ctx context.Context, shift *types.Shift) error
	GetShift(ctx context.Context, id uuid.UUID) (*types.Shift, error)
	ListShifts(ctx context.Context, storeID uuid.UUID) ([]*types.Shift, error)
	UpdateShift(ctx context.Context, shift *types.Shift) error
	DeleteShift(ctx context.Context, id uuid.UUID) error
	CreatePosition(ctx context.Context, pos *types.Position) error
	GetPosition(ctx context.Context, id uuid.UUID) (*types.Position, error)
	ListPositions(ctx context.Context, storeID uuid.UUID) ([]*types.Position, error)
	UpdatePosition(ctx context.Context, pos *types.Position) error
	DeletePosition(ctx context.Context, id uuid.UUID) error

	// Roles, users, permissions
	CreateRole(ctx context.Context, role *types.Role) error
	GetRole(ctx context.Context, id uuid.UUID) (*types.Role, error)
	ListRoles(ctx context.Context, orgID uuid.UUID) ([]*types.Role, error)
	UpdateRole(ctx context.Context, role *types.Role) error
	DeleteRole(ctx context.Context, id uuid.UUID) error
	CountUsersWithRole(ctx context.Context, roleID uuid.UUID) (int, error)
	CreateUser(ctx context.Context, user *types.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*types.User, error)
	GetUserByUsername(ctx context.Context, orgID uuid.UUID, username string) (*types.User, error)
	ListUsers(ctx context.Context, orgID uuid.UUID, page Page) ([]*types.User, int, error)
	UpdateUser(ctx context.Context, user *types.User) error
	ListActiveUserIDs(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error)
	ListUserIDsWithMaxLevel(ctx context.Context, orgID uuid.UUID, maxLevel int) ([]uuid.UUID, error)
	AssignUserToStore(ctx context.Context, userID, storeID uuid.UUID) error
	RemoveUserFromStore(ctx context.Context, userID, storeID uuid.UUID) error
	ListStoreIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ListUserIDsForStore(ctx context.Context, storeID uuid.UUID) ([]uuid.UUID, error)
	UpsertPermission(ctx context.Context, perm *types.Permission) error
	GetPermissionByCode(ctx context.Context, code string) (*types.Permission, error)
	ListPermissions(ctx context.Context) ([]*types.Permission, error)
	ListRolePermissions(ctx context.Context, roleID uuid.UUID) ([]*types.Permission, error)
	GrantPermission(ctx context.Context, roleID, permID uuid.UUID) error
	SetRolePermissions(ctx context.Context, roleID uuid.UUID, permIDs []uuid.UUID) error
	ListPermissionCodes(ctx context.Context, roleID uuid.UUID) ([]string, error)

	// Refresh tokens
	CreateRefreshToken(ctx context.Context, rt *types.RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*types.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
	DeleteRefreshTokensForUser(ctx context.Context, userID uuid.UUID) error

	// Checklist templates
	CreateChecklistTemplate(ctx context.Context, tpl *types.ChecklistTemplate) error
	GetChecklistTemplate(ctx context.Context, id uuid.UUID) (*types.ChecklistTemplate, error)
	FindChecklistTemplate(ctx context.Context, storeID, shiftID, positionID uuid.UUID) (*types.ChecklistTemplate, error)
	ListChecklistTemplates(ctx context.Context, storeID uuid.UUID) ([]*types.ChecklistTemplate, error)
	UpdateChecklistTemplate(ctx context.Context, tpl *types.ChecklistTemplate) error
	DeleteChecklistTemplate(ctx context.Context, id uuid.UUID) error
	AddChecklistItem(ctx context.Context, item *types.ChecklistTemplateItem) error
	UpdateChecklistItem(ctx context.Context, item *types.ChecklistTemplateItem) error
	DeleteChecklistItem(ctx context.Context, id uuid.UUID) error
	GetChecklistItem(ctx context.Context, id uuid.UUID) (*types.ChecklistTemplateItem, error)
	ListChecklistItems(ctx context.Context, templateID uuid.UUID) ([]*types.ChecklistTemplateItem, error)
	ReorderChecklistItems(ctx context.Context, templateID uuid.UUID, orderedIDs []uuid.UUID) error

	// Work assignments
	CreateWorkAssignment(ctx context.Context, a *types.WorkAssignment) error
	GetWorkAssignment(ctx context.Context, id uuid.UUID) (*types.WorkAssignment, error)
	ListWorkAssignments(ctx context.Context, f AssignmentFilter) ([]*types.WorkAssignment, int, error)
	ListRecentAssignmentUsers(ctx context.Context, orgID, storeID uuid.UUID, since time.Time, excludeDate *time.Time) ([]*RecentAssignmentUser, error)
	UpdateAssignmentProgress(ctx context.Context, id uuid.UUID, snap *types.ChecklistSnapshot, completed int, status types.AssignmentStatus) error
	UpdateAssignmentUser(ctx context.Context, id, userID uuid.UUID) error
	DeleteWorkAssignment(ctx context.Context, id uuid.UUID) error

	// Checklist instances and completions
	CreateChecklistInstance(ctx context.Context, ci *types.ChecklistInstance) error
	GetChecklistInstance(ctx context.Context, id uuid.UUID) (*types.ChecklistInstance, error)
	GetInstanceByAssignment(ctx context.Context, assignmentID uuid.UUID) (*types.ChecklistInstance, error)
	ListChecklistInstances(ctx context.Context, f InstanceFilter) ([]*types.ChecklistInstance, int, error)
	UpdateInstanceProgress(ctx context.Context, id uuid.UUID, completed int, status types.InstanceStatus) error
	UpdateInstanceUser(ctx context.Context, id, userID uuid.UUID) error
	UpsertCompletion(ctx context.Context, c *types.ChecklistCompletion) error
	DeleteCompletion(ctx context.Context, instanceID uuid.UUID, itemIndex int) error
	ListCompletions(ctx context.Context, instanceID uuid.UUID) ([]*types.ChecklistCompletion, error)
	CountCompletions(ctx context.Context, instanceID uuid.UUID) (int, error)
	ListRecentCompletions(ctx context.Context, orgID uuid.UUID, page Page) ([]*CompletionLogEntry, int, error)
	UpsertItemReview(ctx context.Context, r *types.ChecklistItemReview) error
	DeleteItemReview(ctx context.Context, instanceID uuid.UUID, itemIndex int) error
	ListItemReviews(ctx context.Context, instanceID uuid.UUID) ([]*types.ChecklistItemReview, error)
	AddInstanceComment(ctx context.Context, c *types.ChecklistComment) error
	ListInstanceComments(ctx context.Context, instanceID uuid.UUID) ([]*types.ChecklistComment, error)

	// Schedules
	CreateSchedule(ctx context.Context, s *types.Schedule) error
	GetSchedule(ctx context.Context, id uuid.UUID) (*types.Schedule, error)
	ListSchedules(ctx context.Context, f ScheduleFilter) ([]*types.Schedule, int, error)
	UpdateSchedule(ctx context.Context, s *types.Schedule) error
	AddScheduleApproval(ctx context.Context, ap *types.ScheduleApproval) error
	ListScheduleApprovals(ctx context.Context, scheduleID uuid.UUID) ([]*types.ScheduleApproval, error)
	CreateShiftPreset(ctx context.Context, p *types.ShiftPreset) error
	GetShiftPreset(ctx context.Context, id uuid.UUID) (*types.ShiftPreset, error)
	ListShiftPresets(ctx context.Context, storeID uuid.UUID) ([]*types.ShiftPreset, error)
	DeleteShiftPreset(ctx context.Context, id uuid.UUID) error

	// Attendance
	CreateQRCode(ctx context.Context, qr *types.QRCode) error
	GetQRCode(ctx context.Context, id uuid.UUID) (*types.QRCode, error)
	GetQRCodeByCode(ctx context.Context, code string) (*types.QRCode, error)
	GetActiveQRCode(ctx context.Context, storeID uuid.UUID) (*types.QRCode, error)
	ListQRCodes(ctx context.Context, storeID uuid.UUID) ([]*types.QRCode, error)
	DeactivateStoreQRCodes(ctx context.Context, storeID uuid.UUID) error
	CreateAttendance(ctx context.Context, a *types.Attendance) error
	GetAttendance(ctx context.Context, id uuid.UUID) (*types.Attendance, error)
	GetAttendanceForDay(ctx context.Context, userID uuid.UUID, workDate time.Time) (*types.Attendance, error)
	UpdateAttendance(ctx context.Context, a *types.Attendance) error
	ListAttendance(ctx context.Context, f AttendanceFilter) ([]*types.Attendance, int, error)
	ListAttendanceBetween(ctx context.Context, orgID uuid.UUID, storeID, userID *uuid.UUID, from, to time.Time) ([]*types.Attendance, error)
	SumWorkMinutes(ctx context.Context, userID uuid.UUID, from, to time.Time) (int, error)
	AddAttendanceCorrection(ctx context.Context, c *types.AttendanceCorrection) error
	ListAttendanceCorrections(ctx context.Context, attendanceID uuid.UUID) ([]*types.AttendanceCorrection, error)
	GetLaborSetting(ctx context.Context, storeID uuid.UUID) (*types.LaborSetting, error)
	UpsertLaborSetting(ctx context.Context, ls *types.LaborSetting) error

	// Notifications and outbox
	EnqueueOutbox(ctx context.Context, e *types.OutboxEntry) error
	ListPendingOutbox(ctx context.Context, limit int) ([]*types.OutboxEntry, error)
	MarkOutboxDispatched(ctx context.Context, id uuid.UUID, at time.Time) error
	BumpOutboxAttempts(ctx context.Context, id uuid.UUID) error
	CreateNotification(ctx context.Context, n *types.Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, page Page) ([]*types.Notification, int, error)
	CountUnreadNotifications(ctx context.Context, userID uuid.UUID) (int, error)
	MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error

	// Announcements and additional tasks
	CreateAnnouncement(ctx context.Context, a *types.Announcement) error
	GetAnnouncement(ctx context.Context, id uuid.UUID) (*types.Announcement, error)
	ListAnnouncements(ctx context.Context, orgID uuid.UUID, storeID *uuid.UUID, page Page) ([]*types.Announcement, int, error)
	ListAnnouncementsForUser(ctx context.Context, orgID, userID uuid.UUID, page Page) ([]*types.Announcement, int, error)
	UpdateAnnouncement(ctx context.Context, a *types.Announcement) error
	DeleteAnnouncement(ctx context.Context, id uuid.UUID) error
	CreateTask(ctx context.Context, t *types.AdditionalTask) error
	GetTask(ctx context.Context, id uuid.UUID) (*types.AdditionalTask, error)
	ListTasks(ctx context.Context, f TaskFilter) ([]*types.AdditionalTask, int, error)
	UpdateTask(ctx context.Context, t *types.AdditionalTask) error
	DeleteTask(ctx context.Context, id uuid.UUID) error
	SetTaskAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error
	ListTaskAssignees(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error)

	// Evaluations
	CreateEvalTemplate(ctx context.Context, tpl *types.EvalTemplate) error
	GetEvalTemplate(ctx context.Context, id uuid.UUID) (*types.EvalTemplate, error)
	ListEvalTemplates(ctx context.Context, orgID uuid.UUID) ([]*types.EvalTemplate, error)
	UpdateEvalTemplate(ctx context.Context, tpl *types.EvalTemplate) error
	SetEvalTemplateItems(ctx context.Context, templateID uuid.UUID, items []*types.EvalTemplateItem) error
	DeleteEvalTemplate(ctx context.Context, id uuid.UUID) error
	CreateEvaluation(ctx context.Context, e *types.Evaluation) error
	GetEvaluation(ctx context.Context, id uuid.UUID) (*types.Evaluation, error)
	ListEvaluations(ctx context.Context, f EvaluationFilter) ([]*types.Evaluation, int, error)
	UpdateEvaluationStatus(ctx context.Context, id uuid.UUID, status types.EvalStatus, at time.Time) error
	SaveEvalResponses(ctx context.Context, evalID uuid.UUID, responses []*types.EvalResponse) error

	// Dashboard
	DashboardCounts(ctx context.Context, orgID uuid.UUID, day time.Time) (*DashboardCounts, error)
}

// Tx is the transactional view of the store, passed to RunInTransaction
// callbacks. All Queries methods run on the same underlying transaction.
type Tx interface {
	Queries
}

// Storage is the interface satisfied by *sqlstore.Store. Consumers depend
// on this interface rather than the concrete type so alternative
// implementations (mocks, proxies) can be substituted.
type Storage interface {
	Queries

	// RunInTransaction executes fn inside one database transaction,
	// committing on nil return and rolling back on error or panic.
	RunInTransaction(ctx context.Context, fn func(tx Tx) error) error

	// Ping verifies the database connection.
	Ping(ctx context.Context) error

	// Close releases the connection pool.
	Close() error
}
