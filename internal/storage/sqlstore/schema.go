package sqlstore

// DDL for both dialects. Table and column names are identical; only the
// column types differ (UUID/TIMESTAMPTZ/JSONB/DATE on Postgres, TEXT and
// friends on SQLite). Keep the two blocks in lockstep when editing.

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS organizations (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS stores (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	UNIQUE(organization_id, name)
);
CREATE INDEX IF NOT EXISTS idx_stores_org ON stores(organization_id);

CREATE TABLE IF NOT EXISTS shifts (
	id TEXT PRIMARY KEY,
	store_id TEXT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	UNIQUE(store_id, name)
);

CREATE TABLE IF NOT EXISTS positions (
	id TEXT PRIMARY KEY,
	store_id TEXT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	UNIQUE(store_id, name)
);

CREATE TABLE IF NOT EXISTS roles (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	level INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL,
	UNIQUE(organization_id, name),
	UNIQUE(organization_id, level)
);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	role_id TEXT NOT NULL REFERENCES roles(id),
	username TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	full_name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 1,
	email_verified INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	UNIQUE(organization_id, username)
);

CREATE TABLE IF NOT EXISTS user_stores (
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	store_id TEXT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	PRIMARY KEY (user_id, store_id)
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	token TEXT NOT NULL UNIQUE,
	expires_at TIMESTAMP NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS permissions (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	resource TEXT NOT NULL,
	action TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	require_priority_check INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS role_permissions (
	role_id TEXT NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
	permission_id TEXT NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
	PRIMARY KEY (role_id, permission_id)
);

CREATE TABLE IF NOT EXISTS checklist_templates (
	id TEXT PRIMARY KEY,
	store_id TEXT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	shift_id TEXT NOT NULL REFERENCES shifts(id) ON DELETE CASCADE,
	position_id TEXT NOT NULL REFERENCES positions(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	UNIQUE(store_id, shift_id, position_id)
);

CREATE TABLE IF NOT EXISTS checklist_template_items (
	id TEXT PRIMARY KEY,
	template_id TEXT NOT NULL REFERENCES checklist_templates(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	verification_type TEXT NOT NULL DEFAULT 'none',
	recurrence_type TEXT NOT NULL DEFAULT 'daily',
	recurrence_days TEXT,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_template_items_template ON checklist_template_items(template_id);

CREATE TABLE IF NOT EXISTS work_assignments (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	store_id TEXT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	shift_id TEXT NOT NULL REFERENCES shifts(id),
	position_id TEXT NOT NULL REFERENCES positions(id),
	user_id TEXT NOT NULL REFERENCES users(id),
	work_date TIMESTAMP NOT NULL,
	status TEXT NOT NULL DEFAULT 'assigned',
	checklist_snapshot TEXT,
	total_items INTEGER NOT NULL DEFAULT 0,
	completed_items INTEGER NOT NULL DEFAULT 0,
	assigned_by TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	UNIQUE(store_id, shift_id, position_id, user_id, work_date)
);
CREATE INDEX IF NOT EXISTS idx_assignments_org_date ON work_assignments(organization_id, work_date);
CREATE INDEX IF NOT EXISTS idx_assignments_user_date ON work_assignments(user_id, work_date);

CREATE TABLE IF NOT EXISTS checklist_instances (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	template_id TEXT REFERENCES checklist_templates(id) ON DELETE SET NULL,
	work_assignment_id TEXT NOT NULL UNIQUE REFERENCES work_assignments(id) ON DELETE CASCADE,
	store_id TEXT NOT NULL REFERENCES stores(id),
	user_id TEXT NOT NULL REFERENCES users(id),
	work_date TIMESTAMP NOT NULL,
	snapshot TEXT,
	total_items INTEGER NOT NULL DEFAULT 0,
	completed_items INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_instances_org_date ON checklist_instances(organization_id, work_date);

CREATE TABLE IF NOT EXISTS checklist_completions (
	id TEXT PRIMARY KEY,
	instance_id TEXT NOT NULL REFERENCES checklist_instances(id) ON DELETE CASCADE,
	item_index INTEGER NOT NULL,
	user_id TEXT NOT NULL REFERENCES users(id),
	completed_at TIMESTAMP NOT NULL,
	completed_timezone TEXT NOT NULL DEFAULT '',
	photo_url TEXT NOT NULL DEFAULT '',
	note TEXT NOT NULL DEFAULT '',
	location TEXT,
	UNIQUE(instance_id, item_index)
);

CREATE TABLE IF NOT EXISTS checklist_item_reviews (
	id TEXT PRIMARY KEY,
	instance_id TEXT NOT NULL REFERENCES checklist_instances(id) ON DELETE CASCADE,
	item_index INTEGER NOT NULL,
	reviewer_id TEXT NOT NULL REFERENCES users(id),
	result TEXT NOT NULL,
	comment TEXT NOT NULL DEFAULT '',
	photo_url TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	UNIQUE(instance_id, item_index)
);

CREATE TABLE IF NOT EXISTS checklist_comments (
	id TEXT PRIMARY KEY,
	instance_id TEXT NOT NULL REFERENCES checklist_instances(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL REFERENCES users(id),
	body TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS schedules (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	store_id TEXT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL REFERENCES users(id),
	shift_id TEXT REFERENCES shifts(id),
	position_id TEXT REFERENCES positions(id),
	work_date TIMESTAMP NOT NULL,
	start_time TEXT NOT NULL DEFAULT '',
	end_time TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'draft',
	note TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL REFERENCES users(id),
	approved_by TEXT,
	approved_at TIMESTAMP,
	work_assignment_id TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	UNIQUE(user_id, store_id, work_date, shift_id)
);
CREATE INDEX IF NOT EXISTS idx_schedules_org_store_date ON schedules(organization_id, store_id, work_date);
CREATE INDEX IF NOT EXISTS idx_schedules_user_date ON schedules(user_id, work_date);

CREATE TABLE IF NOT EXISTS schedule_approvals (
	id TEXT PRIMARY KEY,
	schedule_id TEXT NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
	action TEXT NOT NULL,
	user_id TEXT NOT NULL REFERENCES users(id),
	reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_approvals_schedule ON schedule_approvals(schedule_id);

CREATE TABLE IF NOT EXISTS shift_presets (
	id TEXT PRIMARY KEY,
	store_id TEXT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	shift_id TEXT REFERENCES shifts(id),
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS labor_settings (
	store_id TEXT PRIMARY KEY REFERENCES stores(id) ON DELETE CASCADE,
	jurisdiction TEXT NOT NULL DEFAULT '',
	weekly_cap_minutes INTEGER,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS qr_codes (
	id TEXT PRIMARY KEY,
	store_id TEXT NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	code TEXT NOT NULL UNIQUE,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_by TEXT NOT NULL REFERENCES users(id),
	expires_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS attendances (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	store_id TEXT NOT NULL REFERENCES stores(id),
	user_id TEXT NOT NULL REFERENCES users(id),
	work_date TIMESTAMP NOT NULL,
	clock_in TIMESTAMP,
	clock_in_timezone TEXT NOT NULL DEFAULT '',
	break_start TIMESTAMP,
	break_end TIMESTAMP,
	clock_out TIMESTAMP,
	clock_out_timezone TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'clocked_in',
	total_work_minutes INTEGER NOT NULL DEFAULT 0,
	total_break_minutes INTEGER NOT NULL DEFAULT 0,
	note TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	UNIQUE(user_id, work_date)
);
CREATE INDEX IF NOT EXISTS idx_attendances_org_date ON attendances(organization_id, work_date);

CREATE TABLE IF NOT EXISTS attendance_corrections (
	id TEXT PRIMARY KEY,
	attendance_id TEXT NOT NULL REFERENCES attendances(id) ON DELETE CASCADE,
	field_name TEXT NOT NULL,
	original_value TEXT NOT NULL DEFAULT '',
	corrected_value TEXT NOT NULL,
	reason TEXT NOT NULL,
	corrected_by TEXT NOT NULL REFERENCES users(id),
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	message TEXT NOT NULL,
	reference_type TEXT NOT NULL DEFAULT '',
	reference_id TEXT,
	is_read INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, is_read);

CREATE TABLE IF NOT EXISTS notification_outbox (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	recipients TEXT NOT NULL,
	type TEXT NOT NULL,
	message TEXT NOT NULL,
	reference_type TEXT NOT NULL DEFAULT '',
	reference_id TEXT,
	created_at TIMESTAMP NOT NULL,
	dispatched_at TIMESTAMP,
	attempts INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON notification_outbox(dispatched_at);

CREATE TABLE IF NOT EXISTS announcements (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	store_id TEXT REFERENCES stores(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	created_by TEXT NOT NULL REFERENCES users(id),
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS additional_tasks (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	store_id TEXT REFERENCES stores(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL DEFAULT 'normal',
	status TEXT NOT NULL DEFAULT 'pending',
	due_date TIMESTAMP,
	created_by TEXT NOT NULL REFERENCES users(id),
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS task_assignees (
	task_id TEXT NOT NULL REFERENCES additional_tasks(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	PRIMARY KEY (task_id, user_id)
);

CREATE TABLE IF NOT EXISTS eval_templates (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	target_level INTEGER NOT NULL DEFAULT 4,
	eval_type TEXT NOT NULL DEFAULT 'adhoc',
	cycle_weeks INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS eval_template_items (
	id TEXT PRIMARY KEY,
	template_id TEXT NOT NULL REFERENCES eval_templates(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	item_type TEXT NOT NULL DEFAULT 'score',
	max_score INTEGER NOT NULL DEFAULT 5,
	sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS evaluations (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	store_id TEXT REFERENCES stores(id),
	evaluator_id TEXT NOT NULL REFERENCES users(id),
	evaluatee_id TEXT NOT NULL REFERENCES users(id),
	template_id TEXT REFERENCES eval_templates(id) ON DELETE SET NULL,
	status TEXT NOT NULL DEFAULT 'draft',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS eval_responses (
	id TEXT PRIMARY KEY,
	evaluation_id TEXT NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
	item_id TEXT NOT NULL,
	score INTEGER,
	text_value TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS organizations (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS stores (
	id UUID PRIMARY KEY,
	organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE(organization_id, name)
);
CREATE INDEX IF NOT EXISTS idx_stores_org ON stores(organization_id);

CREATE TABLE IF NOT EXISTS shifts (
	id UUID PRIMARY KEY,
	store_id UUID NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE(store_id, name)
);

CREATE TABLE IF NOT EXISTS positions (
	id UUID PRIMARY KEY,
	store_id UUID NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE(store_id, name)
);

CREATE TABLE IF NOT EXISTS roles (
	id UUID PRIMARY KEY,
	organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	level INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE(organization_id, name),
	UNIQUE(organization_id, level)
);

CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	role_id UUID NOT NULL REFERENCES roles(id),
	username TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	full_name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	email_verified BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE(organization_id, username)
);

CREATE TABLE IF NOT EXISTS user_stores (
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	store_id UUID NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	PRIMARY KEY (user_id, store_id)
);

CREATE TABLE IF NOT EXISTS refresh_tokens (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	token TEXT NOT NULL UNIQUE,
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS permissions (
	id UUID PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	resource TEXT NOT NULL,
	action TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	require_priority_check BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS role_permissions (
	role_id UUID NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
	permission_id UUID NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
	PRIMARY KEY (role_id, permission_id)
);

CREATE TABLE IF NOT EXISTS checklist_templates (
	id UUID PRIMARY KEY,
	store_id UUID NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	shift_id UUID NOT NULL REFERENCES shifts(id) ON DELETE CASCADE,
	position_id UUID NOT NULL REFERENCES positions(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE(store_id, shift_id, position_id)
);

CREATE TABLE IF NOT EXISTS checklist_template_items (
	id UUID PRIMARY KEY,
	template_id UUID NOT NULL REFERENCES checklist_templates(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	verification_type TEXT NOT NULL DEFAULT 'none',
	recurrence_type TEXT NOT NULL DEFAULT 'daily',
	recurrence_days JSONB,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_template_items_template ON checklist_template_items(template_id);

CREATE TABLE IF NOT EXISTS work_assignments (
	id UUID PRIMARY KEY,
	organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	store_id UUID NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	shift_id UUID NOT NULL REFERENCES shifts(id),
	position_id UUID NOT NULL REFERENCES positions(id),
	user_id UUID NOT NULL REFERENCES users(id),
	work_date DATE NOT NULL,
	status TEXT NOT NULL DEFAULT 'assigned',
	checklist_snapshot JSONB,
	total_items INTEGER NOT NULL DEFAULT 0,
	completed_items INTEGER NOT NULL DEFAULT 0,
	assigned_by UUID,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE(store_id, shift_id, position_id, user_id, work_date)
);
CREATE INDEX IF NOT EXISTS idx_assignments_org_date ON work_assignments(organization_id, work_date);
CREATE INDEX IF NOT EXISTS idx_assignments_user_date ON work_assignments(user_id, work_date);

CREATE TABLE IF NOT EXISTS checklist_instances (
	id UUID PRIMARY KEY,
	organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	template_id UUID REFERENCES checklist_templates(id) ON DELETE SET NULL,
	work_assignment_id UUID NOT NULL UNIQUE REFERENCES work_assignments(id) ON DELETE CASCADE,
	store_id UUID NOT NULL REFERENCES stores(id),
	user_id UUID NOT NULL REFERENCES users(id),
	work_date DATE NOT NULL,
	snapshot JSONB,
	total_items INTEGER NOT NULL DEFAULT 0,
	completed_items INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_instances_org_date ON checklist_instances(organization_id, work_date);

CREATE TABLE IF NOT EXISTS checklist_completions (
	id UUID PRIMARY KEY,
	instance_id UUID NOT NULL REFERENCES checklist_instances(id) ON DELETE CASCADE,
	item_index INTEGER NOT NULL,
	user_id UUID NOT NULL REFERENCES users(id),
	completed_at TIMESTAMPTZ NOT NULL,
	completed_timezone TEXT NOT NULL DEFAULT '',
	photo_url TEXT NOT NULL DEFAULT '',
	note TEXT NOT NULL DEFAULT '',
	location JSONB,
	UNIQUE(instance_id, item_index)
);

CREATE TABLE IF NOT EXISTS checklist_item_reviews (
	id UUID PRIMARY KEY,
	instance_id UUID NOT NULL REFERENCES checklist_instances(id) ON DELETE CASCADE,
	item_index INTEGER NOT NULL,
	reviewer_id UUID NOT NULL REFERENCES users(id),
	result TEXT NOT NULL,
	comment TEXT NOT NULL DEFAULT '',
	photo_url TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE(instance_id, item_index)
);

CREATE TABLE IF NOT EXISTS checklist_comments (
	id UUID PRIMARY KEY,
	instance_id UUID NOT NULL REFERENCES checklist_instances(id) ON DELETE CASCADE,
	user_id UUID NOT NULL REFERENCES users(id),
	body TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS schedules (
	id UUID PRIMARY KEY,
	organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	store_id UUID NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	user_id UUID NOT NULL REFERENCES users(id),
	shift_id UUID REFERENCES shifts(id),
	position_id UUID REFERENCES positions(id),
	work_date DATE NOT NULL,
	start_time TEXT NOT NULL DEFAULT '',
	end_time TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'draft',
	note TEXT NOT NULL DEFAULT '',
	created_by UUID NOT NULL REFERENCES users(id),
	approved_by UUID,
	approved_at TIMESTAMPTZ,
	work_assignment_id UUID,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE(user_id, store_id, work_date, shift_id)
);
CREATE INDEX IF NOT EXISTS idx_schedules_org_store_date ON schedules(organization_id, store_id, work_date);
CREATE INDEX IF NOT EXISTS idx_schedules_user_date ON schedules(user_id, work_date);

CREATE TABLE IF NOT EXISTS schedule_approvals (
	id UUID PRIMARY KEY,
	schedule_id UUID NOT NULL REFERENCES schedules(id) ON DELETE CASCADE,
	action TEXT NOT NULL,
	user_id UUID NOT NULL REFERENCES users(id),
	reason TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_approvals_schedule ON schedule_approvals(schedule_id);

CREATE TABLE IF NOT EXISTS shift_presets (
	id UUID PRIMARY KEY,
	store_id UUID NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	shift_id UUID REFERENCES shifts(id),
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS labor_settings (
	store_id UUID PRIMARY KEY REFERENCES stores(id) ON DELETE CASCADE,
	jurisdiction TEXT NOT NULL DEFAULT '',
	weekly_cap_minutes INTEGER,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS qr_codes (
	id UUID PRIMARY KEY,
	store_id UUID NOT NULL REFERENCES stores(id) ON DELETE CASCADE,
	code TEXT NOT NULL UNIQUE,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_by UUID NOT NULL REFERENCES users(id),
	expires_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS attendances (
	id UUID PRIMARY KEY,
	organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	store_id UUID NOT NULL REFERENCES stores(id),
	user_id UUID NOT NULL REFERENCES users(id),
	work_date DATE NOT NULL,
	clock_in TIMESTAMPTZ,
	clock_in_timezone TEXT NOT NULL DEFAULT '',
	break_start TIMESTAMPTZ,
	break_end TIMESTAMPTZ,
	clock_out TIMESTAMPTZ,
	clock_out_timezone TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'clocked_in',
	total_work_minutes INTEGER NOT NULL DEFAULT 0,
	total_break_minutes INTEGER NOT NULL DEFAULT 0,
	note TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE(user_id, work_date)
);
CREATE INDEX IF NOT EXISTS idx_attendances_org_date ON attendances(organization_id, work_date);

CREATE TABLE IF NOT EXISTS attendance_corrections (
	id UUID PRIMARY KEY,
	attendance_id UUID NOT NULL REFERENCES attendances(id) ON DELETE CASCADE,
	field_name TEXT NOT NULL,
	original_value TEXT NOT NULL DEFAULT '',
	corrected_value TEXT NOT NULL,
	reason TEXT NOT NULL,
	corrected_by UUID NOT NULL REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id UUID PRIMARY KEY,
	organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	message TEXT NOT NULL,
	reference_type TEXT NOT NULL DEFAULT '',
	reference_id UUID,
	is_read BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, is_read);

CREATE TABLE IF NOT EXISTS notification_outbox (
	id UUID PRIMARY KEY,
	organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	recipients JSONB NOT NULL,
	type TEXT NOT NULL,
	message TEXT NOT NULL,
	reference_type TEXT NOT NULL DEFAULT '',
	reference_id UUID,
	created_at TIMESTAMPTZ NOT NULL,
	dispatched_at TIMESTAMPTZ,
	attempts INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON notification_outbox(dispatched_at);

CREATE TABLE IF NOT EXISTS announcements (
	id UUID PRIMARY KEY,
	organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	store_id UUID REFERENCES stores(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	created_by UUID NOT NULL REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS additional_tasks (
	id UUID PRIMARY KEY,
	organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	store_id UUID REFERENCES stores(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	priority TEXT NOT NULL DEFAULT 'normal',
	status TEXT NOT NULL DEFAULT 'pending',
	due_date TIMESTAMPTZ,
	created_by UUID NOT NULL REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS task_assignees (
	task_id UUID NOT NULL REFERENCES additional_tasks(id) ON DELETE CASCADE,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	PRIMARY KEY (task_id, user_id)
);

CREATE TABLE IF NOT EXISTS eval_templates (
	id UUID PRIMARY KEY,
	organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	target_level INTEGER NOT NULL DEFAULT 4,
	eval_type TEXT NOT NULL DEFAULT 'adhoc',
	cycle_weeks INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS eval_template_items (
	id UUID PRIMARY KEY,
	template_id UUID NOT NULL REFERENCES eval_templates(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	item_type TEXT NOT NULL DEFAULT 'score',
	max_score INTEGER NOT NULL DEFAULT 5,
	sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS evaluations (
	id UUID PRIMARY KEY,
	organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	store_id UUID REFERENCES stores(id),
	evaluator_id UUID NOT NULL REFERENCES users(id),
	evaluatee_id UUID NOT NULL REFERENCES users(id),
	template_id UUID REFERENCES eval_templates(id) ON DELETE SET NULL,
	status TEXT NOT NULL DEFAULT 'draft',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS eval_responses (
	id UUID PRIMARY KEY,
	evaluation_id UUID NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
	item_id UUID NOT NULL,
	score INTEGER,
	text_value TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
`
