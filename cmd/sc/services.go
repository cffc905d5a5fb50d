package main

import (
	"github.com/shiftcrew/shiftcrew/internal/announce"
	"github.com/shiftcrew/shiftcrew/internal/assignment"
	"github.com/shiftcrew/shiftcrew/internal/attendance"
	"github.com/shiftcrew/shiftcrew/internal/auth"
	"github.com/shiftcrew/shiftcrew/internal/checklist"
	"github.com/shiftcrew/shiftcrew/internal/config"
	"github.com/shiftcrew/shiftcrew/internal/evaluation"
	"github.com/shiftcrew/shiftcrew/internal/notify"
	"github.com/shiftcrew/shiftcrew/internal/org"
	"github.com/shiftcrew/shiftcrew/internal/schedule"
	"github.com/shiftcrew/shiftcrew/internal/snapshot"
	"github.com/shiftcrew/shiftcrew/internal/storage"
	"github.com/shiftcrew/shiftcrew/internal/task"
)

// appServices is the service graph commands reach through. Wiring matches
// the HTTP server: one shared outbox, assignments feeding schedules.
type appServices struct {
	Outbox      *notify.Outbox
	Auth        *auth.Service
	Orgs        *org.Service
	Templates   *checklist.TemplateService
	Instances   *checklist.Service
	Assignments *assignment.Service
	Schedules   *schedule.Service
	Attendance  *attendance.Service
	Announce    *announce.Service
	Tasks       *task.Service
	Evaluations *evaluation.Service
}

func buildServices(store storage.Storage) *appServices {
	outbox := notify.NewOutbox()
	instances := checklist.NewService(store)
	snapshots := snapshot.NewBuilder(store)
	assignments := assignment.NewService(store, snapshots, outbox, instances)

	return &appServices{
		Outbox: outbox,
		Auth: auth.NewService(store, auth.Config{
			Secret:    []byte(config.GetString("auth.secret")),
			AccessTTL: config.GetDuration("auth.token-ttl"),
		}),
		Orgs:        org.NewService(store),
		Templates:   checklist.NewTemplateService(store),
		Instances:   instances,
		Assignments: assignments,
		Schedules:   schedule.NewService(store, assignments, outbox),
		Attendance:  attendance.NewService(store, outbox),
		Announce:    announce.NewService(store, outbox),
		Tasks:       task.NewService(store, outbox),
		Evaluations: evaluation.NewService(store),
	}
}
