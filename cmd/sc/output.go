package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/storage"
)

// outputJSON outputs data as pretty-printed JSON to stdout.
func outputJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

// listEnvelope is the JSON shape for paginated listings.
type listEnvelope struct {
	Items interface{} `json:"items"`
	Total int         `json:"total"`
}

func outputJSONList(items interface{}, total int) {
	outputJSON(listEnvelope{Items: items, Total: total})
}

func fmtDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func fmtTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("15:04")
}

func fmtDateTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// shortID renders the first UUID group for table output. Full IDs come
// from --json listings.
func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

// nameIndex caches ID-to-name lookups so list rendering does not fire a
// query per row. Misses fall back to the short ID.
type nameIndex struct {
	users     map[uuid.UUID]string
	stores    map[uuid.UUID]string
	shifts    map[uuid.UUID]string
	positions map[uuid.UUID]string
}

func buildNameIndex(ctx context.Context, orgID uuid.UUID) *nameIndex {
	idx := &nameIndex{
		users:     map[uuid.UUID]string{},
		stores:    map[uuid.UUID]string{},
		shifts:    map[uuid.UUID]string{},
		positions: map[uuid.UUID]string{},
	}

	page := storage.Page{Number: 1, PerPage: 100}
	for {
		users, total, err := store.ListUsers(ctx, orgID, page)
		if err != nil || len(users) == 0 {
			break
		}
		for _, u := range users {
			idx.users[u.ID] = u.Username
		}
		if len(idx.users) >= total {
			break
		}
		page.Number++
	}

	stores, err := store.ListStores(ctx, orgID)
	if err != nil {
		return idx
	}
	for _, st := range stores {
		idx.stores[st.ID] = st.Name
		if shifts, err := store.ListShifts(ctx, st.ID); err == nil {
			for _, sh := range shifts {
				idx.shifts[sh.ID] = sh.Name
			}
		}
		if positions, err := store.ListPositions(ctx, st.ID); err == nil {
			for _, p := range positions {
				idx.positions[p.ID] = p.Name
			}
		}
	}
	return idx
}

func (n *nameIndex) user(id uuid.UUID) string {
	if name, ok := n.users[id]; ok {
		return name
	}
	return shortID(id)
}

func (n *nameIndex) userPtr(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return n.user(*id)
}

func (n *nameIndex) store(id uuid.UUID) string {
	if name, ok := n.stores[id]; ok {
		return name
	}
	return shortID(id)
}

func (n *nameIndex) storePtr(id *uuid.UUID) string {
	if id == nil {
		return "all stores"
	}
	return n.store(*id)
}

func (n *nameIndex) shift(id uuid.UUID) string {
	if name, ok := n.shifts[id]; ok {
		return name
	}
	return shortID(id)
}

func (n *nameIndex) shiftPtr(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return n.shift(*id)
}

func (n *nameIndex) position(id uuid.UUID) string {
	if name, ok := n.positions[id]; ok {
		return name
	}
	return shortID(id)
}

func (n *nameIndex) positionPtr(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return n.position(*id)
}

// showMore prints a truncation hint when a listing hit the page size.
func showMore(shown, total int) {
	if total > shown {
		fmt.Fprintf(os.Stderr, "\nShowing %d of %d (use --page/--per-page for more)\n", shown, total)
	}
}
