package checklist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// storeDoc is the YAML document holding one store's templates. Shifts and
// positions are referenced by name so a file exported from one
// environment imports cleanly into another.
type storeDoc struct {
	Templates []templateDoc `yaml:"templates"`
}

type templateDoc struct {
	Shift    string    `yaml:"shift"`
	Position string    `yaml:"position"`
	Title    string    `yaml:"title"`
	Items    []itemDoc `yaml:"items,omitempty"`
}

type itemDoc struct {
	Title        string `yaml:"title"`
	Description  string `yaml:"description,omitempty"`
	Verification string `yaml:"verification,omitempty"`
	Recurrence   string `yaml:"recurrence,omitempty"`
	Days         []int  `yaml:"days,flow,omitempty"`
}

// ImportResult contains statistics about a template import.
type ImportResult struct {
	Created       int      // templates created
	Skipped       int      // templates skipped because the triple was taken
	SkippedTitles []string // titles of the skipped templates
}

// ExportYAML renders every template of a store as a YAML document.
func (s *TemplateService) ExportYAML(ctx context.Context, orgID, storeID uuid.UUID) ([]byte, error) {
	if err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}

	shiftNames, posNames, err := s.refNames(ctx, storeID)
	if err != nil {
		return nil, err
	}

	tpls, err := s.store.ListChecklistTemplates(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	doc := storeDoc{Templates: make([]templateDoc, 0, len(tpls))}
	for _, tpl := range tpls {
		items, err := s.store.ListChecklistItems(ctx, tpl.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list items for %q: %w", tpl.Title, err)
		}
		td := templateDoc{
			Shift:    shiftNames[tpl.ShiftID],
			Position: posNames[tpl.PositionID],
			Title:    tpl.Title,
			Items:    make([]itemDoc, 0, len(items)),
		}
		for _, item := range items {
			td.Items = append(td.Items, itemDoc{
				Title:        item.Title,
				Description:  item.Description,
				Verification: string(item.VerificationType),
				Recurrence:   string(item.RecurrenceType),
				Days:         []int(item.RecurrenceDays),
			})
		}
		doc.Templates = append(doc.Templates, td)
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal templates: %w", err)
	}
	return out, nil
}

// ImportYAML creates templates from a YAML document. Shift and position
// names must already exist in the store; an unknown name aborts the
// import. A template whose triple is already occupied is skipped, so
// re-importing the same file is harmless.
func (s *TemplateService) ImportYAML(ctx context.Context, orgID, storeID uuid.UUID, data []byte) (*ImportResult, error) {
	if err := s.guardStore(ctx, orgID, storeID); err != nil {
		return nil, err
	}

	var doc storeDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid template YAML: %v: %w", err, apperr.ErrBadRequest)
	}
	if len(doc.Templates) == 0 {
		return nil, fmt.Errorf("no templates in document: %w", apperr.ErrBadRequest)
	}

	shiftIDs, posIDs, err := s.refIDs(ctx, storeID)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{}
	for _, td := range doc.Templates {
		shiftID, ok := shiftIDs[strings.ToLower(td.Shift)]
		if !ok {
			return res, fmt.Errorf("unknown shift %q: %w", td.Shift, apperr.ErrBadRequest)
		}
		posID, ok := posIDs[strings.ToLower(td.Position)]
		if !ok {
			return res, fmt.Errorf("unknown position %q: %w", td.Position, apperr.ErrBadRequest)
		}

		tpl, err := s.Create(ctx, orgID, storeID, TemplateInput{
			ShiftID:    shiftID,
			PositionID: posID,
			Title:      td.Title,
		})
		if errors.Is(err, apperr.ErrDuplicate) {
			res.Skipped++
			res.SkippedTitles = append(res.SkippedTitles, td.Title)
			continue
		}
		if err != nil {
			return res, fmt.Errorf("template %q: %w", td.Title, err)
		}

		if len(td.Items) > 0 {
			ins := make([]ItemInput, 0, len(td.Items))
			for _, id := range td.Items {
				ins = append(ins, ItemInput{
					Title:            id.Title,
					Description:      id.Description,
					VerificationType: types.VerificationType(id.Verification),
					RecurrenceType:   types.RecurrenceType(id.Recurrence),
					RecurrenceDays:   id.Days,
				})
			}
			if _, err := s.AddItems(ctx, orgID, tpl.ID, ins); err != nil {
				return res, fmt.Errorf("template %q items: %w", td.Title, err)
			}
		}
		res.Created++
	}
	return res, nil
}

// refNames maps shift and position IDs to their names for export.
func (s *TemplateService) refNames(ctx context.Context, storeID uuid.UUID) (map[uuid.UUID]string, map[uuid.UUID]string, error) {
	shifts, err := s.store.ListShifts(ctx, storeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	positions, err := s.store.ListPositions(ctx, storeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list positions: %w", err)
	}
	shiftNames := make(map[uuid.UUID]string, len(shifts))
	for _, sh := range shifts {
		shiftNames[sh.ID] = sh.Name
	}
	posNames := make(map[uuid.UUID]string, len(positions))
	for _, p := range positions {
		posNames[p.ID] = p.Name
	}
	return shiftNames, posNames, nil
}

// refIDs maps lowercased shift and position names to IDs for import.
func (s *TemplateService) refIDs(ctx context.Context, storeID uuid.UUID) (map[string]uuid.UUID, map[string]uuid.UUID, error) {
	shifts, err := s.store.ListShifts(ctx, storeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	positions, err := s.store.ListPositions(ctx, storeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list positions: %w", err)
	}
	shiftIDs := make(map[string]uuid.UUID, len(shifts))
	for _, sh := range shifts {
		shiftIDs[strings.ToLower(sh.Name)] = sh.ID
	}
	posIDs := make(map[string]uuid.UUID, len(positions))
	for _, p := range positions {
		posIDs[strings.ToLower(p.Name)] = p.ID
	}
	return shiftIDs, posIDs, nil
}
