package store

import (
	"database/sql"
	"fmt"

	"github.com/cleanquest/cleanquest/internal/model"
)

type TemplateStore struct {
	db querier
}

func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

func scanTemplate(scanner interface{ Scan(...any) error }) (*model.TaskTemplate, error) {
	var t model.TaskTemplate
	err := scanner.Scan(
		&t.ID, &t.Room, &t.Title, &t.Frequency, &t.DurationMin,
		&t.Points, &t.Condition, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const templateCols = `id, room, title, frequency, duration_min, points, condition, created_at`

func (s *TemplateStore) List() ([]model.TaskTemplate, error) {
	rows, err := s.db.Query(`SELECT ` + templateCols + ` FROM task_templates ORDER BY room ASC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()
	return collectTemplates(rows)
}

// ListApplicable filters the catalog by profile attributes: unconditional
// templates always apply, petsOnly/gardenOnly only when the flag is set.
func (s *TemplateStore) ListApplicable(hasPets, hasGarden bool) ([]model.TaskTemplate, error) {
	rows, err := s.db.Query(
		`SELECT `+templateCols+` FROM task_templates
		 WHERE condition = ?
		    OR (condition = ? AND ?)
		    OR (condition = ? AND ?)
		 ORDER BY room ASC, title ASC`,
		model.CondNone,
		model.CondPetsOnly, boolToInt(hasPets),
		model.CondGardenOnly, boolToInt(hasGarden),
	)
	if err != nil {
		return nil, fmt.Errorf("list applicable templates: %w", err)
	}
	defer rows.Close()
	return collectTemplates(rows)
}

func (s *TemplateStore) GetByID(id string) (*model.TaskTemplate, error) {
	row := s.db.QueryRow(`SELECT `+templateCols+` FROM task_templates WHERE id = ?`, id)
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

func (s *TemplateStore) Create(id, room, title string, frequency model.Frequency, durationMin, points int, condition model.Condition) (*model.TaskTemplate, error) {
	_, err := s.db.Exec(
		`INSERT INTO task_templates (id, room, title, frequency, duration_min, points, condition)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, room, title, frequency, durationMin, points, condition,
	)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	return s.GetByID(id)
}

func collectTemplates(rows *sql.Rows) ([]model.TaskTemplate, error) {
	var templates []model.TaskTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}
