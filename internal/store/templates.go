package store

import (
	"database/sql"
	"fmt"
	"time"
)

// CreateTemplate inserts the template and its ordered line references in one
// transaction. Every referenced line must already exist.
func (s *SQLiteStore) CreateTemplate(t *Template) (*Template, error) {
	keywordsJSON, err := encodeStrings(t.Keywords)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin template transaction: %w", err)
	}
	defer tx.Rollback()

	id := newID()
	now := time.Now()
	_, err = tx.Exec(
		"INSERT INTO templates (id, title, goal, intent, keywords, use_count, avg_rating, is_protected, created_at) VALUES (?, ?, ?, ?, ?, 0, NULL, ?, ?)",
		id, t.Title, t.Goal, t.Intent, keywordsJSON, t.IsProtected, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert template: %w", err)
	}

	for pos, lineID := range t.LineIDs {
		if _, err = tx.Exec(
			"INSERT INTO template_lines (template_id, line_id, position) VALUES (?, ?, ?)",
			id, lineID, pos); err != nil {
			return nil, fmt.Errorf("failed to insert template line %s: %w", lineID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit template: %w", err)
	}
	return s.GetTemplateByID(id)
}

// GetTemplatesByGoal returns the goal's catalog for matching. LineIDs are not
// loaded here; acceptance fetches the ordered lines separately.
func (s *SQLiteStore) GetTemplatesByGoal(goal Goal) ([]Template, error) {
	rows, err := s.db.Query(
		"SELECT id, title, goal, intent, keywords, use_count, avg_rating, is_protected, created_at FROM templates WHERE goal = ? ORDER BY created_at ASC",
		goal)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (s *SQLiteStore) GetTemplateByID(id string) (*Template, error) {
	row := s.db.QueryRow(
		"SELECT id, title, goal, intent, keywords, use_count, avg_rating, is_protected, created_at FROM templates WHERE id = ?", id)
	t, err := scanTemplate(row)
	if err != nil || t == nil {
		return t, err
	}

	rows, err := s.db.Query("SELECT line_id FROM template_lines WHERE template_id = ? ORDER BY position ASC", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query template lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var lineID string
		if err := rows.Scan(&lineID); err != nil {
			return nil, fmt.Errorf("failed to scan template line row: %w", err)
		}
		t.LineIDs = append(t.LineIDs, lineID)
	}
	return t, rows.Err()
}

func (s *SQLiteStore) GetTemplateByGoalTitle(goal Goal, title string) (*Template, error) {
	row := s.db.QueryRow(
		"SELECT id, title, goal, intent, keywords, use_count, avg_rating, is_protected, created_at FROM templates WHERE goal = ? AND title = ?",
		goal, title)
	return scanTemplate(row)
}

// GetTemplateLines returns the template's lines in stored order. A reference
// pointing at a missing line means the persistence invariants were violated
// and surfaces as ErrIntegrity.
func (s *SQLiteStore) GetTemplateLines(templateID string) ([]Line, error) {
	var refs int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM template_lines WHERE template_id = ?", templateID).Scan(&refs); err != nil {
		return nil, fmt.Errorf("failed to count template lines: %w", err)
	}

	rows, err := s.db.Query(`
        SELECT l.id, l.goal, l.text, l.tags, l.emotion, l.use_count, l.avg_rating, l.created_at
        FROM template_lines tl
        JOIN lines l ON l.id = tl.line_id
        WHERE tl.template_id = ?
        ORDER BY tl.position ASC`, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query template lines: %w", err)
	}
	defer rows.Close()

	lines, err := collectLines(rows)
	if err != nil {
		return nil, err
	}
	if len(lines) != refs {
		return nil, fmt.Errorf("template %s references %d lines but %d exist: %w", templateID, refs, len(lines), ErrIntegrity)
	}
	return lines, nil
}

// IncrementTemplateUse bumps use_count by exactly one, once per exact-match
// acceptance.
func (s *SQLiteStore) IncrementTemplateUse(id string) error {
	res, err := s.db.Exec("UPDATE templates SET use_count = use_count + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to increment template use: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	return nil
}

// PromoteTemplateRating folds one rating into the template's running average,
// weighted by its use_count.
func (s *SQLiteStore) PromoteTemplateRating(id string, rating int) error {
	stmt, err := s.db.Prepare(`
        UPDATE templates
        SET avg_rating = CASE
            WHEN avg_rating IS NULL THEN ?
            ELSE (avg_rating * use_count + ?) / (use_count + 1)
        END
        WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare template rating update: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(float64(rating), float64(rating), id)
	if err != nil {
		return fmt.Errorf("failed to execute template rating update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteTemplate removes a template and its line references. Protected seed
// templates refuse deletion.
func (s *SQLiteStore) DeleteTemplate(id string) error {
	t, err := s.GetTemplateByID(id)
	if err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("template %s: %w", id, ErrNotFound)
	}
	if t.IsProtected {
		return fmt.Errorf("template %s: %w", id, ErrProtectedTemplate)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin template delete: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.Exec("DELETE FROM template_lines WHERE template_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete template lines: %w", err)
	}
	if _, err = tx.Exec("DELETE FROM templates WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return tx.Commit()
}

func scanTemplate(row rowScanner) (*Template, error) {
	var t Template
	var keywordsJSON string
	var avgRating sql.NullFloat64
	err := row.Scan(&t.ID, &t.Title, &t.Goal, &t.Intent, &keywordsJSON, &t.UseCount, &avgRating, &t.IsProtected, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Template not found
		}
		return nil, fmt.Errorf("failed to scan template row: %w", err)
	}
	if t.Keywords, err = decodeStrings(keywordsJSON); err != nil {
		return nil, err
	}
	if avgRating.Valid {
		t.AvgRating = &avgRating.Float64
	}
	return &t, nil
}
