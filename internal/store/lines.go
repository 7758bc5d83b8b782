package store

import (
	"database/sql"
	"fmt"
	"time"
)

// UpsertLine records one use of a line's text: a new (goal, text) pair is
// inserted with use_count 1, an existing pair gets its use_count bumped. The
// dedup and the counter update are a single statement, so two concurrent
// identical generations can never create two rows.
func (s *SQLiteStore) UpsertLine(line *Line) (*Line, error) {
	tagsJSON, err := encodeStrings(line.Tags)
	if err != nil {
		return nil, err
	}

	stmt, err := s.db.Prepare(`
        INSERT INTO lines (id, goal, text, tags, emotion, use_count, created_at)
        VALUES (?, ?, ?, ?, ?, 1, ?)
        ON CONFLICT (goal, text) DO UPDATE SET use_count = use_count + 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare line upsert: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.Exec(newID(), line.Goal, line.Text, tagsJSON, line.Emotion, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to execute line upsert: %w", err)
	}
	return s.GetLineByGoalText(line.Goal, line.Text)
}

// EnsureLine inserts a line with use_count 0 if its (goal, text) pair is new,
// otherwise leaves the existing row untouched. Used by seeding, which must be
// idempotent and must not count a use.
func (s *SQLiteStore) EnsureLine(line *Line) (*Line, error) {
	tagsJSON, err := encodeStrings(line.Tags)
	if err != nil {
		return nil, err
	}

	stmt, err := s.db.Prepare(`
        INSERT INTO lines (id, goal, text, tags, emotion, use_count, created_at)
        VALUES (?, ?, ?, ?, ?, 0, ?)
        ON CONFLICT (goal, text) DO NOTHING`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare line insert: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.Exec(newID(), line.Goal, line.Text, tagsJSON, line.Emotion, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to execute line insert: %w", err)
	}
	return s.GetLineByGoalText(line.Goal, line.Text)
}

func (s *SQLiteStore) GetLineByGoalText(goal Goal, text string) (*Line, error) {
	row := s.db.QueryRow(
		"SELECT id, goal, text, tags, emotion, use_count, avg_rating, created_at FROM lines WHERE goal = ? AND text = ?",
		goal, text)
	return scanLine(row)
}

func (s *SQLiteStore) GetLineByID(id string) (*Line, error) {
	row := s.db.QueryRow(
		"SELECT id, goal, text, tags, emotion, use_count, avg_rating, created_at FROM lines WHERE id = ?", id)
	return scanLine(row)
}

// GetLinesByGoal returns the goal's whole pool partition. Theme filtering and
// ranking happen in the resolver; partitions stay small enough to scan.
func (s *SQLiteStore) GetLinesByGoal(goal Goal) ([]Line, error) {
	rows, err := s.db.Query(
		"SELECT id, goal, text, tags, emotion, use_count, avg_rating, created_at FROM lines WHERE goal = ? ORDER BY created_at ASC",
		goal)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines: %w", err)
	}
	defer rows.Close()
	return collectLines(rows)
}

func (s *SQLiteStore) GetLinesByIDs(ids []string) ([]Line, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := fmt.Sprintf(
		"SELECT id, goal, text, tags, emotion, use_count, avg_rating, created_at FROM lines WHERE id IN (%s)",
		placeholders(len(ids)))
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines by id: %w", err)
	}
	defer rows.Close()
	return collectLines(rows)
}

// IncrementLineUse bumps use_count on each given line. Called once per pooled
// acceptance, so use counts stay monotone.
func (s *SQLiteStore) IncrementLineUse(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := fmt.Sprintf("UPDATE lines SET use_count = use_count + 1 WHERE id IN (%s)", placeholders(len(ids)))
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to increment line use: %w", err)
	}
	return nil
}

// PromoteLineRating folds one rating into the line's running average, weighted
// by its use_count. The arithmetic runs inside the statement so concurrent
// promotions never lose an update.
func (s *SQLiteStore) PromoteLineRating(id string, rating int) error {
	stmt, err := s.db.Prepare(`
        UPDATE lines
        SET avg_rating = CASE
            WHEN avg_rating IS NULL THEN ?
            ELSE (avg_rating * use_count + ?) / (use_count + 1)
        END
        WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare line rating update: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(float64(rating), float64(rating), id)
	if err != nil {
		return fmt.Errorf("failed to execute line rating update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("line %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteLine removes a line by explicit administrative action. It fails if any
// template still references the line.
func (s *SQLiteStore) DeleteLine(id string) error {
	var refs int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM template_lines WHERE line_id = ?", id).Scan(&refs); err != nil {
		return fmt.Errorf("failed to count line references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("line %s: %w", id, ErrLineReferenced)
	}

	res, err := s.db.Exec("DELETE FROM lines WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete line: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("line %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLine(row rowScanner) (*Line, error) {
	var line Line
	var tagsJSON string
	var avgRating sql.NullFloat64
	err := row.Scan(&line.ID, &line.Goal, &line.Text, &tagsJSON, &line.Emotion, &line.UseCount, &avgRating, &line.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Line not found
		}
		return nil, fmt.Errorf("failed to scan line row: %w", err)
	}
	if line.Tags, err = decodeStrings(tagsJSON); err != nil {
		return nil, err
	}
	if avgRating.Valid {
		line.AvgRating = &avgRating.Float64
	}
	return &line, nil
}

func collectLines(rows *sql.Rows) ([]Line, error) {
	var lines []Line
	for rows.Next() {
		var line Line
		var tagsJSON string
		var avgRating sql.NullFloat64
		if err := rows.Scan(&line.ID, &line.Goal, &line.Text, &tagsJSON, &line.Emotion, &line.UseCount, &avgRating, &line.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan line row: %w", err)
		}
		tags, err := decodeStrings(tagsJSON)
		if err != nil {
			return nil, err
		}
		line.Tags = tags
		if avgRating.Valid {
			line.AvgRating = &avgRating.Float64
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
