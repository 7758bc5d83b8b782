package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateResolutionRecord persists one telemetry row. The ID and timestamp are
// assigned here.
func (s *SQLiteStore) CreateResolutionRecord(rec *ResolutionRecord) error {
	rec.ID = uuid.NewString() // Ensure ID is set
	rec.CreatedAt = time.Now()

	lineIDsJSON, err := encodeStrings(rec.LineIDs)
	if err != nil {
		return err
	}

	stmt, err := s.db.Prepare(
		"INSERT INTO resolution_records (id, tier, cost, confidence, goal, intent, template_id, line_ids, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(rec.ID, rec.Tier, rec.Cost, rec.Confidence, rec.Goal, rec.Intent, rec.TemplateID, lineIDsJSON, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to execute record insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetResolutionRecord(id string) (*ResolutionRecord, error) {
	var rec ResolutionRecord
	var templateID sql.NullString
	var lineIDsJSON string
	var rating sql.NullInt64
	var replayed sql.NullBool
	var feedbackAt sql.NullTime

	err := s.db.QueryRow(
		"SELECT id, tier, cost, confidence, goal, intent, template_id, line_ids, rating, replayed, created_at, feedback_at FROM resolution_records WHERE id = ?",
		id).Scan(&rec.ID, &rec.Tier, &rec.Cost, &rec.Confidence, &rec.Goal, &rec.Intent, &templateID, &lineIDsJSON, &rating, &replayed, &rec.CreatedAt, &feedbackAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Record not found
		}
		return nil, fmt.Errorf("failed to get resolution record: %w", err)
	}

	if rec.LineIDs, err = decodeStrings(lineIDsJSON); err != nil {
		return nil, err
	}
	if templateID.Valid {
		rec.TemplateID = &templateID.String
	}
	if rating.Valid {
		r := int(rating.Int64)
		rec.Rating = &r
	}
	if replayed.Valid {
		rec.Replayed = &replayed.Bool
	}
	if feedbackAt.Valid {
		rec.FeedbackAt = &feedbackAt.Time
	}
	return &rec, nil
}

// SetResolutionFeedback applies the one allowed feedback submission. The
// feedback_at guard makes the update idempotent-once: a second submission
// matches no row and is rejected, never averaged in.
func (s *SQLiteStore) SetResolutionFeedback(id string, rating *int, replayed *bool) error {
	stmt, err := s.db.Prepare(
		"UPDATE resolution_records SET rating = ?, replayed = ?, feedback_at = ? WHERE id = ? AND feedback_at IS NULL")
	if err != nil {
		return fmt.Errorf("failed to prepare feedback update: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(rating, replayed, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to execute feedback update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM resolution_records WHERE id = ?", id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check record existence: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("resolution record %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("resolution record %s: %w", id, ErrDuplicateFeedback)
	}
	return nil
}

// ResolutionStats aggregates count, attributed cost and average rating per
// tier for records created at or after since. A zero since covers everything.
func (s *SQLiteStore) ResolutionStats(since time.Time) ([]TierStat, error) {
	rows, err := s.db.Query(`
        SELECT tier, COUNT(*), COALESCE(SUM(cost), 0), AVG(rating)
        FROM resolution_records
        WHERE created_at >= ?
        GROUP BY tier
        ORDER BY tier`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolution stats: %w", err)
	}
	defer rows.Close()

	var stats []TierStat
	for rows.Next() {
		var st TierStat
		var avgRating sql.NullFloat64
		if err := rows.Scan(&st.Tier, &st.Count, &st.Cost, &avgRating); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		if avgRating.Valid {
			st.AvgRating = &avgRating.Float64
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
