package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// timeLayout matches sqlite's strftime('%Y-%m-%dT%H:%M:%fZ', 'now').
const timeLayout = "2006-01-02T15:04:05.000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Fall back to RFC3339 variants written by older rows.
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

// SQLiteStore implements Store on a libSQL database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const phaseColumns = `id, lat, lng, COALESCE(street_view_id, ''), hint_text, status, created_at, updated_at, solved_at`

func scanPhase(row interface{ Scan(...any) error }) (Phase, error) {
	var p Phase
	var status, createdAt, updatedAt string
	var solvedAt sql.NullString
	err := row.Scan(&p.ID, &p.Lat, &p.Lng, &p.StreetViewID, &p.HintText, &status, &createdAt, &updatedAt, &solvedAt)
	if err != nil {
		return Phase{}, err
	}
	p.Status = PhaseStatus(status)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	if solvedAt.Valid {
		t := parseTime(solvedAt.String)
		p.SolvedAt = &t
	}
	return p, nil
}

func (s *SQLiteStore) CreatePhase(ctx context.Context, p Phase) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO phases (id, lat, lng, street_view_id, hint_text, status)
		VALUES (?, ?, ?, NULLIF(?, ''), ?, ?)
	`, p.ID, p.Lat, p.Lng, p.StreetViewID, p.HintText, string(p.Status))
	return err
}

func (s *SQLiteStore) GetPhase(ctx context.Context, id string) (Phase, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+phaseColumns+` FROM phases WHERE id = ?`, id)
	p, err := scanPhase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Phase{}, ErrPhaseNotFound
	}
	return p, err
}

func (s *SQLiteStore) ListPhases(ctx context.Context) ([]Phase, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+phaseColumns+` FROM phases ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var phases []Phase
	for rows.Next() {
		p, err := scanPhase(rows)
		if err != nil {
			return nil, err
		}
		phases = append(phases, p)
	}
	return phases, rows.Err()
}

func (s *SQLiteStore) DeletePhase(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM phases WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrPhaseNotFound
	}
	return nil
}

// ActivePhase returns the most recently created active phase. There should
// be at most one; recency is a defensive tie-break.
func (s *SQLiteStore) ActivePhase(ctx context.Context) (Phase, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+phaseColumns+` FROM phases
		WHERE status = 'active'
		ORDER BY created_at DESC
		LIMIT 1
	`)
	p, err := scanPhase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Phase{}, ErrNotFound
	}
	return p, err
}

func (s *SQLiteStore) PromotePhase(ctx context.Context, id string, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ts := formatTime(now)
	if _, err := tx.ExecContext(ctx, `
		UPDATE phases SET status = 'solved', solved_at = ?, updated_at = ?
		WHERE status = 'active'
	`, ts, ts); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE phases SET status = 'active', updated_at = ?
		WHERE id = ?
	`, ts, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrPhaseNotFound
	}

	return tx.Commit()
}

func (s *SQLiteStore) SolvePhase(ctx context.Context, id string, now time.Time) error {
	ts := formatTime(now)
	result, err := s.db.ExecContext(ctx, `
		UPDATE phases SET status = 'solved', solved_at = ?, updated_at = ?
		WHERE id = ?
	`, ts, ts, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrPhaseNotFound
	}
	return nil
}

func (s *SQLiteStore) UpdateHintText(ctx context.Context, phaseID, text string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE phases SET hint_text = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?
	`, text, phaseID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrPhaseNotFound
	}
	return nil
}

func (s *SQLiteStore) CreatePreparedPhase(ctx context.Context, pp PreparedPhase) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prepared_phases (id, phase_id, approved_by)
		VALUES (?, ?, ?)
	`, pp.ID, pp.PhaseID, pp.ApprovedBy)
	return err
}

func (s *SQLiteStore) ListPreparedPhases(ctx context.Context) ([]PreparedPhase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pp.id, pp.phase_id, pp.approved_by, pp.approved_at, p.status, p.hint_text
		FROM prepared_phases pp
		JOIN phases p ON p.id = pp.phase_id
		ORDER BY pp.approved_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pool []PreparedPhase
	for rows.Next() {
		var pp PreparedPhase
		var approvedAt, status string
		if err := rows.Scan(&pp.ID, &pp.PhaseID, &pp.ApprovedBy, &approvedAt, &status, &pp.HintText); err != nil {
			return nil, err
		}
		pp.ApprovedAt = parseTime(approvedAt)
		pp.PhaseStatus = PhaseStatus(status)
		pool = append(pool, pp)
	}
	return pool, rows.Err()
}

func (s *SQLiteStore) EligiblePreparedPhaseIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id
		FROM prepared_phases pp
		JOIN phases p ON p.id = pp.phase_id
		WHERE p.status = 'prepared'
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) CreateHintVersion(ctx context.Context, hv HintVersion) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hint_versions (id, phase_id, hint_type, hint_text, version, prompt)
		VALUES (?, ?, ?, ?, ?, NULLIF(?, ''))
	`, hv.ID, hv.PhaseID, hv.HintType, hv.HintText, hv.Version, hv.Prompt)
	return err
}

func (s *SQLiteStore) ListHintVersions(ctx context.Context, phaseID string) ([]HintVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, phase_id, hint_type, hint_text, version, COALESCE(prompt, ''), created_at
		FROM hint_versions
		WHERE phase_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, phaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []HintVersion
	for rows.Next() {
		var hv HintVersion
		var createdAt string
		if err := rows.Scan(&hv.ID, &hv.PhaseID, &hv.HintType, &hv.HintText, &hv.Version, &hv.Prompt, &createdAt); err != nil {
			return nil, err
		}
		hv.CreatedAt = parseTime(createdAt)
		versions = append(versions, hv)
	}
	return versions, rows.Err()
}

func (s *SQLiteStore) GetHintVersion(ctx context.Context, phaseID, versionID string) (HintVersion, error) {
	var hv HintVersion
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, phase_id, hint_type, hint_text, version, COALESCE(prompt, ''), created_at
		FROM hint_versions
		WHERE id = ? AND phase_id = ?
	`, versionID, phaseID).Scan(&hv.ID, &hv.PhaseID, &hv.HintType, &hv.HintText, &hv.Version, &hv.Prompt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return HintVersion{}, ErrNotFound
	}
	if err != nil {
		return HintVersion{}, err
	}
	hv.CreatedAt = parseTime(createdAt)
	return hv, nil
}

func (s *SQLiteStore) CountSubmissionsSince(ctx context.Context, userID, phaseID string, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM user_submissions
		WHERE user_id = ? AND phase_id = ? AND submitted_at >= ?
	`, userID, phaseID, formatTime(since)).Scan(&count)
	return count, err
}

func (s *SQLiteStore) OldestSubmissionSince(ctx context.Context, userID, phaseID string, since time.Time) (time.Time, error) {
	var submittedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT submitted_at FROM user_submissions
		WHERE user_id = ? AND phase_id = ? AND submitted_at >= ?
		ORDER BY submitted_at ASC
		LIMIT 1
	`, userID, phaseID, formatTime(since)).Scan(&submittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return parseTime(submittedAt), nil
}

// RecordSubmission writes the submission and, for a correct guess, races the
// history insert. ON CONFLICT DO NOTHING on histories.phase_id means that
// under concurrent correct submissions exactly one insert lands; the others
// commit their submission rows and report firstCorrect=false. The winning
// transaction also stamps the phase solved so the three writes are atomic.
func (s *SQLiteStore) RecordSubmission(ctx context.Context, sub Submission, winner *History) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	ts := formatTime(sub.SubmittedAt)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_submissions (id, user_id, phase_id, lat, lng, distance, is_correct, submitted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sub.ID, sub.UserID, sub.PhaseID, sub.Lat, sub.Lng, sub.Distance, boolToInt(sub.IsCorrect), ts); err != nil {
		return false, fmt.Errorf("saving submission: %w", err)
	}

	firstCorrect := false
	if winner != nil {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO histories (id, phase_id, winner_id, winner_name, submitted_lat, submitted_lng, solved_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (phase_id) DO NOTHING
		`, winner.ID, winner.PhaseID, winner.WinnerID, winner.WinnerName, winner.SubmittedLat, winner.SubmittedLng, formatTime(winner.SolvedAt))
		if err != nil {
			return false, fmt.Errorf("saving history: %w", err)
		}
		n, _ := result.RowsAffected()
		firstCorrect = n > 0

		if firstCorrect {
			if _, err := tx.ExecContext(ctx, `
				UPDATE phases SET status = 'solved', solved_at = ?, updated_at = ?
				WHERE id = ?
			`, formatTime(winner.SolvedAt), ts, winner.PhaseID); err != nil {
				return false, fmt.Errorf("solving phase: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return firstCorrect, nil
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context, limit int) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, phase_id, lat, lng, distance, is_correct, submitted_at
		FROM user_submissions
		ORDER BY submitted_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func (s *SQLiteStore) ListSubmissionsByUser(ctx context.Context, userID string) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, phase_id, lat, lng, distance, is_correct, submitted_at
		FROM user_submissions
		WHERE user_id = ?
		ORDER BY submitted_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSubmissions(rows)
}

func scanSubmissions(rows *sql.Rows) ([]Submission, error) {
	var subs []Submission
	for rows.Next() {
		var sub Submission
		var isCorrect int
		var submittedAt string
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.PhaseID, &sub.Lat, &sub.Lng, &sub.Distance, &isCorrect, &submittedAt); err != nil {
			return nil, err
		}
		sub.IsCorrect = isCorrect != 0
		sub.SubmittedAt = parseTime(submittedAt)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *SQLiteStore) ListHistories(ctx context.Context) ([]History, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, phase_id, winner_id, winner_name, submitted_lat, submitted_lng, solved_at
		FROM histories
		ORDER BY solved_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var histories []History
	for rows.Next() {
		var h History
		var solvedAt string
		if err := rows.Scan(&h.ID, &h.PhaseID, &h.WinnerID, &h.WinnerName, &h.SubmittedLat, &h.SubmittedLng, &solvedAt); err != nil {
			return nil, err
		}
		h.SolvedAt = parseTime(solvedAt)
		histories = append(histories, h)
	}
	return histories, rows.Err()
}

func (s *SQLiteStore) GetHistoryByPhase(ctx context.Context, phaseID string) (History, error) {
	var h History
	var solvedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, phase_id, winner_id, winner_name, submitted_lat, submitted_lng, solved_at
		FROM histories
		WHERE phase_id = ?
	`, phaseID).Scan(&h.ID, &h.PhaseID, &h.WinnerID, &h.WinnerName, &h.SubmittedLat, &h.SubmittedLng, &solvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return History{}, ErrNotFound
	}
	if err != nil {
		return History{}, err
	}
	h.SolvedAt = parseTime(solvedAt)
	return h, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, nickname, password_hash, role)
		VALUES (?, ?, ?, NULLIF(?, ''), ?)
	`, u.ID, u.Email, u.Nickname, u.PasswordHash, u.Role)
	return err
}

const userColumns = `id, email, nickname, COALESCE(password_hash, ''), role, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	var createdAt string
	err := row.Scan(&u.ID, &u.Email, &u.Nickname, &u.PasswordHash, &u.Role, &createdAt)
	if err != nil {
		return User{}, err
	}
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

func (s *SQLiteStore) UserByID(ctx context.Context, id string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *SQLiteStore) UpdateNickname(ctx context.Context, userID, nickname string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET nickname = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?
	`, nickname, userID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) UserStats(ctx context.Context, userID string) (UserStats, error) {
	var stats UserStats
	var best sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(is_correct), 0),
			MIN(distance)
		FROM user_submissions
		WHERE user_id = ?
	`, userID).Scan(&stats.TotalSubmissions, &stats.CorrectCount, &best)
	if err != nil {
		return UserStats{}, err
	}
	if best.Valid {
		stats.BestDistance = &best.Float64
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM histories WHERE winner_id = ?
	`, userID).Scan(&stats.Wins)
	return stats, err
}

func (s *SQLiteStore) CreateAuthProvider(ctx context.Context, id, userID, provider, providerUserID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_auth_providers (id, user_id, provider, provider_user_id)
		VALUES (?, ?, ?, ?)
	`, id, userID, provider, providerUserID)
	return err
}

func (s *SQLiteStore) UserByProvider(ctx context.Context, provider, providerUserID string) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.nickname, COALESCE(u.password_hash, ''), u.role, u.created_at
		FROM user_auth_providers ap
		JOIN users u ON u.id = ap.user_id
		WHERE ap.provider = ? AND ap.provider_user_id = ?
	`, provider, providerUserID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
