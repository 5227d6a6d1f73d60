// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/tuidict/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

var (
	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("record not found")
	// ErrAmbiguous is returned when an id prefix matches several records.
	ErrAmbiguous = errors.New("id prefix matches more than one record")
)

// Store wraps SQLite access for practice data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS videos (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			video_path TEXT NOT NULL,
			subtitle_path TEXT NOT NULL,
			subtitle_text TEXT NOT NULL,
			total_lines INTEGER NOT NULL,
			line_index INTEGER NOT NULL DEFAULT 0,
			section_index INTEGER NOT NULL DEFAULT 0,
			completion_rate REAL NOT NULL DEFAULT 0,
			learning_mode TEXT NOT NULL,
			reveal_playback TEXT NOT NULL,
			date_added TEXT NOT NULL,
			last_practiced TEXT NOT NULL,
			practice_seconds INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS saved_lines (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL UNIQUE,
			video_id TEXT NOT NULL,
			line_id INTEGER NOT NULL,
			video_name TEXT NOT NULL,
			time_display TEXT NOT NULL,
			date_saved TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY,
			video_id TEXT NOT NULL,
			line_id INTEGER NOT NULL,
			correct_words INTEGER NOT NULL,
			total_words INTEGER NOT NULL,
			at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_videos_paths ON videos(video_path, subtitle_path);`,
		`CREATE INDEX IF NOT EXISTS idx_videos_last_practiced ON videos(last_practiced);`,
		`CREATE INDEX IF NOT EXISTS idx_saved_lines_video ON saved_lines(video_id);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_video_at ON attempts(video_id, at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// timeLayout has fixed-width fractions so stored values sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

const videoColumns = `id, display_name, video_path, subtitle_path, subtitle_text, total_lines,
	line_index, section_index, completion_rate, learning_mode, reveal_playback,
	date_added, last_practiced, practice_seconds`

type scanner interface {
	Scan(dest ...any) error
}

func scanVideo(row scanner) (model.VideoRecord, error) {
	var rec model.VideoRecord
	var mode, playback, added, practiced string
	if err := row.Scan(&rec.ID, &rec.DisplayName, &rec.VideoPath, &rec.SubtitlePath, &rec.SubtitleText,
		&rec.TotalLines, &rec.Progress.LineIndex, &rec.Progress.SectionIndex, &rec.CompletionRate,
		&mode, &playback, &added, &practiced, &rec.PracticeSeconds); err != nil {
		return model.VideoRecord{}, err
	}
	rec.LearningMode = model.LearningMode(mode)
	rec.RevealPlayback = model.RevealPlayback(playback)
	var err error
	if rec.DateAdded, err = time.Parse(time.RFC3339Nano, added); err != nil {
		return model.VideoRecord{}, err
	}
	if rec.LastPracticed, err = time.Parse(time.RFC3339Nano, practiced); err != nil {
		return model.VideoRecord{}, err
	}
	return rec, nil
}

// UpsertVideo inserts a video record or replaces the stored one with the same id.
func (s *Store) UpsertVideo(ctx context.Context, rec model.VideoRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO videos (`+videoColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			video_path = excluded.video_path,
			subtitle_path = excluded.subtitle_path,
			subtitle_text = excluded.subtitle_text,
			total_lines = excluded.total_lines,
			line_index = excluded.line_index,
			section_index = excluded.section_index,
			completion_rate = excluded.completion_rate,
			learning_mode = excluded.learning_mode,
			reveal_playback = excluded.reveal_playback,
			last_practiced = excluded.last_practiced,
			practice_seconds = excluded.practice_seconds`,
		rec.ID,
		rec.DisplayName,
		rec.VideoPath,
		rec.SubtitlePath,
		rec.SubtitleText,
		rec.TotalLines,
		rec.Progress.LineIndex,
		rec.Progress.SectionIndex,
		rec.CompletionRate,
		string(rec.LearningMode),
		string(rec.RevealPlayback),
		formatTime(rec.DateAdded),
		formatTime(rec.LastPracticed),
		rec.PracticeSeconds,
	)
	return err
}

// GetVideo returns the record with the given id or unique id prefix.
func (s *Store) GetVideo(ctx context.Context, idOrPrefix string) (model.VideoRecord, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return model.VideoRecord{}, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE id = ? OR id LIKE ? ORDER BY id = ? DESC LIMIT 2`,
		idOrPrefix, idOrPrefix+"%", idOrPrefix)
	if err != nil {
		return model.VideoRecord{}, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var found []model.VideoRecord
	for rows.Next() {
		rec, err := scanVideo(rows)
		if err != nil {
			return model.VideoRecord{}, err
		}
		found = append(found, rec)
	}
	if err := rows.Err(); err != nil {
		return model.VideoRecord{}, err
	}
	switch {
	case len(found) == 0:
		return model.VideoRecord{}, ErrNotFound
	case found[0].ID == idOrPrefix || len(found) == 1:
		return found[0], nil
	default:
		return model.VideoRecord{}, ErrAmbiguous
	}
}

// FindVideoByPaths returns the record for a video/subtitle pair.
func (s *Store) FindVideoByPaths(ctx context.Context, videoPath, subtitlePath string) (model.VideoRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE video_path = ? AND subtitle_path = ?
		 ORDER BY last_practiced DESC LIMIT 1`, videoPath, subtitlePath)
	rec, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.VideoRecord{}, ErrNotFound
	}
	return rec, err
}

// ListVideos returns all records, most recently practiced first.
func (s *Store) ListVideos(ctx context.Context) ([]model.VideoRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos ORDER BY last_practiced DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.VideoRecord
	for rows.Next() {
		rec, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateProgress stores the resume point and adds practice time.
func (s *Store) UpdateProgress(ctx context.Context, id string, p model.Progress, completion float64, at time.Time, addSeconds int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE videos SET line_index = ?, section_index = ?, completion_rate = ?,
			last_practiced = ?, practice_seconds = practice_seconds + ?
		 WHERE id = ?`,
		p.LineIndex, p.SectionIndex, completion, formatTime(at), addSeconds, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteVideo removes a record and its attempts.
func (s *Store) DeleteVideo(ctx context.Context, id string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = ErrNotFound
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM attempts WHERE video_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveLine bookmarks a line. It reports false when the same text is
// already saved.
func (s *Store) SaveLine(ctx context.Context, line model.SavedLine) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO saved_lines (id, text, video_id, line_id, video_name, time_display, date_saved)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		line.ID, line.Text, line.VideoID, line.LineID, line.VideoName, line.TimeDisplay,
		formatTime(line.DateSaved))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListSavedLines returns saved lines, newest first. An empty videoID lists all.
func (s *Store) ListSavedLines(ctx context.Context, videoID string) ([]model.SavedLine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, video_id, line_id, video_name, time_display, date_saved
		 FROM saved_lines
		 WHERE (? = '' OR video_id = ?)
		 ORDER BY date_saved DESC`, videoID, videoID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.SavedLine
	for rows.Next() {
		var line model.SavedLine
		var saved string
		if err := rows.Scan(&line.ID, &line.Text, &line.VideoID, &line.LineID, &line.VideoName, &line.TimeDisplay, &saved); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, saved)
		if err != nil {
			return nil, err
		}
		line.DateSaved = parsed
		result = append(result, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteSavedLine removes a bookmark by id.
func (s *Store) DeleteSavedLine(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_lines WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertAttempts stores dictation results in one transaction.
func (s *Store) InsertAttempts(ctx context.Context, attempts []model.Attempt) (err error) {
	if len(attempts) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO attempts (video_id, line_id, correct_words, total_words, at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, a := range attempts {
		if _, err = stmt.ExecContext(ctx, a.VideoID, a.LineID, a.CorrectWords, a.TotalWords, formatTime(a.At)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListAttempts returns attempts in chronological order, optionally filtered
// by video and start time.
func (s *Store) ListAttempts(ctx context.Context, videoID string, since *time.Time) ([]model.Attempt, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if videoID != "" {
		clauses = append(clauses, "video_id = ?")
		args = append(args, videoID)
	}
	if since != nil {
		clauses = append(clauses, "at >= ?")
		args = append(args, formatTime(*since))
	}
	query := fmt.Sprintf(`SELECT video_id, line_id, correct_words, total_words, at
		FROM attempts
		WHERE %s
		ORDER BY at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Attempt
	for rows.Next() {
		var a model.Attempt
		var at string
		if err := rows.Scan(&a.VideoID, &a.LineID, &a.CorrectWords, &a.TotalWords, &at); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, err
		}
		a.At = parsed
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// VideoAggregates sums attempts per video, most recent first.
func (s *Store) VideoAggregates(ctx context.Context) ([]model.VideoAggregate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.video_id, COALESCE(v.display_name, ''), COUNT(*), SUM(a.correct_words), SUM(a.total_words), MAX(a.at)
		 FROM attempts a
		 LEFT JOIN videos v ON v.id = a.video_id
		 GROUP BY a.video_id
		 ORDER BY MAX(a.at) DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.VideoAggregate
	for rows.Next() {
		var agg model.VideoAggregate
		var last string
		if err := rows.Scan(&agg.VideoID, &agg.DisplayName, &agg.Attempts, &agg.CorrectWords, &agg.TotalWords, &last); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, last)
		if err != nil {
			return nil, err
		}
		agg.LastAt = parsed
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
