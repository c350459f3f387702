package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/contravault/internal/model"
)

// sqliteTimeLayout is fixed width so that text comparison matches time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const taskColumns = `id, user_id, title, description, deadline, priority, status, is_deleted, deleted_at,
	created_at, updated_at, tags, project_id, workspace_id, parent_task_id, subtasks, dependencies,
	estimated_minutes, spent_minutes, context, location, recurrence, comments, attachments,
	snoozed_until, archived_at, completed_at`

type SQLiteRepository struct {
	db *sql.DB
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// OpenSQLiteDB opens the database at path without touching its schema.
func OpenSQLiteDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

// OpenSQLite opens the database at path and applies pending migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := OpenSQLiteDB(path)
	if err != nil {
		return nil, err
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) DB() *sql.DB {
	return r.db
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) InsertTask(ctx context.Context, in Task) error {
	args, err := taskArgs(in)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	return err
}

func (r *SQLiteRepository) FindTask(ctx context.Context, filter TaskFilter) (Task, error) {
	return findOneTask(ctx, r.db, filter)
}

func (r *SQLiteRepository) FindTasks(ctx context.Context, filter TaskFilter) ([]Task, error) {
	where, args := buildTaskWhere(filter)
	query := `SELECT ` + taskColumns + ` FROM tasks` + where + ` ORDER BY deadline ASC, id ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	return queryTasks(ctx, r.db, query, args...)
}

func (r *SQLiteRepository) FindOneAndUpdateTask(ctx context.Context, filter TaskFilter, patch TaskPatch) (Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Task{}, err
	}
	defer func() { _ = tx.Rollback() }()

	task, err := findOneTask(ctx, tx, filter)
	if err != nil {
		return Task{}, err
	}
	patch.Apply(&task)
	if err := writeTask(ctx, tx, task); err != nil {
		return Task{}, err
	}
	if err := tx.Commit(); err != nil {
		return Task{}, err
	}
	return task, nil
}

// UpdateTasks patches every match inside one transaction.
func (r *SQLiteRepository) UpdateTasks(ctx context.Context, filter TaskFilter, patch TaskPatch) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	where, args := buildTaskWhere(filter)
	matched, err := queryTasks(ctx, tx, `SELECT `+taskColumns+` FROM tasks`+where, args...)
	if err != nil {
		return 0, err
	}
	var modified int64
	for _, task := range matched {
		patch.Apply(&task)
		if err := writeTask(ctx, tx, task); err != nil {
			return 0, err
		}
		modified++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return modified, nil
}

func (r *SQLiteRepository) GetStats(ctx context.Context, userID string) (UserStats, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, current_streak, longest_streak, total_completed, total_created, last_activity_date, updated_at
		FROM user_stats WHERE user_id = ?`, userID)
	var out UserStats
	var updated string
	if err := row.Scan(&out.UserID, &out.CurrentStreak, &out.LongestStreak, &out.TotalTasksCompleted, &out.TotalTasksCreated, &out.LastActivityDate, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UserStats{}, ErrNotFound
		}
		return UserStats{}, err
	}
	updatedAt, err := parseRequiredTime(updated)
	if err != nil {
		return UserStats{}, err
	}
	out.UpdatedAt = updatedAt

	rows, err := r.db.QueryContext(ctx, `
		SELECT type, value, unlocked_at FROM achievements
		WHERE user_id = ? ORDER BY unlocked_at ASC, type ASC, value ASC`, userID)
	if err != nil {
		return UserStats{}, err
	}
	defer rows.Close()

	out.Achievements = make([]Achievement, 0)
	for rows.Next() {
		var a Achievement
		var unlocked string
		if err := rows.Scan(&a.Type, &a.Value, &unlocked); err != nil {
			return UserStats{}, err
		}
		if a.UnlockedAt, err = parseRequiredTime(unlocked); err != nil {
			return UserStats{}, err
		}
		out.Achievements = append(out.Achievements, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) InsertStats(ctx context.Context, in UserStats) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_stats (user_id, current_streak, longest_streak, total_completed, total_created, last_activity_date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.UserID, in.CurrentStreak, in.LongestStreak, in.TotalTasksCompleted, in.TotalTasksCreated, in.LastActivityDate, mustTime(in.UpdatedAt),
	); err != nil {
		return err
	}
	if err := insertAchievements(ctx, tx, in.UserID, in.Achievements); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateStats overwrites the counters and adds achievements not yet stored.
// An achievement already present for (user, type, value) is kept as is.
func (r *SQLiteRepository) UpdateStats(ctx context.Context, in UserStats) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		UPDATE user_stats
		SET current_streak = ?, longest_streak = ?, total_completed = ?, total_created = ?, last_activity_date = ?, updated_at = ?
		WHERE user_id = ?`,
		in.CurrentStreak, in.LongestStreak, in.TotalTasksCompleted, in.TotalTasksCreated, in.LastActivityDate, mustTime(in.UpdatedAt), in.UserID,
	)
	if err != nil {
		return err
	}
	if err := checkRowsAffected(res); err != nil {
		return err
	}
	if err := insertAchievements(ctx, tx, in.UserID, in.Achievements); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepository) UpsertUser(ctx context.Context, in User) (User, error) {
	theme := in.Theme
	if theme == "" {
		theme = "auto"
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, image, theme, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE users.name END,
			image = CASE WHEN excluded.image <> '' THEN excluded.image ELSE users.image END`,
		in.ID, in.Email, in.Name, in.Image, theme, mustTime(in.CreatedAt),
	)
	if err != nil {
		return User{}, err
	}
	row := r.db.QueryRowContext(ctx, `SELECT id, email, name, image, theme, created_at FROM users WHERE email = ?`, in.Email)
	return scanUser(row)
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, email, name, image, theme, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func findOneTask(ctx context.Context, q queryer, filter TaskFilter) (Task, error) {
	if !filter.single() {
		return Task{}, ErrNotFound
	}
	where, args := buildTaskWhere(filter)
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks`+where+` ORDER BY deadline ASC, id ASC LIMIT 1`, args...)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, err
	}
	return task, nil
}

func queryTasks(ctx context.Context, q queryer, query string, args ...any) ([]Task, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func writeTask(ctx context.Context, q queryer, in Task) error {
	args, err := taskArgs(in)
	if err != nil {
		return err
	}
	// taskArgs starts with id; the UPDATE takes it last.
	res, err := q.ExecContext(ctx, `
		UPDATE tasks
		SET user_id = ?, title = ?, description = ?, deadline = ?, priority = ?, status = ?, is_deleted = ?, deleted_at = ?,
			created_at = ?, updated_at = ?, tags = ?, project_id = ?, workspace_id = ?, parent_task_id = ?, subtasks = ?,
			dependencies = ?, estimated_minutes = ?, spent_minutes = ?, context = ?, location = ?, recurrence = ?,
			comments = ?, attachments = ?, snoozed_until = ?, archived_at = ?, completed_at = ?
		WHERE id = ?`,
		append(args[1:], args[0])...,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func insertAchievements(ctx context.Context, q queryer, userID string, list []Achievement) error {
	for _, a := range list {
		if _, err := q.ExecContext(ctx, `
			INSERT OR IGNORE INTO achievements (user_id, type, value, unlocked_at)
			VALUES (?, ?, ?, ?)`,
			userID, a.Type, a.Value, mustTime(a.UnlockedAt),
		); err != nil {
			return err
		}
	}
	return nil
}

func buildTaskWhere(f TaskFilter) (string, []any) {
	clauses := make([]string, 0, 8)
	args := make([]any, 0, 8)
	eq := func(column, value string) {
		if value != "" {
			clauses = append(clauses, column+" = ?")
			args = append(args, value)
		}
	}
	in := func(expr string, values []string) {
		clauses = append(clauses, expr+" IN ("+placeholders(len(values))+")")
		for _, v := range values {
			args = append(args, v)
		}
	}

	eq("id", f.ID)
	eq("user_id", f.UserID)
	eq("parent_task_id", f.ParentTaskID)
	eq("project_id", f.ProjectID)
	eq("workspace_id", f.WorkspaceID)
	eq("context", f.Context)
	if f.IDs != nil {
		if len(f.IDs) == 0 {
			clauses = append(clauses, "0 = 1")
		} else {
			in("id", f.IDs)
		}
	}
	if f.ExcludeID != "" {
		clauses = append(clauses, "id <> ?")
		args = append(args, f.ExcludeID)
	}
	if f.ActiveOnly {
		clauses = append(clauses, "is_deleted = 0")
	}
	if len(f.Statuses) > 0 {
		in("status", f.Statuses)
	}
	if len(f.Priorities) > 0 {
		in("priority", f.Priorities)
	}
	if len(f.Tags) > 0 {
		clauses = append(clauses, "EXISTS (SELECT 1 FROM json_each(tasks.tags) WHERE json_each.value IN ("+placeholders(len(f.Tags))+"))")
		for _, tag := range f.Tags {
			args = append(args, tag)
		}
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
		clauses = append(clauses, `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if f.DeadlineFrom != nil {
		clauses = append(clauses, "deadline >= ?")
		args = append(args, mustTime(*f.DeadlineFrom))
	}
	if f.DeadlineBefore != nil {
		clauses = append(clauses, "deadline < ?")
		args = append(args, mustTime(*f.DeadlineBefore))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func taskArgs(in Task) ([]any, error) {
	tags, err := encodeJSON(nonNil(in.Tags))
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	subtasks, err := encodeJSON(nonNil(in.Subtasks))
	if err != nil {
		return nil, fmt.Errorf("encode subtasks: %w", err)
	}
	deps, err := encodeJSON(nonNil(in.Dependencies))
	if err != nil {
		return nil, fmt.Errorf("encode dependencies: %w", err)
	}
	comments, err := encodeJSON(nonNil(in.Comments))
	if err != nil {
		return nil, fmt.Errorf("encode comments: %w", err)
	}
	attachments, err := encodeJSON(nonNil(in.Attachments))
	if err != nil {
		return nil, fmt.Errorf("encode attachments: %w", err)
	}
	var recurrence any
	if in.Recurrence != nil {
		raw, err := encodeJSON(in.Recurrence)
		if err != nil {
			return nil, fmt.Errorf("encode recurrence: %w", err)
		}
		recurrence = raw
	}
	return []any{
		in.ID, in.UserID, in.Title, in.Description, mustTime(in.Deadline), in.Priority, in.Status, boolInt(in.IsDeleted), nullTime(in.DeletedAt),
		mustTime(in.CreatedAt), mustTime(in.UpdatedAt), tags, in.ProjectID, in.WorkspaceID, in.ParentTaskID, subtasks, deps,
		in.EstimatedMinutes, in.SpentMinutes, in.Context, in.Location, recurrence, comments, attachments,
		nullTime(in.SnoozedUntil), nullTime(in.ArchivedAt), nullTime(in.CompletedAt),
	}, nil
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func encodeJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (Task, error) {
	var out Task
	var deadline, created, updated string
	var deleted, snoozed, archived, completed, recurrence sql.NullString
	var isDeleted int
	var tags, subtasks, deps, comments, attachments string
	if err := s.Scan(
		&out.ID, &out.UserID, &out.Title, &out.Description, &deadline, &out.Priority, &out.Status, &isDeleted, &deleted,
		&created, &updated, &tags, &out.ProjectID, &out.WorkspaceID, &out.ParentTaskID, &subtasks, &deps,
		&out.EstimatedMinutes, &out.SpentMinutes, &out.Context, &out.Location, &recurrence, &comments, &attachments,
		&snoozed, &archived, &completed,
	); err != nil {
		return Task{}, err
	}
	out.IsDeleted = isDeleted == 1

	var err error
	if out.Deadline, err = parseRequiredTime(deadline); err != nil {
		return Task{}, err
	}
	if out.CreatedAt, err = parseRequiredTime(created); err != nil {
		return Task{}, err
	}
	if out.UpdatedAt, err = parseRequiredTime(updated); err != nil {
		return Task{}, err
	}
	if out.DeletedAt, err = parseNullableTime(deleted); err != nil {
		return Task{}, err
	}
	if out.SnoozedUntil, err = parseNullableTime(snoozed); err != nil {
		return Task{}, err
	}
	if out.ArchivedAt, err = parseNullableTime(archived); err != nil {
		return Task{}, err
	}
	if out.CompletedAt, err = parseNullableTime(completed); err != nil {
		return Task{}, err
	}

	decode := []struct {
		raw  string
		dest any
	}{
		{tags, &out.Tags},
		{subtasks, &out.Subtasks},
		{deps, &out.Dependencies},
		{comments, &out.Comments},
		{attachments, &out.Attachments},
	}
	for _, d := range decode {
		if err := json.Unmarshal([]byte(d.raw), d.dest); err != nil {
			return Task{}, fmt.Errorf("decode task %s: %w", out.ID, err)
		}
	}
	if recurrence.Valid && recurrence.String != "" {
		var rule model.Recurrence
		if err := json.Unmarshal([]byte(recurrence.String), &rule); err != nil {
			return Task{}, fmt.Errorf("decode task %s recurrence: %w", out.ID, err)
		}
		out.Recurrence = &rule
	}
	return out, nil
}

func scanUser(s scanner) (User, error) {
	var out User
	var created string
	if err := s.Scan(&out.ID, &out.Email, &out.Name, &out.Image, &out.Theme, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return User{}, err
	}
	out.CreatedAt = createdAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
