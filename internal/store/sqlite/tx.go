package sqlite

import (
	"database/sql"
	"time"

	"tock/internal/domain/task"
)

// sqliteTx adapts one *sql.Tx to the domain Tx port. All driver errors are
// wrapped as StoreFault; "row not found" for tasks surfaces as the
// NoSuchTask user fault since every caller treats it that way.
type sqliteTx struct {
	tx *sql.Tx
}

const taskColumns = `id, description, project, tags, due_ns, scheduled_ns,
	wait_ns, allocation_secs, lifecycle, queue_pos, created_ns, updated_ns`

func nsOf(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func timeOf(ns sql.NullInt64) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := time.Unix(0, ns.Int64)
	return &t
}

func posOf(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func (x *sqliteTx) CreateTask(t *task.Task) (int64, error) {
	res, err := x.tx.Exec(`
		INSERT INTO tasks (description, project, tags, due_ns, scheduled_ns,
			wait_ns, allocation_secs, lifecycle, queue_pos, created_ns, updated_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Description, t.Project, t.TagString(),
		nsOf(t.Due), nsOf(t.Scheduled), nsOf(t.Wait),
		int64(t.Allocation.Seconds()), string(t.Lifecycle), posOf(t.QueuePosition),
		t.CreatedAt.UnixNano(), t.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return 0, task.WrapStore("insert task", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, task.WrapStore("task id", err)
	}
	t.ID = id
	return id, nil
}

func scanTask(row interface{ Scan(...any) error }) (*task.Task, error) {
	var (
		t                    task.Task
		tags, lifecycle      string
		due, scheduled, wait sql.NullInt64
		allocSecs, created   int64
		updated              int64
		pos                  sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.Description, &t.Project, &tags, &due, &scheduled,
		&wait, &allocSecs, &lifecycle, &pos, &created, &updated)
	if err != nil {
		return nil, err
	}
	t.Tags = task.ParseTags(tags)
	t.Due, t.Scheduled, t.Wait = timeOf(due), timeOf(scheduled), timeOf(wait)
	t.Allocation = time.Duration(allocSecs) * time.Second
	t.Lifecycle = task.Lifecycle(lifecycle)
	if pos.Valid {
		p := int(pos.Int64)
		t.QueuePosition = &p
	}
	t.CreatedAt = time.Unix(0, created)
	t.UpdatedAt = time.Unix(0, updated)
	return &t, nil
}

func (x *sqliteTx) Task(id int64) (*task.Task, error) {
	row := x.tx.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, task.NewFault(task.FaultNoSuchTask, "no task with id %d", id)
	}
	if err != nil {
		return nil, task.WrapStore("select task", err)
	}
	return t, nil
}

func (x *sqliteTx) Tasks() ([]*task.Task, error) {
	return x.queryTasks(`SELECT ` + taskColumns + ` FROM tasks ORDER BY id`)
}

func (x *sqliteTx) Queued() ([]*task.Task, error) {
	return x.queryTasks(`SELECT ` + taskColumns + ` FROM tasks
		WHERE queue_pos IS NOT NULL ORDER BY queue_pos`)
}

func (x *sqliteTx) queryTasks(query string, args ...any) ([]*task.Task, error) {
	rows, err := x.tx.Query(query, args...)
	if err != nil {
		return nil, task.WrapStore("select tasks", err)
	}
	defer rows.Close()

	var out []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, task.WrapStore("scan task", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, task.WrapStore("iterate tasks", err)
	}
	return out, nil
}

func (x *sqliteTx) UpdateTask(t *task.Task) error {
	t.UpdatedAt = time.Now()
	res, err := x.tx.Exec(`
		UPDATE tasks SET description = ?, project = ?, tags = ?, due_ns = ?,
			scheduled_ns = ?, wait_ns = ?, allocation_secs = ?, lifecycle = ?,
			queue_pos = ?, updated_ns = ?
		WHERE id = ?`,
		t.Description, t.Project, t.TagString(),
		nsOf(t.Due), nsOf(t.Scheduled), nsOf(t.Wait),
		int64(t.Allocation.Seconds()), string(t.Lifecycle), posOf(t.QueuePosition),
		t.UpdatedAt.UnixNano(), t.ID,
	)
	if err != nil {
		return task.WrapStore("update task", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return task.WrapStore("update task", err)
	}
	if n == 0 {
		return task.NewFault(task.FaultNoSuchTask, "no task with id %d", t.ID)
	}
	return nil
}

func (x *sqliteTx) SetQueuePosition(id int64, pos *int) error {
	res, err := x.tx.Exec(`UPDATE tasks SET queue_pos = ?, updated_ns = ? WHERE id = ?`,
		posOf(pos), time.Now().UnixNano(), id)
	if err != nil {
		return task.WrapStore("set queue position", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return task.WrapStore("set queue position", err)
	}
	if n == 0 {
		return task.NewFault(task.FaultNoSuchTask, "no task with id %d", id)
	}
	return nil
}

func (x *sqliteTx) CreateSession(s *task.Session) (int64, error) {
	res, err := x.tx.Exec(`INSERT INTO sessions (task_id, start_ns, end_ns) VALUES (?, ?, ?)`,
		s.TaskID, s.Start.UnixNano(), nsOf(s.End))
	if err != nil {
		return 0, task.WrapStore("insert session", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, task.WrapStore("session id", err)
	}
	s.ID = id
	return id, nil
}

func scanSession(row interface{ Scan(...any) error }) (*task.Session, error) {
	var (
		s     task.Session
		start int64
		end   sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.TaskID, &start, &end); err != nil {
		return nil, err
	}
	s.Start = time.Unix(0, start)
	s.End = timeOf(end)
	return &s, nil
}

func (x *sqliteTx) Session(id int64) (*task.Session, error) {
	row := x.tx.QueryRow(`SELECT id, task_id, start_ns, end_ns FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, task.NewFault(task.FaultNoSuchTask, "no session with id %d", id)
	}
	if err != nil {
		return nil, task.WrapStore("select session", err)
	}
	return s, nil
}

func (x *sqliteTx) Sessions(taskID int64) ([]*task.Session, error) {
	return x.querySessions(`SELECT id, task_id, start_ns, end_ns FROM sessions
		WHERE task_id = ? ORDER BY start_ns`, taskID)
}

func (x *sqliteTx) OpenSessions() ([]*task.Session, error) {
	return x.querySessions(`SELECT id, task_id, start_ns, end_ns FROM sessions
		WHERE end_ns IS NULL ORDER BY start_ns`)
}

func (x *sqliteTx) LatestClosedSession() (*task.Session, error) {
	row := x.tx.QueryRow(`SELECT id, task_id, start_ns, end_ns FROM sessions
		WHERE end_ns IS NOT NULL ORDER BY end_ns DESC LIMIT 1`)
	s, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, task.WrapStore("select latest closed session", err)
	}
	return s, nil
}

func (x *sqliteTx) SessionsOverlapping(start, end time.Time) ([]*task.Session, error) {
	return x.querySessions(`SELECT id, task_id, start_ns, end_ns FROM sessions
		WHERE end_ns IS NOT NULL AND start_ns < ? AND end_ns > ?
		ORDER BY start_ns`, end.UnixNano(), start.UnixNano())
}

func (x *sqliteTx) querySessions(query string, args ...any) ([]*task.Session, error) {
	rows, err := x.tx.Query(query, args...)
	if err != nil {
		return nil, task.WrapStore("select sessions", err)
	}
	defer rows.Close()

	var out []*task.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, task.WrapStore("scan session", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, task.WrapStore("iterate sessions", err)
	}
	return out, nil
}

func (x *sqliteTx) UpdateSession(s *task.Session) error {
	if _, err := x.tx.Exec(`UPDATE sessions SET task_id = ?, start_ns = ?, end_ns = ? WHERE id = ?`,
		s.TaskID, s.Start.UnixNano(), nsOf(s.End), s.ID); err != nil {
		return task.WrapStore("update session", err)
	}
	return nil
}

func (x *sqliteTx) DeleteSession(id int64) error {
	if _, err := x.tx.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return task.WrapStore("delete session", err)
	}
	return nil
}

func (x *sqliteTx) HasSessions(taskID int64) (bool, error) {
	var n int
	err := x.tx.QueryRow(`SELECT COUNT(1) FROM sessions WHERE task_id = ?`, taskID).Scan(&n)
	if err != nil {
		return false, task.WrapStore("count sessions", err)
	}
	return n > 0, nil
}

func (x *sqliteTx) Waiting(taskID int64) (*task.Handoff, error) {
	var (
		h      task.Handoff
		sentNs int64
	)
	err := x.tx.QueryRow(`SELECT task_id, recipient, note, sent_ns FROM external
		WHERE task_id = ?`, taskID).Scan(&h.TaskID, &h.Recipient, &h.Note, &sentNs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, task.WrapStore("select handoff", err)
	}
	h.SentAt = time.Unix(0, sentNs)
	return &h, nil
}

func (x *sqliteTx) WaitingAll() ([]*task.Handoff, error) {
	rows, err := x.tx.Query(`SELECT task_id, recipient, note, sent_ns FROM external
		ORDER BY task_id`)
	if err != nil {
		return nil, task.WrapStore("select handoffs", err)
	}
	defer rows.Close()

	var out []*task.Handoff
	for rows.Next() {
		var (
			h      task.Handoff
			sentNs int64
		)
		if err := rows.Scan(&h.TaskID, &h.Recipient, &h.Note, &sentNs); err != nil {
			return nil, task.WrapStore("scan handoff", err)
		}
		h.SentAt = time.Unix(0, sentNs)
		out = append(out, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, task.WrapStore("iterate handoffs", err)
	}
	return out, nil
}

func (x *sqliteTx) CreateWaiting(h *task.Handoff) error {
	if _, err := x.tx.Exec(`INSERT INTO external (task_id, recipient, note, sent_ns)
		VALUES (?, ?, ?, ?)`,
		h.TaskID, h.Recipient, h.Note, h.SentAt.UnixNano()); err != nil {
		return task.WrapStore("insert handoff", err)
	}
	return nil
}

func (x *sqliteTx) DeleteWaiting(taskID int64) error {
	if _, err := x.tx.Exec(`DELETE FROM external WHERE task_id = ?`, taskID); err != nil {
		return task.WrapStore("delete handoff", err)
	}
	return nil
}

func (x *sqliteTx) AddAnnotation(a *task.Annotation) error {
	var sessionID sql.NullInt64
	if a.SessionID != nil {
		sessionID = sql.NullInt64{Int64: *a.SessionID, Valid: true}
	}
	res, err := x.tx.Exec(`INSERT INTO annotations (task_id, session_id, at_ns, body)
		VALUES (?, ?, ?, ?)`,
		a.TaskID, sessionID, a.At.UnixNano(), a.Body)
	if err != nil {
		return task.WrapStore("insert annotation", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return task.WrapStore("annotation id", err)
	}
	a.ID = id
	return nil
}

func (x *sqliteTx) DetachAnnotations(sessionID int64) error {
	if _, err := x.tx.Exec(`UPDATE annotations SET session_id = NULL WHERE session_id = ?`,
		sessionID); err != nil {
		return task.WrapStore("detach annotations", err)
	}
	return nil
}

func (x *sqliteTx) ReassignAnnotations(fromSessionID, toSessionID int64) error {
	if _, err := x.tx.Exec(`UPDATE annotations SET session_id = ? WHERE session_id = ?`,
		toSessionID, fromSessionID); err != nil {
		return task.WrapStore("reassign annotations", err)
	}
	return nil
}

func (x *sqliteTx) Annotations(taskID int64) ([]*task.Annotation, error) {
	rows, err := x.tx.Query(`SELECT id, task_id, session_id, at_ns, body FROM annotations
		WHERE task_id = ? ORDER BY at_ns`, taskID)
	if err != nil {
		return nil, task.WrapStore("select annotations", err)
	}
	defer rows.Close()

	var out []*task.Annotation
	for rows.Next() {
		var (
			a         task.Annotation
			sessionID sql.NullInt64
			atNs      int64
		)
		if err := rows.Scan(&a.ID, &a.TaskID, &sessionID, &atNs, &a.Body); err != nil {
			return nil, task.WrapStore("scan annotation", err)
		}
		if sessionID.Valid {
			id := sessionID.Int64
			a.SessionID = &id
		}
		a.At = time.Unix(0, atNs)
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, task.WrapStore("iterate annotations", err)
	}
	return out, nil
}
