package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/modfin/brevq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
	"strings"
	"time"
)

// DAO is the queue store. It exclusively owns queued emails and the settings
// row, all other components work on snapshots it returns.
type DAO interface {
	Enqueue(ctx context.Context, email brevq.QueuedEmail) error
	// EnqueueBatch assigns a new batch id and positions 0..N-1 to emails, in
	// place, and inserts all of them or none.
	EnqueueBatch(ctx context.Context, emails []brevq.QueuedEmail) (batchID string, err error)

	Get(ctx context.Context, id string) (brevq.QueuedEmail, error)
	ListDue(ctx context.Context, now time.Time) ([]brevq.QueuedEmail, error)
	List(ctx context.Context, page, pageSize int) (emails []brevq.QueuedEmail, total int, err error)
	ListBatch(ctx context.Context, batchID string) ([]brevq.QueuedEmail, error)
	Earliest(ctx context.Context) (*brevq.QueuedEmail, error)

	Update(ctx context.Context, id string, patch Patch, now time.Time) (brevq.QueuedEmail, error)
	Cancel(ctx context.Context, id string, now time.Time) error

	// Claim hands back the claimed row, dispatch must work from it rather
	// than from the selected copy.
	Claim(ctx context.Context, selected brevq.QueuedEmail, now time.Time) (brevq.QueuedEmail, error)
	Complete(ctx context.Context, id string, attempts int, now time.Time) error
	Release(ctx context.Context, id string, status brevq.Status, attempts int, lastError string, now time.Time) error
	ReleaseStale(ctx context.Context, claimedBefore time.Time, now time.Time) ([]string, error)

	CountSentSince(ctx context.Context, since time.Time) (int, error)
	CountQueued(ctx context.Context) (int, error)
	Log(ctx context.Context, id string) ([]LogEntry, error)

	GetSettings(ctx context.Context) (brevq.Settings, error)
	UpdateSettings(ctx context.Context, update brevq.SettingsUpdate, now time.Time) (brevq.Settings, error)

	Close() error
}

const (
	DriverMattn   = "sqlite3"
	DriverModernc = "sqlite"
)

// NewSQLite opens the queue store. seed is written to the settings row only
// if it does not exist yet.
func NewSQLite(driver string, path string, seed brevq.Settings, log *logrus.Logger) (DAO, error) {
	if log == nil {
		log = logrus.New()
	}
	if driver == "" {
		driver = DriverMattn
	}
	if driver != DriverMattn && driver != DriverModernc {
		return nil, fmt.Errorf("unsupported sql driver %s", driver)
	}
	lite := &sqlite{driver: driver, path: path, log: log}
	err := lite.ensureSchema(seed)
	return lite, err
}

type sqlite struct {
	db     *sqlx.DB
	driver string
	path   string
	log    *logrus.Logger
}

func (s *sqlite) Enqueue(ctx context.Context, email brevq.QueuedEmail) (err error) {
	if _, err := brevq.ParseAddress(email.To); err != nil {
		return brevq.Invalid("to", "%v", err)
	}

	var tx *sqlx.Tx
	tx, err = s.getTX(ctx)
	if err != nil {
		return fmt.Errorf("failed to get transaction, err %v", err)
	}
	defer s.done(tx, &err)

	_, err = tx.NamedExecContext(ctx, insertEmail, normalize(email))
	if err != nil {
		return fmt.Errorf("failed to insert into email table, err %v", err)
	}
	return s.logTx(ctx, tx, email.ID.String(), email.CreatedAt, "enqueued, status %s, priority %s", email.Status, email.Priority)
}

func (s *sqlite) EnqueueBatch(ctx context.Context, emails []brevq.QueuedEmail) (batchID string, err error) {
	if len(emails) == 0 {
		return "", brevq.Invalid("recipients", "at least one recipient must be provided")
	}
	for i, e := range emails {
		if _, err := brevq.ParseAddress(e.To); err != nil {
			return "", brevq.Invalid(fmt.Sprintf("recipients[%d]", i), "%v", err)
		}
	}

	batchID = uuid.New().String()

	var tx *sqlx.Tx
	tx, err = s.getTX(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get transaction, err %v", err)
	}
	defer s.done(tx, &err)

	stmt, err := tx.PrepareNamedContext(ctx, insertEmail)
	if err != nil {
		return "", fmt.Errorf("failed to prepare statement, err %v", err)
	}
	defer stmt.Close()

	for i := range emails {
		pos := i
		emails[i].BatchID = &batchID
		emails[i].BatchPosition = &pos

		_, err = stmt.ExecContext(ctx, normalize(emails[i]))
		if err != nil {
			return "", fmt.Errorf("failed to insert batch member %d, err %v", i, err)
		}
		err = s.logTx(ctx, tx, emails[i].ID.String(), emails[i].CreatedAt, "enqueued as %d of batch %s", pos, batchID)
		if err != nil {
			return "", err
		}
	}
	return batchID, nil
}

func (s *sqlite) Get(ctx context.Context, id string) (brevq.QueuedEmail, error) {
	db, err := s.getDB()
	if err != nil {
		return brevq.QueuedEmail{}, err
	}
	return getEmail(ctx, db, id)
}

func (s *sqlite) ListDue(ctx context.Context, now time.Time) ([]brevq.QueuedEmail, error) {
	q := `
		SELECT *
		FROM email
		WHERE status IN ('pending', 'scheduled')
		  AND (scheduled_for IS NULL OR scheduled_for <= ?)
		ORDER BY created_at
	`
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	var emails []brevq.QueuedEmail
	err = db.SelectContext(ctx, &emails, q, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("could not list due emails, %w", err)
	}
	return emails, nil
}

func (s *sqlite) List(ctx context.Context, page, pageSize int) ([]brevq.QueuedEmail, int, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, 0, err
	}
	var total int
	err = db.GetContext(ctx, &total, `SELECT COUNT(*) FROM email`)
	if err != nil {
		return nil, 0, fmt.Errorf("could not count emails, %w", err)
	}

	q := `
		SELECT *
		FROM email
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	emails := []brevq.QueuedEmail{}
	err = db.SelectContext(ctx, &emails, q, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("could not list emails, %w", err)
	}
	return emails, total, nil
}

func (s *sqlite) ListBatch(ctx context.Context, batchID string) ([]brevq.QueuedEmail, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	var emails []brevq.QueuedEmail
	err = db.SelectContext(ctx, &emails, `SELECT * FROM email WHERE batch_id = ? ORDER BY batch_position`, batchID)
	if err != nil {
		return nil, fmt.Errorf("could not list batch %s, %w", batchID, err)
	}
	if len(emails) == 0 {
		return nil, fmt.Errorf("batch %s, %w", batchID, brevq.ErrNotFound)
	}
	return emails, nil
}

// Earliest returns the queued record that becomes due first, or nil.
func (s *sqlite) Earliest(ctx context.Context) (*brevq.QueuedEmail, error) {
	q := `
		SELECT *
		FROM email
		WHERE status IN ('pending', 'scheduled')
		ORDER BY COALESCE(scheduled_for, created_at)
		LIMIT 1
	`
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	var email brevq.QueuedEmail
	err = db.GetContext(ctx, &email, q)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not get earliest email, %w", err)
	}
	return &email, nil
}

func (s *sqlite) Update(ctx context.Context, id string, patch Patch, now time.Time) (email brevq.QueuedEmail, err error) {
	now = now.UTC()

	var tx *sqlx.Tx
	tx, err = s.getTX(ctx)
	if err != nil {
		return email, err
	}
	defer s.done(tx, &err)

	email, err = getEmail(ctx, tx, id)
	if err != nil {
		return email, err
	}
	if err = email.Editable(now); err != nil {
		return email, err
	}

	prior := email.Status
	patch.apply(&email, now)
	if email.ScheduledFor != nil && email.ScheduledFor.Before(email.CreatedAt) {
		return email, brevq.Invalid("scheduledFor", "can not be before the record was created, %s", email.CreatedAt.Format(time.RFC3339))
	}
	email.UpdatedAt = now

	q := `
		UPDATE email
		SET subject = ?, html = ?, priority = ?, status = ?, scheduled_for = ?,
		    blacklist_rules = ?, editable_until = ?, updated_at = ?
		WHERE id = ?
		  AND status = ?
	`
	res, err := tx.ExecContext(ctx, q,
		email.Subject, email.HTML, email.Priority, email.Status, email.ScheduledFor,
		email.BlacklistRules, email.EditableUntil, email.UpdatedAt,
		id, prior)
	if err != nil {
		return email, fmt.Errorf("could not update email %s, %w", id, err)
	}
	if err = affectedOne(res, id); err != nil {
		return email, err
	}
	err = s.logTx(ctx, tx, id, now, "edited, status %s", email.Status)
	return email, err
}

func (s *sqlite) Cancel(ctx context.Context, id string, now time.Time) (err error) {
	now = now.UTC()

	var tx *sqlx.Tx
	tx, err = s.getTX(ctx)
	if err != nil {
		return err
	}
	defer s.done(tx, &err)

	email, err := getEmail(ctx, tx, id)
	if err != nil {
		return err
	}
	if err = email.Editable(now); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM email WHERE id = ? AND status = ?`, id, email.Status)
	if err != nil {
		return fmt.Errorf("could not cancel email %s, %w", id, err)
	}
	if err = affectedOne(res, id); err != nil {
		return err
	}
	return s.logTx(ctx, tx, id, now, "cancelled while %s", email.Status)
}

// Claim moves a selected record to processing and returns the claimed row.
// ErrConflict means some one else got there first, or the record was edited,
// cancelled or attempted since selected was read.
func (s *sqlite) Claim(ctx context.Context, selected brevq.QueuedEmail, now time.Time) (email brevq.QueuedEmail, err error) {
	now = now.UTC()
	id := selected.ID.String()
	q := `
		UPDATE email
		SET status = 'processing', claimed_at = ?, updated_at = ?
		WHERE id = ?
		  AND status = ?
	`

	var tx *sqlx.Tx
	tx, err = s.getTX(ctx)
	if err != nil {
		return email, err
	}
	defer s.done(tx, &err)

	email, err = getEmail(ctx, tx, id)
	if errors.Is(err, brevq.ErrNotFound) {
		return email, fmt.Errorf("email %s was removed since it was selected, %w", id, brevq.ErrConflict)
	}
	if err != nil {
		return email, err
	}
	if !email.Status.Queued() || email.Status != selected.Status ||
		email.Attempts != selected.Attempts || !email.UpdatedAt.Equal(selected.UpdatedAt) {
		return email, fmt.Errorf("email %s changed since it was selected, %w", id, brevq.ErrConflict)
	}

	res, err := tx.ExecContext(ctx, q, now, now, id, email.Status)
	if err != nil {
		return email, fmt.Errorf("could not claim email %s, %w", id, err)
	}
	if err = affectedOne(res, id); err != nil {
		return email, err
	}
	email.Status = brevq.StatusProcessing
	email.ClaimedAt = &now
	email.UpdatedAt = now
	return email, s.logTx(ctx, tx, id, now, "claimed for dispatch")
}

func (s *sqlite) Complete(ctx context.Context, id string, attempts int, now time.Time) (err error) {
	now = now.UTC()
	q := `
		UPDATE email
		SET status = 'completed', attempts = ?, processed_at = ?, claimed_at = NULL, updated_at = ?
		WHERE id = ?
		  AND status = 'processing'
	`

	var tx *sqlx.Tx
	tx, err = s.getTX(ctx)
	if err != nil {
		return err
	}
	defer s.done(tx, &err)

	res, err := tx.ExecContext(ctx, q, attempts, now, now, id)
	if err != nil {
		return fmt.Errorf("could not complete email %s, %w", id, err)
	}
	if err = affectedOne(res, id); err != nil {
		return err
	}
	return s.logTx(ctx, tx, id, now, "delivered on attempt %d", attempts)
}

// Release moves a processing record back to pending, or to failed, after a
// failed delivery attempt.
func (s *sqlite) Release(ctx context.Context, id string, status brevq.Status, attempts int, lastError string, now time.Time) (err error) {
	if status != brevq.StatusPending && status != brevq.StatusFailed {
		return fmt.Errorf("can not release email %s to %s", id, status)
	}
	now = now.UTC()
	q := `
		UPDATE email
		SET status = ?, attempts = ?, last_error = ?, claimed_at = NULL, updated_at = ?
		WHERE id = ?
		  AND status = 'processing'
	`

	var tx *sqlx.Tx
	tx, err = s.getTX(ctx)
	if err != nil {
		return err
	}
	defer s.done(tx, &err)

	res, err := tx.ExecContext(ctx, q, status, attempts, lastError, now, id)
	if err != nil {
		return fmt.Errorf("could not release email %s, %w", id, err)
	}
	if err = affectedOne(res, id); err != nil {
		return err
	}
	return s.logTx(ctx, tx, id, now, "attempt %d failed, now %s: %s", attempts, status, lastError)
}

// ReleaseStale reverts records that has been processing since before
// claimedBefore to pending. No attempt is counted.
func (s *sqlite) ReleaseStale(ctx context.Context, claimedBefore time.Time, now time.Time) (ids []string, err error) {
	now = now.UTC()

	var tx *sqlx.Tx
	tx, err = s.getTX(ctx)
	if err != nil {
		return nil, err
	}
	defer s.done(tx, &err)

	err = tx.SelectContext(ctx, &ids, `SELECT id FROM email WHERE status = 'processing' AND claimed_at < ?`, claimedBefore.UTC())
	if err != nil {
		return nil, fmt.Errorf("could not find stale emails, %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	q := `
		UPDATE email
		SET status = 'pending', claimed_at = NULL, updated_at = ?
		WHERE id = ?
		  AND status = 'processing'
	`
	for _, id := range ids {
		_, err = tx.ExecContext(ctx, q, now, id)
		if err != nil {
			return nil, fmt.Errorf("could not release stale email %s, %w", id, err)
		}
		err = s.logTx(ctx, tx, id, now, "released stale processing lock")
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (s *sqlite) CountSentSince(ctx context.Context, since time.Time) (int, error) {
	db, err := s.getDB()
	if err != nil {
		return 0, err
	}
	var count int
	err = db.GetContext(ctx, &count, `SELECT COUNT(*) FROM email WHERE status = 'completed' AND processed_at >= ?`, since.UTC())
	if err != nil {
		return 0, fmt.Errorf("could not count sent emails, %w", err)
	}
	return count, nil
}

func (s *sqlite) CountQueued(ctx context.Context) (int, error) {
	db, err := s.getDB()
	if err != nil {
		return 0, err
	}
	var count int
	err = db.GetContext(ctx, &count, `SELECT COUNT(*) FROM email WHERE status IN ('pending', 'scheduled', 'processing')`)
	if err != nil {
		return 0, fmt.Errorf("could not count queued emails, %w", err)
	}
	return count, nil
}

func (s *sqlite) Log(ctx context.Context, id string) ([]LogEntry, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	entries := []LogEntry{}
	err = db.SelectContext(ctx, &entries, `SELECT * FROM email_log WHERE email_id = ? ORDER BY id`, id)
	return entries, err
}

func (s *sqlite) GetSettings(ctx context.Context) (brevq.Settings, error) {
	db, err := s.getDB()
	if err != nil {
		return brevq.Settings{}, err
	}
	return getSettings(ctx, db)
}

func (s *sqlite) UpdateSettings(ctx context.Context, update brevq.SettingsUpdate, now time.Time) (settings brevq.Settings, err error) {
	var tx *sqlx.Tx
	tx, err = s.getTX(ctx)
	if err != nil {
		return settings, err
	}
	defer s.done(tx, &err)

	settings, err = getSettings(ctx, tx)
	if err != nil {
		return settings, err
	}
	if update.DailyLimit != nil {
		settings.DailyLimit = *update.DailyLimit
	}
	if update.CronSchedule != nil {
		settings.CronSchedule = strings.TrimSpace(*update.CronSchedule)
	}
	if update.Enabled != nil {
		settings.Enabled = *update.Enabled
	}
	settings.UpdatedAt = now.UTC()

	_, err = tx.NamedExecContext(ctx, `
		UPDATE settings
		SET daily_limit = :daily_limit, cron_schedule = :cron_schedule, enabled = :enabled, updated_at = :updated_at
		WHERE id = 1
	`, settings)
	if err != nil {
		return settings, fmt.Errorf("could not update settings, %w", err)
	}
	return settings, nil
}

func (s *sqlite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const insertEmail = `
	INSERT INTO email(id, batch_id, batch_position, priority, status, to_, from_, subject, html,
	                  scheduled_for, blacklist_rules, editable_until, attempts, max_attempts,
	                  created_at, updated_at)
	VALUES (:id, :batch_id, :batch_position, :priority, :status, :to_, :from_, :subject, :html,
	        :scheduled_for, :blacklist_rules, :editable_until, :attempts, :max_attempts,
	        :created_at, :updated_at)
`

func normalize(e brevq.QueuedEmail) brevq.QueuedEmail {
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	if e.ScheduledFor != nil {
		at := e.ScheduledFor.UTC()
		e.ScheduledFor = &at
	}
	if e.EditableUntil != nil {
		at := e.EditableUntil.UTC()
		e.EditableUntil = &at
	}
	return e
}

func getEmail(ctx context.Context, q sqlx.QueryerContext, id string) (brevq.QueuedEmail, error) {
	var email brevq.QueuedEmail
	err := sqlx.GetContext(ctx, q, &email, `SELECT * FROM email WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return email, fmt.Errorf("email %s, %w", id, brevq.ErrNotFound)
	}
	if err != nil {
		return email, fmt.Errorf("could not get email %s, %w", id, err)
	}
	return email, nil
}

func getSettings(ctx context.Context, q sqlx.QueryerContext) (brevq.Settings, error) {
	var settings brevq.Settings
	err := sqlx.GetContext(ctx, q, &settings, `SELECT daily_limit, cron_schedule, enabled, updated_at FROM settings WHERE id = 1`)
	if err != nil {
		return settings, fmt.Errorf("could not get settings, %w", err)
	}
	return settings, nil
}

func affectedOne(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		return fmt.Errorf("email %s, %d rows was affected, %w", id, affected, brevq.ErrConflict)
	}
	return nil
}

func (s *sqlite) logTx(ctx context.Context, tx *sqlx.Tx, id string, at time.Time, format string, args ...interface{}) error {
	q := `
	INSERT INTO email_log (email_id, created_at, log)
	VALUES (?, ?, ?)
	`
	_, err := tx.ExecContext(ctx, q, id, at.UTC(), fmt.Sprintf(format, args...))
	if err != nil {
		return fmt.Errorf("failed to insert log entry, %v", err)
	}
	return nil
}

// done commits if *err is nil and rolls back otherwise.
func (s *sqlite) done(tx *sqlx.Tx, err *error) {
	if *err == nil {
		*err = tx.Commit()
		return
	}
	if !errors.Is(*err, brevq.ErrConflict) && !errors.Is(*err, brevq.ErrLocked) &&
		!errors.Is(*err, brevq.ErrNotFound) && !errors.Is(*err, brevq.ErrValidation) {
		s.log.WithError(*err).Warn("rolling back transaction")
	}
	_ = tx.Rollback()
}

func (s *sqlite) tuneDatabase() error {
	q := `pragma journal_mode = WAL;
			pragma synchronous = normal;
			pragma temp_store = memory;
			pragma mmap_size = 30000000000;`

	if s.db == nil {
		return errors.New("db must be instantiated")
	}
	_, err := s.db.Exec(q)
	return err
}

func (s *sqlite) dsn() string {
	sep := "?"
	if strings.Contains(s.path, "?") {
		sep = "&"
	}
	if s.driver == DriverModernc {
		return s.path + sep + "_pragma=busy_timeout(5000)&_time_format=sqlite"
	}
	return s.path + sep + "_busy_timeout=5000"
}

func (s *sqlite) getDB() (*sqlx.DB, error) {

	var err error
	// this seems like it could be optimized in general... some other process checking health and reconnecting.
	for s.db == nil || s.db.Ping() != nil {

		if s.db != nil {
			_ = s.db.Close()
			s.db = nil
		}

		s.log.Infof("Connecting to db %s using %s", s.path, s.driver)
		s.db, err = sqlx.Connect(s.driver, s.dsn())
		if err != nil {
			return nil, fmt.Errorf("error while connecting, %w", err)
		}
		// sqlite allows one writer, a single connection serializes the compare and set updates
		s.db.SetMaxOpenConns(1)
		err := s.tuneDatabase()
		if err != nil {
			return nil, fmt.Errorf("error while tuning db instence, %w", err)
		}
	}

	return s.db, nil
}

func (s *sqlite) getTX(ctx context.Context) (*sqlx.Tx, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	return db.BeginTxx(ctx, nil)
}

func (s *sqlite) ensureSchema(seed brevq.Settings) error {

	db, err := s.getDB()
	if err != nil {
		return fmt.Errorf("could not get db, %w", err)
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS email (
	    id TEXT PRIMARY KEY,
	    batch_id TEXT,
	    batch_position INTEGER,

	    priority TEXT NOT NULL, -- now, high, standard, low
	    status TEXT NOT NULL, -- pending, scheduled, processing, completed, failed

	    to_ TEXT NOT NULL,
	    from_ TEXT NOT NULL,
	    subject TEXT NOT NULL,
	    html TEXT NOT NULL,

	    scheduled_for DATETIME,
	    blacklist_rules TEXT, -- json
	    editable_until DATETIME,

	    attempts INTEGER NOT NULL DEFAULT 0,
	    max_attempts INTEGER NOT NULL DEFAULT 3,
	    last_error TEXT,

	    created_at DATETIME NOT NULL,
	    updated_at DATETIME NOT NULL,
	    processed_at DATETIME,
	    claimed_at DATETIME,

	    CHECK (attempts <= max_attempts),
	    CHECK (max_attempts BETWEEN 1 AND 10)
	);

	CREATE INDEX IF NOT EXISTS idx_email_queued ON email(status, scheduled_for);
	CREATE INDEX IF NOT EXISTS idx_email_batch ON email(batch_id, batch_position) WHERE batch_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_email_processed_at ON email(processed_at) WHERE status = 'completed';

	CREATE TABLE IF NOT EXISTS email_log (
	    id INTEGER PRIMARY KEY AUTOINCREMENT,
	    email_id TEXT NOT NULL,
	    created_at DATETIME NOT NULL,
	    log TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_email_log_email ON email_log(email_id);

	CREATE TABLE IF NOT EXISTS settings (
	    id INTEGER PRIMARY KEY CHECK (id = 1),
	    daily_limit INTEGER NOT NULL,
	    cron_schedule TEXT NOT NULL,
	    enabled BOOLEAN NOT NULL,
	    updated_at DATETIME NOT NULL
	);
`)
	if err != nil {
		return fmt.Errorf("could upsert schema, %w", err)
	}

	_, err = db.Exec(`
		INSERT OR IGNORE INTO settings (id, daily_limit, cron_schedule, enabled, updated_at)
		VALUES (1, ?, ?, ?, ?)
	`, seed.DailyLimit, seed.CronSchedule, seed.Enabled, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("could not seed settings, %w", err)
	}

	return nil
}
