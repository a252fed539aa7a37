// Package durablelog implements the append-only sequence log that backs
// sequenced-message durability: every server-side outbound 'S' message is
// stored here before it is sent, and every client-side inbound 'S' message
// is stored here for local audit after it is delivered.
//
// The two logical tables ("input" and "output") are realized with GORM over
// github.com/glebarez/sqlite, a pure-Go (cgo-free) SQLite driver — the same
// ORM/driver pairing the example control-plane store uses for its own
// SQLite-backed persistence. AutoMigrate creates
//
//	input  (sequence integer primary key autoincrement, message text)
//	output (sequence integer primary key autoincrement, message text)
//
// and the autoincrement primary key is exactly the monotone sequence
// assignment spec §4.2 requires: SQLite guarantees it is strictly increasing
// across inserts, so the log needs no counter of its own.
package durablelog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Row is one persisted message: its assigned sequence and body.
type Row struct {
	Sequence int64
	Message  string
}

// Log is the contract the session core consumes (spec §4.2). Each session
// owns exactly one Log for its lifetime; no locking beyond what the backing
// store already does is required, since a session's own serialization model
// guarantees a single caller at a time.
type Log interface {
	// StoreOutput appends body to the output table and returns its assigned
	// sequence. It must be durable (committed) before returning.
	StoreOutput(body string) (int64, error)

	// LoadOutput returns output rows with sequence >= from, ascending.
	LoadOutput(from int64) ([]Row, error)

	// NextOutputSequence returns the sequence StoreOutput would assign to
	// the next row: one past the highest sequence currently stored, or 1
	// for an empty log. It never consults anything the client supplied.
	NextOutputSequence() (int64, error)

	// StoreInput appends body to the input table, for client-side audit.
	StoreInput(body string) error

	// LoadInput returns every input row, ascending by sequence.
	LoadInput() ([]Row, error)

	// Close releases the underlying database handle.
	Close() error
}

// StorageError wraps a failure to open, append to, or scan the durable log.
// Per spec §7, on the login path this becomes a login rejection; on the send
// path it stops the session.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("durablelog: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

type outputRow struct {
	Sequence int64  `gorm:"column:sequence;primaryKey;autoIncrement"`
	Message  string `gorm:"column:message"`
}

func (outputRow) TableName() string { return "output" }

type inputRow struct {
	Sequence int64  `gorm:"column:sequence;primaryKey;autoIncrement"`
	Message  string `gorm:"column:message"`
}

func (inputRow) TableName() string { return "input" }

// sqlLog is the GORM/SQLite implementation of Log.
type sqlLog struct {
	db *gorm.DB
}

// Open opens (creating if necessary) the sqlite file at path and ensures the
// input/output tables exist. Open is idempotent in the sense that calling it
// again against the same path is always safe; sessions call it exactly once
// during login.
func Open(path string) (Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &StorageError{Op: "open", Err: err}
		}
	}

	// WAL + a busy timeout give well-behaved concurrent-reader/single-writer
	// access even though, per the session's own concurrency model, only one
	// goroutine at a time ever calls into a given session's log.
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}

	if err := db.AutoMigrate(&outputRow{}, &inputRow{}); err != nil {
		return nil, &StorageError{Op: "migrate", Err: err}
	}

	return &sqlLog{db: db}, nil
}

func (l *sqlLog) StoreOutput(body string) (int64, error) {
	row := outputRow{Message: body}
	if err := l.db.Create(&row).Error; err != nil {
		return 0, &StorageError{Op: "store_output", Err: err}
	}
	return row.Sequence, nil
}

func (l *sqlLog) LoadOutput(from int64) ([]Row, error) {
	var rows []outputRow
	if err := l.db.Where("sequence >= ?", from).Order("sequence asc").Find(&rows).Error; err != nil {
		return nil, &StorageError{Op: "load_output", Err: err}
	}
	return toRows(rows), nil
}

func (l *sqlLog) NextOutputSequence() (int64, error) {
	var row outputRow
	if err := l.db.Order("sequence desc").Limit(1).Find(&row).Error; err != nil {
		return 0, &StorageError{Op: "next_output_sequence", Err: err}
	}
	return row.Sequence + 1, nil
}

func (l *sqlLog) StoreInput(body string) error {
	row := inputRow{Message: body}
	if err := l.db.Create(&row).Error; err != nil {
		return &StorageError{Op: "store_input", Err: err}
	}
	return nil
}

func (l *sqlLog) LoadInput() ([]Row, error) {
	var rows []inputRow
	if err := l.db.Order("sequence asc").Find(&rows).Error; err != nil {
		return nil, &StorageError{Op: "load_input", Err: err}
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{Sequence: r.Sequence, Message: r.Message}
	}
	return out, nil
}

func (l *sqlLog) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		if errors.Is(err, gorm.ErrInvalidDB) {
			return nil
		}
		return &StorageError{Op: "close", Err: err}
	}
	return sqlDB.Close()
}

func toRows(rows []outputRow) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{Sequence: r.Sequence, Message: r.Message}
	}
	return out
}

// ServerLogPath returns the filename for a server-side output log, per spec §3.
func ServerLogPath(dir, sessionName string) string {
	return filepath.Join(dir, fmt.Sprintf("server-%s.db", sessionName))
}

// ClientLogPath returns the filename for a client-side input log, per spec §3.
func ClientLogPath(dir, username, sessionName string) string {
	return filepath.Join(dir, fmt.Sprintf("client-%s-%s.db", username, sessionName))
}
