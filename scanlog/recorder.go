// Package scanlog records debug-bus scan traffic into a SQLite database
// for post-mortem inspection of a debug session.
package scanlog

import (
	"database/sql"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// Record is one debug-bus scan as stored in the database.
type Record struct {
	Seq     int64
	Op      string
	Address int64
	DataOut int64
	Result  string
	DataIn  int64
}

// Recorder buffers scan records and writes them to a SQLite database in
// batches.
type Recorder struct {
	db        *sql.DB
	path      string
	pending   []Record
	batchSize int
}

// NewRecorder creates a recorder backed by a fresh database at path (with
// a .sqlite3 suffix appended). An empty path picks a unique name. The
// buffer is flushed at process exit.
func NewRecorder(path string) (*Recorder, error) {
	if path == "" {
		path = "rvdbg_scans_" + xid.New().String()
	}
	filename := path + ".sqlite3"

	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("scan log %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`CREATE TABLE scans (
	seq INTEGER,
	op TEXT,
	address INTEGER,
	data_out INTEGER,
	result TEXT,
	data_in INTEGER
);`)
	if err != nil {
		db.Close()
		return nil, err
	}

	r := &Recorder{
		db:        db,
		path:      filename,
		batchSize: 4096,
	}

	atexit.Register(func() { r.Flush() })

	return r, nil
}

// Path returns the database file path.
func (r *Recorder) Path() string {
	return r.path
}

// Record buffers one scan record.
func (r *Recorder) Record(rec Record) {
	r.pending = append(r.pending, rec)

	if len(r.pending) >= r.batchSize {
		r.Flush()
	}
}

// Flush writes all buffered records in one transaction.
func (r *Recorder) Flush() {
	if len(r.pending) == 0 {
		return
	}

	tx, err := r.db.Begin()
	if err != nil {
		panic(err)
	}

	stmt, err := tx.Prepare(
		"INSERT INTO scans VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		panic(err)
	}

	for _, rec := range r.pending {
		_, err := stmt.Exec(rec.Seq, rec.Op, rec.Address,
			rec.DataOut, rec.Result, rec.DataIn)
		if err != nil {
			panic(err)
		}
	}

	stmt.Close()

	if err := tx.Commit(); err != nil {
		panic(err)
	}

	r.pending = r.pending[:0]
}

// Close flushes and closes the database.
func (r *Recorder) Close() {
	r.Flush()
	r.db.Close()
}
