// Package telemetry records session-level statistics around an
// interpreter run: a correlatable session id, GC pause counters rendered
// in human units, and an optional MessagePack session report or SQLite
// trace row. None of it is on the CORE's hot path — every hook here is
// opt-in and observes the heap/VM from the outside.
package telemetry

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"

	"github.com/xirelogy/corelox/internal/heap"
)

// GCEvent is one completed collection cycle, as reported by heap.Heap's
// LogGC hook.
type GCEvent struct {
	Before int64
	After  int64
	NextGC int64
}

// Session tracks one interpreter run: its identity, wall-clock duration,
// and every GC cycle observed along the way.
type Session struct {
	ID        uuid.UUID
	Source    string
	StartedAt time.Time
	Events    []GCEvent
}

// NewSession starts tracking a run identified by a human label (usually a
// source file path or "<repl>").
func NewSession(source string) *Session {
	return &Session{ID: uuid.New(), Source: source, StartedAt: time.Now()}
}

// Attach wires the session's GC logging into h; every subsequent
// collection is recorded until the session is done.
func (s *Session) Attach(h *heap.Heap) {
	h.LogGC = func(before, after, nextGC int64) {
		s.Events = append(s.Events, GCEvent{Before: before, After: after, NextGC: nextGC})
	}
}

// Summary renders a one-line human-readable report of the session's GC
// activity, the format the CLI prints under --gc-log.
func (s *Session) Summary() string {
	var freed int64
	for _, e := range s.Events {
		freed += e.Before - e.After
	}
	return "gc: " + strconv.Itoa(len(s.Events)) + " cycles, " + humanize.Bytes(uint64(freed)) + " reclaimed"
}

// Report is the exit-time record written under `corelox run --report`.
type Report struct {
	SessionID   uuid.UUID `msgpack:"session_id"`
	Source      string    `msgpack:"source"`
	DurationMs  int64     `msgpack:"duration_ms"`
	GCCycles    int       `msgpack:"gc_cycles"`
	BytesFreed  int64     `msgpack:"bytes_freed"`
	ExitCode    int       `msgpack:"exit_code"`
	RuntimeErr  string    `msgpack:"runtime_error,omitempty"`
}

// Finish builds the closing Report for s.
func (s *Session) Finish(exitCode int, runtimeErr string) Report {
	var freed int64
	for _, e := range s.Events {
		freed += e.Before - e.After
	}
	return Report{
		SessionID:  s.ID,
		Source:     s.Source,
		DurationMs: time.Since(s.StartedAt).Milliseconds(),
		GCCycles:   len(s.Events),
		BytesFreed: freed,
		ExitCode:   exitCode,
		RuntimeErr: runtimeErr,
	}
}

// MarshalReport encodes r as MessagePack, the wire format `corelox run
// --report out.msgp` writes: aggregate counters only, never Chunk/Value
// data, so this never overlaps with the bytecode-serialization Non-goal.
func MarshalReport(r Report) ([]byte, error) {
	b, err := msgpack.Marshal(r)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "telemetry: marshaling report")
	}
	return b, nil
}

// TraceDB appends one row per completed file run (`corelox run --trace-db
// session.db file.lox`) to a local pure-Go SQLite file, for inspection
// after the fact. The REPL writes no rows.
type TraceDB struct {
	db *sql.DB
}

// OpenTraceDB opens (creating if needed) the trace database at path.
func OpenTraceDB(path string) (*TraceDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "telemetry: opening trace db %s", path)
	}
	const schema = `CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT,
		started_at TEXT,
		duration_ms INTEGER,
		gc_cycles INTEGER,
		bytes_freed INTEGER,
		exit_code INTEGER,
		runtime_error TEXT
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, pkgerrors.Wrap(err, "telemetry: creating trace schema")
	}
	return &TraceDB{db: db}, nil
}

// Insert appends one completed session's report as a row.
func (t *TraceDB) Insert(s *Session, r Report) error {
	_, err := t.db.Exec(
		`INSERT INTO runs (id, source, started_at, duration_ms, gc_cycles, bytes_freed, exit_code, runtime_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID.String(), r.Source, s.StartedAt.Format(time.RFC3339Nano),
		r.DurationMs, r.GCCycles, r.BytesFreed, r.ExitCode, r.RuntimeErr,
	)
	if err != nil {
		return pkgerrors.Wrap(err, "telemetry: inserting trace row")
	}
	return nil
}

// Close releases the underlying database handle.
func (t *TraceDB) Close() error { return t.db.Close() }
