package wave

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/convsim/model"

	_ "modernc.org/sqlite"
)

// SQLiteWriter stores the waveform in a SQLite database. Everything written
// between open and Close belongs to one transaction.
type SQLiteWriter struct {
	ctx context.Context
	db  *sql.DB
	tx  *sql.Tx

	insertStep   *sql.Stmt
	insertOutput *sql.Stmt
}

// OpenSQLite opens or creates the database at path and prepares the tables.
// Previous rows are removed.
func OpenSQLite(ctx context.Context, path string) (*SQLiteWriter, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ping sqlite")
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	w := &SQLiteWriter{ctx: ctx, db: db}
	if err := w.begin(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return w, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS steps (
			step INTEGER PRIMARY KEY,
			time_sec REAL NOT NULL,
			clk INTEGER NOT NULL,
			rst_n INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outputs (
			step INTEGER NOT NULL,
			row_idx INTEGER NOT NULL,
			col_idx INTEGER NOT NULL,
			depth_idx INTEGER NOT NULL,
			value INTEGER NOT NULL,
			time_sec REAL NOT NULL,
			PRIMARY KEY (step, row_idx, col_idx, depth_idx)
		)`,
		`DELETE FROM steps`,
		`DELETE FROM outputs`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "create tables")
		}
	}

	return nil
}

func (w *SQLiteWriter) begin() error {
	tx, err := w.db.BeginTx(w.ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin")
	}

	w.insertStep, err = tx.PrepareContext(w.ctx,
		`INSERT INTO steps (step, time_sec, clk, rst_n) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "prepare steps insert")
	}

	w.insertOutput, err = tx.PrepareContext(w.ctx, `
		INSERT INTO outputs (step, row_idx, col_idx, depth_idx, value, time_sec)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "prepare outputs insert")
	}

	w.tx = tx

	return nil
}

// WriteSample inserts one row into steps.
func (w *SQLiteWriter) WriteSample(s Sample) error {
	_, err := w.insertStep.ExecContext(w.ctx,
		int64(s.Step), float64(s.Time), int(s.Clock), int(s.Reset))

	return errors.Wrapf(err, "insert step %d", s.Step)
}

// WriteSnapshot inserts one row per output value.
func (w *SQLiteWriter) WriteSnapshot(s Snapshot) error {
	for i := 0; i < model.Rows; i++ {
		for j := 0; j < model.Cols; j++ {
			for k := 0; k < model.Depth; k++ {
				_, err := w.insertOutput.ExecContext(w.ctx,
					int64(s.Step), i, j, k, int(s.Output[i][j][k]), float64(s.Time))
				if err != nil {
					return errors.Wrapf(err, "insert output at step %d", s.Step)
				}
			}
		}
	}

	return nil
}

// Close commits the transaction and closes the database.
func (w *SQLiteWriter) Close() error {
	if w.db == nil {
		return nil
	}

	err := w.tx.Commit()
	if err != nil {
		err = errors.Wrap(err, "commit")
	}

	if cerr := w.db.Close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "close sqlite")
	}

	w.db = nil

	return err
}

// LoadSQLite reads back a waveform written by SQLiteWriter, ordered by step.
func LoadSQLite(ctx context.Context, path string) ([]Sample, []Snapshot, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open sqlite")
	}
	defer db.Close()

	samples, err := loadSamples(ctx, db)
	if err != nil {
		return nil, nil, err
	}

	snapshots, err := loadSnapshots(ctx, db)
	if err != nil {
		return nil, nil, err
	}

	return samples, snapshots, nil
}

func loadSamples(ctx context.Context, db *sql.DB) ([]Sample, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT step, time_sec, clk, rst_n FROM steps ORDER BY step`)
	if err != nil {
		return nil, errors.Wrap(err, "query steps")
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var (
			step      int64
			t         float64
			clk, rstN int
		)
		if err := rows.Scan(&step, &t, &clk, &rstN); err != nil {
			return nil, errors.Wrap(err, "scan step")
		}

		samples = append(samples, Sample{
			Step:  uint64(step),
			Time:  sim.VTimeInSec(t),
			Clock: model.Bit(clk),
			Reset: model.Bit(rstN),
		})
	}

	return samples, errors.Wrap(rows.Err(), "iterate steps")
}

func loadSnapshots(ctx context.Context, db *sql.DB) ([]Snapshot, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT step, row_idx, col_idx, depth_idx, value, time_sec FROM outputs
		ORDER BY step, row_idx, col_idx, depth_idx`)
	if err != nil {
		return nil, errors.Wrap(err, "query outputs")
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var (
			step       int64
			i, j, k, v int
			t          float64
		)
		if err := rows.Scan(&step, &i, &j, &k, &v, &t); err != nil {
			return nil, errors.Wrap(err, "scan output")
		}

		if len(snapshots) == 0 || snapshots[len(snapshots)-1].Step != uint64(step) {
			snapshots = append(snapshots, Snapshot{
				Step: uint64(step),
				Time: sim.VTimeInSec(t),
			})
		}

		snapshots[len(snapshots)-1].Output[i][j][k] = uint16(v)
	}

	return snapshots, errors.Wrap(rows.Err(), "iterate outputs")
}
