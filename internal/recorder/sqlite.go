package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while the simulation writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS wagers (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp           INTEGER NOT NULL,
			wager_id            TEXT NOT NULL,
			direction           TEXT,
			won                 INTEGER,
			stake               TEXT,
			payout              TEXT,
			locked_odds         REAL,
			locked_probability  REAL,
			target_trials       INTEGER,
			target_digits       INTEGER,
			has_converged       INTEGER,
			final_estimate      REAL,
			final_accuracy_rank INTEGER,
			final_trials        INTEGER,
			balance_after       TEXT,
			games_won           INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_wagers_ts ON wagers(timestamp)`,

		`CREATE TABLE IF NOT EXISTS estimate_snapshots (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			trials        INTEGER,
			crossings     INTEGER,
			pi_estimate   REAL,
			error_percent REAL,
			accuracy_rank INTEGER,
			needle_length REAL,
			line_spacing  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON estimate_snapshots(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordWager(evt *WagerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := evt.Result
	var balance string
	var gamesWon int
	if evt.Fund != nil {
		balance = evt.Fund.Balance.String()
		gamesWon = evt.Fund.GamesWon
	}

	_, err := r.db.Exec(`INSERT INTO wagers
		(timestamp, wager_id, direction, won, stake, payout,
		 locked_odds, locked_probability, target_trials, target_digits,
		 has_converged, final_estimate, final_accuracy_rank, final_trials,
		 balance_after, games_won)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		res.ResolvedAt.Unix(), res.WagerID, string(res.Direction), boolInt(res.Won),
		res.Stake.String(), res.Payout.String(),
		res.LockedOdds, res.LockedProbability, res.TargetTrials, res.TargetDigits,
		boolInt(res.HasConverged), res.FinalEstimate, res.FinalAccuracyRank, res.FinalTrials,
		balance, gamesWon,
	)
	return err
}

func (r *SQLiteRecorder) RecordSnapshot(snap *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	est := snap.Estimate
	_, err := r.db.Exec(`INSERT INTO estimate_snapshots
		(timestamp, trials, crossings, pi_estimate, error_percent, accuracy_rank, needle_length, line_spacing)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), est.Trials, est.Crossings, est.PiEstimate, est.ErrorPercent,
		snap.AccuracyRank, snap.NeedleLength, snap.LineSpacing,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
