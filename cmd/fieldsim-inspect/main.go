// Command fieldsim-inspect reads a trace database: lists runs, prints a
// run's metrics history as a table or CSV, and dumps warnings.
package main

import (
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "modernc.org/sqlite"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to fieldsim.db")
	runID := flag.String("run", "", "run id (latest when empty)")
	csvOut := flag.Bool("csv", false, "emit metrics history as CSV")
	showWarnings := flag.Bool("warnings", false, "dump warnings instead of metrics")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fieldsim-inspect --db fieldsim.db [--run id] [--csv] [--warnings]")
		os.Exit(2)
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	id := *runID
	if id == "" {
		if id, err = latestRun(db); err != nil {
			fmt.Fprintf(os.Stderr, "latest run: %v\n", err)
			os.Exit(1)
		}
	}

	if *showWarnings {
		err = dumpWarnings(db, id)
	} else {
		err = dumpMetrics(db, id, *csvOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func latestRun(db *sql.DB) (string, error) {
	var id string
	err := db.QueryRow(`SELECT run_id FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("no runs recorded: %w", err)
	}
	return id, nil
}

// #endregion main

// #region metrics

var metricsHeader = []string{
	"tick", "attention_entropy", "memory_diversity", "velocity_stability",
	"identity_coherence", "cluster_stability", "affective_strength", "average_essence",
}

func dumpMetrics(db *sql.DB, runID string, csvOut bool) error {
	rows, err := db.Query(
		`SELECT tick, attention_entropy, memory_diversity, velocity_stability,
		 identity_coherence, cluster_stability, affective_strength, average_essence
		 FROM tick_metrics WHERE run_id = ? ORDER BY tick`, runID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	var w *csv.Writer
	if csvOut {
		w = csv.NewWriter(os.Stdout)
		if err := w.Write(metricsHeader); err != nil {
			return err
		}
		defer w.Flush()
	} else {
		fmt.Printf("run %s\n", runID)
		fmt.Printf("%8s %10s %10s %10s %10s %10s %10s %10s\n",
			"tick", "att_ent", "mem_div", "vel_stab", "id_coh", "clust", "affect", "essence")
	}

	for rows.Next() {
		var tick int64
		v := make([]float64, 7)
		if err := rows.Scan(&tick, &v[0], &v[1], &v[2], &v[3], &v[4], &v[5], &v[6]); err != nil {
			return err
		}
		if csvOut {
			rec := make([]string, 0, 8)
			rec = append(rec, strconv.FormatInt(tick, 10))
			for _, x := range v {
				rec = append(rec, strconv.FormatFloat(x, 'f', 6, 64))
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		} else {
			fmt.Printf("%8d %10.4f %10.4f %10.4f %10.4f %10.4f %10.4f %10.4f\n",
				tick, v[0], v[1], v[2], v[3], v[4], v[5], v[6])
		}
	}
	return rows.Err()
}

// #endregion metrics

// #region warnings

func dumpWarnings(db *sql.DB, runID string) error {
	rows, err := db.Query(
		`SELECT tick, entity_id, kind, detail FROM warnings WHERE run_id = ? ORDER BY tick`, runID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var tick, entity int64
		var kind, detail string
		if err := rows.Scan(&tick, &entity, &kind, &detail); err != nil {
			return err
		}
		fmt.Printf("tick %6d entity %3d %-22s %s\n", tick, entity, kind, detail)
		count++
	}
	if count == 0 {
		fmt.Printf("run %s: no warnings\n", runID)
	}
	return rows.Err()
}

// #endregion warnings
