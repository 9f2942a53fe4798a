package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"rangescan/internal/util"
)

// Open validates dsn and returns a pool sized for workers concurrent range scans.
func Open(dsn string, workers int) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	conn, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}

	db := sql.OpenDB(conn)
	db.SetMaxOpenConns(workers + 2)
	db.SetMaxIdleConns(workers)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Printf("[INFO] mysql %s/%s (user %s)", cfg.Addr, cfg.DBName, cfg.User)

	return db, nil
}

func MustOpen(dsn string, workers int) *sql.DB {
	db, err := Open(dsn, workers)
	if err != nil {
		log.Fatalf("[FATAL] open db: %v", err)
	}

	return db
}

// PKRange returns MIN(pk) and MAX(pk) of table, nil when no row matches where.
func PKRange(ctx context.Context, db *sql.DB, table, pk, where string) (*int64, *int64, error) {
	q := fmt.Sprintf(
		"SELECT MIN(%s), MAX(%s) FROM %s",
		util.Ident(pk),
		util.Ident(pk),
		util.Ident(table),
	)

	if where = strings.TrimSpace(where); where != "" {
		q += " WHERE " + where
	}

	var a, b sql.NullInt64

	if err := db.QueryRowContext(ctx, q).Scan(&a, &b); err != nil {
		return nil, nil, fmt.Errorf("pk range: %w", err)
	}

	if !a.Valid || !b.Valid {
		return nil, nil, nil
	}

	return &a.Int64, &b.Int64, nil
}

// BuildSelectByRange builds a keyset page query over one batch. Its arguments
// are (from, to, limit); nil columns select all of them.
func BuildSelectByRange(table string, columns []string, pk, where string, maxExecMS int) string {
	cols := "*"
	if len(columns) > 0 {
		cols = strings.Join(util.IdentAll(columns), ",")
	}

	hint := ""
	if maxExecMS > 0 {
		hint = fmt.Sprintf("/*+ MAX_EXECUTION_TIME(%d) */ ", maxExecMS)
	}

	cond := fmt.Sprintf("%s BETWEEN ? AND ?", util.Ident(pk))
	if where = strings.TrimSpace(where); where != "" {
		cond += " AND (" + where + ")"
	}

	return fmt.Sprintf(
		"SELECT %s%s FROM %s WHERE %s ORDER BY %s ASC LIMIT ?",
		hint,
		cols,
		util.Ident(table),
		cond,
		util.Ident(pk),
	)
}

// AsString renders a scanned column value for CSV output.
func AsString(value any) string {
	switch x := value.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(x)
	}
}
