package kb

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ppiankov/chronoqa/internal/errors"
	"github.com/ppiankov/chronoqa/internal/model"
)

// Schema is the SQLite layout read by LoadSQL and written by WriteSQL.
// Country lists are stored pipe-separated.
const Schema = `
CREATE TABLE IF NOT EXISTS entities (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	type      TEXT NOT NULL,
	domain    TEXT,
	countries TEXT
);
CREATE TABLE IF NOT EXISTS facts (
	subject    TEXT NOT NULL REFERENCES entities(id),
	predicate  TEXT NOT NULL,
	object     TEXT NOT NULL,
	kind       TEXT,
	country    TEXT,
	domain     TEXT,
	source     TEXT,
	confidence REAL
);
CREATE INDEX IF NOT EXISTS facts_subject ON facts(subject);
`

const (
	selectEntitiesSQL = `SELECT id, name, type, domain, countries FROM entities ORDER BY id`
	selectFactsSQL    = `SELECT subject, predicate, object, kind, country, domain, source, confidence FROM facts ORDER BY subject, predicate, object`
	insertEntitySQL   = `INSERT INTO entities (id, name, type, domain, countries) VALUES (?, ?, ?, ?, ?)`
	insertFactSQL     = `INSERT INTO facts (subject, predicate, object, kind, country, domain, source, confidence) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
)

// OpenSQLite opens a knowledge base database at path
func OpenSQLite(path string, logger *zap.SugaredLogger) (*sql.DB, error) {
	if logger != nil {
		logger.Debugw("Opening knowledge base database", "path", path)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open knowledge base database")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "enable foreign keys")
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "set busy timeout")
	}
	return db, nil
}

// LoadSQL reads entities and facts from db and builds a knowledge base
func LoadSQL(ctx context.Context, db *sql.DB) (*KnowledgeBase, error) {
	entities, err := queryEntities(ctx, db)
	if err != nil {
		return nil, err
	}
	facts, err := queryFacts(ctx, db)
	if err != nil {
		return nil, err
	}
	k, err := Load(entities, facts)
	if err != nil {
		return nil, errors.Wrap(err, "load knowledge base from database")
	}
	return k, nil
}

func queryEntities(ctx context.Context, db *sql.DB) ([]model.Entity, error) {
	rows, err := db.QueryContext(ctx, selectEntitiesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "query entities")
	}
	defer rows.Close()

	var out []model.Entity
	for rows.Next() {
		var (
			e                 model.Entity
			typ               string
			domain, countries sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Name, &typ, &domain, &countries); err != nil {
			return nil, errors.Wrap(err, "scan entity")
		}
		e.Type = model.EntityType(typ)
		e.Domain = domain.String
		if countries.String != "" {
			e.Countries = strings.Split(countries.String, "|")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate entities")
	}
	return out, nil
}

func queryFacts(ctx context.Context, db *sql.DB) ([]model.Fact, error) {
	rows, err := db.QueryContext(ctx, selectFactsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "query facts")
	}
	defer rows.Close()

	var out []model.Fact
	for rows.Next() {
		var (
			f                             model.Fact
			kind, country, domain, source sql.NullString
			confidence                    sql.NullFloat64
		)
		if err := rows.Scan(&f.Subject, &f.Predicate, &f.Object, &kind, &country, &domain, &source, &confidence); err != nil {
			return nil, errors.Wrap(err, "scan fact")
		}
		f.Kind = model.ObjectKind(kind.String)
		f.Country = country.String
		f.Domain = domain.String
		f.Source = source.String
		f.Confidence = confidence.Float64
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate facts")
	}
	return out, nil
}

// WriteSQL creates the schema in db and stores the knowledge base in one transaction
func WriteSQL(ctx context.Context, db *sql.DB, k *KnowledgeBase) (err error) {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return errors.Wrap(err, "create schema")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, e := range k.Entities() {
		if _, err = tx.ExecContext(ctx, insertEntitySQL,
			e.ID, e.Name, string(e.Type), e.Domain, strings.Join(e.Countries, "|")); err != nil {
			return errors.Wrapf(err, "insert entity %s", e.ID)
		}
	}
	for _, f := range k.Facts() {
		if _, err = tx.ExecContext(ctx, insertFactSQL,
			f.Subject, f.Predicate, f.Object, string(f.Kind), f.Country, f.Domain, f.Source, f.Confidence); err != nil {
			return errors.Wrapf(err, "insert fact %s", f)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit knowledge base")
	}
	return nil
}
