package sql

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/shpandrak/shpanbind/internal/util"
	"github.com/shpandrak/shpanbind/stream"
)

// QueryStream creates a lazily evaluated Stream over the rows of a sql query.
// The database handle is acquired and the query executed only when the stream
// is opened, so a stream bound to a visibility cycle re-runs the query on
// every cycle. The handle stays owned by the caller, only the rows cursor is
// closed with the stream.
func QueryStream[T any](
	dbProvider func() (*sql.DB, error),
	query string,
	paramVals []any,
	scanner func(*sql.Rows) (T, error),
) stream.Stream[T] {
	return stream.NewStream(&sqlQueryStreamProvider[T]{
		dbProvider: dbProvider,
		query:      query,
		paramVals:  paramVals,
		scanner:    scanner,
	})
}

type sqlQueryStreamProvider[T any] struct {
	dbProvider func() (*sql.DB, error)
	query      string
	paramVals  []any
	rows       *sql.Rows
	scanner    func(*sql.Rows) (T, error)
}

func (s *sqlQueryStreamProvider[T]) Open(ctx context.Context) error {
	db, err := s.dbProvider()
	if err != nil {
		return fmt.Errorf("failed to get db for sql query stream: %w", err)
	}
	rows, err := db.QueryContext(
		ctx,
		s.query,
		s.paramVals...,
	)
	if err != nil {
		return fmt.Errorf("failed opening sql query stream: %w", err)
	}
	s.rows = rows
	return nil

}

func (s *sqlQueryStreamProvider[T]) Close() {
	if s.rows != nil {
		_ = s.rows.Close()
		s.rows = nil
	}
}

func (s *sqlQueryStreamProvider[T]) Emit(ctx context.Context) (T, error) {
	if ctx.Err() != nil {
		return util.DefaultValue[T](), ctx.Err()
	}
	next := s.rows.Next()
	if !next {
		if err := s.rows.Err(); err != nil {
			return util.DefaultValue[T](), fmt.Errorf("error reading from sql query stream: %w", err)
		}
		return util.DefaultValue[T](), io.EOF
	}
	return s.scanner(s.rows)
}
