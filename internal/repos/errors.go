package repos

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/planwatch/watch-backend/internal/watcherr"
)

const pgUniqueViolation = "23505"

var (
	errTaskStateMismatch     = watcherr.ConstraintViolation("task state and completed_at must agree")
	errTaskCompletedInFuture = watcherr.ConstraintViolation("task completed_at cannot be in the future")
)

// translateDBError maps driver-level errors to core error kinds so callers
// never have to inspect pg error codes.
func translateDBError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return watcherr.Wrap(watcherr.KindNotFound, err, msg)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return watcherr.Wrap(watcherr.KindConflict, err, msg)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return watcherr.Wrap(watcherr.KindConflict, err, msg)
	}
	return watcherr.Internal(err, msg)
}
