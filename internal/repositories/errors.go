package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsNotFound reports whether a repository error means the row does not
// exist, letting services map it to a NOT_FOUND kind without importing pgx.
func IsNotFound(err error) bool {
	return isNoRows(err)
}
