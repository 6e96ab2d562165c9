package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/efinel/node-red/pkg/repository"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	errNotFound  = errors.New("not found")
	errForbidden = errors.New("forbidden")
)

func TestMapError(t *testing.T) {
	otherPg := &pgconn.PgError{Code: "23505"}
	otherErr := errors.New("some other error")

	tests := []struct {
		name string
		err  error
		want error
		same bool
	}{
		{"no rows", sql.ErrNoRows, errNotFound, false},
		{"wrapped no rows", fmt.Errorf("query: %w", sql.ErrNoRows), errNotFound, false},
		{"insufficient privilege", &pgconn.PgError{Code: "42501", Message: "permission denied for table"}, errForbidden, false},
		{"other pg error", otherPg, otherPg, true},
		{"other error", otherErr, otherErr, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.MapError(tt.err, errNotFound, errForbidden)
			if tt.same {
				if got != tt.want {
					t.Errorf("MapError() = %v, want original error", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("MapError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	if got := repository.MapError(nil, errNotFound, errForbidden); got != nil {
		t.Errorf("MapError(nil) = %v, want nil", got)
	}
}
