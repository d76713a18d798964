package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "communes", []string{"code_commune", "nom_commune"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"communes"}, []string{"code_commune", "nom_commune"}).WillReturnResult(3)

	rows := [][]any{{"75056", "Paris"}, {"69123", "Lyon"}, {"13055", "Marseille"}}
	n, err := CopyFrom(context.Background(), mock, "communes", []string{"code_commune", "nom_commune"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"communes"}, []string{"code_commune"}).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{"75056"}}
	_, err = CopyFrom(context.Background(), mock, "communes", []string{"code_commune"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO communes")
	assert.NoError(t, mock.ExpectationsWereMet())
}
