package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/drive-backup-api/pkg/errors"
)

func newSQLStoreMock(t *testing.T) (*SQLStore, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewSQLStore(sqlxDB), mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestSQLStoreDownload(t *testing.T) {
	s, mock, cleanup := newSQLStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT headers FROM tabular_sheets").
		WithArgs("backup-registry", "PoolRegistry").
		WillReturnRows(sqlmock.NewRows([]string{"headers"}).AddRow([]byte(`["DriveName","DriveID","IsFull","LastUpdated"]`)))
	mock.ExpectQuery("SELECT data FROM tabular_rows").
		WithArgs("backup-registry", "PoolRegistry").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).
			AddRow([]byte(`{"DriveName":"Legacydrivebackup","DriveID":"0AAbc","IsFull":"FALSE"}`)))

	table, err := s.Download(context.Background(), "backup-registry", "PoolRegistry")
	require.NoError(t, err)
	assert.Equal(t, []string{"DriveName", "DriveID", "IsFull", "LastUpdated"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "FALSE", table.Rows[0]["IsFull"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStoreDownloadMissingSheet(t *testing.T) {
	s, mock, cleanup := newSQLStoreMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT headers FROM tabular_sheets").
		WithArgs("backup-registry", "Nope").
		WillReturnRows(sqlmock.NewRows([]string{"headers"}))

	_, err := s.Download(context.Background(), "backup-registry", "Nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSQLStoreUpload(t *testing.T) {
	s, mock, cleanup := newSQLStoreMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tabular_sheets").
		WithArgs("backup-registry", "OversizedUsers", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM tabular_rows").
		WithArgs("backup-registry", "OversizedUsers").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO tabular_rows").
		WithArgs("backup-registry", "OversizedUsers", 0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	table := Table{
		Headers: []string{"UserEmail", "FileCount"},
		Rows:    []map[string]string{{"UserEmail": "a@example.com", "FileCount": "100"}},
	}
	require.NoError(t, s.Upload(context.Background(), "backup-registry", "OversizedUsers", table))
	require.NoError(t, mock.ExpectationsWereMet())
}
