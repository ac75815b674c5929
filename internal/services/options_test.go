package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aethra/fleetdesk/internal/engine"
)

func TestOptionSourceRejectsBadIdentifiers(t *testing.T) {
	db, _ := newMockDB(t)
	_, err := NewOptionSource(db, "roles; DROP TABLE roles", "id", "name")
	assert.Error(t, err)
	_, err = NewOptionSource(db, "roles", "id", "name--")
	assert.Error(t, err)
}

func TestOptionSourceLoad(t *testing.T) {
	db, mock := newMockDB(t)
	source, err := NewOptionSource(db, "roles", "id", "name")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT "id"::text AS v, "name" AS l FROM "roles" WHERE deleted_at IS NULL ORDER BY "name" ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"v", "l"}).
			AddRow("r1", "Administrator").
			AddRow("r2", "Viewer"))

	options, err := source.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []engine.FilterOption{
		{Value: "r1", Label: "Administrator"},
		{Value: "r2", Label: "Viewer"},
	}, options)
	assert.NoError(t, mock.ExpectationsWereMet())
}
