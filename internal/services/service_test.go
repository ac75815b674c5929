package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aethra/fleetdesk/internal/engine"
	apperrors "github.com/aethra/fleetdesk/internal/errors"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 conn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func newDeviceService(t *testing.T, db *gorm.DB) *EntityService {
	t.Helper()
	svc, err := NewEntityService(db, deviceDescriptor(), nil)
	require.NoError(t, err)
	return svc
}

func TestNewEntityServiceRejectsBadIdentifiers(t *testing.T) {
	db, _ := newMockDB(t)

	_, err := NewEntityService(db, Descriptor{Table: "devices; DROP TABLE"}, nil)
	assert.Error(t, err)

	_, err = NewEntityService(db, Descriptor{
		Table:         "devices",
		SearchColumns: []string{"serial_number", `bad"col`},
	}, nil)
	assert.Error(t, err)

	_, err = NewEntityService(db, Descriptor{
		Table: "devices",
		References: []Reference{
			{Table: "vehicles", ForeignKey: "vehicle_id; --", LabelColumn: "name", As: "vehicle_name"},
		},
	}, nil)
	assert.Error(t, err)

	_, err = NewEntityService(db, Descriptor{
		Table:       "devices",
		DefaultSort: "created_at; DROP TABLE devices",
	}, nil)
	assert.Error(t, err)
}

func TestListExcludesSoftDeletedByDefault(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newDeviceService(t, db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "devices" WHERE "devices"\."deleted_at" IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT "devices"\.\*, "vehicles"\."name" AS "vehicle_name" FROM "devices" LEFT JOIN "vehicles" ON "vehicles"\."id" = "devices"\."vehicle_id" WHERE "devices"\."deleted_at" IS NULL.*LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "serial_number"}).
			AddRow("d1", "SN-1").
			AddRow("d2", "SN-2"))

	result, err := svc.List(context.Background(), engine.ListParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, result.Data, 2)
	assert.Equal(t, int64(2), result.Meta.TotalElements)
	assert.Equal(t, 1, result.Meta.TotalPages)
	assert.Equal(t, "SN-1", result.Data[0]["serial_number"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListIncludeDeletedSkipsTheGuard(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newDeviceService(t, db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "devices"$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT "devices"\.\*.* FROM "devices" LEFT JOIN "vehicles".*ORDER BY "devices"\."created_at" DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.List(context.Background(), engine.ListParams{
		Page: 1, PageSize: 10,
		Filters: map[string]any{FilterIncludeDeleted: "true"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSearchEscapesLikeWildcards(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newDeviceService(t, db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "devices" WHERE "devices"\."deleted_at" IS NULL AND \("devices"\."serial_number"::text ILIKE .* OR "devices"\."imei"::text ILIKE .* OR "devices"\."model"::text ILIKE .*\)`).
		WithArgs(`%SN\_%`, `%SN\_%`, `%SN\_%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT "devices"\.\*`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.List(context.Background(), engine.ListParams{Page: 1, PageSize: 10, Search: "SN_"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListIgnoresNonWhitelistedFilters(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newDeviceService(t, db)

	// "password_hash" is not a declared filter column and must not appear.
	mock.ExpectQuery(`SELECT count\(\*\) FROM "devices" WHERE "devices"\."deleted_at" IS NULL AND "devices"\."status" = `).
		WithArgs("active").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT "devices"\.\*`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.List(context.Background(), engine.ListParams{
		Page: 1, PageSize: 10,
		Filters: map[string]any{"status": "active", "password_hash": "x"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListJoinsReferenceLabels(t *testing.T) {
	db, mock := newMockDB(t)
	svc, err := NewEntityService(db, userDescriptor(), nil)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE "users"\."deleted_at" IS NULL`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT "users"\.\*, "roles"\."name" AS "role_name" FROM "users" LEFT JOIN "roles" ON "roles"\."id" = "users"\."role_id" WHERE "users"\."deleted_at" IS NULL ORDER BY "users"\."created_at" DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "last_name", "role_name"}).
			AddRow("u1", "ops@fleet.io", "Vasquez", "Administrator"))

	result, err := svc.List(context.Background(), engine.ListParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "Administrator", result.Data[0]["role_name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newDeviceService(t, db)

	mock.ExpectQuery(`SELECT \* FROM "devices" WHERE id = `).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Get(context.Background(), "missing")
	var notFound *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDeleteIsSoft(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newDeviceService(t, db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "devices" SET "deleted_at"=.* WHERE id = .* AND deleted_at IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := svc.Delete(context.Background(), "d1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingRowIsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newDeviceService(t, db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "devices"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err := svc.Delete(context.Background(), "missing")
	var notFound *apperrors.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestRestoreClearsDeletedAt(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newDeviceService(t, db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "devices" SET "deleted_at"=.* WHERE id = .* AND deleted_at IS NOT NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := svc.Restore(context.Background(), "d1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHardDeleteIssuesRealDelete(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newDeviceService(t, db)

	mock.ExpectExec(`DELETE FROM "devices" WHERE id = `).
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := svc.HardDelete(context.Background(), "d1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStripsImmutableFields(t *testing.T) {
	db, mock := newMockDB(t)
	svc := newDeviceService(t, db)

	// serial_number is immutable for devices; only model and updated_at
	// may appear in the SET clause.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "devices" SET "model"=.*,"updated_at"=.* WHERE id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	input := engine.Row{"model": "TK-200", "serial_number": "tampered", "id": "other", "created_at": "x"}
	_, err := svc.Update(context.Background(), "d1", input)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	// The caller's map is untouched.
	assert.Equal(t, "tampered", input["serial_number"])
}

func TestUserPreparerHashesPassword(t *testing.T) {
	prepare := prepareUserPayload(true)

	input := engine.Row{"email": "  Admin@Fleet.IO ", "password": "s3cret-pass"}
	require.NoError(t, prepare(context.Background(), input))

	assert.Equal(t, "admin@fleet.io", input["email"])
	_, hasPlain := input["password"]
	assert.False(t, hasPlain)

	hash, ok := input["password_hash"].(string)
	require.True(t, ok)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret-pass")))
}

func TestUserPreparerValidation(t *testing.T) {
	create := prepareUserPayload(true)
	err := create(context.Background(), engine.Row{"email": "a@b.c"})
	var validation *apperrors.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "password", validation.Field)

	err = create(context.Background(), engine.Row{"email": "a@b.c", "password": "short"})
	assert.Error(t, err)

	// Updates may omit the password entirely.
	update := prepareUserPayload(false)
	input := engine.Row{"email": "a@b.c"}
	require.NoError(t, update(context.Background(), input))
	_, hasHash := input["password_hash"]
	assert.False(t, hasHash)
}

func TestRegistryByName(t *testing.T) {
	db, _ := newMockDB(t)
	reg, err := NewRegistry(db)
	require.NoError(t, err)

	assert.Same(t, reg.Devices, reg.ByName("devices"))
	assert.Same(t, reg.VehicleTypes, reg.ByName("vehicle-types"))
	assert.Same(t, reg.SubscriptionPlans, reg.ByName("subscription-plans"))
	assert.Nil(t, reg.ByName("unknown"))
}
