package direct

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/carfinder/internal/gateway"
	"github.com/dmitrijs2005/carfinder/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSelect(t *testing.T) {
	pat := gateway.Contains("toy")
	q, args, err := buildSelect("cars", gateway.Where(
		gateway.Eq("status", "LOST"),
		gateway.Or(gateway.ILike("make", pat), gateway.ILike("model", pat)),
	))
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT coalesce(json_agg(t), '[]'::json) FROM (SELECT * FROM cars WHERE status::text = $1 AND (make ILIKE $2 OR model ILIKE $3) ORDER BY id) t`,
		q)
	assert.Equal(t, []any{"LOST", "%toy%", "%toy%"}, args)

	q, args, err = buildSelect("cars", nil)
	require.NoError(t, err)
	assert.Equal(t, `SELECT coalesce(json_agg(t), '[]'::json) FROM (SELECT * FROM cars ORDER BY id) t`, q)
	assert.Empty(t, args)

	q, _, err = buildSelect("cars", gateway.Where(gateway.Or()))
	require.NoError(t, err)
	assert.Contains(t, q, "WHERE FALSE")
}

func TestBuildSelect_RejectsUnknownIdentifiers(t *testing.T) {
	_, _, err := buildSelect("users", nil)
	re, ok := gateway.IsRemote(err)
	require.True(t, ok)
	assert.Equal(t, "unknown_table", re.Code)

	_, _, err = buildSelect("cars", gateway.Where(gateway.Eq("1=1; DROP TABLE cars; --", "x")))
	re, ok = gateway.IsRemote(err)
	require.True(t, ok)
	assert.Equal(t, "unknown_column", re.Code)

	_, _, err = buildSelect("cars", gateway.Where(gateway.Or(gateway.ILike("nope", "%"))))
	require.Error(t, err)

	_, _, err = buildSelect("cars", gateway.Filter{{Op: "gt", Column: "year"}})
	re, ok = gateway.IsRemote(err)
	require.True(t, ok)
	assert.Equal(t, "unsupported_filter", re.Code)
}

func TestBuildInsert_DropsIDAndSortsColumns(t *testing.T) {
	q, args, err := buildInsert("cars", map[string]any{"id": 99, "status": "FOUND", "make": "VW", "model": "Golf"})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO cars (make, model, status) VALUES ($1, $2, $3)", q)
	assert.Equal(t, []any{"VW", "Golf", "FOUND"}, args)

	_, _, err = buildInsert("cars", map[string]any{"owner": "x"})
	require.Error(t, err)

	q, _, err = buildInsert("cars", map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO cars DEFAULT VALUES", q)
}

func TestSelect_DecodesRows(t *testing.T) {
	g, mock, _ := newMockGateway(t)

	rows := sqlmock.NewRows([]string{"coalesce"}).AddRow([]byte(
		`[{"id":2,"created_at":"2026-10-19T11:00:00.123+00:00","make":"Honda","model":"Civic","year":2012,"status":"FOUND","user_id":"u-1"}]`))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM cars WHERE status::text = $1 ORDER BY id`)).
		WithArgs("FOUND").
		WillReturnRows(rows)

	var cars []models.Car
	err := g.Select(context.Background(), "cars", gateway.Where(gateway.Eq("status", "FOUND")), &cars)
	require.NoError(t, err)
	require.Len(t, cars, 1)
	assert.Equal(t, int64(2), cars[0].ID)
	require.NotNil(t, cars[0].CreatedAt)
	require.NotNil(t, cars[0].Year)
	assert.Equal(t, 2012, *cars[0].Year)
	assert.Equal(t, models.CarStatusFound, cars[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelect_DBErrorIsRemote(t *testing.T) {
	g, mock, _ := newMockGateway(t)
	mock.ExpectQuery("FROM cars").WillReturnError(errors.New("db down"))

	var cars []models.Car
	err := g.Select(context.Background(), "cars", nil, &cars)
	re, ok := gateway.IsRemote(err)
	require.True(t, ok)
	assert.Equal(t, "db_error", re.Code)
	assert.Equal(t, http.StatusInternalServerError, re.Status)
	assert.Contains(t, re.Message, "db down")
}

func TestInsert_RequiresSession(t *testing.T) {
	g, mock, _ := newMockGateway(t)
	err := g.Insert(context.Background(), "cars", map[string]any{"make": "VW"})
	require.ErrorIs(t, err, gateway.ErrUnauthenticated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_ExecutesRecord(t *testing.T) {
	g, mock, _ := newMockGateway(t)
	signIn(t, g, "11111111-1111-1111-1111-111111111111")

	car := models.Car{Make: "Toyota", Model: "Corolla", Status: models.CarStatusLost, Color: models.StringPtr("red")}
	rec := car.InsertRecord("11111111-1111-1111-1111-111111111111", testNow)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO cars (chassis_number, color, contact_info, created_at, description, image_url, license_plate, make, model, status, user_id, year) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)")).
		WithArgs(nil, "red", nil, "2026-10-19T11:00:00Z", nil, nil, nil, "Toyota", "Corolla", "LOST", "11111111-1111-1111-1111-111111111111", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, g.Insert(context.Background(), "cars", rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_PgErrorKeepsCode(t *testing.T) {
	g, mock, _ := newMockGateway(t)
	signIn(t, g, "u-1")

	mock.ExpectExec("INSERT INTO cars").
		WillReturnError(&pgconn.PgError{Code: "23514", Message: `new row for relation "cars" violates check constraint "cars_status_check"`})

	err := g.Insert(context.Background(), "cars", map[string]any{"make": "VW", "model": "Golf", "status": "STOLEN"})
	re, ok := gateway.IsRemote(err)
	require.True(t, ok)
	assert.Equal(t, "23514", re.Code)
	assert.Equal(t, http.StatusBadRequest, re.Status)
}
