package kb

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ppiankov/chronoqa/internal/model"
)

func TestLoadSQL_Sqlmock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectEntitiesSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "type", "domain", "countries"}).
			AddRow("ww1", "World War I", "event", "military", "France|Germany").
			AddRow("ww2", "World War II", "event", "military", nil))

	mock.ExpectQuery(regexp.QuoteMeta(selectFactsSQL)).
		WillReturnRows(sqlmock.NewRows([]string{"subject", "predicate", "object", "kind", "country", "domain", "source", "confidence"}).
			AddRow("ww1", "began", "1914-07-28", "date", nil, nil, "curated", 1.0).
			AddRow("ww1", "caused", "ww2", "entity", nil, nil, "curated", 0.8).
			AddRow("ww1", "ended", "1918-11-11", "date", nil, nil, "curated", nil).
			AddRow("ww2", "began", "1939-09-01", nil, nil, nil, "curated", nil))

	k, err := LoadSQL(context.Background(), db)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	ww1, err := k.Event("ww1")
	require.NoError(t, err)
	assert.Equal(t, []string{"France", "Germany"}, ww1.Countries)
	assert.Equal(t, model.DayDate(1918, 11, 11), *ww1.End)

	// kind defaults from the predicate when the column is null
	ww2, err := k.Event("ww2")
	require.NoError(t, err)
	assert.Equal(t, model.DayDate(1939, 9, 1), ww2.Start)

	assert.Len(t, k.Relations(model.PredCaused), 1)
}

func TestLoadSQL_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectEntitiesSQL)).WillReturnError(sql.ErrConnDone)

	_, err = LoadSQL(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query entities")
}

func TestWriteSQLRoundTrip(t *testing.T) {
	db, err := OpenSQLite(":memory:", zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	defer db.Close()
	// one connection keeps the in-memory database alive across statements
	db.SetMaxOpenConns(1)

	want := mustLoad(t)
	require.NoError(t, WriteSQL(context.Background(), db, want))

	got, err := LoadSQL(context.Background(), db)
	require.NoError(t, err)

	assert.Equal(t, want.Facts(), got.Facts())
	assert.Equal(t, want.Stats(), got.Stats())
	assert.Equal(t, ids(want.Events()), ids(got.Events()))
}
