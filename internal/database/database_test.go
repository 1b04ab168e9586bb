package database

import (
	"context"
	"testing"

	"github.com/example/tidytasks/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpen_SQLiteMemory(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Migrate(db))
	assert.NoError(t, Ping(context.Background(), db))

	for _, table := range []string{"users", "task_lists", "tasks"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	var fk int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fk).Error)
	assert.Equal(t, 1, fk)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}

func TestPing_NilDB(t *testing.T) {
	assert.Error(t, Ping(context.Background(), nil))
	assert.NoError(t, Close(nil))
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "sqlite file", got: sqliteDSN("tidytasks.db"), want: "tidytasks.db?_foreign_keys=on"},
		{name: "sqlite with params", got: sqliteDSN("file:test.db?cache=shared"), want: "file:test.db?cache=shared&_foreign_keys=on"},
		{name: "sqlite already set", got: sqliteDSN("x.db?_foreign_keys=off"), want: "x.db?_foreign_keys=off"},
		{
			name: "postgres",
			got: postgresDSN(config.DatabaseConfig{
				Host: "db", Port: 5432, User: "u", Password: "p", Name: "tidy", SSLMode: "disable",
			}),
			want: "host=db port=5432 user=u password=p dbname=tidy sslmode=disable",
		},
		{
			name: "mysql",
			got: mysqlDSN(config.DatabaseConfig{
				Host: "db", Port: 3306, User: "u", Password: "p", Name: "tidy",
			}),
			want: "u:p@tcp(db:3306)/tidy?charset=utf8mb4&parseTime=True&loc=UTC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
