package database

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"stockflow/internal/config"
	"stockflow/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestDSN(t *testing.T) {
	cfg := &config.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "stockflow"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=stockflow sslmode=disable", DSN(cfg))

	cfg.DBSSLMode = "require"
	cfg.DBStatementTimeoutMS = 5000
	assert.Contains(t, DSN(cfg), "sslmode=require")
	assert.Contains(t, DSN(cfg), "statement_timeout=5000")
}

func TestAutoMigrate_SQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"companies", "users", "inventory_items", "purchase_requests", "stock_movements"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex(&models.PurchaseRequest{}, "idx_purchase_requests_company_status"))
}

func TestPersistentModels(t *testing.T) {
	var names []string
	for _, m := range PersistentModels() {
		if tabler, ok := m.(interface{ TableName() string }); ok {
			names = append(names, tabler.TableName())
		}
	}
	assert.ElementsMatch(t, []string{"companies", "users", "inventory_items", "purchase_requests", "stock_movements"}, names)
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		env      string
		allow    bool
		wantSQL  bool
		wantAuto bool
		wantErr  bool
	}{
		{"hybrid dev", "hybrid", "development", false, true, true, false},
		{"hybrid prod", "hybrid", "production", false, true, false, false},
		{"empty mode defaults to hybrid", "", "test", false, true, true, false},
		{"sql", "sql", "development", false, true, false, false},
		{"auto dev", "auto", "development", false, false, true, false},
		{"auto prod refused", "auto", "production", false, false, false, true},
		{"auto prod allowed", "auto", "prod", true, false, true, false},
		{"unknown mode", "yolo", "development", false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&config.Config{DBSchemaMode: tt.mode, Env: tt.env, DBAutoMigrateDestructive: tt.allow})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestApplySchema_AutoModeOnSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	cfg := &config.Config{DBSchemaMode: "auto", Env: "test"}
	require.NoError(t, ApplySchema(context.Background(), db, cfg))
	assert.True(t, db.Migrator().HasTable("purchase_requests"))

	status, err := GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.False(t, status.WillRunSQL)
	assert.True(t, status.WillRunAutoMigrate)
}

func TestEmbeddedMigrations(t *testing.T) {
	all := GetMigrations()
	require.Len(t, all, 4)
	for i, m := range all {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.UpScript)
		assert.NotEmpty(t, m.DownScript)
	}
	assert.Equal(t, "000003_create_purchase_requests", all[2].String())
	assert.NotNil(t, GetMigrationByVersion(4))
	assert.Nil(t, GetMigrationByVersion(99))
}

func TestParseMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_second.up.sql":   {Data: []byte("B")},
		"m/000002_second.down.sql": {Data: []byte("b")},
		"m/000001_first.up.sql":    {Data: []byte("A")},
		"m/000001_first.down.sql":  {Data: []byte("a")},
		"m/README.md":              {Data: []byte("ignored")},
		"m/bad.up.sql":             {Data: []byte("skipped")},
	}

	got, err := ParseMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Name)
	assert.Equal(t, "B", got[1].UpScript)

	missingDown := fstest.MapFS{"m/000001_first.up.sql": {Data: []byte("A")}}
	_, err = ParseMigrations(missingDown, "m")
	assert.Error(t, err)
}

func TestValidateAppliedVersions(t *testing.T) {
	registered := []Migration{{Version: 1}, {Version: 2}}
	assert.NoError(t, validateAppliedVersions(nil, registered))
	assert.NoError(t, validateAppliedVersions([]int{1, 2}, registered))

	err := validateAppliedVersions([]int{1, 7}, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000007")
}

type fakeMigrationStore struct {
	applied    []int
	applyCalls []int
	failOn     int
}

func (f *fakeMigrationStore) GetAppliedMigrations(context.Context) ([]int, error) {
	return f.applied, nil
}

func (f *fakeMigrationStore) ApplyMigration(_ context.Context, version int, _, _ string) error {
	if version == f.failOn {
		return errors.New("boom")
	}
	f.applyCalls = append(f.applyCalls, version)
	f.applied = append(f.applied, version)
	return nil
}

func (f *fakeMigrationStore) RemoveMigration(context.Context, int) error { return nil }

func TestApplyPending(t *testing.T) {
	registered := []Migration{{Version: 1, Name: "a"}, {Version: 2, Name: "b"}, {Version: 3, Name: "c"}}

	store := &fakeMigrationStore{applied: []int{1}}
	require.NoError(t, applyPending(context.Background(), store, registered))
	assert.Equal(t, []int{2, 3}, store.applyCalls)

	failing := &fakeMigrationStore{failOn: 2}
	err := applyPending(context.Background(), failing, registered)
	assert.Error(t, err)
	assert.Equal(t, []int{1}, failing.applyCalls, "stops at the first failure")
}

func TestMigrationStore_ApplyMigration(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE things").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "migration_logs"`).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, NewMigrationStore(db).ApplyMigration(context.Background(), 5, "things", "CREATE TABLE things (id INT)"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRollbackLatest_SQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	ctx := context.Background()

	_, err = RollbackLatest(ctx, db)
	assert.ErrorContains(t, err, "no applied migrations")

	require.NoError(t, AutoMigrate(db))
	require.NoError(t, db.AutoMigrate(&MigrationLog{}))
	require.NoError(t, db.Create(&[]MigrationLog{
		{Version: 3, Name: "create_purchase_requests"},
		{Version: 4, Name: "create_stock_movements"},
	}).Error)

	version, err := RollbackLatest(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 4, version)
	assert.False(t, db.Migrator().HasTable("stock_movements"))

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, applied)

	assert.ErrorContains(t, RollbackMigration(ctx, db, 1), "has not been applied")
	assert.ErrorContains(t, RollbackMigration(ctx, db, 99), "not found")
}
