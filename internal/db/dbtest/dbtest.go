// Package dbtest provides an in-memory database for tests.
package dbtest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"curator/internal/db"
)

// Open 返回一个迁移完成的内存 sqlite 数据库。连接数限制为 1，
// 否则每个新连接都会看到一个空库。
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Connect(sqlite.Open("file::memory:?_foreign_keys=on"))
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}
