package mysqldb_test

import (
	"testing"

	"github.com/fazamuttaqien/lendora/config"
	mysqldb "github.com/fazamuttaqien/lendora/infra/mysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromConfigBuildsDSN(t *testing.T) {
	cfg := &config.Config{
		MYSQL_HOST:     "db.internal",
		MYSQL_PORT:     "3307",
		MYSQL_USER:     "lendora",
		MYSQL_PASSWORD: "s3cret",
		MYSQL_DBNAME:   "lendora",
	}

	dbCfg, err := mysqldb.FromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t,
		"lendora:s3cret@tcp(db.internal:3307)/lendora?charset=utf8mb4&parseTime=true&loc=Local",
		dbCfg.BuildDSN())
}

func TestFromConfigRejectsBadPort(t *testing.T) {
	_, err := mysqldb.FromConfig(&config.Config{MYSQL_PORT: "mysql"})
	assert.Error(t, err)
}
