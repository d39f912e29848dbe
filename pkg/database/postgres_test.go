package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ivc-chiapas/folios-console/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "folios_console", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=folios_console sslmode=disable", dsn)
}
