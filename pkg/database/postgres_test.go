package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tutormatch/tutormatch-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5432,
		User:     "tutor",
		Password: "secret",
		Name:     "tutormatch",
		SSLMode:  "disable",
	})

	assert.Equal(t, "host=db port=5432 user=tutor password=secret dbname=tutormatch sslmode=disable", dsn)
}
