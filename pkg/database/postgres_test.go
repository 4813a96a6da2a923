package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/camp-autoscheduler/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "orga", Password: "pw", Name: "camp_program"})

	assert.Equal(t, "host=db port=5432 user=orga password=pw dbname=camp_program sslmode=disable application_name=camp-autoscheduler", dsn)
}
