package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_FailsWithoutPostgres(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("LOG_LEVEL", "error")

	assert.Equal(t, 1, run())
}

func TestRun_FailsOnInvalidConfiguration(t *testing.T) {
	t.Setenv("ORDER_SHIP_AFTER_HOURS", "soon")
	t.Setenv("LOG_LEVEL", "error")

	assert.Equal(t, 1, run())
}
