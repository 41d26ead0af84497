package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDSN(t *testing.T) {
	got := dsn(map[string]string{
		"host":     "db",
		"port":     "3306",
		"user":     "fleet",
		"password": "secret",
		"database": "tracking",
	})

	assert.Equal(t, "fleet:secret@tcp(db:3306)/tracking", got)
}

func TestInitWithoutConfig(t *testing.T) {
	c := Connector{}
	assert.Error(t, c.Init(nil))
}
