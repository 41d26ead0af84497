package postgresql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitWithoutConfig(t *testing.T) {
	c := Connector{}
	assert.Error(t, c.Init(nil))
}

func TestSaveNil(t *testing.T) {
	c := Connector{}
	assert.Error(t, c.Save(nil))
}
