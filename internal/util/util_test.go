package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadTestConfigIsValid(t *testing.T) {

	assert := assert.New(t)

	cfg := LoadTestConfig()
	assert.NoError(cfg.Validate())
	assert.Equal("solaredge", cfg.MQTT.BaseTopic)
}
