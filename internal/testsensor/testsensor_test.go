package testsensor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jayjanssen/motor-monitor-bench/internal/schema"
)

func TestSeedMatchesSensorIDEncoding(t *testing.T) {
	assert.Equal(t, uint32(11), Seed(2, schema.SensorTorque))
}

func TestStreamIsDeterministic(t *testing.T) {
	a := Stream(0, schema.SensorAirTemperature, 0, 5, 1000)
	b := Stream(0, schema.SensorAirTemperature, 0, 5, 1000)
	assert.Equal(t, a, b)
	assert.Len(t, a, 5)
}

func TestStreamVariesBySensorIndex(t *testing.T) {
	air := Stream(0, schema.SensorAirTemperature, 0, 10, 1000)
	torque := Stream(0, schema.SensorTorque, 0, 10, 1000)
	assert.NotEqual(t, air, torque)
}

func TestMessagesEncodeSensorID(t *testing.T) {
	msgs := Messages(3, schema.SensorRotationalSpeed, 0, 2, 1000)
	for _, m := range msgs {
		assert.Equal(t, uint32(3), m.MotorID())
		assert.Equal(t, schema.SensorRotationalSpeed, m.Index())
	}
}
