package messaging

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agv-lift/internal/types"
)

func TestTelemetryOmitsUnsetFields(t *testing.T) {
	on := true
	d := 17.15
	tm := Telemetry{LineLeft: &on, Distance: &d, Zone: "obstacle", Timestamp: "t0"}

	payload, err := json.Marshal(tm)
	require.NoError(t, err)
	assert.JSONEq(t, `{"line-left":true,"distance":17.15,"zone":"obstacle","timestamp":"t0"}`, string(payload))

	assert.Equal(t, map[string]interface{}{
		"telemetry:timestamp": "t0",
		"line-left":           true,
		"distance":            "17.15",
		"zone":                "obstacle",
	}, tm.fields())
}

func TestTelemetryWeightFields(t *testing.T) {
	w, target := 11.987, 12.0
	f := Telemetry{Weight: &w, TargetWeight: &target, Timestamp: "t1"}.fields()
	assert.Equal(t, "11.99", f["weight"])
	assert.Equal(t, "12.00", f["target-weight"])
	assert.NotContains(t, f, "distance")
}

func TestRunIDIsStable(t *testing.T) {
	r := NewRedisClient("localhost:6379", types.ControllerLift, nil)
	defer r.Close()
	assert.Len(t, r.Run(), 36)
	assert.Equal(t, r.Run(), r.Run())
}

func TestDiscard(t *testing.T) {
	var d Discard
	assert.NoError(t, d.PublishControllerState(types.StateIntake))
	assert.NoError(t, d.PublishTelemetry(Telemetry{}))
	assert.NoError(t, d.Close())
}
