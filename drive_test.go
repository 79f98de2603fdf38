package rvr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnDurationIncreasesWithAngle(t *testing.T) {
	d45 := TurnDuration(45, 100)
	d90 := TurnDuration(90, 100)
	d180 := TurnDuration(180, 100)

	assert.Less(t, d45, d90)
	assert.Less(t, d90, d180)
}

func TestTurnDurationLongerAtLowerSpeed(t *testing.T) {
	slow := TurnDuration(90, 40)
	fast := TurnDuration(90, 200)

	assert.Greater(t, slow, fast)
}

func TestTurnDurationAtReferenceSpeed(t *testing.T) {
	// at the pivot angle and reference speed only the friction term
	// remains: base * 90 * (1 + friction/speed)
	expected := turnBaseMsPerDegree * 90 * (1 + turnFrictionCoeff/turnReferenceSpeed)

	d := TurnDuration(90, 100)
	assert.InDelta(t, expected, float64(d)/float64(time.Millisecond), 0.01)
}

func TestTurnDurationSignInsensitive(t *testing.T) {
	assert.Equal(t, TurnDuration(90, 100), TurnDuration(-90, 100))
	assert.Equal(t, TurnDuration(90, 100), TurnDuration(90, -100))
}

func TestTurnDurationSmallAngleFinishesProportionallyFaster(t *testing.T) {
	// per degree cost shrinks below the pivot angle and grows above it
	perDegree30 := float64(TurnDuration(30, 100)) / 30
	perDegree90 := float64(TurnDuration(90, 100)) / 90
	perDegree270 := float64(TurnDuration(270, 100)) / 270

	assert.Less(t, perDegree30, perDegree90)
	assert.Greater(t, perDegree270, perDegree90)
}

func TestTurnDegreesDrivesOpposingTracksThenStops(t *testing.T) {
	r, ft := newTestRVR()

	r.TurnDegrees(5, 255) // small fast turn keeps the test quick

	require.GreaterOrEqual(t, ft.sentCount(), 2)

	drive := ft.sent[0]
	assert.EqualValues(t, motorForward, drive[6])
	assert.EqualValues(t, 255, drive[7])
	assert.EqualValues(t, motorReverse, drive[8])
	assert.EqualValues(t, 255, drive[9])

	stop := ft.lastSent()
	assert.Equal(t, []byte{motorOff, 0x00, motorOff, 0x00}, stop[6:10])
}

func TestTurnDegreesCounterClockwise(t *testing.T) {
	r, ft := newTestRVR()

	r.TurnDegrees(-5, 255)

	require.GreaterOrEqual(t, ft.sentCount(), 2)

	drive := ft.sent[0]
	assert.EqualValues(t, motorReverse, drive[6])
	assert.EqualValues(t, motorForward, drive[8])
}
