package robot

import (
	"errors"
	"io"
	"testing"
)

func TestCycleError(t *testing.T) {
	err := &CycleError{Cycle: 12, Phase: "running", Op: "read sensors", Wrapped: io.ErrUnexpectedEOF}

	want := "running: cycle 12: read sensors: unexpected EOF"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("CycleError should unwrap to the collaborator error")
	}

	var ce *CycleError
	if !errors.As(error(err), &ce) || ce.Cycle != 12 {
		t.Error("errors.As should recover the cycle context")
	}
}

func TestChannelString(t *testing.T) {
	tests := []struct {
		ch   Channel
		want string
	}{
		{Left, "L"},
		{Right, "R"},
		{Channel(7), "Channel(7)"},
	}
	for _, tt := range tests {
		if got := tt.ch.String(); got != tt.want {
			t.Errorf("Channel(%d).String() = %q, want %q", int(tt.ch), got, tt.want)
		}
	}
}

func TestMotorCommandPower(t *testing.T) {
	m := MotorCommand{Left: 0.1, Right: 0.2}
	if m.Power(Left) != 0.1 || m.Power(Right) != 0.2 {
		t.Errorf("Power() mismatch for %+v", m)
	}
}

func TestSensorReadingString(t *testing.T) {
	r := SensorReading{0, 120, 980, 40, 7}
	if got := r.String(); got != "0 120 980 40 7" {
		t.Errorf("String() = %q", got)
	}
}
