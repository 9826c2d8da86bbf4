package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/linebot/internal/config"
	"github.com/san-kum/linebot/internal/control"
	"github.com/san-kum/linebot/internal/loop"
	"github.com/san-kum/linebot/internal/robot"
)

func newRobotCmd(t *testing.T, flags ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addRobotFlags(cmd)
	require.NoError(t, cmd.ParseFlags(flags))
	return cmd
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := resolveConfig(newRobotCmd(t), nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestResolveConfigPresetAndFlags(t *testing.T) {
	cmd := newRobotCmd(t, "--preset", "gentle", "--kp", "2", "--seed", "9", "-v")
	cfg, err := resolveConfig(cmd, []string{"zigzag"})
	require.NoError(t, err)

	gentle := config.GetPreset("gentle")
	assert.Equal(t, 2.0, cfg.Gains.Kp)
	assert.Equal(t, gentle.Gains.Kd, cfg.Gains.Kd)
	assert.Equal(t, gentle.Motor, cfg.Motor)
	assert.Equal(t, int64(9), cfg.Sim.Seed)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "zigzag", cfg.Sim.Course)
}

func TestResolveConfigFileKeepsUnchangedFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gains:\n  kd: 5\nsim:\n  noise: 3\n"), 0644))

	cfg, err := resolveConfig(newRobotCmd(t, "--config", path, "--noise", "7"), nil)
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.Gains.Kd)
	assert.Equal(t, config.DefaultKp, cfg.Gains.Kp)
	assert.Equal(t, 7.0, cfg.Sim.Noise)
}

func TestResolveConfigFailsFast(t *testing.T) {
	tests := []struct {
		name  string
		flags []string
	}{
		{"nan gain", []string{"--kd", "NaN"}},
		{"zero dt", []string{"--dt", "0"}},
		{"negative cycles", []string{"--max-cycles", "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveConfig(newRobotCmd(t, tt.flags...), nil)
			assert.ErrorIs(t, err, robot.ErrInvalidConfig)
		})
	}

	_, err := resolveConfig(newRobotCmd(t, "--preset", "turbo"), nil)
	assert.ErrorContains(t, err, "unknown preset")

	_, err = resolveConfig(newRobotCmd(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")), nil)
	assert.ErrorContains(t, err, "failed to load config")
}

func TestNoiseFlagDescribesAmplitude(t *testing.T) {
	f := newRobotCmd(t).Flags().Lookup("noise")
	require.NotNil(t, f)
	assert.Contains(t, f.Usage, "amplitude")
	assert.NotContains(t, f.Usage, "std dev")
}

type brokenPipe struct{}

func (brokenPipe) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriteCyclesCSV(t *testing.T) {
	cycles := []loop.Cycle{{
		Index:    4,
		Position: 0.5,
		Detected: true,
		Terms:    control.Terms{Proportional: 0.5, Integral: 2.5, Derivative: 0.25, Output: 1.25},
	}}

	var out bytes.Buffer
	require.NoError(t, writeCyclesCSV(&out, cycles))
	assert.Equal(t,
		"cycle,position,detected,p,i,d,control,left,right\n"+
			"4,0.500000,true,0.500000,2.500000,0.250000,1.250000,0.000000,0.000000\n",
		out.String())

	assert.ErrorContains(t, writeCyclesCSV(brokenPipe{}, cycles), "broken pipe")
}
