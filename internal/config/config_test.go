package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/robotctl/internal/config"
	"codeberg.org/mutker/robotctl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "robotctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "debug"

[drive]
deadzone_movement = 0.1
deadzone_turn = 0.15
max_pwm = 2000
turn_scale = 0.75
loop_rate = 30

[servo]
channel = "0"
up = 150
down = 100
neutral = 80

[camera]
backend = "gst"
frame_timeout = "250ms"

[feedback]
delay = "3s"

[telemetry]
enabled = true
db_path = "/path/to/detections.db"
`)

	t.Setenv("ROBOTCTL_CONFIG", configPath)

	cfg, err := config.Load(config.WithArgs(nil))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel debug")
	assert.InDelta(t, 0.1, cfg.Drive.DeadZoneMovement, 1e-9)
	assert.InDelta(t, 0.15, cfg.Drive.DeadZoneTurn, 1e-9)
	assert.Equal(t, 2000, cfg.Drive.MaxPWM)
	assert.InDelta(t, 0.75, cfg.Drive.TurnScale, 1e-9)
	assert.InDelta(t, 30.0, cfg.Drive.LoopRate, 1e-9)
	assert.Equal(t, "0", cfg.Servo.Channel)
	assert.Equal(t, 150, cfg.Servo.Up)
	assert.Equal(t, 100, cfg.Servo.Down)
	assert.Equal(t, 80, cfg.Servo.Neutral)
	assert.Equal(t, "gst", cfg.Camera.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Camera.FrameTimeout)
	assert.Equal(t, 3*time.Second, cfg.Feedback.Delay)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "/path/to/detections.db", cfg.Telemetry.DBPath)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ROBOTCTL_CONFIG", "")

	cfg, err := config.Load(config.WithArgs(nil))
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.ModeAll, cfg.Mode)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.InDelta(t, 0.2, cfg.Drive.DeadZoneMovement, 1e-9)
	assert.InDelta(t, 0.2, cfg.Drive.DeadZoneTurn, 1e-9)
	assert.Equal(t, 4095, cfg.Drive.MaxPWM)
	assert.InDelta(t, 0.5, cfg.Drive.TurnScale, 1e-9)
	assert.InDelta(t, 60.0, cfg.Drive.LoopRate, 1e-9)
	assert.True(t, cfg.Drive.InvertForward)
	assert.Equal(t, 1, cfg.Gamepad.AxisForward)
	assert.Equal(t, 0, cfg.Gamepad.AxisStrafe)
	assert.Equal(t, 3, cfg.Gamepad.AxisTurn)
	assert.Equal(t, 7, cfg.Gamepad.ButtonUp)
	assert.Equal(t, 6, cfg.Gamepad.ButtonDown)
	assert.Equal(t, "1", cfg.Servo.Channel)
	assert.Equal(t, 160, cfg.Servo.Up)
	assert.Equal(t, 120, cfg.Servo.Down)
	assert.Equal(t, 90, cfg.Servo.Neutral)
	assert.True(t, cfg.Chassis.Enabled)
	assert.Equal(t, 0x40, cfg.Chassis.I2CAddress)
	assert.Equal(t, "4x4_50", cfg.Vision.Dictionary)
	assert.Equal(t, "aruco_images", cfg.Vision.OutputDir)
	assert.Equal(t, 2*time.Second, cfg.Feedback.Delay)
	assert.Equal(t, 500*time.Millisecond, cfg.Monitor.Interval)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, time.Second/60, cfg.Drive.LoopInterval())
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	configPath := writeConfig(t, `
This is not a valid TOML file
`)
	t.Setenv("ROBOTCTL_CONFIG", configPath)

	_, err := config.Load(config.WithArgs(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read configuration")
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestInvalidLogLevel(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "invalid"
`)
	t.Setenv("ROBOTCTL_CONFIG", configPath)

	_, err := config.Load(config.WithArgs(nil))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestFlagsOverrideFileAndEnv(t *testing.T) {
	configPath := writeConfig(t, `
[drive]
max_pwm = 1000
`)
	t.Setenv("ROBOTCTL_DRIVE_LOOP_RATE", "20")

	cfg, err := config.Load(
		config.WithConfigFile(configPath),
		config.WithArgs([]string{"--max-pwm", "3000", "--log-level", "debug", "--simulate", "vision"}),
	)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Drive.MaxPWM, "Expected MaxPWM to be set by flag")
	assert.InDelta(t, 20.0, cfg.Drive.LoopRate, 1e-9, "Expected LoopRate to be set by env")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Chassis.Enabled)
	assert.Equal(t, config.ModeVision, cfg.Mode)
	assert.False(t, cfg.Mode.Drive())
	assert.True(t, cfg.Mode.Vision())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"deadzone above one", "[drive]\ndeadzone_movement = 1.5\n", "drive.deadzone_movement"},
		{"zero max pwm", "[drive]\nmax_pwm = 0\n", "drive.max_pwm"},
		{"negative turn scale", "[drive]\nturn_scale = -0.1\n", "drive.turn_scale"},
		{"servo preset out of range", "[servo]\nup = 181\n", "servo.up"},
		{"servo bounds", "[servo]\nmax = 200\n", "servo.min/max"},
		{"unknown camera backend", "[camera]\nbackend = \"usb\"\n", "camera.backend"},
		{"zero delay", "[feedback]\ndelay = \"0s\"\n", "feedback.delay"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ROBOTCTL_CONFIG", writeConfig(t, tt.content))

			_, err := config.Load(config.WithArgs(nil))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))

			var verr config.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field())
		})
	}
}

func TestUnknownMode(t *testing.T) {
	t.Setenv("ROBOTCTL_CONFIG", "")

	_, err := config.Load(config.WithArgs([]string{"fly"}))
	require.Error(t, err)

	var verr config.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "mode", verr.Field())
}
