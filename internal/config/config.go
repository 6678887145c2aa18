package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/robotctl/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel  = "info"
	DefaultEnvPrefix = "ROBOTCTL"
	configName       = "robotctl"
)

type Config struct {
	Mode      Mode            `mapstructure:"mode"`
	LogLevel  string          `mapstructure:"log_level"`
	Drive     DriveConfig     `mapstructure:"drive"`
	Gamepad   GamepadConfig   `mapstructure:"gamepad"`
	Servo     ServoConfig     `mapstructure:"servo"`
	Chassis   ChassisConfig   `mapstructure:"chassis"`
	Camera    CameraConfig    `mapstructure:"camera"`
	Vision    VisionConfig    `mapstructure:"vision"`
	Feedback  FeedbackConfig  `mapstructure:"feedback"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type DriveConfig struct {
	DeadZoneMovement float64 `mapstructure:"deadzone_movement"`
	DeadZoneTurn     float64 `mapstructure:"deadzone_turn"`
	MaxPWM           int     `mapstructure:"max_pwm"`
	TurnScale        float64 `mapstructure:"turn_scale"`
	LoopRate         float64 `mapstructure:"loop_rate"`
	InvertForward    bool    `mapstructure:"invert_forward"`
}

type GamepadConfig struct {
	Device      int `mapstructure:"device"`
	AxisForward int `mapstructure:"axis_forward"`
	AxisStrafe  int `mapstructure:"axis_strafe"`
	AxisTurn    int `mapstructure:"axis_turn"`
	Hats        int `mapstructure:"hats"`
	ButtonUp    int `mapstructure:"button_up"`
	ButtonDown  int `mapstructure:"button_down"`
	ButtonQuit  int `mapstructure:"button_quit"`
}

type ServoConfig struct {
	Channel string `mapstructure:"channel"`
	Up      int    `mapstructure:"up"`
	Down    int    `mapstructure:"down"`
	Neutral int    `mapstructure:"neutral"`
	Min     int    `mapstructure:"min"`
	Max     int    `mapstructure:"max"`
}

type ChassisConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	I2CBus     int     `mapstructure:"i2c_bus"`
	I2CAddress int     `mapstructure:"i2c_address"`
	PWMFreq    float64 `mapstructure:"pwm_freq"`
	BuzzerPin  string  `mapstructure:"buzzer_pin"`
}

type CameraConfig struct {
	Backend      string        `mapstructure:"backend"`
	Device       string        `mapstructure:"device"`
	Width        int           `mapstructure:"width"`
	Height       int           `mapstructure:"height"`
	FrameTimeout time.Duration `mapstructure:"frame_timeout"`
}

type VisionConfig struct {
	Dictionary string `mapstructure:"dictionary"`
	SaveImages bool   `mapstructure:"save_images"`
	OutputDir  string `mapstructure:"output_dir"`
}

type FeedbackConfig struct {
	Delay     time.Duration `mapstructure:"delay"`
	QueueSize int           `mapstructure:"queue_size"`
}

type MonitorConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DBPath       string `mapstructure:"db_path"`
	BatchSize    int    `mapstructure:"batch_size"`
	BatchTimeout int    `mapstructure:"batch_timeout"`
}

type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

var defaults = map[string]interface{}{
	"mode":      string(ModeAll),
	"log_level": DefaultLogLevel,

	"drive.deadzone_movement": 0.2,
	"drive.deadzone_turn":     0.2,
	"drive.max_pwm":           4095,
	"drive.turn_scale":        0.5,
	"drive.loop_rate":         60.0,
	"drive.invert_forward":    true,

	"gamepad.device":       0,
	"gamepad.axis_forward": 1,
	"gamepad.axis_strafe":  0,
	"gamepad.axis_turn":    3,
	"gamepad.hats":         1,
	"gamepad.button_up":    7,
	"gamepad.button_down":  6,
	"gamepad.button_quit":  -1,

	"servo.channel": "1",
	"servo.up":      160,
	"servo.down":    120,
	"servo.neutral": 90,
	"servo.min":     0,
	"servo.max":     180,

	"chassis.enabled":     true,
	"chassis.i2c_bus":     1,
	"chassis.i2c_address": 0x40,
	"chassis.pwm_freq":    50.0,
	"chassis.buzzer_pin":  "11",

	"camera.backend":       "v4l2",
	"camera.device":        "/dev/video0",
	"camera.width":         640,
	"camera.height":        480,
	"camera.frame_timeout": time.Second,

	"vision.dictionary":  "4x4_50",
	"vision.save_images": true,
	"vision.output_dir":  "aruco_images",

	"feedback.delay":      2 * time.Second,
	"feedback.queue_size": 16,

	"monitor.interval": 500 * time.Millisecond,

	"telemetry.enabled":       false,
	"telemetry.db_path":       "/var/lib/robotctl/detections.db",
	"telemetry.batch_size":    10,
	"telemetry.batch_timeout": 5,

	"metrics.listen": "",
}

// flagKeys maps command line flags onto configuration keys
var flagKeys = map[string]string{
	"log-level":      "log_level",
	"max-pwm":        "drive.max_pwm",
	"loop-rate":      "drive.loop_rate",
	"gamepad":        "gamepad.device",
	"camera":         "camera.device",
	"camera-backend": "camera.backend",
	"dictionary":     "vision.dictionary",
	"output-dir":     "vision.output_dir",
	"save-images":    "vision.save_images",
	"telemetry":      "telemetry.enabled",
	"metrics-listen": "metrics.listen",
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(configName, pflag.ContinueOnError)
	fs.Usage = func() {
		os.Stderr.WriteString("Usage: robotctl [flags] [all|drive|vision]\n")
		fs.PrintDefaults()
	}

	fs.String("config", "", "Path to configuration file")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	fs.Bool("simulate", false, "Log actuator commands instead of driving the PWM board")
	fs.Int("max-pwm", 4095, "Maximum wheel duty cycle")
	fs.Float64("loop-rate", 60, "Drive loop rate in Hz")
	fs.Int("gamepad", 0, "Gamepad device index")
	fs.String("camera", "/dev/video0", "Camera device")
	fs.String("camera-backend", "v4l2", "Camera backend (v4l2, gst)")
	fs.String("dictionary", "4x4_50", "ArUco marker dictionary")
	fs.String("output-dir", "aruco_images", "Directory for annotated detection images")
	fs.Bool("save-images", true, "Save annotated images when markers are detected")
	fs.Bool("telemetry", false, "Record detection events to the telemetry database")
	fs.String("metrics-listen", "", "Address for the Prometheus metrics endpoint")

	return fs
}

// Load reads defaults, the configuration file, environment and flags, in
// increasing order of precedence.
func Load(opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{
		envPrefix: DefaultEnvPrefix,
		args:      os.Args[1:],
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	fs := newFlagSet()
	if err := fs.Parse(o.args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if fs.NArg() > 0 {
		v.Set("mode", fs.Arg(0))
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := o.configPath
	if f := fs.Lookup("config"); f != nil && f.Changed {
		configPath = f.Value.String()
	}
	if configPath == "" {
		configPath = os.Getenv(o.envPrefix + "_CONFIG")
	}

	if err := readConfigFile(v, configPath); err != nil {
		return nil, err
	}

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, errFactory.Wrap(errors.ErrBindFlags, err)
		}
	}
	if simulate, _ := fs.GetBool("simulate"); simulate {
		v.Set("chassis.enabled", false)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	config.LogLevel = strings.ToLower(config.LogLevel)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	errFactory := errors.New()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/robotctl")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return nil
}

// Validate checks value ranges that the control loops rely on
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !LogLevel(c.LogLevel).IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	checks := []struct {
		ok     bool
		field  string
		value  interface{}
		reason string
	}{
		{c.Mode == ModeAll || c.Mode == ModeDrive || c.Mode == ModeVision, "mode", c.Mode, "must be all, drive or vision"},
		{c.Drive.DeadZoneMovement >= 0 && c.Drive.DeadZoneMovement <= 1, "drive.deadzone_movement", c.Drive.DeadZoneMovement, "must be within [0,1]"},
		{c.Drive.DeadZoneTurn >= 0 && c.Drive.DeadZoneTurn <= 1, "drive.deadzone_turn", c.Drive.DeadZoneTurn, "must be within [0,1]"},
		{c.Drive.MaxPWM > 0, "drive.max_pwm", c.Drive.MaxPWM, "must be positive"},
		{c.Drive.TurnScale >= 0, "drive.turn_scale", c.Drive.TurnScale, "must not be negative"},
		{c.Drive.LoopRate > 0, "drive.loop_rate", c.Drive.LoopRate, "must be positive"},
		{c.Servo.Min >= 0 && c.Servo.Max <= 180 && c.Servo.Min <= c.Servo.Max, "servo.min/max", [2]int{c.Servo.Min, c.Servo.Max}, "must be within [0,180]"},
		{c.Servo.Up >= c.Servo.Min && c.Servo.Up <= c.Servo.Max, "servo.up", c.Servo.Up, "must be within servo min/max"},
		{c.Servo.Down >= c.Servo.Min && c.Servo.Down <= c.Servo.Max, "servo.down", c.Servo.Down, "must be within servo min/max"},
		{c.Servo.Neutral >= c.Servo.Min && c.Servo.Neutral <= c.Servo.Max, "servo.neutral", c.Servo.Neutral, "must be within servo min/max"},
		{c.Servo.Channel != "", "servo.channel", c.Servo.Channel, "must not be empty"},
		{c.Camera.Backend == "v4l2" || c.Camera.Backend == "gst", "camera.backend", c.Camera.Backend, "must be v4l2 or gst"},
		{c.Camera.Width > 0 && c.Camera.Height > 0, "camera.width/height", [2]int{c.Camera.Width, c.Camera.Height}, "must be positive"},
		{c.Vision.Dictionary != "", "vision.dictionary", c.Vision.Dictionary, "must not be empty"},
		{!c.Vision.SaveImages || c.Vision.OutputDir != "", "vision.output_dir", c.Vision.OutputDir, "must be set when saving images"},
		{c.Feedback.Delay > 0, "feedback.delay", c.Feedback.Delay, "must be positive"},
		{c.Feedback.QueueSize > 0, "feedback.queue_size", c.Feedback.QueueSize, "must be positive"},
		{c.Monitor.Interval > 0, "monitor.interval", c.Monitor.Interval, "must be positive"},
		{!c.Telemetry.Enabled || c.Telemetry.DBPath != "", "telemetry.db_path", c.Telemetry.DBPath, "must be set when telemetry is enabled"},
	}

	for _, check := range checks {
		if !check.ok {
			return errFactory.Wrap(errors.ErrInvalidConfig, &validationError{
				field:  check.field,
				value:  check.value,
				reason: check.reason,
			})
		}
	}

	return nil
}

// LoopInterval returns the tick budget of the drive loop
func (c DriveConfig) LoopInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.LoopRate)
}
