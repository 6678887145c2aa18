package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Vision loop metrics
	visionFPS = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "robotctl_vision_fps",
			Help: "Frames per second over the most recently closed rate window",
		},
	)

	visionFramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "robotctl_vision_frames_total",
			Help: "Total number of frames run through marker detection",
		},
	)

	visionFramesSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "robotctl_vision_frames_skipped_total",
			Help: "Total number of empty or invalid frames skipped",
		},
	)

	markersDetectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "robotctl_markers_detected_total",
			Help: "Total number of markers detected",
		},
	)

	// Drive loop metrics
	driveTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "robotctl_drive_ticks_total",
			Help: "Total number of drive loop iterations",
		},
	)

	driveTickOverrunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "robotctl_drive_tick_overruns_total",
			Help: "Total number of drive loop iterations that exceeded their time budget",
		},
	)

	actuatorErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "robotctl_actuator_errors_total",
			Help: "Total number of rejected actuator commands",
		},
		[]string{"actuator"},
	)

	// Feedback metrics
	feedbackCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "robotctl_feedback_commands_total",
			Help: "Total number of audio commands pushed to the feedback queue",
		},
		[]string{"command"},
	)
)

// SetVisionFPS records the rate of the last closed window
func SetVisionFPS(fps float64) {
	visionFPS.Set(fps)
}

func FrameProcessed() {
	visionFramesTotal.Inc()
}

func FrameSkipped() {
	visionFramesSkippedTotal.Inc()
}

func MarkersDetected(n int) {
	markersDetectedTotal.Add(float64(n))
}

// DriveTick counts one drive loop iteration
func DriveTick(overrun bool) {
	driveTicksTotal.Inc()
	if overrun {
		driveTickOverrunsTotal.Inc()
	}
}

// ActuatorError counts a rejected command, actuator is "motor" or "servo"
func ActuatorError(actuator string) {
	actuatorErrorsTotal.WithLabelValues(actuator).Inc()
}

func FeedbackCommand(command string) {
	feedbackCommandsTotal.WithLabelValues(command).Inc()
}
