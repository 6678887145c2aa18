package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrNotImplemented  ErrorCode = "not_implemented"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Fault taxonomy
	ErrDeviceUnavailable ErrorCode = "device_unavailable"
	ErrTransientFrame    ErrorCode = "transient_frame"
	ErrActuatorWrite     ErrorCode = "actuator_write_failed"
	ErrInterrupted       ErrorCode = "interrupted"
	ErrUnknownFault      ErrorCode = "unknown_fault"

	// Configuration errors
	ErrInvalidConfig ErrorCode = "invalid_configuration"
	ErrBindFlags     ErrorCode = "bind_flags_failed"
	ErrReadConfig    ErrorCode = "read_config_failed"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Application errors
	ErrInitApp    ErrorCode = "init_app_failed"
	ErrDriveLoop  ErrorCode = "drive_loop_failed"
	ErrVisionLoop ErrorCode = "vision_loop_failed"
	ErrSaveImage  ErrorCode = "save_image_failed"

	// Operation errors
	ErrOperationFailed ErrorCode = "operation_failed"
	ErrTimeout         ErrorCode = "operation_timeout"

	// Telemetry errors
	ErrInitTelemetry   ErrorCode = "init_telemetry_failed"
	ErrRecordTelemetry ErrorCode = "record_telemetry_failed"
	ErrCloseTelemetry  ErrorCode = "close_telemetry_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:          "Internal error occurred",
	ErrInvalidArgument:   "Invalid argument provided",
	ErrNotImplemented:    "Operation not implemented",
	ErrAlreadyRunning:    "Another instance is already running",
	ErrDeviceUnavailable: "Device unavailable",
	ErrTransientFrame:    "Invalid frame captured",
	ErrActuatorWrite:     "Actuator rejected command",
	ErrInterrupted:       "Execution interrupted",
	ErrUnknownFault:      "Unexpected fault",
	ErrInvalidConfig:     "Invalid configuration",
	ErrBindFlags:         "Failed to bind flags",
	ErrReadConfig:        "Failed to read configuration",
	ErrInvalidLogLevel:   "Invalid log level",
	ErrInitFailed:        "Initialization failed",
	ErrShutdownFailed:    "Shutdown failed",
	ErrInitApp:           "Failed to initialize application",
	ErrDriveLoop:         "Error in drive loop",
	ErrVisionLoop:        "Error in vision loop",
	ErrSaveImage:         "Failed to save annotated image",
	ErrOperationFailed:   "Operation failed",
	ErrTimeout:           "Operation timed out",
	ErrInitTelemetry:     "Failed to initialize telemetry",
	ErrRecordTelemetry:   "Failed to record telemetry",
	ErrCloseTelemetry:    "Failed to close telemetry",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
