package telemetry

import "codeberg.org/mutker/robotctl/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrInvalidConfig
	ErrInvalidDBPath = errors.ErrorCode("telemetry_invalid_db_path")

	// Schema Errors
	ErrSchemaInitFailed       = errors.ErrorCode("telemetry_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("telemetry_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("telemetry_schema_migration_failed")
	ErrTransactionFailed      = errors.ErrorCode("telemetry_transaction_failed")

	// Storage Errors
	ErrStorageInit  = errors.ErrInitTelemetry
	ErrStorageClose = errors.ErrCloseTelemetry
	ErrEncodeEvent  = errors.ErrorCode("telemetry_encode_failed")

	// Recording Errors
	ErrRecordEvent  = errors.ErrRecordTelemetry
	ErrInvalidEvent = errors.ErrorCode("telemetry_invalid_event")

	// Operation Errors
	ErrOperationTimeout = errors.ErrTimeout
)
