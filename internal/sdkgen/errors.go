package sdkgen

import (
	"errors"
	"fmt"
	"strings"

	genspec "github.com/mark3labs/openapi2sdk/internal/spec"
)

// ErrConfig matches every *ConfigError via errors.Is.
var ErrConfig = errors.New("sdkgen: configuration error")

// ErrorCode categorizes configuration errors found while generating.
type ErrorCode string

const (
	EmptyPath          ErrorCode = "EmptyPath"
	MissingOperationID ErrorCode = "MissingOperationID"
	EmptyController    ErrorCode = "EmptyController"
	EmptyMethod        ErrorCode = "EmptyMethod"
	DuplicateMethod    ErrorCode = "DuplicateMethod"
	DuplicateName      ErrorCode = "DuplicateName"
)

// ConfigError reports a document that cannot be turned into an SDK. It is
// always fatal: generation stops before any file is written.
type ConfigError struct {
	Code        ErrorCode
	Path        string
	Method      string
	OperationID string
	Message     string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		loc := e.Path
		if e.Method != "" {
			loc = e.Method + " " + loc
		}
		msg += " (" + loc + ")"
	}
	if e.OperationID != "" {
		msg += fmt.Sprintf(" operationId=%q", e.OperationID)
	}
	return msg
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

func missingOperationID(op genspec.OperationModel) *ConfigError {
	return &ConfigError{
		Code:    MissingOperationID,
		Path:    op.Path,
		Method:  strings.ToUpper(string(op.Method)),
		Message: "operation has no operationId (expected <Controller>.<Method>)",
	}
}
