package server

import (
	"errors"

	"github.com/localrivet/ankimcp/internal/errortypes"
)

// Tool failure codes, logged with every failed tool call.
const (
	ErrorCodeTransport  = "ANKI_UNREACHABLE"
	ErrorCodeProtocol   = "ANKI_BAD_RESPONSE"
	ErrorCodeRemote     = "ANKI_ERROR"
	ErrorCodeValidation = "INVALID_REQUEST"
	ErrorCodeConfig     = "CONFIG_ERROR"
	ErrorCodeInternal   = "INTERNAL_ERROR"
	ErrorCodeUnknown    = "UNKNOWN_ERROR"
)

// ErrorCode maps an error to a stable failure code.
func ErrorCode(err error) string {
	switch errortypes.TypeOf(err) {
	case errortypes.ErrorTypeTransport:
		return ErrorCodeTransport
	case errortypes.ErrorTypeProtocol:
		return ErrorCodeProtocol
	case errortypes.ErrorTypeRemote:
		return ErrorCodeRemote
	case errortypes.ErrorTypeValidation:
		return ErrorCodeValidation
	case errortypes.ErrorTypeConfig:
		return ErrorCodeConfig
	case errortypes.ErrorTypeInternal:
		return ErrorCodeInternal
	default:
		return ErrorCodeUnknown
	}
}

// toolError logs a failed tool call and returns err unchanged, so the MCP
// client receives the failure with its original cause.
func (s *MCPAnkiToolServer) toolError(tool string, err error) error {
	var appErr *errortypes.AppError
	if errors.As(err, &appErr) {
		appErr.WithField("tool", tool).WithField("code", ErrorCode(err))
	}
	errortypes.LogError(s.logger, err)
	return err
}
