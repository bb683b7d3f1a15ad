// Package core provides the business logic for CUE text conversion.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Users can quote the code so support can find the cause quickly.
//
// # Workbook Errors (WB001-WB099)
//
//	WB001 - Empty workbook: No data rows were found in the workbook
//	        Action: Fill in the template below the header row and upload again
//	        Match: ErrEmptyWorkbook
//
//	WB002 - Unreadable workbook: The file is not a readable Excel workbook
//	        Action: Save the file as .xlsx and upload again
//	        Match: ErrUnreadableWorkbook
//
// # Output Errors (OUT001-OUT099)
//
//	OUT001 - Write failed: The result file could not be written
//	         Action: Please try again or contact support
//	         Match: ErrOutputWriteFailed
//
// # Backend Errors (BE001-BE099)
//
//	BE001 - Backend failed: The notebook backend failed or timed out
//	        Action: Try again or switch to the native backend
//	        Match: ErrBackendFailed
//
// # Request Errors
//
//	PIPE001 - Unknown pipeline: The selected pipeline does not exist
//	CONV001 - System busy: Too many conversions in progress
//	JOB001  - Job not found: The job or file does not exist (any more)
//	FILE001 - File too large: The upload exceeds the size limit
//	FILE004 - No file: No file was selected
//	UPL004  - Request cancelled
//	UPL005  - Request timeout
//	RATE001 - Rate limited
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Matching
//
// Sentinel errors are matched with errors.Is first, so wrapped causes keep
// their code. Anything else falls back to case-insensitive substring patterns;
// the first match wins.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorTarget maps a sentinel error to its user message.
type errorTarget struct {
	target error
	msg    UserMessage
}

var errorTargets = []errorTarget{
	{
		target: ErrEmptyWorkbook,
		msg: UserMessage{
			Message: "No data found in the Excel file",
			Action:  "Fill in the template below the header row and upload again",
			Code:    "WB001",
		},
	},
	{
		target: ErrUnreadableWorkbook,
		msg: UserMessage{
			Message: "The file is not a readable Excel workbook",
			Action:  "Save the file as .xlsx and upload again",
			Code:    "WB002",
		},
	},
	{
		target: ErrOutputWriteFailed,
		msg: UserMessage{
			Message: "The result file could not be written",
			Action:  "Please try again or contact support",
			Code:    "OUT001",
		},
	},
	{
		target: ErrBackendFailed,
		msg: UserMessage{
			Message: "The notebook backend failed",
			Action:  "Try again or switch to the native backend",
			Code:    "BE001",
		},
	},
	{
		target: ErrUnknownPipeline,
		msg: UserMessage{
			Message: "Unknown pipeline",
			Action:  "Choose pipeline A (voetbal) or B (overig)",
			Code:    "PIPE001",
		},
	},
	{
		target: ErrTooManyConversions,
		msg: UserMessage{
			Message: "System is busy processing other files",
			Action:  "Please wait a moment and try again",
			Code:    "CONV001",
		},
	},
	{
		target: ErrJobNotFound,
		msg: UserMessage{
			Message: "File not found",
			Action:  "The job may have expired. Please upload the file again",
			Code:    "JOB001",
		},
	},
	{
		target: ErrNoFile,
		msg: UserMessage{
			Message: "No file received",
			Action:  "Please select an Excel file to upload",
			Code:    "FILE004",
		},
	},
	{
		target: context.Canceled,
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		target: context.DeadlineExceeded,
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "UPL005",
		},
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors from outside this package (net/http, multipart).
var errorPatterns = []errorPattern{
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Remove unused sheets or split the file",
			Code:    "FILE001",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Remove unused sheets or split the file",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "File not found",
			Action:  "The job may have expired. Please upload the file again",
			Code:    "JOB001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	err := fmt.Errorf("pipeline A: %w", ErrEmptyWorkbook)
//	msg := MapError(err)
//	// msg.Code == "WB001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, et := range errorTargets {
		if errors.Is(err, et.target) {
			return et.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a display string including the technical cause:
// "Message (Code: XXX). Action: cause".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s: %v", msg.Message, msg.Code, msg.Action, err)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
