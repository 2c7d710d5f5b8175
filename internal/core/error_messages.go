package core

// error_messages.go maps technical errors to user-facing messages at the
// service boundary. Finding codes live in codes.go; these codes cover
// invocation-level failures only.
//
//	CFG001 - Unknown domain: the action tag is not configured
//	CFG002 - Sync service not configured
//	EXP001 - Export blocked: invalid records need an explicit override
//	EXP002 - System busy: too many exports in progress
//	EXP003 - Nothing validated: run validation before exporting
//	EXP004 - An export of the same domain is still running
//	FILE001 - File too large
//	FILE002 - Invalid CSV
//	FILE003 - Empty file
//	STS001 - Illegal status change
//	NET001 - Sync service unreachable
//	NET002 - Sync service timed out
//	ERR000 - Unknown error
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "unknown domain",
		msg: UserMessage{
			Message: "This catalog domain is not configured",
			Action:  "Use one of: core-product, compliance, customization, media",
			Code:    "CFG001",
		},
	},
	{
		pattern: "no sync transport",
		msg: UserMessage{
			Message: "The sync service is not configured",
			Action:  "Set SYNC_URL and restart the service",
			Code:    "CFG002",
		},
	},
	{
		pattern: "export blocked",
		msg: UserMessage{
			Message: "Some records have validation errors",
			Action:  "Fix the rows or re-submit with an explicit override",
			Code:    "EXP001",
		},
	},
	{
		pattern: "too many concurrent exports",
		msg: UserMessage{
			Message: "Too many exports in progress",
			Action:  "Please wait a moment and try again",
			Code:    "EXP002",
		},
	},
	{
		pattern: "export already in progress",
		msg: UserMessage{
			Message: "This domain is already being exported",
			Action:  "Wait for the running export to finish, then check the statuses",
			Code:    "EXP004",
		},
	},
	{
		pattern: "no validation run",
		msg: UserMessage{
			Message: "Nothing has been validated for this domain yet",
			Action:  "Upload and validate a sheet before exporting",
			Code:    "EXP003",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the sheet into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Export the sheet as comma-separated values",
			Code:    "FILE002",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Upload a sheet with a header row and data rows",
			Code:    "FILE003",
		},
	},
	{
		pattern: "invalid status transition",
		msg: UserMessage{
			Message: "The record cannot move to that status",
			Action:  "Re-run the export instead of editing the status",
			Code:    "STS001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the sync service",
			Action:  "Please try again in a few moments",
			Code:    "NET001",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The sync service timed out",
			Action:  "Retry the failed records",
			Code:    "NET002",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "The sync service timed out",
			Action:  "Retry the failed records",
			Code:    "NET002",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
