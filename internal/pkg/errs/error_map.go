/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Message and Presence Business Logic Errors
	ErrMessageEmpty:          {Code: ErrMessageEmpty, Message: "Message needs text or a voice clip."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrVoiceClipInvalid:      {Code: ErrVoiceClipInvalid, Message: "Invalid voice clip."},
	ErrVoiceClipTooLarge:     {Code: ErrVoiceClipTooLarge, Message: "Voice clip is too large."},
	ErrReceiptInvalid:        {Code: ErrReceiptInvalid, Message: "Invalid read receipt."},

	// 3xxx: Identity and Session Errors
	ErrNotAnnounced:    {Code: ErrNotAnnounced, Message: "Announce your identity before chatting."},
	ErrIdentityInvalid: {Code: ErrIdentityInvalid, Message: "Invalid identity."},
	ErrIdentityClaimed: {Code: ErrIdentityClaimed, Message: "This connection already has an identity."},
	ErrTokenInvalid:    {Code: ErrTokenInvalid, Message: "Invalid or expired identity token.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown:              {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrMessagePersistFailed: {Code: ErrMessagePersistFailed, Message: "Message could not be saved. Please try again."},
	ErrPersistQueueFull:     {Code: ErrPersistQueueFull, Message: "Server is busy. Please try again."},
	ErrClipStorageFailed:    {Code: ErrClipStorageFailed, Message: "Voice clip upload failed. Please try again."},
}
