/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Message and Presence Business Logic Errors
const (
	// ErrMessageEmpty indicates that a message carried neither text nor a voice clip.
	ErrMessageEmpty = 2101

	// ErrMessageContentTooLong indicates that the message text exceeded the maximum length limit.
	ErrMessageContentTooLong = 2102

	// ErrVoiceClipInvalid indicates that the referenced voice clip key or type is not acceptable.
	ErrVoiceClipInvalid = 2103

	// ErrVoiceClipTooLarge indicates that the voice clip exceeds the maximum allowed size.
	ErrVoiceClipTooLarge = 2104

	// ErrReceiptInvalid indicates that a read receipt carried no message identifier.
	ErrReceiptInvalid = 2105
)

// 3xxx: Identity and Session Errors
const (
	// ErrNotAnnounced indicates the session attempted an operation before announcing an identity.
	ErrNotAnnounced = 3001

	// ErrIdentityInvalid indicates that the announced identity string is empty or malformed.
	ErrIdentityInvalid = 3002

	// ErrIdentityClaimed indicates the session tried to announce a second, different identity.
	ErrIdentityClaimed = 3003

	// ErrTokenInvalid indicates that the supplied identity token failed signature or expiry checks.
	ErrTokenInvalid = 3004
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrMessagePersistFailed indicates that the durable store rejected or could not accept a message.
	ErrMessagePersistFailed = 5001

	// ErrPersistQueueFull indicates that the persistence gateway queue is saturated.
	ErrPersistQueueFull = 5002

	// ErrClipStorageFailed indicates that the object storage operation for a voice clip failed.
	ErrClipStorageFailed = 5003
)
