/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both inside
the server and in responses sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON is malformed.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate exceeded the limit.
	ErrRateLimitExceeded = 1005
)

// 2xxx: Room, Message, and Friendship Business Logic Errors
const (
	// ErrRoomNotFound indicates that the addressed room does not exist.
	ErrRoomNotFound = 2101

	// ErrNotParticipant indicates the caller is not a participant of the room.
	ErrNotParticipant = 2102

	// ErrNotFriends indicates the friendship backing the room is no longer active.
	ErrNotFriends = 2103

	// ErrMessageContentTooLong indicates the message body exceeded the size limit.
	ErrMessageContentTooLong = 2201

	// ErrEmptyMessage indicates a send with neither body text nor an attachment.
	ErrEmptyMessage = 2202

	// ErrMessageNotFound indicates the addressed message does not exist or is already retracted.
	ErrMessageNotFound = 2203

	// ErrNotMessageSender indicates a retraction attempt by someone other than the sender.
	ErrNotMessageSender = 2204

	// ErrFriendRequestNotFound indicates the addressed friend request does not exist or is not pending.
	ErrFriendRequestNotFound = 2301

	// ErrFriendRequestExists indicates a duplicate friend request for the same pair.
	ErrFriendRequestExists = 2302

	// ErrFileSizeTooLarge indicates an attachment exceeding the upload size limit.
	ErrFileSizeTooLarge = 2401

	// ErrAttachmentKeyInvalid indicates an attachment key outside the caller's room prefix.
	ErrAttachmentKeyInvalid = 2402
)

// 3xxx: Authentication and Session Errors
const (
	// ErrTokenMissing indicates a connection attempt without a credential token.
	ErrTokenMissing = 3001

	// ErrTokenExpired indicates the presented credential has expired.
	// Clients should refresh their token and retry.
	ErrTokenExpired = 3002

	// ErrTokenInvalid indicates a malformed credential or a bad signature.
	// Clients must log in again.
	ErrTokenInvalid = 3003

	// ErrSessionKicked indicates the connection was replaced by a newer one
	// for the same identity.
	ErrSessionKicked = 3004

	// ErrUnauthorized indicates a request without a valid identity.
	ErrUnauthorized = 3005

	// ErrUserNotFound indicates the addressed user does not exist.
	ErrUserNotFound = 3006
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000

	// ErrFileStorageFailed indicates an attachment storage operation failed.
	ErrFileStorageFailed = 5001
)
