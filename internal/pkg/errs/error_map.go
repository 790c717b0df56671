/*
Package errs provides custom error types and application-level error code constants.

This file maps every error code to its CustomError template, including the
HTTP status used when the error surfaces through the request/response path.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Room, Message, and Friendship Business Logic Errors
	ErrRoomNotFound:          {Code: ErrRoomNotFound, Message: "Conversation not found.", Status: http.StatusNotFound},
	ErrNotParticipant:        {Code: ErrNotParticipant, Message: "You are not a participant of this conversation.", Status: http.StatusForbidden},
	ErrNotFriends:            {Code: ErrNotFriends, Message: "You are not friends anymore.", Status: http.StatusForbidden},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long.", Status: http.StatusBadRequest},
	ErrEmptyMessage:          {Code: ErrEmptyMessage, Message: "Message needs text or an attachment.", Status: http.StatusBadRequest},
	ErrMessageNotFound:       {Code: ErrMessageNotFound, Message: "Message not found.", Status: http.StatusNotFound},
	ErrNotMessageSender:      {Code: ErrNotMessageSender, Message: "Only the sender can unsend a message.", Status: http.StatusForbidden},
	ErrFriendRequestNotFound: {Code: ErrFriendRequestNotFound, Message: "Friend request not found.", Status: http.StatusNotFound},
	ErrFriendRequestExists:   {Code: ErrFriendRequestExists, Message: "Friend request already exists.", Status: http.StatusConflict},
	ErrFileSizeTooLarge:      {Code: ErrFileSizeTooLarge, Message: "File is too large.", Status: http.StatusBadRequest},
	ErrAttachmentKeyInvalid:  {Code: ErrAttachmentKeyInvalid, Message: "Invalid attachment.", Status: http.StatusBadRequest},

	// 3xxx: Authentication and Session Errors
	ErrTokenMissing:  {Code: ErrTokenMissing, Message: "Authentication token missing.", Status: http.StatusUnauthorized},
	ErrTokenExpired:  {Code: ErrTokenExpired, Message: "Token expired - please login again.", Status: http.StatusUnauthorized},
	ErrTokenInvalid:  {Code: ErrTokenInvalid, Message: "Invalid token format.", Status: http.StatusUnauthorized},
	ErrSessionKicked: {Code: ErrSessionKicked, Message: "You were signed in on another device.", Status: http.StatusConflict},
	ErrUnauthorized:  {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrUserNotFound:  {Code: ErrUserNotFound, Message: "Account not found.", Status: http.StatusNotFound},

	// 5xxx: Internal System Errors
	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed: {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again.", Status: http.StatusInternalServerError},
}
