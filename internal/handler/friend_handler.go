package handler

import (
	"net/http"

	"github.com/aryankinha/chattingAPP/internal/pkg/auth/jwt"
	"github.com/aryankinha/chattingAPP/internal/pkg/errs"
	"github.com/aryankinha/chattingAPP/internal/pkg/req"
	"github.com/aryankinha/chattingAPP/internal/pkg/resp"
)

// FriendRequestInput defines the JSON input structure for sending a friend request.
type FriendRequestInput struct {
	RecipientID string `json:"recipientId"`
}

// FriendAcceptInput defines the JSON input structure for accepting a friend request.
type FriendAcceptInput struct {
	RequestID string `json:"requestId"`
}

// HandleSendFriendRequest persists a pending friend request and nudges the
// recipient's live connection when online.
func HandleSendFriendRequest(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input FriendRequestInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := deps.Hub.SendFriendRequest(r.Context(), payload.ID, input.RecipientID); err != nil {
			resp.RespondError(w, r, errs.AsCustom(err))
			return
		}

		resp.RespondCreated(w, r, nil)
	}
}

// HandleAcceptFriendRequest accepts a pending request addressed to the
// caller and nudges the requester's live connection when online.
func HandleAcceptFriendRequest(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input FriendAcceptInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.RequestID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Hub.AcceptFriendRequest(r.Context(), payload.ID, input.RequestID); err != nil {
			resp.RespondError(w, r, errs.AsCustom(err))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}
