package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aryankinha/chattingAPP/internal/app/chat"
	"github.com/aryankinha/chattingAPP/internal/app/user"
	"github.com/aryankinha/chattingAPP/internal/pkg/auth/jwt"
	"github.com/aryankinha/chattingAPP/internal/pkg/errs"
	"github.com/aryankinha/chattingAPP/internal/pkg/logx"
	"github.com/aryankinha/chattingAPP/internal/pkg/req"
	"github.com/aryankinha/chattingAPP/internal/pkg/resp"
)

// SendMessageInput defines the JSON input structure for sending a message.
type SendMessageInput struct {
	RoomID     string `json:"roomId"`
	Text       string `json:"text"`
	Attachment string `json:"attachment,omitempty"`
}

// HandleSendMessage accepts a message over HTTP and runs the same fan-out
// pipeline as the live channel, so subscribers see it either way.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input SendMessageInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if len(input.Text) > chat.MaxContentBytes {
			resp.RespondError(w, r, errs.NewError(errs.ErrMessageContentTooLong))
			return
		}

		delivered, err := deps.Hub.Send(r.Context(), payload.ID, input.RoomID, input.Text, input.Attachment)
		if err != nil {
			resp.RespondError(w, r, errs.AsCustom(err))
			return
		}

		resp.RespondCreated(w, r, delivered)
	}
}

// HandleListMessages returns the room's messages oldest first, with sender
// profiles resolved.
func HandleListMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		roomID := chi.URLParam(r, "roomId")
		if roomID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		room, customErr := requireParticipant(r, deps, roomID, payload.ID)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		messages, err := deps.Store.ListMessages(r.Context(), roomID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		// A two-party room has exactly two possible senders; resolve each
		// profile once.
		profiles := make(map[string]user.User, 2)
		for _, participant := range room.Participants {
			profile, err := deps.Store.GetUserProfile(r.Context(), participant)
			if err != nil {
				logx.Warn("Failed to resolve participant profile for message list", "room_id", roomID, "identity", participant)
				continue
			}
			profiles[participant] = profile
		}

		result := make([]chat.DeliveredMessage, 0, len(messages))
		for _, msg := range messages {
			result = append(result, chat.DeliveredMessage{
				Message:       msg,
				SenderProfile: profiles[msg.Sender],
			})
		}

		resp.RespondSuccess(w, r, result)
	}
}

// HandleRetractMessage unsends one of the caller's messages.
func HandleRetractMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		messageID := chi.URLParam(r, "messageId")
		if messageID == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Hub.Retract(r.Context(), payload.ID, messageID); err != nil {
			resp.RespondError(w, r, errs.AsCustom(err))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}
