package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aryankinha/chattingAPP/internal/app/chat"
	"github.com/aryankinha/chattingAPP/internal/pkg/auth/jwt"
	"github.com/aryankinha/chattingAPP/internal/pkg/errs"
	"github.com/aryankinha/chattingAPP/internal/pkg/logx"
	"github.com/aryankinha/chattingAPP/internal/pkg/req"
	"github.com/aryankinha/chattingAPP/internal/pkg/resp"
)

// OpenRoomInput defines the JSON input structure for opening a conversation.
type OpenRoomInput struct {
	PeerID string `json:"peerId"`
}

// HandleListRooms returns the caller's conversation list, most recent
// activity first, with peer profiles and the caller's unread counts.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		rooms, err := deps.Store.FindRoomsForParticipant(r.Context(), payload.ID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		summaries := make([]chat.RoomSummary, 0, len(rooms))
		for _, room := range rooms {
			summary := chat.RoomSummary{
				Room:   room,
				Unread: room.UnreadCounts[payload.ID],
			}

			if peerID, ok := room.Peer(payload.ID); ok {
				profile, err := deps.Store.GetUserProfile(r.Context(), peerID)
				if err != nil {
					logx.Warn("Failed to resolve peer profile for room list", "room_id", room.ID, "peer", peerID)
				} else {
					summary.Peer = profile
				}
			}

			summaries = append(summaries, summary)
		}

		resp.RespondSuccess(w, r, summaries)
	}
}

// HandleOpenRoom returns the room for the caller and the given friend,
// creating it on first open.
func HandleOpenRoom(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input OpenRoomInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		room, err := deps.Hub.OpenRoom(r.Context(), payload.ID, input.PeerID)
		if err != nil {
			resp.RespondError(w, r, errs.AsCustom(err))
			return
		}

		resp.RespondSuccess(w, r, room)
	}
}

// HandleMarkRead zeroes the caller's unread counter for the room.
func HandleMarkRead(deps *AppDeps) http.HandlerFunc {
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

		if err := deps.Hub.MarkRead(r.Context(), payload.ID, roomID); err != nil {
			resp.RespondError(w, r, errs.AsCustom(err))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// requireParticipant loads the room and verifies the identity belongs to it.
func requireParticipant(r *http.Request, deps *AppDeps, roomID, identity string) (chat.Room, *errs.CustomError) {
	room, err := deps.Store.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return chat.Room{}, errs.NewError(errs.ErrRoomNotFound)
		}
		return chat.Room{}, errs.NewError(errs.ErrUnknown, err)
	}

	if !room.HasParticipant(identity) {
		return chat.Room{}, errs.NewError(errs.ErrNotParticipant)
	}

	return room, nil
}
