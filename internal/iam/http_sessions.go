// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam

import (
	"net/http"

	requestutil "github.com/taibuivan/irongate/internal/platform/request"
	"github.com/taibuivan/irongate/internal/platform/respond"
	"github.com/taibuivan/irongate/pkg/pagination"
)

// # Session Endpoints
//
// The opaque bearer token appears exactly once, in the creation response.
// Every other read path strips it before serialization.

/*
GET /users/{identifier}/sessions.

Description: Lists the user's live sessions. Expired sessions are filtered
out even if the sweep job has not collected them yet.

Request:
  - identifier: string (user UUID or email)
  - offset: int
  - limit: int

Response:
  - 200: []Session: Token-stripped sessions
  - 404: NOT_FOUND: User not found
*/
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	uid, err := handler.store.GetUserID(request.Context(), ParseUserIdentifier(requestutil.Param(request, "identifier")))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.store.ListUserSessions(request.Context(), uid, paginationParams.Offset, paginationParams.Limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	stripped := make([]*Session, 0, len(sessions))
	for _, session := range sessions {
		stripped = append(stripped, session.WithoutToken())
	}

	respond.OK(writer, stripped)
}

/*
POST /users/{identifier}/sessions.

Description: Opens a new session for the user. The response is the only
place the opaque token is ever revealed.

Request:
  - identifier: string (user UUID or email)

Response:
  - 200: Session: Includes the bearer token
  - 404: NOT_FOUND: User not found
*/
func (handler *Handler) createSession(writer http.ResponseWriter, request *http.Request) {
	identifier := ParseUserIdentifier(requestutil.Param(request, "identifier"))

	session, err := handler.service.CreateSession(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

/*
GET /users/{identifier}/sessions/{sid}.

Description: Retrieves one session by id. A session owned by a different
user, or already expired, reads as NOT_FOUND.

Request:
  - identifier: string (user UUID or email)
  - sid: string (session UUID)

Response:
  - 200: Session: Token-stripped session
  - 404: NOT_FOUND: User or session not found
*/
func (handler *Handler) getSession(writer http.ResponseWriter, request *http.Request) {
	uid, err := handler.store.GetUserID(request.Context(), ParseUserIdentifier(requestutil.Param(request, "identifier")))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.store.GetSessionByID(request.Context(), uid, requestutil.Param(request, "sid"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session.WithoutToken())
}

/*
PUT /users/{identifier}/sessions/{sid}.

Description: Refreshes a live session, extending its expiry by a full TTL
from now. Expired sessions cannot be refreshed.

Request:
  - identifier: string (user UUID or email)
  - sid: string (session UUID)

Response:
  - 200: Session: Token-stripped session with new expiry
  - 404: NOT_FOUND: User or session not found
*/
func (handler *Handler) refreshSession(writer http.ResponseWriter, request *http.Request) {
	identifier := ParseUserIdentifier(requestutil.Param(request, "identifier"))
	sid := requestutil.Param(request, "sid")

	session, err := handler.service.RefreshSession(request.Context(), identifier, sid)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, session)
}

/*
DELETE /users/{identifier}/sessions/{sid}.

Description: Closes a session immediately.

Request:
  - identifier: string (user UUID or email)
  - sid: string (session UUID)

Response:
  - 204: No Content: Success
  - 404: NOT_FOUND: User or session not found
*/
func (handler *Handler) deleteSession(writer http.ResponseWriter, request *http.Request) {
	uid, err := handler.store.GetUserID(request.Context(), ParseUserIdentifier(requestutil.Param(request, "identifier")))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.store.DeleteSession(request.Context(), uid, requestutil.Param(request, "sid")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
