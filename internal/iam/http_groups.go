// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam

import (
	"net/http"

	requestutil "github.com/taibuivan/irongate/internal/platform/request"
	"github.com/taibuivan/irongate/internal/platform/respond"
	"github.com/taibuivan/irongate/internal/platform/validate"
	"github.com/taibuivan/irongate/pkg/pagination"
)

// # Group Endpoints

/*
GET /groups.

Description: Retrieves a paginated list of groups, ordered by UUID.

Request:
  - offset: int
  - limit: int

Response:
  - 200: []Group: Paginated list
*/
func (handler *Handler) listGroups(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	groups, err := handler.store.ListGroups(request.Context(), paginationParams.Offset, paginationParams.Limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, groups)
}

/*
GET /groups/{identifier}.

Description: Retrieves a group by UUID or unique name.

Request:
  - identifier: string (UUID or name)

Response:
  - 200: Group: Success
  - 404: NOT_FOUND: Group not found
*/
func (handler *Handler) getGroup(writer http.ResponseWriter, request *http.Request) {
	identifier := ParseGroupIdentifier(requestutil.Param(request, "identifier"))

	group, err := handler.store.GetGroup(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, group)
}

/*
POST /groups.

Description: Registers a new group. The UUID is assigned server-side; the
name is an optional unique alias.

Request (Body):
  - { "name": "string" }

Response:
  - 200: Group: Created entity
  - 409: ALREADY_EXISTS: Name already registered
*/
func (handler *Handler) createGroup(writer http.ResponseWriter, request *http.Request) {
	var input struct {
		Name string `json:"name"`
	}

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.MaxLen("name", input.Name, 200)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	group, err := handler.service.CreateGroup(request.Context(), input.Name)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, group)
}

/*
DELETE /groups/{identifier}.

Description: Removes a group and cascades its memberships and policy
attachments. Member users are untouched.

Request:
  - identifier: string (UUID or name)

Response:
  - 204: No Content: Success
  - 404: NOT_FOUND: Group not found
*/
func (handler *Handler) deleteGroup(writer http.ResponseWriter, request *http.Request) {
	identifier := ParseGroupIdentifier(requestutil.Param(request, "identifier"))

	if err := handler.store.DeleteGroup(request.Context(), identifier); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Membership Endpoints

/*
POST /memberships/{userIdentifier}/{groupIdentifier}.

Description: Adds a user to a group. Both endpoints may be given as UUID or
alias; the pair is stored by UUID.

Request:
  - userIdentifier: string (UUID or email)
  - groupIdentifier: string (UUID or name)

Response:
  - 200: Membership: Created pair
  - 404: NOT_FOUND: User or group not found
  - 409: ALREADY_EXISTS: Pair already present
*/
func (handler *Handler) createMembership(writer http.ResponseWriter, request *http.Request) {
	userIdentifier := ParseUserIdentifier(requestutil.Param(request, "userIdentifier"))
	groupIdentifier := ParseGroupIdentifier(requestutil.Param(request, "groupIdentifier"))

	if err := handler.store.CreateMembership(request.Context(), userIdentifier, groupIdentifier); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"message": "Membership created"})
}

/*
DELETE /memberships/{userIdentifier}/{groupIdentifier}.

Description: Removes a user from a group.

Request:
  - userIdentifier: string (UUID or email)
  - groupIdentifier: string (UUID or name)

Response:
  - 204: No Content: Success
  - 404: NOT_FOUND: User, group, or membership not found
*/
func (handler *Handler) deleteMembership(writer http.ResponseWriter, request *http.Request) {
	userIdentifier := ParseUserIdentifier(requestutil.Param(request, "userIdentifier"))
	groupIdentifier := ParseGroupIdentifier(requestutil.Param(request, "groupIdentifier"))

	if err := handler.store.DeleteMembership(request.Context(), userIdentifier, groupIdentifier); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
