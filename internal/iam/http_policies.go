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

// # Policy Endpoints

/*
GET /policies.

Description: Retrieves a paginated list of policy UUIDs. Full documents are
fetched per-id via GET /policies/{identifier}.

Request:
  - offset: int
  - limit: int

Response:
  - 200: []string: Policy UUIDs
*/
func (handler *Handler) listPolicyIDs(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	ids, err := handler.store.ListPolicyIDs(request.Context(), paginationParams.Offset, paginationParams.Limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, ids)
}

/*
GET /policies/{identifier}.

Description: Retrieves a policy by UUID or unique name.

Request:
  - identifier: string (UUID or name)

Response:
  - 200: Policy: Success
  - 404: NOT_FOUND: Policy not found
*/
func (handler *Handler) getPolicy(writer http.ResponseWriter, request *http.Request) {
	identifier := ParsePolicyIdentifier(requestutil.Param(request, "identifier"))

	policy, err := handler.store.GetPolicy(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, policy)
}

/*
POST /policies.

Description: Registers a new policy scoped to a single hostname. Rules are
an ordered list of (effect, action, resource) triples; a trailing "*" in a
resource matches any suffix.

Request (Body):
  - { "name": "string", "hostname": "string", "rules": [{ "effect": "Allow|Deny", "action": "Read|Write", "resource": "string" }] }

Response:
  - 200: Policy: Created entity
  - 400: VALIDATION: Missing hostname or malformed rule
  - 409: ALREADY_EXISTS: Name already registered
*/
func (handler *Handler) createPolicy(writer http.ResponseWriter, request *http.Request) {
	var input PolicyInput

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := validatePolicyInput(&input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	policy, err := handler.service.CreatePolicy(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, policy)
}

/*
PUT /policies/{identifier}.

Description: Replaces a policy's name, hostname, and rule list. The UUID and
creation time are immutable.

Request:
  - identifier: string (UUID or name)
  - body: PolicyInput (JSON)

Response:
  - 200: Policy: Updated entity
  - 400: VALIDATION: Malformed rule
  - 404: NOT_FOUND: Policy not found
  - 409: ALREADY_EXISTS: New name already taken
*/
func (handler *Handler) updatePolicy(writer http.ResponseWriter, request *http.Request) {
	identifier := ParsePolicyIdentifier(requestutil.Param(request, "identifier"))

	var input PolicyInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := validatePolicyInput(&input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	policy, err := handler.service.UpdatePolicy(request.Context(), identifier, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, policy)
}

/*
DELETE /policies/{identifier}.

Description: Removes a policy and cascades its user and group attachments.

Request:
  - identifier: string (UUID or name)

Response:
  - 204: No Content: Success
  - 404: NOT_FOUND: Policy not found
*/
func (handler *Handler) deletePolicy(writer http.ResponseWriter, request *http.Request) {
	identifier := ParsePolicyIdentifier(requestutil.Param(request, "identifier"))

	if err := handler.store.DeletePolicy(request.Context(), identifier); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// validatePolicyInput checks structural correctness of a policy payload.
func validatePolicyInput(input *PolicyInput) error {
	v := &validate.Validator{}
	v.Required("hostname", input.Hostname).
		MaxLen("hostname", input.Hostname, 253).
		MaxLen("name", input.Name, 200)

	for _, rule := range input.Rules {
		v.Custom("rules", !rule.Effect.IsValid(), "effect must be Allow or Deny")
		v.Custom("rules", !rule.Action.IsValid(), "action must be Read or Write")
		v.Required("rules", rule.Resource)
	}

	return v.Err()
}

// # Attachment Endpoints

/*
POST /users/{identifier}/policies/{policyIdentifier}.

Description: Attaches a policy directly to a user.

Request:
  - identifier: string (user UUID or email)
  - policyIdentifier: string (policy UUID or name)

Response:
  - 200: Message: Success
  - 404: NOT_FOUND: User or policy not found
  - 409: ALREADY_EXISTS: Pair already present
*/
func (handler *Handler) attachUserPolicy(writer http.ResponseWriter, request *http.Request) {
	userIdentifier := ParseUserIdentifier(requestutil.Param(request, "identifier"))
	policyIdentifier := ParsePolicyIdentifier(requestutil.Param(request, "policyIdentifier"))

	if err := handler.store.CreateUserPolicyAttachment(request.Context(), userIdentifier, policyIdentifier); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"message": "Policy attached"})
}

/*
DELETE /users/{identifier}/policies/{policyIdentifier}.

Description: Detaches a policy from a user.

Response:
  - 204: No Content: Success
  - 404: NOT_FOUND: User, policy, or attachment not found
*/
func (handler *Handler) detachUserPolicy(writer http.ResponseWriter, request *http.Request) {
	userIdentifier := ParseUserIdentifier(requestutil.Param(request, "identifier"))
	policyIdentifier := ParsePolicyIdentifier(requestutil.Param(request, "policyIdentifier"))

	if err := handler.store.DeleteUserPolicyAttachment(request.Context(), userIdentifier, policyIdentifier); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
POST /groups/{identifier}/policies/{policyIdentifier}.

Description: Attaches a policy to a group. Members inherit it transitively.

Response:
  - 200: Message: Success
  - 404: NOT_FOUND: Group or policy not found
  - 409: ALREADY_EXISTS: Pair already present
*/
func (handler *Handler) attachGroupPolicy(writer http.ResponseWriter, request *http.Request) {
	groupIdentifier := ParseGroupIdentifier(requestutil.Param(request, "identifier"))
	policyIdentifier := ParsePolicyIdentifier(requestutil.Param(request, "policyIdentifier"))

	if err := handler.store.CreateGroupPolicyAttachment(request.Context(), groupIdentifier, policyIdentifier); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"message": "Policy attached"})
}

/*
DELETE /groups/{identifier}/policies/{policyIdentifier}.

Description: Detaches a policy from a group.

Response:
  - 204: No Content: Success
  - 404: NOT_FOUND: Group, policy, or attachment not found
*/
func (handler *Handler) detachGroupPolicy(writer http.ResponseWriter, request *http.Request) {
	groupIdentifier := ParseGroupIdentifier(requestutil.Param(request, "identifier"))
	policyIdentifier := ParsePolicyIdentifier(requestutil.Param(request, "policyIdentifier"))

	if err := handler.store.DeleteGroupPolicyAttachment(request.Context(), groupIdentifier, policyIdentifier); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
