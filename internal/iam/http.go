// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam

import (
	"crypto/ed25519"
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/irongate/internal/platform/request"
	"github.com/taibuivan/irongate/internal/platform/respond"
	"github.com/taibuivan/irongate/internal/platform/validate"
	"github.com/taibuivan/irongate/pkg/pagination"
)

// # Handler Implementation

// Handler implements the REST layer for the IAM resources.
//
// Every route assumes the authentication and authorization middleware has
// already run; handlers only translate between HTTP and the [Service] domain.
type Handler struct {
	service *Service
	store   Store
}

// NewHandler constructs a new IAM [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, store: service.Store()}
}

// Routes returns a [chi.Router] configured with all IAM endpoints.
//
// # Routing Strategy
//
// Resources are mounted at the server root so that policy rule resources
// match request paths verbatim (a rule for "/users/*" guards "/users/...").
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// ## Users & Sessions
	router.Route("/users", func(users chi.Router) {
		users.Get("/", handler.listUsers)
		users.Post("/", handler.createUser)
		users.Get("/{identifier}", handler.getUser)
		users.Delete("/{identifier}", handler.deleteUser)

		users.Route("/{identifier}/sessions", func(sessions chi.Router) {
			sessions.Get("/", handler.listSessions)
			sessions.Post("/", handler.createSession)
			sessions.Get("/{sid}", handler.getSession)
			sessions.Put("/{sid}", handler.refreshSession)
			sessions.Delete("/{sid}", handler.deleteSession)
		})

		users.Route("/{identifier}/policies", func(attachments chi.Router) {
			attachments.Post("/{policyIdentifier}", handler.attachUserPolicy)
			attachments.Delete("/{policyIdentifier}", handler.detachUserPolicy)
		})
	})

	// ## Groups & Memberships
	router.Route("/groups", func(groups chi.Router) {
		groups.Get("/", handler.listGroups)
		groups.Post("/", handler.createGroup)
		groups.Get("/{identifier}", handler.getGroup)
		groups.Delete("/{identifier}", handler.deleteGroup)

		groups.Route("/{identifier}/policies", func(attachments chi.Router) {
			attachments.Post("/{policyIdentifier}", handler.attachGroupPolicy)
			attachments.Delete("/{policyIdentifier}", handler.detachGroupPolicy)
		})
	})

	router.Route("/memberships", func(memberships chi.Router) {
		memberships.Post("/{userIdentifier}/{groupIdentifier}", handler.createMembership)
		memberships.Delete("/{userIdentifier}/{groupIdentifier}", handler.deleteMembership)
	})

	// ## Policies
	router.Route("/policies", func(policies chi.Router) {
		policies.Get("/", handler.listPolicyIDs)
		policies.Post("/", handler.createPolicy)
		policies.Get("/{identifier}", handler.getPolicy)
		policies.Put("/{identifier}", handler.updatePolicy)
		policies.Delete("/{identifier}", handler.deletePolicy)
	})

	return router
}

// # User Endpoints

/*
GET /users.

Description: Retrieves a paginated list of users, ordered by UUID.

Request:
  - offset: int
  - limit: int

Response:
  - 200: []User: Paginated list
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	users, err := handler.store.ListUsers(request.Context(), paginationParams.Offset, paginationParams.Limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, users)
}

/*
GET /users/{identifier}.

Description: Retrieves a user by UUID or email alias.

Request:
  - identifier: string (UUID or email)

Response:
  - 200: User: Success
  - 404: NOT_FOUND: User not found
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	identifier := ParseUserIdentifier(requestutil.Param(request, "identifier"))

	user, err := handler.store.GetUser(request.Context(), identifier)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
POST /users.

Description: Registers a new user with zero or more Ed25519 public keys.
The UUID is assigned server-side.

Request (Body):
  - { "email": "string", "public_keys": [{ "key": "base64", "description": "string" }] }

Response:
  - 200: User: Created entity
  - 400: VALIDATION: Malformed key material
  - 409: ALREADY_EXISTS: Email already registered
*/
func (handler *Handler) createUser(writer http.ResponseWriter, request *http.Request) {
	var input CreateUserInput

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.MaxLen("email", input.Email, 320)
	for _, key := range input.PublicKeys {
		v.Custom("public_keys", len(key.Key) != ed25519.PublicKeySize,
			"key must be exactly 32 bytes")
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.CreateUser(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DELETE /users/{identifier}.

Description: Removes a user and cascades its memberships, policy attachments,
and sessions.

Request:
  - identifier: string (UUID or email)

Response:
  - 204: No Content: Success
  - 404: NOT_FOUND: User not found
*/
func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	identifier := ParseUserIdentifier(requestutil.Param(request, "identifier"))

	if err := handler.store.DeleteUser(request.Context(), identifier); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
