// Copyright (c) 2026 Irongate. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package iam

import (
	"github.com/taibuivan/irongate/pkg/uuid"
)

// # Identifier Variants
//
// Every aliased entity can be addressed three ways: by UUID, by alias, or by
// both. When both are present the UUID is authoritative and the alias is
// ignored during resolution. An identifier with neither part set is invalid
// and never resolves.

// UserIdentifier addresses a user by UUID, email, or both.
type UserIdentifier struct {
	ID    string
	Email string
}

// UserID builds a UUID-only user identifier.
func UserID(id string) UserIdentifier { return UserIdentifier{ID: id} }

// UserEmail builds an email-only user identifier.
func UserEmail(email string) UserIdentifier { return UserIdentifier{Email: email} }

// ParseUserIdentifier classifies a raw path segment.
//
// Anything that parses as a UUID is the UUID form; everything else is
// treated as an email alias with no syntactic validation.
func ParseUserIdentifier(raw string) UserIdentifier {
	if uuid.IsValid(raw) {
		return UserIdentifier{ID: raw}
	}
	return UserIdentifier{Email: raw}
}

// String renders the identifier for error messages.
func (i UserIdentifier) String() string {
	if i.ID != "" {
		return i.ID
	}
	return i.Email
}

// GroupIdentifier addresses a group by UUID, name, or both.
type GroupIdentifier struct {
	ID   string
	Name string
}

// GroupID builds a UUID-only group identifier.
func GroupID(id string) GroupIdentifier { return GroupIdentifier{ID: id} }

// GroupName builds a name-only group identifier.
func GroupName(name string) GroupIdentifier { return GroupIdentifier{Name: name} }

// ParseGroupIdentifier classifies a raw path segment.
func ParseGroupIdentifier(raw string) GroupIdentifier {
	if uuid.IsValid(raw) {
		return GroupIdentifier{ID: raw}
	}
	return GroupIdentifier{Name: raw}
}

// String renders the identifier for error messages.
func (i GroupIdentifier) String() string {
	if i.ID != "" {
		return i.ID
	}
	return i.Name
}

// PolicyIdentifier addresses a policy by UUID, name, or both.
type PolicyIdentifier struct {
	ID   string
	Name string
}

// PolicyID builds a UUID-only policy identifier.
func PolicyID(id string) PolicyIdentifier { return PolicyIdentifier{ID: id} }

// PolicyName builds a name-only policy identifier.
func PolicyName(name string) PolicyIdentifier { return PolicyIdentifier{Name: name} }

// ParsePolicyIdentifier classifies a raw path segment.
func ParsePolicyIdentifier(raw string) PolicyIdentifier {
	if uuid.IsValid(raw) {
		return PolicyIdentifier{ID: raw}
	}
	return PolicyIdentifier{Name: raw}
}

// String renders the identifier for error messages.
func (i PolicyIdentifier) String() string {
	if i.ID != "" {
		return i.ID
	}
	return i.Name
}
