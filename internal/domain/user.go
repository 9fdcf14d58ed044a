package domain

import "strings"

// AnonymousName is shown to other users when neither a display name nor an
// e-mail style identifier is available.
const AnonymousName = "Anonymous"

// RoleUser is the provider role every bridged identity is upserted with.
const RoleUser = "user"

// VerifiedIdentity is the identity established by the external auth provider.
// It is never persisted by this service.
type VerifiedIdentity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// ChatUser is the user record upserted into the chat provider.
type ChatUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// ChatUserToken is what the client needs to connect to the chat provider.
// UserID always equals the VerifiedIdentity.ID it was issued for.
type ChatUserToken struct {
	UserID string `json:"userId"`
	APIKey string `json:"apiKey"`
	Token  string `json:"token"`
}

// EffectiveDisplayName returns the name other users will see.
//
// Rules, in order: the trimmed displayName when non-empty; the local part of
// an e-mail style id ("ada@example.com" -> "ada"); AnonymousName.
func EffectiveDisplayName(verifiedID, displayName string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return name
	}
	id := strings.TrimSpace(verifiedID)
	if at := strings.Index(id, "@"); at > 0 {
		return id[:at]
	}
	return AnonymousName
}

// UserContext is the caller identity injected by the chat token middleware.
type UserContext struct {
	UserID string `json:"user_id"`
}
