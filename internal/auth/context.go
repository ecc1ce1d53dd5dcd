package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxFirebaseUID = "firebase_uid"
	CtxEmail       = "email"
	CtxDisplayName = "display_name"
)

// UserUID extracts the signed-in user's Firebase UID from the Gin context.
// Empty means no authenticated user. Set by FirebaseAuthMiddleware.
func UserUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxFirebaseUID))
}

// IsSignedIn reports whether the request carries an authenticated user.
func IsSignedIn(c *gin.Context) bool {
	return UserUID(c) != ""
}

// Profile carries the display fields of the signed-in user.
type Profile struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// UserProfile extracts the signed-in user's profile from the Gin context.
func UserProfile(c *gin.Context) Profile {
	return Profile{
		UID:         UserUID(c),
		Email:       c.GetString(CtxEmail),
		DisplayName: c.GetString(CtxDisplayName),
	}
}
