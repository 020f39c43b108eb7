// Package routepath stores canonical HTTP paths for web modules.
package routepath

import (
	"net/url"
	"strings"
)

const (
	Root               = "/"
	Health             = "/up"
	Logout             = "/logout"
	AuthSession        = "/auth/session"
	Profile            = "/profile"
	ProfilePrefix      = "/profile/"
	ProfileUserPattern = ProfilePrefix + "{userID}"
	// ProfileActions roots profile subroutes under a segment that is never
	// a user id, so every id stays reachable at ProfileUserPattern.
	ProfileActions = ProfilePrefix + "-/"
	ProfileEdit    = ProfileActions + "edit"
	ProfileLive    = ProfileActions + "live"
)

// ProfileLiveUserParam names the query parameter selecting the live subject.
const ProfileLiveUserParam = "user"

// ProfileUser returns the public profile route for userID.
func ProfileUser(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Profile
	}
	return ProfilePrefix + url.PathEscape(userID)
}

// ProfileLiveFor returns the live relay route for userID.
func ProfileLiveFor(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ProfileLive
	}
	return ProfileLive + "?" + url.Values{ProfileLiveUserParam: {userID}}.Encode()
}
