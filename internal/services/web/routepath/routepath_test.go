package routepath

import "testing"

func TestTopLevelRouteConstants(t *testing.T) {
	t.Parallel()

	if Health != "/up" {
		t.Fatalf("Health = %q", Health)
	}
	if Logout != "/logout" {
		t.Fatalf("Logout = %q", Logout)
	}
	if ProfileEdit != "/profile/-/edit" {
		t.Fatalf("ProfileEdit = %q", ProfileEdit)
	}
	if ProfileUserPattern != "/profile/{userID}" {
		t.Fatalf("ProfileUserPattern = %q", ProfileUserPattern)
	}
}

func TestProfileRouteBuilders(t *testing.T) {
	t.Parallel()

	if got := ProfileUser("user-1"); got != "/profile/user-1" {
		t.Fatalf("ProfileUser() = %q", got)
	}
	if got := ProfileUser("a b"); got != "/profile/a%20b" {
		t.Fatalf("ProfileUser(escaped) = %q", got)
	}
	if got := ProfileUser("  "); got != "/profile" {
		t.Fatalf("ProfileUser(blank) = %q", got)
	}
	if got := ProfileLiveFor("user-1"); got != "/profile/-/live?user=user-1" {
		t.Fatalf("ProfileLiveFor() = %q", got)
	}
	if got := ProfileLiveFor(""); got != "/profile/-/live" {
		t.Fatalf("ProfileLiveFor(blank) = %q", got)
	}
}
