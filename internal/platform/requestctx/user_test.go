package requestctx

import (
	"context"
	"testing"
)

func TestUserIDFromContextRoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-42")
	got := UserIDFromContext(ctx)
	if got != "user-42" {
		t.Fatalf("UserIDFromContext = %q, want %q", got, "user-42")
	}
}

func TestUserIDFromContextEmpty(t *testing.T) {
	got := UserIDFromContext(context.Background())
	if got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestWithUserIDNilContext(t *testing.T) {
	//lint:ignore SA1012 nil context is part of the contract under test
	ctx := WithUserID(nil, "user-99")
	if ctx == nil {
		t.Fatalf("expected non-nil context")
	}
	if got := UserIDFromContext(ctx); got != "user-99" {
		t.Fatalf("UserIDFromContext = %q, want %q", got, "user-99")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	ctx := WithAccessToken(WithUserID(context.Background(), "user-1"), "tok-1")
	if got := AccessTokenFromContext(ctx); got != "tok-1" {
		t.Fatalf("AccessTokenFromContext = %q, want %q", got, "tok-1")
	}
	if got := UserIDFromContext(ctx); got != "user-1" {
		t.Fatalf("UserIDFromContext = %q, want %q", got, "user-1")
	}
	if got := AccessTokenFromContext(context.Background()); got != "" {
		t.Fatalf("AccessTokenFromContext(empty) = %q, want empty", got)
	}
}
