package portal

import (
	"context"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestCookieSnapshotRoundTrip(t *testing.T) {
	fixture := newCASFixture(t)
	client := newTestClient(t, fixture)

	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}

	snapshot, err := client.MarshalCookies()
	if err != nil {
		t.Fatalf("MarshalCookies: %v", err)
	}
	if snapshot == "" {
		t.Fatal("expected a non-empty snapshot after login")
	}

	// A fresh client seeded from the snapshot is authenticated without
	// walking the login flow.
	restored, err := NewClient(fixture.endpoints(), Credentials{Username: "student1", Password: "hunter2"},
		WithLogger(zaptest.NewLogger(t)),
		WithCookieSnapshot(snapshot),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	authed, err := restored.IsAuthenticated(context.Background())
	if err != nil {
		t.Fatalf("IsAuthenticated: %v", err)
	}
	if !authed {
		t.Fatal("expected restored session to be authenticated")
	}

	pages := fixture.pageFetches()
	if err := restored.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if fixture.pageFetches() != pages {
		t.Fatal("restored session should not refetch the login page")
	}
}

func TestCookieSnapshotUnreadableIsDiscarded(t *testing.T) {
	fixture := newCASFixture(t)

	client, err := NewClient(fixture.endpoints(), Credentials{Username: "student1", Password: "hunter2"},
		WithLogger(zaptest.NewLogger(t)),
		WithCookieSnapshot("{not json"),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	authed, err := client.IsAuthenticated(context.Background())
	if err != nil {
		t.Fatalf("IsAuthenticated: %v", err)
	}
	if authed {
		t.Fatal("unreadable snapshot must degrade to an anonymous session")
	}
}

func TestCookieSnapshotEmptyIsNoop(t *testing.T) {
	fixture := newCASFixture(t)

	client, err := NewClient(fixture.endpoints(), Credentials{Username: "student1", Password: "hunter2"},
		WithCookieSnapshot(""))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	authed, err := client.IsAuthenticated(context.Background())
	if err != nil {
		t.Fatalf("IsAuthenticated: %v", err)
	}
	if authed {
		t.Fatal("empty snapshot must leave the session anonymous")
	}
}
