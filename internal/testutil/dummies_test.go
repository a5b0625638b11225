package testutil

import (
	"context"
	"testing"

	"github.com/sitelens/sitelens/internal/browser"
)

// The stubs must keep tracking the contracts they stand in for.
var (
	_ browser.Session = (*StubSession)(nil)
	_ browser.Manager = (*StubSessionManager)(nil)
)

func TestStubSession_NewPage(t *testing.T) {
	sess := &StubSession{}

	pageCtx, cancel, err := sess.NewPage(context.Background())
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	if sess.PagesOpen != 1 {
		t.Fatalf("PagesOpen = %d, want 1", sess.PagesOpen)
	}

	cancel()
	select {
	case <-pageCtx.Done():
	default:
		t.Fatal("cancel did not close the page context")
	}
}

func TestStubSessionManager_TracksSessions(t *testing.T) {
	m := &StubSessionManager{}

	sess, err := m.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if len(m.Sessions) != 1 {
		t.Fatalf("Sessions = %d, want 1", len(m.Sessions))
	}
	sess.Release()
	if !m.Sessions[0].WasReleased() {
		t.Fatal("release not recorded")
	}
}
