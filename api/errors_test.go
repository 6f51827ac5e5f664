package api_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/momentics/hioload-echo/api"
)

func TestErrorKindFatality(t *testing.T) {
	cases := []struct {
		kind  api.ErrorKind
		fatal bool
	}{
		{api.KindSetup, true},
		{api.KindPoll, true},
		{api.KindAccept, false},
		{api.KindConnection, false},
		{api.KindUnknown, false},
	}
	for _, tc := range cases {
		if got := tc.kind.Fatal(); got != tc.fatal {
			t.Errorf("%s.Fatal() = %v, want %v", tc.kind, got, tc.fatal)
		}
	}
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("address already in use")
	err := fmt.Errorf("start: %w", api.SetupError("bind", cause).WithContext("port", 9527))

	if !errors.Is(err, cause) {
		t.Fatal("cause not reachable through errors.Is")
	}
	if api.KindOf(err) != api.KindSetup {
		t.Fatalf("KindOf = %v, want setup", api.KindOf(err))
	}
	if !api.IsFatal(err) {
		t.Fatal("setup errors must be fatal")
	}
	msg := err.Error()
	for _, want := range []string{"bind", "setup error", "address already in use", "9527"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q lacks %q", msg, want)
		}
	}
}

func TestConnectionScopedErrors(t *testing.T) {
	if api.IsFatal(api.AcceptError(errors.New("ECONNABORTED"))) {
		t.Error("accept errors must not stop the service")
	}
	if api.IsFatal(api.ConnectionError("read", errors.New("reset"))) {
		t.Error("connection errors must not stop the service")
	}
	if !api.IsFatal(api.PollError(errors.New("EBADF"))) {
		t.Error("poll errors must stop the service")
	}
	if api.IsFatal(api.ErrPeerClosed) || api.KindOf(nil) != api.KindUnknown {
		t.Error("plain errors carry no kind")
	}
}

func TestErrorWithoutContext(t *testing.T) {
	e := &api.Error{Kind: api.KindAccept}
	if e.Error() != "accept error" {
		t.Errorf("unexpected message %q", e.Error())
	}
	if e.Unwrap() != nil {
		t.Error("expected nil cause")
	}
}
