package exec

import (
	"context"
	"testing"
)

type testLogger struct{ t *testing.T }

func (l testLogger) Printf(format string, args ...any) {
	l.t.Logf(format, args...)
}

func TestRun_Local(t *testing.T) {
	out, err := Run(context.Background(), "", []string{"echo", "hello world"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 1 || out[0] != "hello world" {
		t.Fatalf("Run output = %q; want [\"hello world\"]", out)
	}
}

func TestRun_Failure(t *testing.T) {
	_, err := Run(context.Background(), "", []string{"false"})
	if err == nil {
		t.Fatal("expected error from `false`")
	}
	var cf *CommandFailure
	if !isCommandFailure(err, &cf) {
		t.Fatalf("expected *CommandFailure, got %T: %v", err, err)
	}
}

func isCommandFailure(err error, out **CommandFailure) bool {
	cf, ok := err.(*CommandFailure)
	if ok {
		*out = cf
	}
	return ok
}

func TestQuoteRemote(t *testing.T) {
	got := QuoteRemote([]string{"zfs", "send", "pool/a@snap 1"})
	want := "zfs send 'pool/a@snap 1'"
	if got != want {
		t.Fatalf("QuoteRemote = %q; want %q", got, want)
	}
}

func TestPipe_Success(t *testing.T) {
	left := Spec{Argv: []string{"echo", "hi there"}}
	right := Spec{Argv: []string{"cat"}}
	if err := Pipe(context.Background(), testLogger{t}, left, right); err != nil {
		t.Fatalf("Pipe: %v", err)
	}
}

func TestPipe_SenderFailurePropagates(t *testing.T) {
	left := Spec{Argv: []string{"false"}}
	right := Spec{Argv: []string{"cat"}}
	err := Pipe(context.Background(), testLogger{t}, left, right)
	if err == nil {
		t.Fatal("expected pipe to fail when sender fails")
	}
	if !IsSenderFailure(err) {
		t.Fatalf("expected sender-side failure, got: %v", err)
	}
}

func TestPipe_ReceiverFailurePropagates(t *testing.T) {
	left := Spec{Argv: []string{"echo", "hi"}}
	right := Spec{Argv: []string{"false"}}
	err := Pipe(context.Background(), testLogger{t}, left, right)
	if err == nil {
		t.Fatal("expected pipe to fail when receiver fails")
	}
	if IsSenderFailure(err) {
		t.Fatalf("expected receiver-side failure, got sender-side: %v", err)
	}
}
