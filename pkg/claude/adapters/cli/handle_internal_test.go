package cli

import (
	"io"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestBlockedStdinWriteDoesNotStallStdout(t *testing.T) {
	pr, pw := io.Pipe()
	h := newHandle(&exec.Cmd{}, zerolog.Nop())
	h.stdin = pw

	wrote := make(chan bool, 1)
	go func() { wrote <- h.WriteStdin([]byte("{\"type\":\"user\"}\n")) }()

	// Give the writer time to block on the unread pipe.
	time.Sleep(20 * time.Millisecond)

	delivered := make(chan string, 1)
	registered := make(chan struct{})
	go func() {
		h.OnStdout(func(chunk []byte) { delivered <- string(chunk) })
		close(registered)
		h.pump(strings.NewReader("{\"type\":\"assistant\"}\n"), func() []func([]byte) { return h.stdoutFns }, true)
	}()

	select {
	case <-registered:
	case <-time.After(time.Second):
		t.Fatal("OnStdout blocked behind a pending stdin write")
	}
	select {
	case got := <-delivered:
		if got != "{\"type\":\"assistant\"}\n" {
			t.Errorf("chunk = %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("stdout not delivered while a stdin write was blocked")
	}

	select {
	case <-wrote:
		t.Fatal("write returned before the pipe was read or closed")
	default:
	}

	_ = pr.Close()
	select {
	case ok := <-wrote:
		if ok {
			t.Error("WriteStdin() = true on a closed pipe")
		}
	case <-time.After(time.Second):
		t.Fatal("write did not return after the reader closed")
	}

	if err := h.CloseStdin(); err != nil {
		t.Errorf("CloseStdin() error = %v", err)
	}
	if h.WriteStdin([]byte("x")) {
		t.Error("write after close succeeded")
	}
}
