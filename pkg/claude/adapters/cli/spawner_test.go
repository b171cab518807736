package cli_test

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/yuri-xyz/claudebot/pkg/claude/adapters/cli"
	"github.com/yuri-xyz/claudebot/pkg/claude/ports"
	"github.com/yuri-xyz/claudebot/pkg/clauderrs"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecFile(t *testing.T) {
	requireShell(t)

	tests := []struct {
		name       string
		script     string
		timeout    time.Duration
		wantStdout string
		check      func(t *testing.T, err error)
	}{
		{
			name:       "success",
			script:     "echo 2.1.29",
			wantStdout: "2.1.29\n",
			check: func(t *testing.T, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			},
		},
		{
			name:   "non-zero exit",
			script: "echo oops >&2; exit 3",
			check: func(t *testing.T, err error) {
				var procErr *clauderrs.ProcessError
				if !errors.As(err, &procErr) {
					t.Fatalf("expected ProcessError, got %v", err)
				}
				if procErr.ExitCode() != 3 {
					t.Errorf("ExitCode() = %d, want 3", procErr.ExitCode())
				}
				if strings.TrimSpace(procErr.Stderr()) != "oops" {
					t.Errorf("Stderr() = %q", procErr.Stderr())
				}
				if clauderrs.IsTimeout(err) {
					t.Error("non-zero exit must not be a timeout")
				}
			},
		},
		{
			name:    "timeout",
			script:  "sleep 5",
			timeout: 100 * time.Millisecond,
			check: func(t *testing.T, err error) {
				if !clauderrs.IsTimeout(err) {
					t.Fatalf("expected timeout, got %v", err)
				}
			},
		},
	}

	s := cli.NewSpawner(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.ExecFile(
				context.Background(),
				"sh",
				[]string{"-c", tt.script},
				ports.ExecOptions{Timeout: tt.timeout},
			)
			tt.check(t, err)
			if tt.wantStdout != "" && res.Stdout != tt.wantStdout {
				t.Errorf("Stdout = %q, want %q", res.Stdout, tt.wantStdout)
			}
		})
	}
}

func TestSpawnRoundTrip(t *testing.T) {
	requireShell(t)

	s := cli.NewSpawner(nil)
	h, err := s.Spawn(
		context.Background(),
		"sh",
		[]string{"-c", "cat; echo \"$CLAUDEBOT_TEST_VAR\" >&2"},
		ports.SpawnOptions{Env: map[string]string{"CLAUDEBOT_TEST_VAR": "hello"}},
	)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	if h.PID() == 0 {
		t.Error("PID() = 0")
	}

	var (
		mu     sync.Mutex
		stdout strings.Builder
		stderr strings.Builder
	)
	exited := make(chan *int, 1)

	h.OnStdout(func(b []byte) {
		mu.Lock()
		stdout.Write(b)
		mu.Unlock()
	})
	h.OnStderr(func(b []byte) {
		mu.Lock()
		stderr.Write(b)
		mu.Unlock()
	})
	h.OnExit(func(code *int, _ string) { exited <- code })
	h.Watch()

	if !h.WriteStdin([]byte("{\"a\":1}\n")) {
		t.Fatal("WriteStdin() = false")
	}
	if err := h.CloseStdin(); err != nil {
		t.Fatalf("CloseStdin() error = %v", err)
	}

	select {
	case code := <-exited:
		if code == nil || *code != 0 {
			t.Fatalf("exit code = %v, want 0", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}

	mu.Lock()
	defer mu.Unlock()
	if stdout.String() != "{\"a\":1}\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
	if strings.TrimSpace(stderr.String()) != "hello" {
		t.Errorf("stderr = %q", stderr.String())
	}
	if h.WriteStdin([]byte("late")) {
		t.Error("WriteStdin() after exit should report false")
	}
}

func TestSpawnKillReportsSignal(t *testing.T) {
	requireShell(t)

	s := cli.NewSpawner(nil)
	h, err := s.Spawn(context.Background(), "sleep", []string{"30"}, ports.SpawnOptions{})
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	type exit struct {
		code   *int
		signal string
	}
	exited := make(chan exit, 1)
	h.OnExit(func(code *int, signal string) { exited <- exit{code, signal} })
	h.Watch()

	h.Kill(syscall.SIGTERM)

	select {
	case e := <-exited:
		if e.code != nil {
			t.Errorf("code = %d, want nil", *e.code)
		}
		if e.signal != "SIGTERM" {
			t.Errorf("signal = %q, want SIGTERM", e.signal)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
}

func TestSpawnNotFound(t *testing.T) {
	s := cli.NewSpawner(nil)
	_, err := s.Spawn(
		context.Background(),
		"claudebot-definitely-missing-binary",
		nil,
		ports.SpawnOptions{},
	)
	sdkErr, ok := clauderrs.AsSDKError(err)
	if !ok {
		t.Fatalf("expected SDK error, got %v", err)
	}
	if sdkErr.Code() != clauderrs.ErrCodeProcessNotFound {
		t.Errorf("Code() = %s, want %s", sdkErr.Code(), clauderrs.ErrCodeProcessNotFound)
	}
}

func TestFindExecutable(t *testing.T) {
	requireShell(t)

	path, err := cli.FindExecutable("sh")
	if err != nil {
		t.Fatalf("FindExecutable() error = %v", err)
	}
	if path == "" {
		t.Error("empty path")
	}
	if _, err := cli.FindExecutable("/nonexistent/claude"); err == nil {
		t.Error("expected error for missing path")
	}
}
