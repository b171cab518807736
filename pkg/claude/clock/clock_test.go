package clock_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/yuri-xyz/claudebot/pkg/claude/clock"
)

func TestFakeAdvanceFiresInOrder(t *testing.T) {
	start := time.Unix(0, 0)
	c := clock.NewFake(start)

	var fired []string
	c.AfterFunc(300*time.Millisecond, func() { fired = append(fired, "c") })
	c.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "a") })
	c.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "b") })
	stopped := c.AfterFunc(200*time.Millisecond, func() { fired = append(fired, "x") })

	if !stopped.Stop() {
		t.Fatal("Stop() on pending timer = false")
	}
	if stopped.Stop() {
		t.Error("second Stop() = true")
	}

	c.Advance(250 * time.Millisecond)
	if !reflect.DeepEqual(fired, []string{"a", "b"}) {
		t.Fatalf("fired = %v", fired)
	}
	if got := c.Now().Sub(start); got != 250*time.Millisecond {
		t.Errorf("Now() offset = %v", got)
	}

	c.Advance(time.Second)
	if !reflect.DeepEqual(fired, []string{"a", "b", "c"}) {
		t.Fatalf("fired = %v", fired)
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d", c.Pending())
	}
}

func TestFakeNestedScheduling(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))

	var at []time.Duration
	start := c.Now()
	c.AfterFunc(100*time.Millisecond, func() {
		at = append(at, c.Now().Sub(start))
		c.AfterFunc(100*time.Millisecond, func() {
			at = append(at, c.Now().Sub(start))
		})
	})

	c.Advance(time.Second)
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if !reflect.DeepEqual(at, want) {
		t.Errorf("fired at %v, want %v", at, want)
	}
}
