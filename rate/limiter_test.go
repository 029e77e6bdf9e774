package rate

import (
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	interval := 10 * time.Millisecond
	r := NewLimiter(1, 100, Every(interval))

	tooshort := 1 * time.Millisecond

	client := "203.0.113.7"
	expected := []bool{true, false, true, true, false, false}
	waits := []time.Duration{tooshort, interval, interval, tooshort, tooshort, tooshort}
	for i, exp := range expected {
		if got := r.Check(client); got != exp {
			t.Fatalf("attempt %d: expected %v, but got %v", i, exp, got)
		}
		time.Sleep(waits[i])
	}
}

func TestLimiterPerClient(t *testing.T) {
	// One address hammering the login endpoint must not throttle another.
	r := NewLimiter(1, 100, Every(time.Minute))

	noisy := "203.0.113.7"
	quiet := "198.51.100.2"

	if !r.Check(noisy) {
		t.Fatal("first attempt of the noisy client should pass")
	}
	if r.Check(noisy) {
		t.Fatal("second immediate attempt of the noisy client should be throttled")
	}
	if !r.Check(quiet) {
		t.Fatal("an unrelated client must keep its own budget")
	}
}

func TestLimiterWithBurst(t *testing.T) {
	interval := 100 * time.Millisecond
	r := NewLimiter(5, 100, Every(interval))

	client := "203.0.113.7"
	for i := 0; i < 5; i++ {
		if !r.Check(client) {
			t.Fatalf("burst attempt %d should pass", i)
		}
	}
	if r.Check(client) {
		t.Fatal("attempt past the burst should be throttled")
	}

	time.Sleep(interval)
	if !r.Check(client) {
		t.Fatal("one interval later a single token should be back")
	}
}
