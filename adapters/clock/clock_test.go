package clock_test

import (
	"sync"
	"testing"
	"time"

	"github.com/artpar/pageblocks/adapters/clock"
)

func TestReal_NowIsUTC(t *testing.T) {
	before := time.Now()
	got := clock.Real{}.Now()
	after := time.Now()

	if got.Location() != time.UTC {
		t.Errorf("Now() location = %v, want UTC", got.Location())
	}
	if got.Before(before) || got.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", got, before, after)
	}
}

func TestFake(t *testing.T) {
	start := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	c := clock.NewFake(start)

	if !c.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", c.Now(), start)
	}

	got := c.Advance(90 * time.Second)
	want := start.Add(90 * time.Second)
	if !got.Equal(want) || !c.Now().Equal(want) {
		t.Errorf("Advance() = %v, Now() = %v, want %v", got, c.Now(), want)
	}

	reset := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	c.Set(reset)
	if !c.Now().Equal(reset) {
		t.Errorf("after Set, Now() = %v, want %v", c.Now(), reset)
	}
}

func TestFake_ConcurrentAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := clock.NewFake(start)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance(time.Second)
			_ = c.Now()
		}()
	}
	wg.Wait()

	if want := start.Add(50 * time.Second); !c.Now().Equal(want) {
		t.Errorf("Now() = %v, want %v", c.Now(), want)
	}
}
