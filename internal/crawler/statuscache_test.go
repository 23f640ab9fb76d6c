package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingProber struct {
	calls  sync.Map
	total  atomic.Int64
	delay  time.Duration
	status map[string]int
}

func (p *countingProber) Probe(ctx context.Context, url string) (int, error) {
	p.total.Add(1)
	counter, _ := p.calls.LoadOrStore(url, new(atomic.Int64))
	counter.(*atomic.Int64).Add(1) //nolint:forcetypeassert

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	code, ok := p.status[url]
	if !ok {
		return 0, errors.New("connection refused")
	}
	return code, nil
}

func (p *countingProber) callsFor(url string) int64 {
	v, ok := p.calls.Load(url)
	if !ok {
		return 0
	}
	return v.(*atomic.Int64).Load() //nolint:forcetypeassert
}

func TestStatusCacheSingleFetchUnderConcurrency(t *testing.T) {
	t.Parallel()

	prober := &countingProber{
		delay:  20 * time.Millisecond,
		status: map[string]int{"https://s/a": 200, "https://s/b": 404},
	}
	cache := NewStatusCache(prober)

	const callers = 50
	var wg sync.WaitGroup
	results := make([]int, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			url := "https://s/a"
			if i%2 == 1 {
				url = "https://s/b"
			}
			code, _ := cache.Resolve(context.Background(), url)
			results[i] = code
		}(i)
	}
	wg.Wait()

	if got := prober.callsFor("https://s/a"); got != 1 {
		t.Errorf("https://s/a probed %d times", got)
	}
	if got := prober.callsFor("https://s/b"); got != 1 {
		t.Errorf("https://s/b probed %d times", got)
	}
	for i, code := range results {
		want := 200
		if i%2 == 1 {
			want = 404
		}
		if code != want {
			t.Errorf("caller %d saw %d, expected %d", i, code, want)
		}
	}
	if cache.Len() != 2 {
		t.Errorf("Len = %d, expected 2", cache.Len())
	}
}

func TestStatusCacheMemoizesFailures(t *testing.T) {
	t.Parallel()

	prober := &countingProber{status: map[string]int{}}
	cache := NewStatusCache(prober)

	for range 3 {
		code, ok := cache.Resolve(context.Background(), "https://s/down")
		if ok || code != 0 {
			t.Errorf("expected failure, got %d %v", code, ok)
		}
	}
	if got := prober.total.Load(); got != 1 {
		t.Errorf("probed %d times, expected 1", got)
	}

	stats := cache.Stats()
	if stats.Misses != 1 || stats.Hits != 2 || stats.Entries != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestStatusCacheSkipsCancelledProbe(t *testing.T) {
	t.Parallel()

	prober := &countingProber{delay: time.Second, status: map[string]int{"https://s/a": 200}}
	cache := NewStatusCache(prober)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := cache.Resolve(ctx, "https://s/a"); ok {
		t.Error("cancelled probe should not succeed")
	}
	if cache.Len() != 0 {
		t.Error("cancelled probe must not be memoized")
	}
}

func TestStatusCacheManyURLs(t *testing.T) {
	t.Parallel()

	status := make(map[string]int)
	for i := range 20 {
		status[fmt.Sprintf("https://s/%d", i)] = 200 + i
	}
	prober := &countingProber{status: status}
	cache := NewStatusCache(prober)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 20 {
				cache.Resolve(context.Background(), fmt.Sprintf("https://s/%d", i))
			}
		}()
	}
	wg.Wait()

	if got := prober.total.Load(); got != 20 {
		t.Errorf("probed %d times, expected 20", got)
	}
}
