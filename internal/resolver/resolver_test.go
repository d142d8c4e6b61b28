package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mohammed-shakir/garage-geo/internal/cache"
	"github.com/mohammed-shakir/garage-geo/internal/cache/memstore"
	"github.com/mohammed-shakir/garage-geo/internal/core/model"
	"github.com/mohammed-shakir/garage-geo/internal/gazetteer"
	"github.com/mohammed-shakir/garage-geo/internal/geocode"
	h3mapper "github.com/mohammed-shakir/garage-geo/internal/mapper/h3"
)

// fakeProvider answers from a table and counts calls per address.
type fakeProvider struct {
	mu     sync.Mutex
	calls  map[string]int
	total  atomic.Int32
	answer map[string]model.Coordinate
	delay  time.Duration
	hang   bool
}

func newFake() *fakeProvider {
	return &fakeProvider{calls: map[string]int{}, answer: map[string]model.Coordinate{}}
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Geocode(ctx context.Context, address string) (geocode.Result, error) {
	f.total.Add(1)
	f.mu.Lock()
	f.calls[address]++
	f.mu.Unlock()

	if f.hang {
		<-ctx.Done()
		return geocode.Result{}, ctx.Err()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	c, ok := f.answer[address]
	if !ok {
		return geocode.Result{}, geocode.NewError(geocode.KindNoMatch, "fake", "no results", nil)
	}
	return geocode.Result{Coordinate: c}, nil
}

func (f *fakeProvider) callsFor(a string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[a]
}

func newResolver(t *testing.T, p geocode.Provider, timeout time.Duration, opts ...Option) (*Resolver, cache.Store) {
	t.Helper()
	store := memstore.New()
	r, err := New(gazetteer.Seoul(), geocode.NewClient(p, 0, timeout), store, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r, store
}

func sameResult(a, b model.ResolvedLocation) bool {
	a.Cached, b.Cached = false, false
	return a == b
}

func TestResolve_GangnamExample(t *testing.T) {
	p := newFake()
	r, _ := newResolver(t, p, time.Second)

	loc, err := r.Resolve(context.Background(), "서울 강남구 테헤란로 123")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if loc.Outcome != model.OutcomeDistrict || loc.District != "강남구" {
		t.Fatalf("got %+v, want 강남구 district", loc)
	}
	want := model.Coordinate{Lat: 37.517236, Lng: 127.047325}
	if loc.Coordinate != want {
		t.Fatalf("coordinate=%v want %v", loc.Coordinate, want)
	}
	if n := p.total.Load(); n != 0 {
		t.Fatalf("geocoder called %d times, want 0", n)
	}
}

func TestResolve_DistrictMatchReturnsGazetteerCenterExactly(t *testing.T) {
	p := newFake()
	r, _ := newResolver(t, p, time.Second)
	g := gazetteer.Seoul()

	for _, d := range g.Districts() {
		loc, err := r.Resolve(context.Background(), "서울특별시 "+d.Name+" 어딘가로 1")
		if err != nil {
			t.Fatalf("%s: %v", d.Name, err)
		}
		if loc.District != d.Name || loc.Coordinate != d.Center {
			t.Fatalf("%s: got %+v", d.Name, loc)
		}
	}
	if n := p.total.Load(); n != 0 {
		t.Fatalf("geocoder called %d times, want 0", n)
	}
}

func TestResolveByDistrict_NoMatchFallsThroughToGeocode(t *testing.T) {
	addr := "경기도 성남시 분당구 판교역로 235"
	if _, ok := ResolveByDistrict(addr, gazetteer.Seoul()); ok {
		t.Fatalf("unexpected district match for %q", addr)
	}

	p := newFake()
	p.answer[addr] = model.Coordinate{Lat: 37.4020, Lng: 127.1086}
	r, _ := newResolver(t, p, time.Second)

	out, err := r.ResolveBatch(context.Background(), []string{addr})
	if err != nil {
		t.Fatalf("ResolveBatch: %v", err)
	}
	loc := out[addr]
	if loc.Outcome != model.OutcomeGeocoded || loc.Coordinate != p.answer[addr] || loc.Provider != "fake" {
		t.Fatalf("got %+v, want geocoded", loc)
	}
	if p.callsFor(addr) != 1 {
		t.Fatalf("calls=%d want 1", p.callsFor(addr))
	}
}

func TestResolve_Idempotent_SecondCallIsCached(t *testing.T) {
	p := newFake()
	p.answer["용답동 250"] = model.Coordinate{Lat: 37.5614, Lng: 127.0507}
	r, _ := newResolver(t, p, time.Second)
	ctx := context.Background()

	for _, addr := range []string{"용답동 250", "알수없는주소 999", "서울 강남구 테헤란로 123"} {
		first, err := r.Resolve(ctx, addr)
		if err != nil {
			t.Fatalf("first %q: %v", addr, err)
		}
		before := p.total.Load()
		second, err := r.Resolve(ctx, addr)
		if err != nil {
			t.Fatalf("second %q: %v", addr, err)
		}
		if !sameResult(first, second) {
			t.Fatalf("%q: %+v != %+v", addr, first, second)
		}
		if p.total.Load() != before {
			t.Fatalf("%q: second resolution reached the provider", addr)
		}
	}
}

func TestResolveBatch_DeduplicatesRepeats(t *testing.T) {
	p := newFake()
	p.answer["용답동 250"] = model.Coordinate{Lat: 37.5614, Lng: 127.0507}
	r, _ := newResolver(t, p, time.Second)

	in := make([]string, 10)
	for i := range in {
		in[i] = "용답동 250"
	}
	out, err := r.ResolveBatch(context.Background(), in)
	if err != nil {
		t.Fatalf("ResolveBatch: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("len(out)=%d want 1", len(out))
	}
	if p.callsFor("용답동 250") != 1 {
		t.Fatalf("calls=%d want exactly 1", p.callsFor("용답동 250"))
	}
}

func TestResolveBatch_DeduplicatesAcrossParallelWorkers(t *testing.T) {
	p := newFake()
	p.delay = 20 * time.Millisecond
	p.answer["용답동 250"] = model.Coordinate{Lat: 37.5614, Lng: 127.0507}
	r, _ := newResolver(t, p, time.Second, WithWorkers(8))
	ctx := context.Background()

	// concurrent Resolve calls for one address share one provider request
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Resolve(ctx, "용답동 250"); err != nil {
				t.Errorf("Resolve: %v", err)
			}
		}()
	}
	wg.Wait()
	if p.callsFor("용답동 250") != 1 {
		t.Fatalf("calls=%d want 1", p.callsFor("용답동 250"))
	}
}

func TestResolveRecords_SharedLookupCountsOneProviderCall(t *testing.T) {
	p := newFake()
	p.delay = 100 * time.Millisecond
	var events atomic.Int32
	r, _ := newResolver(t, p, time.Second,
		WithWorkers(4),
		WithObserver(func(context.Context, model.ResolvedLocation) { events.Add(1) }),
	)

	recs := make([]model.AddressRecord, 4)
	for i := range recs {
		recs[i] = model.AddressRecord{Name: fmt.Sprintf("차고지%d", i), Address: "알수없는주소 999"}
	}
	placed, err := r.ResolveRecords(context.Background(), recs)
	if err != nil {
		t.Fatalf("ResolveRecords: %v", err)
	}

	s := SummarizeRecords(placed)
	if got := p.callsFor("알수없는주소 999"); got != 1 {
		t.Fatalf("provider calls=%d want 1", got)
	}
	if s.ProviderCalls != 1 || s.CacheHits != 3 || s.Unresolved != 4 {
		t.Fatalf("summary=%+v", s)
	}
	if n := events.Load(); n != 1 {
		t.Fatalf("observer saw %d fresh resolutions, want 1", n)
	}
}

func TestResolveBatch_NoMatchIsCachedAndBatchContinues(t *testing.T) {
	p := newFake()
	p.answer["용답동 250"] = model.Coordinate{Lat: 37.5614, Lng: 127.0507}
	r, store := newResolver(t, p, time.Second)
	ctx := context.Background()

	in := []string{"알수없는주소 999", "용답동 250", "서울 마포구 월드컵로 1"}
	out, err := r.ResolveBatch(ctx, in)
	if err != nil {
		t.Fatalf("ResolveBatch: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len(out)=%d want 3", len(out))
	}
	bad := out["알수없는주소 999"]
	if bad.Outcome != model.OutcomeUnresolved || bad.Reason != "no_match" {
		t.Fatalf("bad=%+v want unresolved no_match", bad)
	}
	if out["용답동 250"].Outcome != model.OutcomeGeocoded {
		t.Fatalf("later address not geocoded: %+v", out["용답동 250"])
	}
	if out["서울 마포구 월드컵로 1"].District != "마포구" {
		t.Fatalf("district entry wrong: %+v", out["서울 마포구 월드컵로 1"])
	}

	e, ok, _ := store.Get(ctx, "알수없는주소 999")
	if !ok || e.Found || e.Failure != "no_match" {
		t.Fatalf("failure not cached: ok=%v entry=%+v", ok, e)
	}

	if _, err := r.ResolveByGeocode(ctx, "알수없는주소 999"); !errors.Is(err, geocode.ErrNoMatch) {
		t.Fatalf("ResolveByGeocode err=%v want ErrNoMatch", err)
	}
	if p.callsFor("알수없는주소 999") != 1 {
		t.Fatalf("cached failure was retried")
	}
}

func TestResolve_TimeoutIsCachedUntilCleared(t *testing.T) {
	p := newFake()
	p.hang = true
	r, _ := newResolver(t, p, 30*time.Millisecond)
	ctx := context.Background()
	addr := "느린주소 1"

	loc, err := r.Resolve(ctx, addr)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if loc.Outcome != model.OutcomeUnresolved || loc.Reason != "timeout" {
		t.Fatalf("got %+v want unresolved timeout", loc)
	}

	if _, err := r.ResolveByGeocode(ctx, addr); !errors.Is(err, geocode.ErrTimeout) {
		t.Fatalf("err=%v want ErrTimeout", err)
	}
	if _, err := r.ResolveBatch(ctx, []string{addr, addr}); err != nil {
		t.Fatalf("ResolveBatch: %v", err)
	}
	if p.callsFor(addr) != 1 {
		t.Fatalf("calls=%d want 1 (no retry within a run)", p.callsFor(addr))
	}

	if err := r.Forget(ctx, addr); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if _, err := r.Resolve(ctx, addr); err != nil {
		t.Fatalf("Resolve after clear: %v", err)
	}
	if p.callsFor(addr) != 2 {
		t.Fatalf("calls=%d want 2 after clearing", p.callsFor(addr))
	}
}

func TestResolve_EmptyAddressIsMalformedAndNotCached(t *testing.T) {
	p := newFake()
	r, store := newResolver(t, p, time.Second)
	ctx := context.Background()

	loc, err := r.Resolve(ctx, "   ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if loc.Outcome != model.OutcomeUnresolved || loc.Reason != "malformed_input" {
		t.Fatalf("got %+v", loc)
	}
	if _, err := r.ResolveByGeocode(ctx, ""); !errors.Is(err, geocode.ErrMalformedInput) {
		t.Fatalf("err=%v want ErrMalformedInput", err)
	}
	if p.total.Load() != 0 {
		t.Fatalf("provider called for empty input")
	}
	if ok, _ := store.Contains(ctx, "   "); ok {
		t.Fatalf("malformed input was cached")
	}
}

func TestResolveBatch_CancelReturnsPartial(t *testing.T) {
	p := newFake()
	for i := range 5 {
		p.answer[fmt.Sprintf("주소 %d", i)] = model.Coordinate{Lat: 37.5, Lng: 127.0 + float64(i)/100}
	}
	r, store := newResolver(t, p, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	in := []string{"주소 0", "주소 1", "주소 2", "주소 3", "주소 4"}
	out, err := r.ResolveBatch(ctx, in, WithProgress(func(done, _ int) {
		if done == 2 {
			cancel()
		}
	}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
	if len(out) != 2 {
		t.Fatalf("partial len=%d want 2", len(out))
	}
	for _, a := range in[:2] {
		if _, ok := out[a]; !ok {
			t.Fatalf("missing finished address %q", a)
		}
	}
	if ok, _ := store.Contains(context.Background(), "주소 2"); ok {
		t.Fatalf("unattempted address was cached")
	}
}

func TestResolve_CancelWhileWaitingIsNotCached(t *testing.T) {
	p := newFake()
	p.answer["a"] = model.Coordinate{Lat: 37.5, Lng: 127}
	store := memstore.New()
	r, _ := New(gazetteer.Seoul(), geocode.NewClient(p, time.Hour, time.Second), store)

	// first call consumes the single token
	if _, err := r.Resolve(context.Background(), "a"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := r.Resolve(ctx, "b")
	if !errors.Is(err, geocode.ErrNotAttempted) {
		t.Fatalf("err=%v want ErrNotAttempted", err)
	}
	if ok, _ := store.Contains(context.Background(), "b"); ok {
		t.Fatalf("unattempted lookup was cached")
	}
}

func TestResolveBatch_ParallelMatchesSequential(t *testing.T) {
	in := []string{
		"서울 강남구 테헤란로 123", "알수없는주소 999", "용답동 250",
		"서울 종로구 세종대로 175", "용답동 250", "",
	}
	run := func(workers int) map[string]model.ResolvedLocation {
		p := newFake()
		p.answer["용답동 250"] = model.Coordinate{Lat: 37.5614, Lng: 127.0507}
		r, _ := newResolver(t, p, time.Second, WithWorkers(workers))
		out, err := r.ResolveBatch(context.Background(), in)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		return out
	}
	seq, par := run(1), run(4)
	if len(seq) != len(par) || len(seq) != 5 {
		t.Fatalf("len seq=%d par=%d want 5", len(seq), len(par))
	}
	for a, l := range seq {
		if !sameResult(l, par[a]) {
			t.Fatalf("%q: seq=%+v par=%+v", a, l, par[a])
		}
	}
}

func TestResolve_AttachesCellAndNotifiesObserver(t *testing.T) {
	p := newFake()
	var seen []model.ResolvedLocation
	r, _ := newResolver(t, p, time.Second,
		WithCells(h3mapper.New(), 9),
		WithObserver(func(_ context.Context, l model.ResolvedLocation) { seen = append(seen, l) }),
	)
	ctx := context.Background()

	loc, _ := r.Resolve(ctx, "서울 강남구 테헤란로 123")
	if loc.Cell == "" {
		t.Fatalf("missing h3 cell")
	}
	_, _ = r.Resolve(ctx, "알수없는주소 999")
	_, _ = r.Resolve(ctx, "알수없는주소 999") // cached, not observed

	if len(seen) != 2 {
		t.Fatalf("observer saw %d resolutions, want 2", len(seen))
	}
	if seen[1].Cell != "" {
		t.Fatalf("unresolved location got a cell")
	}
}

func TestResolveRecords(t *testing.T) {
	p := newFake()
	p.answer["용답동 250"] = model.Coordinate{Lat: 37.5614, Lng: 127.0507}
	r, _ := newResolver(t, p, time.Second)

	own := model.Coordinate{Lat: 37.55, Lng: 126.99}
	recs := []model.AddressRecord{
		{Name: "성동공영차고지", Address: "용답동 250"},
		{Name: "강서구 공영차고지", Address: "방화동 1"},
		{Name: "자체좌표", Address: "어딘가", Coordinate: &own},
		{Name: "미상", Address: "알수없는주소 999"},
	}
	placed, err := r.ResolveRecords(context.Background(), recs)
	if err != nil {
		t.Fatalf("ResolveRecords: %v", err)
	}
	if len(placed) != 4 {
		t.Fatalf("len=%d want 4", len(placed))
	}
	want := []model.Outcome{model.OutcomeGeocoded, model.OutcomeDistrict, model.OutcomeProvided, model.OutcomeUnresolved}
	for i, w := range want {
		if placed[i].Location.Outcome != w {
			t.Fatalf("record %d outcome=%s want %s", i, placed[i].Location.Outcome, w)
		}
	}
	// district matched on the facility name
	if placed[1].Location.District != "강서구" {
		t.Fatalf("district=%q want 강서구", placed[1].Location.District)
	}
	if placed[2].Location.Coordinate != own {
		t.Fatalf("provided coordinate changed")
	}

	s := SummarizeRecords(placed)
	if s.Total != 4 || s.District != 1 || s.Geocoded != 1 || s.Provided != 1 || s.Unresolved != 1 {
		t.Fatalf("summary=%+v", s)
	}
	if s.ProviderCalls != 2 || s.Reasons["no_match"] != 1 {
		t.Fatalf("summary=%+v", s)
	}
	if !s.Exceeds(0.2) || s.Exceeds(0.25) {
		t.Fatalf("ratio=%v", s.UnresolvedRatio())
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	c := geocode.NewClient(newFake(), 0, time.Second)
	if _, err := New(nil, c, memstore.New()); err == nil {
		t.Fatalf("expected error without gazetteer")
	}
	if _, err := New(gazetteer.Seoul(), nil, memstore.New()); err == nil {
		t.Fatalf("expected error without client")
	}
	if _, err := New(gazetteer.Seoul(), c, nil); err == nil {
		t.Fatalf("expected error without store")
	}
}
