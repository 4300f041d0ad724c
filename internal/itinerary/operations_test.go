package itinerary

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"wayfarer/internal/auth"
	"wayfarer/internal/model"
)

// fakeRemote is an in-memory persistence service that records calls and can
// be told to fail. hook, when set, runs at the start of every call outside
// the lock so tests can hold a call open.
type fakeRemote struct {
	mu     sync.Mutex
	items  []model.Itinerary
	nextID int
	fail   error
	calls  []string
	hook   func(call string)
}

func (f *fakeRemote) enter(call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	hook, fail := f.hook, f.fail
	f.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	return fail
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// holdAll blocks every call until the returned channel is closed.
func (f *fakeRemote) holdAll() chan struct{} {
	release := make(chan struct{})
	f.mu.Lock()
	f.hook = func(string) { <-release }
	f.mu.Unlock()
	return release
}

func (f *fakeRemote) List(ctx context.Context, userID int) ([]model.Itinerary, error) {
	if err := f.enter(fmt.Sprintf("list:%d", userID)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Itinerary{}
	for _, it := range f.items {
		if it.UserID == userID {
			out = append(out, it.Clone())
		}
	}
	return out, nil
}

func (f *fakeRemote) Create(ctx context.Context, in model.NewItinerary) (model.Itinerary, error) {
	if err := f.enter("create"); err != nil {
		return model.Itinerary{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	it := in.WithID(fmt.Sprintf("srv-%d", f.nextID))
	f.items = append(f.items, it.Clone())
	return it, nil
}

func (f *fakeRemote) Update(ctx context.Context, it model.Itinerary) (model.Itinerary, error) {
	if err := f.enter("update:" + it.ID); err != nil {
		return model.Itinerary{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == it.ID {
			f.items[i] = it.Clone()
		}
	}
	return it.Clone(), nil
}

func (f *fakeRemote) Delete(ctx context.Context, id string) error {
	return f.enter("delete:" + id)
}

func newOps(t *testing.T, seed ...model.Itinerary) (*Operations, *fakeRemote) {
	t.Helper()
	r := &fakeRemote{items: seed}
	return NewOperations(NewStore(), r), r
}

func trip(id string, user int) model.Itinerary {
	return model.Itinerary{
		ID: id, UserID: user, Name: "Trip " + id, StartDate: "2025-01-01", EndDate: "2025-01-05",
		Destinations: []model.Destination{
			{ID: "d1", Name: "Paris", Lat: model.FloatPtr(48.85), Lng: model.FloatPtr(2.35), Activities: []model.Activity{}},
			{ID: "d2", Name: "Rome", Lat: model.FloatPtr(41.9), Lng: model.FloatPtr(12.5), Activities: []model.Activity{}},
		},
	}
}

func TestFetchAllReplacesCollection(t *testing.T) {
	ops, _ := newOps(t, trip("a", 1), trip("b", 2), trip("c", 1))
	ops.Store.fulfilled(func(st *State) { st.Itineraries = []model.Itinerary{trip("stale", 1)} })

	got, err := ops.FetchAll(context.Background(), 1)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	st := ops.Store.Snapshot()
	if len(got) != 2 || len(st.Itineraries) != 2 {
		t.Fatalf("want 2 itineraries, got %d / %d", len(got), len(st.Itineraries))
	}
	if st.Itineraries[0].ID != "a" || st.Itineraries[1].ID != "c" {
		t.Fatalf("unexpected ids: %+v", st.Itineraries)
	}
	if st.Loading || st.Error != "" {
		t.Fatalf("loading=%v error=%q", st.Loading, st.Error)
	}
}

func TestFetchAllRejectedKeepsCollection(t *testing.T) {
	ops, remote := newOps(t, trip("a", 1))
	if _, err := ops.FetchAll(context.Background(), 1); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	before := ops.Store.Itineraries()

	cause := errors.New("connection refused")
	remote.fail = cause
	_, err := ops.FetchAll(context.Background(), 1)

	var opErr *OpError
	if !errors.As(err, &opErr) || opErr.Message != "Failed to fetch itineraries" {
		t.Fatalf("want OpError with fixed message, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause not reachable through Unwrap")
	}
	st := ops.Store.Snapshot()
	if st.Loading {
		t.Fatalf("loading still true")
	}
	if st.Error != "Failed to fetch itineraries" {
		t.Fatalf("error = %q", st.Error)
	}
	if !reflect.DeepEqual(before, st.Itineraries) {
		t.Fatalf("collection changed on rejection")
	}
}

func TestPendingClearsErrorAndSetsLoading(t *testing.T) {
	ops, remote := newOps(t)
	remote.fail = errors.New("boom")
	_ = ops.Delete(context.Background(), "x")
	if ops.Store.Err() != MsgDeleteFailed {
		t.Fatalf("error = %q", ops.Store.Err())
	}

	remote.fail = nil
	release := remote.holdAll()
	task := ops.FetchAllAsync(context.Background(), 1)

	waitFor(t, ops.Store.Loading)
	if ops.Store.Err() != "" {
		t.Fatalf("pending should clear the error, got %q", ops.Store.Err())
	}
	close(release)
	if _, err := task.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if ops.Store.Loading() {
		t.Fatalf("loading after settle")
	}
}

func TestCreateAppendsExactlyOnce(t *testing.T) {
	ops, _ := newOps(t)
	in := model.NewItinerary{UserID: 1, Name: "Japan", StartDate: "2030-01-01", EndDate: "2030-01-10"}
	created, err := ops.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("server id missing")
	}
	n := 0
	for _, it := range ops.Store.Itineraries() {
		if it.ID == created.ID {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("created itinerary appears %d times", n)
	}
}

func TestCreateRejected(t *testing.T) {
	ops, remote := newOps(t)
	remote.fail = errors.New("500")
	if _, err := ops.Create(context.Background(), model.NewItinerary{Name: "x"}); err == nil {
		t.Fatalf("expected error")
	}
	if ops.Store.Err() != "Failed to add itinerary" || len(ops.Store.Itineraries()) != 0 {
		t.Fatalf("state after rejection: %+v", ops.Store.Snapshot())
	}
}

func TestUpdateOverwritesAndClosesBuffer(t *testing.T) {
	ops, _ := newOps(t, trip("a", 1), trip("b", 1))
	if _, err := ops.FetchAll(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if !ops.Store.Edit("a") {
		t.Fatalf("edit a")
	}
	modified := trip("a", 1)
	modified.Name = "Renamed"
	modified.Destinations = modified.Destinations[:1]

	if _, err := ops.Update(context.Background(), modified); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, ok := ops.Store.Find("a")
	if !ok || !reflect.DeepEqual(got, modified) {
		t.Fatalf("stored %+v, want %+v", got, modified)
	}
	if _, open := ops.Store.Current(); open {
		t.Fatalf("edit buffer still open")
	}
	if list := ops.Store.Itineraries(); len(list) != 2 || list[1].ID != "b" {
		t.Fatalf("position or other entries changed: %+v", list)
	}
}

func TestUpdateRejectedKeepsBuffer(t *testing.T) {
	ops, remote := newOps(t, trip("a", 1))
	_, _ = ops.FetchAll(context.Background(), 1)
	ops.Store.Edit("a")
	remote.fail = errors.New("timeout")
	if _, err := ops.Update(context.Background(), trip("a", 1)); err == nil {
		t.Fatalf("expected error")
	}
	if _, open := ops.Store.Current(); !open {
		t.Fatalf("edit buffer closed on rejection")
	}
	if ops.Store.Err() != MsgUpdateFailed {
		t.Fatalf("err = %q", ops.Store.Err())
	}
}

func TestDeleteRemovesEntry(t *testing.T) {
	ops, _ := newOps(t, trip("a", 1), trip("b", 1))
	_, _ = ops.FetchAll(context.Background(), 1)
	if err := ops.Delete(context.Background(), "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := ops.Store.Find("a"); ok {
		t.Fatalf("a still present")
	}
	if len(ops.Store.Itineraries()) != 1 {
		t.Fatalf("b should remain")
	}
}

func TestAddActivity(t *testing.T) {
	ops, _ := newOps(t, trip("a", 1))
	_, _ = ops.FetchAll(context.Background(), 1)

	act := model.NewActivity("Colosseum", model.ActivityLandmark, "")
	ops.AddActivity("a", "d2", act)
	got, _ := ops.Store.Find("a")
	if n := len(got.Destinations[1].Activities); n != 1 || got.Destinations[1].Activities[0] != act {
		t.Fatalf("activity not appended: %+v", got.Destinations[1])
	}

	second := model.NewActivity("Trattoria", model.ActivityRestaurant, "dinner")
	ops.AddActivity("a", "d2", second)
	got, _ = ops.Store.Find("a")
	if acts := got.Destinations[1].Activities; len(acts) != 2 || acts[1].Name != "Trattoria" {
		t.Fatalf("insertion order lost: %+v", acts)
	}
}

func TestAddActivityUnknownIDsAreNoOps(t *testing.T) {
	ops, _ := newOps(t, trip("a", 1))
	_, _ = ops.FetchAll(context.Background(), 1)
	before := ops.Store.Snapshot()

	ops.AddActivity("missing", "d1", model.NewActivity("x", model.ActivityOther, ""))
	ops.AddActivity("a", "missing", model.NewActivity("x", model.ActivityOther, ""))

	if after := ops.Store.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("state changed:\n%+v\n%+v", before, after)
	}
}

func TestReplaceDestination(t *testing.T) {
	ops, _ := newOps(t, trip("a", 1))
	_, _ = ops.FetchAll(context.Background(), 1)

	repl := model.Destination{ID: "d1", Name: "Lyon", Lat: model.FloatPtr(45.76), Lng: model.FloatPtr(4.83), Activities: []model.Activity{}}
	ops.ReplaceDestination("a", repl)
	got, _ := ops.Store.Find("a")
	if !reflect.DeepEqual(got.Destinations[0], repl) || got.Destinations[1].ID != "d2" {
		t.Fatalf("replace failed: %+v", got.Destinations)
	}

	before := ops.Store.Snapshot()
	ops.ReplaceDestination("a", model.Destination{ID: "nope"})
	ops.ReplaceDestination("zzz", repl)
	if !reflect.DeepEqual(before, ops.Store.Snapshot()) {
		t.Fatalf("no-op replace changed state")
	}
}

func TestEditBufferIsDetached(t *testing.T) {
	ops, _ := newOps(t, trip("a", 1))
	_, _ = ops.FetchAll(context.Background(), 1)
	ops.Store.Edit("a")

	cur, _ := ops.Store.Current()
	cur.Name = "scratch"
	ops.SetCurrentItinerary(&cur)

	stored, _ := ops.Store.Find("a")
	if stored.Name != "Trip a" {
		t.Fatalf("edit buffer leaked into collection: %q", stored.Name)
	}
	ops.SetCurrentItinerary(nil)
	if _, open := ops.Store.Current(); open {
		t.Fatalf("buffer should be closed")
	}
}

func TestLastResolvedWins(t *testing.T) {
	ops, remote := newOps(t, trip("a", 1))
	_, _ = ops.FetchAll(context.Background(), 1)

	first := trip("a", 1)
	first.Name = "first"
	second := trip("a", 1)
	second.Name = "second"

	// hold only the first update open
	release := make(chan struct{})
	var held sync.Once
	remote.mu.Lock()
	remote.hook = func(call string) {
		block := false
		held.Do(func() { block = true })
		if block {
			<-release
		}
	}
	remote.mu.Unlock()

	calls := remote.callCount()
	t1 := ops.UpdateAsync(context.Background(), first)
	waitFor(t, func() bool { return remote.callCount() > calls })

	if _, err := ops.Update(context.Background(), second); err != nil {
		t.Fatalf("second update: %v", err)
	}
	if got, _ := ops.Store.Find("a"); got.Name != "second" {
		t.Fatalf("after second settles: %q", got.Name)
	}
	close(release)
	if _, err := t1.Wait(context.Background()); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if got, _ := ops.Store.Find("a"); got.Name != "first" {
		t.Fatalf("want the later-resolving update to win, got %q", got.Name)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTaskWaitDetachesFromCaller(t *testing.T) {
	ops, remote := newOps(t, trip("a", 1))
	release := remote.holdAll()
	ctx, cancel := context.WithCancel(context.Background())
	task := ops.FetchAllAsync(ctx, 1)
	cancel()
	if _, err := task.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	close(release)
	<-task.Done()
	if got := ops.Store.Itineraries(); len(got) != 1 {
		t.Fatalf("operation should still settle after the caller left, got %d", len(got))
	}
}

func TestFetchForSession(t *testing.T) {
	ops, remote := newOps(t, trip("a", 4))
	if _, err := ops.FetchForSession(context.Background(), auth.Session{}); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("want ErrNotLoggedIn, got %v", err)
	}
	if remote.callCount() != 0 {
		t.Fatalf("remote called without a session")
	}
	if got, err := ops.FetchForSession(context.Background(), auth.ForUser(4)); err != nil || len(got) != 1 {
		t.Fatalf("got %v, %v", got, err)
	}
}
