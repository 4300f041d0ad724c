package itinerary

import (
	"context"
	"log"
	"time"

	"wayfarer/internal/auth"
	"wayfarer/internal/metrics"
	"wayfarer/internal/model"
)

// Remote is the persistence contract the lifecycle operations depend on.
type Remote interface {
	List(ctx context.Context, userID int) ([]model.Itinerary, error)
	Create(ctx context.Context, in model.NewItinerary) (model.Itinerary, error)
	Update(ctx context.Context, it model.Itinerary) (model.Itinerary, error)
	Delete(ctx context.Context, id string) error
}

// Operations runs the remote-synchronized mutations against a Store.
// Overlapping calls are not queued; each settles when its remote call
// returns, so the last one to resolve wins.
type Operations struct {
	Store  *Store
	Remote Remote
	Logger *log.Logger
}

func NewOperations(store *Store, remote Remote) *Operations {
	return &Operations{Store: store, Remote: remote, Logger: log.Default()}
}

// FetchAll replaces the collection with everything the user owns.
func (o *Operations) FetchAll(ctx context.Context, userID int) ([]model.Itinerary, error) {
	var out []model.Itinerary
	err := o.run(ctx, "fetchAll", MsgFetchFailed, func(ctx context.Context) error {
		list, err := o.Remote.List(ctx, userID)
		if err != nil {
			return err
		}
		out = cloneAll(list)
		o.Store.fulfilled(func(st *State) { st.Itineraries = cloneAll(list) })
		return nil
	})
	return out, err
}

// FetchForSession gates FetchAll on the auth signal.
func (o *Operations) FetchForSession(ctx context.Context, s auth.Session) ([]model.Itinerary, error) {
	uid, ok := s.User()
	if !ok {
		return nil, ErrNotLoggedIn
	}
	return o.FetchAll(ctx, uid)
}

// Create persists a new itinerary and appends the server's copy.
func (o *Operations) Create(ctx context.Context, in model.NewItinerary) (model.Itinerary, error) {
	var out model.Itinerary
	err := o.run(ctx, "create", MsgCreateFailed, func(ctx context.Context) error {
		created, err := o.Remote.Create(ctx, in)
		if err != nil {
			return err
		}
		out = created.Clone()
		o.Store.fulfilled(func(st *State) {
			st.Itineraries = append(st.Itineraries, created.Clone())
		})
		return nil
	})
	return out, err
}

// Update replaces the itinerary with the same id and closes the edit buffer.
func (o *Operations) Update(ctx context.Context, it model.Itinerary) (model.Itinerary, error) {
	var out model.Itinerary
	err := o.run(ctx, "update", MsgUpdateFailed, func(ctx context.Context) error {
		updated, err := o.Remote.Update(ctx, it)
		if err != nil {
			return err
		}
		out = updated.Clone()
		o.Store.fulfilled(func(st *State) {
			if i := indexOf(st.Itineraries, updated.ID); i >= 0 {
				st.Itineraries[i] = updated.Clone()
			}
			st.Current = nil
		})
		return nil
	})
	return out, err
}

// Delete removes the itinerary remotely and from the collection.
func (o *Operations) Delete(ctx context.Context, id string) error {
	return o.run(ctx, "delete", MsgDeleteFailed, func(ctx context.Context) error {
		if err := o.Remote.Delete(ctx, id); err != nil {
			return err
		}
		o.Store.fulfilled(func(st *State) {
			kept := make([]model.Itinerary, 0, len(st.Itineraries))
			for _, it := range st.Itineraries {
				if it.ID != id {
					kept = append(kept, it)
				}
			}
			st.Itineraries = kept
		})
		return nil
	})
}

// Local-only mutations. Nothing is persisted until Update is called.

func (o *Operations) AddActivity(itineraryID, destinationID string, a model.Activity) {
	o.Store.AddActivity(itineraryID, destinationID, a)
}

func (o *Operations) SetCurrentItinerary(it *model.Itinerary) { o.Store.SetCurrent(it) }

func (o *Operations) ReplaceDestination(itineraryID string, d model.Destination) {
	o.Store.ReplaceDestination(itineraryID, d)
}

// run applies the pending/fulfilled/rejected protocol around fn. fn is
// responsible for the fulfilled transition; any error it returns becomes a
// rejection with the operation's fixed message.
func (o *Operations) run(ctx context.Context, op, msg string, fn func(context.Context) error) error {
	start := time.Now()
	o.Store.pending()
	err := fn(ctx)
	if err != nil {
		o.logf("itinerary: %s failed: %v", op, err)
		o.Store.rejected(msg)
		metrics.ObserveOperation(op, "rejected", time.Since(start))
		return &OpError{Op: op, Message: msg, Err: err}
	}
	metrics.ObserveOperation(op, "fulfilled", time.Since(start))
	return nil
}

func (o *Operations) logf(format string, args ...any) {
	if o.Logger == nil {
		log.Printf(format, args...)
		return
	}
	o.Logger.Printf(format, args...)
}
