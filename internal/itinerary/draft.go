package itinerary

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"wayfarer/internal/auth"
	"wayfarer/internal/geo"
	"wayfarer/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Draft is the form-side working copy of an itinerary being created or edited.
type Draft struct {
	Name         string `validate:"required"`
	StartDate    string `validate:"required,datetime=2006-01-02"`
	EndDate      string `validate:"required,datetime=2006-01-02"`
	Description  string
	Destinations []model.Destination `validate:"dive"`

	now    func() time.Time
	lastID int64
}

func NewDraft() *Draft {
	return &Draft{Destinations: []model.Destination{}, now: time.Now}
}

// DraftFrom prefills a draft from an existing itinerary.
func DraftFrom(it model.Itinerary) *Draft {
	c := it.Clone()
	d := &Draft{
		Name:         c.Name,
		StartDate:    c.StartDate,
		EndDate:      c.EndDate,
		Description:  c.Description,
		Destinations: c.Destinations,
		now:          time.Now,
	}
	if d.Destinations == nil {
		d.Destinations = []model.Destination{}
	}
	return d
}

// AddDestination appends a stop at lat/lng named "Destination N". Its id is
// a millisecond timestamp, bumped when two stops land in the same millisecond.
func (d *Draft) AddDestination(lat, lng float64) model.Destination {
	now := d.now
	if now == nil {
		now = time.Now
	}
	id := now().UnixMilli()
	if id <= d.lastID {
		id = d.lastID + 1
	}
	d.lastID = id
	dest := model.Destination{
		ID:         strconv.FormatInt(id, 10),
		Name:       fmt.Sprintf("Destination %d", len(d.Destinations)+1),
		Lat:        model.FloatPtr(lat),
		Lng:        model.FloatPtr(lng),
		Activities: []model.Activity{},
	}
	d.Destinations = append(d.Destinations, dest)
	return dest
}

func (d *Draft) RenameDestination(id, name string) bool {
	for i := range d.Destinations {
		if d.Destinations[i].ID == id {
			d.Destinations[i].Name = name
			return true
		}
	}
	return false
}

func (d *Draft) RemoveDestination(id string) bool {
	for i := range d.Destinations {
		if d.Destinations[i].ID == id {
			d.Destinations = append(d.Destinations[:i:i], d.Destinations[i+1:]...)
			return true
		}
	}
	return false
}

func (d *Draft) AddActivity(destinationID string, a model.Activity) bool {
	for i := range d.Destinations {
		if d.Destinations[i].ID == destinationID {
			d.Destinations[i].Activities = append(d.Destinations[i].Activities, a)
			return true
		}
	}
	return false
}

// Route is the live route for the stops placed so far.
func (d *Draft) Route() geo.Route {
	it := model.Itinerary{Destinations: d.Destinations}
	return it.Route()
}

// Validate checks the draft before it is committed: required fields, ISO
// dates, and start not after end.
func (d *Draft) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDraft, describe(err))
	}
	start, _ := model.ParseDate(d.StartDate)
	end, _ := model.ParseDate(d.EndDate)
	if start.After(end) {
		return fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidDraft, d.StartDate, d.EndDate)
	}
	return nil
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// SaveDraft commits the draft for the session's user. With an open edit
// buffer it updates that itinerary; otherwise it creates a new one. The edit
// buffer is closed after a successful save.
func (o *Operations) SaveDraft(ctx context.Context, s auth.Session, d *Draft) (model.Itinerary, error) {
	uid, ok := s.User()
	if !ok {
		return model.Itinerary{}, ErrNotLoggedIn
	}
	if err := d.Validate(); err != nil {
		return model.Itinerary{}, err
	}
	dests := make([]model.Destination, len(d.Destinations))
	for i, dst := range d.Destinations {
		dests[i] = dst.Clone()
	}
	if cur, editing := o.Store.Current(); editing {
		cur.Name = d.Name
		cur.StartDate = d.StartDate
		cur.EndDate = d.EndDate
		cur.Description = d.Description
		cur.Destinations = dests
		if cur.UserID == 0 {
			cur.UserID = uid
		}
		return o.Update(ctx, cur)
	}
	created, err := o.Create(ctx, model.NewItinerary{
		UserID:       uid,
		Name:         d.Name,
		StartDate:    d.StartDate,
		EndDate:      d.EndDate,
		Description:  d.Description,
		Destinations: dests,
	})
	if err != nil {
		return model.Itinerary{}, err
	}
	o.Store.SetCurrent(nil)
	return created, nil
}
