package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"wayfarer/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// itineraryBody is the accepted request shape for create and replace. Any
// id in the body is ignored.
type itineraryBody struct {
	UserID       *int                `json:"userId" validate:"required"`
	Name         string              `json:"name" validate:"required"`
	StartDate    string              `json:"startDate"`
	EndDate      string              `json:"endDate"`
	Description  string              `json:"description"`
	Destinations []model.Destination `json:"destinations" validate:"dive"`
}

func (b *itineraryBody) validate() error {
	err := validate.Struct(b)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make(fieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", jsonPath(fe.Namespace())))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", jsonPath(fe.Namespace()), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", jsonPath(fe.Namespace()), fe.Tag()))
		}
	}
	return parts
}

func (b *itineraryBody) newItinerary() model.NewItinerary {
	return model.NewItinerary{
		UserID:       *b.UserID,
		Name:         b.Name,
		StartDate:    b.StartDate,
		EndDate:      b.EndDate,
		Description:  b.Description,
		Destinations: b.Destinations,
	}
}

// jsonPath turns "itineraryBody.Destinations[0].Activities[1].Type" into
// "destinations[0].activities[1].type".
func jsonPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	segs := strings.Split(ns, ".")
	for i, s := range segs {
		switch {
		case strings.HasPrefix(s, "UserID"):
			segs[i] = "userId" + s[len("UserID"):]
		case s != "":
			segs[i] = strings.ToLower(s[:1]) + s[1:]
		}
	}
	return strings.Join(segs, ".")
}
