package weather

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks required fields, the date format and the order of the range.
// Returned errors wrap ErrBadRequest.
func (r SearchRequest) Validate() error {
	r.Location = strings.TrimSpace(r.Location)
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %s", ErrBadRequest, describeValidation(err))
	}

	start, err := time.Parse(DateLayout, r.StartDate)
	if err != nil {
		return fmt.Errorf("%w: invalid startDate", ErrBadRequest)
	}
	end, err := time.Parse(DateLayout, r.EndDate)
	if err != nil {
		return fmt.Errorf("%w: invalid endDate", ErrBadRequest)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: startDate must not be after endDate", ErrBadRequest)
	}
	return nil
}

// describeValidation turns validator output into a short client-facing message.
func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := jsonFieldName(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "datetime":
			msgs = append(msgs, field+" must be a YYYY-MM-DD date")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
