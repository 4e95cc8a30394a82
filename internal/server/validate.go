package server

import (
	"errors"
	"fmt"
	"strings"

	"CandleWatch/internal/model"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("pair", func(fl validator.FieldLevel) bool {
		_, ok := model.LookupPair(model.PairKey(fl.Field().String()))
		return ok
	})
	_ = validate.RegisterValidation("timeframe", func(fl validator.FieldLevel) bool {
		_, ok := model.LookupTimeframe(model.Timeframe(fl.Field().String()))
		return ok
	})
}

// readAndValidate binds the body into req, fills defaults and validates it. It
// returns nil or the list of problems to send back.
func readAndValidate(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return validationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return validationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return validationErrors(err)
	}
	return nil
}

func validationErrors(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]ValidationError, 0, len(verrs))
		for _, e := range verrs {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(e.Tag()),
				Field:   e.Field(),
				Message: errorMessage(e),
				Params:  errorParams(e),
			})
		}
		return out
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: fmt.Sprintf("%v", he.Message)}}
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
}

func errorMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "pair":
		return fmt.Sprintf("%s must be a known pair", field)
	case "timeframe":
		return fmt.Sprintf("%s must be a supported timeframe", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

func errorParams(fe validator.FieldError) map[string]interface{} {
	params := make(map[string]interface{})
	switch fe.Tag() {
	case "pair":
		opts := make([]string, 0, len(model.Pairs))
		for _, p := range model.Pairs {
			opts = append(opts, string(p.Key))
		}
		params["options"] = opts
	case "timeframe":
		opts := make([]string, 0, len(model.Timeframes))
		for _, tf := range model.Timeframes {
			opts = append(opts, string(tf.Interval))
		}
		params["options"] = opts
	}
	return params
}
