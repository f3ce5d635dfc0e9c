package rest

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/evergreen-ci/gimlet"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// report fields by their json names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// parseRequest reads a JSON body into out and validates it. Failures are
// returned as bad request responses.
func parseRequest(r *http.Request, out interface{}) error {
	if r.Body == nil {
		return gimlet.ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    "request has no body",
		}
	}
	defer r.Body.Close()

	if err := gimlet.GetJSON(r.Body, out); err != nil {
		return gimlet.ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    errors.Wrap(err, "problem parsing request body").Error(),
		}
	}

	if err := validate.Struct(out); err != nil {
		return gimlet.ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    validationMessage(err),
		}
	}

	return nil
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fe.Namespace() + " failed '" + fe.Tag() + "'"
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		msgs = append(msgs, msg)
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}
