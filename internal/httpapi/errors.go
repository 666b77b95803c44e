package httpapi

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/alexanderramin/appraise/internal/adjustment"
	"github.com/alexanderramin/appraise/internal/editor"
	"github.com/alexanderramin/appraise/internal/repository"
	"github.com/alexanderramin/appraise/internal/service"
	"github.com/alexanderramin/appraise/internal/template"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrNotLoaded), errors.Is(err, editor.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, errBadRequest), errors.Is(err, service.ErrInvalidInput), errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, adjustment.ErrNoComparisonTarget),
		errors.Is(err, adjustment.ErrUnknownCriterion),
		errors.Is(err, template.ErrUnknownTemplate):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), errorResponse{Error: err.Error()})
}

// bindJSON decodes the request body into v. An empty or malformed body is
// a bad request.
func bindJSON(c *gin.Context, v any) error {
	data, err := c.GetRawData()
	if err != nil {
		return errors.Join(errBadRequest, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.Join(errBadRequest, errors.New("request body is required"))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
