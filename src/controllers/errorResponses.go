package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/biblioteca/loans-service/src/dtos"
	"github.com/biblioteca/loans-service/src/logger"
	"github.com/biblioteca/loans-service/src/services"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var registerFieldNames sync.Once

// UseJSONFieldNames makes binding errors report fields by their JSON name.
func UseJSONFieldNames() {
	registerFieldNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
}

func abortWithError(ctx *gin.Context, status int, message string, fields map[string]string) {
	ctx.AbortWithStatusJSON(status, dtos.NewErrorResponse(status, message, fields))
}

// writeError maps a service error to its HTTP status.
func writeError(ctx *gin.Context, log logger.Logger, err error) {
	var verr *services.ValidationError
	var bindErrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &verr):
		abortWithError(ctx, http.StatusBadRequest, "Invalid request", verr.Fields)
	case errors.As(err, &bindErrs):
		abortWithError(ctx, http.StatusBadRequest, "Invalid request", fieldMessages(bindErrs))
	case errors.As(err, &syntaxErr),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF):
		abortWithError(ctx, http.StatusBadRequest, "Malformed JSON body", nil)
	case errors.As(err, &typeErr):
		abortWithError(ctx, http.StatusBadRequest, "Invalid request", map[string]string{
			typeErr.Field: fmt.Sprintf("must be a %s", typeErr.Type.Kind()),
		})
	case errors.Is(err, services.ErrRemoteNotFound):
		abortWithError(ctx, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, services.ErrNotFound):
		abortWithError(ctx, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, services.ErrInvalidState):
		abortWithError(ctx, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, services.ErrBookNotAvailable),
		errors.Is(err, services.ErrUserHasOverdueLoans),
		errors.Is(err, services.ErrLoanLimitExceeded),
		errors.Is(err, services.ErrRemoteRejected):
		abortWithError(ctx, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, services.ErrRemoteUnavailable):
		log.Warnw("upstream unavailable", "path", ctx.FullPath(), "error", err)
		abortWithError(ctx, http.StatusServiceUnavailable, "A required service is unavailable, try again later", nil)
	default:
		log.Errorw("request failed", "path", ctx.FullPath(), "error", err)
		abortWithError(ctx, http.StatusInternalServerError, "An unexpected error occurred", nil)
	}
}

func fieldMessages(errs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "datetime":
		return "must be a date formatted as YYYY-MM-DD"
	default:
		return "is invalid"
	}
}
