package handler

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/marimovDEV/v0-crm-pos-system/internal/apierror"
	"github.com/marimovDEV/v0-crm-pos-system/internal/middleware"
	"github.com/marimovDEV/v0-crm-pos-system/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Lets tags like gt=0, min=0 and required work on decimal.Decimal fields.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

func runValidation(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Namespace()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// actor is the authenticated user and the branch they operate in.
type actor struct {
	userID   uuid.UUID
	branchID uuid.UUID
}

func actorFrom(c *gin.Context) (actor, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, apierror.New("authentication required"))
		return actor{}, false
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("token has no valid user_id"))
		return actor{}, false
	}
	branchID, err := uuid.Parse(claims.BranchID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New("token has no valid branch_id"))
		return actor{}, false
	}
	return actor{userID: userID, branchID: branchID}, true
}

// writeServiceError maps service errors onto HTTP statuses. Anything it does
// not recognise is logged and answered with a generic 500.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrSaleNotFound):
		c.JSON(http.StatusNotFound, apierror.WithCode(apierror.CodeNotFound, err.Error()))
	case errors.Is(err, service.ErrInvalidCart),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidUnitRatio),
		errors.Is(err, service.ErrIncompatibleUnits):
		c.JSON(http.StatusUnprocessableEntity, apierror.WithCode(apierror.CodeInvalidRequest, err.Error()))
	case errors.Is(err, service.ErrCreditRefused):
		c.JSON(http.StatusConflict, apierror.WithCode(apierror.CodeCreditRefused, err.Error()))
	case errors.Is(err, service.ErrReceiptGenerationFailed):
		log.Error().Err(err).Str("request_id", c.GetString(middleware.RequestIDKey)).Msg("receipt id generation failed")
		c.JSON(http.StatusServiceUnavailable, apierror.WithCode(apierror.CodeReceiptUnavailable, "could not allocate a receipt number, retry the sale"))
	default:
		log.Error().Err(err).Str("request_id", c.GetString(middleware.RequestIDKey)).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, apierror.WithCode(apierror.CodeProcessingFailed, "the operation could not be completed"))
	}
}
