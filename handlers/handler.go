// Package handlers exposes the services over HTTP with gin.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"food-delivery-platform/apperr"
	"food-delivery-platform/logging"
	"food-delivery-platform/middleware"
	"food-delivery-platform/models"
	"food-delivery-platform/services"
	"food-delivery-platform/tenancy"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Handler holds the services every route needs
type Handler struct {
	DB         *gorm.DB
	Accounts   *services.Accounts
	Users      *services.Users
	Tenants    *services.Tenants
	Catalog    *services.Catalog
	Orders     *services.Orders
	Affiliates *services.Affiliates

	// ExposeResetToken returns the reset token in the forgot-password
	// response. Only for local setups using the log mailer.
	ExposeResetToken bool
}

var registerOnce sync.Once

// RegisterValidators adds the domain binding tags to gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return models.UserRole(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("fulfillment", func(fl validator.FieldLevel) bool {
			return models.FulfillmentType(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("orderstatus", func(fl validator.FieldLevel) bool {
			return models.OrderStatus(fl.Field().String()).Valid()
		})
	})
}

// bind decodes the JSON body into req and answers 400 on failure.
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, apperr.Validation(describeBindError(err)))
		return false
	}
	return true
}

func describeBindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "email":
			parts = append(parts, fe.Field()+" must be a valid email")
		case "min":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		case "role", "fulfillment", "orderstatus":
			parts = append(parts, fmt.Sprintf("%s %q is not a known %s", fe.Field(), fe.Value(), fe.Tag()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// respondError writes err with its mapped status. Internal causes are logged
// and replaced with a generic message.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).WithError(err).Error("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.PublicMessage(err)})
}

// idParam parses a positive numeric path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, apperr.Validation(name+" must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

func queryID(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		respondError(c, apperr.Validation(name+" must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

func scope(c *gin.Context) tenancy.Scope {
	s, _ := middleware.GetScope(c)
	return s
}
