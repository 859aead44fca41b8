package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"offers-marketplace/internal/domain"
	"offers-marketplace/internal/metrics"
	accountsvc "offers-marketplace/internal/service/account"
)

const internalErrorDetail = "An error occurred"

var errBodyTooLarge = errors.New("request body too large")

// tooLarge reports whether err came from a body cut off by limitBody.
func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// writeError maps service errors onto status codes. Anything unrecognised is
// logged and reported as an opaque 500.
func (h *handlers) writeError(c *gin.Context, err error) {
	var fields domain.FieldErrors
	switch {
	case errors.Is(err, errBodyTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "Request body too large."})
	case errors.As(err, &fields):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Validation failed.", "errors": fields})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	case errors.Is(err, accountsvc.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "No active account found with the given credentials."})
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, accountsvc.ErrInvalidToken):
		metrics.RecordDenied(routeLabel(c), deniedReason(http.StatusUnauthorized))
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
	case errors.Is(err, domain.ErrForbidden):
		metrics.RecordDenied(routeLabel(c), deniedReason(http.StatusForbidden))
		c.JSON(http.StatusForbidden, gin.H{"detail": "You do not have permission to perform this action."})
	case errors.Is(err, domain.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"detail": "Already exists."})
	default:
		h.logger.Printf("http: %s %s error=%v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": internalErrorDetail})
	}
}

// bindError turns a binding failure into field errors.
func bindError(err error) error {
	if tooLarge(err) {
		return errBodyTooLarge
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := domain.FieldErrors{}
		for _, fe := range verrs {
			fields.Add(fe.Field(), bindMessage(fe))
		}
		return fields
	}
	return domain.Invalid("body", "malformed request: "+err.Error())
}

func bindMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "failed " + fe.Tag() + " validation"
}

func respond(c *gin.Context, status int, detail string, data any) {
	c.JSON(status, gin.H{"detail": detail, "data": data})
}
