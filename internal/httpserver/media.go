package httpserver

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"offers-marketplace/internal/domain"
	profilesvc "offers-marketplace/internal/service/profile"
)

type profileListQuery struct {
	EmploymentStatus string `form:"employmentStatus"`
	Employer         string `form:"employer"`
	Subscribed       *bool  `form:"subscriptionStatus"`
	Email            string `form:"email"`
	Limit            int    `form:"limit" binding:"omitempty,min=0,max=100"`
	Offset           int    `form:"offset" binding:"omitempty,min=0"`
}

type subscriptionRequest struct {
	SubscriptionStatus *bool `json:"subscriptionStatus" binding:"required"`
}

func (h *handlers) getLogo(c *gin.Context) {
	logo, err := h.deps.LogoSvc.Get(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Logo retrieved successfully.", logoResponse{Logo: *logo, URL: h.deps.LogoSvc.ImageURL(logo.ImageKey)})
}

func (h *handlers) uploadLogo(c *gin.Context) {
	file, err := formFile(c, "image")
	if err != nil {
		h.writeError(c, err)
		return
	}
	var r io.Reader
	if file != nil {
		defer file.Close()
		r = file
	}
	logo, err := h.deps.LogoSvc.Upload(c.Request.Context(), callerFrom(c), r)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Logo uploaded.", logoResponse{Logo: *logo, URL: h.deps.LogoSvc.ImageURL(logo.ImageKey)})
}

func (h *handlers) getProfile(c *gin.Context) {
	p, err := h.deps.ProfileSvc.Get(c.Request.Context(), callerFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Profile retrieved successfully.", h.toProfile(*p))
}

func (h *handlers) createProfile(c *gin.Context) {
	caller := callerFrom(c)
	if !caller.Authenticated {
		h.writeError(c, domain.ErrUnauthorized)
		return
	}
	var in profilesvc.ProfileInput
	if err := c.ShouldBind(&in); err != nil {
		h.writeError(c, bindError(err))
		return
	}

	front, err := formFile(c, "idCardFront")
	if err != nil {
		h.writeError(c, err)
		return
	}
	back, err := formFile(c, "idCardBack")
	if err != nil {
		if front != nil {
			front.Close()
		}
		h.writeError(c, err)
		return
	}
	var frontR, backR io.Reader
	if front != nil {
		defer front.Close()
		frontR = front
	}
	if back != nil {
		defer back.Close()
		backR = back
	}

	p, err := h.deps.ProfileSvc.Create(c.Request.Context(), caller, in, frontR, backR)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Profile created.", h.toProfile(*p))
}

func (h *handlers) listProfiles(c *gin.Context) {
	var q profileListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	page, err := h.deps.ProfileSvc.List(c.Request.Context(), callerFrom(c), profilesvc.ProfileQuery(q))
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]profileResponse, 0, len(page.Items))
	for _, p := range page.Items {
		out = append(out, h.toProfile(p))
	}
	respond(c, http.StatusOK, "Profiles retrieved successfully.", profilePageResponse{
		Results: out,
		Count:   page.Total,
		Limit:   page.Limit,
		Offset:  page.Offset,
	})
}

func (h *handlers) setSubscription(c *gin.Context) {
	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	p, err := h.deps.ProfileSvc.SetSubscription(c.Request.Context(), callerFrom(c), c.Param("userID"), *req.SubscriptionStatus)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Subscription updated.", h.toProfile(*p))
}

func (h *handlers) toProfile(p domain.Profile) profileResponse {
	return profileResponse{
		Profile:        p,
		IDCardFrontURL: h.deps.ProfileSvc.ImageURL(p.IDCardFrontKey),
		IDCardBackURL:  h.deps.ProfileSvc.ImageURL(p.IDCardBackKey),
	}
}

// formFile opens an uploaded file. A missing file yields (nil, nil) so the
// service can report it as a field error.
func formFile(c *gin.Context, field string) (multipart.File, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if tooLarge(err) {
		return nil, errBodyTooLarge
	}
	if err != nil {
		return nil, domain.Invalid(field, "could not read upload: "+err.Error())
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	return f, nil
}
