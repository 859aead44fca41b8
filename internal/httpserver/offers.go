package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"offers-marketplace/internal/domain"
	offersvc "offers-marketplace/internal/service/offer"
)

type listQuery struct {
	Limit       int    `form:"limit" binding:"omitempty,min=0,max=100"`
	Offset      int    `form:"offset" binding:"omitempty,min=0"`
	IsActive    *bool  `form:"isActive"`
	UsageType   string `form:"usageType" binding:"omitempty,oneof=single multi"`
	Category    string `form:"category"`
	SubCategory string `form:"subcategory"`
	Search      string `form:"q"`
}

func (h *handlers) listOffers(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	page, err := h.deps.OfferSvc.List(c.Request.Context(), callerFrom(c), offersvc.ListQuery{
		Limit:       q.Limit,
		Offset:      q.Offset,
		IsActive:    q.IsActive,
		UsageType:   domain.UsageType(q.UsageType),
		Category:    q.Category,
		SubCategory: q.SubCategory,
		Search:      q.Search,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Offers retrieved successfully.", pageResponse{
		Results: toOffers(page.Items, time.Now()),
		Count:   page.Total,
		Limit:   page.Limit,
		Offset:  page.Offset,
	})
}

func (h *handlers) getOffer(c *gin.Context) {
	o, err := h.deps.OfferSvc.Get(c.Request.Context(), callerFrom(c), c.Param("slug"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Offer retrieved successfully.", toOffer(*o, time.Now()))
}

func (h *handlers) createOffer(c *gin.Context) {
	var in offersvc.OfferInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	created, err := h.deps.OfferSvc.Create(c.Request.Context(), callerFrom(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Offer created.", toOffer(*created, time.Now()))
}

func (h *handlers) updateOffer(c *gin.Context) {
	var patch offersvc.OfferPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	updated, err := h.deps.OfferSvc.Update(c.Request.Context(), callerFrom(c), c.Param("slug"), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Offer updated.", toOffer(*updated, time.Now()))
}

func (h *handlers) deleteOffer(c *gin.Context) {
	if err := h.deps.OfferSvc.Delete(c.Request.Context(), callerFrom(c), c.Param("slug")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) searchOffers(c *gin.Context) {
	found, err := h.deps.OfferSvc.Search(c.Request.Context(), callerFrom(c), c.Query("q"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Search results.", toOffers(found, time.Now()))
}
