package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	catalogsvc "offers-marketplace/internal/service/catalog"
)

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (h *handlers) listCategories(c *gin.Context) {
	trees, err := h.deps.CatalogSvc.ListTree(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	now := time.Now()
	out := make([]categoryResponse, 0, len(trees))
	for _, t := range trees {
		out = append(out, toCategory(t, now))
	}
	respond(c, http.StatusOK, "Categories retrieved successfully.", out)
}

func (h *handlers) getCategory(c *gin.Context) {
	tree, err := h.deps.CatalogSvc.GetCategory(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Category retrieved successfully.", toCategory(*tree, time.Now()))
}

func (h *handlers) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	created, err := h.deps.CatalogSvc.CreateCategory(c.Request.Context(), callerFrom(c), catalogsvc.CategoryInput(req))
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Category created.", created)
}

func (h *handlers) updateCategory(c *gin.Context) {
	var patch catalogsvc.CategoryPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	updated, err := h.deps.CatalogSvc.UpdateCategory(c.Request.Context(), callerFrom(c), c.Param("slug"), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Category updated.", updated)
}

func (h *handlers) deleteCategory(c *gin.Context) {
	if err := h.deps.CatalogSvc.DeleteCategory(c.Request.Context(), callerFrom(c), c.Param("slug")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) createSubCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	created, err := h.deps.CatalogSvc.CreateSubCategory(c.Request.Context(), callerFrom(c), c.Param("slug"), catalogsvc.CategoryInput(req))
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Subcategory created.", created)
}

func (h *handlers) updateSubCategory(c *gin.Context) {
	var patch catalogsvc.SubCategoryPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	updated, err := h.deps.CatalogSvc.UpdateSubCategory(c.Request.Context(), callerFrom(c), c.Param("slug"), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "Subcategory updated.", updated)
}

func (h *handlers) deleteSubCategory(c *gin.Context) {
	if err := h.deps.CatalogSvc.DeleteSubCategory(c.Request.Context(), callerFrom(c), c.Param("slug")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
