package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/arnavshah/staff-planner-api/pkg/models"
	"github.com/arnavshah/staff-planner-api/pkg/roster"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxImportSize caps uploaded roster files
const maxImportSize = 5 << 20

// GetRoster returns the stored roster and catalog
func (h *Handler) GetRoster(c *gin.Context) {
	snap, err := h.Store.Snapshot(c.Request.Context())
	if err != nil {
		h.Log.Error("load roster snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load roster"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// PutEmployee creates or replaces an employee; the path name wins over the body
func (h *Handler) PutEmployee(c *gin.Context) {
	var e models.Employee
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e.Name = c.Param("name")

	err := h.Store.UpsertEmployee(c.Request.Context(), e)
	if errors.Is(err, roster.ErrDelimiterInName) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.Log.Error("upsert employee", zap.String("name", e.Name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save employee"})
		return
	}
	c.JSON(http.StatusOK, roster.NormalizeEmployee(e))
}

// DeleteEmployee removes an employee from the roster
func (h *Handler) DeleteEmployee(c *gin.Context) {
	h.deleteNamed(c, "employee", h.Store.DeleteEmployee)
}

// PutFacility creates or replaces a facility and its positions
func (h *Handler) PutFacility(c *gin.Context) {
	var f models.Facility
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f.Name = c.Param("name")

	if err := roster.CheckFacilityName(f.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	seen := make(map[string]bool, len(f.Positions))
	for _, p := range f.Positions {
		if p.Name == "" || seen[p.Name] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "position names must be unique and non-empty"})
			return
		}
		seen[p.Name] = true
	}

	if err := h.Store.UpsertFacility(c.Request.Context(), f); err != nil {
		h.Log.Error("upsert facility", zap.String("name", f.Name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save facility"})
		return
	}
	c.JSON(http.StatusOK, f)
}

// DeleteFacility removes a facility from the catalog
func (h *Handler) DeleteFacility(c *gin.Context) {
	h.deleteNamed(c, "facility", h.Store.DeleteFacility)
}

func (h *Handler) deleteNamed(c *gin.Context, kind string, del func(context.Context, string) error) {
	name := c.Param("name")
	err := del(c.Request.Context(), name)
	switch {
	case errors.Is(err, roster.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": kind + " not found"})
	case err != nil:
		h.Log.Error("delete "+kind, zap.String("name", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete " + kind})
	default:
		c.JSON(http.StatusOK, gin.H{"message": kind + " deleted"})
	}
}

// ImportRoster replaces the stored roster and catalog. It accepts either a
// multipart "file" upload (.json, .yaml, .yml) or the document as JSON body.
func (h *Handler) ImportRoster(c *gin.Context) {
	var (
		snap *roster.Snapshot
		err  error
	)
	if fh, ferr := c.FormFile("file"); ferr == nil {
		if fh.Size > maxImportSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
			return
		}
		f, oerr := fh.Open()
		if oerr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": oerr.Error()})
			return
		}
		data, rerr := io.ReadAll(io.LimitReader(f, maxImportSize))
		f.Close()
		if rerr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": rerr.Error()})
			return
		}
		snap, err = roster.Parse(data, filepath.Ext(fh.Filename))
	} else {
		var doc any
		if berr := c.ShouldBindJSON(&doc); berr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": berr.Error()})
			return
		}
		snap, err = roster.Decode(doc)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Store.Import(c.Request.Context(), snap); err != nil {
		h.Log.Error("import roster", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not import roster"})
		return
	}

	h.Log.Info("roster imported",
		zap.Int("employees", len(snap.Employees)),
		zap.Int("facilities", len(snap.Facilities)),
	)
	c.JSON(http.StatusOK, gin.H{
		"employees":  len(snap.Employees),
		"facilities": len(snap.Facilities),
	})
}
