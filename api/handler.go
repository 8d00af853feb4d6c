package api

import (
	"context"
	"github.com/gin-gonic/gin"
	"github.com/shimmeringbee/myjd/entity"
	"net/http"
)

type handler struct {
	integration Integration
}

type entityView struct {
	UniqueID   string             `json:"unique_id"`
	Name       string             `json:"name"`
	Key        string             `json:"key"`
	Kind       entity.Kind        `json:"kind"`
	Category   entity.Category    `json:"category,omitempty"`
	DeviceID   string             `json:"device_id,omitempty"`
	DeviceInfo *entity.DeviceInfo `json:"device_info,omitempty"`
	Enabled    bool               `json:"enabled"`
	State      entity.State       `json:"state"`
}

func (h *handler) view(e entity.Entity) entityView {
	return entityView{
		UniqueID:   e.UniqueID(),
		Name:       e.Name(),
		Key:        e.Key(),
		Kind:       e.Kind(),
		Category:   e.Category(),
		DeviceID:   e.DeviceID(),
		DeviceInfo: e.DeviceInfo(),
		Enabled:    h.integration.Enabled(e.UniqueID()),
		State:      e.State(),
	}
}

func (h *handler) devices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"devices": h.integration.Devices()})
}

func (h *handler) entities(c *gin.Context) {
	all := h.integration.Entities()

	views := make([]entityView, 0, len(all))
	for _, e := range all {
		views = append(views, h.view(e))
	}

	c.JSON(http.StatusOK, gin.H{"entities": views})
}

func (h *handler) entity(c *gin.Context) {
	e, err := h.integration.Entity(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.view(e))
}

type setEnabledBody struct {
	Enabled *bool `json:"enabled"`
}

func (h *handler) setEnabled(c *gin.Context) {
	var body setEnabledBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Enabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.integration.SetEnabled(c.Param("id"), *body.Enabled); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"enabled": *body.Enabled})
}

func (h *handler) command(fn func(context.Context, string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(c.Request.Context(), c.Param("id")); err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

type callServiceBody struct {
	DeviceID string `json:"device_id" binding:"required"`
}

func (h *handler) callService(c *gin.Context) {
	var body callServiceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.integration.CallService(c.Request.Context(), c.Param("service"), body.DeviceID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
