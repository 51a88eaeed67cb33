// Package api implements the Collection Gateway: CRUD over named
// collections inferred from the request path, plus the auth endpoints.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/eflash24/eflash-store/internal/engine"
	"github.com/eflash24/eflash-store/pkg/schema"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	Store engine.Store
	Now   func() time.Time
}

func (h *Handler) now() string {
	if h.Now != nil {
		return schema.Timestamp(h.Now())
	}
	return schema.Now()
}

// collection resolves the :collection parameter, rejecting reserved and malformed names.
func collection(c *gin.Context) (string, bool) {
	name := c.Param("collection")
	switch {
	case name == "":
		abortWithError(c, http.StatusBadRequest, "collection is required")
		return "", false
	case !schema.ValidCollectionName(name) || schema.IsReserved(name):
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("invalid collection %q", name))
		return "", false
	}
	return name, true
}

// MissingCollection answers requests addressed to the base path itself.
func (h *Handler) MissingCollection(c *gin.Context) {
	abortWithError(c, http.StatusBadRequest, "collection is required")
}

// MissingID answers PUT and DELETE on a bare collection.
func (h *Handler) MissingID(c *gin.Context) {
	if _, ok := collection(c); !ok {
		return
	}
	abortWithError(c, http.StatusBadRequest, "id is required")
}

func (h *Handler) List(c *gin.Context) {
	name, ok := collection(c)
	if !ok {
		return
	}

	var opts engine.ListOptions
	for param, dst := range map[string]*int{"limit": &opts.Limit, "skip": &opts.Skip} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("%s must be an integer", param))
			return
		}
		*dst = max(n, 0)
	}

	records, err := h.Store.List(c.Request.Context(), name, opts)
	if err != nil {
		fail(c, err)
		return
	}
	if records == nil {
		records = []schema.Record{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) Get(c *gin.Context) {
	name, ok := collection(c)
	if !ok {
		return
	}
	id := c.Param("id")

	rec, err := h.Store.Get(c.Request.Context(), name, id)
	if err != nil {
		fail(c, notFoundIn(err, name, id))
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Create inserts the body as a new record. Identity is always store-assigned.
func (h *Handler) Create(c *gin.Context) {
	name, ok := collection(c)
	if !ok {
		return
	}

	var body schema.Record
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, fmt.Errorf("parse body: %w", err))
		return
	}

	rec := body.Without(schema.FieldID).Stamp(h.now())
	created, err := h.Store.Insert(c.Request.Context(), name, rec)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) Update(c *gin.Context) {
	name, ok := collection(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var body schema.Record
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, fmt.Errorf("parse body: %w", err))
		return
	}

	patch := engine.SanitizePatch(body)
	patch[schema.FieldUpdatedAt] = h.now()
	updated, err := h.Store.Update(c.Request.Context(), name, id, patch)
	if err != nil {
		fail(c, notFoundIn(err, name, id))
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) Delete(c *gin.Context) {
	name, ok := collection(c)
	if !ok {
		return
	}
	id := c.Param("id")

	if err := h.Store.Delete(c.Request.Context(), name, id); err != nil {
		fail(c, notFoundIn(err, name, id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("record %s deleted from %s", id, name)})
}

func notFoundIn(err error, collection, id string) error {
	if errors.Is(err, engine.ErrNotFound) {
		return fmt.Errorf("%w: no record %s in %s", engine.ErrNotFound, id, collection)
	}
	return err
}
