package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gravitational/trace"

	"github.com/AnnaBNana/timetravel/internal/record"
)

// getRecord serves GET /records/:slug from the unversioned store.
func (a *API) getRecord(c *gin.Context) {
	slug, err := record.ValidateSlug(c.Param("slug"))
	if err != nil {
		replyError(c, a.log, err)
		return
	}

	rec, err := a.records.Get(c.Request.Context(), slug)
	if err != nil {
		replyError(c, a.log, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// postRecord serves POST /records/:slug, the unversioned upsert: merge
// into the existing record, or create one from the non-deletion subset
// of the changes when the slug is new. Replies 204 on success.
func (a *API) postRecord(c *gin.Context) {
	slug, err := record.ValidateSlug(c.Param("slug"))
	if err != nil {
		replyError(c, a.log, err)
		return
	}
	changes, err := bindChanges(c)
	if err != nil {
		replyError(c, a.log, err)
		return
	}

	ctx := c.Request.Context()
	_, err = a.records.Update(ctx, slug, changes)
	if trace.IsNotFound(err) {
		a.log.Warn("record not found, creating", "slug", slug)
		err = a.records.Create(ctx, record.New(slug, record.Creation(changes)))
	}
	if err != nil {
		replyError(c, a.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}
