package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gravitational/trace"

	"github.com/AnnaBNana/timetravel/internal/record"
)

// versionsSegment is the reserved path segment that lists a slug's
// version history instead of addressing a version.
const versionsSegment = "versions"

// getRecordVersion serves GET /records/:slug/:version from the
// versioned store. The selector is "latest" or a version number; the
// literal "versions" dispatches to the version listing.
func (a *API) getRecordVersion(c *gin.Context) {
	slug, err := record.ValidateSlug(c.Param("slug"))
	if err != nil {
		replyError(c, a.log, err)
		return
	}

	selector := c.Param("version")
	if selector == versionsSegment {
		a.listVersions(c, slug)
		return
	}

	rec, err := a.versioned.GetVersion(c.Request.Context(), slug, selector)
	if err != nil {
		replyError(c, a.log, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// listVersions replies with every version number assigned to slug.
func (a *API) listVersions(c *gin.Context, slug string) {
	versions, err := a.versioned.ListVersions(c.Request.Context(), slug)
	if err != nil {
		replyError(c, a.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// postRecordVersion serves POST /records/:slug/:version, the versioned
// upsert: merge into the record at the selector, or create version 1
// when the slug is new. Replies 204 on success.
func (a *API) postRecordVersion(c *gin.Context) {
	slug, err := record.ValidateSlug(c.Param("slug"))
	if err != nil {
		replyError(c, a.log, err)
		return
	}
	selector := c.Param("version")
	if selector == versionsSegment {
		replyError(c, a.log, trace.BadParameter("%q is a reserved path segment", versionsSegment))
		return
	}
	changes, err := bindChanges(c)
	if err != nil {
		replyError(c, a.log, err)
		return
	}

	ctx := c.Request.Context()
	_, err = a.versioned.Update(ctx, slug, changes, selector)
	if trace.IsNotFound(err) {
		a.log.Warn("record not found, creating", "slug", slug)
		err = a.versioned.Create(ctx, record.New(slug, record.Creation(changes)))
	}
	if err != nil {
		replyError(c, a.log, err)
		return
	}

	c.Status(http.StatusNoContent)
}
