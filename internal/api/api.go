// Package api is the HTTP layer of the record service. It translates
// requests into store calls, implements upsert on the write path, and
// maps domain errors to transport-level outcomes. Everything stateful
// lives behind the two service interfaces.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gravitational/trace"

	"github.com/AnnaBNana/timetravel/internal/record"
)

// RecordService is the capability the unversioned routes consume.
// Implemented by store.Records and store.MemoryRecords.
type RecordService interface {
	Get(ctx context.Context, slug string) (record.Record, error)
	Create(ctx context.Context, rec record.Record) error
	Update(ctx context.Context, slug string, changes map[string]*string) (record.Record, error)
}

// VersionedService is the capability the versioned routes consume.
// Implemented by store.Versioned and store.MemoryVersioned.
type VersionedService interface {
	GetCurrent(ctx context.Context, slug string) (record.Record, error)
	GetVersion(ctx context.Context, slug, selector string) (record.Record, error)
	Create(ctx context.Context, rec record.Record) error
	Update(ctx context.Context, slug string, changes map[string]*string, selector string) (record.Record, error)
	ListVersions(ctx context.Context, slug string) ([]int, error)
}

// API holds the handlers for the record service.
type API struct {
	records   RecordService
	versioned VersionedService
	log       *slog.Logger
}

// New creates an API over the given backends. A nil logger falls back
// to slog.Default.
func New(records RecordService, versioned VersionedService, log *slog.Logger) *API {
	if log == nil {
		log = slog.Default()
	}
	return &API{records: records, versioned: versioned, log: log}
}

// Router builds the gin engine with all routes and middleware mounted.
func (a *API) Router() *gin.Engine {
	engine := gin.New()
	engine.Use(RequestID(), Logger(a.log), gin.Recovery())
	engine.NoRoute(func(c *gin.Context) {
		replyError(c, a.log, trace.NotFound("%s not found", c.Request.URL.Path))
	})

	engine.GET("/health", a.health)
	engine.GET("/records/:slug", a.getRecord)
	engine.POST("/records/:slug", a.postRecord)
	// The third segment is a version selector, except for the
	// reserved literal "versions" which lists a slug's history.
	// Dispatched in-handler: gin's router does not allow a static
	// segment alongside a wildcard.
	engine.GET("/records/:slug/:version", a.getRecordVersion)
	engine.POST("/records/:slug/:version", a.postRecordVersion)

	return engine
}

func (a *API) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// bindChanges reads the request body as a partial-update map. Null and
// empty-string values mark deletions, so values bind as *string.
func bindChanges(c *gin.Context) (map[string]*string, error) {
	var changes map[string]*string
	if err := c.ShouldBindJSON(&changes); err != nil {
		return nil, trace.BadParameter("request body must be a JSON object of string to string|null: %v", err)
	}
	return changes, nil
}
