// Package api - Server-rendered console pages
package api

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aethra/fleetdesk/internal/engine"
	"github.com/aethra/fleetdesk/internal/entities"
	apperrors "github.com/aethra/fleetdesk/internal/errors"
	"github.com/aethra/fleetdesk/internal/kvstore"
	"github.com/aethra/fleetdesk/internal/services"
	"github.com/aethra/fleetdesk/internal/ui"
)

// ConsoleHandler serves the server-rendered list pages. Each request mounts a
// fresh engine session, replays the query parameters onto it and renders the
// resulting table view as HTML.
type ConsoleHandler struct {
	configs  *entities.Configs
	store    kvstore.Store
	renderer *ui.Renderer
	// options loads dropdown choices for reference filters that declare no
	// static option list.
	options map[string]*services.OptionSource
}

// NewConsoleHandler creates the console page handler.
func NewConsoleHandler(db *gorm.DB, configs *entities.Configs, store kvstore.Store) (*ConsoleHandler, error) {
	renderer, err := ui.NewRenderer()
	if err != nil {
		return nil, err
	}

	options := make(map[string]*services.OptionSource)
	for key, ref := range map[string][2]string{
		"role_id":         {"roles", "name"},
		"vehicle_id":      {"vehicles", "name"},
		"vehicle_type_id": {"vehicle_types", "name"},
		"organization_id": {"organizations", "name"},
	} {
		source, err := services.NewOptionSource(db, ref[0], "id", ref[1])
		if err != nil {
			return nil, err
		}
		options[key] = source
	}
	return &ConsoleHandler{configs: configs, store: store, renderer: renderer, options: options}, nil
}

// Page renders one entity list page.
// GET /console/:entity
func (h *ConsoleHandler) Page(c *gin.Context) {
	cfg := h.configs.ByName(c.Param("entity"))
	if cfg == nil {
		respondError(c, apperrors.NewNotFoundError("page"))
		return
	}

	session := engine.NewSession(cfg, h.store, nil)
	ctx := c.Request.Context()

	// Replay query parameters. Every setter fetches; the final call leaves
	// the session at the requested state. Page is applied last because the
	// search and filter setters reset it.
	fetched := false
	if term := c.Query("search"); term != "" {
		if err := session.SetSearch(ctx, term); err != nil {
			respondError(c, err)
			return
		}
		fetched = true
	}
	for _, descriptor := range cfg.Filters {
		if value := c.Query("filter_" + descriptor.Key); value != "" {
			if err := session.SetFilter(ctx, descriptor.Key, value); err != nil {
				respondError(c, err)
				return
			}
			fetched = true
		}
	}
	if size, err := strconv.Atoi(c.Query("page_size")); err == nil && size > 0 {
		if err := session.SetPageSize(ctx, size); err != nil {
			respondError(c, err)
			return
		}
		fetched = true
	}
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 1 {
		if err := session.SetPage(ctx, page); err != nil {
			respondError(c, err)
			return
		}
		fetched = true
	}
	if !fetched {
		if err := session.Refresh(ctx); err != nil {
			respondError(c, err)
			return
		}
	}

	if column := c.Query("sort"); column != "" {
		session.HandleSort(column)
		if c.Query("dir") == "desc" {
			session.HandleSort(column)
		}
	}

	viewport := engine.Viewport{
		ScrollTop: intQuery(c, "scroll_top"),
		Height:    intQuery(c, "viewport"),
	}
	rows := session.VisibleRows()
	view := engine.NewTable(cfg.Features).Render(
		cfg, session.Columns.VisibleColumns(), rows,
		session.SortConfig(), session.IsSelected, viewport,
	)

	page := ui.Page{
		Title:      cfg.Plural,
		Entity:     cfg.Name,
		Search:     session.Search(),
		Filters:    h.filterViews(ctx, cfg, session.ActiveFilters()),
		Table:      view,
		PageNumber: session.Pagination.Page(),
		PageSize:   session.Pagination.PageSize(),
		TotalPages: session.Pagination.TotalPages(),
		CanPrev:    session.Pagination.CanGoPrev(),
		CanNext:    session.Pagination.CanGoNext(),
		Empty:      session.IsEmpty(),
		Features:   cfg.Features,
	}
	if meta := session.Meta(); meta != nil {
		page.TotalElements = meta.TotalElements
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := h.renderer.RenderPage(c.Writer, page); err != nil {
		_ = c.Error(err)
	}
}

func (h *ConsoleHandler) filterViews(ctx context.Context, cfg *engine.EntityConfig, active map[string]any) []ui.FilterView {
	views := make([]ui.FilterView, 0, len(cfg.Filters))
	for _, descriptor := range cfg.Filters {
		view := ui.FilterView{
			Key:     descriptor.Key,
			Label:   descriptor.Label,
			Options: descriptor.Options,
		}
		if len(view.Options) == 0 {
			if source, ok := h.options[descriptor.Key]; ok {
				// A failed lookup leaves the dropdown empty; the page still
				// renders.
				if loaded, err := source.Load(ctx); err == nil {
					view.Options = loaded
				} else {
					log.Printf("failed to load %s options: %v", descriptor.Key, err)
				}
			}
		}
		if value, ok := active[descriptor.Key]; ok {
			view.Selected, _ = value.(string)
		}
		views = append(views, view)
	}
	return views
}

func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
