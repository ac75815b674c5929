// Package api contains the HTTP handlers for the FleetDesk console backend.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aethra/fleetdesk/internal/auth"
	"github.com/aethra/fleetdesk/internal/engine"
	"github.com/aethra/fleetdesk/internal/entities"
	apperrors "github.com/aethra/fleetdesk/internal/errors"
	"github.com/aethra/fleetdesk/internal/kvstore"
	"github.com/aethra/fleetdesk/internal/services"
)

// exportRowCap bounds how many rows one export request may pull.
const exportRowCap = 10000

// Handler serves the generic entity endpoints. Every managed page goes
// through the same five CRUD routes plus the soft-delete and export extras;
// the :entity segment selects the configuration.
type Handler struct {
	db       *gorm.DB
	configs  *entities.Configs
	registry *services.Registry
	jwt      *auth.JWTService
	store    kvstore.Store
}

// NewHandler creates the entity handler.
func NewHandler(db *gorm.DB, configs *entities.Configs, registry *services.Registry, jwtService *auth.JWTService, store kvstore.Store) *Handler {
	return &Handler{db: db, configs: configs, registry: registry, jwt: jwtService, store: store}
}

func (h *Handler) service(c *gin.Context) (*services.EntityService, *engine.EntityConfig, bool) {
	name := c.Param("entity")
	svc := h.registry.ByName(name)
	cfg := h.configs.ByName(name)
	if svc == nil || cfg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND", "message": "unknown entity: " + name})
		return nil, nil, false
	}
	return svc, cfg, true
}

func respondError(c *gin.Context, err error) {
	status, body := apperrors.ToHTTPError(err)
	c.JSON(status, body)
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

// AuthMiddleware validates the bearer token and loads the claims into the
// request context; the activity log picks the actor up from there.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}
		claims, err := h.jwt.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.Next()
			return
		}
		c.Set("claims", claims)
		c.Request = c.Request.WithContext(
			services.WithActor(c.Request.Context(), claims.UserID.String()))
		c.Next()
	}
}

// RequireAuth aborts unauthenticated requests.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("claims"); !exists {
			respondError(c, apperrors.NewUnauthorizedError(""))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePermission checks the caller's role against the page and action.
// Role permissions come from the roles table and are cached per request.
func (h *Handler) RequirePermission(action auth.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := c.MustGet("claims").(*auth.Claims)
		perms, err := h.rolePermissions(c, claims.Role)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		if !auth.Allows(claims.Role, perms, c.Param("entity"), action) {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "FORBIDDEN",
				"message": fmt.Sprintf("%s on %s is not permitted", action, c.Param("entity")),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin restricts a route to the admin role.
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := c.MustGet("claims").(*auth.Claims)
		if claims.Role != auth.AdminRole {
			c.JSON(http.StatusForbidden, gin.H{"error": "FORBIDDEN", "message": "admin role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (h *Handler) rolePermissions(c *gin.Context, roleCode string) (auth.RolePermissions, error) {
	if roleCode == "" || roleCode == auth.AdminRole {
		return nil, nil
	}
	var row struct {
		Permissions []byte `gorm:"column:permissions"`
	}
	err := h.db.WithContext(c.Request.Context()).
		Table("roles").Select("permissions").
		Where("code = ? AND deleted_at IS NULL", roleCode).
		Take(&row).Error
	if err != nil {
		// Unknown role means no grants, not a server failure.
		return nil, nil
	}
	perms := auth.RolePermissions{}
	if len(row.Permissions) > 0 {
		if err := json.Unmarshal(row.Permissions, &perms); err != nil {
			return nil, fmt.Errorf("failed to decode role permissions: %w", err)
		}
	}
	return perms, nil
}

// =============================================================================
// ENTITY ENDPOINTS
// =============================================================================

// List returns a paginated list of records
// GET /api/:entity
func (h *Handler) List(c *gin.Context) {
	svc, _, ok := h.service(c)
	if !ok {
		return
	}

	result, err := svc.List(c.Request.Context(), parseListParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get returns a single record
// GET /api/:entity/:id
func (h *Handler) Get(c *gin.Context) {
	svc, _, ok := h.service(c)
	if !ok {
		return
	}

	record, err := svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Create creates a new record
// POST /api/:entity
func (h *Handler) Create(c *gin.Context) {
	svc, _, ok := h.service(c)
	if !ok {
		return
	}

	var input map[string]any
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "BAD_REQUEST", "message": "invalid request body"})
		return
	}

	result, err := svc.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Update updates an existing record
// PUT /api/:entity/:id
func (h *Handler) Update(c *gin.Context) {
	svc, _, ok := h.service(c)
	if !ok {
		return
	}

	var input map[string]any
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "BAD_REQUEST", "message": "invalid request body"})
		return
	}

	result, err := svc.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Delete soft-deletes a record
// DELETE /api/:entity/:id
func (h *Handler) Delete(c *gin.Context) {
	svc, _, ok := h.service(c)
	if !ok {
		return
	}

	if _, err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted successfully"})
}

// Restore reverses a soft delete
// POST /api/:entity/:id/restore
func (h *Handler) Restore(c *gin.Context) {
	svc, cfg, ok := h.service(c)
	if !ok {
		return
	}
	if !cfg.Features.Restore {
		respondError(c, apperrors.NewUnsupportedError("restore", cfg.Plural))
		return
	}

	if _, err := svc.Restore(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "restored successfully"})
}

// HardDelete permanently removes a record. Admin only.
// DELETE /api/:entity/:id/permanent
func (h *Handler) HardDelete(c *gin.Context) {
	svc, cfg, ok := h.service(c)
	if !ok {
		return
	}
	if !cfg.Features.HardDelete {
		respondError(c, apperrors.NewUnsupportedError("permanent delete", cfg.Plural))
		return
	}

	if _, err := svc.HardDelete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "permanently deleted"})
}

// BulkDelete deletes multiple records. Deletions run concurrently; a partial
// failure reports how many could not be deleted and leaves the successes in
// place.
// POST /api/:entity/bulk-delete
func (h *Handler) BulkDelete(c *gin.Context) {
	svc, cfg, ok := h.service(c)
	if !ok {
		return
	}

	var request struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&request); err != nil || len(request.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "BAD_REQUEST", "message": "ids are required"})
		return
	}

	mutator := engine.NewMutator(&engine.EntityConfig{
		Name:     cfg.Name,
		Singular: cfg.Singular,
		Plural:   cfg.Plural,
		Service:  svc,
		Messages: cfg.Messages,
	}, nil, nil)

	if err := mutator.PerformBulkDelete(c.Request.Context(), request.IDs); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "BULK_DELETE_PARTIAL",
			"message": apperrors.Normalize(err, "bulk delete failed"),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted successfully", "count": len(request.IDs)})
}

// Export streams the filtered row set as CSV, JSON or PDF.
// GET /api/:entity/export?format=csv
func (h *Handler) Export(c *gin.Context) {
	svc, cfg, ok := h.service(c)
	if !ok {
		return
	}
	if !cfg.Features.Export {
		respondError(c, apperrors.NewUnsupportedError("export", cfg.Plural))
		return
	}

	format := engine.ExportFormat(c.DefaultQuery("format", string(engine.FormatCSV)))

	params := parseListParams(c)
	params.Page = 1
	params.PageSize = exportRowCap

	result, err := svc.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	var contentType string
	switch format {
	case engine.FormatCSV:
		contentType = "text/csv"
	case engine.FormatJSON:
		contentType = "application/json"
	case engine.FormatPDF:
		contentType = "application/pdf"
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "BAD_REQUEST", "message": "unsupported export format"})
		return
	}

	filename := fmt.Sprintf("%s.%s", cfg.Name, format)
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	exporter := engine.NewExporter()
	if err := exporter.Export(c.Writer, format, result.Data, cfg.Plural); err != nil {
		respondError(c, err)
	}
}

// =============================================================================
// UI STATE ENDPOINTS
// =============================================================================

// stateKey namespaces persisted UI state per user so customizations do not
// leak across accounts.
func stateKey(c *gin.Context, name string) string {
	claims := c.MustGet("claims").(*auth.Claims)
	return name + "-" + claims.UserID.String()
}

// GetState returns a persisted UI snapshot (column customization, filter
// presets).
// GET /api/state/:name
func (h *Handler) GetState(c *gin.Context) {
	data, err := h.store.Get(stateKey(c, c.Param("name")))
	if err == kvstore.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND", "message": "no saved state"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// PutState stores a UI snapshot.
// PUT /api/state/:name
func (h *Handler) PutState(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "BAD_REQUEST", "message": "body is required"})
		return
	}
	if err := h.store.Set(stateKey(c, c.Param("name")), data); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "saved"})
}

// DeleteState removes a UI snapshot.
// DELETE /api/state/:name
func (h *Handler) DeleteState(c *gin.Context) {
	if err := h.store.Delete(stateKey(c, c.Param("name"))); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cleared"})
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// Health returns the health status
// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "fleetdesk",
		"version": "1.0.0",
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// parseListParams reads page, page_size, search and filter[field]=value
// query parameters.
func parseListParams(c *gin.Context) engine.ListParams {
	params := engine.ListParams{
		Page:     parseIntParam(c.Query("page"), 1),
		PageSize: parseIntParam(c.Query("page_size"), engine.DefaultPageSize),
		Search:   c.Query("search"),
		Filters:  make(map[string]any),
	}

	for key, values := range c.Request.URL.Query() {
		if len(key) > 7 && key[:7] == "filter[" && key[len(key)-1] == ']' {
			fieldName := key[7 : len(key)-1]
			if len(values) > 0 {
				params.Filters[fieldName] = values[0]
			}
		}
	}
	if c.Query("include_deleted") == "true" {
		params.Filters[services.FilterIncludeDeleted] = "true"
	}
	return params
}

func parseIntParam(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(value)
	if err != nil || i < 1 {
		return defaultValue
	}
	return i
}
