package httpadapter

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/wildfire-geo-service/internal/domain"
)

// Listing bounds.
const (
	defaultLimit = 20
	maxLimit     = 100
)

type createAddressRequest struct {
	Address string `json:"address" binding:"required,min=5,max=200"`
}

type addressSummary struct {
	ID        string   `json:"id"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type addressDetail struct {
	ID                string              `json:"id"`
	Address           string              `json:"address"`
	Latitude          *float64            `json:"latitude"`
	Longitude         *float64            `json:"longitude"`
	WildfireData      domain.WildfireData `json:"wildfireData"`
	WildfireFetchedAt *time.Time          `json:"wildfireFetchedAt"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

type listResponse struct {
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
	Items  []addressSummary `json:"items"`
}

func (s *Server) registerAddressRoutes(g *gin.RouterGroup) {
	g.POST("", s.handleCreateAddress)
	g.GET("", s.handleListAddresses)
	if s.refresher != nil {
		g.POST("/refresh", s.handleRefresh)
	}
	g.GET("/:id", s.handleGetAddress)
}

func (s *Server) handleCreateAddress(c *gin.Context) {
	var req createAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if strings.TrimSpace(req.Address) == "" {
			writeMessage(c, http.StatusBadRequest, "Address is required")
			return
		}
		writeMessage(c, http.StatusBadRequest, "address must be between 5 and 200 characters")
		return
	}

	addr, err := s.addresses.Create(c.Request.Context(), req.Address)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDetail(addr))
}

func (s *Server) handleListAddresses(c *gin.Context) {
	limit := queryInt(c, "limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)
	offset := max(queryInt(c, "offset", 0), 0)

	page, err := s.addresses.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.writeError(c, err)
		return
	}

	items := make([]addressSummary, len(page.Items))
	for i, a := range page.Items {
		items[i] = addressSummary{ID: a.ID, Address: a.Address, Latitude: a.Latitude, Longitude: a.Longitude}
	}
	c.JSON(http.StatusOK, listResponse{
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
		Items:  items,
	})
}

func (s *Server) handleGetAddress(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		writeMessage(c, http.StatusBadRequest, "Id is required")
		return
	}

	addr, err := s.addresses.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDetail(addr))
}

func (s *Server) handleRefresh(c *gin.Context) {
	updated, err := s.refresher.RefreshStale(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func toDetail(a domain.Address) addressDetail {
	return addressDetail{
		ID:                a.ID,
		Address:           a.Address,
		Latitude:          a.Latitude,
		Longitude:         a.Longitude,
		WildfireData:      a.WildfireData,
		WildfireFetchedAt: a.WildfireFetchedAt,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

// queryInt parses an integer query parameter, falling back to def when it
// is missing or malformed.
func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
