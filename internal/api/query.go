package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/crawlstack/distsearch/internal/fusion"
	"github.com/crawlstack/distsearch/internal/searchstore"
	"github.com/crawlstack/distsearch/internal/store"
)

// queryResultLimit bounds the candidates returned to a caller; the search
// store itself already caps candidates at 1000.
const queryResultLimit = 100

// QueryHandler serves GET /search for the query-fusion service.
type QueryHandler struct {
	Store        *store.Store
	SearchClient *searchstore.Client
	Logger       *zap.Logger
}

// SearchResponse is the GET /search response body.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []fusion.Result `json:"results"`
}

// Search handles GET /search?q=....
func (h *QueryHandler) Search(c *gin.Context) {
	query := c.Query("q")

	results, err := fusion.Search(c.Request.Context(), h.SearchClient, h.Store, query, queryResultLimit)
	if err != nil {
		if errors.Is(err, fusion.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Status: "error", Message: err.Error()})
			return
		}
		h.Logger.Error("query search failed", zap.Error(err), zap.String("query", query))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Status: "error", Message: err.Error()})
		return
	}

	if results == nil {
		results = []fusion.Result{}
	}
	c.JSON(http.StatusOK, SearchResponse{Query: query, Results: results})
}
