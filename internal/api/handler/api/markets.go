// internal/api/handler/api/markets.go
package api

import (
	"net/http"

	"github.com/newthinker/binsig/internal/api/response"
	"github.com/newthinker/binsig/internal/market"
)

// Markets lists the supported market symbols.
func Markets(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"markets": market.Markets,
		"count":   len(market.Markets),
	})
}
