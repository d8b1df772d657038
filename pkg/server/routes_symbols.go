package server

import (
	"net/http"
	"strings"

	"github.com/openalgoflow/engine/pkg/gateway"
)

// handleSymbolSearch proxies a symbol search to the brokerage gateway.
func (s *Server) handleSymbolSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	exchange := r.URL.Query().Get("exchange")
	if query == "" {
		s.writeErrorResponse(w, "query is required", http.StatusBadRequest, nil)
		return
	}

	envelope, err := s.deps.Gateway.SearchSymbols(r.Context(), query, exchange)
	if err != nil {
		s.writeErrorResponse(w, "symbol search failed", http.StatusBadGateway, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, envelope)
}

// handleSymbolQuotes proxies a quote lookup for one or more symbols to the
// gateway. A single symbol uses Quote; a comma-separated "symbols" list
// uses MultiQuotes, each entry formatted "SYMBOL:EXCHANGE".
func (s *Server) handleSymbolQuotes(w http.ResponseWriter, r *http.Request) {
	if multi := r.URL.Query().Get("symbols"); multi != "" {
		refs := make([]gateway.SymbolRef, 0)
		for _, entry := range strings.Split(multi, ",") {
			parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
			if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
				s.writeErrorResponse(w, "symbols must be formatted SYMBOL:EXCHANGE", http.StatusBadRequest, nil)
				return
			}
			refs = append(refs, gateway.SymbolRef{Symbol: parts[0], Exchange: parts[1]})
		}

		envelope, err := s.deps.Gateway.MultiQuotes(r.Context(), refs)
		if err != nil {
			s.writeErrorResponse(w, "quote lookup failed", http.StatusBadGateway, err)
			return
		}
		s.writeJSONResponse(w, http.StatusOK, envelope)
		return
	}

	symbol := r.URL.Query().Get("symbol")
	exchange := r.URL.Query().Get("exchange")
	if symbol == "" || exchange == "" {
		s.writeErrorResponse(w, "symbol and exchange are required", http.StatusBadRequest, nil)
		return
	}

	envelope, err := s.deps.Gateway.Quote(r.Context(), symbol, exchange)
	if err != nil {
		s.writeErrorResponse(w, "quote lookup failed", http.StatusBadGateway, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, envelope)
}
