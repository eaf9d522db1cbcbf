package server

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/speedrun-hq/gasfutures-relayer/pkg/models"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/oracle"
	"github.com/speedrun-hq/gasfutures-relayer/pkg/relayer"
)

type purchaseResponse struct {
	TxHash             string `json:"txHash"`
	TokenID            string `json:"tokenId"`
	LockedGasPriceWei  string `json:"lockedGasPriceWei"`
	LockedGasPriceGwei string `json:"lockedGasPriceGwei"`
	ExpiryTimestamp    int64  `json:"expiryTimestamp"`
}

type bridgeInfoResponse struct {
	Type             models.BridgeType `json:"type"`
	Tool             string            `json:"tool,omitempty"`
	Target           string            `json:"target,omitempty"`
	EstimatedReceive string            `json:"estimatedReceive,omitempty"`
	MinReceive       string            `json:"minReceive,omitempty"`
}

type redeemResponse struct {
	TxHash       string             `json:"txHash"`
	WETHRedeemed string             `json:"wethRedeemed"`
	TargetChain  string             `json:"targetChain"`
	BridgeInfo   bridgeInfoResponse `json:"bridgeInfo"`
}

type priceResponse struct {
	Chain       string `json:"chain"`
	PriceWei    string `json:"priceWei"`
	PriceGwei   string `json:"priceGwei"`
	High24h     string `json:"high24h"`
	Low24h      string `json:"low24h"`
	TimestampMs int64  `json:"timestampMs"`
	GasToken    string `json:"gasToken"`
	Stale       bool   `json:"stale"`
}

type positionResponse struct {
	TokenID           string `json:"tokenId"`
	Owner             string `json:"owner"`
	TotalAmount       string `json:"totalAmount"`
	RemainingAmount   string `json:"remainingAmount"`
	LockedPrice       string `json:"lockedPrice"`
	LockedPriceGwei   string `json:"lockedPriceGwei"`
	PurchaseTimestamp int64  `json:"purchaseTimestamp"`
	ExpiryTimestamp   int64  `json:"expiryTimestamp"`
	TargetChain       string `json:"targetChain"`
	Status            string `json:"status"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	var req relayer.PurchaseRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	result, err := s.workflows.Purchase(r.Context(), req)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, purchaseResponse{
		TxHash:             result.TxHash.Hex(),
		TokenID:            bigString(result.TokenID),
		LockedGasPriceWei:  bigString(result.LockedGasPriceWei),
		LockedGasPriceGwei: result.LockedGasPriceGwei,
		ExpiryTimestamp:    result.ExpiryTimestamp,
	})
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req relayer.RedeemRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	result, err := s.workflows.Redeem(r.Context(), req)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	info := bridgeInfoResponse{Type: result.BridgeInfo.Type}
	if result.BridgeInfo.Type == models.BridgeTypeBridge {
		info.Tool = result.BridgeInfo.Tool
		info.Target = result.BridgeInfo.Target.Hex()
		info.EstimatedReceive = bigString(result.BridgeInfo.EstimatedReceive)
		info.MinReceive = bigString(result.BridgeInfo.MinReceive)
	}

	writeJSON(w, http.StatusOK, redeemResponse{
		TxHash:       result.TxHash.Hex(),
		WETHRedeemed: bigString(result.WETHRedeemed),
		TargetChain:  result.TargetChain,
		BridgeInfo:   info,
	})
}

func (s *Server) handleListPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := s.prices.GetAllPrices(r.Context())
	if err != nil {
		s.logger.Error("Failed to list prices: %v", err)
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to read prices", nil)
		return
	}

	out := make([]priceResponse, 0, len(prices))
	for _, p := range prices {
		out = append(out, s.toPriceResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"prices": out})
}

func (s *Server) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	chain := strings.TrimSpace(chi.URLParam(r, "chain"))

	price, err := s.prices.GetPrice(r.Context(), chain)
	if err != nil {
		if errors.Is(err, oracle.ErrPriceNotFound) {
			writeError(w, r, http.StatusNotFound, "PRICE_UNAVAILABLE", "no price available for "+chain, nil)
			return
		}
		s.logger.ErrorWithChain(chain, "Failed to read price: %v", err)
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to read price", nil)
		return
	}
	writeJSON(w, http.StatusOK, s.toPriceResponse(price))
}

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	userParam := strings.TrimSpace(r.URL.Query().Get("user"))
	if !common.IsHexAddress(userParam) {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "user must be a valid address", map[string]any{"field": "user"})
		return
	}

	maxScan := s.cfg.MaxScan
	if raw := r.URL.Query().Get("maxScan"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "maxScan must be a positive integer", map[string]any{"field": "maxScan"})
			return
		}
		maxScan = min(v, s.cfg.MaxScan)
	}

	positions, err := s.positions.GetUserPositions(r.Context(), common.HexToAddress(userParam), maxScan)
	if err != nil {
		s.logger.Error("Failed to list positions of %s: %v", userParam, err)
		writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list positions", nil)
		return
	}

	out := make([]positionResponse, 0, len(positions))
	for _, p := range positions {
		out = append(out, s.toPositionResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"positions": out, "maxScan": maxScan})
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := new(big.Int).SetString(chi.URLParam(r, "tokenId"), 10)
	if !ok || tokenID.Sign() < 0 {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "tokenId must be a non-negative integer", map[string]any{"field": "tokenId"})
		return
	}

	position, err := s.positions.GetPosition(r.Context(), tokenID)
	if err != nil {
		writeError(w, r, http.StatusNotFound, "POSITION_NOT_FOUND", "position "+tokenID.String()+" not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, s.toPositionResponse(position))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	authorized, err := s.readiness.IsAuthorizedCaller(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Settlement contract unreachable"))
		return
	}
	if !authorized {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("Relayer not authorized on settlement contract"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Ready"))
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	breakers := make(map[string]any, len(s.breakers))
	for _, cb := range s.breakers {
		state := cb.GetState()
		breakers[state.Name] = state
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"source_chain":     s.cfg.SourceChain,
		"relayer_address":  s.cfg.RelayerAddr.Hex(),
		"max_price_age_ms": s.cfg.MaxPriceAgeMs,
		"max_scan":         s.cfg.MaxScan,
		"circuit_breakers": breakers,
	})
}

// handleCircuitReset is the circuit breaker admin control endpoint
func (s *Server) handleCircuitReset(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "missing name parameter", nil)
		return
	}

	for _, cb := range s.breakers {
		if cb.GetState().Name == name {
			cb.Reset()
			s.logger.Notice("Circuit breaker %s reset by admin", name)
			writeJSON(w, http.StatusOK, map[string]any{"reset": name})
			return
		}
	}
	writeError(w, r, http.StatusNotFound, "NOT_FOUND", "no circuit breaker named "+name, nil)
}

func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	f := relayer.AsFailure(err)
	writeError(w, r, relayer.HTTPStatus(f), f.Code(), f.Message, f.Details)
}

func (s *Server) toPriceResponse(p models.GasPrice) priceResponse {
	return priceResponse{
		Chain:       p.Chain,
		PriceWei:    bigString(p.PriceWei),
		PriceGwei:   p.PriceGwei,
		High24h:     bigString(p.High24h),
		Low24h:      bigString(p.Low24h),
		TimestampMs: p.TimestampMs,
		GasToken:    p.GasToken,
		Stale:       s.prices.IsStale(p, s.cfg.MaxPriceAgeMs),
	}
}

func (s *Server) toPositionResponse(p *models.Position) positionResponse {
	return positionResponse{
		TokenID:           bigString(p.TokenID),
		Owner:             p.Owner.Hex(),
		TotalAmount:       bigString(p.TotalAmount),
		RemainingAmount:   bigString(p.RemainingAmount),
		LockedPrice:       bigString(p.LockedPrice),
		LockedPriceGwei:   oracle.FormatGwei(p.LockedPrice),
		PurchaseTimestamp: p.PurchaseTimestamp,
		ExpiryTimestamp:   p.ExpiryTimestamp,
		TargetChain:       p.TargetChain,
		Status:            string(p.Status(s.now())),
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
