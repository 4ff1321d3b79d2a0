package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-insights/internal/behavior"
	"github.com/mselser95/polymarket-insights/internal/consistency"
	"github.com/mselser95/polymarket-insights/internal/flow"
	"github.com/mselser95/polymarket-insights/internal/insights"
	"github.com/mselser95/polymarket-insights/internal/marketstate"
	"github.com/mselser95/polymarket-insights/internal/participation"
	"github.com/mselser95/polymarket-insights/internal/sizing"
	"github.com/mselser95/polymarket-insights/pkg/types"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// BookFeatures supplies market-state features from live order books.
type BookFeatures interface {
	Features(marketID string) (marketstate.Features, bool)
}

type handler struct {
	svc      *insights.Service
	books    BookFeatures
	validate *validator.Validate
	logger   *zap.Logger
}

func (h *handler) routes(r chi.Router) {
	r.Post("/market-state", h.marketState)
	r.Get("/market-state/labels/{label}", h.marketStateLabel)
	r.Get("/markets/{marketID}/state", h.liveMarketState)

	r.Post("/behavior", h.classifyBehavior)
	r.Get("/behavior/clusters", h.clusters)
	r.Get("/behavior/clusters/{cluster}", h.cluster)

	r.Post("/consistency", h.checkConsistency)
	r.Post("/consistency/scan", h.consistencyScan)

	r.Post("/flow/episodes", h.flowEpisodes)
	r.Post("/flow/summary", h.flowSummary)

	r.Post("/participation", h.analyzeParticipation)

	r.Post("/traders/score", h.traderScore)
	r.Post("/traders/rank", h.traderRank)

	r.Post("/sizing/kelly", h.kelly)
	r.Post("/sizing/advanced", h.advancedKelly)
	r.Post("/sizing/risk-levels", h.riskLevels)

	r.Post("/signals/best-bets", h.bestBets)
}

type marketStateRequest struct {
	Features   marketstate.Features            `json:"features"`
	Thresholds json.RawMessage                 `json:"thresholds,omitempty"`
	Historical *marketstate.HistoricalAverages `json:"historical,omitempty"`
}

func (h *handler) marketState(w http.ResponseWriter, r *http.Request) {
	var req marketStateRequest
	if !h.decode(w, r, &req) {
		return
	}

	thresholds, ok := overlayThresholds(w, req.Thresholds, marketstate.DefaultThresholds())
	if !ok {
		return
	}

	result, err := h.svc.ClassifyMarketState(r.Context(), req.Features, thresholds, req.Historical)
	h.respond(w, r, result, err)
}

// liveMarketState classifies a market from its live order book.
func (h *handler) liveMarketState(w http.ResponseWriter, r *http.Request) {
	if h.books == nil {
		respondError(w, http.StatusServiceUnavailable, "live order books are disabled")
		return
	}

	marketID := chi.URLParam(r, "marketID")
	features, ok := h.books.Features(marketID)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("no live book for market %q", marketID))
		return
	}

	result, err := h.svc.ClassifyMarketState(r.Context(), features, nil, nil)
	h.respond(w, r, result, err)
}

func (h *handler) marketStateLabel(w http.ResponseWriter, r *http.Request) {
	label := marketstate.StateLabel(chi.URLParam(r, "label"))
	for _, known := range marketstate.Labels() {
		if known == label {
			respondJSON(w, http.StatusOK, marketstate.GetDisplayInfo(label))
			return
		}
	}
	respondError(w, http.StatusNotFound, fmt.Sprintf("unknown market state %q", label))
}

func (h *handler) classifyBehavior(w http.ResponseWriter, r *http.Request) {
	var market behavior.Market
	if !h.decode(w, r, &market) {
		return
	}

	result, err := h.svc.ClassifyBehavior(r.Context(), market)
	h.respond(w, r, result, err)
}

func (h *handler) clusters(w http.ResponseWriter, r *http.Request) {
	clusters := behavior.Clusters()
	out := make([]behavior.ClusterDisplayInfo, 0, len(clusters))
	for _, c := range clusters {
		info, _ := behavior.GetDisplayInfo(c)
		out = append(out, info)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *handler) cluster(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "cluster")
	info, ok := behavior.GetDisplayInfo(behavior.Cluster(name))
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("unknown cluster %q", name))
		return
	}
	respondJSON(w, http.StatusOK, info)
}

type consistencyRequest struct {
	Pair       consistency.Pair `json:"pair"`
	Thresholds json.RawMessage  `json:"thresholds,omitempty"`
}

func (h *handler) checkConsistency(w http.ResponseWriter, r *http.Request) {
	var req consistencyRequest
	if !h.decode(w, r, &req) {
		return
	}

	thresholds, ok := overlayThresholds(w, req.Thresholds, consistency.DefaultThresholds())
	if !ok {
		return
	}

	result, err := h.svc.CheckConsistency(r.Context(), req.Pair, thresholds)
	if err == nil && result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.respond(w, r, result, err)
}

type consistencyScanRequest struct {
	Markets    []consistency.MarketSnapshot `json:"markets"`
	Thresholds json.RawMessage              `json:"thresholds,omitempty"`
}

type consistencyScanResponse struct {
	Count   int                       `json:"count"`
	Results []consistency.CheckResult `json:"results"`
}

func (h *handler) consistencyScan(w http.ResponseWriter, r *http.Request) {
	var req consistencyScanRequest
	if !h.decode(w, r, &req) {
		return
	}

	thresholds, ok := overlayThresholds(w, req.Thresholds, consistency.DefaultThresholds())
	if !ok {
		return
	}

	results, err := h.svc.ScanConsistency(r.Context(), req.Markets, thresholds)
	if results == nil {
		results = []consistency.CheckResult{}
	}
	h.respond(w, r, consistencyScanResponse{Count: len(results), Results: results}, err)
}

type flowRequest struct {
	MarketID   string            `json:"marketId" validate:"required"`
	Trades     []flow.TradeEvent `json:"trades"`
	Thresholds json.RawMessage   `json:"thresholds,omitempty"`
}

func (h *handler) flowEpisodes(w http.ResponseWriter, r *http.Request) {
	var req flowRequest
	if !h.decode(w, r, &req) {
		return
	}

	thresholds, ok := overlayThresholds(w, req.Thresholds, h.svc.FlowDefaults())
	if !ok {
		return
	}

	episodes, err := h.svc.BuildEpisodes(r.Context(), req.MarketID, req.Trades, thresholds)
	if episodes == nil {
		episodes = []flow.Episode{}
	}
	h.respond(w, r, episodes, err)
}

func (h *handler) flowSummary(w http.ResponseWriter, r *http.Request) {
	var req flowRequest
	if !h.decode(w, r, &req) {
		return
	}

	thresholds, ok := overlayThresholds(w, req.Thresholds, h.svc.FlowDefaults())
	if !ok {
		return
	}

	summary, err := h.svc.SummarizeFlow(r.Context(), req.MarketID, req.Trades, thresholds)
	h.respond(w, r, summary, err)
}

func (h *handler) analyzeParticipation(w http.ResponseWriter, r *http.Request) {
	var input participation.Input
	if !h.decode(w, r, &input) {
		return
	}

	result, err := h.svc.AnalyzeParticipation(r.Context(), input)
	h.respond(w, r, result, err)
}

func (h *handler) traderScore(w http.ResponseWriter, r *http.Request) {
	var req insights.WalletMetrics
	if !h.decode(w, r, &req) {
		return
	}

	score, err := h.svc.ScoreTrader(r.Context(), req)
	h.respond(w, r, score, err)
}

type rankRequest struct {
	Wallets []insights.WalletMetrics `json:"wallets" validate:"required,dive"`
	Limit   int                      `json:"limit" validate:"gte=0"`
}

func (h *handler) traderRank(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if !h.decode(w, r, &req) {
		return
	}

	ranked, err := h.svc.RankTraders(r.Context(), req.Wallets, req.Limit)
	h.respond(w, r, ranked, err)
}

type kellyRequest struct {
	Bankroll      float64              `json:"bankroll" validate:"gt=0"`
	Odds          float64              `json:"odds" validate:"gt=0,lt=1"`
	Edge          float64              `json:"edge" validate:"gte=0"`
	RiskTolerance sizing.RiskTolerance `json:"riskTolerance" validate:"omitempty,oneof=aggressive moderate conservative"`
}

func (h *handler) kelly(w http.ResponseWriter, r *http.Request) {
	var req kellyRequest
	if !h.decode(w, r, &req) {
		return
	}

	pos, err := h.svc.SizeKelly(r.Context(), req.Bankroll, req.Odds, req.Edge, req.RiskTolerance)
	h.respond(w, r, pos, err)
}

func (h *handler) advancedKelly(w http.ResponseWriter, r *http.Request) {
	var req sizing.KellyInputs
	if !h.decode(w, r, &req) {
		return
	}

	pos, err := h.svc.SizeAdvanced(r.Context(), req)
	h.respond(w, r, pos, err)
}

type riskLevelsRequest struct {
	Entry         float64 `json:"entry" validate:"gt=0,lt=1"`
	StopLossPct   float64 `json:"stopLossPct" validate:"gte=0,lt=1"`
	TakeProfitPct float64 `json:"takeProfitPct" validate:"gte=0"`
}

func (h *handler) riskLevels(w http.ResponseWriter, r *http.Request) {
	var req riskLevelsRequest
	if !h.decode(w, r, &req) {
		return
	}

	levels, err := h.svc.RiskLevels(req.Entry, req.StopLossPct, req.TakeProfitPct)
	h.respond(w, r, levels, err)
}

func (h *handler) bestBets(w http.ResponseWriter, r *http.Request) {
	var req insights.BestBetsRequest
	if !h.decode(w, r, &req) {
		return
	}

	signal, err := h.svc.GenerateBestBets(r.Context(), req)
	if err == nil && signal == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.respond(w, r, signal, err)
}

// decode reads and validates a JSON body. It writes a 400 and returns false
// on failure.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}

	err = h.validate.StructCtx(r.Context(), dst)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			respondError(w, http.StatusBadRequest,
				fmt.Sprintf("%s failed %s validation", fe.Namespace(), fe.Tag()))
			return false
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return false
	}

	return true
}

// overlayThresholds decodes a partial thresholds object over defaults, so
// fields the client leaves out keep their default value. An absent or null
// object yields nil.
func overlayThresholds[T any](w http.ResponseWriter, raw json.RawMessage, defaults T) (*T, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, true
	}

	t := defaults
	err := json.Unmarshal(raw, &t)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid thresholds: %v", err))
		return nil, false
	}
	return &t, true
}

// respond writes result, or maps err to a status code.
func (h *handler) respond(w http.ResponseWriter, r *http.Request, result interface{}, err error) {
	if err == nil {
		respondJSON(w, http.StatusOK, result)
		return
	}

	if errors.Is(err, types.ErrInvalidArgument) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Error("request-failed",
		zap.String("path", r.URL.Path),
		zap.String("request-id", middleware.GetReqID(r.Context())),
		zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal error")
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
