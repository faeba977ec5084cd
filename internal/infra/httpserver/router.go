package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appanalysis "github.com/bryanwahyu/solidity-sec/internal/application/analysis"
	domain "github.com/bryanwahyu/solidity-sec/internal/domain/analyses"
	"github.com/bryanwahyu/solidity-sec/internal/domain/contracts"
	"github.com/bryanwahyu/solidity-sec/internal/domain/faults"
	"github.com/bryanwahyu/solidity-sec/internal/middleware"
)

type Router struct {
	svc    *appanalysis.Service
	faults faults.Repository
}

func NewRouter(svc *appanalysis.Service, faultsRepo faults.Repository) http.Handler {
	r := &Router{svc: svc, faults: faultsRepo}
	mux := chi.NewRouter()

	mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyses", r.wrap(r.handleSubmit))
		rt.Get("/analyses/latest", r.wrap(r.handleLatest))
		rt.Get("/analyses/{id}", r.wrap(r.handleResult))
		rt.Get("/analyses/{id}/status", r.wrap(r.handleStatus))
		rt.Get("/analyses/{id}/faults", r.wrap(r.handleFaults))
		rt.Get("/contracts", r.wrap(r.handleListContracts))
		rt.Get("/contracts/{id}", r.wrap(r.handleContract))
		rt.Post("/contracts/{id}/verify", r.wrap(r.handleVerifyContract))
		rt.Delete("/contracts/{id}", r.wrap(r.handleDeleteContract))
		rt.Get("/summary", r.wrap(r.handleSummary))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var vErr *appanalysis.ValidationError
			switch {
			case errors.As(err, &vErr):
				writeError(w, http.StatusBadRequest, vErr.Error())
			case errors.Is(err, domain.ErrNotFound), errors.Is(err, sql.ErrNoRows):
				writeError(w, http.StatusNotFound, "not found")
			case errors.Is(err, domain.ErrNotTerminal):
				writeError(w, http.StatusConflict, "analysis is still in progress; poll status until terminal")
			default:
				writeError(w, http.StatusInternalServerError, err.Error())
			}
		}
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/analyses
// Body: {"contract_name": "...", "contract_code": "...", "network": "...", "address": "..."}
// Returns 202 immediately; the pipeline continues in the background.
func (r *Router) handleSubmit(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ContractName    string `json:"contract_name"`
		ContractCode    string `json:"contract_code"`
		Network         string `json:"network"`
		Address         string `json:"address"`
		CompilerVersion string `json:"compiler_version"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return &appanalysis.ValidationError{Field: "body", Reason: "invalid JSON"}
	}
	if err := middleware.ValidateContractName(body.ContractName); err != nil {
		return &appanalysis.ValidationError{Field: "contract_name", Reason: err.Error()}
	}

	res, err := r.svc.Submit(req.Context(), appanalysis.SubmitCommand{
		Name:            body.ContractName,
		Code:            body.ContractCode,
		Network:         body.Network,
		Address:         body.Address,
		CompilerVersion: body.CompilerVersion,
	})
	if err != nil {
		return err
	}
	// count only analyses that actually got queued
	middleware.IncrementAnalyses()
	return writeJSON(w, http.StatusAccepted, res)
}

// GET /v1/analyses/{id}/status
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateID(id); err != nil {
		return &appanalysis.ValidationError{Field: "id", Reason: err.Error()}
	}
	st, err := r.svc.GetStatus(req.Context(), domain.AnalysisID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, st)
}

// GET /v1/analyses/{id}
func (r *Router) handleResult(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateID(id); err != nil {
		return &appanalysis.ValidationError{Field: "id", Reason: err.Error()}
	}
	res, err := r.svc.GetResult(req.Context(), domain.AnalysisID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /v1/analyses/{id}/faults?limit=50
func (r *Router) handleFaults(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateID(id); err != nil {
		return &appanalysis.ValidationError{Field: "id", Reason: err.Error()}
	}
	if r.faults == nil {
		return writeJSON(w, http.StatusOK, []any{})
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.faults.ListByAnalysis(req.Context(), id, middleware.ClampLimit(limit, 50, 200))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*faults.StageFault{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/analyses/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.svc.Latest(req.Context(), middleware.ClampLimit(limit, 20, 100))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/contracts?limit=20
func (r *Router) handleListContracts(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.svc.ListContracts(req.Context(), middleware.ClampLimit(limit, 20, 100))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*contracts.Contract{}
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /v1/contracts/{id}/verify
// Body: {"address": "0x...", "verified": true}
func (r *Router) handleVerifyContract(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateID(id); err != nil {
		return &appanalysis.ValidationError{Field: "id", Reason: err.Error()}
	}
	var body struct {
		Address  string `json:"address"`
		Verified bool   `json:"verified"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return &appanalysis.ValidationError{Field: "body", Reason: "invalid JSON"}
	}
	if err := r.svc.VerifyContract(req.Context(), contracts.ContractID(id), body.Address, body.Verified); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DELETE /v1/contracts/{id}
func (r *Router) handleDeleteContract(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateID(id); err != nil {
		return &appanalysis.ValidationError{Field: "id", Reason: err.Error()}
	}
	if err := r.svc.DeleteContract(req.Context(), contracts.ContractID(id)); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /v1/contracts/{id}
func (r *Router) handleContract(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateID(id); err != nil {
		return &appanalysis.ValidationError{Field: "id", Reason: err.Error()}
	}
	c, err := r.svc.GetContract(req.Context(), contracts.ContractID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, c)
}

// GET /v1/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))
	summary, err := r.svc.Summary(req.Context(), days)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, summary)
}
