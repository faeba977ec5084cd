package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/solidity-sec/internal/domain/analyses"
	"github.com/bryanwahyu/solidity-sec/internal/domain/contracts"
)

// Service implements the caller-facing use cases: submit, poll status, fetch
// results. Submission returns as soon as the pending analysis is durable;
// the pipeline runs on its own goroutine per analysis.
type Service struct {
	Contracts contracts.Repository
	Analyses  domain.Repository
	Orch      *Orchestrator
	Clock     domain.Clock

	// MaxCodeBytes bounds submitted source; oversized input fails fast
	// before any model is invoked.
	MaxCodeBytes int
}

const defaultMaxCodeBytes = 500 * 1024

// SubmitCommand untuk submit kontrak
type SubmitCommand struct {
	Name            string
	Code            string
	Network         string
	Address         string
	CompilerVersion string
}

// SubmitResult is returned immediately after initial persistence.
type SubmitResult struct {
	AnalysisID domain.AnalysisID    `json:"analysis_id"`
	ContractID contracts.ContractID `json:"contract_id"`
	Status     domain.Status        `json:"status"`
	QueuedAt   time.Time            `json:"queued_at"`
}

// StatusView is the polling shape for in-flight analyses.
type StatusView struct {
	ID           domain.AnalysisID `json:"id"`
	Status       domain.Status     `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// Result bundles a terminal analysis with its findings and contract.
type Result struct {
	Analysis        *domain.Analysis        `json:"analysis"`
	Contract        *contracts.Contract     `json:"contract,omitempty"`
	Vulnerabilities []*domain.Vulnerability `json:"vulnerabilities"`
}

// Submit validates input, reuses or creates the contract by code hash,
// persists a pending analysis, and kicks off the pipeline in the background.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*SubmitResult, error) {
	code := cmd.Code
	if strings.TrimSpace(code) == "" {
		return nil, &ValidationError{Field: "contract_code", Reason: "must not be empty"}
	}
	maxBytes := s.MaxCodeBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxCodeBytes
	}
	if len(code) > maxBytes {
		return nil, &ValidationError{
			Field:  "contract_code",
			Reason: fmt.Sprintf("exceeds maximum size of %d bytes", maxBytes),
		}
	}
	if err := contracts.ValidateAddress(cmd.Address); err != nil {
		return nil, &ValidationError{Field: "address", Reason: err.Error()}
	}
	network := contracts.Network(cmd.Network)
	if cmd.Network == "" {
		network = contracts.NetworkPolygon
	} else if !contracts.ValidNetwork(network) {
		return nil, &ValidationError{Field: "network", Reason: fmt.Sprintf("unsupported network: %s", cmd.Network)}
	}

	now := s.Clock.Now()

	// Identical code reuses the existing contract row.
	codeHash := contracts.HashCode(code)
	contract, err := s.Contracts.FindByHash(ctx, codeHash)
	if err != nil {
		return nil, fmt.Errorf("contract lookup failed: %w", err)
	}
	if contract == nil {
		name := cmd.Name
		if name == "" {
			name = "Unnamed Contract"
		}
		contract = &contracts.Contract{
			ID:              contracts.ContractID(uuid.New().String()),
			Name:            name,
			Code:            code,
			CodeHash:        codeHash,
			Network:         network,
			Address:         cmd.Address,
			CompilerVersion: cmd.CompilerVersion,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.Contracts.Save(ctx, contract); err != nil {
			return nil, fmt.Errorf("saving contract: %w", err)
		}
	}

	an := &domain.Analysis{
		ID:               domain.AnalysisID(uuid.New().String()),
		ContractID:       string(contract.ID),
		Status:           domain.StatusPending,
		DetectionModel:   s.Orch.Detector.Client.Model(),
		ExplanationModel: s.Orch.Explainer.Client.Model(),
		CreatedAt:        now,
	}
	if err := s.Analyses.Save(ctx, an); err != nil {
		return nil, fmt.Errorf("saving analysis: %w", err)
	}

	// Background run with its own context so a closed request connection
	// cannot cancel the pipeline mid-flight.
	go s.Orch.Run(context.Background(), an, code)

	return &SubmitResult{
		AnalysisID: an.ID,
		ContractID: contract.ID,
		Status:     domain.StatusPending,
		QueuedAt:   now,
	}, nil
}

// GetStatus returns the current (durable) state of an analysis.
func (s *Service) GetStatus(ctx context.Context, id domain.AnalysisID) (*StatusView, error) {
	an, err := s.Analyses.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &StatusView{ID: an.ID, Status: an.Status, ErrorMessage: an.ErrorMessage}, nil
}

// GetResult returns the full result; valid only once terminal.
func (s *Service) GetResult(ctx context.Context, id domain.AnalysisID) (*Result, error) {
	an, err := s.Analyses.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !an.Status.Terminal() {
		return nil, domain.ErrNotTerminal
	}
	vulns, err := s.Analyses.VulnerabilitiesByAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	contract, err := s.Contracts.Get(ctx, contracts.ContractID(an.ContractID))
	if err != nil {
		contract = nil // result stays useful without contract metadata
	}
	if vulns == nil {
		vulns = []*domain.Vulnerability{}
	}
	return &Result{Analysis: an, Contract: contract, Vulnerabilities: vulns}, nil
}

// Latest ambil N analisis terakhir
func (s *Service) Latest(ctx context.Context, limit int) ([]*domain.Analysis, error) {
	return s.Analyses.Latest(ctx, limit)
}

// Summary rekap hasil analisis N hari terakhir
func (s *Service) Summary(ctx context.Context, sinceDays int) (map[string]any, error) {
	total, critical, high, medium, err := s.Analyses.Summary(ctx, sinceDays)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"total_analyses": total,
		"critical":       critical,
		"high":           high,
		"medium":         medium,
	}, nil
}

// GetContract fetches contract metadata by id.
func (s *Service) GetContract(ctx context.Context, id contracts.ContractID) (*contracts.Contract, error) {
	return s.Contracts.Get(ctx, id)
}

// ListContracts returns the most recently submitted contracts.
func (s *Service) ListContracts(ctx context.Context, limit int) ([]*contracts.Contract, error) {
	return s.Contracts.List(ctx, limit)
}

// VerifyContract records on-chain deployment metadata for an existing contract.
func (s *Service) VerifyContract(ctx context.Context, id contracts.ContractID, address string, verified bool) error {
	if err := contracts.ValidateAddress(address); err != nil {
		return &ValidationError{Field: "address", Reason: err.Error()}
	}
	return s.Contracts.UpdateVerification(ctx, id, address, verified)
}

// DeleteContract removes a contract and, through the schema, its analyses.
func (s *Service) DeleteContract(ctx context.Context, id contracts.ContractID) error {
	return s.Contracts.Delete(ctx, id)
}
