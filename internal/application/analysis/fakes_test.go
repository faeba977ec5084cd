package analysis

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/bryanwahyu/solidity-sec/internal/domain/ai"
	domain "github.com/bryanwahyu/solidity-sec/internal/domain/analyses"
	"github.com/bryanwahyu/solidity-sec/internal/domain/contracts"
	"github.com/bryanwahyu/solidity-sec/internal/domain/faults"
)

// fakeClient scripts model responses per call. respond receives the 1-based
// call number so tests can fail the first call and succeed the second.
type fakeClient struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	respond func(call int, req ai.Request) (string, error)
}

func (c *fakeClient) Generate(ctx context.Context, req ai.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	c.calls++
	n := c.calls
	c.prompts = append(c.prompts, req.UserPrompt)
	c.mu.Unlock()
	return c.respond(n, req)
}

func (c *fakeClient) Model() string { return "fake-model" }

func (c *fakeClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// blockingClient never answers: every call parks until ctx expires, like a
// model call that outlives the analysis budget.
type blockingClient struct {
	mu    sync.Mutex
	calls int
}

func (c *blockingClient) Generate(ctx context.Context, _ ai.Request) (string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	<-ctx.Done()
	return "", ctx.Err()
}

func (c *blockingClient) Model() string { return "fake-model" }

func (c *blockingClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type memAnalyses struct {
	mu        sync.Mutex
	byID      map[domain.AnalysisID]*domain.Analysis
	vulns     map[domain.AnalysisID][]*domain.Vulnerability
	statusLog []domain.Status
}

func newMemAnalyses() *memAnalyses {
	return &memAnalyses{
		byID:  map[domain.AnalysisID]*domain.Analysis{},
		vulns: map[domain.AnalysisID][]*domain.Vulnerability{},
	}
}

func (r *memAnalyses) Save(_ context.Context, a *domain.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.byID[a.ID] = &cp
	return nil
}

func (r *memAnalyses) Get(_ context.Context, id domain.AnalysisID) (*domain.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memAnalyses) UpdateStatus(_ context.Context, id domain.AnalysisID, status domain.Status, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Status = status
	a.ErrorMessage = errorMessage
	r.statusLog = append(r.statusLog, status)
	return nil
}

func (r *memAnalyses) Latest(_ context.Context, limit int) ([]*domain.Analysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Analysis, 0, limit)
	for _, a := range r.byID {
		cp := *a
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memAnalyses) Summary(_ context.Context, _ int) (total, critical, high, medium int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), 0, 0, 0, nil
}

func (r *memAnalyses) SaveVulnerabilities(_ context.Context, vulns []*domain.Vulnerability) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range vulns {
		cp := *v
		r.vulns[v.AnalysisID] = append(r.vulns[v.AnalysisID], &cp)
	}
	return nil
}

func (r *memAnalyses) VulnerabilitiesByAnalysis(_ context.Context, id domain.AnalysisID) ([]*domain.Vulnerability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Vulnerability, 0, len(r.vulns[id]))
	for _, v := range r.vulns[id] {
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

type memContracts struct {
	mu   sync.Mutex
	byID map[contracts.ContractID]*contracts.Contract
}

func newMemContracts() *memContracts {
	return &memContracts{byID: map[contracts.ContractID]*contracts.Contract{}}
}

func (r *memContracts) Save(_ context.Context, c *contracts.Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.byID[c.ID] = &cp
	return nil
}

func (r *memContracts) Get(_ context.Context, id contracts.ContractID) (*contracts.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("contract %s not found", id)
	}
	cp := *c
	return &cp, nil
}

func (r *memContracts) FindByHash(_ context.Context, codeHash string) (*contracts.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if c.CodeHash == codeHash {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memContracts) List(_ context.Context, limit int) ([]*contracts.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*contracts.Contract, 0, len(r.byID))
	for _, c := range r.byID {
		cp := *c
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memContracts) UpdateVerification(_ context.Context, id contracts.ContractID, address string, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return sql.ErrNoRows
	}
	c.Address = address
	c.Verified = verified
	return nil
}

func (r *memContracts) Delete(_ context.Context, id contracts.ContractID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.byID, id)
	return nil
}

type memFaults struct {
	mu   sync.Mutex
	rows []*faults.StageFault
}

func (r *memFaults) Save(_ context.Context, f *faults.StageFault) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *f
	cp.ID = int64(len(r.rows) + 1)
	r.rows = append(r.rows, &cp)
	return nil
}

func (r *memFaults) ListByAnalysis(_ context.Context, analysisID string, limit int) ([]*faults.StageFault, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*faults.StageFault
	for _, f := range r.rows {
		if f.AnalysisID == analysisID && len(out) < limit {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memFaults) all() []*faults.StageFault {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*faults.StageFault, len(r.rows))
	copy(out, r.rows)
	return out
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
