package contracts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ID tipe untuk Contract
type ContractID string

// Network enum
type Network string

const (
	NetworkPolygon  Network = "polygon"
	NetworkEthereum Network = "ethereum"
	NetworkArbitrum Network = "arbitrum"
	NetworkOptimism Network = "optimism"
	NetworkBase     Network = "base"
)

// Aggregate Root: Contract. Immutable after creation except verification metadata.
type Contract struct {
	ID              ContractID `json:"id"`
	Name            string     `json:"name"`
	Code            string     `json:"code"`
	CodeHash        string     `json:"code_hash"`
	Network         Network    `json:"network,omitempty"`
	Address         string     `json:"address,omitempty"`
	Verified        bool       `json:"verified"`
	CompilerVersion string     `json:"compiler_version,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// HashCode returns the SHA-256 hex digest used for dedup by content.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// ValidateAddress checks the optional on-chain address format.
func ValidateAddress(addr string) error {
	if addr == "" {
		return nil
	}
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("invalid contract address: %s", addr)
	}
	return nil
}

// ValidNetwork reports whether the value is one of the supported chains.
func ValidNetwork(n Network) bool {
	switch n {
	case NetworkPolygon, NetworkEthereum, NetworkArbitrum, NetworkOptimism, NetworkBase:
		return true
	}
	return false
}
