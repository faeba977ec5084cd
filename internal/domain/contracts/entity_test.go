package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashCode(t *testing.T) {
	a := HashCode("contract A {}")
	b := HashCode("contract A {}")
	c := HashCode("contract B {}")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64) // sha-256 hex

	// empty input still hashes deterministically
	assert.Equal(t, HashCode(""), HashCode(""))
}

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress("")) // address is optional
	assert.NoError(t, ValidateAddress("0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619"))
	assert.NoError(t, ValidateAddress("0x0000000000000000000000000000000000000000"))

	assert.Error(t, ValidateAddress("not-an-address"))
	assert.Error(t, ValidateAddress("0x123")) // too short
	assert.Error(t, ValidateAddress("0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f61z"))
}

func TestValidNetwork(t *testing.T) {
	for _, n := range []Network{NetworkPolygon, NetworkEthereum, NetworkArbitrum, NetworkOptimism, NetworkBase} {
		assert.True(t, ValidNetwork(n))
	}
	assert.False(t, ValidNetwork(Network("dogechain")))
	assert.False(t, ValidNetwork(Network("")))
}
