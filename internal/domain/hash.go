package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EventHash links an event to its predecessor: keccak256(prevHash || canonicalBody)
func EventHash(prevHash string, canonicalBody []byte) string {
	prev := common.HexToHash(prevHash)
	return crypto.Keccak256Hash(prev.Bytes(), canonicalBody).Hex()
}
