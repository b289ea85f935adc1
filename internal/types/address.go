package types

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	log "github.com/sirupsen/logrus"
)

// ParseAddress accepts a 0x-prefixed hex address, the zero address is allowed here
// and rejected by the vault where it matters
func ParseAddress(value string) (common.Address, error) {
	value = strings.TrimSpace(value)
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid address %q", value)
	}
	return common.HexToAddress(value), nil
}

// ParseAddressList splits a comma separated list, empty entries are skipped
func ParseAddressList(value string) ([]common.Address, error) {
	var out []common.Address
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		addr, err := ParseAddress(part)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

func ParsePrivateKey(privateKeyHex string) (*ecdsa.PrivateKey, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		log.Errorf("Failed to parse private key: %v", err)
		return nil, err
	}
	return privateKey, nil
}

func PrivateKeyToGethAddress(privateKeyHex string) (common.Address, error) {
	privateKey, err := ParsePrivateKey(privateKeyHex)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(privateKey.PublicKey), nil
}

// AccountAmount pairs an account with an amount in base units
type AccountAmount struct {
	Account common.Address
	Amount  *big.Int
}

// ParseAccountAmounts parses "0xabc=100,0xdef=2.5" with amounts in token units of decimals
func ParseAccountAmounts(value string, decimals uint8) ([]AccountAmount, error) {
	var out []AccountAmount
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		account, amount, found := strings.Cut(part, "=")
		if !found {
			return nil, fmt.Errorf("entry %q is not address=amount", strings.TrimSpace(part))
		}
		addr, err := ParseAddress(account)
		if err != nil {
			return nil, err
		}
		units, err := ParseUnits(amount, decimals)
		if err != nil {
			return nil, err
		}
		out = append(out, AccountAmount{Account: addr, Amount: units})
	}
	return out, nil
}
