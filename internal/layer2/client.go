package layer2

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/go-errors/errors"
	"github.com/goatnetwork/solver-vault/internal/config"
)

const dialTimeout = 10 * time.Second

// DialEthClient connects to the configured L2 node
func DialEthClient(ctx context.Context) (*ethclient.Client, error) {
	return dialEthClient(ctx, config.AppConfig.L2RPC, config.AppConfig.L2JwtSecret)
}

func dialEthClient(ctx context.Context, endpoint, jwtSecretHex string) (*ethclient.Client, error) {
	opts, err := jwtClientOptions(jwtSecretHex)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	client, err := rpc.DialOptions(ctx, endpoint, opts...)
	if err != nil {
		return nil, errors.WrapPrefix(err, "dial "+endpoint, 0)
	}
	return ethclient.NewClient(client), nil
}

// jwtClientOptions adds engine style JWT auth when a secret is configured
func jwtClientOptions(jwtSecretHex string) ([]rpc.ClientOption, error) {
	if jwtSecretHex == "" {
		return nil, nil
	}
	jwtSecret := common.FromHex(strings.TrimSpace(jwtSecretHex))
	if len(jwtSecret) != 32 {
		return nil, errors.New("jwt secret is not a 32 bytes hex string")
	}
	var jwtKey [32]byte
	copy(jwtKey[:], jwtSecret)
	return []rpc.ClientOption{rpc.WithHTTPAuth(node.NewJWTAuth(jwtKey))}, nil
}
