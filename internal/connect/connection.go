package connect

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joshua-takyi/festora/internal/broker"
	"github.com/joshua-takyi/festora/internal/clock"
	"github.com/joshua-takyi/festora/internal/config"
	"github.com/joshua-takyi/festora/internal/ledger"
	"github.com/joshua-takyi/festora/internal/payment"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongo init

func MongoDBConnect(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

func MongoDBDisconnect(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	return nil
}

// ledger init

// DialLedger connects to the JSON-RPC node and binds the event contract. The
// chain id comes from config, or from the node when unset.
func DialLedger(ctx context.Context, cfg *config.Config) (*ethclient.Client, *ledger.ContractBackend, *big.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := ethclient.DialContext(ctx, cfg.LedgerRPCURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to dial ledger node: %w", err)
	}

	chainID := big.NewInt(cfg.LedgerChainID)
	if cfg.LedgerChainID == 0 {
		chainID, err = client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, nil, nil, fmt.Errorf("failed to query chain id: %w", err)
		}
	}

	address := common.HexToAddress(cfg.ContractAddress)
	code, err := client.CodeAt(ctx, address, nil)
	if err != nil {
		client.Close()
		return nil, nil, nil, fmt.Errorf("failed to read contract code: %w", err)
	}
	if len(code) == 0 {
		client.Close()
		return nil, nil, nil, fmt.Errorf("no contract deployed at %s", address.Hex())
	}

	backend, err := ledger.NewContractBackend(client, address)
	if err != nil {
		client.Close()
		return nil, nil, nil, err
	}
	return client, backend, chainID, nil
}

func OpenKeystore(dir string) (*keystore.KeyStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create keystore dir: %w", err)
	}
	return keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP), nil
}

// payment init

func NewGateway(cfg *config.Config) (payment.Gateway, error) {
	switch cfg.PaymentProvider {
	case config.ProviderRazorpay:
		return payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.PaymentCurrency, clock.NewSystem()), nil
	case config.ProviderStripe:
		return payment.NewStripe(cfg.StripeSecretKey, cfg.PaymentCurrency), nil
	}
	return nil, fmt.Errorf("unsupported payment provider %q", cfg.PaymentProvider)
}

// broker init

func NewPublisher(cfg *config.Config, logger *slog.Logger) (broker.Publisher, error) {
	return broker.New(cfg.RabbitMQURL, cfg.BrokerExchange, logger)
}
