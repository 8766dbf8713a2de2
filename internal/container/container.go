package container

import (
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joshua-takyi/festora/internal/broker"
	"github.com/joshua-takyi/festora/internal/clock"
	"github.com/joshua-takyi/festora/internal/connect"
	"github.com/joshua-takyi/festora/internal/ledger"
	"github.com/joshua-takyi/festora/internal/models"
	"github.com/joshua-takyi/festora/internal/payment"
	"github.com/joshua-takyi/festora/internal/services"
	"github.com/joshua-takyi/festora/internal/wallet"
	"go.mongodb.org/mongo-driver/mongo"
)

// Container holds all application dependencies
type Container struct {
	Logger *slog.Logger

	MongoDBClient *mongo.Client
	LedgerClient  *ethclient.Client
	Publisher     broker.Publisher

	EventDocs       models.EventDocsRepo
	Wallets         *wallet.Manager
	EventService    *services.EventService
	CheckoutService *services.CheckoutService
}

// Deps are the clients constructed at startup.
type Deps struct {
	Logger        *slog.Logger
	MongoDBClient *mongo.Client
	DBName        string
	LedgerClient  *ethclient.Client
	Ledger        ledger.Backend
	Wallets       *wallet.Manager
	Gateway       payment.Gateway
	Publisher     broker.Publisher
	Clock         clock.Clock
}

// NewContainer creates a new dependency injection container
func NewContainer(d Deps) *Container {
	if d.Clock == nil {
		d.Clock = clock.NewSystem()
	}
	if d.Publisher == nil {
		d.Publisher = broker.NopPublisher{}
	}

	reader := ledger.NewReader(d.Ledger)
	writer := ledger.NewWriter(d.Ledger, d.Logger)
	var docs models.EventDocsRepo = models.MongodbNewRepo(d.MongoDBClient, d.DBName)

	return &Container{
		Logger:          d.Logger,
		MongoDBClient:   d.MongoDBClient,
		LedgerClient:    d.LedgerClient,
		Publisher:       d.Publisher,
		EventDocs:       docs,
		Wallets:         d.Wallets,
		EventService:    services.NewEventService(reader, writer, d.Wallets, d.Publisher, d.Clock, d.Logger),
		CheckoutService: services.NewCheckoutService(d.Gateway, docs, d.Publisher, d.Clock, d.Logger),
	}
}

// Close releases every client the container owns.
func (c *Container) Close() error {
	var errs []error
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.LedgerClient != nil {
		c.LedgerClient.Close()
	}
	if err := connect.MongoDBDisconnect(c.MongoDBClient); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
