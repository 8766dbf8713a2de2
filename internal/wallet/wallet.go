package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joshua-takyi/festora/internal/clock"
	"github.com/joshua-takyi/festora/internal/ledger"
)

var (
	ErrInvalidAddress = errors.New("invalid wallet address")
	ErrUnknownAccount = errors.New("wallet account not found")
	ErrBadPassphrase  = errors.New("wallet passphrase rejected")
)

// Session is a connected wallet and the time its unlock lapses.
type Session struct {
	Address   string    `json:"address"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Manager connects keystore accounts for signing. Connecting unlocks the
// account for the session TTL; disconnecting locks it again.
type Manager struct {
	ks      *keystore.KeyStore
	chainID *big.Int
	ttl     time.Duration
	clock   clock.Clock
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[common.Address]time.Time
}

func NewManager(ks *keystore.KeyStore, chainID *big.Int, ttl time.Duration, clk clock.Clock, logger *slog.Logger) *Manager {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		ks:       ks,
		chainID:  chainID,
		ttl:      ttl,
		clock:    clk,
		logger:   logger,
		sessions: make(map[common.Address]time.Time),
	}
}

// Accounts lists the addresses held in the keystore, lower-cased.
func (m *Manager) Accounts() []string {
	accs := m.ks.Accounts()
	out := make([]string, 0, len(accs))
	for _, a := range accs {
		out = append(out, normalize(a.Address))
	}
	return out
}

func (m *Manager) Connect(ctx context.Context, address, passphrase string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acc, err := m.find(address)
	if err != nil {
		return nil, err
	}
	if err := m.ks.TimedUnlock(acc, passphrase, m.ttl); err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return nil, ErrBadPassphrase
		}
		return nil, fmt.Errorf("failed to unlock %s: %w", normalize(acc.Address), err)
	}

	expires := m.clock.Now().Add(m.ttl)
	m.mu.Lock()
	m.sessions[acc.Address] = expires
	m.mu.Unlock()

	m.logger.Info("Wallet connected", "address", normalize(acc.Address), "expires_at", expires)
	return &Session{Address: normalize(acc.Address), ExpiresAt: expires}, nil
}

func (m *Manager) Disconnect(address string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	addr := common.HexToAddress(address)

	m.mu.Lock()
	delete(m.sessions, addr)
	m.mu.Unlock()

	if err := m.ks.Lock(addr); err != nil && !errors.Is(err, keystore.ErrNoMatch) {
		return fmt.Errorf("failed to lock %s: %w", normalize(addr), err)
	}
	m.logger.Info("Wallet disconnected", "address", normalize(addr))
	return nil
}

// Connected reports whether address has an unexpired session.
func (m *Manager) Connected(address string) bool {
	if !common.IsHexAddress(address) {
		return false
	}
	return m.active(common.HexToAddress(address))
}

// Signer returns the signer for a connected address, or nil when the wallet
// is not connected.
func (m *Manager) Signer(address string) ledger.Signer {
	if !common.IsHexAddress(address) {
		return nil
	}
	addr := common.HexToAddress(address)
	if !m.active(addr) {
		return nil
	}
	return &keystoreSigner{manager: m, account: accounts.Account{Address: addr}}
}

func (m *Manager) active(addr common.Address) bool {
	m.mu.RLock()
	expires, ok := m.sessions[addr]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	if !m.clock.Now().After(expires) {
		return true
	}

	// a Connect may have refreshed the session since the read
	m.mu.Lock()
	defer m.mu.Unlock()
	if expires, ok = m.sessions[addr]; ok && m.clock.Now().After(expires) {
		delete(m.sessions, addr)
		return false
	}
	return ok
}

func (m *Manager) find(address string) (accounts.Account, error) {
	if !common.IsHexAddress(address) {
		return accounts.Account{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	acc, err := m.ks.Find(accounts.Account{Address: common.HexToAddress(address)})
	if err != nil {
		return accounts.Account{}, fmt.Errorf("%w: %s", ErrUnknownAccount, address)
	}
	return acc, nil
}

type keystoreSigner struct {
	manager *Manager
	account accounts.Account
}

func (s *keystoreSigner) Address() common.Address {
	return s.account.Address
}

func (s *keystoreSigner) TransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	if !s.manager.active(s.account.Address) {
		return nil, ledger.ErrNotConnected
	}
	opts, err := bind.NewKeyStoreTransactorWithChainID(s.manager.ks, s.account, s.manager.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}

func normalize(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
