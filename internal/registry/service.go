// Package registry manages the on-ledger university registry: listing
// accredited institutions, registering new ones (admin only), and resolving
// issuer addresses to display names with a read-through cache.
package registry

import (
	"context"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"credchain/internal/audit"
	"credchain/internal/ledger"
	"credchain/internal/platform/metrics"
	platformredis "credchain/internal/platform/redis"
	"credchain/internal/session"
	dErrors "credchain/pkg/domain-errors"
)

// University is one registry entry.
type University struct {
	Address common.Address
	Name    string
}

type Service struct {
	gateway  ledger.Gateway
	cache    *platformredis.Client
	cacheTTL time.Duration
	logger   *slog.Logger
	audit    *audit.Publisher
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithAuditPublisher(p *audit.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithNameCache enables the read-through display-name cache. A nil client
// leaves caching off; every lookup then hits the ledger.
func WithNameCache(c *platformredis.Client, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func NewService(gateway ledger.Gateway, opts ...Option) *Service {
	s := &Service{gateway: gateway, cacheTTL: 5 * time.Minute, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List enumerates the registry by count and index. Individual entries that
// fail to load are dropped with a warning; the rest of the listing survives.
func (s *Service) List(ctx context.Context) ([]University, error) {
	count, err := s.gateway.UniversityCount(ctx)
	if err != nil {
		return nil, err
	}
	n := count.Int64()
	out := make([]University, 0, n)
	for i := int64(0); i < n; i++ {
		addr, name, err := s.gateway.UniversityAtIndex(ctx, big.NewInt(i))
		if err != nil {
			s.logger.WarnContext(ctx, "registry entry unreadable", "index", i, "error", err)
			continue
		}
		out = append(out, University{Address: addr, Name: name})
	}
	return out, nil
}

// Add registers a new university. Admin-only; preconditions fail before any
// transaction is sent.
func (s *Service) Add(ctx context.Context, sess session.Session, address, name string) (common.Hash, error) {
	if !sess.Connected {
		return common.Hash{}, dErrors.New(dErrors.CodeUnauthorized, "no wallet session")
	}
	if !sess.Roles.Admin {
		return common.Hash{}, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	if strings.TrimSpace(address) == "" || !common.IsHexAddress(address) {
		return common.Hash{}, dErrors.New(dErrors.CodeValidation, "university address is not a valid hex address")
	}
	if strings.TrimSpace(name) == "" {
		return common.Hash{}, dErrors.New(dErrors.CodeValidation, "university name is required")
	}
	addr := common.HexToAddress(address)

	txHash, err := s.gateway.AddUniversity(ctx, sess.Signer(), addr, name)
	if err != nil {
		return common.Hash{}, err
	}

	s.invalidate(ctx, addr)
	if s.metrics != nil {
		s.metrics.UniversitiesAdded.Inc()
	}
	s.audit.Emit(ctx, audit.Event{
		Actor:   sess.Account.Hex(),
		Action:  audit.ActionRegister,
		Subject: addr.Hex(),
		TxHash:  txHash.Hex(),
		Detail:  name,
	})
	s.logger.InfoContext(ctx, "university registered",
		"address", addr.Hex(), "name", name, "tx", txHash.Hex())
	return txHash, nil
}

// DisplayName resolves an issuer address to its registered name, reading
// through the cache when one is configured. Cache failures fall back to the
// ledger; only lookups that succeed are cached.
func (s *Service) DisplayName(ctx context.Context, addr common.Address) (string, error) {
	key := nameKey(addr)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Result(); err == nil {
			return cached, nil
		}
	}

	name, err := s.gateway.UniversityName(ctx, addr)
	if err != nil {
		return "", err
	}
	if s.cache != nil && name != "" {
		if err := s.cache.Set(ctx, key, name, s.cacheTTL).Err(); err != nil {
			s.logger.WarnContext(ctx, "name cache write failed", "address", addr.Hex(), "error", err)
		}
	}
	return name, nil
}

func (s *Service) invalidate(ctx context.Context, addr common.Address) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, nameKey(addr)).Err(); err != nil {
		s.logger.WarnContext(ctx, "name cache invalidation failed", "address", addr.Hex(), "error", err)
	}
}

func nameKey(addr common.Address) string {
	return "credchain:uniname:" + strings.ToLower(addr.Hex())
}
