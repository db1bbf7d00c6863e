// Package resolver turns a list of coin addresses into balances and coin
// statuses. A single bulk request against the primary provider is tried
// first; if it fails every address is looked up on its own against the
// secondary provider.
package resolver

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/luxlogik/raritycheck/internal/btc"
	"github.com/luxlogik/raritycheck/internal/status"
	"github.com/luxlogik/raritycheck/internal/util"
)

// ErrNoAddresses is returned when there is nothing to query. It is the only
// error Resolve returns; provider failures end up in the batch instead.
var ErrNoAddresses = errors.New("resolver: no addresses to resolve")

type Source string

const (
	SourcePrimary   Source = "primary"
	SourceSecondary Source = "secondary"
)

type Record struct {
	FinalBalance float64       `json:"finalBalance"`
	Status       status.Status `json:"status"`
}

// Batch is the result of one Resolve call. Nothing in it is reused later.
type Batch struct {
	ID       string            `json:"id"`
	Source   Source            `json:"source"`
	Balances map[string]Record `json:"balances"`
}

type Options struct {
	Statuses       status.Table
	PrimaryBackoff util.Backoff
	RequestTimeout time.Duration
	Concurrency    int
	RatePerSecond  float64
	Burst          int
	Metrics        *Metrics // optional
}

type Resolver struct {
	primary     btc.BulkProvider
	secondary   btc.AddressProvider
	statuses    status.Table
	backoff     util.Backoff
	timeout     time.Duration
	concurrency int
	limiter     *rate.Limiter
	metrics     *Metrics
}

func New(primary btc.BulkProvider, secondary btc.AddressProvider, opts Options) *Resolver {
	if opts.Statuses == nil {
		opts.Statuses = status.DefaultTable()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}
	opts.Metrics.init(primary.Name(), secondary.Name())
	return &Resolver{
		primary:     primary,
		secondary:   secondary,
		statuses:    opts.Statuses,
		backoff:     opts.PrimaryBackoff,
		timeout:     opts.RequestTimeout,
		concurrency: opts.Concurrency,
		limiter:     rate.NewLimiter(limit, opts.Burst),
		metrics:     opts.Metrics,
	}
}

// Resolve fetches balances for addresses. Blank entries are ignored and
// duplicates collapse into one map key.
func (r *Resolver) Resolve(ctx context.Context, addresses []string) (Batch, error) {
	addrs := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if strings.TrimSpace(a) != "" {
			addrs = append(addrs, a)
		}
	}
	if len(addrs) == 0 {
		return Batch{}, ErrNoAddresses
	}

	start := time.Now()
	b := Batch{ID: uuid.NewString()}
	log := zap.L().With(zap.String("batch_id", b.ID), zap.Int("addresses", len(addrs)))

	balances, err := r.fromPrimary(ctx, addrs)
	if err != nil {
		log.Warn("primary balance lookup failed, falling back",
			zap.String("primary", r.primary.Name()),
			zap.String("secondary", r.secondary.Name()),
			zap.Error(err))
		b.Source = SourceSecondary
		b.Balances = r.fromSecondary(ctx, addrs, log)
	} else {
		b.Source = SourcePrimary
		b.Balances = balances
		if missing := len(uniq(addrs)) - len(balances); missing > 0 {
			log.Debug("primary response omitted addresses", zap.Int("missing", missing))
		}
	}

	took := time.Since(start)
	r.metrics.batch(b, took.Seconds())
	log.Info("balances resolved",
		zap.String("source", string(b.Source)),
		zap.Int("records", len(b.Balances)),
		zap.Duration("took", took))
	return b, nil
}

func (r *Resolver) fromPrimary(ctx context.Context, addrs []string) (map[string]Record, error) {
	var totals map[string]btc.Totals
	err := util.Retry(ctx, r.backoff, func(ctx context.Context) error {
		c, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		t, err := r.primary.Balances(c, addrs)
		r.metrics.request(r.primary.Name(), err)
		if err != nil {
			return err
		}
		totals = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]Record, len(totals))
	for addr, t := range totals {
		out[addr] = r.record(t)
	}
	return out, nil
}

// fromSecondary looks up every address independently. A failed lookup only
// affects its own record.
func (r *Resolver) fromSecondary(ctx context.Context, addrs []string, log *zap.Logger) map[string]Record {
	out := make(map[string]Record, len(addrs))
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, addr := range addrs {
		g.Go(func() error {
			rec := r.lookupOne(ctx, addr, log)
			mu.Lock()
			out[addr] = rec
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *Resolver) lookupOne(ctx context.Context, addr string, log *zap.Logger) Record {
	if err := r.limiter.Wait(ctx); err != nil {
		log.Warn("secondary lookup not attempted", zap.String("address", addr), zap.Error(err))
		return r.failed()
	}
	c, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	t, err := r.secondary.AddressTotals(c, addr)
	r.metrics.request(r.secondary.Name(), err)
	if err != nil {
		log.Warn("secondary balance lookup failed", zap.String("address", addr), zap.Error(err))
		return r.failed()
	}
	return r.record(t)
}

func (r *Resolver) record(t btc.Totals) Record {
	final := t.FinalBTC()
	return Record{
		FinalBalance: final,
		Status:       r.statuses.Classify(final, t.ReceivedBTC()),
	}
}

func (r *Resolver) failed() Record {
	return Record{FinalBalance: 0, Status: r.statuses.Status(status.Error)}
}

func uniq(addrs []string) map[string]struct{} {
	m := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		m[a] = struct{}{}
	}
	return m
}
