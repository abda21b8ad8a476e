package liquidator

import (
	"context"
	"leverage/core"
	"leverage/pkg/concurrency"
	"leverage/pkg/id"
	"leverage/pkg/leverage"
	"leverage/worker"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fox-one/pkg/logger"
	"github.com/holiman/uint256"
	"github.com/robfig/cron/v3"
)

const (
	checkpointKey = "liquidator_checkpoint"
	defaultSpec   = "@every 10s"
)

// Checkpoint persists the last finished scan
type Checkpoint interface {
	Save(ctx context.Context, key string, value interface{}) error
}

// Candidate position found under the liquidation boundary
type Candidate struct {
	Owner        common.Address
	Account      common.Address
	HealthFactor *uint256.Int
}

// Worker scans open positions and liquidates the unhealthy ones
type Worker struct {
	worker.BaseJob
	cfg        core.Liquidator
	engine     core.IEngine
	checkpoint Checkpoint
	round      uint64
}

// New new liquidator worker
func New(app core.App, cfg core.Liquidator, engine core.IEngine, checkpoint Checkpoint) (*Worker, error) {
	job := Worker{
		cfg:        cfg,
		engine:     engine,
		checkpoint: checkpoint,
	}

	l, err := time.LoadLocation(app.Location)
	if err != nil {
		return nil, err
	}

	spec := cfg.Schedule
	if spec == "" {
		spec = defaultSpec
	}

	job.Cron = cron.New(cron.WithLocation(l))
	if _, err := job.Cron.AddFunc(spec, job.Run); err != nil {
		return nil, err
	}

	job.OnWork = func() error {
		return job.onWork(context.Background())
	}

	return &job, nil
}

func (w *Worker) onWork(ctx context.Context) error {
	w.round++
	log := logger.FromContext(ctx).WithField("worker", "liquidator").WithField("round", w.round)
	ctx = logger.WithContext(ctx, log)

	candidates := w.Scan(ctx)
	if len(candidates) > 0 {
		log.Infof("%d positions under the liquidation boundary", len(candidates))
	}

	if w.cfg.Enabled {
		liquidator := common.HexToAddress(w.cfg.Address)
		recipient := common.HexToAddress(w.cfg.Recipient)
		for _, c := range candidates {
			// one liquidation per position account
			trace := id.TraceIDFrom("liquidate:" + c.Account.Hex())
			l := log.WithField("owner", c.Owner.Hex()).WithField("trace", trace)

			s, err := w.engine.LiquidatePosition(id.WithTraceID(ctx, trace), liquidator, c.Owner, recipient, nil)
			if err != nil {
				// the position may have been closed or topped up since the scan
				l.WithError(err).Warnln("LiquidatePosition")
				continue
			}

			l.WithField("to_pool", s.AmountToPool.Dec()).WithField("loss", s.Loss.Dec()).Infoln("position liquidated")
		}
	}

	if err := w.checkpoint.Save(ctx, checkpointKey, time.Now().Unix()); err != nil {
		log.WithError(err).Errorln("checkpoint.Save")
		return err
	}

	return nil
}

// Scan health factors of every open position, lowest first
func (w *Worker) Scan(ctx context.Context) []*Candidate {
	log := logger.FromContext(ctx)
	boundary := uint256.NewInt(leverage.PercentageFactor)

	var (
		mux        sync.Mutex
		candidates []*Candidate
	)

	g := concurrency.NewGoLimit(concurrency.DefaultMax)
	for _, p := range w.engine.Positions(ctx) {
		owner, account := p.Owner, p.Account
		g.Go(func() {
			hf, err := w.engine.HealthFactor(ctx, owner)
			if err != nil {
				log.WithError(err).WithField("owner", owner.Hex()).Warnln("HealthFactor")
				return
			}

			if hf.Lt(boundary) {
				mux.Lock()
				candidates = append(candidates, &Candidate{Owner: owner, Account: account, HealthFactor: hf})
				mux.Unlock()
			}
		})
	}
	g.Wait()

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].HealthFactor.Lt(candidates[j].HealthFactor)
	})

	return candidates
}
