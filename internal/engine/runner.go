package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"liquidityEngine/internal/processor"
	"liquidityEngine/internal/publish"
	"liquidityEngine/internal/store"
)

// RunConfig holds runtime settings for the command loop.
type RunConfig struct {
	InputPath         string
	CheckpointPath    string
	CheckpointEnabled bool
}

// Runner applies commands strictly one at a time: exactly one mutation is
// ever in flight, which is the concurrency contract the processors assume.
// A failed command publishes its error result and the loop moves on; only
// infrastructure failures stop the run.
type Runner struct {
	cfg        RunConfig
	createProc *processor.CreateProcessor
	collectFee *processor.CollectFeeProcessor
	closeProc  *processor.CloseProcessor
	publisher  publish.Publisher
	logger     *zap.Logger
	checkpoint *CheckpointStore
}

func NewRunner(cfg RunConfig, stores store.Stores, publisher publish.Publisher, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		createProc: processor.NewCreateProcessor(stores, logger),
		collectFee: processor.NewCollectFeeProcessor(stores, logger),
		closeProc:  processor.NewCloseProcessor(stores, logger),
		publisher:  publisher,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run executes the command loop over the input file.
func (r *Runner) Run(ctx context.Context) error {
	if r.publisher == nil {
		return fmt.Errorf("publisher is nil")
	}
	if r.cfg.InputPath == "" {
		return fmt.Errorf("input path is required")
	}

	var lastApplied uint64
	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return err
	}
	if ok {
		lastApplied = cp.LastAppliedSeq
		r.logger.Info("resume from checkpoint", zap.Uint64("last_applied", lastApplied))
	}

	file, err := os.Open(r.cfg.InputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var total, applied, skipped, failed int
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var command Command
		if err := json.Unmarshal(line, &command); err != nil {
			failed++
			r.logger.Warn("decode command", zap.Error(err))
			continue
		}
		if command.Seq <= lastApplied {
			skipped++
			continue
		}
		if err := command.validate(); err != nil {
			failed++
			r.logger.Warn("invalid command", zap.Uint64("seq", command.Seq), zap.Error(err))
			continue
		}

		result, err := r.apply(ctx, command)
		if err != nil {
			failed++
			r.logger.Warn("command failed",
				zap.Uint64("seq", command.Seq),
				zap.String("type", command.Type),
				zap.String("position", command.PositionID),
				zap.Error(err),
			)
		} else {
			applied++
		}

		if err := r.publisher.PublishResult(command.Seq, result); err != nil {
			return fmt.Errorf("publish result %d: %w", command.Seq, err)
		}

		lastApplied = command.Seq
		if err := r.checkpoint.Save(lastApplied); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	r.logger.Info("command loop complete",
		zap.Int("total", total),
		zap.Int("applied", applied),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)
	return nil
}

func (r *Runner) apply(ctx context.Context, command Command) (*processor.Result, error) {
	switch command.Type {
	case CommandCreatePosition:
		return r.createProc.Process(ctx, command.newPosition(time.Now().UTC()))
	case CommandCollectFee:
		return r.collectFee.Process(ctx, command.PositionID)
	case CommandClosePosition:
		return r.closeProc.Process(ctx, command.PositionID)
	default:
		return &processor.Result{ErrorMessage: fmt.Sprintf("unknown command type %q", command.Type)},
			fmt.Errorf("unknown command type %q", command.Type)
	}
}
