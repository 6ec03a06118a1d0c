package docsim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/soundprediction/docsim/pkg/config"
	"github.com/soundprediction/docsim/pkg/corpus"
	docsimLogger "github.com/soundprediction/docsim/pkg/logger"
	"github.com/soundprediction/docsim/pkg/telemetry"
	"github.com/spf13/cobra"
)

// session carries what every command needs: configuration, a logger wired to
// the configured telemetry sinks, and a cancellable context.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	ctx     context.Context
	runID   string
	closers []func() error
	stop    context.CancelFunc
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	s := &session{cfg: cfg, runID: uuid.New().String()}

	base := docsimLogger.NewLogger(docsimLogger.Options{
		Level:  docsimLogger.ParseLevel(cfg.Log.Level),
		Writer: os.Stderr,
		Format: cfg.Log.Format,
		Color:  os.Getenv("NO_COLOR") == "",
	})
	handler := base.Handler()

	if cfg.Telemetry.ParquetPath != "" {
		ph, err := telemetry.NewParquetHandler(handler, cfg.Telemetry.ParquetPath)
		if err != nil {
			return nil, err
		}
		handler = ph
		s.closers = append(s.closers, ph.Close)
	}
	if cfg.Telemetry.SQLitePath != "" {
		db, err := telemetry.OpenSQLite(cfg.Telemetry.SQLitePath)
		if err != nil {
			s.close()
			return nil, err
		}
		sh, err := telemetry.NewSQLHandler(handler, db)
		if err != nil {
			db.Close()
			s.close()
			return nil, err
		}
		handler = sh
		s.closers = append(s.closers, db.Close)
	}

	s.logger = slog.New(handler).With("run_id", s.runID)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	s.ctx = telemetry.WithRun(ctx, s.runID, cmd.Name())
	s.stop = stop
	return s, nil
}

// fail logs err at error level so telemetry sinks capture it, then returns it.
func (s *session) fail(err error) error {
	if err != nil {
		s.logger.ErrorContext(s.ctx, "command failed", "error", err.Error())
	}
	return err
}

func (s *session) close() error {
	if s.stop != nil {
		s.stop()
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// loadInputs reads the corpus and the labeled pairs checked against it.
func (s *session) loadInputs(documentsPath, labeledPath string) (*corpus.Corpus, *corpus.PairSet, error) {
	c, err := corpus.LoadDocuments(documentsPath)
	if err != nil {
		return nil, nil, err
	}
	s.logger.InfoContext(s.ctx, "loaded corpus", "path", documentsPath, "documents", c.Len())

	policy, err := corpus.ParsePairPolicy(s.cfg.Corpus.UnknownPairs)
	if err != nil {
		return nil, nil, err
	}
	pairs, err := corpus.LoadLabeledPairs(labeledPath, c.IDSet(), policy)
	if err != nil {
		return nil, nil, err
	}
	if pairs.Skipped > 0 {
		s.logger.WarnContext(s.ctx, "skipped labeled pairs with unknown ids", "skipped", pairs.Skipped)
	}
	s.logger.InfoContext(s.ctx, "loaded labeled pairs", "path", labeledPath, "pairs", len(pairs.Pairs))

	return c, pairs, nil
}
