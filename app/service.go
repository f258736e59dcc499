// Package app wires configuration into a chronic generation service.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kilianp07/gridchronics/config"
	coremetrics "github.com/kilianp07/gridchronics/core/metrics"
	"github.com/kilianp07/gridchronics/core/model"
	"github.com/kilianp07/gridchronics/core/profile"
	"github.com/kilianp07/gridchronics/core/runner"
	"github.com/kilianp07/gridchronics/infra/logger"
	inframetrics "github.com/kilianp07/gridchronics/infra/metrics"
	"github.com/kilianp07/gridchronics/pkg/export"
)

// Service runs the configured scenario set end to end: load network and
// profiles, dispatch, validate, export.
type Service struct {
	cfg    *config.Config
	log    logger.Logger
	net    *model.NetworkModel
	sink   coremetrics.Sink
	influx *inframetrics.InfluxSink
}

// New builds the service from a loaded configuration.
func New(cfg *config.Config) (*Service, error) {
	log := logger.New("service")
	net, err := config.LoadNetwork(cfg.Network)
	if err != nil {
		return nil, err
	}

	svc := &Service{cfg: cfg, log: log, net: net}
	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := inframetrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sink := inframetrics.NewInfluxSinkWithFallback(cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket)
		if is, ok := sink.(*inframetrics.InfluxSink); ok {
			svc.influx = is
		}
		sinks = append(sinks, sink)
	}
	switch len(sinks) {
	case 0:
		svc.sink = coremetrics.NopSink{}
	case 1:
		svc.sink = sinks[0]
	default:
		svc.sink = inframetrics.NewMultiSink(sinks...)
	}
	return svc, nil
}

// Run executes every scenario matched by the profiles glob and exports
// the resulting chronics. It returns the first fatal scenario error.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := inframetrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	scenarios, err := s.loadScenarios()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.cfg.Output, 0o755); err != nil {
		return err
	}

	run := runner.New(s.net, s.cfg.Dispatch, s.cfg.Validation, s.cfg.Parallelism, s.log, s.sink)
	results := run.Run(ctx, scenarios)

	var firstErr error
	for _, res := range results {
		if res.Err != nil {
			s.log.Errorf("scenario %s failed: %v", res.Scenario, res.Err)
			if firstErr == nil {
				firstErr = fmt.Errorf("scenario %s: %w", res.Scenario, res.Err)
			}
			continue
		}
		s.log.Infof("scenario %s: %s", res.Scenario, res.Report)
		if err := s.export(res); err != nil {
			s.log.Errorf("scenario %s export: %v", res.Scenario, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.influx != nil {
		s.influx.Close()
	}
	return nil
}

// loadScenarios expands the profiles glob into named scenarios, in a
// stable order.
func (s *Service) loadScenarios() ([]runner.Scenario, error) {
	paths, err := filepath.Glob(s.cfg.Profiles)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no profile files match %q", s.cfg.Profiles)
	}
	sort.Strings(paths)
	scenarios := make([]runner.Scenario, 0, len(paths))
	for _, p := range paths {
		src, err := profile.LoadCSV(p)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		scenarios = append(scenarios, runner.Scenario{Name: name, Source: src})
	}
	return scenarios, nil
}

func (s *Service) export(res runner.Result) error {
	csvPath := filepath.Join(s.cfg.Output, res.Scenario+".csv")
	cf, err := os.Create(csvPath)
	if err != nil {
		return err
	}
	defer cf.Close()
	if err := export.WriteCSV(cf, s.net, res.Chronic); err != nil {
		return err
	}

	jsonPath := filepath.Join(s.cfg.Output, res.Scenario+".json")
	jf, err := os.Create(jsonPath)
	if err != nil {
		return err
	}
	defer jf.Close()
	return export.WriteJSON(jf, res.Chronic)
}
