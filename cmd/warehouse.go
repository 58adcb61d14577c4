package cmd

import (
	"context"
	"strings"

	"paysight/internal/cache"
	"paysight/internal/catalog"
	"paysight/internal/config"
	"paysight/internal/observability"
	"paysight/internal/warehouse"
)

// connectWarehouse opens the pool. Tests replace it to inject a mock.
var connectWarehouse = func(ctx context.Context, wc warehouse.Config) (*warehouse.Service, error) {
	svc := warehouse.NewService(wc, warehouse.WithLogger(observability.GetDefaultLogger()))
	if err := svc.Connect(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

// session bundles an open warehouse with the options every catalog or
// explorer built on it shares
type session struct {
	svc     *warehouse.Service
	metrics *observability.QueryMetrics
	results *cache.Cache
	opts    []catalog.Option
}

// openSession connects to the configured warehouse. useCache false skips
// the result cache and the fingerprint queries behind token "auto".
func openSession(ctx context.Context, useCache bool) (*session, error) {
	wc, err := config.WarehouseConfig(appConfig)
	if err != nil {
		return nil, err
	}
	svc, err := connectWarehouse(ctx, wc)
	if err != nil {
		return nil, err
	}

	logger := observability.GetDefaultLogger()
	s := &session{
		svc:     svc,
		metrics: observability.NewQueryMetrics(),
	}
	s.opts = []catalog.Option{
		catalog.WithDialect(svc.Dialect()),
		catalog.WithTimeout(svc.Timeout()),
		catalog.WithLogger(logger),
		catalog.WithMetrics(s.metrics),
	}

	if !useCache || !appConfig.Cache.Enabled {
		return s, nil
	}

	token := appConfig.Cache.Token
	if strings.EqualFold(token, "auto") {
		token, err = warehouse.Fingerprint(ctx, svc.DB(), catalog.RelationNames(), "")
		if err != nil {
			// a failed fingerprint only costs the cache
			logger.WarnWithFields("cache disabled: fingerprint failed", map[string]interface{}{
				"error": err.Error(),
			})
			return s, nil
		}
	}

	ttl, err := config.ParseDuration("cache.ttl", appConfig.Cache.TTL)
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	cc := cache.DefaultConfig()
	if appConfig.Cache.MaxEntries > 0 {
		cc.MaxEntries = appConfig.Cache.MaxEntries
	}
	cc.TTL = ttl

	s.results = cache.New(cc)
	s.opts = append(s.opts, catalog.WithCache(s.results, token))
	logger.DebugWithFields("result cache enabled", map[string]interface{}{"token": token})
	return s, nil
}

func (s *session) catalog() *catalog.Catalog {
	return catalog.New(s.opts...)
}

func (s *session) explorer() *catalog.Explorer {
	return catalog.NewExplorer(s.svc.DB(), s.opts...)
}

func (s *session) Close() error {
	return s.svc.Close()
}
