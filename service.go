package iap

import (
	"context"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-iap/auth"
	"github.com/goliatone/go-iap/core"
	"github.com/goliatone/go-iap/playstore"
	"github.com/goliatone/go-iap/transport"
	"github.com/goliatone/go-iap/trust"
)

// Service wires the trust anchor store, signature verifier, credential
// refresher, and status reconciler into a single validation entry point.
type Service struct {
	config      core.Config
	logger      core.Logger
	metrics     core.MetricsRecorder
	transport   core.TransportAdapter
	keys        *trust.Store
	credentials *auth.Credentials
	refresher   *auth.Refresher
	validator   *playstore.Validator
}

type serviceBuilder struct {
	runtimeConfig   core.Config
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metricsRecorder core.MetricsRecorder
	transport       core.TransportAdapter
	httpClient      transport.HTTPDoer
	configProvider  core.ConfigProvider
	optionsResolver core.OptionsResolver
	keys            *trust.Store
	verifier        core.Verifier
}

type Option func(*serviceBuilder)

func WithLogger(logger core.Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(b *serviceBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithTransport(adapter core.TransportAdapter) Option {
	return func(b *serviceBuilder) {
		b.transport = adapter
	}
}

func WithHTTPClient(client transport.HTTPDoer) Option {
	return func(b *serviceBuilder) {
		b.httpClient = client
	}
}

func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithKeyStore(store *trust.Store) Option {
	return func(b *serviceBuilder) {
		b.keys = store
	}
}

func WithVerifier(verifier core.Verifier) Option {
	return func(b *serviceBuilder) {
		b.verifier = verifier
	}
}

func New(cfg core.Config, opts ...Option) (*Service, error) {
	builder := serviceBuilder{runtimeConfig: cfg}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("iap", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("iap"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.metricsRecorder == nil {
		builder.metricsRecorder = core.NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = core.NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = core.GoOptionsResolver{}
	}
	if builder.transport == nil {
		builder.transport = transport.NewRESTAdapter(builder.httpClient)
	}
	if builder.verifier == nil {
		builder.verifier = trust.NewSignatureVerifier()
	}

	defaults := core.DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, core.MapError(err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, core.MapError(err)
	}

	keys := builder.keys
	if keys == nil {
		keys, err = trust.FromConfig(finalConfig)
		if err != nil {
			return nil, core.MapError(err)
		}
	}

	credentials := auth.NewCredentials(finalConfig.Credentials)
	refresher, err := auth.NewRefresher(auth.RefresherConfig{
		Credentials: credentials,
		Transport:   builder.transport,
		TokenURL:    finalConfig.Endpoints.TokenURL,
		Logger:      logger,
		Metrics:     builder.metricsRecorder,
	})
	if err != nil {
		return nil, core.MapError(err)
	}

	reconciler, err := playstore.NewReconciler(playstore.ReconcilerConfig{
		Refresher: refresher,
		Transport: builder.transport,
		APIBase:   finalConfig.Endpoints.APIBase,
		Logger:    logger,
		Metrics:   builder.metricsRecorder,
	})
	if err != nil {
		return nil, core.MapError(err)
	}

	validator, err := playstore.NewValidator(playstore.ValidatorConfig{
		Keys:       keys,
		Verifier:   builder.verifier,
		Reconciler: reconciler,
		Logger:     logger,
		Metrics:    builder.metricsRecorder,
	})
	if err != nil {
		return nil, core.MapError(err)
	}

	return &Service{
		config:      finalConfig,
		logger:      logger,
		metrics:     builder.metricsRecorder,
		transport:   builder.transport,
		keys:        keys,
		credentials: credentials,
		refresher:   refresher,
		validator:   validator,
	}, nil
}

// Validate verifies the receipt signature and reconciles purchase status.
func (s *Service) Validate(ctx context.Context, receipt core.Receipt, opts core.ValidateOptions) (core.Result, error) {
	if s == nil || s.validator == nil {
		return core.FailureResult("service is not configured"), core.ConfigError("iap: service is nil")
	}
	return s.validator.Validate(ctx, receipt, opts)
}

// RefreshCredentials redeems the refresh token out of band, outside of a
// validation run.
func (s *Service) RefreshCredentials(ctx context.Context) error {
	if s == nil || s.refresher == nil {
		return core.ConfigError("iap: service is nil")
	}
	_, err := s.refresher.Refresh(ctx)
	return err
}

// CheckPurchaseState reports whether remote status reconciliation is active
// for this process.
func (s *Service) CheckPurchaseState() bool {
	return s != nil && s.refresher.Enabled()
}

// AccessToken exposes the current access token for diagnostic callers.
func (s *Service) AccessToken() string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s.refresher.AccessToken())
}

func (s *Service) Config() core.Config {
	if s == nil {
		return core.Config{}
	}
	return s.config
}
