package ioservice

import "log/slog"

// ConfigResolver reads scoped configuration parameters.
type ConfigResolver interface {
	Parameter(name, scope string) (string, bool)
}

// ScopeAwareService re-reads its prefix whenever the configuration scope
// changes, such as when a request switches site access.
type ScopeAwareService struct {
	IOService
	resolver  ConfigResolver
	parameter string
	logger    *slog.Logger
}

// NewScopeAwareService wraps inner. parameter names the prefix setting.
func NewScopeAwareService(inner IOService, resolver ConfigResolver, parameter string, logger *slog.Logger) *ScopeAwareService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScopeAwareService{IOService: inner, resolver: resolver, parameter: parameter, logger: logger}
}

// OnConfigScopeChange applies the prefix configured for scope. Scopes without
// the parameter keep the current prefix.
func (s *ScopeAwareService) OnConfigScopeChange(scope string) {
	prefix, ok := s.resolver.Parameter(s.parameter, scope)
	if !ok {
		s.logger.Debug("no io prefix for scope", slog.String("scope", scope))
		return
	}
	s.SetPrefix(prefix)
	s.logger.Debug("io prefix changed", slog.String("scope", scope), slog.String("prefix", prefix))
}
