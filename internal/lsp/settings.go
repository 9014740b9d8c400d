package lsp

import (
	"encoding/json"

	"raven/internal/config"
)

func (s *Server) handleDidChangeConfiguration(msg *rpcMessage) error {
	var params didChangeConfigurationParams
	if ok, err := s.decodeParams(msg, &params); !ok {
		return err
	}
	s.applySettings(params.Settings)
	return nil
}

func (s *Server) applySettings(raw json.RawMessage) {
	o, ok, err := config.ParseSettings(raw)
	if err != nil {
		s.log.Warn("settings", "err", err)
		return
	}
	if !ok {
		return
	}
	s.mu.Lock()
	loader := s.loader
	s.mu.Unlock()
	cfg, err := loader.SetClientSettings(o)
	if err != nil {
		// неверные значения пропущены, остальные применены
		s.log.Warn("settings", "err", err)
	}
	s.applyConfig(cfg)
}

// reloadConfig re-reads the config file and the project manifest.
func (s *Server) reloadConfig() {
	s.mu.Lock()
	loader := s.loader
	s.mu.Unlock()
	cfg, err := loader.Load()
	if err != nil {
		s.log.Warn("configuration", "err", err)
	}
	s.applyConfig(cfg)
}

// applyConfig installs cfg and revalidates the open documents.
func (s *Server) applyConfig(cfg config.Config) {
	st := s.analysis()
	if st == nil {
		return
	}
	s.mu.Lock()
	s.traceLSP = cfg.Trace
	s.mu.Unlock()
	s.sched.SetDelay(s.debounceFor(cfg))
	plan := st.SetConfig(cfg)
	s.log.Info("configuration applied", "scheduled", len(plan.Scheduled))
	s.schedulePlan(plan)
}
