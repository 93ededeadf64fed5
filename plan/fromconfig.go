package plan

import (
	"fmt"

	"github.com/planfall/plankit/config"
	"github.com/planfall/plankit/episode"
	"github.com/planfall/plankit/hooks"
	"github.com/planfall/plankit/operator"
	"github.com/planfall/plankit/telemetry"
)

// NewRuntimeFromConfig builds a runtime from a loaded configuration,
// mapping every selection the file can express onto its collaborator:
// operator mode and decision, trace sink, episode store, the NATS hook
// mirror, and the break policy. The runtime gets a fresh hook
// registry; register additional observers on Hooks().
func NewRuntimeFromConfig(cfg *config.Config) (*Runtime, error) {
	breakOn, err := cfg.BreakOnKinds()
	if err != nil {
		return nil, err
	}

	op, err := operatorFromConfig(cfg.Operator)
	if err != nil {
		return nil, err
	}

	events, err := telemetry.NewEventLogger(cfg.Trace.Sink, cfg.Trace.Target)
	if err != nil {
		return nil, err
	}

	store, err := storeFromConfig(cfg.Episodes)
	if err != nil {
		return nil, err
	}

	reg := hooks.NewRegistry()
	if cfg.Hooks.NATSURL != "" {
		ncfg := hooks.DefaultNATSConfig()
		ncfg.URL = cfg.Hooks.NATSURL
		ncfg.Name = "plankit"
		if cfg.Hooks.SubjectPrefix != "" {
			ncfg.SubjectPrefix = cfg.Hooks.SubjectPrefix
		}
		mirror, err := hooks.NewNATSObserver(ncfg)
		if err != nil {
			return nil, fmt.Errorf("connecting hook mirror: %w", err)
		}
		reg.Register(mirror)
	}

	return NewRuntime(RuntimeConfig{
		Hooks:    reg,
		Events:   events,
		Operator: op,
		Episodes: store,
		Policy: Policy{
			BreakOn:              breakOn,
			DebugOnRuntimeErrors: cfg.Policy.DebugOnRuntimeErrors,
		},
	}), nil
}

func operatorFromConfig(cfg config.OperatorConfig) (operator.Operator, error) {
	switch cfg.Mode {
	case "", "auto":
		if cfg.Decision == "abort" {
			return operator.NewAuto(operator.Abort), nil
		}
		return operator.NewAuto(operator.Continue), nil
	case "stdio":
		return operator.NewStdio(nil, nil), nil
	case "websocket":
		return operator.NewWebSocket(operator.WebSocketConfig{Addr: cfg.Addr})
	default:
		return nil, fmt.Errorf("unknown operator mode: %s", cfg.Mode)
	}
}

func storeFromConfig(cfg config.EpisodeConfig) (episode.Store, error) {
	switch cfg.Store {
	case "", "memory":
		return episode.NewMemoryStore(), nil
	case "bleve":
		return episode.NewBleveStore(episode.BleveStoreConfig{BasePath: cfg.Path})
	default:
		return nil, fmt.Errorf("unknown episode store: %s", cfg.Store)
	}
}
