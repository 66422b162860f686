package main

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/hrygo/contextsense/ai/analyzer"
	"github.com/hrygo/contextsense/ai/call"
	"github.com/hrygo/contextsense/ai/configloader"
	"github.com/hrygo/contextsense/ai/core/llm"
	"github.com/hrygo/contextsense/ai/engine"
	"github.com/hrygo/contextsense/ai/history"
	"github.com/hrygo/contextsense/ai/learning"
	"github.com/hrygo/contextsense/ai/lexical"
	"github.com/hrygo/contextsense/ai/metrics"
	"github.com/hrygo/contextsense/ai/personality"
	"github.com/hrygo/contextsense/ai/relationship"
	"github.com/hrygo/contextsense/ai/response"
	"github.com/hrygo/contextsense/ai/types"
	"github.com/hrygo/contextsense/ai/urgency"
	"github.com/hrygo/contextsense/internal/profile"
	"github.com/hrygo/contextsense/plugin/webhook"
	"github.com/hrygo/contextsense/store"
	"github.com/hrygo/contextsense/store/db"
)

// historyBackend is what both history store implementations provide.
type historyBackend interface {
	history.Store
	history.ContactWriter
	relationship.Directory
}

// runtime holds the wired engine and the resources it owns.
type runtime struct {
	store     *store.Store // nil for the memory driver
	history   historyBackend
	collector *learning.Collector
	resolver  *relationship.Resolver
	exporter  *metrics.PrometheusExporter
	engine    engine.Engine
}

func newRuntime(ctx context.Context, p *profile.Profile) (*runtime, error) {
	rt := &runtime{exporter: metrics.NewPrometheusExporter(metrics.DefaultConfig())}

	if err := rt.openHistory(ctx, p); err != nil {
		return nil, err
	}

	loader := configloader.NewLoader(p.ConfigDir)
	lex := lexical.DefaultLexicon()
	if p.LexiconPath != "" {
		loaded, err := lexical.LoadLexicon(loader, p.LexiconPath)
		if err != nil {
			rt.Close()
			return nil, err
		}
		lex = loaded
	}
	templates := response.DefaultTemplates()
	if p.TemplatesPath != "" {
		loaded, err := response.LoadTemplates(loader, p.TemplatesPath)
		if err != nil {
			rt.Close()
			return nil, err
		}
		templates = loaded
	}

	profiler := personality.NewProfiler(rt.history, personality.Config{
		Thresholds: personality.DefaultThresholds(),
		Timeout:    p.HistoryTimeout,
		Metrics:    rt.exporter,
	})
	an := analyzer.New(lexical.NewClassifier(lex), profiler, urgency.NewDefaultScorer(), analyzer.Config{Metrics: rt.exporter})

	rt.collector = learning.NewCollector(rt.history, learning.Config{
		QueueSize: p.LearnQueueSize,
		Metrics:   rt.exporter,
	})
	classifier := relationship.NewClassifier(rt.history, relationship.Config{
		Signals: relationship.DefaultSignals(),
		Timeout: p.DirectoryTimeout,
		Metrics: rt.exporter,
	})
	rt.resolver = relationship.NewResolver(rt.history, classifier, p.HistoryTimeout, rt.exporter)

	var llmService llm.Service
	if p.IsRemote() {
		svc, err := llm.NewService(&llm.Config{
			Provider: p.LLMProvider,
			Model:    p.LLMModel,
			APIKey:   p.LLMAPIKey,
			BaseURL:  p.LLMBaseURL,
			Timeout:  p.LLMTimeout,
		})
		if err != nil {
			rt.Close()
			return nil, errors.Wrap(err, "failed to create llm service")
		}
		llmService = svc
		go svc.Warmup(ctx)
	}

	eng, err := engine.New(engine.Config{
		Strategy: p.Strategy,
		Call: engine.CallConfig{
			ConversationMode: p.ConversationMode,
			FollowUpInterval: p.FollowUpInterval,
			MaxFollowUps:     p.MaxFollowUps,
			DoNotDisturb:     p.DoNotDisturb,
			AutoAnswer:       p.AutoAnswer,
			RingTimeout:      p.RingTimeout,
		},
		Remote: engine.RemoteConfig{
			MaxConcurrent: int64(p.RemoteMaxConcurrent),
			RatePerSecond: p.RemoteRatePerSecond,
			Timeout:       p.LLMTimeout,
		},
		GateRules: p.GateRules,
	}, engine.Deps{
		Analyzer:  an,
		Responder: response.NewEngine(templates),
		Learn:     rt.collector,
		LLM:       llmService,
		Metrics:   rt.exporter,
		LineSink:  newLineSink(p),
	})
	if err != nil {
		rt.Close()
		return nil, errors.Wrap(err, "failed to create engine")
	}
	rt.engine = eng

	slog.Info("engine ready",
		"strategy", eng.Strategy(),
		"driver", p.Driver,
		"gate_rules", len(p.GateRules),
		"conversation_mode", p.ConversationMode,
	)
	return rt, nil
}

func (rt *runtime) openHistory(ctx context.Context, p *profile.Profile) error {
	if p.Driver == profile.DriverMemory {
		rt.history = history.NewInMemoryStore()
		return nil
	}

	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		return err
	}
	storeInstance := store.New(dbDriver, p)
	if err := storeInstance.Migrate(ctx); err != nil {
		_ = storeInstance.Close()
		return errors.Wrap(err, "failed to migrate")
	}
	rt.store = storeInstance
	rt.history = history.NewSQLStore(storeInstance, p.HistoryLimit)
	return nil
}

// Close ends live calls, drains pending learn signals and closes the database.
func (rt *runtime) Close() {
	if rt.engine != nil {
		rt.engine.Close()
	}
	if rt.collector != nil {
		rt.collector.Close()
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	}
}

// newLineSink logs every call line and forwards it to the call webhook when configured.
func newLineSink(p *profile.Profile) call.LineSink {
	if p.CallWebhookURL == "" {
		return call.LineSinkFunc(logLine)
	}
	hook := webhook.NewLineSink(p.CallWebhookURL)
	return call.LineSinkFunc(func(callID string, turn int, line types.Response) {
		logLine(callID, turn, line)
		hook.Line(callID, turn, line)
	})
}

func logLine(callID string, turn int, line types.Response) {
	slog.Info("call line",
		"call_id", callID,
		"turn", turn,
		"text", line.Text,
		"expression", line.ExpressionTag,
	)
}
