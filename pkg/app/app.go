package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/flemzord/fancyjob/internal/commitmsg"
	"github.com/flemzord/fancyjob/internal/config"
	"github.com/flemzord/fancyjob/internal/counter"
	"github.com/flemzord/fancyjob/internal/crontab"
	"github.com/flemzord/fancyjob/internal/daemon"
	"github.com/flemzord/fancyjob/internal/gitrepo"
	"github.com/flemzord/fancyjob/internal/history"
	"github.com/flemzord/fancyjob/internal/llm"
	"github.com/flemzord/fancyjob/internal/schedule"
)

// UseLLMEnv selects LLM-drafted commit messages when present in the
// environment, regardless of value.
const UseLLMEnv = "FANCYJOB_USE_LLM"

// historyOff disables run recording when set as history.path.
const historyOff = "off"

// App holds the wired collaborators for one invocation.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	lock    *flock.Flock
	hist    *history.Store
	rng     *rand.Rand
	version string

	// onPushFailure is set in daemon mode so push failures reach the
	// daemon metrics despite being non-fatal to the update itself.
	onPushFailure func()
}

// New loads configuration and wires an App. Call Close when done.
func New(params RunParams) (*App, error) {
	cfgPath := params.ConfigPath
	if cfgPath == "" {
		if resolved, err := ResolveConfigPath(); err == nil {
			cfgPath = resolved
		}
	}

	var cfg *config.Config
	if cfgPath == "" {
		cfg = config.Default()
	} else {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logger := NewLogger(params.LogLevel)

	app := &App{
		cfg:     cfg,
		logger:  logger,
		lock:    flock.New(filepath.Join(cfg.Git.Dir, ".fancyjob.lock")),
		rng:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(os.Getpid()))),
		version: params.Version,
	}

	if path := app.historyPath(); path != "" {
		hist, err := history.Open(path)
		if err != nil {
			// History is best-effort: never block the counter update.
			logger.Warn("history unavailable", "path", path, "error", err)
		} else {
			app.hist = hist
		}
	}

	return app, nil
}

// Close releases the history store.
func (a *App) Close() {
	if a.hist != nil {
		_ = a.hist.Close()
	}
}

// Config exposes the loaded configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

func (a *App) historyPath() string {
	switch a.cfg.History.Path {
	case historyOff:
		return ""
	case "":
		return filepath.Join(DefaultDataDir(), "history.db")
	default:
		return a.cfg.History.Path
	}
}

// inRepo resolves a path relative to the git working directory.
func (a *App) inRepo(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.cfg.Git.Dir, path)
}

// withLock runs fn holding the cross-process file lock that guards the
// counter, the marker, and the crontab read-modify-write sequences.
func (a *App) withLock(fn func() error) error {
	if err := a.lock.Lock(); err != nil {
		return fmt.Errorf("app: acquiring %s: %w", a.lock.Path(), err)
	}
	defer func() { _ = a.lock.Unlock() }()
	return fn()
}

// Update performs one counter update: increment, commit, push, and — when
// configured — a trailing reschedule.
func (a *App) Update(ctx context.Context) error {
	if err := a.withLock(func() error { return a.update(ctx) }); err != nil {
		return err
	}

	if a.cfg.Schedule.AfterUpdate {
		return a.Reschedule(ctx)
	}
	return nil
}

func (a *App) update(ctx context.Context) error {
	store := counter.NewFileStore(a.inRepo(a.cfg.Counter.Path))
	value, err := store.Increment()
	if err != nil {
		return err
	}

	gen, err := a.messageGenerator()
	if err != nil {
		return err
	}
	message, err := gen.Message(ctx)
	if err != nil {
		return err
	}

	repo := gitrepo.New(a.cfg.Git.Dir, a.cfg.Git.Remote, nil)
	if err := repo.Stage(ctx, a.cfg.Counter.Path); err != nil {
		return err
	}
	if err := repo.Commit(ctx, message); err != nil {
		return err
	}

	pushCtx, cancel := context.WithTimeout(ctx, a.cfg.Git.PushTimeout.Std())
	defer cancel()

	pushed := true
	var pushErrText string
	if err := repo.Push(pushCtx); err != nil {
		// Deliberately non-fatal: the commit is recorded locally and a
		// later run will push it along.
		pushed = false
		pushErrText = err.Error()
		a.logger.Error("push failed, continuing", "error", err)
		if a.onPushFailure != nil {
			a.onPushFailure()
		}
	} else {
		a.logger.Info("pushed successfully", "counter", value, "message", message)
	}

	a.record(ctx, history.Run{
		Kind:    history.KindUpdate,
		Counter: value,
		Message: message,
		Pushed:  pushed,
		Error:   pushErrText,
	})
	return nil
}

// messageGenerator selects the date or LLM generator per the env toggle.
func (a *App) messageGenerator() (commitmsg.Generator, error) {
	if _, useLLM := os.LookupEnv(UseLLMEnv); !useLLM {
		return commitmsg.DateGenerator{}, nil
	}

	llmCfg := a.cfg.Commit.LLM
	if llmCfg == nil {
		return nil, fmt.Errorf("app: %s is set but commit.llm is not configured", UseLLMEnv)
	}

	apiKey := llmCfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(llmCfg.APIKeyEnv)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("app: commit.llm api key not found in $%s", llmCfg.APIKeyEnv)
	}

	client := llm.NewClient(llmCfg.BaseURL, apiKey, llmCfg.Model, &http.Client{
		Transport: &http.Transport{
			ResponseHeaderTimeout: llmCfg.Timeout.Std(),
		},
	})

	return commitmsg.NewLLMGenerator(func(ctx context.Context, prompt string) (string, error) {
		return client.Generate(ctx, llm.Request{
			Prompt:      prompt,
			MaxTokens:   llmCfg.MaxTokens,
			Samples:     llmCfg.Samples,
			Temperature: llmCfg.Temperature,
			TopK:        llmCfg.TopK,
			TopP:        llmCfg.TopP,
		})
	}), nil
}

// Reschedule regenerates the self-owned crontab entries, at most once per
// calendar day.
func (a *App) Reschedule(ctx context.Context) error {
	entry, err := a.entry()
	if err != nil {
		return err
	}

	return a.withLock(func() error {
		r := schedule.NewRescheduler(schedule.ReschedulerConfig{
			Marker:    schedule.NewMarker(a.inRepo(a.cfg.Schedule.MarkerPath)),
			Scheduler: crontab.SystemCrontab{},
			Rng:       a.rng,
			Weights:   a.cfg.Schedule.Weights,
			Hours:     a.cfg.Schedule.CandidateHours(),
			Entry:     entry,
			Logger:    a.logger,
		})

		plan, err := r.Reschedule(ctx)
		if err != nil {
			return err
		}
		if plan != nil {
			a.record(ctx, history.Run{Kind: history.KindReschedule, RunCount: plan.RunCount})
		}
		return nil
	})
}

// Daemon runs the in-process scheduler until ctx is canceled.
func (a *App) Daemon(ctx context.Context) error {
	d := daemon.New(daemon.Config{
		Logger:  a.logger,
		Version: a.version,
		Anchors: a.cfg.Schedule.Anchors,
		Weights: a.cfg.Schedule.Weights,
		Hours:   a.cfg.Schedule.CandidateHours(),
		Rng:     a.rng,
		Update: func(ctx context.Context) error {
			return a.withLock(func() error { return a.update(ctx) })
		},
		History: a.hist,
		Listen:  a.cfg.Daemon.Listen,
	})
	a.onPushFailure = d.Metrics().RecordPushFailure
	return d.Run(ctx)
}

// entry builds the generated-line template from config, defaulting the
// command to the running executable and the dir to the absolute repo path.
func (a *App) entry() (schedule.Entry, error) {
	command := a.cfg.Schedule.Command
	if command == "" {
		exe, err := os.Executable()
		if err != nil {
			return schedule.Entry{}, fmt.Errorf("app: resolving executable for crontab entries: %w", err)
		}
		command = exe
	}

	dir, err := filepath.Abs(a.cfg.Git.Dir)
	if err != nil {
		return schedule.Entry{}, fmt.Errorf("app: resolving repo dir: %w", err)
	}

	return schedule.Entry{
		Dir:     dir,
		Command: command,
		LogPath: a.inRepo(a.cfg.Schedule.LogPath),
		Tag:     a.cfg.Schedule.Tag,
	}, nil
}

// record writes a history row, best-effort.
func (a *App) record(ctx context.Context, run history.Run) {
	if a.hist == nil {
		return
	}
	if err := a.hist.Record(ctx, run); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Warn("recording run failed", "error", err)
	}
}
