package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/wudi/formscript/form"
	"github.com/wudi/formscript/host"
	"github.com/wudi/formscript/observability"
	"github.com/wudi/formscript/sandbox"
)

type options struct {
	formPath   string
	eventsPath string
	open       bool
	keepGoing  bool
	timeout    time.Duration
	settle     time.Duration
	answers    []string
	filter     string
	logLevel   string
	logJSON    bool
}

func newRootCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "formrun --form <descriptor> [events]",
		Short:        "Replay form events against a scripted document",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		Example: `formrun --form invoice.yaml steps.yaml
formrun --form invoice.json --keep-going --answer yes steps.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.eventsPath = args[0]
			}
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.formPath, "form", "", "form descriptor (YAML or JSON)")
	flags.BoolVar(&opts.open, "open", true, "dispatch the document Open event before replaying")
	flags.BoolVar(&opts.keepGoing, "keep-going", false, "continue after failing steps and report all failures")
	flags.DurationVar(&opts.timeout, "timeout", 5*time.Second, "limit for each dispatch, 0 disables")
	flags.DurationVar(&opts.settle, "settle", 10*time.Millisecond, "how long to wait for timers after advancing the clock")
	flags.StringSliceVar(&opts.answers, "answer", nil, "answers for app.response prompts, in order")
	flags.StringVar(&opts.filter, "filter", "", "jq expression applied to each message before printing")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.BoolVar(&opts.logJSON, "log-json", false, "log JSON to stderr instead of console text")
	if err := cmd.MarkFlagRequired("form"); err != nil {
		panic(err)
	}
	return cmd
}

// step is one entry of an events script. Exactly one field is set.
type step struct {
	Event   *sandbox.EventData `yaml:"event"`
	Advance time.Duration      `yaml:"advance"`
	Timeout *timeoutStep       `yaml:"timeout"`
}

type timeoutStep struct {
	ID       int  `yaml:"id"`
	Interval bool `yaml:"interval"`
}

type script struct {
	Steps []step `yaml:"steps"`
}

func run(ctx context.Context, opts options, out io.Writer) error {
	zl, err := newLogger(opts.logLevel, opts.logJSON)
	if err != nil {
		return err
	}
	defer zl.Sync() //nolint:errcheck
	log := observability.NewZapLogger(zl)

	var data sandbox.Data
	if err := decodeFile(opts.formPath, &data); err != nil {
		return errors.Wrap(err, "load form")
	}
	var sc script
	if opts.eventsPath != "" {
		if err := decodeFile(opts.eventsPath, &sc); err != nil {
			return errors.Wrap(err, "load events")
		}
	}

	w, err := newMessageWriter(out, opts.filter)
	if err != nil {
		return err
	}
	sink := form.SenderFunc(func(msg form.Message) {
		if err := w.write(msg); err != nil {
			log.Error("write message", observability.Error("error", err))
		}
	})
	mock := clock.NewMock()
	h := host.NewLocal(
		host.WithClock(mock),
		host.WithSink(sink),
		host.WithLogger(log),
		host.WithAnswers(opts.answers...),
	)
	defer h.Stop()

	sb, err := sandbox.New(data, h, sandbox.WithLogger(log), sandbox.WithTimeout(opts.timeout))
	if err != nil {
		return err
	}
	defer sb.Close()

	r := &replayer{sb: sb, host: h, clock: mock, settle: opts.settle}
	if opts.open {
		sc.Steps = append([]step{{Event: &sandbox.EventData{ID: form.DocTarget, Name: "Open"}}}, sc.Steps...)
	}

	var result *multierror.Error
	for i, st := range sc.Steps {
		if err := r.replay(ctx, st); err != nil {
			err = errors.Wrapf(err, "step %d", i+1)
			if !opts.keepGoing {
				return err
			}
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

type replayer struct {
	sb     *sandbox.Sandbox
	host   *host.Local
	clock  *clock.Mock
	settle time.Duration
}

func (r *replayer) replay(ctx context.Context, st step) error {
	switch {
	case st.Event != nil:
		return r.sb.DispatchEvent(ctx, st.Event.Raw())
	case st.Timeout != nil:
		return r.sb.TimeoutCallback(ctx, st.Timeout.ID, st.Timeout.Interval)
	case st.Advance > 0:
		r.clock.Add(st.Advance)
		return r.drain(ctx)
	}
	return errors.New("empty step")
}

// drain delivers fired timers until none arrives within the settle window.
func (r *replayer) drain(ctx context.Context) error {
	var result *multierror.Error
	for {
		select {
		case t := <-r.host.Fired():
			if err := r.sb.TimeoutCallback(ctx, t.ID, t.Interval); err != nil {
				result = multierror.Append(result, err)
			}
		case <-time.After(r.settle):
			return result.ErrorOrNil()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func decodeFile(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return errors.Wrap(yaml.Unmarshal(b, v), path)
}

func newLogger(level string, json bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	cfg := zap.NewDevelopmentConfig()
	if json {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
