// Package sandbox assembles a scripting session for one document: the
// field registry built from host descriptors, the script engine with its
// globals, and the dispatcher that drives form events.
package sandbox

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/pkg/errors"

	"github.com/wudi/formscript/form"
	"github.com/wudi/formscript/observability"
	"github.com/wudi/formscript/scripting"
)

// Option configures a Sandbox.
type Option func(*options)

type options struct {
	logger  observability.Logger
	tracer  observability.Tracer
	engine  scripting.Engine
	timeout time.Duration
}

func WithLogger(l observability.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithTracer(t observability.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithEngine replaces the default goja engine. The engine must be fresh;
// New binds the document and globals into it.
func WithEngine(e scripting.Engine) Option {
	return func(o *options) {
		if e != nil {
			o.engine = e
		}
	}
}

// WithTimeout bounds every dispatch and timer callback. Scripts still
// running when it expires are interrupted.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// ErrClosed is returned by calls on a closed Sandbox.
var ErrClosed = errors.New("sandbox closed")

// Sandbox is one document session. It is not safe for concurrent use: the
// host must serialize DispatchEvent and TimeoutCallback.
type Sandbox struct {
	host    Host
	doc     *form.Doc
	disp    *form.Dispatcher
	engine  scripting.Engine
	app     *App
	console *Console
	log     observability.Logger
	tracer  observability.Tracer
	timeout time.Duration
	closed  bool
}

// New builds a session from data. Fields are registered in descriptor
// order.
func New(data Data, host Host, opts ...Option) (*Sandbox, error) {
	if host == nil {
		return nil, errors.New("sandbox: nil host")
	}
	o := options{logger: observability.NopLogger{}, tracer: observability.NopTracer()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.engine == nil {
		o.engine = scripting.NewEngine(scripting.WithLogger(o.logger), scripting.WithTracer(o.tracer))
	}

	info := data.DocInfo
	doc := form.NewDocument(form.DocumentConfig{
		Info: form.DocumentInfo{
			Title:    info.Title,
			Author:   info.Author,
			Subject:  info.Subject,
			Keywords: info.Keywords,
			Creator:  info.Creator,
			Producer: info.Producer,
			URL:      info.URL,
			BaseURL:  info.BaseURL,
			FileName: info.FileName,
			FileSize: info.FileSize,
			NumPages: info.NumPages,
			PageNum:  info.PageNum,
		},
		Actions:          info.Actions.Actions(),
		CalculationOrder: data.CalculationOrder,
	}, host)

	for _, named := range data.Objects {
		if len(named.Widgets) == 0 {
			continue
		}
		cfgs := make([]form.FieldConfig, len(named.Widgets))
		for i, w := range named.Widgets {
			cfgs[i] = w.config()
			if cfgs[i].Name == "" {
				cfgs[i].Name = named.Name
			}
		}
		doc.AddField(named.Name, form.NewField(kindOf(named.Widgets[0].Type), cfgs, host))
	}

	s := &Sandbox{
		host:    host,
		doc:     doc,
		engine:  o.engine,
		app:     newApp(data.AppInfo, doc, host),
		console: newConsole(host),
		log:     o.logger,
		tracer:  o.tracer,
		timeout: o.timeout,
	}
	s.disp = form.NewDispatcher(doc, o.engine, form.WithLogger(o.logger), form.WithTracer(o.tracer))

	if err := o.engine.BindDocument(doc); err != nil {
		return nil, errors.Wrap(err, "sandbox: bind document")
	}
	if err := o.engine.Define("app", s.app.Object()); err != nil {
		return nil, errors.Wrap(err, "sandbox: define app")
	}
	if err := o.engine.Define("console", s.console.Object()); err != nil {
		return nil, errors.Wrap(err, "sandbox: define console")
	}

	s.log.Info("sandbox ready",
		observability.Int("fields", doc.NumFields()),
		observability.Int("calculationOrder", len(data.CalculationOrder)),
		observability.String("language", s.app.Language()))
	return s, nil
}

func (s *Sandbox) Document() *form.Doc { return s.doc }

func (s *Sandbox) App() *App { return s.app }

// DispatchEvent runs one host interaction. Failures are reported to the
// host as an error command and returned.
func (s *Sandbox) DispatchEvent(ctx context.Context, raw form.RawEvent) error {
	if s.closed {
		return ErrClosed
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()
	return s.report(s.disp.Dispatch(ctx, raw))
}

// TimeoutCallback evaluates the expression registered for timer id. A
// one-shot timer is forgotten before its expression runs. Unknown ids are
// ignored.
func (s *Sandbox) TimeoutCallback(ctx context.Context, id int, interval bool) error {
	if s.closed {
		return ErrClosed
	}
	expr, ok := s.app.fire(id, interval)
	if !ok {
		s.log.Debug("timer callback for unknown id", observability.Int("id", id))
		return nil
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()
	ctx, span := s.tracer.StartSpan(ctx, observability.SpanTimeout)
	span.SetTag("id", id)
	defer span.Finish()

	err := s.engine.Evaluate(ctx, expr, nil)
	if err != nil {
		span.SetError(err)
		err = errors.Wrapf(err, "timer %d", id)
	}
	return s.report(err)
}

// Close cancels every outstanding timer. The session is unusable
// afterwards.
func (s *Sandbox) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.app.cancelAll()
}

func (s *Sandbox) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Sandbox) report(err error) error {
	if err == nil {
		return nil
	}
	s.log.Error("script error", observability.Error("error", err))
	s.host.Send(form.Message{"command": "error", "value": describe(err)})
	return err
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// describe renders err as a message line followed by a stack: the script
// stack for script exceptions, the Go stack otherwise.
func describe(err error) string {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return err.Error() + "\n" + ex.String()
	}
	var st stackTracer
	if errors.As(err, &st) {
		return fmt.Sprintf("%s\n%+v", err, st.StackTrace())
	}
	return err.Error() + "\n"
}
