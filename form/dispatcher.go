package form

import (
	"context"

	"github.com/wudi/formscript/observability"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l observability.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithTracer sets the tracer used for dispatch and calculate spans.
func WithTracer(t observability.Tracer) Option {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

// Dispatcher sequences the Keystroke, Validate, Calculate and Format
// phases of one interaction and runs the calculate pass. It is not safe
// for concurrent use; script evaluation may re-enter it synchronously.
type Dispatcher struct {
	doc    *Doc
	eval   Evaluator
	send   Sender
	log    observability.Logger
	tracer observability.Tracer

	calcDepth int
}

// NewDispatcher attaches a dispatcher to doc.
func NewDispatcher(doc *Doc, eval Evaluator, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		doc:    doc,
		eval:   eval,
		send:   doc.send,
		log:    observability.NopLogger{},
		tracer: observability.NopTracer(),
	}
	for _, opt := range opts {
		opt(d)
	}
	doc.dispatcher = d
	return d
}

func (d *Dispatcher) Document() *Doc { return d.doc }

// Dispatch handles one interaction from the host. Events for unknown
// targets other than the document or a page are dropped.
func (d *Dispatcher) Dispatch(ctx context.Context, raw RawEvent) (err error) {
	ctx, span := d.tracer.StartSpan(ctx, observability.SpanDispatch)
	span.SetTag("target", raw.ID)
	span.SetTag("event", raw.Name)
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()

	f, ok := d.doc.FieldByID(raw.ID)
	if !ok {
		return d.dispatchScoped(ctx, raw)
	}

	ev := NewEvent(raw)
	d.log.Debug("dispatch", observability.String("id", raw.ID), observability.String("event", ev.Name))

	if f.IsButton() {
		prev, before := f.current, f.value
		f.selectWidget(raw.ID)
		ev.value = f.exportValue(ev.value)
		if ev.Name == EventAction {
			f.value = ev.value
		} else {
			defer f.restoreWidget(prev, before)
		}
	}

	switch ev.Name {
	case EventKeystroke:
		return d.keystroke(ctx, f, ev)
	case EventValidate:
		return d.runValidation(ctx, f, ev)
	case EventBlur, EventFocus:
		ev.lockValue()
	}
	_, err = d.RunActions(ctx, f, f, ev, ev.Name)
	return err
}

func (d *Dispatcher) dispatchScoped(ctx context.Context, raw RawEvent) error {
	if raw.ID != DocTarget && raw.ID != PageTarget {
		d.log.Debug("dropping event for unknown target",
			observability.String("id", raw.ID), observability.String("event", raw.Name))
		return nil
	}
	ev := NewEvent(raw)
	ev.Name = raw.Name
	ev.Source = d.doc.Object()
	ev.Target = d.doc.Object()
	if raw.ID == DocTarget {
		return d.doc.dispatchDocEvent(ctx, d.eval, ev)
	}
	return d.doc.dispatchPageEvent(ctx, d.eval, ev, raw.Actions, raw.PageNumber)
}

type keystrokeSnapshot struct {
	value    any
	change   string
	selStart int
	selEnd   int
}

func (d *Dispatcher) keystroke(ctx context.Context, f *Field, ev *Event) error {
	saved := keystrokeSnapshot{value: ev.value, change: ev.Change, selStart: ev.SelStart, selEnd: ev.SelEnd}
	if _, err := d.RunActions(ctx, f, f, ev, EventKeystroke); err != nil {
		return err
	}

	if !ev.RC {
		if !ev.WillCommit {
			send(d.send, Message{
				"id":       f.ID(),
				"value":    saved.value,
				"selRange": []int{saved.selStart, saved.selEnd},
			})
		}
		d.log.Debug("keystroke rejected", observability.String("field", f.Name()))
		return nil
	}
	if ev.WillCommit {
		return d.runValidation(ctx, f, ev)
	}

	merged := MergeChange(ev)
	if ev.Change != saved.change || ev.SelStart != saved.selStart || ev.SelEnd != saved.selEnd {
		// The widget shows something else than what the script produced.
		return f.Object().Set("value", merged)
	}
	f.SetValue(merged)
	return nil
}

func (d *Dispatcher) runValidation(ctx context.Context, f *Field, ev *Event) error {
	ran, err := d.RunActions(ctx, f, f, ev, EventValidate)
	if err != nil {
		return err
	}
	if !ev.RC {
		d.log.Debug("validation rejected", observability.String("field", f.Name()))
		return nil
	}

	if ran {
		if err := f.Object().Set("value", ev.value); err != nil {
			return err
		}
	} else {
		f.SetValue(ev.value)
	}

	if d.doc.Calculate() {
		if err := d.runCalculate(ctx, f, ev); err != nil {
			return err
		}
	}

	ev.value = f.Value()
	if _, err := d.RunActions(ctx, f, f, ev, EventFormat); err != nil {
		return err
	}
	return f.Object().Set("valueAsString", ev.value)
}

// RunActions binds source, target and eventName to ev, resets ev.RC and
// runs target's action list for eventName. This is the only place RC is
// reset. The boolean reports whether target had a list for the event.
func (d *Dispatcher) RunActions(ctx context.Context, source, target *Field, ev *Event, eventName string) (bool, error) {
	ev.Source = nil
	if source != nil {
		ev.Source = source.Object()
	}
	ev.Target = target.Object()
	ev.Name = eventName
	ev.TargetName = target.Name()
	ev.RC = true
	ran, err := target.RunActions(ctx, d.eval, ev)
	if err != nil {
		d.log.Error("action failed",
			observability.String("field", target.Name()),
			observability.String("event", eventName),
			observability.Error("error", err))
	}
	return ran, err
}

// CalculateNow runs the calculate pass with the first entry of the
// calculation order as source.
func (d *Dispatcher) CalculateNow(ctx context.Context) error {
	order := d.doc.CalculationOrder()
	if len(order) == 0 {
		return nil
	}
	source, _ := d.doc.FieldByID(order[0])
	return d.runCalculate(ctx, source, NewEvent(NewRawEvent("", "")))
}

// runCalculate walks the calculation order. A target whose Validate phase
// rejects keeps its value and the pass moves on. Script errors abort the
// pass. The order is assumed acyclic; nested passes are only reported.
func (d *Dispatcher) runCalculate(ctx context.Context, source *Field, ev *Event) (err error) {
	order := d.doc.CalculationOrder()
	if len(order) == 0 {
		return nil
	}

	d.calcDepth++
	defer func() { d.calcDepth-- }()
	if d.calcDepth > 1 {
		d.log.Warn("re-entrant calculate pass", observability.Int("depth", d.calcDepth))
	}

	ctx, span := d.tracer.StartSpan(ctx, observability.SpanCalculate)
	span.SetTag("depth", d.calcDepth)
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()

	for _, id := range order {
		target, ok := d.doc.FieldByID(id)
		if !ok {
			continue
		}
		if _, err := d.RunActions(ctx, source, target, ev, EventCalculate); err != nil {
			return err
		}
		if _, err := d.RunActions(ctx, target, target, ev, EventValidate); err != nil {
			return err
		}
		if !ev.RC {
			d.log.Debug("calculated value rejected", observability.String("field", target.Name()))
			continue
		}
		if err := target.Object().Set("value", ev.value); err != nil {
			return err
		}
		if _, err := d.RunActions(ctx, target, target, ev, EventFormat); err != nil {
			return err
		}
		if err := target.Object().Set("valueAsString", ev.value); err != nil {
			return err
		}
	}
	return nil
}
