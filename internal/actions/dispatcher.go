package actions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	apierrors "github.com/bizcopilot/copilot/internal/errors"
	"github.com/bizcopilot/copilot/internal/metrics"
)

// UnknownErrorNotice is shown when a failed action carries no detail
const UnknownErrorNotice = "Ошибка: Неизвестная ошибка"

// ErrNoInput is returned when submitting without an open input form
var ErrNoInput = errors.New("no quick action form is open")

// OverlayState identifies which modal is showing
type OverlayState int

const (
	OverlayNone OverlayState = iota
	OverlayInput
	OverlayResult
)

func (s OverlayState) String() string {
	switch s {
	case OverlayNone:
		return "none"
	case OverlayInput:
		return "input"
	case OverlayResult:
		return "result"
	default:
		return "unknown"
	}
}

// Overlay is a snapshot of the modal state. Kind and Values are set for
// OverlayInput, Result for OverlayResult.
type Overlay struct {
	State  OverlayState
	Kind   Kind
	Values Values
	Result string
	// Notice is the blocking error shown over the input form.
	Notice string
	Busy   bool
}

// Submission is a begun action round trip
type Submission struct {
	Generation uint64
	Kind       Kind
	Values     Values
}

// Outcome is the result of a Submission
type Outcome struct {
	Generation uint64
	Kind       Kind
	Text       string
	Err        error
}

// Dispatcher drives the single quick-action overlay. It is safe for concurrent use.
type Dispatcher struct {
	mu sync.Mutex

	client  Poster
	log     *zap.Logger
	metrics *metrics.Metrics

	overlay    Overlay
	generation uint64
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the logger used for overlay transitions
func WithLogger(log *zap.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithMetrics records submissions and discarded results on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a dispatcher with no overlay open
func NewDispatcher(client Poster, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		client: client,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open shows the input form for kind with its default values.
// Any in-flight result is superseded.
func (d *Dispatcher) Open(kind Kind) error {
	action, ok := Lookup(kind)
	if !ok {
		return fmt.Errorf("unknown quick action %q", kind)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.generation++
	d.overlay = Overlay{
		State:  OverlayInput,
		Kind:   kind,
		Values: action.Defaults(),
	}
	d.log.Debug("quick action opened", zap.String("kind", string(kind)), zap.Uint64("generation", d.generation))
	return nil
}

// Close dismisses whichever overlay is showing
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.generation++
	d.overlay = Overlay{}
}

// DismissNotice clears the blocking error, leaving the form intact
func (d *Dispatcher) DismissNotice() {
	d.mu.Lock()
	d.overlay.Notice = ""
	d.mu.Unlock()
}

// Overlay returns a snapshot of the modal state
func (d *Dispatcher) Overlay() Overlay {
	d.mu.Lock()
	defer d.mu.Unlock()
	o := d.overlay
	if o.Values != nil {
		o.Values = copyValues(o.Values)
	}
	return o
}

// Begin validates values against the open form and marks it busy.
// Validation failures are returned and leave the form open.
func (d *Dispatcher) Begin(values Values) (Submission, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.overlay.State != OverlayInput {
		return Submission{}, ErrNoInput
	}
	if d.overlay.Busy {
		return Submission{}, apierrors.ErrRequestPending
	}

	action, _ := Lookup(d.overlay.Kind)
	d.overlay.Values = copyValues(values)
	if err := action.Validate(values); err != nil {
		d.overlay.Notice = Notice(err)
		return Submission{}, err
	}

	d.overlay.Busy = true
	d.overlay.Notice = ""
	d.metrics.Submitted(string(action.Kind))

	return Submission{
		Generation: d.generation,
		Kind:       action.Kind,
		Values:     copyValues(values),
	}, nil
}

// Run performs the round trip for sub. It does not touch overlay state.
func (d *Dispatcher) Run(ctx context.Context, sub Submission) Outcome {
	out := Outcome{Generation: sub.Generation, Kind: sub.Kind}
	action, ok := Lookup(sub.Kind)
	if !ok {
		out.Err = fmt.Errorf("unknown quick action %q", sub.Kind)
		return out
	}
	out.Text, out.Err = action.run(ctx, d.client, sub.Values)
	return out
}

// Apply folds an outcome into the overlay. On success the input closes and
// the result opens; on failure the form stays open with a notice. An outcome
// from a superseded generation is discarded and Apply returns false.
func (d *Dispatcher) Apply(out Outcome) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if out.Generation != d.generation || d.overlay.State != OverlayInput {
		d.metrics.Discarded("actions")
		d.log.Debug("stale quick action result discarded",
			zap.String("kind", string(out.Kind)),
			zap.Uint64("result_generation", out.Generation),
			zap.Uint64("generation", d.generation),
		)
		return false
	}

	if out.Err != nil {
		d.overlay.Busy = false
		d.overlay.Notice = Notice(out.Err)
		d.log.Debug("quick action failed", zap.String("kind", string(out.Kind)), zap.Error(out.Err))
		return true
	}

	d.generation++
	d.overlay = Overlay{State: OverlayResult, Kind: out.Kind, Result: out.Text}
	return true
}

// Submit runs Begin, Run and Apply in sequence and returns the result text
func (d *Dispatcher) Submit(ctx context.Context, values Values) (string, error) {
	sub, err := d.Begin(values)
	if err != nil {
		return "", err
	}
	out := d.Run(ctx, sub)
	d.Apply(out)
	return out.Text, out.Err
}

// Notice formats err as the blocking message shown over a form
func Notice(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return "Ошибка: " + verr.Error()
	}
	if detail := apierrors.Detail(err); detail != "" {
		return "Ошибка: " + detail
	}
	return UnknownErrorNotice
}

func copyValues(v Values) Values {
	out := make(Values, len(v))
	for k, s := range v {
		out[k] = s
	}
	return out
}
