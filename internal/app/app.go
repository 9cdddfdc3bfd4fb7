package app

import (
	"context"
	"errors"
	"io"
	"os"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/peek/internal/config"
	"github.com/dshills/peek/internal/console"
	"github.com/dshills/peek/internal/data"
	"github.com/dshills/peek/internal/eval"
	"github.com/dshills/peek/internal/format"
	"github.com/dshills/peek/internal/input/adapter"
	"github.com/dshills/peek/internal/input/keypress"
	"github.com/dshills/peek/internal/logging"
	"github.com/dshills/peek/internal/loop"
	"github.com/dshills/peek/internal/preview"
)

// Application is the central coordinator for peek's components.
type Application struct {
	opts    Options
	cfg     *config.Config
	logger  *logging.Logger
	session string
	metrics *Metrics

	loop      *loop.Loop
	out       *console.Output
	console   *console.Console
	doc       *Document
	evaluator documentEvaluator
	formatter *format.Pretty
	renderer  *preview.Renderer
	adapter   *adapter.Adapter

	running atomic.Bool
}

// Options configures the application.
type Options struct {
	// Config supplies every setting. Nil means the built-in defaults.
	Config *config.Config

	// Input is read for key presses. Defaults to os.Stdin.
	Input io.Reader

	// Output receives the prompt and previews. Defaults to os.Stdout.
	Output io.Writer

	// Logger receives diagnostics. Defaults to a disabled logger.
	Logger *logging.Logger

	// DisableRawMode leaves a terminal input in cooked mode.
	DisableRawMode bool
}

// New creates an Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{
		opts:    opts,
		metrics: NewMetrics(),
		loop:    loop.New(),
	}
	if err := app.bootstrap(); err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	var err error

	// 1. Config and logging
	app.cfg = app.opts.Config
	if app.cfg == nil {
		app.cfg = config.New()
	}
	if err := app.cfg.Validate(); err != nil {
		return &InitError{Component: "config", Err: err}
	}

	logger := app.opts.Logger
	if logger == nil {
		logger = logging.NullLogger
	}
	app.session = uuid.NewString()
	app.logger = logger.WithField("session", app.session).WithComponent("app")

	// 2. Document and evaluator
	app.doc, err = loadDocument(app.cfg.Data())
	if err != nil {
		return &InitError{Component: "data", Err: err}
	}
	ec := app.cfg.Eval()
	app.evaluator, err = newEvaluator(ec, app.doc.Raw)
	if err != nil {
		return &InitError{Component: "eval", Err: err}
	}

	// 3. Formatter and console
	app.formatter, err = format.New(app.cfg.Format().Options())
	if err != nil {
		return &InitError{Component: "format", Err: err}
	}

	out := app.opts.Output
	if out == nil {
		out = os.Stdout
	}
	app.out = console.NewOutput(out)
	cc := app.cfg.Console()
	app.console = console.New(app.out,
		console.WithPrompt(cc.Prompt),
		console.WithTabSize(cc.TabSize),
		console.WithCommit(app.commit),
		console.WithQuit(app.quit),
	)

	// 4. Preview renderer and key adapter
	app.renderer = preview.New(app.loop,
		preview.WithPretty(app.formatter.Format),
		preview.WithOnError(app.renderFailed),
	)
	app.renderer.SetLogger(logger.WithField("session", app.session))

	keys := app.cfg.Keys()
	bindings, err := adapter.NewBindings(map[adapter.Action][]string{
		adapter.ActionCommit:      keys.Commit,
		adapter.ActionCancel:      keys.Cancel,
		adapter.ActionHistoryPrev: keys.HistoryPrev,
		adapter.ActionHistoryNext: keys.HistoryNext,
	})
	if err != nil {
		return &InitError{Component: "keys", Err: err}
	}
	app.adapter = adapter.New(app.console,
		eval.Async(app.loop, eval.Func(app.evaluate)),
		app.renderer,
		adapter.WithBindings(bindings),
		adapter.WithLogger(logger.WithField("session", app.session)),
	)

	app.logger.Info("ready: lang=%s mode=%s data=%q seed=%d config=%q",
		ec.Lang, ec.Mode, app.doc.Path, app.doc.Seed, app.cfg.File())
	return nil
}

// Run reads keys until the user quits, the input ends or ctx is done.
// It returns ctx's error when ctx ends the session.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)
	defer app.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	_ = app.loop.Post(app.console.Start)

	in := app.opts.Input
	if in == nil {
		in = os.Stdin
	}
	listener, err := keypress.Listen(in, app.onKeyPress, keypress.WithRawMode(!app.opts.DisableRawMode))
	if err != nil {
		return &InitError{Component: "keypress", Err: err}
	}
	defer listener.Close()
	app.out.SetRaw(listener.IsRaw())

	if dc := app.cfg.Data(); dc.Watch && dc.Path != "" {
		go app.watch(ctx, dc)
	}

	go func() {
		select {
		case <-listener.Done():
			if err := listener.Err(); err != nil {
				app.logger.Error("reading keys: %v", err)
			}
			_ = app.loop.Post(func() {
				app.console.Finish()
				app.quit()
			})
		case <-ctx.Done():
		}
	}()

	err = app.loop.Run(ctx)

	app.logger.WithFields(app.metrics.Snapshot().Fields()).Info("session ended")

	var perr *loop.PanicError
	if errors.As(err, &perr) {
		return NewComponentError("loop", "run", err)
	}
	return err
}

// watch reloads the document file until ctx is done.
func (app *Application) watch(ctx context.Context, dc config.DataConfig) {
	err := data.Watch(ctx, dc.Path, func(doc []byte, err error) {
		_ = app.loop.Post(func() { app.reload(doc, err) })
	}, data.WithDebounce(dc.Debounce))
	if err != nil {
		app.logger.Error("%v", NewComponentError("data", "watch", err))
	}
}

// close releases the evaluator.
func (app *Application) close() {
	if c, ok := app.evaluator.(io.Closer); ok {
		if err := c.Close(); err != nil {
			app.logger.Warn("closing evaluator: %v", err)
		}
	}
}

// IsRunning returns true if the application is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Config returns the configuration.
func (app *Application) Config() *config.Config {
	return app.cfg
}

// Session returns the session id attached to every log line.
func (app *Application) Session() string {
	return app.session
}

// Metrics returns the session metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// Document returns the document being queried.
func (app *Application) Document() *Document {
	return app.doc
}

// History returns the committed lines.
func (app *Application) History() []string {
	return app.adapter.History()
}
