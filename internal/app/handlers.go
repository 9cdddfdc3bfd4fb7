package app

import (
	"errors"
	"time"

	"github.com/dshills/peek/internal/eval"
	"github.com/dshills/peek/internal/input/key"
	"github.com/dshills/peek/internal/loop"
)

// onKeyPress runs on the listener goroutine and hands the key to the loop.
func (app *Application) onKeyPress(text string, ev key.Event) {
	if err := app.loop.Post(func() { app.handleKey(text, ev) }); err != nil && !errors.Is(err, loop.ErrStopped) {
		app.logger.Warn("dropping key %s: %v", ev, err)
	}
}

// handleKey lets the console edit the line and the adapter preview it.
// When the console changed the line in a way the adapter does not track,
// or redrew the prompt for a modified key the adapter ignores, the adapter
// is resynchronized so the preview matches the line.
func (app *Application) handleKey(text string, ev key.Event) {
	app.metrics.RecordKey()

	handled := app.console.HandleKey(text, ev)
	app.adapter.OnKey(text, ev)

	if handled && (ev.IsModified() || app.adapter.Buffer() != app.console.Line()) {
		app.adapter.Sync(app.console.Line())
	}
}

// evaluate previews input and records its timing.
func (app *Application) evaluate(input string) (any, error) {
	return app.timed(eval.Safe, input)
}

// execute runs a committed line, keeping any state it changes.
func (app *Application) execute(input string) (any, error) {
	return app.timed(eval.SafeExec, input)
}

func (app *Application) timed(run func(eval.Evaluator, string) (any, error), input string) (any, error) {
	start := time.Now()
	result, err := run(app.evaluator, input)
	app.metrics.RecordEval(time.Since(start), err != nil && !eval.IsIncomplete(err))
	return result, err
}

// commit prints the full result of a committed line.
func (app *Application) commit(line string) {
	app.metrics.RecordCommit()

	result, err := app.execute(line)
	if err != nil {
		app.logger.Debug("commit %q: %v", line, err)
		app.console.Print(err.Error())
		return
	}
	if eval.Empty(result) {
		return
	}

	text, err := app.formatter.Format(result)
	if err != nil {
		app.console.Print(err.Error())
		return
	}
	app.console.Print(text)
}

func (app *Application) quit() {
	app.logger.Debug("quit")
	app.loop.Stop()
}

func (app *Application) renderFailed(err error) {
	app.metrics.RecordRenderError()
	app.logger.Warn("preview: %v", err)
}

// reload swaps in a document read by the watcher and refreshes the
// preview.
func (app *Application) reload(doc []byte, err error) {
	if err != nil {
		app.logger.Warn("reload %s: %v", app.doc.Path, err)
		return
	}
	if err := app.evaluator.SetDocument(doc); err != nil {
		app.logger.Warn("reload %s: %v", app.doc.Path, err)
		return
	}
	app.doc.Raw = doc
	app.metrics.RecordReload()
	app.logger.Info("reloaded %s (%d bytes)", app.doc.Path, len(doc))
	app.adapter.Sync(app.console.Line())
}
