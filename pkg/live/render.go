package live

import (
	"context"
	"errors"
	"fmt"

	"github.com/vango-dev/cellui/pkg/dom"
	"github.com/vango-dev/cellui/pkg/reactive"
)

// App mounts a root component into rt at the element with id mountID and
// returns a function that disposes it. It is called once per session and
// once per page render, on the goroutine driving rt.
type App func(rt *reactive.Runtime, mountID string) (dispose func(), err error)

// Root returns an App mounting def with a fresh state from newState.
func Root[S any](def *reactive.Component[S], newState func() *S) App {
	return func(rt *reactive.Runtime, mountID string) (func(), error) {
		h, err := reactive.Mount(rt, def, newState(), mountID)
		if err != nil {
			return nil, err
		}
		return h.Dispose, nil
	}
}

// mountPoint appends an empty <div id=mountID> to the document body.
func mountPoint(doc dom.Document, root dom.Node, mountID string) error {
	n, err := doc.CreateElement("div")
	if err != nil {
		return err
	}
	if err := doc.SetAttribute(n, "id", mountID); err != nil {
		return err
	}
	return doc.AppendChild(root, n)
}

// Render mounts app into a detached document, waits for its async tasks
// until ctx is done and returns the body HTML. When ctx expires first the
// HTML rendered so far is returned together with ctx's error.
func Render(ctx context.Context, app App, mountID string, opts ...reactive.Option) (string, error) {
	doc := dom.NewMemory()
	if err := mountPoint(doc, doc.Root(), mountID); err != nil {
		return "", fmt.Errorf("live: render: %w", err)
	}
	rt := reactive.NewRuntime(doc, opts...)
	defer rt.Close()

	dispose, err := app(rt, mountID)
	if err != nil {
		return "", fmt.Errorf("live: render: %w", err)
	}
	defer dispose()

	err = rt.RunUntilIdle(ctx)
	if rt.Frozen() {
		return doc.HTML(), fmt.Errorf("live: render: %w", reactive.ErrFrozen)
	}
	if err != nil && !errors.Is(err, reactive.ErrClosed) {
		return doc.HTML(), err
	}
	return doc.HTML(), nil
}
