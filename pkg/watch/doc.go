// Package watch reports debounced changes to a single file.
//
// Editors and generators often replace a file through several events
// (truncate, write, rename). A [Watcher] watches the file's directory with
// fsnotify, filters events for the file, and collapses bursts into one
// notification after a quiet period. When fsnotify is unavailable it falls
// back to polling the file's size and modification time.
//
//	w, err := watch.New("model.json", watch.WithDebounce(200*time.Millisecond))
//	if err != nil { ... }
//	go w.Run(ctx)
//	for range w.Changed() {
//	    relayout()
//	}
package watch
