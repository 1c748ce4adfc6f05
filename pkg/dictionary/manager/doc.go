// Package manager loads dictionary documents from disk and keeps the
// resolved dictionaries available by name and version.
//
// A load parses every document under the configured path, resolves its
// references and swaps the complete set into the registry in one step. If
// any document fails, the load fails and the previously loaded set stays in
// place, so a bad edit never removes a working dictionary.
//
// Watch mode reloads after file changes, with events debounced so an editor
// writing several files at once triggers a single reload:
//
//	m := manager.New(&cfg.Dictionaries, collector, logger)
//	if err := m.Load(); err != nil {
//		return err
//	}
//	go m.Watch(ctx)
//
//	dict, err := m.Latest("donor-submission")
package manager
