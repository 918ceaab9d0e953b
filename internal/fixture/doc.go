// Package fixture enumerates, caches, and loads the reference files a golden
// test run compares against.
//
// A run has three steps:
//
//  1. Walk (or Index) enumerates the examples directory once and persists the
//     slash-separated relative names to a manifest file.
//  2. A Loader reads the manifest, dispatches one fetch per name through a
//     Source, and classifies each result as a document (parsed archive) or an
//     asset (raw bytes) in a Store.
//  3. A Barrier fires the completion callback exactly once, after dispatch has
//     finished and every fetch has been recorded.
//
// Sources may complete synchronously (DirSource) or on another goroutine
// (HTTPSource, store.Bundle); the Loader does not care which.
package fixture
