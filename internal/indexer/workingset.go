package indexer

import (
	"context"
	"errors"
	"sort"

	"github.com/codealamode/imiimi/internal/domain"
	"github.com/codealamode/imiimi/internal/store"
)

// workingSet caches the keychains touched during one index operation, so an
// unindex followed by a reindex of the same stem edits a single in-memory
// record and the final state lands in one batch.
type workingSet struct {
	store  store.Store
	loaded map[string]*domain.Keychain // nil value: known absent
}

func newWorkingSet(st store.Store) *workingSet {
	return &workingSet{store: st, loaded: make(map[string]*domain.Keychain)}
}

// get returns the keychain for a stem, loading it on first touch. Absent
// keychains come back nil.
func (ws *workingSet) get(ctx context.Context, stem string) *domain.Keychain {
	if keychain, ok := ws.loaded[stem]; ok {
		return keychain
	}
	keychain, err := ws.store.GetKeychain(ctx, stem)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		// Treat a read failure like absence; the commit will surface any
		// real connectivity problem.
		keychain = nil
	}
	ws.loaded[stem] = keychain
	return keychain
}

func (ws *workingSet) put(keychain *domain.Keychain) {
	ws.loaded[keychain.Stem] = keychain
}

// appendTo moves the touched keychains into a batch: emptied ones as
// deletes, the rest as puts. Stems are ordered for deterministic batches.
func (ws *workingSet) appendTo(batch *store.Batch) {
	stems := make([]string, 0, len(ws.loaded))
	for stem := range ws.loaded {
		stems = append(stems, stem)
	}
	sort.Strings(stems)

	for _, stem := range stems {
		keychain := ws.loaded[stem]
		if keychain == nil {
			continue
		}
		if len(keychain.Keys) == 0 {
			batch.DeleteKeychains = append(batch.DeleteKeychains, stem)
		} else {
			batch.PutKeychains = append(batch.PutKeychains, keychain)
		}
	}
}
