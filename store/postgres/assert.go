package postgres

import "github.com/lueurxax/extraction-engine/store"

var (
	_ store.PageStore    = (*Store)(nil)
	_ store.HybridSearch = (*Store)(nil)
)
