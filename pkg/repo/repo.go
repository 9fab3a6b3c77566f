package repo

import (
	"sync"

	"github.com/odvcencio/knyt/pkg/logging"
	"github.com/odvcencio/knyt/pkg/object"
)

// MetaDirName is the name of the repository metadata directory.
const MetaDirName = ".knyt"

// Repo represents an opened knyt repository.
type Repo struct {
	RootDir string        // working directory root
	KnytDir string        // .knyt/ directory
	Store   *object.Store // content-addressed object store
	Config  *Config
	Logger  logging.Logger

	commitCacheOnce sync.Once
	commitCache     *commitCache
}

func newRepo(root, knytDir string, cfg *Config) *Repo {
	return &Repo{
		RootDir: root,
		KnytDir: knytDir,
		Store:   object.NewStore(knytDir),
		Config:  cfg,
		Logger:  logging.Nop(),
	}
}

func (r *Repo) log() logging.Logger {
	if r.Logger == nil {
		return logging.Nop()
	}
	return r.Logger
}

func (r *Repo) commits() *commitCache {
	r.commitCacheOnce.Do(func() {
		r.commitCache = newCommitCache()
	})
	return r.commitCache
}
