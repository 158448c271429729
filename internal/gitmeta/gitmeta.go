// Package gitmeta reads per-file history from the git repository a site's
// sources live in.
package gitmeta

import (
	stderrors "errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/sitebuilder/internal/docmodel"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/miner"
)

// Variable names set by the LastCommit extractor.
const (
	KeyLastmod = "lastmod"
	KeyCommit  = "commit"
	KeyAuthor  = "author"
)

const shortHashLen = 8

var errStop = stderrors.New("stop iteration")

// Commit describes the most recent commit touching a file.
type Commit struct {
	Hash   string
	Author string
	When   time.Time
}

// Short returns the abbreviated hash.
func (c Commit) Short() string {
	if len(c.Hash) > shortHashLen {
		return c.Hash[:shortHashLen]
	}
	return c.Hash
}

// Repo is an opened repository.
type Repo struct {
	repo *git.Repository
	root string
}

// Open finds the repository containing dir, searching parent directories.
func Open(dir string) (*Repo, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.GitError("failed to open git repository").
			WithCause(err).
			WithContext("path", dir).
			Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, errors.GitError("repository has no worktree").
			WithCause(err).
			WithContext("path", dir).
			Build()
	}
	root, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		root = wt.Filesystem.Root()
	}
	return &Repo{repo: repo, root: root}, nil
}

// LastCommit returns the newest commit reachable from HEAD that touched path.
// ok is false when path is outside the worktree or has no history.
func (r *Repo) LastCommit(path string) (c Commit, ok bool, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Commit{}, false, err
	}
	if resolved, rerr := filepath.EvalSymlinks(abs); rerr == nil {
		abs = resolved
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Commit{}, false, nil
	}
	rel = filepath.ToSlash(rel)

	head, err := r.repo.Head()
	if err != nil {
		// Unborn branch: nothing committed yet.
		return Commit{}, false, nil
	}

	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash(), FileName: &rel})
	if err != nil {
		return Commit{}, false, errors.GitError("failed to read file history").
			WithCause(err).
			WithContext("path", rel).
			Build()
	}
	defer iter.Close()

	err = iter.ForEach(func(commit *object.Commit) error {
		c = Commit{
			Hash:   commit.Hash.String(),
			Author: commit.Author.Name,
			When:   commit.Author.When,
		}
		ok = true
		return errStop
	})
	if err != nil && !stderrors.Is(err, errStop) {
		return Commit{}, false, errors.GitError("failed to walk file history").
			WithCause(err).
			WithContext("path", rel).
			Build()
	}
	return c, ok, nil
}

// LastCommit returns an extractor contributing lastmod (RFC3339), commit
// (short hash) and author for each document. The repository is located from
// repoDir on first use; when there is none the extractor contributes nothing.
func LastCommit(repoDir string) miner.Extractor {
	var (
		once sync.Once
		repo *Repo
	)
	return miner.ExtractorFunc(func(doc *docmodel.Document, _ string) (docmodel.Variables, error) {
		once.Do(func() {
			repo, _ = Open(repoDir)
		})
		if repo == nil {
			return nil, nil
		}
		c, ok, err := repo.LastCommit(doc.Path)
		if err != nil || !ok {
			return nil, err
		}
		return docmodel.Variables{
			KeyLastmod: c.When.UTC().Format(time.RFC3339),
			KeyCommit:  c.Short(),
			KeyAuthor:  c.Author,
		}, nil
	})
}
