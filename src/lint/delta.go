package lint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/sofmeright/loq/src/log"
)

// Delta detects files changed relative to a target branch.
type Delta struct {
	RootDir      string
	TargetBranch string
}

// ChangedFiles returns changed paths relative to RootDir: uncommitted work
// (staged, unstaged, untracked) plus commits not on the target branch.
// Returns nil (scan everything) if git is unavailable or no baseline exists.
func (d *Delta) ChangedFiles(ctx context.Context) (map[string]bool, error) {
	repo, err := git.PlainOpenWithOptions(d.RootDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		log.Debugf("delta: not a git repo, scanning all files")
		return nil, nil
	}

	wt, err := repo.Worktree()
	if err != nil {
		log.Debugf("delta: no worktree (%v), scanning all files", err)
		return nil, nil
	}
	repoRoot := wt.Filesystem.Root()

	worktreeChanges, err := d.worktreeChanges(wt)
	if err != nil {
		log.Debugf("delta: worktree diff failed: %v, scanning all files", err)
		return nil, nil
	}

	branchChanges, err := d.branchChanges(ctx, repo)
	if err != nil {
		log.Debugf("delta: branch diff failed: %v, scanning all files", err)
		return nil, nil
	}

	changed := make(map[string]bool)
	for _, set := range []map[string]bool{worktreeChanges, branchChanges} {
		for p := range set {
			if rel, ok := d.relToRoot(repoRoot, p); ok {
				changed[rel] = true
			}
		}
	}

	if len(changed) == 0 {
		log.Debugf("delta: no changes detected")
	}
	return changed, nil
}

// relToRoot maps a repository-relative path onto RootDir.
func (d *Delta) relToRoot(repoRoot, p string) (string, bool) {
	root, err := filepath.Abs(d.RootDir)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(root, filepath.Join(repoRoot, filepath.FromSlash(p)))
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}

func (d *Delta) worktreeChanges(wt *git.Worktree) (map[string]bool, error) {
	status, err := wt.Status()
	if err != nil {
		return nil, err
	}

	changed := make(map[string]bool)
	for path, s := range status {
		if s.Worktree == git.Unmodified && s.Staging == git.Unmodified {
			continue
		}
		if s.Worktree == git.Deleted || s.Staging == git.Deleted {
			continue
		}
		changed[path] = true
	}
	return changed, nil
}

// branchChanges returns files changed on HEAD since it forked from the
// target branch.
func (d *Delta) branchChanges(ctx context.Context, repo *git.Repository) (map[string]bool, error) {
	targetBranch := d.targetBranch(repo)

	headRef, err := repo.Head()
	if err != nil {
		// Unborn HEAD: nothing committed yet.
		return nil, nil
	}
	headCommit, err := repo.CommitObject(headRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("getting HEAD commit: %w", err)
	}

	targetRef, err := repo.Reference(plumbing.NewBranchReferenceName(targetBranch), true)
	if err != nil {
		targetRef, err = repo.Reference(plumbing.NewRemoteReferenceName("origin", targetBranch), true)
		if err != nil {
			log.Debugf("delta: target branch %q not found, using worktree changes only", targetBranch)
			return nil, nil
		}
	}
	targetCommit, err := repo.CommitObject(targetRef.Hash())
	if err != nil {
		return nil, fmt.Errorf("getting target commit: %w", err)
	}

	// Diff from the fork point so commits made only on the target don't count.
	bases, err := headCommit.MergeBase(targetCommit)
	if err != nil {
		return nil, fmt.Errorf("finding merge base: %w", err)
	}
	if len(bases) == 0 {
		log.Debugf("delta: no common ancestor with %q, using worktree changes only", targetBranch)
		return nil, nil
	}
	base := bases[0]

	// HEAD at or behind the fork point: nothing committed ahead of it.
	if headCommit.Hash == base.Hash {
		return nil, nil
	}

	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, err
	}
	baseTree, err := base.Tree()
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTreeWithOptions(ctx, baseTree, headTree, &object.DiffTreeOptions{})
	if err != nil {
		return nil, fmt.Errorf("diffing trees: %w", err)
	}

	changed := make(map[string]bool)
	for _, change := range changes {
		if name := changeName(change); name != "" {
			changed[name] = true
		}
	}
	return changed, nil
}

// targetBranch determines the branch to diff against.
func (d *Delta) targetBranch(repo *git.Repository) string {
	if branch := os.Getenv("LOQ_TARGET_BRANCH"); branch != "" {
		return branch
	}
	if d.TargetBranch != "" {
		return d.TargetBranch
	}

	ciVars := []string{
		"CI_MERGE_REQUEST_TARGET_BRANCH_NAME", // GitLab CI
		"GITHUB_BASE_REF",                     // GitHub Actions
		"BITBUCKET_PR_DESTINATION_BRANCH",     // Bitbucket
		"CHANGE_TARGET",                       // Jenkins
	}
	for _, v := range ciVars {
		if branch := os.Getenv(v); branch != "" {
			return branch
		}
	}

	// origin/HEAD is symbolic; don't resolve it.
	if ref, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", "HEAD"), false); err == nil {
		const prefix = "refs/remotes/origin/"
		if target := ref.Target().String(); strings.HasPrefix(target, prefix) {
			return strings.TrimPrefix(target, prefix)
		}
	}

	return "main"
}

// changeName returns the surviving path of a tree change; deletions have
// nothing left to measure.
func changeName(change *object.Change) string {
	action, err := change.Action()
	if err != nil {
		return ""
	}
	switch action {
	case merkletrie.Insert, merkletrie.Modify:
		return change.To.Name
	}
	return ""
}

// FilterByDelta keeps the files in changedSet. A nil set keeps everything.
func FilterByDelta(files []FileInfo, changedSet map[string]bool) []FileInfo {
	if changedSet == nil {
		return files
	}
	filtered := make([]FileInfo, 0, len(changedSet))
	for _, f := range files {
		if changedSet[f.Path] {
			filtered = append(filtered, f)
		}
	}
	return filtered
}
