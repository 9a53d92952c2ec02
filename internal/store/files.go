// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/pdiddy/skill-factory/pkg/types"
)

// postFilePattern matches dated post files: YYYY-MM-DD-slug.md.
var postFilePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(.+)\.md$`)

// ArtifactPaths locates the files of one skill on disk.
type ArtifactPaths struct {
	Skill string
	Code  string
	Post  string
}

// ReadArtifacts loads the files named by p. Empty paths are skipped and
// leave the artifact empty.
func ReadArtifacts(p ArtifactPaths) (types.Artifacts, error) {
	a := types.Artifacts{}
	for _, f := range []struct {
		kind types.ArtifactKind
		path string
	}{
		{types.ArtifactSkill, p.Skill},
		{types.ArtifactCode, p.Code},
		{types.ArtifactPost, p.Post},
	} {
		if f.path == "" {
			continue
		}
		data, err := os.ReadFile(f.path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.kind, err)
		}
		a[f.kind] = string(data)
	}
	return a, nil
}

// Locate returns the artifact paths of a published skill. The newest post
// for slug is used; Post is empty when there is none.
func (s *Store) Locate(slug string) (ArtifactPaths, error) {
	dir := filepath.Join(s.skillsDir, slug)
	if _, err := os.Stat(filepath.Join(dir, skillFile)); err != nil {
		return ArtifactPaths{}, fmt.Errorf("skill %q: %w", slug, err)
	}
	posts, err := PostFiles(s.postsDir, slug)
	if err != nil {
		return ArtifactPaths{}, err
	}
	p := ArtifactPaths{
		Skill: filepath.Join(dir, skillFile),
		Code:  filepath.Join(dir, codeFile),
	}
	if len(posts) > 0 {
		p.Post = posts[len(posts)-1]
	}
	if _, err := os.Stat(p.Code); err != nil {
		p.Code = ""
	}
	return p, nil
}

// PostFiles returns the dated post files for slug in postsDir, oldest
// first. A missing directory yields no files.
func PostFiles(postsDir, slug string) ([]string, error) {
	entries, err := os.ReadDir(postsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading posts directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := postFilePattern.FindStringSubmatch(e.Name())
		if m == nil || m[2] != slug {
			continue
		}
		files = append(files, filepath.Join(postsDir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
