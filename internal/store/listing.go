package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/efinel/node-red/internal/library"
)

// ListFlows walks dir and returns the nested listing of the .json flow
// files beneath it. Hidden entries are skipped. A missing dir yields an
// empty listing.
func ListFlows(dir string) (*library.FlowListing, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &library.FlowListing{}, nil
		}
		return nil, err
	}

	listing := &library.FlowListing{}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		if e.IsDir() {
			sub, err := ListFlows(filepath.Join(dir, name))
			if err != nil {
				return nil, err
			}
			if listing.Dirs == nil {
				listing.Dirs = make(map[string]any)
			}
			listing.Dirs[name] = sub
			continue
		}

		if strings.HasSuffix(name, ".json") {
			listing.Files = append(listing.Files, strings.TrimSuffix(name, ".json"))
		}
	}

	return listing, nil
}

// listingFromPaths builds a flow listing from slash-separated entry paths.
func listingFromPaths(paths []string) *library.FlowListing {
	root := &library.FlowListing{}

	for _, p := range paths {
		segments := strings.Split(strings.Trim(p, "/"), "/")
		node := root
		for _, dir := range segments[:len(segments)-1] {
			if node.Dirs == nil {
				node.Dirs = make(map[string]any)
			}
			sub, ok := node.Dirs[dir].(*library.FlowListing)
			if !ok {
				sub = &library.FlowListing{}
				node.Dirs[dir] = sub
			}
			node = sub
		}

		name := segments[len(segments)-1]
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		node.Files = append(node.Files, strings.TrimSuffix(name, ".json"))
	}

	return root
}

// directoryListing returns the directory names followed by the file
// metadata of one library directory level.
func directoryListing(dirs []string, files []map[string]any) []any {
	result := make([]any, 0, len(dirs)+len(files))
	for _, d := range dirs {
		result = append(result, d)
	}
	for _, f := range files {
		result = append(result, f)
	}
	return result
}
