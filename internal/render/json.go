// json.go - JSON tree rendering
//
// Licensing Terms: GPLv2

package render

import (
	"encoding/json"
	"io"

	"github.com/opencoff/ptree"
	"github.com/opencoff/ptree/cache"
)

// jsonNode mirrors one DirEntry and its resolved children, nested to
// match the tree shape rather than the flat path->entry cache layout.
type jsonNode struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Modified string     `json:"modified"`
	Skipped  bool       `json:"symlink_target_skipped,omitempty"`
	Children []jsonNode `json:"children,omitempty"`
}

// JSON writes root's subtree as a single JSON document to w.
func JSON(w io.Writer, r *cache.Reader, root *ptree.DirEntry) error {
	node, err := toJSONNode(r, root)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(node)
}

func toJSONNode(r *cache.Reader, e *ptree.DirEntry) (jsonNode, error) {
	n := jsonNode{
		Name:     e.Name,
		Path:     e.Path,
		Modified: e.Modified.Format(timeLayout),
		Skipped:  e.IsSymlinkTargetSkipped,
	}
	if e.IsSymlinkTargetSkipped {
		return n, nil
	}

	children, err := r.Children(e.Path)
	if err != nil {
		return n, err
	}
	n.Children = make([]jsonNode, 0, len(children))
	for _, c := range children {
		cn, err := toJSONNode(r, c)
		if err != nil {
			return n, err
		}
		n.Children = append(n.Children, cn)
	}
	return n, nil
}

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"
