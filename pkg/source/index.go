package source

import (
	"github.com/goccy/go-json"

	"github.com/matzehuels/unformer/pkg/errors"
)

// IndexFile is the name of the model listing at the origin root.
const IndexFile = "index.json"

// Index lists the models published by an origin.
type Index struct {
	Count  int          `json:"count"`
	Models []IndexEntry `json:"models"`
}

// IndexEntry summarizes one model.
type IndexEntry struct {
	ID                 string   `json:"id"`
	SafeID             string   `json:"safe_id,omitempty"`
	Source             string   `json:"source,omitempty"`
	Status             string   `json:"status,omitempty"`
	ModelType          string   `json:"model_type,omitempty"`
	Architectures      []string `json:"architectures,omitempty"`
	ParameterCount     int64    `json:"parameter_count,omitempty"`
	ParameterTrainable int64    `json:"parameter_trainable,omitempty"`
	ParameterSizeBytes int64    `json:"parameter_size_bytes,omitempty"`
	ModuleCount        int      `json:"module_count,omitempty"`
	GeneratedAt        string   `json:"generated_at,omitempty"`
	Path               string   `json:"path"`
	Error              string   `json:"error,omitempty"`
}

// ParseIndex decodes an index.json file.
func ParseIndex(data []byte) (*Index, error) {
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "decode index")
	}
	if idx.Count == 0 {
		idx.Count = len(idx.Models)
	}
	return &idx, nil
}

// Find returns the entry whose id or safe id equals id.
func (idx *Index) Find(id string) (IndexEntry, bool) {
	for _, e := range idx.Models {
		if e.ID == id || (e.SafeID != "" && e.SafeID == id) {
			return e, true
		}
	}
	return IndexEntry{}, false
}

// OK reports whether the entry describes a successfully generated model.
func (e IndexEntry) OK() bool {
	return e.Status == "" || e.Status == "ok"
}
