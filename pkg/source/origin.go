package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/matzehuels/unformer/pkg/errors"
	"github.com/matzehuels/unformer/pkg/httputil"
)

// ErrNotFound is returned by an [Origin] when a file does not exist.
var ErrNotFound = stderrors.New("not found")

// Origin reads files relative to a model repository root. Paths use
// forward slashes.
type Origin interface {
	Read(ctx context.Context, name string) ([]byte, error)
	String() string
}

// DirOrigin reads from a local directory.
type DirOrigin struct {
	root string
}

// NewDirOrigin returns an origin rooted at dir.
func NewDirOrigin(dir string) *DirOrigin {
	return &DirOrigin{root: dir}
}

func (o *DirOrigin) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := path.Clean("/" + name)
	data, err := os.ReadFile(filepath.Join(o.root, filepath.FromSlash(clean)))
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return data, err
}

func (o *DirOrigin) String() string { return o.root }

// HTTPOrigin reads from a base URL through an [httputil.Client].
type HTTPOrigin struct {
	base   *url.URL
	client *httputil.Client
}

// NewHTTPOrigin returns an origin for baseURL. A nil client gets defaults.
func NewHTTPOrigin(baseURL string, client *httputil.Client) (*HTTPOrigin, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse origin url: %w", err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if client == nil {
		client = httputil.NewClient(httputil.Options{})
	}
	return &HTTPOrigin{base: u, client: client}, nil
}

func (o *HTTPOrigin) Read(ctx context.Context, name string) ([]byte, error) {
	ref, err := url.Parse(strings.TrimPrefix(name, "/"))
	if err != nil {
		return nil, err
	}
	data, err := o.client.Fetch(ctx, o.base.ResolveReference(ref).String())
	if stderrors.Is(err, httputil.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return data, err
}

func (o *HTTPOrigin) String() string { return o.base.String() }

// OpenOrigin returns an HTTPOrigin for http(s) locations and a DirOrigin
// otherwise.
func OpenOrigin(location string, client *httputil.Client) (Origin, error) {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPOrigin(location, client)
	}
	return NewDirOrigin(location), nil
}
