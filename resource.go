// SPDX-FileCopyrightText: 2023 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package fixture

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"mime"
	"path"
	"strings"

	"github.com/Masterminds/sprig/v3"
	"github.com/spf13/afero"
)

// ResourcePrefix is the URL path under which resource files are served.
const ResourcePrefix = "/@@/testbrowser/"

// DefaultResourceType is used when no content type can be guessed from a file name.
const DefaultResourceType = "application/octet-stream"

//go:embed resources
var embedded embed.FS

// EmbeddedResources returns a read-only filesystem holding the resources that
// ship with this package.
func EmbeddedResources() afero.Fs {
	sub, err := fs.Sub(embedded, "resources")
	if err != nil {
		// the embed directive guarantees the directory exists
		panic(err)
	}

	return afero.FromIOFS{FS: sub}
}

// ResourceDir returns a read-only filesystem rooted at a local directory.
func ResourceDir(dir string) afero.Fs {
	return afero.NewReadOnlyFs(
		afero.NewBasePathFs(afero.NewOsFs(), dir),
	)
}

// resourceTypes covers extensions that the mime package only knows about
// when the host has a mime.types file.
var resourceTypes = map[string]string{
	".txt": "text/plain; charset=utf-8",
}

// GuessType returns the content type for a file name based on its extension.
func GuessType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if t, ok := resourceTypes[ext]; ok {
		return t
	}

	if t := mime.TypeByExtension(ext); len(t) > 0 {
		return t
	}

	return DefaultResourceType
}

// ResourceHandler serves the files of a filesystem.  Only the final segment of
// the request path is used, so nothing outside the filesystem root is reachable.
type ResourceHandler struct {
	Fs afero.Fs
}

// Handle implements Handler.  HTML files are executed as templates with the
// Request available as .request, while all other files are returned verbatim.
func (rh ResourceHandler) Handle(r *Request) (*Response, error) {
	name := r.Path[strings.LastIndexByte(r.Path, '/')+1:]
	contents, err := afero.ReadFile(rh.Fs, name)
	if err != nil {
		return nil, fmt.Errorf("unable to read resource %q: %w", name, err)
	}

	contentType := GuessType(name)
	if mediaType(contentType) == "text/html" {
		if contents, err = render(name, contents, r); err != nil {
			return nil, err
		}
	}

	resp := NewResponse("")
	resp.Header.Set("Content-Type", contentType)
	resp.Body = contents
	return resp, nil
}

func render(name string, contents []byte, r *Request) ([]byte, error) {
	t, err := template.New(name).Funcs(sprig.FuncMap()).Parse(string(contents))
	if err != nil {
		return nil, fmt.Errorf("unable to parse template %q: %w", name, err)
	}

	var out bytes.Buffer
	err = t.Execute(&out, map[string]interface{}{
		"request": r,
	})

	if err != nil {
		return nil, fmt.Errorf("unable to render template %q: %w", name, err)
	}

	return out.Bytes(), nil
}
