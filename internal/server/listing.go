package server

import (
	"html/template"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

const listingTemplateName = "listing"

const listingHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Directory listing for {{.Path}}</title>
</head>
<body>
<h1>Directory listing for {{.Path}}</h1>
<hr>
<ul>
{{- range .Entries}}
<li><a href="{{.Href}}">{{.Name}}</a></li>
{{- end}}
</ul>
<hr>
</body>
</html>
`

func newListingTemplate() *template.Template {
	return template.Must(template.New(listingTemplateName).Parse(listingHTML))
}

type listingEntry struct {
	Name string
	Href string
}

type listingPage struct {
	Path    string
	Entries []listingEntry
}

// listDirectory 渲染目录列表，目录名带结尾斜杠，按名称排序
func (h *fileHandler) listDirectory(c *gin.Context, dir, name string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return classifyFSError(err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})

	displayPath := name
	if !strings.HasSuffix(displayPath, "/") {
		displayPath += "/"
	}

	page := listingPage{Path: displayPath, Entries: make([]listingEntry, 0, len(entries))}
	for _, entry := range entries {
		entryName := entry.Name()
		if entry.IsDir() {
			entryName += "/"
		}
		href := url.URL{Path: entryName}
		page.Entries = append(page.Entries, listingEntry{Name: entryName, Href: href.String()})
	}

	c.HTML(http.StatusOK, listingTemplateName, page)
	return nil
}
