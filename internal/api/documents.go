package api

import (
	"net/http"
	"net/url"
	"strconv"

	"channels-go/internal/catalog"
)

// ChannelSummary is the list form of a channel.
type ChannelSummary struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// ChannelDocument is a channel with every category path.
type ChannelDocument struct {
	URL             string   `json:"url"`
	Name            string   `json:"name"`
	Categories      []string `json:"categories"`
	CategoriesCount int64    `json:"categories_count"`
}

// CategorySummary is the list form of a category.
type CategorySummary struct {
	URL     string `json:"url"`
	Name    string `json:"name"`
	Path    string `json:"path"`
	Channel string `json:"channel"`
}

// CategoryDocument is a category with its surroundings.
type CategoryDocument struct {
	URL           string            `json:"url"`
	Name          string            `json:"name"`
	Path          string            `json:"path"`
	Subcategories []string          `json:"subcategories"`
	Ancestors     []CategorySummary `json:"ancestors"`
	Children      []CategorySummary `json:"children"`
	Channel       string            `json:"channel"`
}

// channelData is the host independent part of a ChannelDocument. It is what
// gets cached, since URLs depend on the request.
type channelData struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Count      int64    `json:"count"`
}

// linker builds absolute URLs for the request being served.
type linker struct {
	base string
}

func newLinker(r *http.Request) linker {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return linker{base: scheme + "://" + r.Host + "/api/v1"}
}

func (l linker) channel(name string) string {
	return l.base + "/channels/" + url.PathEscape(name)
}

func (l linker) category(id int64) string {
	return l.base + "/categories/" + strconv.FormatInt(id, 10)
}

func (l linker) channelSummary(c *catalog.Channel) ChannelSummary {
	return ChannelSummary{URL: l.channel(c.Name()), Name: c.Name()}
}

func (l linker) categorySummary(c *catalog.Category, channel *catalog.Channel) CategorySummary {
	return CategorySummary{
		URL:     l.category(c.ID()),
		Name:    c.Name(),
		Path:    c.Path(),
		Channel: l.channel(channel.Name()),
	}
}

func (l linker) channelDocument(d *channelData) ChannelDocument {
	return ChannelDocument{
		URL:             l.channel(d.Name),
		Name:            d.Name,
		Categories:      d.Categories,
		CategoriesCount: d.Count,
	}
}

func (l linker) categoryDocument(d *catalog.CategoryDetail) CategoryDocument {
	doc := CategoryDocument{
		URL:           l.category(d.Category.ID()),
		Name:          d.Category.Name(),
		Path:          d.Category.Path(),
		Subcategories: d.Subcategories,
		Ancestors:     make([]CategorySummary, 0, len(d.Ancestors)),
		Children:      make([]CategorySummary, 0, len(d.Children)),
		Channel:       l.channel(d.Channel.Name()),
	}
	if doc.Subcategories == nil {
		doc.Subcategories = []string{}
	}
	for _, a := range d.Ancestors {
		doc.Ancestors = append(doc.Ancestors, l.categorySummary(a, d.Channel))
	}
	for _, c := range d.Children {
		doc.Children = append(doc.Children, l.categorySummary(c, d.Channel))
	}
	return doc
}
