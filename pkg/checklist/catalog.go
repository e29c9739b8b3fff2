package checklist

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"document-hub-be/internal/pkg/apperror"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Item is one required document type.
type Item struct {
	ID    int    `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Icon  string `yaml:"icon,omitempty" json:"icon,omitempty"`
}

// Title is the "{id} - {label}" form shown in the checklist and matched by Filter.
func (i Item) Title() string {
	return fmt.Sprintf("%d - %s", i.ID, i.Label)
}

// Catalog is the fixed, ordered checklist. It has no mutation operations.
type Catalog struct {
	items []Item
	index map[int]int
}

type catalogFile struct {
	Items []Item `yaml:"items"`
}

// New validates items and builds a Catalog. Ids must be positive and unique.
func New(items []Item) (*Catalog, error) {
	const op = "checklist.New"

	if len(items) == 0 {
		return nil, apperror.Configuration(op, "catalog has no items")
	}

	c := &Catalog{
		items: make([]Item, 0, len(items)),
		index: make(map[int]int, len(items)),
	}
	for pos, item := range items {
		if item.ID <= 0 {
			return nil, apperror.Configuration(op, fmt.Sprintf("item #%d has non-positive id %d", pos+1, item.ID))
		}
		if strings.TrimSpace(item.Label) == "" {
			return nil, apperror.Configuration(op, fmt.Sprintf("item %d has an empty label", item.ID))
		}
		if prev, dup := c.index[item.ID]; dup {
			return nil, apperror.Configuration(op, fmt.Sprintf(
				"duplicate id %d (%q and %q)", item.ID, c.items[prev].Label, item.Label))
		}
		c.index[item.ID] = len(c.items)
		c.items = append(c.items, item)
	}
	return c, nil
}

// Load parses a YAML catalog document.
func Load(r io.Reader) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, apperror.Wrap(apperror.KindConfiguration, "checklist.Load", err)
	}
	return New(file.Items)
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindConfiguration, "checklist.LoadFile", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the embedded loan-closing catalog.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// List returns the items in catalog order. The slice is a copy.
func (c *Catalog) List() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Get(id int) (Item, bool) {
	pos, ok := c.index[id]
	if !ok {
		return Item{}, false
	}
	return c.items[pos], true
}

func (c *Catalog) Contains(id int) bool {
	_, ok := c.index[id]
	return ok
}

func (c *Catalog) Len() int {
	return len(c.items)
}
