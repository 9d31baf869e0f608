// Package directory holds the fixed catalog of stores (lojas) that tickets
// are opened against.
package directory

import "fmt"

type Store struct {
	ID   int    `json:"id"`
	Name string `json:"nome"`
}

// Directory is an immutable store id → display name table.
type Directory struct {
	stores []Store
	byID   map[int]string
}

// New builds a directory from stores. Later duplicates of an id are ignored.
func New(stores []Store) *Directory {
	d := &Directory{byID: make(map[int]string, len(stores))}
	for _, s := range stores {
		if _, dup := d.byID[s.ID]; dup {
			continue
		}
		d.byID[s.ID] = s.Name
		d.stores = append(d.stores, s)
	}
	return d
}

// Default returns the catalog of stores in operation.
func Default() *Directory {
	return New([]Store{
		{ID: 1, Name: "LOJA 01"},
		{ID: 2, Name: "LOJA 03"},
		{ID: 3, Name: "LOJA 06"},
		{ID: 4, Name: "LOJA 09"},
		{ID: 5, Name: "LOJA 10"},
		{ID: 6, Name: "LOJA 11"},
		{ID: 7, Name: "LOJA 12"},
		{ID: 8, Name: "LOJA 14"},
	})
}

func (d *Directory) Lookup(id int) (string, bool) {
	name, ok := d.byID[id]
	return name, ok
}

// Label returns the display name for id, or "Loja <id>" for unknown stores.
func (d *Directory) Label(id int) string {
	if name, ok := d.Lookup(id); ok {
		return name
	}
	return fmt.Sprintf("Loja %d", id)
}

// All returns a copy of the catalog in declaration order.
func (d *Directory) All() []Store {
	out := make([]Store, len(d.stores))
	copy(out, d.stores)
	return out
}
