// Package appender places uploaded files into the file container of a form,
// in the order the parts were received, before their content is known to be
// valid.
package appender

import (
	"fmt"
	"slices"

	// Packages
	schema "github.com/mutablelogic/go-upload/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Placeholder identifies a slot reserved by InsertPlaceholder
type Placeholder int

// Appender owns the file container of a form. Slots are kept in an arena so
// that a placeholder keeps its position while its content is replaced. The
// container on the form is rebuilt from the arena by Form.
// An Appender is not safe for concurrent use.
type Appender struct {
	strategy schema.Strategy
	form     *schema.Form
	arena    []*schema.File
	order    []Placeholder
	byField  map[string][]Placeholder
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns an appender for a strategy which populates form
func New(strategy schema.Strategy, form *schema.Form) (*Appender, error) {
	if !strategy.Valid() {
		return nil, fmt.Errorf("unknown file strategy: %v", strategy)
	}
	self := &Appender{
		strategy: strategy,
		form:     form,
	}
	form.Strategy = strategy
	if strategy == schema.StrategyObject {
		self.byField = make(map[string][]Placeholder)
	}
	self.sync()
	return self, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// InsertPlaceholder reserves a slot for a file part on field and returns
// its identity
func (a *Appender) InsertPlaceholder(field string) Placeholder {
	id := Placeholder(len(a.arena))
	a.arena = append(a.arena, schema.NewPlaceholder(field))

	switch a.strategy {
	case schema.StrategyArray:
		a.order = append(a.order, id)
	case schema.StrategyObject:
		a.byField[field] = append(a.byField[field], id)
	}

	return id
}

// RemovePlaceholder removes the slot from the container. A field left
// without files is removed from a grouped container.
func (a *Appender) RemovePlaceholder(id Placeholder) {
	file := a.get(id)
	if file == nil {
		return
	}

	switch a.strategy {
	case schema.StrategyArray:
		a.order = remove(a.order, id)
	case schema.StrategyObject:
		if ids := remove(a.byField[file.FieldName], id); len(ids) == 0 {
			delete(a.byField, file.FieldName)
		} else {
			a.byField[file.FieldName] = ids
		}
	}

	a.arena[id] = nil
}

// ReplacePlaceholder promotes the slot to a full file record. For the
// single-value strategy the record becomes the form's file.
func (a *Appender) ReplacePlaceholder(id Placeholder, file *schema.File) {
	if a.strategy == schema.StrategyValue {
		a.form.File = file
		return
	}
	if a.get(id) == nil {
		return
	}
	a.arena[id] = file
}

// Form materializes the file container and returns the form
func (a *Appender) Form() *schema.Form {
	a.sync()
	return a.form
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (a *Appender) get(id Placeholder) *schema.File {
	if id < 0 || int(id) >= len(a.arena) {
		return nil
	}
	return a.arena[id]
}

// sync materializes the container on the form from the arena
func (a *Appender) sync() {
	switch a.strategy {
	case schema.StrategyArray:
		files := make([]*schema.File, 0, len(a.order))
		for _, id := range a.order {
			files = append(files, a.arena[id])
		}
		a.form.Files = files
	case schema.StrategyObject:
		fields := make(map[string][]*schema.File, len(a.byField))
		for name, ids := range a.byField {
			files := make([]*schema.File, 0, len(ids))
			for _, id := range ids {
				files = append(files, a.arena[id])
			}
			fields[name] = files
		}
		a.form.FieldFiles = fields
	}
}

func remove(ids []Placeholder, id Placeholder) []Placeholder {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1)
	}
	return ids
}
