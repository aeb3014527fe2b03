package model

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Faultbox/modelview/internal/engine/importer"
	"github.com/Faultbox/modelview/internal/engine/mesh"
)

// ErrInvalidSlot is returned by ParseSlots for unknown kind or slot names.
var ErrInvalidSlot = errors.New("invalid texture slot mapping")

// Slot maps a texture kind to the importer material slot it is read from.
type Slot struct {
	Kind   mesh.Kind
	Source importer.TextureType
}

// SlotTable lists the slots resolved for each material, in order.
type SlotTable []Slot

// DefaultSlots keeps the conventional mapping where normal maps are read
// from the height slot and height maps from the ambient slot.
func DefaultSlots() SlotTable {
	return SlotTable{
		{Kind: mesh.KindDiffuse, Source: importer.TextureDiffuse},
		{Kind: mesh.KindSpecular, Source: importer.TextureSpecular},
		{Kind: mesh.KindNormal, Source: importer.TextureHeight},
		{Kind: mesh.KindHeight, Source: importer.TextureAmbient},
	}
}

// ParseSlots overrides entries of the default table from kind name to
// importer slot name, e.g. {"normal": "normals"}. Kind order is unchanged.
func ParseSlots(overrides map[string]string) (SlotTable, error) {
	table := DefaultSlots()

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, name := range keys {
		kind, ok := mesh.ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidSlot, name)
		}
		src, err := importer.ParseTextureType(overrides[name])
		if err != nil {
			return nil, fmt.Errorf("%w: kind %s: %v", ErrInvalidSlot, name, err)
		}
		for i := range table {
			if table[i].Kind == kind {
				table[i].Source = src
			}
		}
	}
	return table, nil
}

// String renders the table as "diffuse<-diffuse, ...".
func (t SlotTable) String() string {
	s := ""
	for i, slot := range t {
		if i > 0 {
			s += ", "
		}
		s += slot.Kind.String() + "<-" + slot.Source.String()
	}
	return s
}
