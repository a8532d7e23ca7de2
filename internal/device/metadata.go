package device

import (
	"maps"
	"slices"
)

// GetMetadata returns the value stored under key.
func (d *Device) GetMetadata(key string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.metadata[key]
	return v, ok
}

// SetMetadata stores val under key and returns true if key is new.
func (d *Device) SetMetadata(key, val string) bool {
	var added bool
	d.update(func() change {
		_, exists := d.metadata[key]
		added = !exists
		d.metadata[key] = val
		return changeMetadata
	})
	return added
}

// ClearMetadataValues blanks every value but keeps the keys.
func (d *Device) ClearMetadataValues() {
	d.update(func() change {
		for key := range d.metadata {
			d.metadata[key] = ""
		}
		return changeMetadata
	})
}

// ClearAllMetadata removes every key.
func (d *Device) ClearAllMetadata() {
	d.update(func() change {
		clear(d.metadata)
		return changeMetadata
	})
}

// NumMetadataKeys returns the number of metadata keys.
func (d *Device) NumMetadataKeys() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.metadata)
}

// MetadataKeys returns the metadata keys in sorted order.
func (d *Device) MetadataKeys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Sorted(maps.Keys(d.metadata))
}

// Metadata returns a copy of the metadata table.
func (d *Device) Metadata() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return maps.Clone(d.metadata)
}
