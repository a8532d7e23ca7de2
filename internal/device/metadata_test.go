package device

import (
	"slices"
	"testing"
)

func TestSetMetadata(t *testing.T) {
	d := New("dev1", 1, "spot")

	if !d.SetMetadata("label", "SL1") {
		t.Error("SetMetadata() on new key = false")
	}
	if d.SetMetadata("label", "SL2") {
		t.Error("SetMetadata() on existing key = true")
	}
	if v, ok := d.GetMetadata("label"); !ok || v != "SL2" {
		t.Errorf("GetMetadata() = %q, %v", v, ok)
	}
	if _, ok := d.GetMetadata("missing"); ok {
		t.Error("GetMetadata(missing) ok = true")
	}
}

func TestClearMetadataValuesKeepsKeys(t *testing.T) {
	d := New("dev1", 1, "spot")
	d.SetMetadata("label", "SL1")
	d.SetMetadata("gel", "R80")
	subs := &countingSubscriber{}
	d.OnMetadataChanged(subs.fn)

	d.ClearMetadataValues()

	if got := d.MetadataKeys(); !slices.Equal(got, []string{"gel", "label"}) {
		t.Errorf("MetadataKeys() = %v", got)
	}
	for _, key := range d.MetadataKeys() {
		if v, _ := d.GetMetadata(key); v != "" {
			t.Errorf("%s = %q, want empty", key, v)
		}
	}
	if subs.count() != 1 {
		t.Errorf("notifications = %d, want 1", subs.count())
	}
}

func TestClearAllMetadata(t *testing.T) {
	d := New("dev1", 1, "spot")
	d.SetMetadata("label", "SL1")
	d.SetMetadata("gel", "R80")
	subs := &countingSubscriber{}
	d.OnMetadataChanged(subs.fn)

	d.ClearAllMetadata()

	if d.NumMetadataKeys() != 0 {
		t.Errorf("NumMetadataKeys() = %d, want 0", d.NumMetadataKeys())
	}
	if subs.count() != 1 {
		t.Errorf("notifications = %d, want 1", subs.count())
	}
	if !d.SetMetadata("label", "again") {
		t.Error("key should be new after ClearAllMetadata")
	}
}

func TestMetadataReturnsCopy(t *testing.T) {
	d := New("dev1", 1, "spot")
	d.SetMetadata("label", "SL1")

	md := d.Metadata()
	md["label"] = "changed"

	if v, _ := d.GetMetadata("label"); v != "SL1" {
		t.Errorf("label = %q, want SL1", v)
	}
}
