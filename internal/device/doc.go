// Package device provides the device store for lumicore.
//
// A Device is one controllable fixture: an identity, a transport channel, a
// fixture type tag, a set of named typed parameters (see package param) and a
// table of free-form text metadata. Devices announce committed changes to
// subscribers and round-trip losslessly through a JSON document.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────────────────┐
//	│                              Device Store                                │
//	│                                                                          │
//	│  ┌──────────────────┐    ┌──────────────────┐    ┌──────────────────┐   │
//	│  │      Device      │    │      Codec       │    │   Notification   │   │
//	│  │   (device.go,    │───▶│    (codec.go)    │    │   (notify.go)    │   │
//	│  │    metadata.go)  │    │                  │    │                  │   │
//	│  │ • Param cells    │    │ • ToJSON/String  │    │ • Ordered subs   │   │
//	│  │ • Metadata       │    │ • NewFromJSON    │    │ • Monotonic      │   │
//	│  │ • Locking        │    │ • LoadDocument   │    │   handles        │   │
//	│  └──────────────────┘    └──────────────────┘    └──────────────────┘   │
//	│           │                                                              │
//	│           ▼                                                              │
//	│  ┌──────────────────┐    ┌──────────────────┐    ┌──────────────────┐   │
//	│  │     Registry     │───▶│    Repository    │    │     History      │   │
//	│  │  (registry.go)   │    │ (repository.go)  │    │ (history*.go)    │   │
//	│  │ • Live devices   │    │ • SQLite devices │    │ • SQLite         │   │
//	│  │ • Persist on     │    │   table          │    │   param_history  │   │
//	│  │   change         │    │                  │    │                  │   │
//	│  └──────────────────┘    └──────────────────┘    └──────────────────┘   │
//	└─────────────────────────────────────────────────────────────────────────┘
//
// # Setting parameters
//
// There are three ways to set a parameter and they deliberately differ:
//
//   - SetParam(name, value) replaces the cell with a copy of value, of any kind.
//   - SetScalar(name, x) creates a Scalar if name is absent, otherwise changes
//     only the current value of the existing Scalar.
//   - SetEnum(name, key, tweak...) only works on an existing Enum and never
//     creates one.
//
// SetParam and SetScalar return true when name already existed. SetEnum
// returns true when it changed the enum.
//
// # Notifications
//
// Parameter and metadata changes go to two independent subscriber lists.
// Delivery is synchronous, on the mutating goroutine, after the change is
// committed and in the order subscribers registered. Reset sends exactly one
// parameter and one metadata notification.
//
// A subscriber may read the device it is notified about. It must never call a
// mutating method of that device from inside the callback: the call blocks
// forever.
//
// # Usage
//
//	dev := device.New("dev1", 5, "ERS")
//	h := dev.OnParamsChanged(func(d *device.Device) {
//	    level, _ := d.GetScalar("intensity")
//	    log.Info("intensity changed", "level", level)
//	})
//	defer dev.RemoveParamsHandler(h)
//
//	dev.SetScalar("intensity", 0.5)
//	doc, _ := dev.ToJSON()
//
//	// Registry with SQLite persistence
//	repo := device.NewSQLiteRepository(db.DB)
//	registry := device.NewRegistry(repo)
//	registry.SetLogger(log)
//	if err := registry.Load(ctx); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// Device, Registry and the SQLite repositories are safe for concurrent use.
// Reads of one device run concurrently; mutations of one device are
// serialised together with their notification delivery.
package device
