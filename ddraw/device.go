package ddraw

import (
	"sync"

	"github.com/0xrawsec/golang-utils/datastructs"
)

// DeviceRecord is one display device seen during enumeration. Records are
// identified by GUID only, Name and Description are metadata updated on every
// rediscovery.
type DeviceRecord struct {
	GUID         GUID
	Name         string
	Description  string
	AdapterIndex uint32
}

// DeviceCache is the append-only set of devices seen by the enumerator, in
// first-discovery order. It maps legacy device GUIDs to adapter indexes and
// back, for the lifetime of the engine.
type DeviceCache struct {
	mu      sync.RWMutex
	records []DeviceRecord
	index   *datastructs.Set // of GUID
}

func NewDeviceCache() *DeviceCache {
	return &DeviceCache{
		records: make([]DeviceRecord, 0, 4),
		index:   datastructs.NewInitSet(),
	}
}

// Store inserts r, or updates the metadata and adapter index of the record
// with the same GUID.
func (c *DeviceCache) Store(r DeviceRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.storeLocked(r)
}

func (c *DeviceCache) storeLocked(r DeviceRecord) {
	if c.index.Contains(r.GUID) {
		for i := range c.records {
			if c.records[i].GUID == r.GUID {
				c.records[i].Name = r.Name
				c.records[i].Description = r.Description
				c.records[i].AdapterIndex = r.AdapterIndex
				return
			}
		}
	}
	c.records = append(c.records, r)
	c.index.Add(r.GUID)
}

// FindGUID returns the GUID already assigned to the (name, description) pair.
func (c *DeviceCache) FindGUID(name, description string) (GUID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.findGUIDLocked(name, description)
}

func (c *DeviceCache) findGUIDLocked(name, description string) (GUID, bool) {
	for _, r := range c.records {
		if r.Name == name && r.Description == description {
			return r.GUID, true
		}
	}
	return GUID{}, false
}

// Contains reports whether g is assigned to a cached device.
func (c *DeviceCache) Contains(g GUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.Contains(g)
}

// AdapterIndex returns the adapter recorded for g. A nil or unknown GUID is
// the default adapter.
func (c *DeviceCache) AdapterIndex(g *GUID) uint32 {
	if g == nil {
		return D3DADAPTER_DEFAULT
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.index.Contains(*g) {
		return D3DADAPTER_DEFAULT
	}
	for _, r := range c.records {
		if r.GUID == *g {
			return r.AdapterIndex
		}
	}
	return D3DADAPTER_DEFAULT
}

// Assign returns the GUID of the adapter (name, description) reporting native
// as its device identifier and records it under adapter. A known pair keeps
// its GUID. A new pair reuses native unless it equals previous, the identifier
// of the adapter enumerated just before, or a GUID already held by another
// device; then Data1 is incremented until it is unique in the cache.
func (c *DeviceCache) Assign(name, description string, native, previous GUID, adapter uint32) GUID {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.findGUIDLocked(name, description)
	if !ok {
		g = native
		for g == previous || c.index.Contains(g) {
			g.Data1++
		}
	}
	c.storeLocked(DeviceRecord{
		GUID:         g,
		Name:         name,
		Description:  description,
		AdapterIndex: adapter,
	})
	return g
}

// Records returns a copy of the cached devices in discovery order.
func (c *DeviceCache) Records() []DeviceRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]DeviceRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of cached devices.
func (c *DeviceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.Len()
}
