package fallback

import (
	"sync"

	"PhoneSync/internal/domain"
)

// StaticTable holds curated fallback records for well-known phones,
// keyed by lower-cased "brand-model". Entries may be added at runtime.
type StaticTable struct {
	mu      sync.RWMutex
	entries map[string]domain.Phone
}

// NewStaticTable seeds the table with a handful of well-known phones.
func NewStaticTable() *StaticTable {
	t := &StaticTable{entries: map[string]domain.Phone{}}
	for _, phone := range seedPhones() {
		t.Add(phone)
	}
	return t
}

// Add inserts or replaces one curated record.
func (t *StaticTable) Add(phone domain.Phone) {
	key := Key{Brand: phone.Brand, Model: phone.Model}.String()
	t.mu.Lock()
	t.entries[key] = phone
	t.mu.Unlock()
}

// Lookup returns a copy of the curated record for the key.
func (t *StaticTable) Lookup(key Key) (*domain.Phone, bool) {
	t.mu.RLock()
	phone, ok := t.entries[key.String()]
	t.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return &phone, true
}

// Len reports how many curated records the table holds.
func (t *StaticTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

func seedPhones() []domain.Phone {
	return []domain.Phone{
		{
			Brand: "Apple", Model: "iPhone 15", Active: true,
			Specs: domain.PhoneSpecifications{
				Display: "6.1-inch Super Retina XDR", Processor: "A16 Bionic",
				RAM: "6GB", Storage: "128GB", Battery: "3349mAh", OS: "iOS 17",
				RearCamera:  domain.CameraSpec{Megapixels: 48, Aperture: "f/1.6"},
				FrontCamera: domain.CameraSpec{Megapixels: 12, Aperture: "f/1.9"},
				Network:     "5G", Weight: "171g",
			},
		},
		{
			Brand: "Samsung", Model: "Galaxy S24", Active: true,
			Specs: domain.PhoneSpecifications{
				Display: "6.2-inch Dynamic AMOLED 2X", Processor: "Exynos 2400",
				RAM: "8GB", Storage: "256GB", Battery: "4000mAh", OS: "Android 14",
				RearCamera:  domain.CameraSpec{Megapixels: 50, Aperture: "f/1.8"},
				FrontCamera: domain.CameraSpec{Megapixels: 12, Aperture: "f/2.2"},
				Network:     "5G", Weight: "167g",
			},
		},
		{
			Brand: "OnePlus", Model: "12", Active: true,
			Specs: domain.PhoneSpecifications{
				Display: "6.82-inch LTPO AMOLED", Processor: "Snapdragon 8 Gen 3",
				RAM: "12GB", Storage: "256GB", Battery: "5400mAh", OS: "OxygenOS 14",
				RearCamera:  domain.CameraSpec{Megapixels: 50, Aperture: "f/1.6"},
				FrontCamera: domain.CameraSpec{Megapixels: 32, Aperture: "f/2.4"},
				Network:     "5G", Weight: "220g",
			},
		},
		{
			Brand: "Xiaomi", Model: "14", Active: true,
			Specs: domain.PhoneSpecifications{
				Display: "6.36-inch LTPO OLED", Processor: "Snapdragon 8 Gen 3",
				RAM: "12GB", Storage: "256GB", Battery: "4610mAh", OS: "HyperOS",
				RearCamera:  domain.CameraSpec{Megapixels: 50, Aperture: "f/1.6"},
				FrontCamera: domain.CameraSpec{Megapixels: 32, Aperture: "f/2.0"},
				Network:     "5G", Weight: "193g",
			},
		},
	}
}
