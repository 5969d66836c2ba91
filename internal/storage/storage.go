package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/keshon/datastore"
)

const libraryKey = "playlist_library"

var (
	ErrAlreadyExists   = errors.New("playlist already exists")
	ErrNotFound        = errors.New("not found")
	ErrInvalidPosition = errors.New("invalid position")
)

// Storage is the durable playlist store. The whole library lives in a single
// datastore record and is rewritten atomically on every mutation. All
// read-modify-write sequences are serialized behind one mutex; playlist
// traffic is not latency-critical.
type Storage struct {
	mu sync.Mutex
	ds *datastore.DataStore
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// getOrCreateLibrary loads the library record, initializing an empty one on
// first use. The datastore hands back generic maps after a reload, so the
// value is round-tripped through JSON into the typed form.
func (s *Storage) getOrCreateLibrary() (*library, error) {
	data, exists := s.ds.Get(libraryKey)
	if !exists {
		lib := newLibrary()
		s.ds.Add(libraryKey, lib)
		return lib, nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error marshalling library: %w", err)
	}

	var lib library
	if err := json.Unmarshal(jsonData, &lib); err != nil {
		return nil, fmt.Errorf("error unmarshalling library: %w", err)
	}

	if lib.Songs == nil {
		lib.Songs = map[string][]Song{}
	}
	if lib.NextID < 1 {
		lib.NextID = 1
	}

	return &lib, nil
}

// save stores the mutated library and persists the whole document before
// returning. On persist failure the in-memory mutation stands; the caller
// sees the error (known at-most-once risk, the write itself is
// temp-file-then-rename inside the datastore).
func (s *Storage) save(lib *library) error {
	s.ds.Add(libraryKey, lib)
	return s.ds.SaveToFile()
}
