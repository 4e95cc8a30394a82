package store

import "CandleWatch/internal/model"

// NoopStore is used when persistence is disabled.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) Load() (model.Selection, bool, error) { return model.Selection{}, false, nil }
func (n *NoopStore) Save(_ model.Selection) error           { return nil }
func (n *NoopStore) Close() error                           { return nil }
