package store

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture is a set of records to seed a store with.
//
//	transactions:
//	  - txid: a1
//	    type: recv_with_address
//	    confirmations: 12
//	    time: 1700000000
//	    address: SaBc
//	    amount: 150000000
//	addresses:
//	  - address: SaBc
//	    type: R
//	    label: savings
//	messages:
//	  - key: m1
//	    type: Received
//	    body: hello
type Fixture struct {
	Transactions []Transaction `yaml:"transactions,omitempty"`
	Addresses    []Address     `yaml:"addresses,omitempty"`
	Messages     []Message     `yaml:"messages,omitempty"`
}

// LoadFixture reads a YAML fixture file. Unknown fields are rejected.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes a YAML fixture. Unknown fields are rejected.
func ParseFixture(data []byte) (Fixture, error) {
	var fx Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fx); err != nil {
		return Fixture{}, fmt.Errorf("failed to parse fixture: %w", err)
	}
	return fx, nil
}

// Len returns the number of records in the fixture.
func (fx Fixture) Len() int {
	return len(fx.Transactions) + len(fx.Addresses) + len(fx.Messages)
}

// Seed writes every fixture record inside a bulk load, so subscribers see
// one FullReset per collection instead of a notification per row.
func (s *Store) Seed(ctx context.Context, fx Fixture) error {
	s.SetBulkLoading(true)
	defer s.SetBulkLoading(false)

	if err := s.Apply(ctx, fx); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

// Apply writes every fixture record, notifying per row.
// Addresses are written first so transactions and messages pick up labels.
func (s *Store) Apply(ctx context.Context, fx Fixture) error {
	for _, a := range fx.Addresses {
		if err := s.PutAddress(ctx, a); err != nil {
			return err
		}
	}
	for _, tx := range fx.Transactions {
		if err := s.PutTransaction(ctx, tx); err != nil {
			return err
		}
	}
	for _, m := range fx.Messages {
		if err := s.PutMessage(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
