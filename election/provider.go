package election

import (
	"strings"

	"github.com/google/uuid"
)

// Provider manufactures election services over one shared lease store.
// It holds only configuration; every call to Election returns a fresh
// Service. Safe for concurrent use.
type Provider struct {
	store LeaseStore
	opts  Options
}

// NewProvider creates a provider with DefaultOptions.
func NewProvider(store LeaseStore) (*Provider, error) {
	return NewProviderWithOptions(store, DefaultOptions())
}

// NewProviderWithOptions creates a provider whose services share opts.
func NewProviderWithOptions(store LeaseStore, opts Options) (*Provider, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Provider{store: store, opts: opts}, nil
}

// Election returns a new service campaigning in the named election on
// behalf of participant. Blank names are rejected.
func (p *Provider) Election(name, participant string) (*Service, error) {
	return NewServiceWithOptions(p.store, name, participant, p.opts)
}

// NewParticipantID composes a unique participant identity from an
// optional prefix, typically a host or process name.
func NewParticipantID(prefix string) string {
	id := uuid.NewString()
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}
