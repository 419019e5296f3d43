// Package record defines the deployment record, the single source of truth
// for a DataDAO project's configuration and deployment progress.
//
// The record is persisted as a YAML document and rewritten as a whole after
// each stage. Completion of a stage is judged by data presence, not by a bare
// flag: a stage counts as complete only when its id is in CompletedStages AND
// every field it is documented to produce is actually present on the record.
//
// Key types:
//   - [Record] is the persisted document
//   - [StageError] is the most recent stage failure, cleared on the next success
//
// Use [Load] and [Save] for persistence; both go through structural validation
// and an atomic temp-file replace so a crash never leaves a half-written record.
package record

import (
	"strconv"
	"strings"
	"time"
)

// StageError describes the most recent stage failure.
//
// It is set by the stage executor when an external operation fails and
// cleared on the next successful stage. The failing stage is never added
// to CompletedStages, so it remains eligible for retry.
type StageError struct {
	// Stage is the id of the stage that failed.
	Stage string `yaml:"stage"`

	// Message is the failure description as reported by the operation.
	Message string `yaml:"message"`

	// Timestamp is when the failure was recorded.
	Timestamp time.Time `yaml:"timestamp"`
}

// Record is the persisted deployment record for one DataDAO project.
//
// Name and OwnerAddress are immutable once created. Credentials are opaque
// to the rest of the system: they are stored and forwarded, never
// interpreted. All other fields are populated exclusively by the stage
// executor, one stage at a time.
type Record struct {
	// Name is the project/DAO name.
	Name string `yaml:"name"`

	// OwnerAddress is the chain address controlling the deployment.
	OwnerAddress string `yaml:"owner_address"`

	// Credentials holds third-party API keys and secrets, opaque to the core.
	Credentials map[string]string `yaml:"credentials,omitempty"`

	// ContractAddresses maps contract names (token, proxy, vesting) to
	// deployed addresses. Populated by the contract-deployment stage.
	ContractAddresses map[string]string `yaml:"contract_addresses,omitempty"`

	// OnChainID is the registry id assigned by the registration stage.
	// Nil until registration has completed.
	OnChainID *int64 `yaml:"on_chain_id,omitempty"`

	// Keys holds derived secrets and artifact locations obtained from
	// on-chain calls and publish steps (encryption key, proof URL, ...).
	Keys map[string]string `yaml:"keys,omitempty"`

	// CompletedStages lists the ids of stages that have durably completed,
	// in completion order. The list only ever grows.
	CompletedStages []string `yaml:"completed_stages,omitempty"`

	// LastError is the most recent stage failure, nil after a success.
	LastError *StageError `yaml:"last_error,omitempty"`
}

// New creates an empty record carrying only the fields known before any
// stage has run. Name and owner address are produced by the create stage.
func New(credentials map[string]string) *Record {
	return &Record{
		Credentials: credentials,
	}
}

// Completed reports whether the stage id is present in CompletedStages.
func (r *Record) Completed(id string) bool {
	for _, s := range r.CompletedStages {
		if s == id {
			return true
		}
	}
	return false
}

// MarkCompleted appends the stage id to CompletedStages if absent.
func (r *Record) MarkCompleted(id string) {
	if r.Completed(id) {
		return
	}
	r.CompletedStages = append(r.CompletedStages, id)
}

// Clone returns a deep copy of the record.
//
// The executor merges operation results into a clone so that a failure at
// any point leaves the caller's record untouched.
func (r *Record) Clone() *Record {
	c := &Record{
		Name:         r.Name,
		OwnerAddress: r.OwnerAddress,
	}
	if r.Credentials != nil {
		c.Credentials = make(map[string]string, len(r.Credentials))
		for k, v := range r.Credentials {
			c.Credentials[k] = v
		}
	}
	if r.ContractAddresses != nil {
		c.ContractAddresses = make(map[string]string, len(r.ContractAddresses))
		for k, v := range r.ContractAddresses {
			c.ContractAddresses[k] = v
		}
	}
	if r.OnChainID != nil {
		id := *r.OnChainID
		c.OnChainID = &id
	}
	if r.Keys != nil {
		c.Keys = make(map[string]string, len(r.Keys))
		for k, v := range r.Keys {
			c.Keys[k] = v
		}
	}
	if r.CompletedStages != nil {
		c.CompletedStages = append([]string(nil), r.CompletedStages...)
	}
	if r.LastError != nil {
		e := *r.LastError
		c.LastError = &e
	}
	return c
}

// Field resolves a field path on the record and reports whether it holds a
// non-null value.
//
// Supported paths are the scalar fields ("name", "ownerAddress",
// "onChainId") and dotted map entries ("contractAddresses.proxy",
// "keys.encryptionKey", "credentials.pinataApiKey"). An empty string and a
// missing map entry both count as absent.
func (r *Record) Field(path string) (any, bool) {
	switch path {
	case "name":
		if r.Name == "" {
			return nil, false
		}
		return r.Name, true
	case "ownerAddress":
		if r.OwnerAddress == "" {
			return nil, false
		}
		return r.OwnerAddress, true
	case "onChainId":
		if r.OnChainID == nil {
			return nil, false
		}
		return *r.OnChainID, true
	}

	prefix, key, ok := strings.Cut(path, ".")
	if !ok || key == "" {
		return nil, false
	}
	var m map[string]string
	switch prefix {
	case "contractAddresses":
		m = r.ContractAddresses
	case "keys":
		m = r.Keys
	case "credentials":
		m = r.Credentials
	default:
		return nil, false
	}
	v, ok := m[key]
	if !ok || v == "" {
		return nil, false
	}
	return v, true
}

// SetField assigns a value to a field path.
//
// Values for map-backed paths and the scalar string fields must be strings;
// onChainId accepts int64, int, or a decimal string. A value of the wrong
// type or an unknown path returns a [FieldError] and leaves the record
// unchanged.
func (r *Record) SetField(path string, value any) error {
	switch path {
	case "name":
		s, ok := value.(string)
		if !ok || s == "" {
			return &FieldError{Path: path, Value: value}
		}
		r.Name = s
		return nil
	case "ownerAddress":
		s, ok := value.(string)
		if !ok || s == "" {
			return &FieldError{Path: path, Value: value}
		}
		r.OwnerAddress = s
		return nil
	case "onChainId":
		id, ok := toInt64(value)
		if !ok {
			return &FieldError{Path: path, Value: value}
		}
		r.OnChainID = &id
		return nil
	}

	prefix, key, ok := strings.Cut(path, ".")
	if !ok || key == "" {
		return &FieldError{Path: path, Value: value}
	}
	s, okStr := value.(string)
	if !okStr || s == "" {
		return &FieldError{Path: path, Value: value}
	}
	switch prefix {
	case "contractAddresses":
		if r.ContractAddresses == nil {
			r.ContractAddresses = make(map[string]string)
		}
		r.ContractAddresses[key] = s
	case "keys":
		if r.Keys == nil {
			r.Keys = make(map[string]string)
		}
		r.Keys[key] = s
	case "credentials":
		if r.Credentials == nil {
			r.Credentials = make(map[string]string)
		}
		r.Credentials[key] = s
	default:
		return &FieldError{Path: path, Value: value}
	}
	return nil
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	}
	return 0, false
}
