// Package deployedrange implements the Deployed Range entity and store
// (§3/§4.5): the materialized, provisioned counterpart of a blueprint
// Range, carrying the captured state_blob and the jumpbox's wrapped
// private key.
package deployedrange

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/openlabshq/rangeapi/pkg/blueprint"
)

// State is a Deployed Range's lifecycle, mirroring the deployed_ranges
// table's state CHECK constraint.
type State string

const (
	StateNone         State = "NONE"
	StateSynthesizing State = "SYNTHESIZING"
	StateApplying     State = "APPLYING"
	StateOn           State = "ON"
	StateDestroying   State = "DESTROYING"
	StateFailed       State = "FAILED"
)

// Range is a deployed range row.
type Range struct {
	ID                     uuid.UUID
	OwnerID                uuid.UUID
	BlueprintRangeID       *uuid.UUID
	Name                   string
	Provider               blueprint.Provider
	Region                 string
	VNC                    bool
	VPN                    bool
	TopologySnapshot       json.RawMessage
	ProviderResourceIDs    json.RawMessage
	StateBlob              []byte
	EncryptedPrivateSSHKey []byte
	State                  State
	DeployedAt             *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Header is the list-view projection returned by GET /ranges — no
// topology snapshot, state blob, or SSH key.
type Header struct {
	ID         uuid.UUID          `json:"id"`
	Name       string             `json:"name"`
	Provider   blueprint.Provider `json:"provider"`
	Region     string             `json:"region"`
	VNC        bool               `json:"vnc"`
	VPN        bool               `json:"vpn"`
	State      State              `json:"state"`
	DeployedAt *time.Time         `json:"deployed_at,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// ToHeader projects a Range to its list-view DTO.
func (r *Range) ToHeader() Header {
	return Header{
		ID:         r.ID,
		Name:       r.Name,
		Provider:   r.Provider,
		Region:     r.Region,
		VNC:        r.VNC,
		VPN:        r.VPN,
		State:      r.State,
		DeployedAt: r.DeployedAt,
		CreatedAt:  r.CreatedAt,
	}
}

// Detail is the full single-range DTO returned by GET /ranges/{id}. The
// state blob and SSH key stay server-side; GET /ranges/{id}/key is the
// only endpoint that surfaces the private key (§6).
type Detail struct {
	Header
	BlueprintRangeID    *uuid.UUID         `json:"blueprint_range_id,omitempty"`
	TopologySnapshot    json.RawMessage    `json:"topology_snapshot"`
	ProviderResourceIDs json.RawMessage    `json:"provider_resource_ids"`
}

// ToDetail projects a Range to its single-resource DTO.
func (r *Range) ToDetail() Detail {
	return Detail{
		Header:              r.ToHeader(),
		BlueprintRangeID:    r.BlueprintRangeID,
		TopologySnapshot:    r.TopologySnapshot,
		ProviderResourceIDs: r.ProviderResourceIDs,
	}
}
