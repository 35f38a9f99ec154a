package blueprint

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists blueprint graphs. Writes run inside a transaction so a
// Range and its whole VPC/subnet/host tree either all commit or none do.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a blueprint Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const rangeColumns = `id, owner_id, name, provider, region, vnc, vpn, created_at, updated_at`

func scanRange(row pgx.Row) (Range, error) {
	var r Range
	err := row.Scan(&r.ID, &r.OwnerID, &r.Name, &r.Provider, &r.Region, &r.VNC, &r.VPN, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

const vpcColumns = `id, owner_id, parent_range_id, name, cidr, created_at, updated_at`

func scanVPC(row pgx.Row) (VPC, error) {
	var v VPC
	err := row.Scan(&v.ID, &v.OwnerID, &v.ParentRangeID, &v.Name, &v.CIDR, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

const subnetColumns = `id, owner_id, parent_vpc_id, name, cidr, created_at, updated_at`

func scanSubnet(row pgx.Row) (Subnet, error) {
	var s Subnet
	err := row.Scan(&s.ID, &s.OwnerID, &s.ParentVPCID, &s.Name, &s.CIDR, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

const hostColumns = `id, owner_id, parent_subnet_id, hostname, os, spec, disk_size_gb, tags, created_at, updated_at`

func scanHost(row pgx.Row) (Host, error) {
	var h Host
	err := row.Scan(&h.ID, &h.OwnerID, &h.ParentSubnetID, &h.Hostname, &h.OS, &h.Spec, &h.DiskSizeGB, &h.Tags, &h.CreatedAt, &h.UpdatedAt)
	return h, err
}

// CreateRange inserts a Range and its full VPC/subnet/host tree
// transactionally (§4.2 write contract).
func (s *Store) CreateRange(ctx context.Context, r *Range, ownerID uuid.UUID) (Range, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Range{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created, err := scanRange(tx.QueryRow(ctx,
		`INSERT INTO blueprint_ranges (owner_id, name, provider, region, vnc, vpn) VALUES ($1,$2,$3,$4,$5,$6) RETURNING `+rangeColumns,
		ownerID, r.Name, r.Provider, r.Region, r.VNC, r.VPN,
	))
	if err != nil {
		return Range{}, fmt.Errorf("inserting range: %w", err)
	}

	for _, vpc := range r.VPCs {
		if err := insertVPCTx(ctx, tx, &vpc, ownerID, &created.ID); err != nil {
			return Range{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Range{}, fmt.Errorf("committing range: %w", err)
	}

	created.VPCs = r.VPCs
	return created, nil
}

// CreateStandaloneVPC inserts a VPC (and its subnet/host subtree) with no
// parent range.
func (s *Store) CreateStandaloneVPC(ctx context.Context, v *VPC, ownerID uuid.UUID) (VPC, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return VPC{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertVPCTx(ctx, tx, v, ownerID, nil); err != nil {
		return VPC{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return VPC{}, fmt.Errorf("committing VPC: %w", err)
	}
	return *v, nil
}

// CreateStandaloneSubnet inserts a Subnet (and its host subtree) with no
// parent VPC.
func (s *Store) CreateStandaloneSubnet(ctx context.Context, sub *Subnet, ownerID uuid.UUID) (Subnet, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Subnet{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertSubnetTx(ctx, tx, sub, ownerID, nil); err != nil {
		return Subnet{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Subnet{}, fmt.Errorf("committing subnet: %w", err)
	}
	return *sub, nil
}

// CreateStandaloneHost inserts a Host with no parent subnet.
func (s *Store) CreateStandaloneHost(ctx context.Context, h *Host, ownerID uuid.UUID) (Host, error) {
	created, err := scanHost(s.pool.QueryRow(ctx,
		`INSERT INTO blueprint_hosts (owner_id, parent_subnet_id, hostname, os, spec, disk_size_gb, tags) VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+hostColumns,
		ownerID, nil, h.Hostname, h.OS, h.Spec, h.DiskSizeGB, h.Tags,
	))
	if err != nil {
		return Host{}, fmt.Errorf("inserting host: %w", err)
	}
	return created, nil
}

func insertVPCTx(ctx context.Context, tx pgx.Tx, v *VPC, ownerID uuid.UUID, parentRangeID *uuid.UUID) error {
	created, err := scanVPC(tx.QueryRow(ctx,
		`INSERT INTO blueprint_vpcs (owner_id, parent_range_id, name, cidr) VALUES ($1,$2,$3,$4) RETURNING `+vpcColumns,
		ownerID, parentRangeID, v.Name, v.CIDR,
	))
	if err != nil {
		return fmt.Errorf("inserting VPC %q: %w", v.Name, err)
	}
	v.ID, v.OwnerID, v.ParentRangeID, v.CreatedAt, v.UpdatedAt = created.ID, created.OwnerID, created.ParentRangeID, created.CreatedAt, created.UpdatedAt

	for i := range v.Subnets {
		if err := insertSubnetTx(ctx, tx, &v.Subnets[i], ownerID, &v.ID); err != nil {
			return err
		}
	}
	return nil
}

func insertSubnetTx(ctx context.Context, tx pgx.Tx, sub *Subnet, ownerID uuid.UUID, parentVPCID *uuid.UUID) error {
	created, err := scanSubnet(tx.QueryRow(ctx,
		`INSERT INTO blueprint_subnets (owner_id, parent_vpc_id, name, cidr) VALUES ($1,$2,$3,$4) RETURNING `+subnetColumns,
		ownerID, parentVPCID, sub.Name, sub.CIDR,
	))
	if err != nil {
		return fmt.Errorf("inserting subnet %q: %w", sub.Name, err)
	}
	sub.ID, sub.OwnerID, sub.ParentVPCID, sub.CreatedAt, sub.UpdatedAt = created.ID, created.OwnerID, created.ParentVPCID, created.CreatedAt, created.UpdatedAt

	for i := range sub.Hosts {
		host := &sub.Hosts[i]
		created, err := scanHost(tx.QueryRow(ctx,
			`INSERT INTO blueprint_hosts (owner_id, parent_subnet_id, hostname, os, spec, disk_size_gb, tags) VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+hostColumns,
			ownerID, sub.ID, host.Hostname, host.OS, host.Spec, host.DiskSizeGB, host.Tags,
		))
		if err != nil {
			return fmt.Errorf("inserting host %q: %w", host.Hostname, err)
		}
		*host = created
	}
	return nil
}

// GetRange returns a range and its full tree. If owner is non-nil, the
// range must belong to that owner.
func (s *Store) GetRange(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (Range, error) {
	query := `SELECT ` + rangeColumns + ` FROM blueprint_ranges WHERE id = $1`
	args := []any{id}
	if owner != nil {
		query += ` AND owner_id = $2`
		args = append(args, *owner)
	}
	r, err := scanRange(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return Range{}, err
	}

	vpcs, err := s.listVPCsByRange(ctx, r.ID)
	if err != nil {
		return Range{}, err
	}
	r.VPCs = vpcs
	return r, nil
}

func (s *Store) listVPCsByRange(ctx context.Context, rangeID uuid.UUID) ([]VPC, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+vpcColumns+` FROM blueprint_vpcs WHERE parent_range_id = $1 ORDER BY name`, rangeID)
	if err != nil {
		return nil, fmt.Errorf("listing VPCs: %w", err)
	}
	defer rows.Close()

	var out []VPC
	for rows.Next() {
		v, err := scanVPC(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning VPC: %w", err)
		}
		subnets, err := s.listSubnetsByVPC(ctx, v.ID)
		if err != nil {
			return nil, err
		}
		v.Subnets = subnets
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) listSubnetsByVPC(ctx context.Context, vpcID uuid.UUID) ([]Subnet, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+subnetColumns+` FROM blueprint_subnets WHERE parent_vpc_id = $1 ORDER BY name`, vpcID)
	if err != nil {
		return nil, fmt.Errorf("listing subnets: %w", err)
	}
	defer rows.Close()

	var out []Subnet
	for rows.Next() {
		sub, err := scanSubnet(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning subnet: %w", err)
		}
		hosts, err := s.listHostsBySubnet(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
		sub.Hosts = hosts
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *Store) listHostsBySubnet(ctx context.Context, subnetID uuid.UUID) ([]Host, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+hostColumns+` FROM blueprint_hosts WHERE parent_subnet_id = $1 ORDER BY hostname`, subnetID)
	if err != nil {
		return nil, fmt.Errorf("listing hosts: %w", err)
	}
	defer rows.Close()

	var out []Host
	for rows.Next() {
		h, err := scanHost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning host: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ListRangeHeaders returns range rows without their trees (§4.2:
// list_blueprint_range_headers). If owner is non-nil and includeAll is
// false, results are scoped to that owner.
func (s *Store) ListRangeHeaders(ctx context.Context, owner *uuid.UUID, includeAll bool) ([]Range, error) {
	query := `SELECT ` + rangeColumns + ` FROM blueprint_ranges`
	var args []any
	if owner != nil && !includeAll {
		query += ` WHERE owner_id = $1`
		args = append(args, *owner)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing range headers: %w", err)
	}
	defer rows.Close()

	var out []Range
	for rows.Next() {
		r, err := scanRange(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning range header: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListVPCHeaders returns VPC rows, optionally restricted to standalone
// rows (parent_range_id IS NULL) per §4.2's standalone_only filter.
func (s *Store) ListVPCHeaders(ctx context.Context, owner *uuid.UUID, includeAll, standaloneOnly bool) ([]VPC, error) {
	query := `SELECT ` + vpcColumns + ` FROM blueprint_vpcs WHERE 1=1`
	var args []any
	if owner != nil && !includeAll {
		args = append(args, *owner)
		query += fmt.Sprintf(" AND owner_id = $%d", len(args))
	}
	if standaloneOnly {
		query += ` AND parent_range_id IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing VPC headers: %w", err)
	}
	defer rows.Close()

	var out []VPC
	for rows.Next() {
		v, err := scanVPC(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning VPC header: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListSubnetHeaders mirrors ListVPCHeaders for subnets.
func (s *Store) ListSubnetHeaders(ctx context.Context, owner *uuid.UUID, includeAll, standaloneOnly bool) ([]Subnet, error) {
	query := `SELECT ` + subnetColumns + ` FROM blueprint_subnets WHERE 1=1`
	var args []any
	if owner != nil && !includeAll {
		args = append(args, *owner)
		query += fmt.Sprintf(" AND owner_id = $%d", len(args))
	}
	if standaloneOnly {
		query += ` AND parent_vpc_id IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing subnet headers: %w", err)
	}
	defer rows.Close()

	var out []Subnet
	for rows.Next() {
		sub, err := scanSubnet(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning subnet header: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// ListHostHeaders mirrors ListVPCHeaders for hosts.
func (s *Store) ListHostHeaders(ctx context.Context, owner *uuid.UUID, includeAll, standaloneOnly bool) ([]Host, error) {
	query := `SELECT ` + hostColumns + ` FROM blueprint_hosts WHERE 1=1`
	var args []any
	if owner != nil && !includeAll {
		args = append(args, *owner)
		query += fmt.Sprintf(" AND owner_id = $%d", len(args))
	}
	if standaloneOnly {
		query += ` AND parent_subnet_id IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing host headers: %w", err)
	}
	defer rows.Close()

	var out []Host
	for rows.Next() {
		h, err := scanHost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning host header: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// DeleteRange deletes a range; FK cascades remove its whole tree.
func (s *Store) DeleteRange(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (bool, error) {
	query := `DELETE FROM blueprint_ranges WHERE id = $1`
	args := []any{id}
	if owner != nil {
		query += ` AND owner_id = $2`
		args = append(args, *owner)
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("deleting range: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
