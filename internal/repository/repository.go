package repository

import (
	"context"
	"fmt"

	"example.com/logistics/services/tracking/internal/database"
	"example.com/logistics/services/tracking/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShipmentFilter holds the pagination and filter parameters for
// shipment listings.
type ShipmentFilter struct {
	Page      int
	Limit     int
	WaybillNo string
	RefNo     string
}

// Repository provides data access methods. Every write is a single
// conflict-aware statement keyed by the entity's natural key, so
// repeated delivery of the same event converges instead of
// duplicating rows, and two concurrent deliveries for a brand-new
// waybill cannot both insert.
type Repository interface {
	// Shipment aggregate
	UpsertShipment(ctx context.Context, shipment *models.Shipment) (uint, error)
	FindShipmentByWaybill(ctx context.Context, waybillNo string) (*models.Shipment, error)
	ListShipments(ctx context.Context, filter ShipmentFilter) ([]*models.Shipment, int64, error)

	// Sub-entity upserts, all scoped to an owning shipment id.
	SaveScan(ctx context.Context, scan *models.Scan) error
	MergeDeliveryDetail(ctx context.Context, detail *models.DeliveryDetail) error
	MergeReweigh(ctx context.Context, reweigh *models.Reweigh) error
	MergeReweighImage(ctx context.Context, image *models.ReweighImage) error
	MergeQCFailure(ctx context.Context, failure *models.QCFailure) error
	SaveCallLog(ctx context.Context, callLog *models.CallLog) error
	MergePODDCImage(ctx context.Context, bundle *models.PODDCImage) error

	// Audit trail
	SaveAuditLog(ctx context.Context, entry *models.WebhookAuditLog) error
}

// repo is an implementation of the Repository interface
type repo struct {
	db database.DB
}

// NewRepository creates a new repository instance
func NewRepository(db database.DB) Repository {
	return &repo{
		db: db,
	}
}

// coalesceAssignments builds ON CONFLICT update assignments that only
// overwrite a stored column when the incoming row carries a non-NULL
// value, matching the COALESCE merge semantics of the original
// integration. Absent fields never erase previously stored data.
func coalesceAssignments(table string, cols ...string) clause.Set {
	assignments := make(map[string]interface{}, len(cols)+1)
	for _, col := range cols {
		assignments[col] = gorm.Expr(fmt.Sprintf("COALESCE(excluded.%s, %s.%s)", col, table, col))
	}
	assignments["updated_at"] = gorm.Expr("CURRENT_TIMESTAMP")
	return clause.Assignments(assignments)
}

// UpsertShipment creates the shipment row for a new waybill or merges
// the mutable fields into the existing row. Only the delivery-date
// estimates, customer code and special instruction are updated on
// conflict; identity fields are immutable once created.
func (r *repo) UpsertShipment(ctx context.Context, shipment *models.Shipment) (uint, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return 0, err
	}

	err = gormDB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "waybill_no"}},
		DoUpdates: coalesceAssignments("shipments",
			"expected_delivery_date",
			"dynamic_expected_delivery_date",
			"customer_code",
			"special_instruction",
		),
	}).Create(shipment).Error
	if err != nil {
		return 0, wrapStoreError("upsert shipment", err)
	}

	// The RETURNING clause fills the id on both insert and update, but
	// fall back to a lookup in case the driver did not report it.
	if shipment.ID == 0 {
		var existing models.Shipment
		if err := gormDB.WithContext(ctx).Select("id").Where("waybill_no = ?", shipment.WaybillNo).First(&existing).Error; err != nil {
			return 0, wrapStoreError("resolve shipment id", err)
		}
		shipment.ID = existing.ID
	}

	return shipment.ID, nil
}

func (r *repo) FindShipmentByWaybill(ctx context.Context, waybillNo string) (*models.Shipment, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var shipment models.Shipment
	err = gormDB.WithContext(ctx).
		Preload("Scans", func(db *gorm.DB) *gorm.DB {
			return db.Order("scan_date DESC, scan_time DESC")
		}).
		Preload("DeliveryDetail").
		Preload("Reweighs").
		Where("waybill_no = ?", waybillNo).
		First(&shipment).Error
	if err != nil {
		return nil, err
	}

	return &shipment, nil
}

func (r *repo) ListShipments(ctx context.Context, filter ShipmentFilter) ([]*models.Shipment, int64, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, 0, err
	}

	query := gormDB.WithContext(ctx).Model(&models.Shipment{})

	if filter.WaybillNo != "" {
		query = query.Where("waybill_no LIKE ?", "%"+filter.WaybillNo+"%")
	}
	if filter.RefNo != "" {
		query = query.Where("ref_no LIKE ?", "%"+filter.RefNo+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrapStoreError("count shipments", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 50
	}

	var shipments []*models.Shipment
	err = query.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&shipments).Error
	if err != nil {
		return nil, 0, wrapStoreError("list shipments", err)
	}

	return shipments, total, nil
}

// SaveScan appends a scan event. Redelivery of an identical scan is a
// no-op via DO NOTHING on the natural key tuple.
func (r *repo) SaveScan(ctx context.Context, scan *models.Scan) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	err = gormDB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "shipment_id"},
			{Name: "scan_code"},
			{Name: "scan_date"},
			{Name: "scan_time"},
		},
		DoNothing: true,
	}).Create(scan).Error

	return wrapStoreError("save scan", err)
}

func (r *repo) MergeDeliveryDetail(ctx context.Context, detail *models.DeliveryDetail) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	err = gormDB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "shipment_id"}},
		DoUpdates: coalesceAssignments("delivery_details",
			"received_by",
			"relation",
			"id_type",
			"id_number",
			"id_description",
			"security_code_delivery",
			"signature",
			"id_image",
		),
	}).Create(detail).Error

	return wrapStoreError("merge delivery detail", err)
}

func (r *repo) MergeReweigh(ctx context.Context, reweigh *models.Reweigh) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	err = gormDB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "shipment_id"}, {Name: "mps_number"}},
		DoUpdates: coalesceAssignments("reweigh",
			"rw_actual_weight",
			"rw_length",
			"rw_breadth",
			"rw_height",
			"rw_vol_weight",
			"rw_image_url",
		),
	}).Create(reweigh).Error

	return wrapStoreError("merge reweigh", err)
}

func (r *repo) MergeReweighImage(ctx context.Context, image *models.ReweighImage) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	err = gormDB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "shipment_id"}, {Name: "mps_number"}},
		DoUpdates: coalesceAssignments("reweigh_images",
			"rw_image_url",
		),
	}).Create(image).Error

	return wrapStoreError("merge reweigh image", err)
}

func (r *repo) MergeQCFailure(ctx context.Context, failure *models.QCFailure) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	err = gormDB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "shipment_id"}},
		DoUpdates: coalesceAssignments("qc_failed",
			"qc_type",
			"qc_reason",
			"pictures",
		),
	}).Create(failure).Error

	return wrapStoreError("merge qc failure", err)
}

// SaveCallLog appends a customer-contact record, deduplicated on the
// full natural key tuple.
func (r *repo) SaveCallLog(ctx context.Context, callLog *models.CallLog) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	err = gormDB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "shipment_id"},
			{Name: "message"},
			{Name: "log_date"},
			{Name: "log_time"},
		},
		DoNothing: true,
	}).Create(callLog).Error

	return wrapStoreError("save call log", err)
}

func (r *repo) MergePODDCImage(ctx context.Context, bundle *models.PODDCImage) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	err = gormDB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "shipment_id"}},
		DoUpdates: coalesceAssignments("pod_dc_images",
			"pod_images",
			"dc_images",
			"image_sequence",
		),
	}).Create(bundle).Error

	return wrapStoreError("merge pod/dc images", err)
}

func (r *repo) SaveAuditLog(ctx context.Context, entry *models.WebhookAuditLog) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return gormDB.WithContext(ctx).Create(entry).Error
}
