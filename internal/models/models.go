package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Model is the base model with common fields for all database entities
type Model struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// Shipment is the aggregate root for all tracking data, keyed by the
// carrier-assigned waybill number. Optional columns are pointers so that
// absent values persist as NULL and coalesce-merge updates never erase
// previously stored data.
type Shipment struct {
	Model
	WaybillNo                   string           `json:"waybill_no" gorm:"uniqueIndex;Column:waybill_no;size:20"`
	SenderID                    *string          `json:"sender_id" gorm:"Column:sender_id;size:10"`
	ReceiverID                  *string          `json:"receiver_id" gorm:"Column:receiver_id;size:50"`
	RefNo                       *string          `json:"ref_no" gorm:"Column:ref_no;size:50"`
	ProdCode                    *string          `json:"prod_code" gorm:"Column:prod_code;size:5"`
	SubProductCode              *string          `json:"sub_product_code" gorm:"Column:sub_product_code;size:5"`
	Feature                     *string          `json:"feature" gorm:"Column:feature;size:5"`
	Origin                      *string          `json:"origin" gorm:"Column:origin;size:50"`
	OriginAreaCode              *string          `json:"origin_area_code" gorm:"Column:origin_area_code;size:5"`
	Destination                 *string          `json:"destination" gorm:"Column:destination;size:50"`
	DestinationAreaCode         *string          `json:"destination_area_code" gorm:"Column:destination_area_code;size:5"`
	PickupDate                  *time.Time       `json:"pickup_date" gorm:"Column:pickup_date"`
	PickupTime                  *string          `json:"pickup_time" gorm:"Column:pickup_time;size:10"`
	ExpectedDeliveryDate        *time.Time       `json:"expected_delivery_date" gorm:"Column:expected_delivery_date"`
	DynamicExpectedDeliveryDate *time.Time       `json:"dynamic_expected_delivery_date" gorm:"Column:dynamic_expected_delivery_date"`
	ShipmentMode                *string          `json:"shipment_mode" gorm:"Column:shipment_mode;size:5"`
	Weight                      *decimal.Decimal `json:"weight" gorm:"Column:weight;type:numeric(12,3)"`
	CustomerCode                *string          `json:"customer_code" gorm:"Column:customer_code;size:6"`
	SpecialInstruction          *string          `json:"special_instruction" gorm:"Column:special_instruction;size:50"`

	Scans          []Scan          `json:"scans,omitempty" gorm:"foreignKey:ShipmentID"`
	DeliveryDetail *DeliveryDetail `json:"delivery_details,omitempty" gorm:"foreignKey:ShipmentID"`
	Reweighs       []Reweigh       `json:"reweighs,omitempty" gorm:"foreignKey:ShipmentID"`
}

// Scan is one movement or status event for a shipment. Rows are
// append-only and deduplicated on (shipment, scan_code, scan_date,
// scan_time).
type Scan struct {
	Model
	ShipmentID                 uint             `json:"shipment_id" gorm:"uniqueIndex:idx_scans_natural_key;Column:shipment_id"`
	ScanType                   *string          `json:"scan_type" gorm:"Column:scan_type;size:10"`
	ScanGroupType              *string          `json:"scan_group_type" gorm:"Column:scan_group_type;size:10"`
	ScanCode                   *string          `json:"scan_code" gorm:"uniqueIndex:idx_scans_natural_key;Column:scan_code;size:10"`
	Scan                       *string          `json:"scan" gorm:"Column:scan;size:100"`
	ScanDate                   *time.Time       `json:"scan_date" gorm:"uniqueIndex:idx_scans_natural_key;Column:scan_date"`
	ScanTime                   *string          `json:"scan_time" gorm:"uniqueIndex:idx_scans_natural_key;Column:scan_time;size:10"`
	ScannedLocationCode        *string          `json:"scanned_location_code" gorm:"Column:scanned_location_code;size:10"`
	ScannedLocation            *string          `json:"scanned_location" gorm:"Column:scanned_location;size:50"`
	ScannedLocationCity        *string          `json:"scanned_location_city" gorm:"Column:scanned_location_city;size:50"`
	ScannedLocationStateCode   *string          `json:"scanned_location_state_code" gorm:"Column:scanned_location_state_code;size:10"`
	Comments                   *string          `json:"comments" gorm:"Column:comments;size:255"`
	StatusTimeZone             *string          `json:"status_timezone" gorm:"Column:status_timezone;size:10"`
	StatusLatitude             *string          `json:"status_latitude" gorm:"Column:status_latitude;size:20"`
	StatusLongitude            *string          `json:"status_longitude" gorm:"Column:status_longitude;size:20"`
	ReachedDestinationLocation *string          `json:"reached_destination_location" gorm:"Column:reached_destination_location;size:5"`
	SecureCode                 *string          `json:"secure_code" gorm:"Column:secure_code;size:20"`
	SorryCardNumber            *string          `json:"sorry_card_number" gorm:"Column:sorry_card_number;size:20"`
	ReceivedBy                 *string          `json:"received_by" gorm:"Column:received_by;size:50"`
	Relation                   *string          `json:"relation" gorm:"Column:relation;size:50"`
	IDType                     *string          `json:"id_type" gorm:"Column:id_type;size:50"`
	IDNumber                   *string          `json:"id_number" gorm:"Column:id_number;size:50"`
	IDDescription              *string          `json:"id_description" gorm:"Column:id_description;size:100"`
	QCType                     *string          `json:"qc_type" gorm:"Column:qc_type;size:10"`
	QCReason                   *string          `json:"qc_reason" gorm:"Column:qc_reason;size:255"`
	Shipment                   *Shipment        `json:"-" gorm:"foreignKey:ShipmentID"`
}

// DeliveryDetail holds proof-of-delivery metadata for a shipment.
// At most one row per shipment; merges on redelivery.
type DeliveryDetail struct {
	Model
	ShipmentID           uint      `json:"shipment_id" gorm:"uniqueIndex;Column:shipment_id"`
	ReceivedBy           *string   `json:"received_by" gorm:"Column:received_by;size:50"`
	Relation             *string   `json:"relation" gorm:"Column:relation;size:50"`
	IDType               *string   `json:"id_type" gorm:"Column:id_type;size:50"`
	IDNumber             *string   `json:"id_number" gorm:"Column:id_number;size:50"`
	IDDescription        *string   `json:"id_description" gorm:"Column:id_description;size:100"`
	SecurityCodeDelivery *string   `json:"security_code_delivery" gorm:"Column:security_code_delivery;size:20"`
	Signature            *string   `json:"signature" gorm:"Column:signature;size:255"`
	IDImage              *string   `json:"id_image" gorm:"Column:id_image;size:255"`
	Shipment             *Shipment `json:"-" gorm:"foreignKey:ShipmentID"`
}

// Reweigh is a dimensional re-measurement for one piece of a
// multi-piece shipment, keyed by MPS number within the shipment.
type Reweigh struct {
	Model
	ShipmentID     uint             `json:"shipment_id" gorm:"uniqueIndex:idx_reweigh_natural_key;Column:shipment_id"`
	MPSNumber      string           `json:"mps_number" gorm:"uniqueIndex:idx_reweigh_natural_key;Column:mps_number;size:30"`
	RWActualWeight *decimal.Decimal `json:"rw_actual_weight" gorm:"Column:rw_actual_weight;type:numeric(12,3)"`
	RWLength       *decimal.Decimal `json:"rw_length" gorm:"Column:rw_length;type:numeric(12,3)"`
	RWBreadth      *decimal.Decimal `json:"rw_breadth" gorm:"Column:rw_breadth;type:numeric(12,3)"`
	RWHeight       *decimal.Decimal `json:"rw_height" gorm:"Column:rw_height;type:numeric(12,3)"`
	RWVolWeight    *decimal.Decimal `json:"rw_vol_weight" gorm:"Column:rw_vol_weight;type:numeric(12,3)"`
	RWImageURL     *string          `json:"rw_image_url" gorm:"Column:rw_image_url;size:255"`
	Shipment       *Shipment        `json:"-" gorm:"foreignKey:ShipmentID"`
}

// ReweighImage stores the reweigh photo reference separately from the
// measurement record, under the same (shipment, MPS number) key.
type ReweighImage struct {
	Model
	ShipmentID uint      `json:"shipment_id" gorm:"uniqueIndex:idx_reweigh_images_natural_key;Column:shipment_id"`
	MPSNumber  string    `json:"mps_number" gorm:"uniqueIndex:idx_reweigh_images_natural_key;Column:mps_number;size:30"`
	RWImageURL *string   `json:"rw_image_url" gorm:"Column:rw_image_url;size:255"`
	Shipment   *Shipment `json:"-" gorm:"foreignKey:ShipmentID"`
}

// QCFailure records a quality-control rejection for a shipment.
// Pictures holds a JSON array of stored image references.
type QCFailure struct {
	Model
	ShipmentID uint      `json:"shipment_id" gorm:"uniqueIndex;Column:shipment_id"`
	QCType     *string   `json:"qc_type" gorm:"Column:qc_type;size:10"`
	QCReason   *string   `json:"qc_reason" gorm:"Column:qc_reason;size:255"`
	Pictures   *string   `json:"pictures" gorm:"Column:pictures;type:text"`
	Shipment   *Shipment `json:"-" gorm:"foreignKey:ShipmentID"`
}

// CallLog is one customer-contact record, deduplicated on the full
// (shipment, log_date, log_time, message) tuple.
type CallLog struct {
	Model
	ShipmentID uint       `json:"shipment_id" gorm:"uniqueIndex:idx_call_logs_natural_key;Column:shipment_id"`
	Message    *string    `json:"message" gorm:"uniqueIndex:idx_call_logs_natural_key;Column:message;size:255"`
	LogDate    *time.Time `json:"log_date" gorm:"uniqueIndex:idx_call_logs_natural_key;Column:log_date"`
	LogTime    *string    `json:"log_time" gorm:"uniqueIndex:idx_call_logs_natural_key;Column:log_time;size:10"`
	Shipment   *Shipment  `json:"-" gorm:"foreignKey:ShipmentID"`
}

// PODDCImage bundles proof-of-delivery and damaged-condition image
// references for a shipment. The image columns hold JSON arrays of
// stored file references.
type PODDCImage struct {
	Model
	ShipmentID    uint      `json:"shipment_id" gorm:"uniqueIndex;Column:shipment_id"`
	PODImages     *string   `json:"pod_images" gorm:"Column:pod_images;type:text"`
	DCImages      *string   `json:"dc_images" gorm:"Column:dc_images;type:text"`
	ImageSequence *string   `json:"image_sequence" gorm:"Column:image_sequence;size:50"`
	Shipment      *Shipment `json:"-" gorm:"foreignKey:ShipmentID"`
}

// WebhookAuditLog records one request/response pair for the carrier
// webhook. Audit writes never affect request processing.
type WebhookAuditLog struct {
	Model
	RequestID       string  `json:"request_id" gorm:"Column:request_id;size:36"`
	WaybillNo       *string `json:"waybill_no" gorm:"Column:waybill_no;size:20;index"`
	Payload         *string `json:"payload" gorm:"Column:payload;type:text"`
	ResponseStatus  int     `json:"response_status" gorm:"Column:response_status"`
	ResponseMessage *string `json:"response_message" gorm:"Column:response_message;size:255"`
	ErrorMessage    *string `json:"error_message" gorm:"Column:error_message;type:text"`
	ClientIP        *string `json:"client_ip" gorm:"Column:client_ip;size:45"`
	ClientID        *string `json:"client_id" gorm:"Column:client_id;size:50"`
}

// Table names follow the original carrier integration schema rather
// than gorm's pluralization defaults.

func (Shipment) TableName() string        { return "shipments" }
func (Scan) TableName() string            { return "scans" }
func (DeliveryDetail) TableName() string  { return "delivery_details" }
func (Reweigh) TableName() string         { return "reweigh" }
func (ReweighImage) TableName() string    { return "reweigh_images" }
func (QCFailure) TableName() string       { return "qc_failed" }
func (CallLog) TableName() string         { return "call_logs" }
func (PODDCImage) TableName() string      { return "pod_dc_images" }
func (WebhookAuditLog) TableName() string { return "webhook_audit_log" }

// StrPtr returns a pointer to s, or nil when s is empty. Incoming
// payload fields use empty string for "not supplied"; storing NULL
// instead keeps the coalesce-merge semantics working at the SQL level.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StrVal returns the value of p or "" when p is nil.
func StrVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
