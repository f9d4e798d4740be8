// Package payload defines the carrier push API wire types and the
// validation and normalization logic that turns the three payload
// dialects (Lite, Plus, Advance) into canonical shipment updates.
package payload

import (
	"bytes"
	"encoding/json"
)

// StatusTrackingRequest is the inbound webhook batch.
type StatusTrackingRequest struct {
	StatusTracking []Entry `json:"statustracking"`
}

// Entry wraps one shipment update inside the batch.
type Entry struct {
	Shipment *ShipmentPayload `json:"Shipment"`
}

// ShipmentPayload carries the union of the Lite dialect (scan fields
// flat on the shipment object) and the Plus/Advance dialects (nested
// Scans sub-object). Unknown fields are ignored by json decoding.
type ShipmentPayload struct {
	SenderID                    string `json:"SenderID"`
	ReceiverID                  string `json:"ReceiverID"`
	WaybillNo                   string `json:"WaybillNo"`
	RefNo                       string `json:"RefNo"`
	Prodcode                    string `json:"Prodcode"`
	SubProductCode              string `json:"SubProductCode"`
	Feature                     string `json:"Feature"`
	Origin                      string `json:"Origin"`
	OriginAreaCode              string `json:"OriginAreaCode"`
	Destination                 string `json:"Destination"`
	DestinationAreaCode         string `json:"DestinationAreaCode"`
	PickUpDate                  string `json:"PickUpDate"`
	PickUpTime                  string `json:"PickUpTime"`
	ExpectedDeliveryDate        string `json:"ExpectedDeliveryDate"`
	DynamicExpectedDeliveryDate string `json:"DynamicExpectedDeliveryDate"`
	ShipmentMode                string `json:"ShipmentMode"`
	Weight                      string `json:"Weight"`
	CustomerCode                string `json:"CustomerCode"`
	SpecialInstruction          string `json:"SpecialInstruction"`

	// Lite dialect scan fields, flat on the shipment object.
	ScanType            string `json:"ScanType"`
	ScanGroupType       string `json:"ScanGroupType"`
	ScanCode            string `json:"ScanCode"`
	Scan                string `json:"Scan"`
	ScanDate            string `json:"ScanDate"`
	ScanTime            string `json:"ScanTime"`
	ScannedLocationCode string `json:"ScannedLocationCode"`
	Comments            string `json:"Comments"`
	SorryCardNumber     string `json:"SorryCardNumber"`

	// Plus/Advance dialect sub-object.
	Scans *ScansPayload `json:"Scans"`
}

// ScansPayload is the Plus/Advance nested container for scan events
// and sub-resources.
type ScansPayload struct {
	ScanDetail      ScanDetailList          `json:"ScanDetail"`
	DeliveryDetails *DeliveryDetailsPayload `json:"DeliveryDetails"`
	Reweigh         ReweighList             `json:"Reweigh"`
	RWImage         RWImageList             `json:"RWImage"`
	QCFailed        *QCPayload              `json:"QCFailed"`
	QC              *QCPayload              `json:"QC"`
	CallLogs        CallLogList             `json:"CallLogs"`
	PODDCImages     *PODDCImagesPayload     `json:"PODDCImages"`
}

// ScanDetail is one scan event in the Plus/Advance dialects.
type ScanDetail struct {
	ScanType                   string `json:"ScanType"`
	ScanGroupType              string `json:"ScanGroupType"`
	ScanCode                   string `json:"ScanCode"`
	Scan                       string `json:"Scan"`
	ScanDate                   string `json:"ScanDate"`
	ScanTime                   string `json:"ScanTime"`
	ScannedLocationCode        string `json:"ScannedLocationCode"`
	ScannedLocation            string `json:"ScannedLocation"`
	ScannedLocationCity        string `json:"ScannedLocationCity"`
	ScannedLocationStateCode   string `json:"ScannedLocationStateCode"`
	Comments                   string `json:"Comments"`
	StatusTimeZone             string `json:"StatusTimeZone"`
	StatusLatitude             string `json:"StatusLatitude"`
	StatusLongitude            string `json:"StatusLongitude"`
	ReachedDestinationLocation string `json:"ReachedDestinationLocation"`
	SecureCode                 string `json:"SecureCode"`
	SorryCardNumber            string `json:"SorryCardNumber"`
	ReceivedBy                 string `json:"ReceivedBy"`
	Relation                   string `json:"Relation"`
	IDType                     string `json:"IDType"`
	IDNumber                   string `json:"IDNumber"`
	IDDescription              string `json:"IDDescription"`
	QCType                     string `json:"QCType"`
	QCReason                   string `json:"QCReason"`
}

// DeliveryDetailsPayload is the proof-of-delivery sub-resource.
// Signature and IDImage carry base64-encoded images.
type DeliveryDetailsPayload struct {
	ReceivedBy           string `json:"ReceivedBy"`
	Relation             string `json:"Relation"`
	IDType               string `json:"IDType"`
	IDNumber             string `json:"IDNumber"`
	IDDescription        string `json:"IDDescription"`
	SecurityCodeDelivery string `json:"SecurityCodeDelivery"`
	Signature            string `json:"Signature"`
	IDImage              string `json:"IDImage"`
}

// ReweighPayload is one dimensional re-measurement record. All numeric
// fields arrive as strings and are parsed leniently during
// normalization.
type ReweighPayload struct {
	MPSNumber      string `json:"MPSNumber"`
	RWActualWeight string `json:"RWActualWeight"`
	RWLength       string `json:"RWLength"`
	RWBreadth      string `json:"RWBreadth"`
	RWHeight       string `json:"RWHeight"`
	RWVolWeight    string `json:"RWVolWeight"`
	RWImageURL     string `json:"RWImageURL"`
}

// IsEmpty reports whether the record carries no data at all. The
// sender occasionally delivers empty objects inside collections.
func (r ReweighPayload) IsEmpty() bool {
	return r == ReweighPayload{}
}

// RWImagePayload is one reweigh photo reference.
type RWImagePayload struct {
	MPSNumber  string `json:"MPSNumber"`
	RWImageURL string `json:"RWImageURL"`
}

// IsEmpty reports whether the record carries no data at all.
func (r RWImagePayload) IsEmpty() bool {
	return r == RWImagePayload{}
}

// QCPayload covers both quality-control shapes: QCFailed carries
// Type/Reason, QC carries Result/Remarks plus optional pictures.
type QCPayload struct {
	Type     string   `json:"Type"`
	Reason   string   `json:"Reason"`
	Result   string   `json:"Result"`
	Remarks  string   `json:"Remarks"`
	Pictures []string `json:"Pictures"`
}

// CallLogPayload is one customer-contact record. LogDate may arrive
// as dd-mm-yyyy or as a compact 8-digit yyyymmdd string.
type CallLogPayload struct {
	Message string `json:"Message"`
	LogDate string `json:"LogDate"`
	LogTime string `json:"LogTime"`
}

// IsEmpty reports whether the record carries no data at all.
func (c CallLogPayload) IsEmpty() bool {
	return c == CallLogPayload{}
}

// PODDCImagesPayload bundles proof-of-delivery and damaged-condition
// images. The sender has used several spellings for the sequence field
// (Imagesequence, ImageSequence, image_sequence); Go's case-insensitive
// json field matching folds them onto one field.
type PODDCImagesPayload struct {
	PODImage      []string `json:"PODImage"`
	DCImage       []string `json:"DCImage"`
	ImageSequence string   `json:"ImageSequence"`
}

// The carrier sends sub-resource collections either as a JSON array or
// as a bare object when there is a single element. These list types
// accept both; a single object and a one-element array decode
// identically.

// ScanDetailList decodes a ScanDetail object or array.
type ScanDetailList []ScanDetail

// ReweighList decodes a Reweigh object or array.
type ReweighList []ReweighPayload

// RWImageList decodes an RWImage object or array.
type RWImageList []RWImagePayload

// CallLogList decodes a CallLogs object or array.
type CallLogList []CallLogPayload

func (l *ScanDetailList) UnmarshalJSON(data []byte) error {
	return unmarshalObjectOrArray(data, (*[]ScanDetail)(l))
}

func (l *ReweighList) UnmarshalJSON(data []byte) error {
	return unmarshalObjectOrArray(data, (*[]ReweighPayload)(l))
}

func (l *RWImageList) UnmarshalJSON(data []byte) error {
	return unmarshalObjectOrArray(data, (*[]RWImagePayload)(l))
}

func (l *CallLogList) UnmarshalJSON(data []byte) error {
	return unmarshalObjectOrArray(data, (*[]CallLogPayload)(l))
}

func unmarshalObjectOrArray[T any](data []byte, out *[]T) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*out = nil
		return nil
	}

	if trimmed[0] == '[' {
		var list []T
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*out = list
		return nil
	}

	var single T
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return err
	}
	*out = []T{single}
	return nil
}
