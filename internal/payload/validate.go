package payload

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateFormat is the canonical dd-mm-yyyy wire format for all dates.
const DateFormat = "02-01-2006"

var dateRegex = regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`)

// EntryError is one validation or processing error attributed to a
// shipment entry.
type EntryError struct {
	WaybillNo string `json:"waybill_no"`
	Error     string `json:"error"`
}

// IsValidDate reports whether s is empty (dates are optional) or a
// real calendar date in dd-mm-yyyy form with a year in [1900, 2100].
// Strings matching the pattern but describing an impossible date, such
// as 31-02-2024, are invalid.
func IsValidDate(s string) bool {
	if strings.TrimSpace(s) == "" {
		return true
	}

	m := dateRegex.FindStringSubmatch(s)
	if m == nil {
		return false
	}

	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return false
	}

	if t.Year() < 1900 || t.Year() > 2100 {
		return false
	}

	return true
}

// ParseDate converts a validated dd-mm-yyyy string to a time pointer.
// Empty or unparseable input yields nil.
func ParseDate(s string) *time.Time {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return nil
	}
	return &t
}

// fieldLimit describes one recognized string field and its maximum
// stored length. The schema is an explicitly ordered slice so the set
// of checked fields is auditable in one place; fields not listed here
// are deliberately not length-checked.
type fieldLimit struct {
	name  string
	max   int
	value func(*ShipmentPayload) string
}

var shipmentFieldLimits = []fieldLimit{
	{"SenderID", 10, func(sp *ShipmentPayload) string { return sp.SenderID }},
	{"ReceiverID", 50, func(sp *ShipmentPayload) string { return sp.ReceiverID }},
	{"WaybillNo", 20, func(sp *ShipmentPayload) string { return sp.WaybillNo }},
	{"RefNo", 50, func(sp *ShipmentPayload) string { return sp.RefNo }},
	{"Prodcode", 5, func(sp *ShipmentPayload) string { return sp.Prodcode }},
	{"SubProductCode", 5, func(sp *ShipmentPayload) string { return sp.SubProductCode }},
	{"Feature", 5, func(sp *ShipmentPayload) string { return sp.Feature }},
	{"Origin", 50, func(sp *ShipmentPayload) string { return sp.Origin }},
	{"OriginAreaCode", 5, func(sp *ShipmentPayload) string { return sp.OriginAreaCode }},
	{"Destination", 50, func(sp *ShipmentPayload) string { return sp.Destination }},
	{"DestinationAreaCode", 5, func(sp *ShipmentPayload) string { return sp.DestinationAreaCode }},
	{"PickUpTime", 10, func(sp *ShipmentPayload) string { return sp.PickUpTime }},
	{"ShipmentMode", 5, func(sp *ShipmentPayload) string { return sp.ShipmentMode }},
	{"CustomerCode", 6, func(sp *ShipmentPayload) string { return sp.CustomerCode }},
	{"SpecialInstruction", 50, func(sp *ShipmentPayload) string { return sp.SpecialInstruction }},
}

// ValidateFieldLengths checks every recognized string field against
// the schema and returns the first violation message, or "".
func ValidateFieldLengths(sp *ShipmentPayload) string {
	for _, f := range shipmentFieldLimits {
		if v := f.value(sp); len(v) > f.max {
			return fmt.Sprintf("%s exceeds maximum length of %d characters (received %d)", f.name, f.max, len(v))
		}
	}
	return ""
}

// ValidateShipmentDates checks the shipment-level date fields and
// returns the first violation message, or "".
func ValidateShipmentDates(sp *ShipmentPayload) string {
	if !IsValidDate(sp.PickUpDate) {
		return fmt.Sprintf("Invalid PickUpDate: %s", sp.PickUpDate)
	}
	if !IsValidDate(sp.ExpectedDeliveryDate) {
		return fmt.Sprintf("Invalid ExpectedDeliveryDate: %s", sp.ExpectedDeliveryDate)
	}
	if !IsValidDate(sp.DynamicExpectedDeliveryDate) {
		return fmt.Sprintf("Invalid DynamicExpectedDeliveryDate: %s", sp.DynamicExpectedDeliveryDate)
	}
	return ""
}

// ValidateBatch checks every entry of a batch and collects all errors
// found, not just the first. A non-empty result rejects the whole
// batch before any write occurs.
//
// Entries with no shipment object or no waybill number are not a
// validation failure: the orchestrator skips them individually with a
// soft error so the rest of the batch still processes.
func ValidateBatch(entries []Entry) []EntryError {
	var errs []EntryError

	for _, entry := range entries {
		sp := entry.Shipment

		if sp == nil || sp.WaybillNo == "" {
			continue
		}

		if msg := ValidateShipmentDates(sp); msg != "" {
			errs = append(errs, EntryError{WaybillNo: sp.WaybillNo, Error: msg})
		}

		if msg := ValidateFieldLengths(sp); msg != "" {
			errs = append(errs, EntryError{WaybillNo: sp.WaybillNo, Error: msg})
		}

		if sp.Scans != nil {
			for _, scan := range sp.Scans.ScanDetail {
				if !IsValidDate(scan.ScanDate) {
					errs = append(errs, EntryError{WaybillNo: sp.WaybillNo, Error: fmt.Sprintf("Invalid ScanDate: %s", scan.ScanDate)})
				}
			}
		}

		// Lite dialect scan date sits directly on the shipment object.
		if !IsValidDate(sp.ScanDate) {
			errs = append(errs, EntryError{WaybillNo: sp.WaybillNo, Error: fmt.Sprintf("Invalid ScanDate: %s", sp.ScanDate)})
		}
	}

	return errs
}
