package alert

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TimestampLayout is the wall-clock format written into journal records.
const TimestampLayout = "2006-01-02 15:04:05"

// DefaultScanName labels batches that arrive without a scan name.
const DefaultScanName = "Unknown Scan"

// ErrInvalidPayload marks webhook bodies that carry no usable alert data.
var ErrInvalidPayload = errors.New("invalid or empty payload")

// Batch is one webhook delivery from a Chartink scan.
type Batch struct {
	ScanName *string      `json:"scan_name"`
	Stocks   []StockEntry `json:"stocks"`
}

// StockEntry is a single scan hit. Every field is optional on the wire.
type StockEntry struct {
	Name   *string  `json:"name"`
	Price  *float64 `json:"price"`
	Volume *float64 `json:"volume"`
}

// Record is a journal row. Field order matches the persisted line layout.
type Record struct {
	Timestamp string   `json:"timestamp"`
	ScanName  string   `json:"scan_name"`
	StockName *string  `json:"stock_name"`
	NSECode   string   `json:"nse_code"`
	Price     *float64 `json:"price"`
	Volume    *float64 `json:"volume"`
}

// ParseBatch decodes a webhook body. Bodies that are not JSON objects, or
// that decode to an object without keys, carry no alert data and are
// rejected with ErrInvalidPayload.
func ParseBatch(body []byte) (*Batch, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil || len(probe) == 0 {
		return nil, ErrInvalidPayload
	}

	var batch Batch
	if err := json.Unmarshal(body, &batch); err != nil {
		return nil, ErrInvalidPayload
	}
	return &batch, nil
}

// Scan returns the batch-level scan name, defaulted when absent.
func (b *Batch) Scan() string {
	if b.ScanName == nil {
		return DefaultScanName
	}
	return *b.ScanName
}

// Records maps every stock entry to a journal row. The timestamp is taken
// once so all rows from one delivery share the same wall-clock second.
func (b *Batch) Records(now time.Time) []Record {
	ts := now.Format(TimestampLayout)
	scan := b.Scan()

	records := make([]Record, 0, len(b.Stocks))
	for _, entry := range b.Stocks {
		records = append(records, Record{
			Timestamp: ts,
			ScanName:  scan,
			StockName: entry.Name,
			NSECode:   entry.NSECode(),
			Price:     entry.Price,
			Volume:    entry.Volume,
		})
	}
	return records
}

// NSECode derives the exchange ticker by appending the NSE suffix. A
// missing name keeps the printed nil form rather than guarding it.
func (e StockEntry) NSECode() string {
	if e.Name == nil {
		return fmt.Sprint(e.Name) + ".NS"
	}
	return *e.Name + ".NS"
}

// Symbol returns the bare stock name for order routing, empty when absent.
func (e StockEntry) Symbol() string {
	if e.Name == nil {
		return ""
	}
	return *e.Name
}

// TriggerPrice returns the scan trigger price, zero when absent.
func (e StockEntry) TriggerPrice() float64 {
	if e.Price == nil {
		return 0
	}
	return *e.Price
}
