// Package legacy reads the ledger history kept by the first version of the
// application, a bbolt object log, and imports it into the SQLite store.
//
// The log holds one JSON document per entry in the "history" bucket, keyed
// by an 8 byte big-endian sequence number. Entries written before currencies
// existed have no "currency" field and are imported as PLN.
package legacy

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.etcd.io/bbolt"

	"casa/internal/core"
	"casa/internal/storage"
)

// ImportMarker is the key-value entry recording a completed import.
const ImportMarker = "legacy_import"

var historyBucket = []byte("history")

// ErrNoHistory is returned when the file has no history bucket.
var ErrNoHistory = errors.New("legacy file has no history bucket")

// Entry is the JSON shape of one history item.
type Entry struct {
	Name     string          `json:"name"`
	Value    decimal.Decimal `json:"value"`
	Date     string          `json:"date"`
	Currency string          `json:"currency,omitempty"`
}

// Importer stores a batch of records at most once per marker.
type Importer interface {
	ImportRecords(ctx context.Context, marker string, records []core.Record) (int, error)
}

// ReadHistory returns every entry of the log in sequence order.
func ReadHistory(path string) ([]core.Record, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open legacy log: %w", err)
	}
	defer db.Close()

	var records []core.Record
	err = db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(historyBucket)
		if bucket == nil {
			return ErrNoHistory
		}
		return bucket.ForEach(func(k, v []byte) error {
			rec, err := decodeEntry(v)
			if err != nil {
				return fmt.Errorf("entry %x: %w", k, err)
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Import copies the legacy log at path into dst. A log that was already
// imported is skipped and reported with storage.ErrAlreadyImported.
func Import(ctx context.Context, path string, dst Importer) (int, error) {
	records, err := ReadHistory(path)
	if err != nil {
		return 0, err
	}
	return dst.ImportRecords(ctx, ImportMarker, records)
}

// AppendEntry adds an entry to the log at path, creating file and bucket as
// needed.
func AppendEntry(path string, e Entry) error {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return fmt.Errorf("open legacy log: %w", err)
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(historyBucket)
		if err != nil {
			return err
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return bucket.Put(key, data)
	})
}

func decodeEntry(data []byte) (core.Record, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return core.Record{}, fmt.Errorf("decode: %w", err)
	}
	date, err := core.ParseDate(e.Date)
	if err != nil {
		return core.Record{}, err
	}
	currency := core.DefaultCurrency
	if strings.TrimSpace(e.Currency) != "" {
		if currency, err = core.ParseCurrency(e.Currency); err != nil {
			return core.Record{}, err
		}
	}
	return core.Record{
		Name:     strings.TrimSpace(e.Name),
		Amount:   e.Value.Round(core.AmountPlaces),
		Date:     date,
		Currency: currency,
	}, nil
}

var _ Importer = (*storage.SQLiteRepository)(nil)
