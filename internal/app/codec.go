package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

// quoteRecord is the persisted and exported JSON shape of a quote. Field order
// is part of the export format. updatedAt is Unix milliseconds.
type quoteRecord struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Category  string `json:"category"`
	UpdatedAt int64  `json:"updatedAt"`
}

// importRecord is what an import file must provide per element. Pointers
// tell a missing field apart from a zero value.
type importRecord struct {
	ID        *int64  `json:"id"        validate:"required"`
	Text      *string `json:"text"      validate:"required,notblank"`
	Category  *string `json:"category"  validate:"required,notblank"`
	UpdatedAt *int64  `json:"updatedAt" validate:"omitempty,min=0"`
}

// recordValidator names fields by their JSON key in error messages.
var recordValidator = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)

	return v
}()

func toRecord(q domain.Quote) quoteRecord {
	var ms int64
	if !q.UpdatedAt.IsZero() {
		ms = q.UpdatedAt.UnixMilli()
	}

	return quoteRecord{ID: q.ID, Text: q.Text, Category: q.Category, UpdatedAt: ms}
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}

	return time.UnixMilli(ms).UTC()
}

func (r quoteRecord) toDomain() domain.Quote {
	return domain.Quote{ID: r.ID, Text: r.Text, Category: r.Category, UpdatedAt: fromMillis(r.UpdatedAt)}
}

// EncodeQuotes renders quotes as a compact JSON array for storage.
func EncodeQuotes(quotes []domain.Quote) ([]byte, error) {
	records := make([]quoteRecord, len(quotes))
	for i, q := range quotes {
		records[i] = toRecord(q)
	}

	return json.Marshal(records)
}

// EncodeExport renders quotes as a two-space indented JSON array.
func EncodeExport(quotes []domain.Quote) ([]byte, error) {
	records := make([]quoteRecord, len(quotes))
	for i, q := range quotes {
		records[i] = toRecord(q)
	}

	return json.MarshalIndent(records, "", "  ")
}

// DecodeQuotes parses a stored collection. Any decode failure is reported as
// a domain.CorruptionError for key.
func DecodeQuotes(key string, data []byte) ([]domain.Quote, error) {
	var records []quoteRecord

	if err := json.Unmarshal(data, &records); err != nil {
		return nil, domain.NewCorruptionError(key, err)
	}

	if records == nil {
		// "null" is not a collection
		return nil, domain.NewCorruptionError(key, errors.New("stored value is not an array"))
	}

	quotes := make([]domain.Quote, len(records))
	for i, r := range records {
		quotes[i] = r.toDomain()
	}

	return quotes, nil
}

// DecodeImport parses an import file. The payload must be a JSON array whose
// elements each carry a numeric id plus non-blank text and category;
// updatedAt is optional. Anything else is a domain.FormatError and nothing
// is returned.
func DecodeImport(data []byte) ([]domain.Quote, error) {
	var elements []json.RawMessage

	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, domain.NewFormatError("import", "payload must be a JSON array of quotes", err)
	}

	if elements == nil {
		return nil, domain.NewFormatError("import", "payload must be a JSON array of quotes", nil)
	}

	quotes := make([]domain.Quote, 0, len(elements))

	for i, raw := range elements {
		q, err := decodeImportElement(raw)
		if err != nil {
			return nil, domain.NewElementFormatError("import", i, err.Error())
		}

		quotes = append(quotes, q)
	}

	return quotes, nil
}

func decodeImportElement(raw json.RawMessage) (domain.Quote, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return domain.Quote{}, errors.New("element is not an object")
	}

	var rec importRecord
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return domain.Quote{}, fmt.Errorf("decoding element: %w", err)
	}

	if err := recordValidator.Struct(rec); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return domain.Quote{}, fmt.Errorf("%s is %s", fieldErrs[0].Field(), describeTag(fieldErrs[0].Tag()))
		}

		return domain.Quote{}, err
	}

	q := domain.Quote{ID: *rec.ID, Text: *rec.Text, Category: *rec.Category}
	if rec.UpdatedAt != nil {
		q.UpdatedAt = fromMillis(*rec.UpdatedAt)
	}

	return q, nil
}

func describeTag(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "notblank":
		return "blank"
	default:
		return "invalid (" + tag + ")"
	}
}
