package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// ProductRecord is the result of scraping a single product page. Every field
// except SourceURL may legitimately be empty: extraction is best-effort and
// missing data degrades to zero values rather than failing the scrape.
type ProductRecord struct {
	Title           string         `json:"title"`
	Price           string         `json:"price"`
	SKU             string         `json:"sku"`
	Images          []string       `json:"images"`
	PDFs            []PDFLink      `json:"pdfs"`
	DescriptionHTML string         `json:"description_html"`
	AdditionalInfo  *AttributeList `json:"additional_info"`
	SourceURL       string         `json:"source_url"`
	RawHTML         string         `json:"-"`
}

// PDFLink is a downloadable document discovered on a product page.
type PDFLink struct {
	URL             string `json:"url"`
	Caption         string `json:"caption"`
	DetectionMethod string `json:"detection_method"`
}

func NewProductRecord(sourceURL string) *ProductRecord {
	return &ProductRecord{
		Images:         make([]string, 0),
		PDFs:           make([]PDFLink, 0),
		AdditionalInfo: NewAttributeList(),
		SourceURL:      sourceURL,
	}
}

// AttributeList is an insertion-ordered set of name/value pairs. Keys are
// unique; the first value set for a key wins and later sets are ignored.
type AttributeList struct {
	keys   []string
	values map[string]string
}

func NewAttributeList() *AttributeList {
	return &AttributeList{values: make(map[string]string)}
}

// Set records a value for key unless the key is already present.
func (a *AttributeList) Set(key, value string) {
	if _, ok := a.values[key]; ok {
		return
	}
	a.keys = append(a.keys, key)
	a.values[key] = value
}

func (a *AttributeList) Get(key string) (string, bool) {
	v, ok := a.values[key]
	return v, ok
}

func (a *AttributeList) Has(key string) bool {
	_, ok := a.values[key]
	return ok
}

func (a *AttributeList) Len() int {
	return len(a.keys)
}

// Keys returns the attribute names in extraction order.
func (a *AttributeList) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// MarshalJSON emits an object whose members appear in insertion order.
func (a *AttributeList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(a.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (a *AttributeList) UnmarshalJSON(data []byte) error {
	m := make(map[string]string)
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	a.values = make(map[string]string, len(m))
	a.keys = a.keys[:0]
	for k, v := range m {
		a.keys = append(a.keys, k)
		a.values[k] = v
	}
	return nil
}

// ImportResult describes the outcome of a completed catalog import.
type ImportResult struct {
	ProductID  string    `json:"product_id"`
	SKU        string    `json:"sku"`
	ImagesUsed int       `json:"images_used"`
	PDFsUsed   int       `json:"pdfs_used"`
	GSTApplied bool      `json:"gst_applied"`
	ImportedAt time.Time `json:"imported_at"`
}
