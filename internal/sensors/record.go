package sensors

import "time"

const (
	// Sentinel replaces a signal value whose fetch failed.
	Sentinel = "###"

	// DatetimeLayout is the timestamp format written in the first column.
	DatetimeLayout = "2006-01-02 15:04:05"

	// Keys of the two leading fields of every record.
	KeyDatetime = "datetime"
	KeyRoom     = "room"
)

// Sensor describes one endpoint and the signals it exposes.
type Sensor struct {
	Name    string
	Address string
	Signals []string
}

// Field is one key/value pair of a Record.
type Field struct {
	Key   string
	Value string
}

// Record is an insertion-ordered mapping of field names to values. Setting an
// existing key replaces its value in place.
type Record struct {
	fields []Field
}

// NewRecord starts a record with the datetime and room fields.
func NewRecord(at time.Time, room string) Record {
	r := Record{fields: make([]Field, 0, 4)}
	r.Set(KeyDatetime, FormatDatetime(at))
	r.Set(KeyRoom, room)
	return r
}

// FormatDatetime renders t in DatetimeLayout.
func FormatDatetime(t time.Time) string {
	return t.Format(DatetimeLayout)
}

// Set stores value under key, keeping the key's original position if present.
func (r *Record) Set(key, value string) {
	for i := range r.fields {
		if r.fields[i].Key == key {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, Field{Key: key, Value: value})
}

// Get returns the value stored under key.
func (r Record) Get(key string) (string, bool) {
	for _, f := range r.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Datetime returns the shared poll timestamp of the record.
func (r Record) Datetime() string {
	v, _ := r.Get(KeyDatetime)
	return v
}

// Room returns the sensor name.
func (r Record) Room() string {
	v, _ := r.Get(KeyRoom)
	return v
}

// Fields returns a copy of the fields in order.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Signals returns the fields other than datetime and room, in order.
func (r Record) Signals() []Field {
	out := make([]Field, 0, len(r.fields))
	for _, f := range r.fields {
		if f.Key == KeyDatetime || f.Key == KeyRoom {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Values returns the field values in order.
func (r Record) Values() []string {
	out := make([]string, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.Value
	}
	return out
}
