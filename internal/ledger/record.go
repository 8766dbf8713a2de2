package ledger

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joshua-takyi/festora/internal/models"
	"github.com/joshua-takyi/festora/internal/units"
)

// Record is one raw ledger tuple keyed by its ABI component name.
type Record map[string]interface{}

// toRecord accepts a Record, a plain map, or a struct whose fields carry json
// tags, which is how go-ethereum materializes ABI tuples.
func toRecord(v interface{}) (Record, error) {
	switch t := v.(type) {
	case Record:
		return t, nil
	case map[string]interface{}:
		return Record(t), nil
	case nil:
		return nil, fmt.Errorf("%w: nil tuple", ErrMalformedRecord)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil tuple", ErrMalformedRecord)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: expected tuple, got %T", ErrMalformedRecord, v)
	}

	rt := rv.Type()
	rec := make(Record, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.PkgPath != "" {
			continue
		}
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			name = strings.ToLower(f.Name[:1]) + f.Name[1:]
		}
		rec[name] = rv.Field(i).Interface()
	}
	return rec, nil
}

func toRecords(v interface{}) ([]Record, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []Record:
		return t, nil
	case []map[string]interface{}:
		out := make([]Record, len(t))
		for i, m := range t {
			out[i] = Record(m)
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: expected tuple list, got %T", ErrMalformedRecord, v)
	}
	out := make([]Record, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		rec, err := toRecord(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// fieldDecoder reads typed values out of a Record. Absent or nil fields
// decode to the zero value; a present field of the wrong shape records the
// first error and later reads become no-ops.
type fieldDecoder struct {
	rec Record
	err error
}

func (d *fieldDecoder) fail(name string, format string, args ...interface{}) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: field %q: %s", ErrMalformedRecord, name, fmt.Sprintf(format, args...))
	}
}

func (d *fieldDecoder) lookup(name string) (interface{}, bool) {
	if d.err != nil {
		return nil, false
	}
	v, ok := d.rec[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (d *fieldDecoder) readBigInt(name string) *big.Int {
	v, ok := d.lookup(name)
	if !ok {
		return new(big.Int)
	}
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return new(big.Int)
		}
		return new(big.Int).Set(n)
	case big.Int:
		return new(big.Int).Set(&n)
	case int:
		return big.NewInt(int64(n))
	case int8:
		return big.NewInt(int64(n))
	case int16:
		return big.NewInt(int64(n))
	case int32:
		return big.NewInt(int64(n))
	case int64:
		return big.NewInt(n)
	case uint:
		return new(big.Int).SetUint64(uint64(n))
	case uint8:
		return new(big.Int).SetUint64(uint64(n))
	case uint16:
		return new(big.Int).SetUint64(uint64(n))
	case uint32:
		return new(big.Int).SetUint64(uint64(n))
	case uint64:
		return new(big.Int).SetUint64(n)
	}
	d.fail(name, "expected integer, got %T", v)
	return new(big.Int)
}

func (d *fieldDecoder) readUint(name string) *big.Int {
	n := d.readBigInt(name)
	if n.Sign() < 0 {
		d.fail(name, "negative value %s", n)
		return new(big.Int)
	}
	return n
}

func (d *fieldDecoder) readInt64(name string) int64 {
	n := d.readUint(name)
	if n.Cmp(big.NewInt(math.MaxInt64)) > 0 {
		d.fail(name, "value %s overflows int64", n)
		return 0
	}
	return n.Int64()
}

func (d *fieldDecoder) readString(name string) string {
	v, ok := d.lookup(name)
	if !ok {
		return ""
	}
	s, isStr := v.(string)
	if !isStr {
		d.fail(name, "expected string, got %T", v)
	}
	return s
}

func (d *fieldDecoder) readBool(name string) bool {
	v, ok := d.lookup(name)
	if !ok {
		return false
	}
	b, isBool := v.(bool)
	if !isBool {
		d.fail(name, "expected bool, got %T", v)
	}
	return b
}

func (d *fieldDecoder) readAddress(name string) string {
	v, ok := d.lookup(name)
	if !ok {
		return ""
	}
	switch a := v.(type) {
	case common.Address:
		return models.NormalizeAddress(a.Hex())
	case *common.Address:
		if a == nil {
			return ""
		}
		return models.NormalizeAddress(a.Hex())
	case string:
		if a == "" {
			return ""
		}
		if !common.IsHexAddress(a) {
			d.fail(name, "invalid address %q", a)
			return ""
		}
		return models.NormalizeAddress(common.HexToAddress(a).Hex())
	}
	d.fail(name, "expected address, got %T", v)
	return ""
}

func decodeEvent(rec Record) (models.Event, error) {
	d := &fieldDecoder{rec: rec}
	e := models.Event{
		ID:          d.readInt64("id"),
		Title:       d.readString("title"),
		ImageURL:    d.readString("imageUrl"),
		Description: d.readString("description"),
		Owner:       d.readAddress("owner"),
		Sales:       d.readInt64("sales"),
		TicketCost:  units.FromFixedPoint(d.readUint("ticketCost")),
		Capacity:    d.readInt64("capacity"),
		Seats:       d.readInt64("seats"),
		StartsAt:    d.readInt64("startsAt"),
		EndsAt:      d.readInt64("endsAt"),
		Timestamp:   d.readInt64("timestamp"),
		Deleted:     d.readBool("deleted"),
		PaidOut:     d.readBool("paidOut"),
		Refunded:    d.readBool("refunded"),
		Minted:      d.readBool("minted"),
	}
	if d.err != nil {
		return models.Event{}, d.err
	}
	if e.Seats > e.Capacity {
		return models.Event{}, fmt.Errorf("%w: event %d has %d seats for capacity %d",
			ErrMalformedRecord, e.ID, e.Seats, e.Capacity)
	}
	return e, nil
}

func decodeTicket(rec Record) (models.Ticket, error) {
	d := &fieldDecoder{rec: rec}
	t := models.Ticket{
		ID:         d.readInt64("id"),
		EventID:    d.readInt64("eventId"),
		Owner:      d.readAddress("owner"),
		TicketCost: units.FromFixedPoint(d.readUint("ticketCost")),
		Timestamp:  d.readInt64("timestamp"),
		Refunded:   d.readBool("refunded"),
		Minted:     d.readBool("minted"),
	}
	if d.err != nil {
		return models.Ticket{}, d.err
	}
	return t, nil
}

func decodeEvents(v interface{}) ([]models.Event, error) {
	recs, err := toRecords(v)
	if err != nil {
		return nil, err
	}
	events := make([]models.Event, 0, len(recs))
	for _, rec := range recs {
		e, err := decodeEvent(rec)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func decodeTickets(v interface{}) ([]models.Ticket, error) {
	recs, err := toRecords(v)
	if err != nil {
		return nil, err
	}
	tickets := make([]models.Ticket, 0, len(recs))
	for _, rec := range recs {
		t, err := decodeTicket(rec)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}
