package helper

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	defaultShortIDLength = 8
	shortIDAlphabet      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// Core returns the numeric, identifier and choice helpers. index backs the
// index helper; now is the clock used by timestamp and objectId.
func Core(index Sequence, now func() time.Time) []Helper {
	if now == nil {
		now = time.Now
	}
	if index == nil {
		index = NewCounter()
	}
	return []Helper{
		booleanHelper{name: "boolean"},
		booleanHelper{name: "bool"},
		integerHelper{},
		floatHelper{},
		randomHelper{},
		&indexHelper{seq: index},
		New("uuid", func(Args) (any, error) {
			return uuid.NewString(), nil
		}),
		newObjectIDHelper(now),
		shortIDHelper{},
		timestampHelper{now: now},
	}
}

type booleanHelper struct{ name string }

func (h booleanHelper) Name() string  { return h.name }
func (booleanHelper) Params() []Param { return nil }
func (booleanHelper) Call(Args) (any, error) {
	return rand.IntN(2) == 1, nil
}

// integerHelper samples uniformly from [start, end]. Missing bounds default to
// the int64 extremes.
type integerHelper struct{}

func (integerHelper) Name() string { return "integer" }

func (integerHelper) Params() []Param {
	return []Param{{Name: "start"}, {Name: "end"}}
}

func (integerHelper) Call(args Args) (any, error) {
	start, err := args.Int("start", math.MinInt64)
	if err != nil {
		return nil, err
	}
	end, err := args.Int("end", math.MaxInt64)
	if err != nil {
		return nil, err
	}
	if start > end {
		return nil, &InvalidRangeError{Start: start, End: end}
	}
	return Int64Between(start, end), nil
}

// Int64Between returns a uniform value in [lo, hi]. lo must not exceed hi.
func Int64Between(lo, hi int64) int64 {
	span := uint64(hi) - uint64(lo)
	if span == math.MaxUint64 {
		return int64(rand.Uint64())
	}
	return lo + int64(rand.Uint64N(span+1))
}

// floatHelper samples uniformly from [start, end]. Missing bounds default to
// the float64 extremes.
type floatHelper struct{}

func (floatHelper) Name() string { return "float" }

func (floatHelper) Params() []Param {
	return []Param{{Name: "start"}, {Name: "end"}}
}

func (floatHelper) Call(args Args) (any, error) {
	start, err := args.Float("start", -math.MaxFloat64)
	if err != nil {
		return nil, err
	}
	end, err := args.Float("end", math.MaxFloat64)
	if err != nil {
		return nil, err
	}
	if start > end {
		return nil, &InvalidRangeError{Start: start, End: end}
	}
	return Float64Between(start, end), nil
}

// Float64Between returns a uniform value in [lo, hi]. The interpolation form
// stays finite even when hi-lo overflows.
func Float64Between(lo, hi float64) float64 {
	if lo == hi {
		return lo
	}
	u := rand.Float64()
	v := lo*(1-u) + hi*u
	return min(max(v, lo), hi)
}

type randomHelper struct{}

func (randomHelper) Name() string { return "random" }

func (randomHelper) Params() []Param {
	return []Param{{Name: "values", Variadic: true}}
}

func (randomHelper) Call(args Args) (any, error) {
	values := args.Values("values")
	if len(values) == 1 {
		if seq, ok := sequence(values[0]); ok {
			values = seq
		}
	}
	if len(values) == 0 {
		return nil, ErrEmptyChoice
	}
	return values[rand.IntN(len(values))], nil
}

// indexHelper reads and advances the session sequence.
type indexHelper struct {
	seq Sequence
}

func (*indexHelper) Name() string    { return "index" }
func (*indexHelper) Params() []Param { return nil }

func (h *indexHelper) Call(Args) (any, error) {
	return h.seq.Next(), nil
}

func (*indexHelper) Detach() Helper {
	return &indexHelper{seq: NewCounter()}
}

// objectIDHelper renders 12-byte identifiers as 24 hex characters: a 4-byte
// big-endian unix timestamp, 5 bytes fixed per helper and a 3-byte counter.
type objectIDHelper struct {
	now     func() time.Time
	machine [5]byte
	counter *atomic.Uint32
}

func newObjectIDHelper(now func() time.Time) objectIDHelper {
	h := objectIDHelper{now: now, counter: new(atomic.Uint32)}
	var seed [8]byte
	binary.BigEndian.PutUint64(seed[:], rand.Uint64())
	copy(h.machine[:], seed[:5])
	h.counter.Store(rand.Uint32N(1 << 24))
	return h
}

func (objectIDHelper) Name() string    { return "objectId" }
func (objectIDHelper) Params() []Param { return nil }

func (h objectIDHelper) Call(Args) (any, error) {
	var id [12]byte
	binary.BigEndian.PutUint32(id[0:4], uint32(h.now().Unix()))
	copy(id[4:9], h.machine[:])
	c := h.counter.Add(1)
	id[9] = byte(c >> 16)
	id[10] = byte(c >> 8)
	id[11] = byte(c)
	return hex.EncodeToString(id[:]), nil
}

type shortIDHelper struct{}

func (shortIDHelper) Name() string { return "shortId" }

func (shortIDHelper) Params() []Param {
	return []Param{{Name: "length"}}
}

func (shortIDHelper) Call(args Args) (any, error) {
	length, err := args.Int("length", defaultShortIDLength)
	if err != nil {
		return nil, err
	}
	if length < 1 || length > 1024 {
		return nil, &ArgumentError{Param: "length", Reason: "must be between 1 and 1024"}
	}
	out := make([]byte, length)
	for i := range out {
		out[i] = shortIDAlphabet[rand.IntN(len(shortIDAlphabet))]
	}
	return string(out), nil
}

type timestampHelper struct {
	now func() time.Time
}

func (timestampHelper) Name() string    { return "timestamp" }
func (timestampHelper) Params() []Param { return nil }

func (h timestampHelper) Call(Args) (any, error) {
	upper := h.now().Unix()
	if upper < 0 {
		upper = 0
	}
	return Int64Between(0, upper), nil
}
