package core

import (
	"errors"
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Record serializers. Each value exposes Marshal/Unmarshal/Size/Skip in the
// mus-go serializer shape so storage code can treat them uniformly.
var (
	IDMUS               = idMUS{}
	FAQEntryMUS         = faqEntryMUS{}
	DocumentMUS         = documentMUS{}
	ConversationTurnMUS = conversationTurnMUS{}
)

var errCorruptLength = errors.New("corrupt slice length")

type unmarshaller[T any] interface {
	Unmarshal(bs []byte) (T, int, error)
}

// reader accumulates offsets and the first error while decoding a struct.
type reader struct {
	bs  []byte
	n   int
	err error
}

func read[T any](r *reader, u unmarshaller[T], dst *T) {
	if r.err != nil {
		return
	}
	v, n, err := u.Unmarshal(r.bs[r.n:])
	r.n += n
	if err != nil {
		r.err = err
		return
	}
	*dst = v
}

type idMUS struct{}

func (idMUS) Marshal(v ID, bs []byte) int { return varint.Uint64.Marshal(uint64(v), bs) }

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(v ID) int { return varint.Uint64.Size(uint64(v)) }

func (idMUS) Skip(bs []byte) (int, error) { return varint.Uint64.Skip(bs) }

// timeMUS stores timestamps as Unix microseconds, decoded as UTC.
type timeMUS struct{}

func (timeMUS) Marshal(v time.Time, bs []byte) int { return varint.Int64.Marshal(v.UnixMicro(), bs) }

func (timeMUS) Unmarshal(bs []byte) (time.Time, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(v).UTC(), n, nil
}

func (timeMUS) Size(v time.Time) int { return varint.Int64.Size(v.UnixMicro()) }

type float32MUS struct{}

func (float32MUS) Marshal(v float32, bs []byte) int {
	return varint.Uint32.Marshal(math.Float32bits(v), bs)
}

func (float32MUS) Unmarshal(bs []byte) (float32, int, error) {
	v, n, err := varint.Uint32.Unmarshal(bs)
	return math.Float32frombits(v), n, err
}

func (float32MUS) Size(v float32) int { return varint.Uint32.Size(math.Float32bits(v)) }

type lengthMUS struct{}

func (lengthMUS) Unmarshal(bs []byte) (int, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return 0, n, err
	}
	// Every element takes at least one byte.
	if v > uint64(len(bs)-n) {
		return 0, n, errCorruptLength
	}
	return int(v), n, nil
}

type vectorMUS struct{}

func (vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(v)), bs)
	for _, f := range v {
		n += float32MUS{}.Marshal(f, bs[n:])
	}
	return
}

func (vectorMUS) Unmarshal(bs []byte) ([]float32, int, error) {
	r := &reader{bs: bs}
	var length int
	read(r, lengthMUS{}, &length)
	if r.err != nil || length == 0 {
		return nil, r.n, r.err
	}
	v := make([]float32, length)
	for i := range v {
		read(r, float32MUS{}, &v[i])
	}
	return v, r.n, r.err
}

func (vectorMUS) Size(v []float32) (size int) {
	size = varint.Uint64.Size(uint64(len(v)))
	for _, f := range v {
		size += float32MUS{}.Size(f)
	}
	return
}

type citationsMUS struct{}

func (citationsMUS) Marshal(v []Citation, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(v)), bs)
	for _, c := range v {
		n += varint.Int64.Marshal(int64(c.Kind), bs[n:])
		n += IDMUS.Marshal(c.ItemID, bs[n:])
	}
	return
}

func (citationsMUS) Unmarshal(bs []byte) ([]Citation, int, error) {
	r := &reader{bs: bs}
	var length int
	read(r, lengthMUS{}, &length)
	if r.err != nil || length == 0 {
		return nil, r.n, r.err
	}
	v := make([]Citation, length)
	for i := range v {
		var kind int64
		read(r, varint.Int64, &kind)
		v[i].Kind = ItemKind(kind)
		read(r, IDMUS, &v[i].ItemID)
	}
	return v, r.n, r.err
}

func (citationsMUS) Size(v []Citation) (size int) {
	size = varint.Uint64.Size(uint64(len(v)))
	for _, c := range v {
		size += varint.Int64.Size(int64(c.Kind)) + IDMUS.Size(c.ItemID)
	}
	return
}

type faqEntryMUS struct{}

func (faqEntryMUS) Marshal(v FAQEntry, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Question, bs[n:])
	n += ord.String.Marshal(v.Answer, bs[n:])
	n += ord.String.Marshal(v.Category, bs[n:])
	n += vectorMUS{}.Marshal(v.Vector, bs[n:])
	n += timeMUS{}.Marshal(v.InsertedAt, bs[n:])
	n += timeMUS{}.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (faqEntryMUS) Unmarshal(bs []byte) (v FAQEntry, n int, err error) {
	r := &reader{bs: bs}
	read(r, IDMUS, &v.Id)
	read(r, ord.String, &v.Question)
	read(r, ord.String, &v.Answer)
	read(r, ord.String, &v.Category)
	read(r, vectorMUS{}, &v.Vector)
	read(r, timeMUS{}, &v.InsertedAt)
	read(r, timeMUS{}, &v.UpdatedAt)
	return v, r.n, r.err
}

func (faqEntryMUS) Size(v FAQEntry) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Question)
	size += ord.String.Size(v.Answer)
	size += ord.String.Size(v.Category)
	size += vectorMUS{}.Size(v.Vector)
	size += timeMUS{}.Size(v.InsertedAt)
	return size + timeMUS{}.Size(v.UpdatedAt)
}

func (s faqEntryMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type documentMUS struct{}

func (documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Body, bs[n:])
	n += ord.String.Marshal(v.Category, bs[n:])
	n += vectorMUS{}.Marshal(v.Vector, bs[n:])
	n += timeMUS{}.Marshal(v.InsertedAt, bs[n:])
	n += timeMUS{}.Marshal(v.UpdatedAt, bs[n:])
	return
}

func (documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	r := &reader{bs: bs}
	read(r, IDMUS, &v.Id)
	read(r, ord.String, &v.Title)
	read(r, ord.String, &v.Body)
	read(r, ord.String, &v.Category)
	read(r, vectorMUS{}, &v.Vector)
	read(r, timeMUS{}, &v.InsertedAt)
	read(r, timeMUS{}, &v.UpdatedAt)
	return v, r.n, r.err
}

func (documentMUS) Size(v Document) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Body)
	size += ord.String.Size(v.Category)
	size += vectorMUS{}.Size(v.Vector)
	size += timeMUS{}.Size(v.InsertedAt)
	return size + timeMUS{}.Size(v.UpdatedAt)
}

func (s documentMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type conversationTurnMUS struct{}

func (conversationTurnMUS) Marshal(v ConversationTurn, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.ConversationID, bs[n:])
	n += ord.String.Marshal(v.UserID, bs[n:])
	n += ord.String.Marshal(v.Query, bs[n:])
	n += ord.String.Marshal(v.Response, bs[n:])
	n += citationsMUS{}.Marshal(v.Citations, bs[n:])
	n += ord.String.Marshal(v.Strategy, bs[n:])
	n += ord.String.Marshal(v.Composer, bs[n:])
	n += float32MUS{}.Marshal(v.Confidence, bs[n:])
	n += ord.Bool.Marshal(v.Success, bs[n:])
	n += timeMUS{}.Marshal(v.Timestamp, bs[n:])
	return
}

func (conversationTurnMUS) Unmarshal(bs []byte) (v ConversationTurn, n int, err error) {
	r := &reader{bs: bs}
	read(r, IDMUS, &v.Id)
	read(r, ord.String, &v.ConversationID)
	read(r, ord.String, &v.UserID)
	read(r, ord.String, &v.Query)
	read(r, ord.String, &v.Response)
	read(r, citationsMUS{}, &v.Citations)
	read(r, ord.String, &v.Strategy)
	read(r, ord.String, &v.Composer)
	read(r, float32MUS{}, &v.Confidence)
	read(r, ord.Bool, &v.Success)
	read(r, timeMUS{}, &v.Timestamp)
	return v, r.n, r.err
}

func (conversationTurnMUS) Size(v ConversationTurn) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.ConversationID)
	size += ord.String.Size(v.UserID)
	size += ord.String.Size(v.Query)
	size += ord.String.Size(v.Response)
	size += citationsMUS{}.Size(v.Citations)
	size += ord.String.Size(v.Strategy)
	size += ord.String.Size(v.Composer)
	size += float32MUS{}.Size(v.Confidence)
	size += ord.Bool.Size(v.Success)
	return size + timeMUS{}.Size(v.Timestamp)
}

func (s conversationTurnMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}
