package users

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Payload is the wire and cache representation of a user.
type Payload struct {
	ID        uint64    `json:"id" msgpack:"id" cbor:"id"`
	Name      string    `json:"name" msgpack:"name" cbor:"name"`
	Email     string    `json:"email" msgpack:"email" cbor:"email"`
	Enabled   bool      `json:"enabled" msgpack:"enabled" cbor:"enabled"`
	CreatedAt time.Time `json:"created_at" msgpack:"created_at" cbor:"created_at"`
	UpdatedAt time.Time `json:"updated_at" msgpack:"updated_at" cbor:"updated_at"`
}

// DecodeMsgpack restores timestamps in UTC. msgpack decodes them in the
// local zone, which would make a cache hit differ from the miss that filled it.
func (p *Payload) DecodeMsgpack(dec *msgpack.Decoder) error {
	type plain Payload
	var v plain
	if err := dec.Decode(&v); err != nil {
		return err
	}
	*p = Payload(v)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return nil
}

func Serialize(u User) Payload {
	return Payload{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Enabled:   u.Enabled,
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
}

// SerializeMany never returns nil, so an empty list encodes as [].
func SerializeMany(us []User) []Payload {
	out := make([]Payload, 0, len(us))
	for _, u := range us {
		out = append(out, Serialize(u))
	}
	return out
}
