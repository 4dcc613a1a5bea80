package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const snapshotVersion1 = 1

// encodeUser serializes a user snapshot as a version byte followed by
// length-prefixed UTF-8 fields in a fixed order.
func encodeUser(u *User) ([]byte, error) {
	if u == nil {
		return nil, errors.New("cannot encode nil user")
	}

	var buf bytes.Buffer
	buf.WriteByte(snapshotVersion1)

	for _, field := range []string{u.Username, u.Email, u.FirstName, u.LastName} {
		if len(field) > 65535 {
			return nil, errors.New("session field length exceeded")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

func decodeUser(data []byte) (*User, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: empty snapshot", ErrCorruptSnapshot)
	}
	if version != snapshotVersion1 {
		return nil, fmt.Errorf("%w: unknown version %d", ErrCorruptSnapshot, version)
	}

	fields := make([]string, 4)
	for i := range fields {
		var n uint16
		if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
			return nil, fmt.Errorf("%w: truncated length", ErrCorruptSnapshot)
		}
		raw := make([]byte, n)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, fmt.Errorf("%w: truncated field", ErrCorruptSnapshot)
		}
		fields[i] = string(raw)
	}
	if reader.Len() != 0 {
		return nil, fmt.Errorf("%w: trailing bytes", ErrCorruptSnapshot)
	}

	return &User{
		Username:  fields[0],
		Email:     fields[1],
		FirstName: fields[2],
		LastName:  fields[3],
	}, nil
}
