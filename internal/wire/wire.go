// Package wire implements the length-prefixed JSON frame protocol
// spoken between kvs-client and kvs-server: a 4-byte big-endian length
// header followed by a JSON body.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// maxFrameSize bounds a single frame to guard against a malformed or
// hostile length header causing an unbounded allocation.
const maxFrameSize = 64 << 20 // 64 MiB

// Op identifies which of the three store operations a Request performs.
type Op string

const (
	OpSet    Op = "set"
	OpGet    Op = "get"
	OpRemove Op = "rm"
)

// Request is one client->server frame body.
type Request struct {
	Op    Op     `json:"op"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// Response is one server->client frame body. Value carries the looked
// up string for a successful get, the literal "Key not found" for a
// missing key, an error message for any other failure, or is empty for
// a successful set/rm.
type Response struct {
	Ok    bool   `json:"ok"`
	Value string `json:"value,omitempty"`
}

// WriteFrame encodes v as JSON and writes it to w as a single
// length-prefixed frame.
func WriteFrame(w io.Writer, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wire: marshal frame: %w", err)
	}
	if len(body) > maxFrameSize {
		return fmt.Errorf("wire: frame of %d bytes exceeds maximum %d", len(body), maxFrameSize)
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(body)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wire: write frame header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("wire: write frame body: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r and unmarshals its
// body into v.
func ReadFrame(r io.Reader, v interface{}) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return fmt.Errorf("wire: read frame header: %w", err)
	}

	length := binary.BigEndian.Uint32(header[:])
	if length > maxFrameSize {
		return fmt.Errorf("wire: frame of %d bytes exceeds maximum %d", length, maxFrameSize)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return fmt.Errorf("wire: read frame body: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("wire: unmarshal frame: %w", err)
	}
	return nil
}

// WriteRequest writes req as a single frame.
func WriteRequest(w io.Writer, req Request) error {
	return WriteFrame(w, req)
}

// ReadRequest reads a single Request frame.
func ReadRequest(r io.Reader) (Request, error) {
	var req Request
	err := ReadFrame(r, &req)
	return req, err
}

// WriteResponse writes resp as a single frame.
func WriteResponse(w io.Writer, resp Response) error {
	return WriteFrame(w, resp)
}

// ReadResponse reads a single Response frame.
func ReadResponse(r io.Reader) (Response, error) {
	var resp Response
	err := ReadFrame(r, &resp)
	return resp, err
}
