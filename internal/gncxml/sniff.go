package gncxml

import (
	"archive/zip"
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// Transport identifies the detected wrapping of the input byte stream.
type Transport int

const (
	TransportXML Transport = iota
	TransportGzip
	TransportZip
)

func (t Transport) String() string {
	switch t {
	case TransportGzip:
		return "gzip"
	case TransportZip:
		return "zip"
	}
	return "xml"
}

// Sniff peeks at most 4 bytes of r, non-destructively, and returns a
// reader positioned at the start of the XML document together with the
// transport it detected: gzip (2-byte magic), zip local-file-header
// (4-byte magic, including the empty- and spanned-archive variants), or
// raw XML for anything else.
func Sniff(r io.Reader) (io.Reader, Transport, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil && len(head) < 2 {
		return nil, TransportXML, &TransportError{Reason: "stream too short to sniff", Err: err}
	}

	if head[0] == 0x1f && head[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, TransportGzip, &TransportError{Reason: "opening gzip stream", Err: err}
		}
		return gz, TransportGzip, nil
	}

	if len(head) == 4 && head[0] == 'P' && head[1] == 'K' {
		switch {
		case head[2] == 0x03 && head[3] == 0x04,
			head[2] == 0x05 && head[3] == 0x06,
			head[2] == 0x07 && head[3] == 0x08:
			entry, err := firstZipEntry(br)
			if err != nil {
				return nil, TransportZip, err
			}
			return entry, TransportZip, nil
		}
	}

	return br, TransportXML, nil
}

// firstZipEntry extracts the single file entry of a zip archive. The
// zip directory sits at the end of the stream, so the archive is
// buffered in full first.
func firstZipEntry(r io.Reader) (io.Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &TransportError{Reason: "reading zip archive", Err: err}
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &TransportError{Reason: "opening zip archive", Err: err}
	}
	if len(zr.File) == 0 {
		return nil, &TransportError{Reason: "zip archive has no entries"}
	}
	f, err := zr.File[0].Open()
	if err != nil {
		return nil, &TransportError{Reason: fmt.Sprintf("opening zip entry %q", zr.File[0].Name), Err: err}
	}
	return f, nil
}
