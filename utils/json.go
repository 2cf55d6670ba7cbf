package utils

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
)

// GzipJSON marshals and gzips in one step. Return-log blobs are stored
// compressed because a quarter of 2A data for a large filer runs to MBs.
func GzipJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func GunzipJSON(data []byte, dest any) error {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
