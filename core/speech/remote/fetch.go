package remote

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

var errPayloadTooLarge = errors.New("payload exceeds maximum size")

func refScheme(ref string) string {
	if scheme, _, ok := strings.Cut(ref, ":"); ok {
		return strings.ToLower(scheme)
	}
	return ""
}

func (s *Source) fetch(ctx context.Context, ref string) ([]byte, error) {
	switch refScheme(ref) {
	case "http", "https":
		return s.fetchHTTP(ctx, ref)
	case "data":
		return decodeDataRef(ref)
	default:
		return nil, fmt.Errorf("unsupported audio reference scheme %q", refScheme(ref))
	}
}

func (s *Source) fetchHTTP(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build audio request: %w", err)
	}
	req.Header.Set("Accept", "audio/*")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("audio fetch returned HTTP %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, s.maximumPayloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if int64(len(payload)) > s.maximumPayloadBytes {
		return nil, errPayloadTooLarge
	}
	return payload, nil
}

// decodeDataRef decodes an RFC 2397 data URL.
func decodeDataRef(ref string) ([]byte, error) {
	meta, data, ok := strings.Cut(strings.TrimPrefix(ref, ref[:len("data:")]), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data reference")
	}

	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		payload, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			if payload, rawErr := base64.RawStdEncoding.DecodeString(data); rawErr == nil {
				return payload, nil
			}
			return nil, fmt.Errorf("malformed base64 data reference: %w", err)
		}
		return payload, nil
	}

	payload, err := url.PathUnescape(data)
	if err != nil {
		return nil, fmt.Errorf("malformed data reference: %w", err)
	}
	return []byte(payload), nil
}
