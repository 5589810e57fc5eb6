package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"menu-lens/api/internal/scanerr"
	"menu-lens/api/internal/util"
)

// Photo is the session-scoped handle for one captured image.
type Photo struct {
	Ref  string // displayable reference, stays fetchable while the scan runs
	MIME string
	Hash string // sha256 of the bytes
	Size int
}

// Payload is the binary-safe form sent to the analysis service.
type Payload struct {
	Base64 string
	MIME   string
	Hash   string
}

func (p Payload) DataURL() string { return util.MakeDataURL(p.MIME, p.Base64) }

// PhotoStore keeps photo bytes addressable by reference.
type PhotoStore interface {
	Put(ctx context.Context, hash, mime string, data []byte) (ref string, err error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Owns(ref string) bool
}

var (
	ErrEmpty       = errors.New("empty image")
	ErrTooLarge    = errors.New("image too large")
	ErrUnsupported = errors.New("unsupported image type")
	ErrUnknownRef  = errors.New("unknown photo reference")
)

type Ingestor struct {
	store    PhotoStore
	maxBytes int64
	httpc    *http.Client
}

func New(store PhotoStore, maxBytes int64) *Ingestor {
	if maxBytes <= 0 {
		maxBytes = 15 << 20
	}
	return &Ingestor{
		store:    store,
		maxBytes: maxBytes,
		httpc:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Ingest reads the user's file into the store and returns its reference.
func (in *Ingestor) Ingest(ctx context.Context, r io.Reader) (Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, in.maxBytes+1))
	if err != nil {
		return Photo{}, &scanerr.IngestionError{Err: err}
	}
	return in.IngestBytes(ctx, data)
}

func (in *Ingestor) IngestBytes(ctx context.Context, data []byte) (Photo, error) {
	if len(data) == 0 {
		return Photo{}, &scanerr.IngestionError{Err: ErrEmpty}
	}
	if int64(len(data)) > in.maxBytes {
		return Photo{}, &scanerr.IngestionError{Err: fmt.Errorf("%w: more than %d bytes", ErrTooLarge, in.maxBytes)}
	}
	mime := util.PickMIME("", "", data)
	if !util.IsImageMIME(mime) {
		return Photo{}, &scanerr.IngestionError{Err: fmt.Errorf("%w: %s", ErrUnsupported, mime)}
	}
	hash := util.SHA256Hex(data)
	ref, err := in.store.Put(ctx, hash, mime, data)
	if err != nil {
		return Photo{}, &scanerr.IngestionError{Err: fmt.Errorf("store: %w", err)}
	}
	return Photo{Ref: ref, MIME: mime, Hash: hash, Size: len(data)}, nil
}

// Bytes re-fetches the raw photo behind ref.
func (in *Ingestor) Bytes(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	var (
		data []byte
		err  error
	)
	switch {
	case ref == "":
		err = ErrUnknownRef
	case in.store != nil && in.store.Owns(ref):
		data, err = in.store.Get(ctx, ref)
	case strings.HasPrefix(ref, "data:"):
		data, _, err = util.DecodeBase64MaybeDataURL(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		data, err = in.download(ctx, ref)
	default:
		err = ErrUnknownRef
	}
	if err != nil {
		return nil, &scanerr.IngestionError{Ref: ref, Err: err}
	}
	if len(data) == 0 {
		return nil, &scanerr.IngestionError{Ref: ref, Err: ErrEmpty}
	}
	return data, nil
}

// Payload re-derives the encoded image from its reference alone.
func (in *Ingestor) Payload(ctx context.Context, ref string) (Payload, error) {
	data, err := in.Bytes(ctx, ref)
	if err != nil {
		return Payload{}, err
	}
	mime := util.PickMIME("", "", data)
	if !util.IsImageMIME(mime) {
		return Payload{}, &scanerr.IngestionError{Ref: ref, Err: fmt.Errorf("%w: %s", ErrUnsupported, mime)}
	}
	return Payload{
		Base64: base64.StdEncoding.EncodeToString(data),
		MIME:   mime,
		Hash:   util.SHA256Hex(data),
	}, nil
}

func (in *Ingestor) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := in.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(bytes.TrimSpace(b)))
	}
	return io.ReadAll(io.LimitReader(resp.Body, in.maxBytes))
}
