// Package attach turns dropped files into item attachments. Every payload of
// a drop is decoded concurrently and independently; applying the decoded
// results to the store is left to the caller.
package attach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/inventar/internal/imaging"
	"github.com/erazemk/inventar/internal/model"
)

// ErrUnsupported is returned for payloads that are neither a JPEG/PNG image
// nor a paginated PDF.
var ErrUnsupported = errors.New("unsupported attachment")

// Kind says how a payload should be interpreted.
type Kind string

const (
	KindImage    Kind = "image"
	KindDocument Kind = "document"
	KindAuto     Kind = "auto"
)

// SoundStored is the system sound played after an attachment is stored.
const SoundStored = 1322

// Payload is one dropped file targeting an item.
type Payload struct {
	ItemID   uuid.UUID
	ItemName string
	Kind     Kind
	Data     []byte
	Name     string // original file name, informational only
}

// DecodeError is a payload that could not be decoded. It never affects the
// other payloads of the same drop.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding attachment %q: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Result is the decode outcome for one payload. Exactly one of Attachment
// and Err is set.
type Result struct {
	ItemID     uuid.UUID
	Kind       Kind // resolved to KindImage or KindDocument on success
	Attachment *model.Attachment
	Err        error
}

// Chime is the audible confirmation after an attachment is stored.
type Chime interface {
	Play(sound int)
}

// LogChime records chimes in the log.
type LogChime struct{}

// Play logs the sound.
func (LogChime) Play(sound int) {
	slog.Info("attachment stored", "sound", sound)
}

// Importer decodes payloads.
type Importer struct {
	tempDir string
	limit   int
	now     func() time.Time
}

// Option configures an Importer.
type Option func(*Importer)

// WithTempDir sets the directory for temporary document files.
func WithTempDir(dir string) Option {
	return func(im *Importer) { im.tempDir = dir }
}

// WithConcurrency bounds the number of payloads decoded at once.
func WithConcurrency(n int) Option {
	return func(im *Importer) { im.limit = n }
}

// WithClock sets the time source for generated file names.
func WithClock(now func() time.Time) Option {
	return func(im *Importer) { im.now = now }
}

// NewImporter returns an importer.
func NewImporter(opts ...Option) *Importer {
	im := &Importer{limit: 4, now: time.Now}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Decode decodes all payloads concurrently and waits for every one of them.
// Results are returned in payload order. A cancelled context marks the
// payloads that had not started yet as failed.
func (im *Importer) Decode(ctx context.Context, payloads []Payload) []Result {
	results := make([]Result, len(payloads))

	var g errgroup.Group
	if im.limit > 0 {
		g.SetLimit(im.limit)
	}
	for i, p := range payloads {
		g.Go(func() error {
			results[i] = im.decodeOne(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (im *Importer) decodeOne(ctx context.Context, p Payload) Result {
	res := Result{ItemID: p.ItemID, Kind: p.Kind}
	if err := ctx.Err(); err != nil {
		res.Err = &DecodeError{Name: p.Name, Err: err}
		return res
	}

	kind, err := classify(p)
	if err != nil {
		res.Err = &DecodeError{Name: p.Name, Err: err}
		return res
	}
	res.Kind = kind

	var a *model.Attachment
	switch kind {
	case KindImage:
		a, err = im.decodeImage(p)
	case KindDocument:
		a, err = im.decodeDocument(p)
	}
	if err != nil {
		slog.Warn("skipping dropped attachment", "item", p.ItemID, "name", p.Name, "kind", kind, "error", err)
		res.Err = &DecodeError{Name: p.Name, Err: err}
		return res
	}
	res.Attachment = a
	return res
}

// classify resolves KindAuto by sniffing the payload bytes.
func classify(p Payload) (Kind, error) {
	switch p.Kind {
	case KindImage, KindDocument:
		return p.Kind, nil
	case KindAuto, "":
	default:
		return "", fmt.Errorf("%w: kind %q", ErrUnsupported, p.Kind)
	}

	switch ct := http.DetectContentType(p.Data); ct {
	case "image/jpeg", "image/png":
		return KindImage, nil
	case "application/pdf":
		return KindDocument, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ct)
	}
}

func (im *Importer) decodeImage(p Payload) (*model.Attachment, error) {
	data, err := imaging.Normalize(p.Data)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) {
			return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
		}
		return nil, err
	}
	return &model.Attachment{
		Data:     data,
		FileName: FileName(p.ItemName, im.now()) + ".jpg",
		MIME:     "image/jpeg",
	}, nil
}

func (im *Importer) decodeDocument(p Payload) (*model.Attachment, error) {
	data, err := readPDF(p.Data, im.tempDir)
	if err != nil {
		return nil, err
	}
	return &model.Attachment{
		Data:     data,
		FileName: FileName(p.ItemName, im.now()) + ".pdf",
		MIME:     "application/pdf",
	}, nil
}

// FileName returns the attachment base name for an item:
// <name>_<year>_<day>_<month>_<hour>_<minute>_<second>, numbers unpadded.
func FileName(itemName string, t time.Time) string {
	return fmt.Sprintf("%s_%d_%d_%d_%d_%d_%d",
		itemName, t.Year(), t.Day(), int(t.Month()), t.Hour(), t.Minute(), t.Second())
}
