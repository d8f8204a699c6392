package session

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/erazemk/inventar/internal/attach"
)

// Outcome reports what happened to one dropped payload.
type Outcome struct {
	ItemID   uuid.UUID   `json:"item_id"`
	Kind     attach.Kind `json:"kind"`
	FileName string      `json:"file_name,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// ApplyAttachments imports dropped files onto their target items. Payloads
// are decoded concurrently off the control goroutine; the decoded results
// are then stored one by one on it. A payload that fails never prevents the
// others from being stored. The returned outcomes follow payload order.
func (s *Session) ApplyAttachments(ctx context.Context, payloads []attach.Payload) ([]Outcome, error) {
	outcomes := make([]Outcome, len(payloads))
	pending := make([]attach.Payload, 0, len(payloads))
	index := make([]int, 0, len(payloads))

	// Resolve target names for the generated file names.
	err := s.do(ctx, func() {
		for i, p := range payloads {
			outcomes[i] = Outcome{ItemID: p.ItemID, Kind: p.Kind}
			it, err := s.store.GetItem(ctx, p.ItemID)
			if err != nil {
				outcomes[i].Error = err.Error()
				continue
			}
			p.ItemName = it.Name
			pending = append(pending, p)
			index = append(index, i)
		}
	})
	if err != nil {
		return nil, err
	}

	results := s.importer.Decode(ctx, pending)

	err = s.do(ctx, func() {
		for j, r := range results {
			out := &outcomes[index[j]]
			out.Kind = r.Kind
			if r.Err == nil {
				r.Err = s.storeAttachment(ctx, r)
			}
			if s.metrics != nil {
				s.metrics.AttachmentProcessed(string(r.Kind), r.Err)
			}
			if r.Err != nil {
				slog.Warn("attachment not stored", "item", r.ItemID, "error", r.Err)
				out.Error = r.Err.Error()
				continue
			}
			out.FileName = r.Attachment.FileName
			s.chime.Play(attach.SoundStored)
		}
		s.sync(ctx)
	})
	if err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (s *Session) storeAttachment(ctx context.Context, r attach.Result) error {
	switch r.Kind {
	case attach.KindImage:
		return s.store.SetItemImage(ctx, r.ItemID, *r.Attachment)
	case attach.KindDocument:
		return s.store.SetItemInvoice(ctx, r.ItemID, *r.Attachment)
	}
	return attach.ErrUnsupported
}
