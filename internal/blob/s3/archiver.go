package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/perpfeed/internal/domain"
)

const jsonlContentType = "application/x-ndjson"

// TradeSource lists stored trades for archiving.
type TradeSource interface {
	ListBefore(ctx context.Context, wallet string, before time.Time) ([]domain.NormalizedTrade, error)
}

// Archiver implements domain.Archiver. It snapshots a wallet's stored
// trades as JSONL under archive/trades/{wallet}/{YYYY-MM-DD}.jsonl. Stored
// rows are never deleted here.
type Archiver struct {
	writer domain.BlobWriter
	reader domain.BlobReader
	trades TradeSource
	audit  domain.AuditStore
}

// NewArchiver creates an Archiver.
func NewArchiver(writer domain.BlobWriter, reader domain.BlobReader, trades TradeSource, audit domain.AuditStore) *Archiver {
	return &Archiver{writer: writer, reader: reader, trades: trades, audit: audit}
}

// ArchiveWallet uploads every trade of wallet older than before and returns
// how many were written. A snapshot already present for the cutoff date is
// left as is and reported as 0.
func (a *Archiver) ArchiveWallet(ctx context.Context, wallet string, before time.Time) (int64, error) {
	path := ArchivePath(wallet, before)

	exists, err := a.reader.Exists(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive %s: %w", wallet, err)
	}
	if exists {
		return 0, nil
	}

	trades, err := a.trades.ListBefore(ctx, wallet, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive %s query: %w", wallet, err)
	}
	if len(trades) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(trades)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive %s marshal: %w", wallet, err)
	}

	if int64(len(buf)) > MinPartSize {
		err = a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), MinPartSize)
	} else {
		err = a.writer.Put(ctx, path, bytes.NewReader(buf), jsonlContentType)
	}
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive %s upload: %w", wallet, err)
	}

	count := int64(len(trades))
	if err := a.audit.Log(ctx, "archive.trades", map[string]any{
		"wallet": wallet,
		"path":   path,
		"count":  count,
		"before": before.UTC().Format(time.RFC3339),
	}); err != nil {
		return count, fmt.Errorf("s3blob: archive %s audit log: %w", wallet, err)
	}
	return count, nil
}

// ArchivePrefix is the key prefix of every snapshot of wallet.
func ArchivePrefix(wallet string) string {
	return "archive/trades/" + wallet + "/"
}

// ArchivePath is the key of wallet's snapshot for the day of before (UTC).
func ArchivePath(wallet string, before time.Time) string {
	return ArchivePrefix(wallet) + before.UTC().Format(time.DateOnly) + ".jsonl"
}

// marshalJSONL encodes records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

var _ domain.Archiver = (*Archiver)(nil)
