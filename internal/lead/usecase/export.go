package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nursyahid/leadpipe/internal/lead/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
	"github.com/nursyahid/leadpipe/internal/pkg/storage"
	"github.com/samber/lo"
)

const exportPageSize int32 = 1_000

var exportHeader = []string{
	"id", "owner_id", "full_name", "email", "phone", "company",
	"source", "status", "notes", "next_follow_up_at", "last_contacted_at", "created_at",
}

type ExportInput struct {
	Search       string
	Statuses     []string
	OwnerID      int64
	FollowUpFrom time.Time
	FollowUpTo   time.Time
	SortBy       string
	SortOrder    string
}

type ExportOutput struct {
	URL       string
	ExpiresAt time.Time
	RowCount  int64
}

// Export writes the filtered leads to a CSV object in storage and
// returns a presigned download URL.
func (s *Usecase) Export(ctx context.Context, in ExportInput) (*ExportOutput, error) {
	ctx, span := s.startSpan(ctx, "Export")
	defer span.End()

	clm, scopeOwner, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}

	filter := leadFilter(ListInput{
		Search:       in.Search,
		Statuses:     in.Statuses,
		OwnerID:      in.OwnerID,
		FollowUpFrom: in.FollowUpFrom,
		FollowUpTo:   in.FollowUpTo,
		Size:         exportPageSize,
		SortBy:       in.SortBy,
		SortOrder:    in.SortOrder,
	}, scopeOwner)

	var (
		buf bytes.Buffer
		w   = csv.NewWriter(&buf)

		page  int32 = 1
		total int64
		rows  int64
	)

	if err := w.Write(exportHeader); err != nil {
		return nil, goerror.NewServer(err)
	}

	for {
		filter.Offset = (page - 1) * exportPageSize

		leads, count, err := s.repoDB.GetLeadList(ctx, filter)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo export leads", "error", err)
			return nil, goerror.NewServer(err)
		}

		if page == 1 {
			total = count
			if total == 0 {
				break
			}
		}

		records := lo.Map(leads, func(lead entity.Lead, _ int) []string { return exportRecord(lead) })
		if err := w.WriteAll(records); err != nil {
			return nil, goerror.NewServer(err)
		}
		rows += int64(len(leads))

		if rows >= total || len(leads) == 0 {
			break
		}

		page++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, goerror.NewServer(err)
	}

	bucket := s.cfg.GetString("modules.lead.export_bucket")
	key := fmt.Sprintf("exports/%s/%d-%s.csv", s.clock.Now().Format("2006-01-02"), clm.UserID, s.uuid.Generate())

	opts := storage.PutOptions{
		Size:        int64(buf.Len()),
		ContentType: "text/csv",
		Metadata:    map[string]string{"user_id": strconv.FormatInt(clm.UserID, 10)},
	}
	if _, err := s.storage.Put(ctx, bucket, key, &buf, opts); err != nil {
		slog.ErrorContext(ctx, "failed to upload lead export", "bucket", bucket, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	urlTTL := s.cfg.GetMinute("modules.lead.export_url_ttl_minutes")
	url, err := s.storage.PresignGet(ctx, bucket, key, urlTTL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to presign lead export", "bucket", bucket, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ExportOutput{
		URL:       url,
		ExpiresAt: s.clock.Now().Add(urlTTL),
		RowCount:  rows,
	}, nil
}

func exportRecord(lead entity.Lead) []string {
	formatAt := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format(time.RFC3339)
	}

	return []string{
		strconv.FormatInt(lead.ID, 10),
		strconv.FormatInt(lead.OwnerID, 10),
		lead.FullName,
		lead.Email,
		lead.Phone,
		lead.Company,
		lead.Source,
		lead.Status.String(),
		lead.Notes,
		formatAt(lead.NextFollowUpAt),
		formatAt(lead.LastContactedAt),
		lead.CreatedAt.Format(time.RFC3339),
	}
}
