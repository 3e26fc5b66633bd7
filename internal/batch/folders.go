package batch

import (
	"context"
	"log/slog"
	"strings"

	"placement/internal/logging"
	"placement/internal/objectstore"
)

// ListFolders returns the batch folders present in bucket. A listing failure
// yields an empty list together with the error so callers can show both.
func ListFolders(ctx context.Context, sink objectstore.Sink, bucket string, log *slog.Logger) ([]string, error) {
	prefixes, err := sink.ListCommonPrefixes(ctx, bucket, "", "/")
	if err != nil {
		logging.OrDiscard(log).Error("listing folders failed", "bucket", bucket, "error", err)
		return []string{}, err
	}

	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		out = append(out, strings.Trim(p, "/"))
	}
	return out, nil
}
