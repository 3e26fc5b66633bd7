// Package connectors fetches batch mails from a mailbox and turns their
// attachments into upload actions.
package connectors

import (
	"context"

	"placement/internal"
)

type MailConnector interface {
	FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error)
}

// Uploader runs one upload action. *pipeline.UploadService implements it.
type Uploader interface {
	Process(ctx context.Context, req internal.UploadRequest) (internal.UploadReport, error)
}
