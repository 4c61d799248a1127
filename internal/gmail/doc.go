// Package gmail is a thin adapter over the Gmail v1 API.
//
// It exposes the handful of mailbox operations the labeling pipeline needs:
//   - listing and creating labels
//   - listing message ids page by page for a search query
//   - adding labels to up to 1000 messages in one batchModify call
//
// Every call is traced (google.gmail.<operation>) and counted in the
// google_api_* metrics. Errors are returned as the API reported them,
// usually a *googleapi.Error, wrapped with the failing operation.
//
// Example usage:
//
//	client, err := gmail.NewClient(ctx, httpClient, metrics)
//	if err != nil {
//	    return err
//	}
//	page, err := client.ListMessages(ctx, "in:inbox", "")
package gmail
