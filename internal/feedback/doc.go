// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feedback turns uploaded CSV files into feedback items for the
// ingest endpoint.
//
// The first CSV row names the columns. Three columns are understood:
//
//   - content: the feedback text (required; rows without it are dropped)
//   - source: where the feedback came from (default "csv-upload")
//   - rating: a number (default 3.0 when absent or unparseable)
//
// Every column, understood or not, is copied verbatim into the item's
// metadata.
//
// # Usage
//
//	items, err := feedback.ParseFile("reviews.csv")
//	if err != nil {
//	    return err
//	}
//	summary, err := client.Ingest(ctx, items)
package feedback
