// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package drive

import (
	"encoding/json"
	"fmt"
)

// Item is one entry returned by a folder listing: a read-only snapshot
// with no identity beyond its name within that listing.
type Item struct {
	Name   string       `json:"name"`
	Folder *FolderFacet `json:"folder,omitempty"`

	// Raw is the provider metadata exactly as listed.
	Raw json.RawMessage `json:"-"`
}

// FolderFacet is present on folder items only.
type FolderFacet struct {
	ChildCount int64 `json:"childCount"`
}

// IsFolder reports whether the item is a folder.
func (it Item) IsFolder() bool { return it.Folder != nil }

// RemoteError is any non-2xx response from the store, excluding the
// tolerated 409 on folder creation and the true/false collapse of
// Exists.
type RemoteError struct {
	Op         string
	Path       string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("drive %s %q: HTTP %d: %s", e.Op, e.Path, e.StatusCode, e.Body)
}

// NotFoundError reports a download target that does not exist. It is
// surfaced distinctly from RemoteError so the sweep can branch on it.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("drive path not found: %s", e.Path)
}
