package image

import "time"

// UploadResult describes a stored object right after upload.
type UploadResult struct {
	Key         string `json:"key"`
	Bucket      string `json:"bucket"`
	Folder      string `json:"folder"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	ETag        string `json:"etag,omitempty"`
}

// Object is a listed item with a time-limited download URL.
type Object struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"content_type,omitempty"`
	LastModified time.Time         `json:"last_modified"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	URL          string            `json:"url"`
}
