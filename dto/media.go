package dto

import "time"

type AttachmentResponse struct {
	ID          string    `json:"id"`
	IssueID     string    `json:"issue_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type AttachmentCollectionResponse struct {
	Attachments []AttachmentResponse `json:"attachments"`
	Total       int                  `json:"total"`
}
