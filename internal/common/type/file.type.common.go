package types

import "mime/multipart"

// AudioBlob is one opaque recording handed over by a capture session.
type AudioBlob struct {
	MimeType string `json:"mimetype" validate:"required"`
	Size     int    `json:"size"`
	Buffer   []byte `json:"-" validate:"required"`
}

type UploadFile struct {
	File   multipart.File
	Header *multipart.FileHeader
}
