package core

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"
)

type ImageFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

func (f ImageFile) Validate() error {
	if strings.TrimSpace(f.FileName) == "" {
		return fmt.Errorf("core: image file name is required")
	}
	if len(f.Data) == 0 {
		return fmt.Errorf("core: image %q is empty", f.FileName)
	}
	return nil
}

// EncodeImageUpload builds a multipart body and returns it with its
// boundary-bearing content type.
func EncodeImageUpload(field string, files []ImageFile) ([]byte, string, error) {
	if len(files) == 0 {
		return nil, "", BadInputError("core: at least one image is required")
	}
	field = strings.TrimSpace(field)
	if field == "" {
		field = "images"
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, file := range files {
		if err := file.Validate(); err != nil {
			return nil, "", BadInputError(err.Error())
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(
			`form-data; name=%q; filename=%q`, field, filepath.Base(file.FileName),
		))
		contentType := strings.TrimSpace(file.ContentType)
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", InternalError(err, "core: multipart encode failed")
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", InternalError(err, "core: multipart encode failed")
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", InternalError(err, "core: multipart encode failed")
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}
