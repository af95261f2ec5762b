package httpclient

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"github.com/cochinpm/client/pkg/constants"
	apperrors "github.com/cochinpm/client/pkg/errors"
)

// ProgressFunc reports multipart upload progress in bytes of the file part
type ProgressFunc func(sent, total int64)

// PostMultipart streams a multipart POST with the given form fields and one
// file part, reporting byte-level progress of the file as it is consumed.
// The Content-Type (and boundary) is chosen by the multipart writer.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, fileField, fileName string, file io.Reader, size int64, progress ProgressFunc, result interface{}) error {
	token := c.CSRFToken()
	if token == "" {
		return apperrors.NewClientConstraintError("missing CSRF token; fetch " + constants.APIAuthCSRF + " first")
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		err := writeMultipart(writer, fields, fileField, fileName, &progressReader{
			r:        file,
			total:    size,
			progress: progress,
		})
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, pr)
	if err != nil {
		return err
	}
	req.Header.Set(constants.HeaderContentType, writer.FormDataContentType())
	req.Header.Set(constants.HeaderCSRF, token)
	req.Header.Set(constants.HeaderRequestID, uuid.NewString())

	return c.execute(req, result)
}

func writeMultipart(writer *multipart.Writer, fields map[string]string, fileField, fileName string, file io.Reader) error {
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return err
		}
	}
	part, err := writer.CreateFormFile(fileField, fileName)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

// progressReader counts bytes as the multipart writer drains the file
type progressReader struct {
	r        io.Reader
	total    int64
	sent     int64
	progress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.progress != nil {
			p.progress(p.sent, p.total)
		}
	}
	return n, err
}
