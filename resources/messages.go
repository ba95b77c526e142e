package resources

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jrsteele09/helpdesk-console/apiclient"
	apperrors "github.com/jrsteele09/helpdesk-console/internal/errors"
	"github.com/pkg/errors"
)

// Attachment is a file sent with a message.
type Attachment struct {
	Name    string
	Content io.Reader
}

type Messages struct {
	*Service[Message]
}

func NewMessages(api *apiclient.Client, basePath string) *Messages {
	return &Messages{Service: NewService[Message](api, basePath, MessagesName)}
}

// ListForTicket returns the conversation of one ticket.
func (m *Messages) ListForTicket(ctx context.Context, ticketID int) ([]Message, error) {
	return m.List(ctx, url.Values{"ticket": {strconv.Itoa(ticketID)}})
}

// Send posts a message as a multipart form so that attachments can travel
// with it.
func (m *Messages) Send(ctx context.Context, ticketID int, body string, attachments ...Attachment) (*Message, error) {
	if strings.TrimSpace(body) == "" && len(attachments) == 0 {
		return nil, apperrors.Validation("message is empty")
	}

	buf := &bytes.Buffer{}
	form := multipart.NewWriter(buf)
	if err := form.WriteField("ticket", strconv.Itoa(ticketID)); err != nil {
		return nil, errors.Wrap(err, "[Messages.Send] write ticket field")
	}
	if err := form.WriteField("body", body); err != nil {
		return nil, errors.Wrap(err, "[Messages.Send] write body field")
	}
	for _, a := range attachments {
		part, err := form.CreateFormFile("attachment", a.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "[Messages.Send] create attachment %s", a.Name)
		}
		if _, err := io.Copy(part, a.Content); err != nil {
			return nil, errors.Wrapf(err, "[Messages.Send] copy attachment %s", a.Name)
		}
	}
	if err := form.Close(); err != nil {
		return nil, errors.Wrap(err, "[Messages.Send] close form")
	}

	req, err := m.api.NewBodyRequest(ctx, http.MethodPost, m.path, form.FormDataContentType(), buf)
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := m.api.Do(req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
